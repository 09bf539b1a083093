package notification

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/educare/track_backend/internal/repo"
	"github.com/educare/track_backend/pkg/email"
)

func TestFanoutDedupsAndDropsNil(t *testing.T) {
	issuer, adviser, parent := uuid.New(), uuid.New(), uuid.New()
	actor := uuid.New()

	rows := Fanout(&actor, VerbStudentInClinic, Object{FullName: "Ana"},
		[]uuid.UUID{issuer},
		[]uuid.UUID{adviser, issuer, uuid.Nil},
		[]uuid.UUID{parent, parent},
	)

	require.Len(t, rows, 3)
	got := []uuid.UUID{rows[0].RecipientID, rows[1].RecipientID, rows[2].RecipientID}
	assert.Equal(t, []uuid.UUID{issuer, adviser, parent}, got, "first-seen order is kept")
	for _, r := range rows {
		assert.Equal(t, VerbStudentInClinic, r.Verb)
		assert.Equal(t, &actor, r.ActorID)
	}
}

func TestFanoutEmpty(t *testing.T) {
	assert.Empty(t, Fanout(nil, VerbClinicUpdate, nil))
	assert.Empty(t, Fanout(nil, VerbClinicUpdate, nil, []uuid.UUID{uuid.Nil}))
}

func TestObjectShape(t *testing.T) {
	b, err := json.Marshal(Object{StudentID: uuid.Nil, FullName: "Ana", Remarks: "Entered Late", Time: "07:45", Status: "late"})
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	assert.ElementsMatch(t, []string{"student_id", "full_name", "remarks", "time", "status"}, keys(m))

	o := DecodeObject(b)
	assert.Equal(t, "late", o.Status)
	assert.Equal(t, Object{}, DecodeObject(json.RawMessage(`[1,2]`)))
}

func keys(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

// ---------------------------------------------------------------------------
// Deliverer
// ---------------------------------------------------------------------------

type fakeProfiles map[uuid.UUID]repo.Profile

func (f fakeProfiles) ProfileByID(_ context.Context, id uuid.UUID) (repo.Profile, error) {
	p, ok := f[id]
	if !ok {
		return repo.Profile{}, repo.ErrNotFound
	}
	return p, nil
}

type fakeSMS struct {
	templates map[string]bool
	sent      []string
	err       error
}

func (f *fakeSMS) HasTemplate(verb string) bool { return f.templates[verb] }

func (f *fakeSMS) SendAlert(_ context.Context, phone, verb string, params map[string]string) error {
	f.sent = append(f.sent, phone+"|"+verb+"|"+params["student"])
	return f.err
}

type fakeMail struct {
	enabled bool
	sent    []email.Message
}

func (f *fakeMail) IsEnabled() bool { return f.enabled }

func (f *fakeMail) Send(_ context.Context, m email.Message) error {
	f.sent = append(f.sent, m)
	return nil
}

func TestDeliverer(t *testing.T) {
	phone := "+639171234567"
	parent := repo.Profile{ID: uuid.New(), Role: repo.RoleParent, IsActive: true, Email: "p@example.com", FullName: "Maria", Phone: &phone}
	teacher := repo.Profile{ID: uuid.New(), Role: repo.RoleTeacher, IsActive: true, Email: "t@example.com"}
	profiles := fakeProfiles{parent.ID: parent, teacher.ID: teacher}

	obj, _ := json.Marshal(Object{FullName: "Ana Cruz", Status: "late", Time: "07:45"})

	t.Run("parent gets sms and email", func(t *testing.T) {
		sms := &fakeSMS{templates: map[string]bool{VerbAttendanceEntry: true}}
		mail := &fakeMail{enabled: true}
		d := NewDeliverer(profiles, sms, mail, nil, "Educare")

		err := d.Deliver(context.Background(), repo.Notification{RecipientID: parent.ID, Verb: VerbAttendanceEntry, Object: obj})
		require.NoError(t, err)
		assert.Equal(t, []string{phone + "|attendance_entry|Ana Cruz"}, sms.sent)
		require.Len(t, mail.sent, 1)
		assert.Equal(t, []string{"p@example.com"}, mail.sent[0].To)
		assert.Contains(t, mail.sent[0].Subject, "Ana Cruz")
	})

	t.Run("staff recipients are skipped", func(t *testing.T) {
		sms := &fakeSMS{templates: map[string]bool{VerbAttendanceEntry: true}}
		d := NewDeliverer(profiles, sms, &fakeMail{enabled: true}, nil, "")
		require.NoError(t, d.Deliver(context.Background(), repo.Notification{RecipientID: teacher.ID, Verb: VerbAttendanceEntry, Object: obj}))
		assert.Empty(t, sms.sent)
	})

	t.Run("verbs without channel are ignored", func(t *testing.T) {
		d := NewDeliverer(profiles, &fakeSMS{}, &fakeMail{enabled: false}, nil, "")
		assert.False(t, d.Wants(VerbFindingsReady))
		require.NoError(t, d.Deliver(context.Background(), repo.Notification{RecipientID: uuid.New(), Verb: VerbFindingsReady}))
	})

	t.Run("channel failure is reported", func(t *testing.T) {
		sms := &fakeSMS{templates: map[string]bool{VerbClinicCheckout: true}, err: errors.New("gateway down")}
		mail := &fakeMail{enabled: true}
		d := NewDeliverer(profiles, sms, mail, nil, "")
		err := d.Deliver(context.Background(), repo.Notification{RecipientID: parent.ID, Verb: VerbClinicCheckout, Object: obj})
		require.Error(t, err)
		assert.Len(t, mail.sent, 1, "email is still attempted")
	})
}
