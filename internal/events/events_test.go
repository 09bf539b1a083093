package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/educare/track_backend/internal/repo"
)

type recordingPublisher struct {
	subjects []string
	payloads [][]byte
	fail     bool
}

func (p *recordingPublisher) Publish(subj string, data []byte) error {
	if p.fail {
		return errors.New("nats: connection closed")
	}
	p.subjects = append(p.subjects, subj)
	p.payloads = append(p.payloads, data)
	return nil
}

func TestPublishNotifications(t *testing.T) {
	pub := &recordingPublisher{}
	bus := NewBus(pub, "", nil)

	a, b := uuid.New(), uuid.New()
	rows := []repo.Notification{
		{ID: uuid.New(), RecipientID: a, Verb: "attendance_entry", Object: json.RawMessage(`{"status":"late"}`)},
		{ID: uuid.New(), RecipientID: b, Verb: "attendance_entry", Object: json.RawMessage(`{}`)},
	}
	bus.PublishNotifications(context.Background(), rows)

	if len(pub.subjects) != 2 {
		t.Fatalf("published %d, want 2", len(pub.subjects))
	}
	if pub.subjects[0] != "educare.notifications."+a.String() {
		t.Errorf("subject = %q", pub.subjects[0])
	}

	got, err := DecodeNotification(pub.payloads[0])
	if err != nil {
		t.Fatalf("DecodeNotification: %v", err)
	}
	if got.ID != rows[0].ID || got.Verb != "attendance_entry" || string(got.Object) != `{"status":"late"}` {
		t.Errorf("decoded = %+v", got)
	}
}

func TestPublishFailureIsSwallowed(t *testing.T) {
	bus := NewBus(&recordingPublisher{fail: true}, "school", nil)
	bus.PublishNotifications(context.Background(), []repo.Notification{{ID: uuid.New(), RecipientID: uuid.New()}})

	if bus.NotificationWildcard() != "school.notifications.*" {
		t.Errorf("wildcard = %q", bus.NotificationWildcard())
	}

	var nilBus *Bus
	nilBus.PublishNotifications(context.Background(), nil)
}
