package excuse

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/educare/track_backend/internal/repo"
)

func TestAttachmentKey(t *testing.T) {
	parent := uuid.MustParse("0190a3c4-0000-7000-8000-000000000001")
	student := uuid.MustParse("0190a3c4-0000-7000-8000-000000000002")
	at := time.Unix(1717372800, 0)

	got := AttachmentKey(parent, student, at, "../Doctor's Note (1).pdf")
	want := "excuse_letters/0190a3c4-0000-7000-8000-000000000001/0190a3c4-0000-7000-8000-000000000002/1717372800_Doctor_s_Note__1_.pdf"
	if got != want {
		t.Errorf("AttachmentKey() = %q\nwant %q", got, want)
	}
}

func TestSafeName(t *testing.T) {
	tests := []struct{ in, want string }{
		{"scan.png", "scan.png"},
		{`C:\Users\ana\letter.pdf`, "letter.pdf"},
		{"", "attachment"},
		{"/", "attachment"},
		{"ñandú.jpg", "_and_.jpg"},
	}
	for _, tt := range tests {
		if got := safeName(tt.in); got != tt.want {
			t.Errorf("safeName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCheckAttachment(t *testing.T) {
	tests := []struct {
		name string
		att  Attachment
		want error
	}{
		{"pdf", Attachment{ContentType: "application/pdf", Size: 1024}, nil},
		{"jpeg with params", Attachment{ContentType: "IMAGE/JPEG; charset=binary", Size: 1024}, nil},
		{"too large", Attachment{ContentType: "image/png", Size: MaxAttachmentBytes + 1}, ErrAttachmentTooLarge},
		{"word doc", Attachment{ContentType: "application/msword", Size: 10}, ErrAttachmentType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := checkAttachment(&tt.att); !errors.Is(err, tt.want) {
				t.Errorf("checkAttachment() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestDecideValidatesBeforeLoading(t *testing.T) {
	s := &excuseService{}
	tests := []struct {
		req  DecideRequest
		want error
	}{
		{DecideRequest{Status: "maybe"}, ErrInvalidDecision},
		{DecideRequest{Status: "rejected"}, ErrCommentRequired},
		{DecideRequest{Status: " Rejected ", Comment: "   "}, ErrCommentRequired},
	}
	for _, tt := range tests {
		_, err := s.Decide(context.Background(), Caller{ID: uuid.New(), Role: repo.RoleTeacher}, uuid.New(), tt.req)
		if !errors.Is(err, tt.want) {
			t.Errorf("Decide(%+v) = %v, want %v", tt.req, err, tt.want)
		}
	}
}

func TestSubmitRejectsBadDate(t *testing.T) {
	s := &excuseService{}
	_, err := s.Submit(context.Background(), uuid.New(),
		SubmitRequest{StudentID: uuid.New(), AbsentDate: "06/03/2024", Reason: "fever"}, nil)
	if !errors.Is(err, ErrInvalidDate) {
		t.Errorf("Submit() = %v, want ErrInvalidDate", err)
	}
}

func TestSubmitAttachmentNeedsStorage(t *testing.T) {
	s := &excuseService{}
	_, err := s.Submit(context.Background(), uuid.New(),
		SubmitRequest{StudentID: uuid.New(), AbsentDate: "2024-06-03", Reason: "fever"},
		&Attachment{Name: "a.pdf", ContentType: "application/pdf", Size: 10})
	if !errors.Is(err, ErrStorageDisabled) {
		t.Errorf("Submit() = %v, want ErrStorageDisabled", err)
	}
}

func TestListRejectsOtherRoles(t *testing.T) {
	s := &excuseService{}
	for _, role := range []string{repo.RoleGuard, repo.RoleClinic, ""} {
		if _, err := s.List(context.Background(), Caller{ID: uuid.New(), Role: role}, "", repo.Page{}); !errors.Is(err, ErrForbidden) {
			t.Errorf("List(role=%q) = %v, want ErrForbidden", role, err)
		}
	}
}
