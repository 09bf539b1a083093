package reqctx

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestSessionRoundTrip(t *testing.T) {
	ctx := context.Background()
	if _, ok := SessionFromContext(ctx); ok {
		t.Fatal("empty context should have no session")
	}
	if _, ok := UserIDFromContext(ctx); ok {
		t.Fatal("empty context should have no user id")
	}

	id := uuid.New()
	ctx = WithSession(ctx, &Session{UserID: id, Role: "teacher", FullName: "Ana Santos"})

	s, ok := SessionFromContext(ctx)
	if !ok || s.UserID != id {
		t.Fatalf("SessionFromContext = %+v, %v", s, ok)
	}
	if !s.HasRole("admin", "teacher") {
		t.Error("HasRole should match teacher")
	}
	if s.HasRole("guard") {
		t.Error("HasRole should not match guard")
	}
	if got, _ := UserIDFromContext(ctx); got != id {
		t.Errorf("UserIDFromContext = %v", got)
	}
}

func TestNilSessionHasNoRole(t *testing.T) {
	var s *Session
	if s.HasRole("admin") {
		t.Error("nil session must not hold roles")
	}
	ctx := WithSession(context.Background(), nil)
	if _, ok := SessionFromContext(ctx); ok {
		t.Error("nil session should read as absent")
	}
}

func TestLogAttrs(t *testing.T) {
	if attrs := LogAttrs(context.Background()); len(attrs) != 0 {
		t.Errorf("background attrs = %v", attrs)
	}

	id := uuid.New()
	ctx := WithRequestMeta(context.Background(), &RequestMeta{RequestID: "req-9"})
	ctx = WithSession(ctx, &Session{UserID: id, Role: "nurse"})

	got := map[string]string{}
	for _, a := range LogAttrs(ctx) {
		got[a.Key] = a.Value.String()
	}
	want := map[string]string{"request_id": "req-9", "actor_id": id.String(), "actor_role": "nurse"}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("%s = %q, want %q", k, got[k], v)
		}
	}
}

func TestRequestID(t *testing.T) {
	ctx := WithRequestMeta(context.Background(), &RequestMeta{RequestID: "req-1", RequestedAt: time.Now()})
	if got := RequestIDFromContext(ctx); got != "req-1" {
		t.Errorf("RequestIDFromContext = %q", got)
	}
	if got := RequestIDFromContext(context.Background()); got != "" {
		t.Errorf("RequestIDFromContext(empty) = %q", got)
	}
}
