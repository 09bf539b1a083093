package notification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/samber/lo"

	"github.com/educare/track_backend/internal/events"
	"github.com/educare/track_backend/internal/repo"
)

// ---------------------------------------------------------------------------
// Fan-out
// ---------------------------------------------------------------------------

// Fanout builds one row per distinct recipient. uuid.Nil entries (a student
// without adviser, a pass without issuer) are dropped.
func Fanout(actor *uuid.UUID, verb string, object any, recipients ...[]uuid.UUID) []repo.NewNotification {
	ids := lo.Uniq(lo.Flatten(recipients))
	ids = lo.Reject(ids, func(id uuid.UUID, _ int) bool { return id == uuid.Nil })

	return lo.Map(ids, func(id uuid.UUID, _ int) repo.NewNotification {
		return repo.NewNotification{RecipientID: id, ActorID: actor, Verb: verb, Object: object}
	})
}

// ---------------------------------------------------------------------------
// Interface
// ---------------------------------------------------------------------------

type ListResult struct {
	Items  []repo.Notification `json:"items"`
	Unread int                 `json:"unread"`
}

type Service interface {
	List(ctx context.Context, userID uuid.UUID, unreadOnly bool, page repo.Page) (*ListResult, error)
	MarkRead(ctx context.Context, notifID, userID uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
	// Stream delivers the caller's notifications as they are published until
	// ctx is done.
	Stream(ctx context.Context, userID uuid.UUID) (<-chan repo.Notification, error)
}

// Subscriber is the part of *nats.Conn Stream needs.
type Subscriber interface {
	ChanSubscribe(subj string, ch chan *nats.Msg) (*nats.Subscription, error)
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type notificationService struct {
	store *repo.Store
	sub   Subscriber
	bus   *events.Bus
}

func New(store *repo.Store, nc *nats.Conn, bus *events.Bus) Service {
	s := &notificationService{store: store, bus: bus}
	if nc != nil {
		s.sub = nc
	}
	return s
}

func (s *notificationService) List(ctx context.Context, userID uuid.UUID, unreadOnly bool, page repo.Page) (*ListResult, error) {
	items, err := s.store.ListNotifications(ctx, userID, unreadOnly, page)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	unread, err := s.store.UnreadCount(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("count unread: %w", err)
	}
	if items == nil {
		items = []repo.Notification{}
	}
	return &ListResult{Items: items, Unread: unread}, nil
}

func (s *notificationService) MarkRead(ctx context.Context, notifID, userID uuid.UUID) error {
	err := s.store.MarkNotificationRead(ctx, notifID, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

func (s *notificationService) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.store.MarkAllNotificationsRead(ctx, userID)
}

func (s *notificationService) Stream(ctx context.Context, userID uuid.UUID) (<-chan repo.Notification, error) {
	if s.sub == nil || s.bus == nil {
		return nil, ErrStreamUnavailable
	}

	msgs := make(chan *nats.Msg, 16)
	sub, err := s.sub.ChanSubscribe(s.bus.NotificationSubject(userID), msgs)
	if err != nil {
		return nil, fmt.Errorf("subscribe notifications: %w", err)
	}

	out := make(chan repo.Notification)
	go func() {
		defer close(out)
		defer sub.Unsubscribe()
		for {
			select {
			case <-ctx.Done():
				return
			case m := <-msgs:
				n, err := events.DecodeNotification(m.Data)
				if err != nil {
					slog.Warn("notification stream: bad payload", "subject", m.Subject, "err", err)
					continue
				}
				select {
				case out <- n:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
