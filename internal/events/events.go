// Package events publishes committed domain events on NATS.
package events

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/educare/track_backend/internal/repo"
	"github.com/educare/track_backend/pkg/observability"
)

// Publisher is the part of *nats.Conn the bus needs.
type Publisher interface {
	Publish(subj string, data []byte) error
}

// Bus publishes events after the writing transaction has committed.
// Publishing is best effort: failures are logged and counted, never returned.
type Bus struct {
	pub     Publisher
	prefix  string
	metrics *observability.Metrics
}

func NewBus(pub Publisher, prefix string, m *observability.Metrics) *Bus {
	if prefix == "" {
		prefix = "educare"
	}
	return &Bus{pub: pub, prefix: prefix, metrics: m}
}

// NewNatsBus is NewBus over a live connection.
func NewNatsBus(nc *nats.Conn, prefix string, m *observability.Metrics) *Bus {
	return NewBus(nc, prefix, m)
}

// NotificationSubject is <prefix>.notifications.<recipient>.
func (b *Bus) NotificationSubject(recipient uuid.UUID) string {
	return b.prefix + ".notifications." + recipient.String()
}

// NotificationWildcard matches every recipient subject.
func (b *Bus) NotificationWildcard() string {
	return b.prefix + ".notifications.*"
}

// PublishNotifications sends each stored row to its recipient subject.
func (b *Bus) PublishNotifications(ctx context.Context, rows []repo.Notification) {
	if b == nil || b.pub == nil {
		return
	}
	for _, n := range rows {
		data, err := json.Marshal(n)
		if err != nil {
			slog.ErrorContext(ctx, "events: encode notification", "id", n.ID, "err", err)
			continue
		}
		err = b.pub.Publish(b.NotificationSubject(n.RecipientID), data)
		b.metrics.Published(ctx, err == nil)
		if err != nil {
			slog.WarnContext(ctx, "events: publish notification failed",
				"id", n.ID, "recipient", n.RecipientID, "err", err)
		}
	}
}

// DecodeNotification parses a message produced by PublishNotifications.
func DecodeNotification(data []byte) (repo.Notification, error) {
	var n repo.Notification
	err := json.Unmarshal(data, &n)
	return n, err
}
