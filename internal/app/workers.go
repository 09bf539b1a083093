package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/fx"

	"github.com/educare/track_backend/internal/events"
	"github.com/educare/track_backend/internal/service/notification"
)

const (
	deliveryQueue   = "educare-delivery"
	deliveryTimeout = 20 * time.Second
)

// WorkerModule registers all NATS event workers.
var WorkerModule = fx.Module("workers",
	fx.Invoke(RegisterWorkers),
)

type WorkerParams struct {
	fx.In

	Lc        fx.Lifecycle
	NC        *nats.Conn `optional:"true"`
	Bus       *events.Bus
	Deliverer *notification.Deliverer
}

func RegisterWorkers(p WorkerParams) {
	if p.NC == nil {
		slog.Info("delivery_worker: nats disabled, sms/email fan-out skipped")
		return
	}
	var sub *nats.Subscription
	p.Lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			s, err := startDeliveryWorker(p.NC, p.Bus, p.Deliverer)
			if err != nil {
				return err
			}
			sub = s
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if sub == nil {
				return nil
			}
			return sub.Drain()
		},
	})
}

// ---------------------------------------------------------------------------
// delivery_worker
// ---------------------------------------------------------------------------

// startDeliveryWorker forwards every published notification to SMS and
// email. The queue group makes each message land on one replica only.
func startDeliveryWorker(nc *nats.Conn, bus *events.Bus, d *notification.Deliverer) (*nats.Subscription, error) {
	sub, err := nc.QueueSubscribe(bus.NotificationWildcard(), deliveryQueue, func(msg *nats.Msg) {
		n, err := events.DecodeNotification(msg.Data)
		if err != nil {
			slog.Warn("delivery_worker: bad payload", "subject", msg.Subject, "err", err)
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)
		defer cancel()
		if err := d.Deliver(ctx, n); err != nil {
			slog.Warn("delivery_worker: deliver failed", "notification_id", n.ID, "verb", n.Verb, "err", err)
		}
	})
	if err != nil {
		slog.Error("delivery_worker: subscribe failed", "err", err)
		return nil, err
	}
	slog.Info("delivery_worker: started", "subject", bus.NotificationWildcard())
	return sub, nil
}
