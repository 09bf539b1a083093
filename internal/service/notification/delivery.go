package notification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/educare/track_backend/internal/repo"
	"github.com/educare/track_backend/pkg/email"
	"github.com/educare/track_backend/pkg/observability"
)

// ProfileLookup resolves recipients.
type ProfileLookup interface {
	ProfileByID(ctx context.Context, id uuid.UUID) (repo.Profile, error)
}

type SMSSender interface {
	HasTemplate(verb string) bool
	SendAlert(ctx context.Context, phone, verb string, params map[string]string) error
}

type MailSender interface {
	IsEnabled() bool
	Send(ctx context.Context, m email.Message) error
}

// Deliverer pushes parent-facing notifications out over SMS and email.
// Each channel is attempted independently.
type Deliverer struct {
	profiles ProfileLookup
	sms      SMSSender
	mail     MailSender
	metrics  *observability.Metrics
	appName  string
}

func NewDeliverer(profiles ProfileLookup, sms SMSSender, mail MailSender, m *observability.Metrics, appName string) *Deliverer {
	return &Deliverer{profiles: profiles, sms: sms, mail: mail, metrics: m, appName: appName}
}

// Wants reports whether any channel handles verb.
func (d *Deliverer) Wants(verb string) bool {
	return (d.sms != nil && d.sms.HasTemplate(verb)) ||
		(d.mail != nil && d.mail.IsEnabled() && email.HasAlertTemplate(verb))
}

func (d *Deliverer) Deliver(ctx context.Context, n repo.Notification) error {
	if !d.Wants(n.Verb) {
		return nil
	}

	p, err := d.profiles.ProfileByID(ctx, n.RecipientID)
	if err != nil {
		return fmt.Errorf("load recipient: %w", err)
	}
	if !p.IsActive || p.Role != repo.RoleParent {
		return nil
	}
	obj := DecodeObject(n.Object)

	var errs []error
	if d.sms != nil && d.sms.HasTemplate(n.Verb) && p.Phone != nil && *p.Phone != "" {
		err := d.sms.SendAlert(ctx, *p.Phone, n.Verb, map[string]string{
			"student": obj.FullName,
			"status":  obj.Status,
			"time":    obj.Time,
		})
		d.metrics.Delivered(ctx, "sms", err == nil)
		if err != nil {
			errs = append(errs, fmt.Errorf("sms: %w", err))
		}
	}

	if d.mail != nil && d.mail.IsEnabled() && email.HasAlertTemplate(n.Verb) && p.Email != "" {
		m := email.ParentAlert(p.Email, email.AlertEmailData{
			ParentName:  p.FullName,
			StudentName: obj.FullName,
			Verb:        n.Verb,
			Status:      obj.Status,
			Remarks:     obj.Remarks,
			Time:        obj.Time,
			AppName:     d.appName,
		})
		err := d.mail.Send(ctx, m)
		d.metrics.Delivered(ctx, "email", err == nil)
		if err != nil {
			errs = append(errs, fmt.Errorf("email: %w", err))
		}
	}

	if len(errs) > 0 {
		slog.WarnContext(ctx, "notification delivery failed", "id", n.ID, "verb", n.Verb, "err", errors.Join(errs...))
	}
	return errors.Join(errs...)
}
