package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/educare/track_backend/config"
	"github.com/educare/track_backend/internal/repo"
	"github.com/educare/track_backend/internal/service/audit"
	"github.com/educare/track_backend/pkg/validate"
)

const (
	KeyTapTimes = "tap_times"
	KeyBranding = "school_branding"
)

// TapTimes holds the arrival cutoff and the dismissal time of each grade
// tier as HH:MM in the school time zone.
type TapTimes struct {
	Arrival string `json:"arrival" validate:"hhmm"`
	Kinder  string `json:"kinder" validate:"hhmm"`
	G13     string `json:"g13" validate:"hhmm"`
	G46     string `json:"g46" validate:"hhmm"`
	JHS     string `json:"jhs" validate:"hhmm"`
	SHS     string `json:"shs" validate:"hhmm"`
}

// Merge returns t with every empty field taken from base.
func (t TapTimes) Merge(base TapTimes) TapTimes {
	pick := func(v, d string) string {
		if strings.TrimSpace(v) == "" {
			return d
		}
		return strings.TrimSpace(v)
	}
	return TapTimes{
		Arrival: pick(t.Arrival, base.Arrival),
		Kinder:  pick(t.Kinder, base.Kinder),
		G13:     pick(t.G13, base.G13),
		G46:     pick(t.G46, base.G46),
		JHS:     pick(t.JHS, base.JHS),
		SHS:     pick(t.SHS, base.SHS),
	}
}

// BuiltinTapTimes are used when neither config nor settings say otherwise.
var BuiltinTapTimes = TapTimes{
	Arrival: "07:30",
	Kinder:  "12:00",
	G13:     "13:00",
	G46:     "15:00",
	JHS:     "16:00",
	SHS:     "16:30",
}

func FromConfig(c config.TapTimesConfig) TapTimes {
	return TapTimes{
		Arrival: c.Arrival, Kinder: c.Kinder, G13: c.G13,
		G46: c.G46, JHS: c.JHS, SHS: c.SHS,
	}.Merge(BuiltinTapTimes)
}

type Branding struct {
	Name    string `json:"name" validate:"max=200"`
	Address string `json:"address" validate:"max=500"`
}

// ---------------------------------------------------------------------------
// Interface
// ---------------------------------------------------------------------------

type Service interface {
	TapTimes(ctx context.Context) (TapTimes, error)
	// UpdateTapTimes merges patch over the current values and stores the result.
	UpdateTapTimes(ctx context.Context, actor uuid.UUID, patch TapTimes) (TapTimes, error)
	Branding(ctx context.Context) (Branding, error)
	UpdateBranding(ctx context.Context, actor uuid.UUID, b Branding) (Branding, error)
}

type settingsService struct {
	store    *repo.Store
	defaults TapTimes
}

func New(store *repo.Store, cfg *config.Config) Service {
	return &settingsService{store: store, defaults: FromConfig(cfg.School.TapTimes)}
}

func (s *settingsService) TapTimes(ctx context.Context) (TapTimes, error) {
	raw, err := s.store.Setting(ctx, KeyTapTimes)
	if errors.Is(err, repo.ErrNotFound) {
		return s.defaults, nil
	}
	if err != nil {
		return TapTimes{}, fmt.Errorf("load tap times: %w", err)
	}
	var stored TapTimes
	if err := json.Unmarshal(raw, &stored); err != nil {
		slog.WarnContext(ctx, "settings: stored tap_times unreadable, using defaults", "err", err)
		return s.defaults, nil
	}
	merged := stored.Merge(s.defaults)
	if validate.Struct(merged) != nil {
		slog.WarnContext(ctx, "settings: stored tap_times invalid, using defaults", "value", string(raw))
		return s.defaults, nil
	}
	return merged, nil
}

func (s *settingsService) UpdateTapTimes(ctx context.Context, actor uuid.UUID, patch TapTimes) (TapTimes, error) {
	current, err := s.TapTimes(ctx)
	if err != nil {
		return TapTimes{}, err
	}
	next := patch.Merge(current)
	if err := validate.Struct(next); err != nil {
		return TapTimes{}, ErrInvalidClock
	}
	err = s.store.InTx(ctx, func(q *repo.Queries) error {
		if err := q.PutSetting(ctx, KeyTapTimes, next); err != nil {
			return err
		}
		return q.InsertAudit(ctx, audit.Entry(actor, audit.ActionSettingsUpdated, "system_settings", uuid.Nil,
			map[string]any{"key": KeyTapTimes, "before": current, "after": next}))
	})
	if err != nil {
		return TapTimes{}, fmt.Errorf("save tap times: %w", err)
	}
	return next, nil
}

func (s *settingsService) Branding(ctx context.Context) (Branding, error) {
	raw, err := s.store.Setting(ctx, KeyBranding)
	if errors.Is(err, repo.ErrNotFound) {
		return Branding{}, nil
	}
	if err != nil {
		return Branding{}, fmt.Errorf("load branding: %w", err)
	}
	var b Branding
	_ = json.Unmarshal(raw, &b)
	return b, nil
}

func (s *settingsService) UpdateBranding(ctx context.Context, actor uuid.UUID, b Branding) (Branding, error) {
	b.Name = strings.TrimSpace(b.Name)
	b.Address = strings.TrimSpace(b.Address)
	if err := validate.Struct(b); err != nil {
		return Branding{}, ErrInvalidValue
	}
	err := s.store.InTx(ctx, func(q *repo.Queries) error {
		if err := q.PutSetting(ctx, KeyBranding, b); err != nil {
			return err
		}
		return q.InsertAudit(ctx, audit.Entry(actor, audit.ActionSettingsUpdated, "system_settings", uuid.Nil,
			map[string]any{"key": KeyBranding}))
	})
	if err != nil {
		return Branding{}, fmt.Errorf("save branding: %w", err)
	}
	return b, nil
}
