package pasetotoken

import (
	"time"

	paseto "aidanwoods.dev/go-paseto"

	"github.com/educare/track_backend/config"
)

const (
	defaultAccessTTL  = 15 * time.Minute
	defaultRefreshTTL = 14 * 24 * time.Hour
)

type Options struct {
	Issuer     string
	Audience   string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// Manager issues and verifies the access and refresh tokens of one
// deployment.
type Manager struct {
	opts   Options
	keys   Keyring
	parser paseto.Parser
}

func New(keys Keyring, opts Options) (*Manager, error) {
	if !keys.CanIssue() {
		return nil, misconfigured("%s keyring cannot issue tokens", keys.Mode())
	}
	if opts.Issuer == "" || opts.Audience == "" {
		return nil, misconfigured("issuer and audience are required")
	}
	if opts.AccessTTL <= 0 {
		opts.AccessTTL = defaultAccessTTL
	}
	if opts.RefreshTTL <= 0 {
		opts.RefreshTTL = defaultRefreshTTL
	}

	// expiry and nbf are checked per parse, against the clock at that moment
	parser := paseto.NewParserWithoutExpiryCheck()
	parser.AddRule(
		paseto.IssuedBy(opts.Issuer),
		paseto.ForAudience(opts.Audience),
		paseto.NotExpired(),
		paseto.NotBeforeNbf(),
	)
	return &Manager{opts: opts, keys: keys, parser: parser}, nil
}

// FromConfig builds the Manager described by authentication.paseto.
func FromConfig(p config.PasetoConfig) (*Manager, error) {
	keys, err := ParseKeyring(Mode(p.Mode), p.LocalKeyHex, p.SecretKeyHex, p.PublicKeyHex)
	if err != nil {
		return nil, err
	}
	return New(keys, Options{
		Issuer:     p.Issuer,
		Audience:   p.Audience,
		AccessTTL:  time.Duration(p.AccessTTLMinutes) * time.Minute,
		RefreshTTL: time.Duration(p.RefreshTTLDays) * 24 * time.Hour,
	})
}

func (m *Manager) AccessTTL() time.Duration  { return m.opts.AccessTTL }
func (m *Manager) RefreshTTL() time.Duration { return m.opts.RefreshTTL }
