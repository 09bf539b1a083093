package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/educare/track_backend/internal/repo"
	pasetotoken "github.com/educare/track_backend/pkg/paseto"
	"github.com/educare/track_backend/pkg/reqctx"
	"github.com/educare/track_backend/pkg/util/password"
)

const (
	maxLoginAttempts = 5
	accountLockMins  = 15
)

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

type LoginRequest struct {
	Email    string
	Password string
}

type AuthTokens struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	ExpiresIn    int64         `json:"expires_in"`
	Profile      *repo.Profile `json:"profile,omitempty"`
}

// Profiles is the part of the store the auth flow reads and writes.
type Profiles interface {
	ProfileByEmail(ctx context.Context, email string) (repo.Profile, error)
	ProfileByID(ctx context.Context, id uuid.UUID) (repo.Profile, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, p repo.ProfilePatch) (repo.Profile, error)
}

// Tokens issues and verifies PASETO tokens. *pasetotoken.Manager satisfies it.
type Tokens interface {
	IssueAccess(sub pasetotoken.Subject) (string, error)
	IssueRefresh(sub pasetotoken.Subject) (string, error)
	Verify(token string) (*pasetotoken.Claims, error)
	AccessTTL() time.Duration
	RefreshTTL() time.Duration
}

// ---------------------------------------------------------------------------
// Service interface
// ---------------------------------------------------------------------------

type Service interface {
	Login(ctx context.Context, req LoginRequest) (*AuthTokens, error)
	RefreshTokens(ctx context.Context, refreshToken string) (*AuthTokens, error)
	Logout(ctx context.Context, userID, sessionID uuid.UUID) error
	// ResolveSession turns an access token into the request's Session. The
	// profile is reloaded on every call so role changes and deactivation
	// apply immediately.
	ResolveSession(ctx context.Context, accessToken string) (*reqctx.Session, error)
	ChangePassword(ctx context.Context, userID uuid.UUID, current, next string) error
	// RevokeUserSessions ends every session of userID.
	RevokeUserSessions(ctx context.Context, userID uuid.UUID) error
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type authService struct {
	profiles Profiles
	sessions SessionStore
	tokens   Tokens
	hasher   *password.Hasher
}

func New(profiles Profiles, sessions SessionStore, tokens Tokens, hasher *password.Hasher) Service {
	return &authService{profiles: profiles, sessions: sessions, tokens: tokens, hasher: hasher}
}

// ---------------------------------------------------------------------------
// Login
// ---------------------------------------------------------------------------

func (s *authService) Login(ctx context.Context, req LoginRequest) (*AuthTokens, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		return nil, ErrInvalidCredentials
	}

	failures, err := s.sessions.Failures(ctx, email)
	if err != nil {
		slog.WarnContext(ctx, "auth: read login failures", "err", err)
	}
	if failures >= maxLoginAttempts {
		return nil, ErrAccountLocked
	}

	p, err := s.profiles.ProfileByEmail(ctx, email)
	if errors.Is(err, repo.ErrNotFound) {
		s.recordFailedLogin(ctx, email)
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("find profile: %w", err)
	}
	if err := s.hasher.Verify(p.PasswordHash, req.Password); err != nil {
		s.recordFailedLogin(ctx, email)
		return nil, ErrInvalidCredentials
	}
	if !p.IsActive {
		return nil, ErrAccountInactive
	}

	if err := s.sessions.ClearFailures(ctx, email); err != nil {
		slog.WarnContext(ctx, "auth: clear login failures", "err", err)
	}
	if s.hasher.NeedsRehash(p.PasswordHash) {
		s.rehash(ctx, p.ID, req.Password)
	}
	return s.createSession(ctx, p)
}

func (s *authService) recordFailedLogin(ctx context.Context, email string) {
	if err := s.sessions.AddFailure(ctx, email, accountLockMins*time.Minute); err != nil {
		slog.WarnContext(ctx, "auth: record login failure", "err", err)
	}
}

func (s *authService) rehash(ctx context.Context, id uuid.UUID, plain string) {
	h, err := s.hasher.Hash(plain)
	if err != nil {
		return
	}
	if _, err := s.profiles.UpdateProfile(ctx, id, repo.ProfilePatch{PasswordHash: &h}); err != nil {
		slog.WarnContext(ctx, "auth: rehash password", "user_id", id, "err", err)
	}
}

// ---------------------------------------------------------------------------
// Refresh / logout
// ---------------------------------------------------------------------------

func (s *authService) RefreshTokens(ctx context.Context, refreshToken string) (*AuthTokens, error) {
	claims, err := s.tokens.Verify(refreshToken)
	if err != nil || claims.Type != pasetotoken.TokenTypeRefresh {
		return nil, ErrInvalidToken
	}
	p, err := s.liveProfile(ctx, claims)
	if err != nil {
		return nil, err
	}

	if err := s.sessions.Touch(ctx, claims.SessionID, s.tokens.RefreshTTL()); err != nil {
		slog.WarnContext(ctx, "auth: extend session", "session_id", claims.SessionID, "err", err)
	}
	access, err := s.tokens.IssueAccess(pasetotoken.Subject{UserID: p.ID, SessionID: claims.SessionID, Role: p.Role})
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	return &AuthTokens{
		AccessToken:  access,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.tokens.AccessTTL().Seconds()),
	}, nil
}

func (s *authService) Logout(ctx context.Context, userID, sessionID uuid.UUID) error {
	if err := s.sessions.Delete(ctx, userID, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *authService) RevokeUserSessions(ctx context.Context, userID uuid.UUID) error {
	n, err := s.sessions.DeleteAll(ctx, userID)
	if err != nil {
		return err
	}
	slog.InfoContext(ctx, "auth: sessions revoked", "user_id", userID, "count", n)
	return nil
}

// ---------------------------------------------------------------------------
// Session resolution
// ---------------------------------------------------------------------------

func (s *authService) ResolveSession(ctx context.Context, accessToken string) (*reqctx.Session, error) {
	claims, err := s.tokens.Verify(accessToken)
	if err != nil || claims.Type != pasetotoken.TokenTypeAccess {
		return nil, ErrInvalidToken
	}
	p, err := s.liveProfile(ctx, claims)
	if err != nil {
		return nil, err
	}
	return &reqctx.Session{
		UserID:    p.ID,
		SessionID: claims.SessionID,
		Role:      p.Role,
		FullName:  p.FullName,
		Email:     p.Email,
	}, nil
}

// liveProfile checks that the token's session is still live and belongs to
// its subject, then loads the active profile.
func (s *authService) liveProfile(ctx context.Context, claims *pasetotoken.Claims) (repo.Profile, error) {
	owner, err := s.sessions.Lookup(ctx, claims.SessionID)
	if err != nil {
		return repo.Profile{}, err
	}
	if owner != claims.UserID {
		return repo.Profile{}, ErrInvalidToken
	}
	p, err := s.profiles.ProfileByID(ctx, claims.UserID)
	if errors.Is(err, repo.ErrNotFound) {
		return repo.Profile{}, ErrSessionNotFound
	}
	if err != nil {
		return repo.Profile{}, fmt.Errorf("load profile: %w", err)
	}
	if !p.IsActive {
		return repo.Profile{}, ErrAccountInactive
	}
	return p, nil
}

func (s *authService) ChangePassword(ctx context.Context, userID uuid.UUID, current, next string) error {
	p, err := s.profiles.ProfileByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("load profile: %w", err)
	}
	if err := s.hasher.Verify(p.PasswordHash, current); err != nil {
		return ErrWrongPassword
	}
	h, err := s.hasher.Hash(next)
	if err != nil {
		return err
	}
	if _, err := s.profiles.UpdateProfile(ctx, userID, repo.ProfilePatch{PasswordHash: &h}); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func (s *authService) createSession(ctx context.Context, p repo.Profile) (*AuthTokens, error) {
	sessionID := uuid.Must(uuid.NewV7())
	if err := s.sessions.Create(ctx, p.ID, sessionID, s.tokens.RefreshTTL()); err != nil {
		return nil, err
	}

	sub := pasetotoken.Subject{UserID: p.ID, SessionID: sessionID, Role: p.Role}
	access, err := s.tokens.IssueAccess(sub)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	refresh, err := s.tokens.IssueRefresh(sub)
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}

	slog.InfoContext(ctx, "auth: login", "user_id", p.ID, "role", p.Role, "session_id", sessionID)
	return &AuthTokens{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.tokens.AccessTTL().Seconds()),
		Profile:      &p,
	}, nil
}
