package pasetotoken

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	paseto "aidanwoods.dev/go-paseto"
	"github.com/google/uuid"
)

const (
	claimType    = "typ"
	claimUser    = "uid"
	claimSession = "sid"
	claimRole    = "role"
)

func (m *Manager) IssueAccess(sub Subject) (string, error) {
	return m.issue(TokenTypeAccess, sub, m.opts.AccessTTL)
}

func (m *Manager) IssueRefresh(sub Subject) (string, error) {
	return m.issue(TokenTypeRefresh, sub, m.opts.RefreshTTL)
}

func (m *Manager) issue(tt TokenType, sub Subject, ttl time.Duration) (string, error) {
	now := time.Now()
	tok := paseto.NewToken()
	tok.SetIssuer(m.opts.Issuer)
	tok.SetAudience(m.opts.Audience)
	tok.SetJti(tokenID())
	tok.SetIssuedAt(now)
	tok.SetNotBefore(now)
	tok.SetExpiration(now.Add(ttl))
	tok.SetSubject(sub.UserID.String())
	tok.SetString(claimType, string(tt))
	tok.SetString(claimUser, sub.UserID.String())
	tok.SetString(claimSession, sub.SessionID.String())
	tok.SetString(claimRole, sub.Role)

	if m.keys.mode == ModeLocal {
		return tok.V4Encrypt(*m.keys.local, nil), nil
	}
	return tok.V4Sign(*m.keys.secret, nil), nil
}

// Verify checks the signature or encryption, issuer, audience and validity
// window, then decodes the Educare claims.
func (m *Manager) Verify(raw string) (*Claims, error) {
	var (
		tok *paseto.Token
		err error
	)
	if m.keys.mode == ModeLocal {
		tok, err = m.parser.ParseV4Local(*m.keys.local, raw, nil)
	} else {
		tok, err = m.parser.ParseV4Public(*m.keys.public, raw, nil)
	}
	if err != nil {
		return nil, invalid(err)
	}
	c, err := m.decode(tok)
	if err != nil {
		return nil, invalid(err)
	}
	return c, nil
}

func (m *Manager) decode(tok *paseto.Token) (*Claims, error) {
	c := &Claims{Issuer: m.opts.Issuer, Audience: m.opts.Audience}
	var err error
	if c.TokenID, err = tok.GetJti(); err != nil {
		return nil, err
	}
	if c.IssuedAt, err = tok.GetIssuedAt(); err != nil {
		return nil, err
	}
	if c.NotBefore, err = tok.GetNotBefore(); err != nil {
		return nil, err
	}
	if c.ExpiresAt, err = tok.GetExpiration(); err != nil {
		return nil, err
	}
	typ, err := tok.GetString(claimType)
	if err != nil {
		return nil, err
	}
	c.Type = TokenType(typ)
	if c.UserID, err = uuidClaim(tok, claimUser); err != nil {
		return nil, err
	}
	if c.SessionID, err = uuidClaim(tok, claimSession); err != nil {
		return nil, err
	}
	c.Role, _ = tok.GetString(claimRole)
	return c, nil
}

func uuidClaim(tok *paseto.Token, key string) (uuid.UUID, error) {
	s, err := tok.GetString(key)
	if err != nil {
		return uuid.Nil, err
	}
	return uuid.Parse(s)
}

func tokenID() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
