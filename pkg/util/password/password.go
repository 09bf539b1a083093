package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"unicode/utf8"
)

var (
	ErrInvalidHash         = errors.New("invalid password hash format")
	ErrIncompatibleVersion = errors.New("incompatible argon2 version")
	ErrMismatch            = errors.New("password does not match")
	ErrTooShort            = errors.New("password is too short")
)

// Params are the Argon2id cost settings. Memory is in KiB.
type Params struct {
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

func (p Params) sameCost(o Params) bool {
	return p.Memory == o.Memory && p.Iterations == o.Iterations &&
		p.Parallelism == o.Parallelism && p.KeyLength == o.KeyLength
}

// Hasher hashes and verifies passwords with one configured parameter set.
type Hasher struct {
	params    Params
	minLength int
}

func NewHasher(cfg Config) *Hasher {
	return &Hasher{params: *cfg.ToParams(), minLength: cfg.MinLength}
}

func (h *Hasher) Validate(password string) error {
	if utf8.RuneCountInString(password) < h.minLength {
		return fmt.Errorf("%w: minimum is %d characters", ErrTooShort, h.minLength)
	}
	return nil
}

// Hash returns password as a PHC string,
// $argon2id$v=19$m=65536,t=3,p=2$<salt>$<key>.
func (h *Hasher) Hash(password string) (string, error) {
	if err := h.Validate(password); err != nil {
		return "", err
	}
	salt := make([]byte, h.params.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("read salt: %w", err)
	}
	e := phc{params: h.params, salt: salt}
	e.key = e.derive(password)
	return e.String(), nil
}

// Verify returns nil on match. Hashes made with other parameters still
// verify; see NeedsRehash.
func (h *Hasher) Verify(hash, password string) error {
	e, err := parsePHC(hash)
	if err != nil {
		return err
	}
	if subtle.ConstantTimeCompare(e.key, e.derive(password)) != 1 {
		return ErrMismatch
	}
	return nil
}

func (h *Hasher) NeedsRehash(hash string) bool {
	e, err := parsePHC(hash)
	return err != nil || !e.params.sameCost(h.params)
}

// Generate returns a random URL-safe password of length characters, 16
// when length is not positive.
func Generate(length int) string {
	if length <= 0 {
		length = 16
	}
	b := make([]byte, base64.RawURLEncoding.DecodedLen(length)+1)
	if _, err := rand.Read(b); err != nil {
		panic(fmt.Errorf("read random password: %w", err))
	}
	return base64.RawURLEncoding.EncodeToString(b)[:length]
}
