package password

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// small costs keep the suite fast
func testHasher() *Hasher {
	return NewHasher(Config{MemoryKiB: 8 * 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32, MinLength: 8})
}

func TestHashEncoding(t *testing.T) {
	hash, err := testHasher().Hash("correct horse battery")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=8192,t=1,p=1$"), hash)

	e, err := parsePHC(hash)
	require.NoError(t, err)
	assert.Len(t, e.salt, 16)
	assert.Len(t, e.key, 32)
	assert.Equal(t, hash, e.String())
}

func TestHashTooShort(t *testing.T) {
	_, err := testHasher().Hash("short")
	assert.ErrorIs(t, err, ErrTooShort)

	_, err = testHasher().Hash("ñañañaña")
	assert.NoError(t, err, "length counts runes")
}

func TestVerify(t *testing.T) {
	h := testHasher()
	hash, err := h.Hash("clinic-door-4")
	require.NoError(t, err)

	assert.NoError(t, h.Verify(hash, "clinic-door-4"))
	for _, wrong := range []string{"", "clinic-door-5", "CLINIC-DOOR-4"} {
		assert.ErrorIs(t, h.Verify(hash, wrong), ErrMismatch, wrong)
	}
}

func TestHashIsSalted(t *testing.T) {
	h := testHasher()
	a, _ := h.Hash("same password")
	b, _ := h.Hash("same password")
	assert.NotEqual(t, a, b)
}

func TestNeedsRehash(t *testing.T) {
	h := testHasher()
	hash, _ := h.Hash("gate-keeper")
	assert.False(t, h.NeedsRehash(hash))
	assert.True(t, h.NeedsRehash("not a hash"))

	stronger := NewHasher(Config{MemoryKiB: 16 * 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32})
	assert.True(t, stronger.NeedsRehash(hash))
	assert.NoError(t, stronger.Verify(hash, "gate-keeper"), "old hashes still verify")
}

func TestLowMemoryModeCapsMemory(t *testing.T) {
	p := Config{MemoryKiB: 64 * 1024, LowMemoryMode: true}.ToParams()
	assert.Equal(t, uint32(32*1024), p.Memory)
}

func TestParsePHCRejects(t *testing.T) {
	tests := map[string]error{
		"":              ErrInvalidHash,
		"randomgarbage": ErrInvalidHash,
		"$argon2i$v=19$m=65536,t=3,p=2$c29tZXNhbHQ$c29tZWhhc2g":  ErrInvalidHash,
		"$argon2id$v=19$invalid$c29tZXNhbHQ$c29tZWhhc2g":         ErrInvalidHash,
		"$argon2id$v=19$m=65536,t=3,p=2$c29tZXNhbHQ$":            ErrInvalidHash,
		"$argon2id$v=16$m=65536,t=3,p=2$c29tZXNhbHQ$c29tZWhhc2g": ErrIncompatibleVersion,
	}
	for in, want := range tests {
		_, err := parsePHC(in)
		assert.ErrorIs(t, err, want, in)
	}
}

func TestGenerate(t *testing.T) {
	for length, want := range map[int]int{0: 16, -5: 16, 1: 1, 8: 8, 20: 20, 33: 33} {
		got := Generate(length)
		assert.Len(t, got, want)
		assert.NotContains(t, got, "=")
	}
}
