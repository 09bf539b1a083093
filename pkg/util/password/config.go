package password

import "github.com/educare/track_backend/config"

// Config holds Argon2id password hashing parameters and the accepted
// minimum length.
type Config struct {
	MemoryKiB     uint32
	Iterations    uint32
	Parallelism   uint8
	SaltLength    uint32
	KeyLength     uint32
	LowMemoryMode bool
	MinLength     int
}

// ToParams converts Config to Params, capping memory in low-memory mode.
func (c Config) ToParams() *Params {
	memory := c.MemoryKiB
	if c.LowMemoryMode && memory > 32*1024 {
		memory = 32 * 1024
	}

	return &Params{
		Memory:      memory,
		Iterations:  c.Iterations,
		Parallelism: c.Parallelism,
		SaltLength:  c.SaltLength,
		KeyLength:   c.KeyLength,
	}
}

// DefaultConfig returns OWASP-recommended defaults for password hashing
func DefaultConfig() Config {
	return Config{
		MemoryKiB:   64 * 1024,
		Iterations:  3,
		Parallelism: 2,
		SaltLength:  16,
		KeyLength:   32,
		MinLength:   8,
	}
}

// FromCentralConfig converts central config.PasswordConfig to package
// Config. Zero values fall back to the defaults.
func FromCentralConfig(c config.PasswordConfig) Config {
	d := DefaultConfig()
	if c.MemoryKiB > 0 {
		d.MemoryKiB = c.MemoryKiB
	}
	if c.Iterations > 0 {
		d.Iterations = c.Iterations
	}
	if c.Parallelism > 0 {
		d.Parallelism = c.Parallelism
	}
	if c.SaltLength > 0 {
		d.SaltLength = c.SaltLength
	}
	if c.KeyLength > 0 {
		d.KeyLength = c.KeyLength
	}
	if c.MinLength > 0 {
		d.MinLength = c.MinLength
	}
	d.LowMemoryMode = c.LowMemoryMode
	return d
}
