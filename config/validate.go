package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/educare/track_backend/pkg/validate"
)

// Validate checks the shape of every section. Sections that a given command
// does not use may stay empty; RequireServer covers what the API needs.
func (c *Config) Validate() error {
	if err := validate.StructPaths(c); err != nil {
		return err
	}

	if c.SMS.Enabled && c.SMS.SMSIR.APIKey == "" {
		return errors.New("sms.smsir.api_key is required when sms is enabled")
	}
	return nil
}

// RequireServer reports the settings the HTTP API cannot start without.
func (c *Config) RequireServer() error {
	var missing []string
	if c.Database.Host == "" {
		missing = append(missing, "database.host")
	}
	if c.Database.DBName == "" {
		missing = append(missing, "database.dbname")
	}
	if c.Redis.Addr == "" {
		missing = append(missing, "redis.addr")
	}
	switch c.Authentication.Paseto.Mode {
	case "local":
		if c.Authentication.Paseto.LocalKeyHex == "" {
			missing = append(missing, "authentication.paseto.local_key_hex")
		}
	case "public":
		if c.Authentication.Paseto.SecretKeyHex == "" && c.Authentication.Paseto.PublicKeyHex == "" {
			missing = append(missing, "authentication.paseto.secret_key_hex")
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required settings: %s", strings.Join(missing, ", "))
	}
	return nil
}
