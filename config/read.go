package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/educare/track_backend/pkg/constants"
)

var GlobalConf *Config

func ReadConfig(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigName(constants.ConfigName)
	v.SetConfigType(constants.ConfigFormat)
	v.AddConfigPath(configPath)

	// Allow env vars to override config values.
	// e.g. EDUCARE_DATABASE_HOST overrides database.host
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// The file is optional in container deployments that configure through env.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		if os.Getenv(constants.EnvPrefix+"_DATABASE_HOST") == "" && os.Getenv(constants.EnvPrefix+"_TERMINAL_SERVER_URL") == "" {
			return nil, fmt.Errorf("config file not found in %q and no %s_* environment configured", configPath, constants.EnvPrefix)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

func MustReadConfig(path string) *Config {
	config, err := ReadConfig(path)
	if err != nil {
		panic(err)
	}

	GlobalConf = config

	return config
}

// setDefaults registers every key that AutomaticEnv must be able to override
// even when the YAML file omits it.
func setDefaults(v *viper.Viper) {
	v.SetDefault("database.host", "")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.dbname", "educare")
	v.SetDefault("casbin_database.port", 5432)
	v.SetDefault("casbin_database.sslmode", "disable")

	v.SetDefault("redis.addr", "localhost:6379")

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.timeout_seconds", 15)
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.body_limit_mb", 8)
	v.SetDefault("server.rate_limit.max", 60)
	v.SetDefault("server.rate_limit.expiration_seconds", 30)

	v.SetDefault("authentication.paseto.mode", "local")
	v.SetDefault("authentication.paseto.issuer", constants.ServiceName)
	v.SetDefault("authentication.paseto.audience", constants.ServiceName)
	v.SetDefault("authentication.paseto.access_ttl_minutes", 15)
	v.SetDefault("authentication.paseto.refresh_ttl_days", 14)

	v.SetDefault("authorization.casbin_model_path", "casbin_model.conf")
	v.SetDefault("authorization.enable_audit", true)
	v.SetDefault("authorization.health_check_enabled", true)

	v.SetDefault("password.min_length", 8)

	v.SetDefault("observability.service_name", constants.ServiceName)
	v.SetDefault("observability.metrics.path", "/metrics")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output.stdout", true)

	v.SetDefault("s3.presign_ttl_sec", 300)
	v.SetDefault("s3.max_upload_mb", 5)

	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("nats.subject_prefix", "educare")

	v.SetDefault("school.timezone", constants.DefaultTimezone)
	v.SetDefault("school.tap_times.arrival", "07:30")
	v.SetDefault("school.tap_times.kinder", "12:00")
	v.SetDefault("school.tap_times.g13", "13:00")
	v.SetDefault("school.tap_times.g46", "15:00")
	v.SetDefault("school.tap_times.jhs", "16:00")
	v.SetDefault("school.tap_times.shs", "16:30")
	v.SetDefault("school.duplicate_window_seconds", 5)
	v.SetDefault("school.late_exit_grace_minutes", 30)
	v.SetDefault("school.phone_region", "PH")

	v.SetDefault("terminal.queue_path", "educare_offline_queue.json")
	v.SetDefault("terminal.reconnect_interval_seconds", 10)
	v.SetDefault("terminal.cooldown_success_ms", 3000)
	v.SetDefault("terminal.cooldown_error_ms", 2000)
	v.SetDefault("terminal.request_timeout_sec", 10)
}
