package config

type Config struct {
	Database       DatabaseConfig       `mapstructure:"database"`
	CasbinDatabase DatabaseConfig       `mapstructure:"casbin_database"`
	Redis          RedisConfig          `mapstructure:"redis"`
	Server         ServerConfig         `mapstructure:"server"`
	Authentication AuthenticationConfig `mapstructure:"authentication"`
	Authorization  AuthorizationConfig  `mapstructure:"authorization"`
	Email          EmailConfig          `mapstructure:"email"`
	SMS            SMSConfig            `mapstructure:"sms"`
	Password       PasswordConfig       `mapstructure:"password"`
	Observability  ObservabilityConfig  `mapstructure:"observability"`
	Logging        LoggingConfig        `mapstructure:"logging"`
	S3             S3Config             `mapstructure:"s3"`
	Nats           NatsConfig           `mapstructure:"nats"`
	School         SchoolConfig         `mapstructure:"school"`
	Terminal       TerminalConfig       `mapstructure:"terminal"`
}

type NatsConfig struct {
	URL           string `mapstructure:"url" yaml:"url"`
	SubjectPrefix string `mapstructure:"subject_prefix" yaml:"subject_prefix"`
}

type DatabaseConfig struct {
	Host       string                  `mapstructure:"host"`
	Port       int                     `mapstructure:"port" validate:"omitempty,min=1,max=65535"`
	User       string                  `mapstructure:"user"`
	Password   string                  `mapstructure:"password"`
	DBName     string                  `mapstructure:"dbname"`
	SSLMode    string                  `mapstructure:"sslmode" validate:"omitempty,oneof=disable allow prefer require verify-ca verify-full"`
	Pool       DatabasePoolConfig      `mapstructure:"pool"`
	Migrations DatabaseMigrationConfig `mapstructure:"migrations"`
}

type DatabasePoolConfig struct {
	MaxOpenConns       int `mapstructure:"max_open_conns" validate:"gte=0"`
	MinConns           int `mapstructure:"min_conns" validate:"gte=0"`
	ConnMaxLifetimeMin int `mapstructure:"conn_max_lifetime_minutes" validate:"gte=0"`
}

type DatabaseMigrationConfig struct {
	AutoMigrate bool `mapstructure:"auto_migrate"`
}

type RedisConfig struct {
	Addr                string `mapstructure:"addr"`
	DB                  int    `mapstructure:"db"`
	Username            string `mapstructure:"username"`
	Password            string `mapstructure:"password"`
	PoolSize            int    `mapstructure:"pool_size"`
	MinIdleConns        int    `mapstructure:"min_idle_conns"`
	DialTimeoutSeconds  int    `mapstructure:"dial_timeout_seconds"`
	ReadTimeoutSeconds  int    `mapstructure:"read_timeout_seconds"`
	WriteTimeoutSeconds int    `mapstructure:"write_timeout_seconds"`
}

type RateLimitConfig struct {
	Max               int `mapstructure:"max" validate:"gte=0"`
	ExpirationSeconds int `mapstructure:"expiration_seconds" validate:"gte=0"`
}

type ServerConfig struct {
	Port           int             `mapstructure:"port" validate:"omitempty,min=1,max=65535"`
	TimeoutSeconds int             `mapstructure:"timeout_seconds" validate:"gte=0"`
	Environment    string          `mapstructure:"environment" validate:"omitempty,oneof=development staging production"`
	Domain         string          `mapstructure:"domain"`
	Databases      []string        `mapstructure:"databases"`
	BodyLimitMB    int             `mapstructure:"body_limit_mb" validate:"gte=0"`
	CORS           CORSConfig      `mapstructure:"cors"`
	RateLimit      RateLimitConfig `mapstructure:"rate_limit"`
}

type CORSConfig struct {
	Enabled          bool     `mapstructure:"enabled"`
	AllowOrigins     []string `mapstructure:"allow_origins"`
	AllowMethods     []string `mapstructure:"allow_methods"`
	AllowHeaders     []string `mapstructure:"allow_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAgeSeconds    int      `mapstructure:"max_age_seconds"`
}

type AuthenticationConfig struct {
	Paseto PasetoConfig `mapstructure:"paseto"`
	// EncryptionKey is a 32-byte hex string used for AES-256-GCM encryption
	// of clinic visit notes.
	EncryptionKey string `mapstructure:"encryption_key" validate:"omitempty,len=64,hexadecimal"`
}

type PasetoConfig struct {
	Mode             string `mapstructure:"mode" validate:"omitempty,oneof=local public"`
	LocalKeyHex      string `mapstructure:"local_key_hex"`
	SecretKeyHex     string `mapstructure:"secret_key_hex"`
	PublicKeyHex     string `mapstructure:"public_key_hex"`
	Issuer           string `mapstructure:"issuer"`
	Audience         string `mapstructure:"audience"`
	AccessTTLMinutes int    `mapstructure:"access_ttl_minutes" validate:"gte=0"`
	RefreshTTLDays   int    `mapstructure:"refresh_ttl_days" validate:"gte=0"`
}

type AuthorizationConfig struct {
	CasbinModelPath    string `mapstructure:"casbin_model_path"`
	EnableAudit        bool   `mapstructure:"enable_audit"`
	HealthCheckEnabled bool   `mapstructure:"health_check_enabled"`
}

type EmailConfig struct {
	Enabled bool       `mapstructure:"enabled"`
	From    string     `mapstructure:"from" validate:"required_if=Enabled true"`
	SMTP    SMTPConfig `mapstructure:"smtp"`
}

type SMTPConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Username       string `mapstructure:"username"`
	Password       string `mapstructure:"password"`
	UseTLS         bool   `mapstructure:"use_tls"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

type SMSConfig struct {
	Enabled bool        `mapstructure:"enabled"`
	SMSIR   SMSIRConfig `mapstructure:"smsir"`
}

type SMSIRConfig struct {
	APIKey    string `mapstructure:"api_key"`
	SecretKey string `mapstructure:"secret_key"`
	// Templates maps a notification verb (attendance_entry, clinic_checkout, ...)
	// to an sms.ir template id. Verbs without a template are not texted.
	Templates map[string]string `mapstructure:"templates"`
}

type PasswordConfig struct {
	MemoryKiB     uint32 `mapstructure:"memory_kib"`
	Iterations    uint32 `mapstructure:"iterations"`
	Parallelism   uint8  `mapstructure:"parallelism"`
	SaltLength    uint32 `mapstructure:"salt_length"`
	KeyLength     uint32 `mapstructure:"key_length"`
	LowMemoryMode bool   `mapstructure:"low_memory_mode"`
	MinLength     int    `mapstructure:"min_length" validate:"gte=0"`
}

type ObservabilityConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	ServiceName    string        `mapstructure:"service_name"`
	ServiceVersion string        `mapstructure:"service_version"`
	Tracing        TracingConfig `mapstructure:"tracing"`
	Metrics        MetricsConfig `mapstructure:"metrics"`
}

type TracingConfig struct {
	Enabled      bool    `mapstructure:"enabled"`
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	OTLPInsecure bool    `mapstructure:"otlp_insecure"`
	SamplingRate float64 `mapstructure:"sampling_rate" validate:"gte=0,lte=1"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// Endpoint is the scrape path, /metrics unless overridden.
func (m MetricsConfig) Endpoint() string {
	if m.Path == "" {
		return "/metrics"
	}
	return m.Path
}

type LoggingConfig struct {
	Level  string       `mapstructure:"level" validate:"omitempty,oneof=debug info warn error"`
	Format string       `mapstructure:"format" validate:"omitempty,oneof=text json"`
	Output OutputConfig `mapstructure:"output"`
}

type OutputConfig struct {
	Stdout bool          `mapstructure:"stdout"`
	File   FileLogConfig `mapstructure:"file"`
	Loki   LokiConfig    `mapstructure:"loki"`
}

type FileLogConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Path       string `mapstructure:"path" validate:"required_if=Enabled true"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

type LokiConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint" validate:"required_if=Enabled true,omitempty,url"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	TenantID string `mapstructure:"tenant_id"`
}

type S3Config struct {
	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	Bucket          string `mapstructure:"bucket"`
	PresignTTLSec   int    `mapstructure:"presign_ttl_sec"`
	// PublicBaseURL prefixes object keys for assets served publicly (student photos).
	PublicBaseURL string `mapstructure:"public_base_url" validate:"omitempty,url"`
	MaxUploadMB   int    `mapstructure:"max_upload_mb" validate:"gte=0"`
}

// SchoolConfig carries the defaults of the attendance rules. The tap times
// can be overridden at runtime through the tap_times system setting.
type SchoolConfig struct {
	Timezone               string         `mapstructure:"timezone" validate:"omitempty,timezone"`
	TapTimes               TapTimesConfig `mapstructure:"tap_times"`
	DuplicateWindowSeconds int            `mapstructure:"duplicate_window_seconds" validate:"gte=0"`
	LateExitGraceMinutes   int            `mapstructure:"late_exit_grace_minutes" validate:"gte=0"`
	PhoneRegion            string         `mapstructure:"phone_region" validate:"omitempty,len=2"`
}

type TapTimesConfig struct {
	Arrival string `mapstructure:"arrival" validate:"omitempty,hhmm"`
	Kinder  string `mapstructure:"kinder" validate:"omitempty,hhmm"`
	G13     string `mapstructure:"g13" validate:"omitempty,hhmm"`
	G46     string `mapstructure:"g46" validate:"omitempty,hhmm"`
	JHS     string `mapstructure:"jhs" validate:"omitempty,hhmm"`
	SHS     string `mapstructure:"shs" validate:"omitempty,hhmm"`
}

// TerminalConfig configures the gate terminal agent (educare terminal run).
type TerminalConfig struct {
	ServerURL                string `mapstructure:"server_url" validate:"omitempty,url"`
	Email                    string `mapstructure:"email" validate:"omitempty,email"`
	Password                 string `mapstructure:"password"`
	QueuePath                string `mapstructure:"queue_path"`
	ReconnectIntervalSeconds int    `mapstructure:"reconnect_interval_seconds" validate:"gte=0"`
	CooldownSuccessMs        int    `mapstructure:"cooldown_success_ms" validate:"gte=0"`
	CooldownErrorMs          int    `mapstructure:"cooldown_error_ms" validate:"gte=0"`
	RequestTimeoutSec        int    `mapstructure:"request_timeout_sec" validate:"gte=0"`
}
