package constants

const (
	ConfigName   = "config"
	ConfigFormat = "yaml"

	// EnvPrefix is prepended to every environment override, e.g. EDUCARE_DATABASE_HOST.
	EnvPrefix = "EDUCARE"

	ServiceName = "educare_track"

	// StudentCodePrefix is the literal prefix of the QR payload printed on ID cards.
	StudentCodePrefix = "EDU"

	DefaultTimezone = "Asia/Manila"
)
