package constants

const (
	AppName           = "habitual"
	DefaultConfigDir  = "~/.config/habitual"
	DefaultConfigPath = "~/.config/habitual/habitual.db"
	Version           = "v0.1.0"

	// Keyring entries, stored under the AppName service
	KeyringDBConnection = "database-connection"
	KeyringAMQPURL      = "amqp-url"

	// DateFormat is the standard date format used throughout the application (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// TimeFormat is the standard time format used throughout the application (HH:MM)
	TimeFormat = "15:04"

	DefaultTimezone   = "Local"
	DefaultListenAddr = ":8080"
	DefaultAMQPQueue  = "habitual.events"

	// Stats cache entries expire even without invalidation so stale days age out
	StatsCacheTTLHours = 72
)
