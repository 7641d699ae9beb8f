package constants

// Environment variables read by config.Load
const (
	EnvDB           = "HABITUAL_DB"
	EnvDBConnection = "HABITUAL_DB_CONNECTION"
	EnvTimezone     = "HABITUAL_TIMEZONE"
	EnvConfigDir    = "HABITUAL_CONFIG_DIR"
	EnvDebug        = "HABITUAL_DEBUG"
	EnvRedisURL     = "HABITUAL_REDIS_URL"
	EnvAMQPURL      = "HABITUAL_AMQP_URL"
	EnvAMQPQueue    = "HABITUAL_AMQP_QUEUE"
	EnvListenAddr   = "HABITUAL_LISTEN_ADDR"
)
