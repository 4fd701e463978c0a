package config

const (
	EnvMode    = "MODE"
	EnvPort    = "PORT"
	EnvGinMode = "GIN_MODE"

	EnvDBDriver          = "DB_DRIVER"
	EnvDBDSN             = "DB_DSN"
	EnvDBHost            = "DB_HOST"
	EnvDBPort            = "DB_PORT"
	EnvDBUser            = "DB_USER"
	EnvDBPass            = "DB_PASS"
	EnvDBName            = "DB_NAME"
	EnvDBSQLitePath      = "DB_SQLITE_PATH"
	EnvDBMaxOpenConns    = "DB_MAX_OPEN_CONNS"
	EnvDBMaxIdleConns    = "DB_MAX_IDLE_CONNS"
	EnvDBConnMaxLifetime = "DB_CONN_MAX_LIFETIME"
	EnvDBSlowThreshold   = "DB_SLOW_THRESHOLD"

	EnvReservationLock   = "RESERVATION_LOCK"
	EnvOverlapConstraint = "OVERLAP_CONSTRAINT"

	EnvLogLevel      = "LOG_LEVEL"
	EnvLogFormat     = "LOG_FORMAT"
	EnvLogFile       = "LOG_FILE"
	EnvLogMaxSizeMB  = "LOG_MAX_SIZE_MB"
	EnvLogMaxBackups = "LOG_MAX_BACKUPS"

	EnvCORSAllowedOrigin = "CORS_ALLOWED_ORIGIN"
	EnvRateLimitRPS      = "RATE_LIMIT_RPS"
	EnvRateLimitBurst    = "RATE_LIMIT_BURST"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvKafkaBrokers = "KAFKA_BROKERS"
	EnvKafkaTopic   = "KAFKA_TOPIC"
)
