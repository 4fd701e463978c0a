package config

import "time"

const (
	ModeDev  = "DEV"
	ModeTest = "TEST"
	ModeProd = "PROD"

	DriverSQLite   = "sqlite"
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
)

const (
	DefaultMode    = ModeDev
	DefaultPort    = "8080"
	DefaultGinMode = "debug"

	DefaultDBDriver          = DriverSQLite
	DefaultDBHost            = "localhost"
	DefaultDBUser            = "restaurant"
	DefaultDBName            = "restaurant"
	DefaultDBSQLitePath      = "restaurant.sqlite"
	DefaultDBMaxOpenConns    = 300
	DefaultDBMaxIdleConns    = 100
	DefaultDBConnMaxLifetime = time.Hour
	DefaultDBSlowThreshold   = 200 * time.Millisecond

	// TestSQLitePath is used whenever MODE=TEST.
	TestSQLitePath = "testdb.sqlite"

	DefaultReservationLock   = true
	DefaultOverlapConstraint = false

	DefaultLogLevel      = "info"
	DefaultLogFormat     = "text"
	DefaultLogMaxSizeMB  = 5
	DefaultLogMaxBackups = 3

	DefaultCORSAllowedOrigin = "*"
	DefaultRateLimitRPS      = 50
	DefaultRateLimitBurst    = 100

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultShutdownTimeout = 10 * time.Second

	DefaultKafkaTopic = "restaurant.reservations"
)

var defaultDBPorts = map[string]int{
	DriverMySQL:    3306,
	DriverPostgres: 5432,
}
