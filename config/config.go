// Package config loads the service configuration from the environment and an
// optional .env file.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/restaurant-reservations/utils"
)

type Config struct {
	Mode    string
	Port    string
	GinMode string

	DBDriver          string
	DBDSN             string
	DBHost            string
	DBPort            int
	DBUser            string
	DBPass            string
	DBName            string
	DBSQLitePath      string
	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration
	DBSlowThreshold   time.Duration

	ReservationLock   bool
	OverlapConstraint bool

	Log utils.LoggerConfig

	CORSAllowedOrigin string
	RateLimitRPS      int
	RateLimitBurst    int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	KafkaBrokers []string
	KafkaTopic   string
}

// Load reads envFile (a missing file is only a warning) and builds the
// configuration from the environment. The result is validated.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			utils.InfoLogger.Warnf("Env file %s not loaded: %v", envFile, err)
		}
	}

	driver := strings.ToLower(getEnvStr(EnvDBDriver, DefaultDBDriver))
	cfg := &Config{
		Mode:    strings.ToUpper(getEnvStr(EnvMode, DefaultMode)),
		Port:    getEnvStr(EnvPort, DefaultPort),
		GinMode: getEnvStr(EnvGinMode, DefaultGinMode),

		DBDriver:          driver,
		DBDSN:             getEnvStr(EnvDBDSN, ""),
		DBHost:            getEnvStr(EnvDBHost, DefaultDBHost),
		DBPort:            getEnvNum(EnvDBPort, defaultDBPorts[driver]),
		DBUser:            getEnvStr(EnvDBUser, DefaultDBUser),
		DBPass:            getEnvStr(EnvDBPass, ""),
		DBName:            getEnvStr(EnvDBName, DefaultDBName),
		DBSQLitePath:      getEnvStr(EnvDBSQLitePath, DefaultDBSQLitePath),
		DBMaxOpenConns:    getEnvNum(EnvDBMaxOpenConns, DefaultDBMaxOpenConns),
		DBMaxIdleConns:    getEnvNum(EnvDBMaxIdleConns, DefaultDBMaxIdleConns),
		DBConnMaxLifetime: getEnvDuration(EnvDBConnMaxLifetime, DefaultDBConnMaxLifetime),
		DBSlowThreshold:   getEnvDuration(EnvDBSlowThreshold, DefaultDBSlowThreshold),

		ReservationLock:   getEnvBool(EnvReservationLock, DefaultReservationLock),
		OverlapConstraint: getEnvBool(EnvOverlapConstraint, DefaultOverlapConstraint),

		Log: utils.LoggerConfig{
			Level:      getEnvStr(EnvLogLevel, DefaultLogLevel),
			Format:     getEnvStr(EnvLogFormat, DefaultLogFormat),
			File:       getEnvStr(EnvLogFile, ""),
			MaxSizeMB:  getEnvNum(EnvLogMaxSizeMB, DefaultLogMaxSizeMB),
			MaxBackups: getEnvNum(EnvLogMaxBackups, DefaultLogMaxBackups),
		},

		CORSAllowedOrigin: getEnvStr(EnvCORSAllowedOrigin, DefaultCORSAllowedOrigin),
		RateLimitRPS:      getEnvNum(EnvRateLimitRPS, DefaultRateLimitRPS),
		RateLimitBurst:    getEnvNum(EnvRateLimitBurst, DefaultRateLimitBurst),

		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),

		KafkaBrokers: getEnvList(EnvKafkaBrokers),
		KafkaTopic:   getEnvStr(EnvKafkaTopic, DefaultKafkaTopic),
	}

	if cfg.Mode == ModeTest {
		cfg.DBDriver = DriverSQLite
		cfg.DBDSN = ""
		cfg.DBSQLitePath = TestSQLitePath
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (cfg *Config) Validate() error {
	var errors []string

	switch cfg.Mode {
	case ModeDev, ModeTest, ModeProd:
	default:
		errors = append(errors, fmt.Sprintf("MODE must be one of DEV, TEST, PROD, got: %s", cfg.Mode))
	}

	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		errors = append(errors, fmt.Sprintf("GIN_MODE must be one of debug, release, test, got: %s", cfg.GinMode))
	}

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	switch cfg.DBDriver {
	case DriverSQLite:
		if cfg.DBDSN == "" && cfg.DBSQLitePath == "" {
			errors = append(errors, "DB_SQLITE_PATH cannot be empty for the sqlite driver")
		}
	case DriverMySQL, DriverPostgres:
		if cfg.DBDSN == "" {
			if cfg.DBHost == "" {
				errors = append(errors, "DB_HOST cannot be empty")
			}
			if cfg.DBName == "" {
				errors = append(errors, "DB_NAME cannot be empty")
			}
			if cfg.DBPort < 1 || cfg.DBPort > 65535 {
				errors = append(errors, fmt.Sprintf("DB_PORT must be between 1 and 65535, got: %d", cfg.DBPort))
			}
		}
	default:
		errors = append(errors, fmt.Sprintf("DB_DRIVER must be one of sqlite, mysql, postgres, got: %s", cfg.DBDriver))
	}

	if cfg.DBMaxOpenConns <= 0 {
		errors = append(errors, fmt.Sprintf("DB_MAX_OPEN_CONNS must be positive, got: %d", cfg.DBMaxOpenConns))
	}
	if cfg.DBMaxIdleConns < 0 || cfg.DBMaxIdleConns > cfg.DBMaxOpenConns {
		errors = append(errors, fmt.Sprintf("DB_MAX_IDLE_CONNS must be between 0 and DB_MAX_OPEN_CONNS (%d), got: %d", cfg.DBMaxOpenConns, cfg.DBMaxIdleConns))
	}
	if cfg.OverlapConstraint && cfg.DBDriver != DriverPostgres {
		errors = append(errors, fmt.Sprintf("OVERLAP_CONSTRAINT requires the postgres driver, got: %s", cfg.DBDriver))
	}

	if _, err := logrus.ParseLevel(cfg.Log.Level); err != nil {
		errors = append(errors, fmt.Sprintf("LOG_LEVEL is not a valid level: %s", cfg.Log.Level))
	}
	if cfg.Log.File != "" && cfg.Log.MaxSizeMB <= 0 {
		errors = append(errors, fmt.Sprintf("LOG_MAX_SIZE_MB must be positive, got: %d", cfg.Log.MaxSizeMB))
	}

	if cfg.RateLimitRPS <= 0 {
		errors = append(errors, fmt.Sprintf("RATE_LIMIT_RPS must be positive, got: %d", cfg.RateLimitRPS))
	}
	if cfg.RateLimitBurst <= 0 {
		errors = append(errors, fmt.Sprintf("RATE_LIMIT_BURST must be positive, got: %d", cfg.RateLimitBurst))
	}
	if cfg.ReadTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("READ_TIMEOUT must be positive, got: %s", cfg.ReadTimeout))
	}
	if cfg.WriteTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("WRITE_TIMEOUT must be positive, got: %s", cfg.WriteTimeout))
	}
	if cfg.ShutdownTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("SHUTDOWN_TIMEOUT must be positive, got: %s", cfg.ShutdownTimeout))
	}

	if len(cfg.KafkaBrokers) > 0 && cfg.KafkaTopic == "" {
		errors = append(errors, "KAFKA_TOPIC cannot be empty when KAFKA_BROKERS is set")
	}

	if len(errors) > 0 {
		errMsg := "Configuration validation failed:\n"
		for i, err := range errors {
			errMsg += fmt.Sprintf("  %d. %s\n", i+1, err)
		}
		return fmt.Errorf("%s", errMsg)
	}
	return nil
}

func (cfg *Config) LogConfiguration() {
	utils.InfoLogger.WithFields(logrus.Fields{
		"mode":               cfg.Mode,
		"port":               cfg.Port,
		"gin_mode":           cfg.GinMode,
		"db_driver":          cfg.DBDriver,
		"db_dsn":             redactDSN(cfg.DSN()),
		"db_max_open_conns":  cfg.DBMaxOpenConns,
		"db_max_idle_conns":  cfg.DBMaxIdleConns,
		"reservation_lock":   cfg.ReservationLock,
		"overlap_constraint": cfg.OverlapConstraint,
		"log_level":          cfg.Log.Level,
		"log_file":           cfg.Log.File,
		"rate_limit_rps":     cfg.RateLimitRPS,
		"rate_limit_burst":   cfg.RateLimitBurst,
		"kafka_brokers":      cfg.KafkaBrokers,
		"kafka_topic":        cfg.KafkaTopic,
	}).Info("Configuration loaded successfully")
}

var (
	urlPasswordRegex = regexp.MustCompile(`(://[^:/@]+:)[^@]+@`)
	kvPasswordRegex  = regexp.MustCompile(`(password=)\S+`)
	mysqlRegex       = regexp.MustCompile(`^([^:/@]+:)[^@]+@`)
)

func redactDSN(dsn string) string {
	if strings.Contains(dsn, "://") {
		return urlPasswordRegex.ReplaceAllString(dsn, "${1}***@")
	}
	dsn = kvPasswordRegex.ReplaceAllString(dsn, "${1}***")
	return mysqlRegex.ReplaceAllString(dsn, "${1}***@")
}

func getEnvStr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvNum(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvList(key string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
