package config // package config loads application configuration from environment variables

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv" // optional .env file support for local runs
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable; Redis, cache and rate limit settings live in their
// own loaders next to this file.
type Config struct {
	Env            string        // application environment (e.g. "dev", "prod")
	Port           string        // HTTP port to listen on
	DBDriver       string        // "mysql" or "sqlite3"
	DBUser         string        // database username
	DBPass         string        // database password (optional)
	DBHost         string        // database host address
	DBPort         string        // database port number
	DBName         string        // database name
	DBPath         string        // sqlite3 database file
	AutoMigrate    bool          // apply embedded migrations at startup
	SessionSecret  string        // secret used to sign session tokens
	SessionTTL     time.Duration // lifetime of a login session
	PasswordScheme string        // "sha256" (legacy) or "bcrypt"
	BcryptCost     int           // bcrypt cost when PasswordScheme is bcrypt
	LogLevel       string        // zerolog level name
	LogFormat      string        // "json" or "console"
	RabbitURL      string        // AMQP URL; empty disables event publishing
	ActivityQueue  string        // queue receiving activity events
	ActivityLogDir string        // directory the worker appends activity.log to
}

// Load reads an optional .env file and then the environment.  It returns an
// error naming every required variable that is missing or malformed.
func Load() (Config, error) {
	_ = godotenv.Load() // a missing .env is normal outside local development

	var errs []error
	cfg := Config{
		Env:            envStr("APP_ENV", "dev"),
		Port:           envStr("APP_PORT", "8080"),
		DBDriver:       strings.ToLower(envStr("DB_DRIVER", "mysql")),
		DBUser:         os.Getenv("DB_USER"),
		DBPass:         os.Getenv("DB_PASS"), // empty allowed
		DBHost:         envStr("DB_HOST", "127.0.0.1"),
		DBPort:         envStr("DB_PORT", "3306"),
		DBName:         os.Getenv("DB_NAME"),
		DBPath:         envStr("DB_PATH", "catalog.db"),
		AutoMigrate:    envBool("DB_AUTO_MIGRATE", false),
		SessionSecret:  os.Getenv("SESSION_SECRET"),
		PasswordScheme: strings.ToLower(envStr("PASSWORD_SCHEME", "sha256")),
		LogLevel:       envStr("LOG_LEVEL", "info"),
		LogFormat:      envStr("LOG_FORMAT", "json"),
		RabbitURL:      firstEnv("RABBITMQ_URL", "AMQP_URL"),
		ActivityQueue:  envStr("ACTIVITY_QUEUE", "catalog.activity"),
		ActivityLogDir: envStr("ACTIVITY_LOG_DIR", "logs"),
	}

	ttlMin, err := intVar("SESSION_TTL_MIN", 24*60)
	errs = append(errs, err)
	cfg.SessionTTL = time.Duration(ttlMin) * time.Minute
	cfg.BcryptCost, err = intVar("BCRYPT_COST", 10)
	errs = append(errs, err)

	switch cfg.DBDriver {
	case "mysql":
		if cfg.DBUser == "" {
			errs = append(errs, missing("DB_USER"))
		}
		if cfg.DBName == "" {
			errs = append(errs, missing("DB_NAME"))
		}
	case "sqlite3":
	default:
		errs = append(errs, fmt.Errorf("invalid DB_DRIVER %q (want mysql or sqlite3)", cfg.DBDriver))
	}
	if cfg.SessionSecret == "" {
		errs = append(errs, missing("SESSION_SECRET"))
	}
	if cfg.SessionTTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL_MIN must be positive"))
	}
	return cfg, errors.Join(errs...)
}

func missing(key string) error { return fmt.Errorf("missing required env var: %s", key) }

// intVar reads an optional integer variable, reporting malformed values.
func intVar(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def, fmt.Errorf("invalid int for %s: %q", key, s)
	}
	return n, nil
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}
