package app

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aussiebroadwan/accounts/pkg/cryptox"
)

// Supported values of ACCOUNTS_DB_DRIVER.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	DBDriver     string // sqlite (default) or postgres
	DatabaseFile string // sqlite only (default: ./accounts.db)
	DatabaseURL  string // postgres only, required when DBDriver is postgres
	MaxOpenConns int    // postgres pool size (default: 10)

	HashAlgorithm     string // argon2id (default) or bcrypt
	BcryptCost        int    // default: 10
	Argon2MemoryKiB   int    // default: 19456
	Argon2Iterations  int    // default: 2
	Argon2Parallelism int    // default: 1
	PepperFile        string // optional; created on first start when set

	Env                 string        // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	Port                int           // HTTP server port (default: 8080)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)
}

func LoadConfig() Config {
	return Config{
		DBDriver:     strings.ToLower(getEnvOrDefault("ACCOUNTS_DB_DRIVER", DriverSQLite)),
		DatabaseFile: getEnvOrDefault("ACCOUNTS_DATABASE_FILE", "accounts.db"),
		DatabaseURL:  os.Getenv("ACCOUNTS_DATABASE_URL"),
		MaxOpenConns: getEnvIntOrDefault("ACCOUNTS_DB_MAX_OPEN_CONNS", 10),

		HashAlgorithm:     strings.ToLower(getEnvOrDefault("ACCOUNTS_HASH_ALGORITHM", cryptox.AlgorithmArgon2id)),
		BcryptCost:        getEnvIntOrDefault("ACCOUNTS_BCRYPT_COST", cryptox.DefaultBcryptCost),
		Argon2MemoryKiB:   getEnvIntOrDefault("ACCOUNTS_ARGON2_MEMORY_KIB", int(cryptox.DefaultArgon2idParams.Memory)),
		Argon2Iterations:  getEnvIntOrDefault("ACCOUNTS_ARGON2_ITERATIONS", int(cryptox.DefaultArgon2idParams.Iterations)),
		Argon2Parallelism: getEnvIntOrDefault("ACCOUNTS_ARGON2_PARALLELISM", int(cryptox.DefaultArgon2idParams.Parallelism)),
		PepperFile:        os.Getenv("ACCOUNTS_PEPPER_FILE"),

		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
	}
}

// Validate reports configuration that cannot start a working service.
func (c Config) Validate() error {
	var errs []error

	switch c.DBDriver {
	case DriverSQLite:
		if c.DatabaseFile == "" {
			errs = append(errs, errors.New("ACCOUNTS_DATABASE_FILE must not be empty"))
		}
	case DriverPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("ACCOUNTS_DATABASE_URL is required for the postgres driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported ACCOUNTS_DB_DRIVER %q", c.DBDriver))
	}

	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT %d out of range", c.Port))
	}
	if c.Argon2MemoryKiB <= 0 || c.Argon2MemoryKiB > cryptox.MaxArgon2idMemoryKiB {
		errs = append(errs, fmt.Errorf("ACCOUNTS_ARGON2_MEMORY_KIB must be in [1, %d]", cryptox.MaxArgon2idMemoryKiB))
	}
	if c.Argon2Iterations <= 0 || c.Argon2Iterations > cryptox.MaxArgon2idIterations {
		errs = append(errs, fmt.Errorf("ACCOUNTS_ARGON2_ITERATIONS must be in [1, %d]", cryptox.MaxArgon2idIterations))
	}
	if c.Argon2Parallelism <= 0 || c.Argon2Parallelism > 255 {
		errs = append(errs, errors.New("ACCOUNTS_ARGON2_PARALLELISM must be in [1, 255]"))
	}
	if c.DBDriver == DriverPostgres && c.MaxOpenConns < 0 {
		errs = append(errs, errors.New("ACCOUNTS_DB_MAX_OPEN_CONNS must not be negative"))
	}

	return errors.Join(errs...)
}

// HasherConfig translates the env settings into cryptox terms.
func (c Config) HasherConfig(pepper string) cryptox.HasherConfig {
	params := cryptox.DefaultArgon2idParams
	params.Memory = uint32(c.Argon2MemoryKiB)       // #nosec G115 - checked by Validate
	params.Iterations = uint32(c.Argon2Iterations)  // #nosec G115 - checked by Validate
	params.Parallelism = uint8(c.Argon2Parallelism) // #nosec G115 - checked by Validate

	return cryptox.HasherConfig{
		Algorithm:  c.HashAlgorithm,
		Argon2id:   params,
		BcryptCost: c.BcryptCost,
		Pepper:     pepper,
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Bare integers are seconds.
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}

	return defaultValue
}
