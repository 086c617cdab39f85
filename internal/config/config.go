// Package config holds the runtime settings of the blog API.
//
// Values are collected once in cmd/server (flags, environment, optional .env
// file), validated here, and then passed down explicitly. Nothing in the
// rest of the code reads the environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Defaults used by cmd/server when a setting is not provided.
const (
	DefaultAlgorithm    = "HS256"
	DefaultTokenMinutes = 30
	DefaultDriver       = "sqlite"
	DefaultDatabaseURL  = "data/blog.db"
	DefaultPort         = 8080
	DefaultLogLevel     = "info"
	DefaultLogFormat    = "text"
	DefaultBcryptCost   = 12
)

// minSecretLength matches the check done by auth.NewTokenService, so a bad
// secret is reported at startup with the variable name attached.
const minSecretLength = 16

// Config is the complete set of runtime settings.
type Config struct {
	SecretKey   string
	Algorithm   string
	TokenTTL    time.Duration
	DBDriver    string
	DatabaseURL string
	Port        int
	CORSOrigins []string
	LogLevel    string
	LogFormat   string
	BcryptCost  int
}

// Default returns a Config filled with defaults. SecretKey is left empty
// and must be set by the caller.
func Default() Config {
	return Config{
		Algorithm:   DefaultAlgorithm,
		TokenTTL:    DefaultTokenMinutes * time.Minute,
		DBDriver:    DefaultDriver,
		DatabaseURL: DefaultDatabaseURL,
		Port:        DefaultPort,
		LogLevel:    DefaultLogLevel,
		LogFormat:   DefaultLogFormat,
		BcryptCost:  DefaultBcryptCost,
	}
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []error

	if c.SecretKey == "" {
		errs = append(errs, errors.New("SECRET_KEY is required"))
	} else if len(c.SecretKey) < minSecretLength {
		errs = append(errs, fmt.Errorf("SECRET_KEY must be at least %d characters", minSecretLength))
	}

	switch c.Algorithm {
	case "HS256", "HS384", "HS512":
	default:
		errs = append(errs, fmt.Errorf("ALGORITHM %q is not supported (use HS256, HS384 or HS512)", c.Algorithm))
	}

	if c.TokenTTL <= 0 {
		errs = append(errs, errors.New("ACCESS_TOKEN_EXPIRE_MINUTES must be positive"))
	}

	switch c.DBDriver {
	case "sqlite", "postgres":
	default:
		errs = append(errs, fmt.Errorf("DB_DRIVER %q is not supported (use sqlite or postgres)", c.DBDriver))
	}
	if strings.TrimSpace(c.DatabaseURL) == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}

	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT %d is out of range", c.Port))
	}

	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		errs = append(errs, fmt.Errorf("BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// SplitOrigins parses a comma separated CORS_ORIGINS value. Blank entries
// are dropped.
func SplitOrigins(s string) []string {
	var out []string
	for _, o := range strings.Split(s, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
