package app

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	// Issuer is the "iss" claim stamped into session tokens.
	Issuer string `env:"PANTRY_ISSUER" envDefault:"pantryd"`

	// TokenSecret signs session tokens. Required; must be at least 32
	// bytes or startup fails.
	TokenSecret string `env:"PANTRY_TOKEN_SECRET,required"`

	// DatabaseFile is the path to the SQLite database file.
	DatabaseFile string `env:"PANTRY_DATABASE_FILE" envDefault:"pantry.db"`

	Env       string `env:"ENV" envDefault:"dev"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	Port                int           `env:"PORT" envDefault:"8080"`
	ShutdownGracePeriod time.Duration `env:"SHUTDOWN_GRACE_PERIOD" envDefault:"10s"`
}

// LoadConfig reads configuration from the environment.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}
