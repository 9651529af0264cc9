package config

import (
	"errors"
	"io/fs"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
)

// DefaultEnvFile is the optional local environment file read by Load.
const DefaultEnvFile = ".env"

// Config holds application configuration read from environment variables.
// It is built once at startup and never mutated afterwards.
type Config struct {
	APIKey   string `env:"RAWG_API_KEY"`
	RedisURL string `env:"REDIS_URL" envDefault:"redis://localhost:6379"`

	Port         string   `env:"PORT" envDefault:"8000"`
	DatabaseURL  string   `env:"DATABASE_URL"`
	RAWGBaseURL  string   `env:"RAWG_BASE_URL" envDefault:"https://api.rawg.io/api"`
	LogLevel     string   `env:"LOG_LEVEL" envDefault:"info"`
	AllowOrigins []string `env:"CORS_ALLOW_ORIGINS" envDefault:"http://localhost:5173,http://localhost:3000" envSeparator:","`
}

// Load reads DefaultEnvFile when present and then resolves Config from the
// process environment, applying defaults for unset variables.
func Load() (*Config, error) {
	return LoadFrom(DefaultEnvFile)
}

// LoadFrom is Load with an explicit env file path. A missing file is not an
// error. Variables already set in the environment take precedence.
func LoadFrom(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, eris.Wrapf(err, "load env file %s", envFile)
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, eris.Wrap(err, "failed to parse environment variables")
	}
	return cfg, nil
}
