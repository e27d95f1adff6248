package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	Identity IdentityConfig
	Cookie   CookieConfig
	Mongo    MongoConfig
	Redis    RedisConfig
}

// IdentityConfig points at the external identity provider.
type IdentityConfig struct {
	Endpoint  string        `env:"IDENTITY_ENDPOINT, default=http://localhost:8081/v1"`
	ProjectID string        `env:"IDENTITY_PROJECT"`
	Timeout   time.Duration `env:"IDENTITY_TIMEOUT,  default=5s"`
}

// CookieConfig controls the credential cookie lifetimes. The bearer max-age
// stays below the token's own validity so clients refresh proactively.
type CookieConfig struct {
	BearerMaxAge  time.Duration `env:"COOKIE_BEARER_MAX_AGE,  default=14m"`
	SessionMaxAge time.Duration `env:"COOKIE_SESSION_MAX_AGE, default=168h"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=sanctum"`
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,   default=0"`
}

// IsProduction reports whether the service runs with production hardening
// (secure cookies, JSON logs).
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	var cfg Config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return &cfg
}
