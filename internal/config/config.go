package config

import (
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const DefaultBackendURL = "https://project-backend-zt54.onrender.com/api"

type Config struct {
	ListenAddr      string        `env:"LISTEN_ADDR" envDefault:":8080"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`

	BackendURL     string        `env:"BACKEND_URL" envDefault:"https://project-backend-zt54.onrender.com/api"`
	BackendTimeout time.Duration `env:"BACKEND_TIMEOUT" envDefault:"12s"`
	BackendRetries int           `env:"BACKEND_RETRIES" envDefault:"1"`
	DevFallback    bool          `env:"DEV_FALLBACK" envDefault:"false"`

	DatabaseURL string `env:"DATABASE_URL" envDefault:"file:storefront.db?_pragma=busy_timeout(5000)"`

	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:","`

	ESURL              string        `env:"ES_URL"`
	ESUser             string        `env:"ES_USER"`
	ESPassword         string        `env:"ES_PASSWORD"`
	ESIndex            string        `env:"ES_INDEX" envDefault:"books"`
	SearchSyncInterval time.Duration `env:"SEARCH_SYNC_INTERVAL" envDefault:"15m"`

	CookieSecure bool `env:"COOKIE_SECURE" envDefault:"false"`
}

// Load reads .env (when present) and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Notice: .env file not found: %v. Using system environment variables", err)
	}
	return Parse()
}

func Parse() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	c.BackendURL = strings.TrimRight(strings.TrimSpace(c.BackendURL), "/")
	if c.BackendURL == "" {
		return errors.New("missing required env BACKEND_URL")
	}
	u, err := url.Parse(c.BackendURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("BACKEND_URL must be an absolute URL, got %q", c.BackendURL)
	}
	if c.BackendRetries < 0 {
		return fmt.Errorf("BACKEND_RETRIES must be >= 0, got %d", c.BackendRetries)
	}
	if c.BackendTimeout <= 0 {
		return fmt.Errorf("BACKEND_TIMEOUT must be positive, got %s", c.BackendTimeout)
	}
	c.KafkaBrokers = compact(c.KafkaBrokers)
	return nil
}

func compact(v []string) []string {
	out := make([]string, 0, len(v))
	for _, p := range v {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
