package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

// Config is the process configuration, read from the environment.
type Config struct {
	Port        string `envconfig:"APP_PORT" default:"8080"`
	Env         string `envconfig:"APP_ENV" default:"dev"`
	ServiceName string `envconfig:"SERVICE_NAME" default:"storefront"`
	ClientURL   string `envconfig:"CLIENT_URL" default:"http://localhost:3000"`

	StoreDriver string `envconfig:"STORE_DRIVER" default:"postgres"`
	DatabaseURL string `envconfig:"DATABASE_URL"`
	RedisURL    string `envconfig:"REDIS_URL" default:"redis://localhost:6379"`

	JWTSecret string `envconfig:"JWT_SECRET" required:"true"`

	Gateway GatewayConfig
	SMTP    SMTPConfig

	// PriceTolerance is the largest difference between a cart price and the
	// catalog price that is accepted without a warning.
	PriceTolerance decimal.Decimal `envconfig:"PRICE_TOLERANCE" default:"1"`

	// RateLimit is requests per minute per client IP on the public write
	// endpoints. Zero disables limiting.
	RateLimit int `envconfig:"RATE_LIMIT_PER_MINUTE" default:"20"`
}

// GatewayConfig holds the payment gateway credentials. Any of them may be
// empty; the endpoints that need them report a configuration error.
type GatewayConfig struct {
	KeyID         string `envconfig:"GATEWAY_KEY_ID"`
	KeySecret     string `envconfig:"GATEWAY_KEY_SECRET"`
	WebhookSecret string `envconfig:"GATEWAY_WEBHOOK_SECRET"`
	BaseURL       string `envconfig:"GATEWAY_BASE_URL" default:"https://api.razorpay.com"`
	Currency      string `envconfig:"GATEWAY_CURRENCY" default:"INR"`
}

type SMTPConfig struct {
	Host     string `envconfig:"SMTP_HOST"`
	Port     int    `envconfig:"SMTP_PORT" default:"587"`
	User     string `envconfig:"SMTP_USER"`
	Password string `envconfig:"SMTP_PASS"`
	From     string `envconfig:"MAIL_FROM" default:"orders@wyna.in"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings that cannot be defaulted.
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case "postgres":
		if c.DatabaseURL == "" {
			return fmt.Errorf("config: DATABASE_URL is required for the postgres store")
		}
	case "memory":
	default:
		return fmt.Errorf("config: unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("config: JWT_SECRET must not be empty")
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("config: RATE_LIMIT_PER_MINUTE must not be negative")
	}
	if c.PriceTolerance.IsNegative() {
		return fmt.Errorf("config: PRICE_TOLERANCE must not be negative")
	}
	return nil
}
