// Package config loads server configuration from the environment, with
// an optional .env file for local development.
package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds everything the server binary needs.
type Config struct {
	HTTP   HTTPConfig
	DB     DBConfig
	JWT    JWTConfig
	SMTP   SMTPConfig
	Notify NotifyConfig
}

// HTTPConfig configures the listener.
type HTTPConfig struct {
	Addr string `envconfig:"EQUINEX_HTTP_ADDR" default:":8080"`
}

// DBConfig configures the SQLite database.
type DBConfig struct {
	Path string `envconfig:"EQUINEX_DB_PATH" default:"./data/equinex.db"`
}

// JWTConfig configures token issuance.
type JWTConfig struct {
	Secret   string        `envconfig:"EQUINEX_JWT_SECRET" required:"true"`
	TokenTTL time.Duration `envconfig:"EQUINEX_JWT_TTL" default:"24h"`
}

// SMTPConfig configures the invite mailer. When Host is empty, invites
// are logged instead of sent.
type SMTPConfig struct {
	Host     string `envconfig:"EQUINEX_SMTP_HOST"`
	Port     int    `envconfig:"EQUINEX_SMTP_PORT" default:"587"`
	Username string `envconfig:"EQUINEX_SMTP_USERNAME"`
	Password string `envconfig:"EQUINEX_SMTP_PASSWORD"`
	From     string `envconfig:"EQUINEX_SMTP_FROM"`
}

// NotifyConfig configures the notification queue.
type NotifyConfig struct {
	QueueSize int `envconfig:"EQUINEX_NOTIFY_QUEUE_SIZE" default:"64"`
}

// Load reads the optional .env file and then the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}
