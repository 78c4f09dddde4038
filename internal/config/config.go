package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// ----------------------------
	// SMTP
	// ----------------------------
	SMTPHost     string `envconfig:"SMTP_HOST" default:"localhost"`
	SMTPPort     int    `envconfig:"SMTP_PORT" default:"1025"`
	SMTPUser     string `envconfig:"SMTP_USER" default:""`
	SMTPPassword string `envconfig:"SMTP_PASSWORD" default:""`
	SMTPFrom     string `envconfig:"SMTP_FROM" default:"noreply@rentmail.local"`
	SMTPFromName string `envconfig:"SMTP_FROM_NAME" default:"RentMail"`

	// ----------------------------
	// Outbound channel
	// ----------------------------
	PoolSize   int           `envconfig:"POOL_SIZE" default:"5"`
	RateLimit  int           `envconfig:"RATE_LIMIT" default:"10"`
	RateWindow time.Duration `envconfig:"RATE_WINDOW" default:"1s"`

	// ----------------------------
	// Dispatcher / queue
	// ----------------------------
	DispatchInterval time.Duration `envconfig:"DISPATCH_INTERVAL" default:"10s"`
	MaxAttempts      int           `envconfig:"MAX_ATTEMPTS" default:"3"`

	// ----------------------------
	// Templates
	// ----------------------------
	TemplateDir string `envconfig:"TEMPLATE_DIR" default:"templates"`
	Locale      string `envconfig:"LOCALE" default:"en"`

	// ----------------------------
	// HTTP API
	// ----------------------------
	APIPort string `envconfig:"API_PORT" default:"8080"`

	// ----------------------------
	// Metrics
	// ----------------------------
	MetricsPort string `envconfig:"METRICS_PORT" default:"9090"`

	// ----------------------------
	// Delivery outcome log (optional)
	// ----------------------------
	DatabaseURL string `envconfig:"DATABASE_URL" default:""`
}

func Load() (*Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return &cfg, err
}
