package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Port     string `env:"PORT" envDefault:"8080"`
	GinMode  string `env:"GIN_MODE" envDefault:"debug"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"INFO"`
	LogFile  string `env:"LOG_FILE"`

	// SMTP Configuration (Gmail by default)
	SMTPHost           string `env:"SMTP_HOST" envDefault:"smtp.gmail.com"`
	SMTPPort           string `env:"SMTP_PORT" envDefault:"587"`
	SMTPUsername       string `env:"SMTP_USERNAME"`
	SMTPPassword       string `env:"SMTP_PASSWORD"`
	SMTPFromEmail      string `env:"SMTP_FROM_EMAIL"`
	SMTPTimeoutSeconds int    `env:"SMTP_TIMEOUT_SECONDS" envDefault:"30"`
	// Legacy names used by the old serverless routes
	GmailUser string `env:"GMAIL_USER"`
	GmailPass string `env:"GMAIL_PASS"`

	// Recipients
	ContactEmailTo   string `env:"CONTACT_EMAIL_TO"`
	HREmail          string `env:"HR_EMAIL"`
	SupportEmail     string `env:"SUPPORT_EMAIL" envDefault:"support@equilibrateai.com"`
	OrganizationName string `env:"ORGANIZATION_NAME" envDefault:"EQUILIBRATE AI"`

	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`

	// Redis/Upstash Configuration
	UpstashRedisURL      string `env:"UPSTASH_REDIS_URL"`
	UpstashRedisPassword string `env:"UPSTASH_REDIS_PASSWORD"`

	// Rate Limiting Configuration
	RateLimitWindowSeconds int   `env:"RATE_LIMIT_WINDOW_SECONDS" envDefault:"60"`
	RateLimitFormThreshold int   `env:"RATE_LIMIT_FORM_THRESHOLD" envDefault:"5"`
	UploadsPerMinute       int   `env:"UPLOADS_PER_MINUTE" envDefault:"10"`
	UploadsPerDay          int   `env:"UPLOADS_PER_DAY" envDefault:"20"`
	DedupWindowSeconds     int   `env:"DEDUP_WINDOW_SECONDS" envDefault:"0"`
	MaxResumeBytes         int64 `env:"MAX_RESUME_BYTES" envDefault:"5242880"`

	ClamAVAddress string `env:"CLAMAV_ADDRESS"`
}

func LoadConfig() (*Config, error) {
	// .env is only present locally
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.applyFallbacks()

	if !cfg.IsMailConfigured() {
		log.Println("WARNING: SMTP_USERNAME/SMTP_PASSWORD missing. Form routes will answer 503.")
	}
	if cfg.UpstashRedisURL == "" {
		log.Println("WARNING: UPSTASH_REDIS_URL not configured. Rate limiting will use in-memory fallback.")
	}

	return cfg, nil
}

// applyFallbacks resolves defaults that depend on other settings.
func (c *Config) applyFallbacks() {
	if c.SMTPUsername == "" {
		c.SMTPUsername = c.GmailUser
	}
	if c.SMTPPassword == "" {
		c.SMTPPassword = c.GmailPass
	}
	if c.SMTPFromEmail == "" {
		c.SMTPFromEmail = c.SMTPUsername
	}
	if c.ContactEmailTo == "" {
		c.ContactEmailTo = c.SMTPUsername
	}
	if c.HREmail == "" {
		c.HREmail = c.ContactEmailTo
	}
	// Sanitasi: origin tanpa slash di akhir
	for i, o := range c.AllowedOrigins {
		c.AllowedOrigins[i] = strings.TrimRight(strings.TrimSpace(o), "/")
	}
	if c.SMTPTimeoutSeconds <= 0 {
		c.SMTPTimeoutSeconds = 30
	}
}

// IsMailConfigured reports whether the credential pair needed to reach the provider is present.
func (c *Config) IsMailConfigured() bool {
	return c.SMTPHost != "" && c.SMTPUsername != "" && c.SMTPPassword != ""
}

func (c *Config) SMTPTimeout() time.Duration {
	return time.Duration(c.SMTPTimeoutSeconds) * time.Second
}

func (c *Config) RateLimitWindow() time.Duration {
	return time.Duration(c.RateLimitWindowSeconds) * time.Second
}

func (c *Config) DedupWindow() time.Duration {
	return time.Duration(c.DedupWindowSeconds) * time.Second
}

func (c *Config) IsProduction() bool {
	return c.GinMode == "release"
}
