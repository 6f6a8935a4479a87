package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// Environment
	Env string // "development", "production", etc.

	// Logging
	LogLevel  string // debug, info, warn, error
	LogFormat string // text or json

	// Server
	ServerAddr string
	BaseURL    string

	// Database
	DatabaseURL string

	// OIDC (admin console)
	OIDCIssuer       string
	OIDCClientID     string
	OIDCClientSecret string
	OIDCRedirectURL  string
	AdminEmails      string // Comma-separated emails promoted to admin on first login

	// Session
	SessionSecret string // Used for deriving the cookie encryption key (min 32 chars)
	RedisURL      string // Optional session storage, e.g. "redis://localhost:6379/0"

	// CORS
	CORSOrigins string // Comma-separated allowed origins

	// Self-service workflow
	VerificationPolicy  string        // exact, case_insensitive, trimmed
	VerificationTTL     time.Duration // How long a verified session may edit
	VerifyRateLimit     int           // Verification attempts per IP per minute
	CollaboratorTimeout time.Duration // Upper bound on each upload/persistence call
	SaveRetries         int           // Extra persistence attempts after a successful upload
	PublishOnSave       bool          // Self-service save makes the profile public
	MaxImageBytes       int64

	// Object storage
	StorageBackend  string // "local" or "gcs"
	StorageDir      string // Local backend root
	GCSBucket       string
	GCSCredentials  string // Optional credentials file for GCS
	OrphanSchedule  string // cron expression (with seconds) for the orphan upload sweeper
	OrphanGraceTime time.Duration

	// Change feed
	EventsTransport string // memory, nats, poll
	NATSURL         string
	PollInterval    time.Duration

	// Email
	EmailProvider  string // smtp, sendgrid, or empty to disable
	SMTPHost       string
	SMTPPort       int
	SMTPUsername   string
	SMTPPassword   string
	SMTPFrom       string
	SMTPFromName   string
	SMTPTLS        string // none, tls, starttls
	SendGridAPIKey string
	NotifyEmails   string // Comma-separated admin recipients for feature request alerts

	// Program file
	ProgramFile string

	// Site Branding
	SiteTitle   string // env: SITE_TITLE
	SiteTagline string // env: SITE_TAGLINE
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		Env:       getEnv("ENV", "development"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),

		ServerAddr:  getEnv("SERVER_ADDR", ":3000"),
		BaseURL:     getEnv("BASE_URL", "http://localhost:3000"),
		DatabaseURL: getEnv("DATABASE_URL", "postgres://localhost:5432/top100?sslmode=disable"),

		OIDCIssuer:       getEnv("OIDC_ISSUER", ""),
		OIDCClientID:     getEnv("OIDC_CLIENT_ID", ""),
		OIDCClientSecret: getEnv("OIDC_CLIENT_SECRET", ""),
		OIDCRedirectURL:  getEnv("OIDC_REDIRECT_URL", "http://localhost:3000/auth/callback"),
		AdminEmails:      getEnv("ADMIN_EMAILS", ""),

		SessionSecret: getEnv("SESSION_SECRET", "change-me-in-production-min-32-chars"),
		RedisURL:      getEnv("REDIS_URL", ""),
		CORSOrigins:   getEnv("CORS_ORIGINS", ""),

		VerificationPolicy:  getEnv("VERIFICATION_EMAIL_POLICY", "trimmed"),
		VerificationTTL:     getDuration("VERIFICATION_TTL", 30*time.Minute),
		VerifyRateLimit:     getInt("VERIFY_RATE_LIMIT", 10),
		CollaboratorTimeout: getDuration("COLLABORATOR_TIMEOUT", 15*time.Second),
		SaveRetries:         getInt("PROFILE_SAVE_RETRIES", 1),
		PublishOnSave:       getEnv("PUBLISH_ON_SAVE", "true") == "true",
		MaxImageBytes:       int64(getInt("MAX_IMAGE_BYTES", 5*1024*1024)),

		StorageBackend:  getEnv("STORAGE_BACKEND", "local"),
		StorageDir:      getEnv("STORAGE_DIR", "./uploads"),
		GCSBucket:       getEnv("GCS_BUCKET", ""),
		GCSCredentials:  getEnv("GCS_CREDENTIALS_FILE", ""),
		OrphanSchedule:  getEnv("ORPHAN_SWEEP_SCHEDULE", "0 */30 * * * *"),
		OrphanGraceTime: getDuration("ORPHAN_GRACE_PERIOD", 24*time.Hour),

		EventsTransport: getEnv("EVENTS_TRANSPORT", "memory"),
		NATSURL:         getEnv("NATS_URL", "nats://localhost:4222"),
		PollInterval:    getDuration("EVENTS_POLL_INTERVAL", 10*time.Second),

		EmailProvider:  getEnv("EMAIL_PROVIDER", ""),
		SMTPHost:       getEnv("SMTP_HOST", ""),
		SMTPPort:       getInt("SMTP_PORT", 587),
		SMTPUsername:   getEnv("SMTP_USERNAME", ""),
		SMTPPassword:   getEnv("SMTP_PASSWORD", ""),
		SMTPFrom:       getEnv("SMTP_FROM", ""),
		SMTPFromName:   getEnv("SMTP_FROM_NAME", "Top100 Africa Future Leaders"),
		SMTPTLS:        getEnv("SMTP_TLS", "starttls"),
		SendGridAPIKey: getEnv("SENDGRID_API_KEY", ""),
		NotifyEmails:   getEnv("NOTIFY_EMAILS", ""),

		ProgramFile: getEnv("PROGRAM_FILE", "program.yaml"),

		SiteTitle:   getEnv("SITE_TITLE", "Top100 Africa Future Leaders"),
		SiteTagline: getEnv("SITE_TAGLINE", "Celebrating Africa's next generation of leaders"),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

// IsDev returns true if the environment is set to development.
func (c *Config) IsDev() bool {
	return c.Env == "development" || c.Env == "dev"
}

// IsEmailEnabled returns true if an email provider is configured with a sender.
func (c *Config) IsEmailEnabled() bool {
	switch c.EmailProvider {
	case "smtp":
		return c.SMTPHost != "" && c.SMTPFrom != ""
	case "sendgrid":
		return c.SendGridAPIKey != "" && c.SMTPFrom != ""
	default:
		return false
	}
}

// IsOIDCEnabled returns true if the admin console login is configured.
func (c *Config) IsOIDCEnabled() bool {
	return c.OIDCIssuer != "" && c.OIDCClientID != ""
}

// PublicProfileURL returns the public page URL for an awardee slug.
func (c *Config) PublicProfileURL(slug string) string {
	return c.BaseURL + "/awardees/" + slug
}
