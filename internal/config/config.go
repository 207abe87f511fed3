package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Database      DatabaseConfig      `yaml:"database"`
	JWT           JWTConfig           `yaml:"jwt"`
	Storage       StorageConfig       `yaml:"storage"`
	Edge          EdgeConfig          `yaml:"edge"`
	Webhooks      WebhookConfig       `yaml:"webhooks"`
	SendGrid      SendGridConfig      `yaml:"sendgrid"`
	Log           LogConfig           `yaml:"log"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Scheduler     SchedulerConfig     `yaml:"scheduler"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host            string `yaml:"host"`
	Port            int    `yaml:"port"`
	PublicURL       string `yaml:"public_url"`
	LoginRatePerSec int    `yaml:"login_rate_per_sec"`
	LoginRateBurst  int    `yaml:"login_rate_burst"`
}

// DatabaseConfig contains PostgreSQL connection settings
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"ssl_mode"`
}

// JWTConfig contains JWT token settings
type JWTConfig struct {
	Secret              string `yaml:"secret"`
	AccessTokenMinutes  int    `yaml:"access_token_expiry_minutes"`
	RefreshTokenMinutes int    `yaml:"refresh_token_expiry_minutes"`
	VerifyTokenMinutes  int    `yaml:"verify_token_expiry_minutes"`
}

// StorageConfig contains file storage settings
type StorageConfig struct {
	Type            string `yaml:"type"`       // "local" or "gcs"
	UploadDir       string `yaml:"upload_dir"` // For local storage
	Bucket          string `yaml:"bucket"`     // For gcs storage
	CredentialsFile string `yaml:"credentials_file"`
	MaxFileSizeMB   int64  `yaml:"max_file_size_mb"`
}

// EdgeConfig points at the hosted functions that parse and match bank statements
type EdgeConfig struct {
	BaseURL        string `yaml:"base_url"`
	APIKey         string `yaml:"api_key"`
	TimeoutSeconds int    `yaml:"timeout_seconds"` // 0 disables the client timeout
}

// WebhookConfig holds the outbound n8n webhook URLs. Empty URLs are skipped.
type WebhookConfig struct {
	SignupURL       string `yaml:"signup_url"`
	VerificationURL string `yaml:"verification_url"`
	MessageURL      string `yaml:"message_url"`
}

// SendGridConfig contains transactional email settings
type SendGridConfig struct {
	APIKey    string `yaml:"api_key"`
	FromEmail string `yaml:"from_email"`
	FromName  string `yaml:"from_name"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "text"
}

// NotificationsConfig controls notification retention
type NotificationsConfig struct {
	RetentionDays int `yaml:"retention_days"`
}

// SchedulerConfig contains cron schedule settings
type SchedulerConfig struct {
	GenerateNotifications string `yaml:"generate_notifications"`
	CleanupNotifications  string `yaml:"cleanup_notifications"`
	SendDigest            string `yaml:"send_digest"`
	PruneSessions         string `yaml:"prune_sessions"` // run by the API server
}

// Load reads configuration from a YAML file. A .env file in the working
// directory is loaded first so its values take part in the env overrides.
func Load(configPath string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.overrideWithEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// overrideWithEnv overrides config values with environment variables
func (c *Config) overrideWithEnv() {
	// Database
	if val := os.Getenv("DB_HOST"); val != "" {
		c.Database.Host = val
	}
	if val := os.Getenv("DB_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Database.Port)
	}
	if val := os.Getenv("DB_USER"); val != "" {
		c.Database.User = val
	}
	if val := os.Getenv("DB_PASSWORD"); val != "" {
		c.Database.Password = val
	}
	if val := os.Getenv("DB_NAME"); val != "" {
		c.Database.Database = val
	}
	if val := os.Getenv("DB_SSL_MODE"); val != "" {
		c.Database.SSLMode = val
	}

	// JWT
	if val := os.Getenv("JWT_SECRET"); val != "" {
		c.JWT.Secret = val
	}

	// Server
	if val := os.Getenv("SERVER_HOST"); val != "" {
		c.Server.Host = val
	}
	if val := os.Getenv("SERVER_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Server.Port)
	}
	if val := os.Getenv("PUBLIC_URL"); val != "" {
		c.Server.PublicURL = val
	}

	// Storage
	if val := os.Getenv("STORAGE_TYPE"); val != "" {
		c.Storage.Type = val
	}
	if val := os.Getenv("UPLOAD_DIR"); val != "" {
		c.Storage.UploadDir = val
	}
	if val := os.Getenv("STORAGE_BUCKET"); val != "" {
		c.Storage.Bucket = val
	}
	if val := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); val != "" && c.Storage.CredentialsFile == "" {
		c.Storage.CredentialsFile = val
	}

	// Edge functions
	if val := os.Getenv("EDGE_BASE_URL"); val != "" {
		c.Edge.BaseURL = val
	}
	if val := os.Getenv("EDGE_API_KEY"); val != "" {
		c.Edge.APIKey = val
	}

	// Webhooks
	if val := os.Getenv("WEBHOOK_SIGNUP_URL"); val != "" {
		c.Webhooks.SignupURL = val
	}
	if val := os.Getenv("WEBHOOK_VERIFICATION_URL"); val != "" {
		c.Webhooks.VerificationURL = val
	}
	if val := os.Getenv("WEBHOOK_MESSAGE_URL"); val != "" {
		c.Webhooks.MessageURL = val
	}

	// SendGrid
	if val := os.Getenv("SENDGRID_API_KEY"); val != "" {
		c.SendGrid.APIKey = val
	}
	if val := os.Getenv("SENDGRID_FROM_EMAIL"); val != "" {
		c.SendGrid.FromEmail = val
	}

	// Log
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		c.Log.Level = val
	}
	if val := os.Getenv("LOG_FORMAT"); val != "" {
		c.Log.Format = val
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks if the configuration is valid and fills defaults
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database user is required")
	}
	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}

	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}
	if len(c.JWT.Secret) < 32 {
		return fmt.Errorf("JWT secret must be at least 32 characters")
	}
	if c.JWT.AccessTokenMinutes == 0 {
		c.JWT.AccessTokenMinutes = 60
	}
	if c.JWT.RefreshTokenMinutes == 0 {
		c.JWT.RefreshTokenMinutes = 7 * 24 * 60
	}
	if c.JWT.VerifyTokenMinutes == 0 {
		c.JWT.VerifyTokenMinutes = 24 * 60
	}

	switch strings.ToLower(c.Storage.Type) {
	case "", "local":
		c.Storage.Type = "local"
		if c.Storage.UploadDir == "" {
			return fmt.Errorf("upload directory is required for local storage")
		}
	case "gcs":
		if c.Storage.Bucket == "" {
			return fmt.Errorf("storage bucket is required for gcs storage")
		}
	default:
		return fmt.Errorf("unsupported storage type: %s", c.Storage.Type)
	}
	if c.Storage.MaxFileSizeMB == 0 {
		c.Storage.MaxFileSizeMB = 10
	}

	if c.Edge.BaseURL == "" {
		return fmt.Errorf("edge function base URL is required")
	}

	if c.Server.LoginRatePerSec == 0 {
		c.Server.LoginRatePerSec = 5
	}
	if c.Server.LoginRateBurst == 0 {
		c.Server.LoginRateBurst = 10
	}

	if c.Notifications.RetentionDays == 0 {
		c.Notifications.RetentionDays = 30
	}

	if c.Scheduler.GenerateNotifications == "" {
		c.Scheduler.GenerateNotifications = "0 0 6 * * *" // 6 AM UTC
	}
	if c.Scheduler.CleanupNotifications == "" {
		c.Scheduler.CleanupNotifications = "0 30 2 * * *" // 2:30 AM UTC
	}
	if c.Scheduler.SendDigest == "" {
		c.Scheduler.SendDigest = "0 0 7 * * *" // 7 AM UTC, after generation
	}
	if c.Scheduler.PruneSessions == "" {
		c.Scheduler.PruneSessions = "0 */15 * * * *"
	}

	return nil
}

// GetDatabaseConnectionString returns a PostgreSQL connection string
func (c *Config) GetDatabaseConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
		c.Database.SSLMode,
	)
}

// GetServerAddress returns the HTTP server address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// EdgeTimeout returns the configured edge function timeout, zero meaning none
func (c *Config) EdgeTimeout() time.Duration {
	return time.Duration(c.Edge.TimeoutSeconds) * time.Second
}

// MaxUploadBytes returns the upload size limit in bytes
func (c *Config) MaxUploadBytes() int64 {
	return c.Storage.MaxFileSizeMB << 20
}
