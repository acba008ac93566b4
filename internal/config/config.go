package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Store drivers.
const (
	DriverFirestore = "firestore"
	DriverPostgres  = "postgres"
	DriverMemory    = "memory"
)

// Config holds all configuration for the application.
type Config struct {
	Port      string `mapstructure:"PORT"`
	GinMode   string `mapstructure:"GIN_MODE"`
	ClientURL string `mapstructure:"CLIENT_URL"`
	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogJSON   bool   `mapstructure:"LOG_JSON"`

	StoreDriver                      string `mapstructure:"STORE_DRIVER"`
	FirebaseProjectID                string `mapstructure:"FIREBASE_PROJECT_ID"`
	GoogleApplicationCredentials     string `mapstructure:"GOOGLE_APPLICATION_CREDENTIALS"`
	FirebaseServiceAccountJSONBase64 string `mapstructure:"FIREBASE_SERVICE_ACCOUNT_JSON_BASE64"`
	DatabaseURL                      string `mapstructure:"DATABASE_URL"`
	EncryptionKey                    string `mapstructure:"ENCRYPTION_KEY"` // Base64 encoded, 32 bytes

	RedisAddress  string        `mapstructure:"REDIS_ADDRESS"`
	RedisPassword string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int           `mapstructure:"REDIS_DB"`
	VaultDedupTTL time.Duration `mapstructure:"VAULT_DEDUP_TTL"`

	RabbitMQURL   string `mapstructure:"RABBITMQ_URL"`
	RabbitMQQueue string `mapstructure:"RABBITMQ_QUEUE"`

	SessionTTL       time.Duration `mapstructure:"SESSION_TTL"`
	SessionSweepSpec string        `mapstructure:"SESSION_SWEEP_SPEC"`

	SMTPHost     string `mapstructure:"SMTP_HOST"`
	SMTPPort     string `mapstructure:"SMTP_PORT"`
	SMTPUsername string `mapstructure:"SMTP_USERNAME"`
	SMTPPassword string `mapstructure:"SMTP_PASSWORD"`
	MailSender   string `mapstructure:"MAIL_SENDER"`
}

var keys = []string{
	"PORT", "GIN_MODE", "CLIENT_URL", "LOG_LEVEL", "LOG_JSON",
	"STORE_DRIVER", "FIREBASE_PROJECT_ID", "GOOGLE_APPLICATION_CREDENTIALS",
	"FIREBASE_SERVICE_ACCOUNT_JSON_BASE64", "DATABASE_URL", "ENCRYPTION_KEY",
	"REDIS_ADDRESS", "REDIS_PASSWORD", "REDIS_DB", "VAULT_DEDUP_TTL",
	"RABBITMQ_URL", "RABBITMQ_QUEUE", "SESSION_TTL", "SESSION_SWEEP_SPEC",
	"SMTP_HOST", "SMTP_PORT", "SMTP_USERNAME", "SMTP_PASSWORD", "MAIL_SENDER",
}

// LoadConfig reads configuration from the environment and, when CONFIG_FILE is
// set, from that file. Environment variables win over file values.
func LoadConfig() (*Config, error) {
	return load(viper.New())
}

// LoadNotifierConfig reads the same sources as LoadConfig but only requires the
// broker and SMTP settings the notifier worker uses.
func LoadNotifierConfig() (*Config, error) {
	cfg, err := read(viper.New())
	if err != nil {
		return nil, err
	}
	if !cfg.NotifierConfigured() {
		return nil, errors.New("RABBITMQ_URL, SMTP_USERNAME, SMTP_PASSWORD and MAIL_SENDER are required")
	}
	return cfg, nil
}

func load(v *viper.Viper) (*Config, error) {
	cfg, err := read(v)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func read(v *viper.Viper) (*Config, error) {
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("PORT", "8080")
	v.SetDefault("GIN_MODE", "debug")
	v.SetDefault("CLIENT_URL", "http://localhost:3000")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("STORE_DRIVER", DriverFirestore)
	v.SetDefault("VAULT_DEDUP_TTL", "10m")
	v.SetDefault("RABBITMQ_QUEUE", "seller.approved")
	v.SetDefault("SESSION_TTL", "15m")
	v.SetDefault("SESSION_SWEEP_SPEC", "@every 1m")
	v.SetDefault("SMTP_HOST", "smtp.mailtrap.io")
	v.SetDefault("SMTP_PORT", "2525")

	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	v.BindEnv("CONFIG_FILE")
	if path := v.GetString("CONFIG_FILE"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.New("failed to unmarshal config: " + err.Error())
	}
	cfg.StoreDriver = strings.ToLower(strings.TrimSpace(cfg.StoreDriver))
	return &cfg, nil
}

// Validate checks the settings required by the selected store driver.
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case DriverFirestore:
		if c.FirebaseProjectID == "" {
			return errors.New("FIREBASE_PROJECT_ID is required")
		}
		if c.GoogleApplicationCredentials == "" && c.FirebaseServiceAccountJSONBase64 == "" {
			return errors.New("either GOOGLE_APPLICATION_CREDENTIALS or FIREBASE_SERVICE_ACCOUNT_JSON_BASE64 is required")
		}
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required when STORE_DRIVER=postgres")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unsupported STORE_DRIVER %q", c.StoreDriver)
	}

	if c.EncryptionKey == "" {
		return errors.New("ENCRYPTION_KEY is required")
	}
	if c.SessionTTL <= 0 {
		return errors.New("SESSION_TTL must be positive")
	}
	if c.VaultDedupTTL < 0 {
		return errors.New("VAULT_DEDUP_TTL cannot be negative")
	}
	return nil
}

// IdentityEnabled reports whether Firebase credentials are configured, which
// the HTTP auth middleware needs regardless of the store driver.
func (c *Config) IdentityEnabled() bool {
	return c.FirebaseProjectID != "" || c.GoogleApplicationCredentials != "" || c.FirebaseServiceAccountJSONBase64 != ""
}

// NotifierConfigured reports whether both a broker and an SMTP account are set.
func (c *Config) NotifierConfigured() bool {
	return c.RabbitMQURL != "" && c.SMTPUsername != "" && c.SMTPPassword != "" && c.MailSender != ""
}
