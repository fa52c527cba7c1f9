package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	DB       DBConfig
	S3       S3Config
	Log      LogConfig
	Provider ProvidersConfig
	Scan     ScanConfig
	Rescan   RescanConfig
	Notify   NotifyConfig
	CORS     CORSConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
}

// DBConfig holds PostgreSQL connection settings.
type DBConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxOpen  int    `mapstructure:"max_open"`
	MaxIdle  int    `mapstructure:"max_idle"`
}

// DSN returns the PostgreSQL connection string.
func (d *DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// S3Config holds settings for the card image blob store.
type S3Config struct {
	Region        string `mapstructure:"region"`
	Bucket        string `mapstructure:"bucket"`
	Endpoint      string `mapstructure:"endpoint"`
	AccessKey     string `mapstructure:"access_key"`
	SecretKey     string `mapstructure:"secret_key"`
	PresignExpiry int64  `mapstructure:"presign_expiry"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ProviderConfig holds settings for a single recognition backend.
type ProviderConfig struct {
	Provider    string `mapstructure:"provider"`
	APIKey      string `mapstructure:"api_key"`
	Model       string `mapstructure:"model"`
	TimeoutSecs int    `mapstructure:"timeout_secs"`
}

// Configured reports whether the provider has a name and credential.
func (p *ProviderConfig) Configured() bool {
	return p.Provider != "" && p.APIKey != ""
}

// ProvidersConfig holds the ordered extraction provider chain.
type ProvidersConfig struct {
	Primary   ProviderConfig `mapstructure:"primary"`
	Secondary ProviderConfig `mapstructure:"secondary"`
}

// Chain returns the configured providers in fallback order.
func (p *ProvidersConfig) Chain() []*ProviderConfig {
	var out []*ProviderConfig
	if p.Primary.Configured() {
		out = append(out, &p.Primary)
	}
	if p.Secondary.Configured() {
		out = append(out, &p.Secondary)
	}
	return out
}

// ScanConfig holds card scan input limits.
type ScanConfig struct {
	MaxImages      int   `mapstructure:"max_images"`
	MaxImageMB     int64 `mapstructure:"max_image_mb"`
	MaxImageWidth  int   `mapstructure:"max_image_width"`
	MaxImageHeight int   `mapstructure:"max_image_height"`
}

// RescanConfig holds drift audit worker settings.
type RescanConfig struct {
	PollIntervalSecs   int `mapstructure:"poll_interval_secs"`
	Concurrency        int `mapstructure:"concurrency"`
	AuditIntervalHours int `mapstructure:"audit_interval_hours"`
	BatchSize          int `mapstructure:"batch_size"`
}

// NotifyConfig holds drift notification settings.
type NotifyConfig struct {
	Provider    string `mapstructure:"provider"`
	Region      string `mapstructure:"region"`
	FromAddress string `mapstructure:"from_address"`
	ToAddress   string `mapstructure:"to_address"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// Load reads configuration from environment variables with the LEADSCAN_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("LEADSCAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.environment", "development")

	// DB defaults
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "leadscan")
	v.SetDefault("db.password", "leadscan_secret")
	v.SetDefault("db.name", "leadscan_db")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open", 25)
	v.SetDefault("db.max_idle", 10)

	// S3 defaults
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.bucket", "leadscan-cards")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.presign_expiry", 3600)

	// Log defaults
	v.SetDefault("log.level", "debug")
	v.SetDefault("log.format", "console")

	// Provider defaults: 30s bounded timeout per attempt
	v.SetDefault("provider.primary.provider", "openai")
	v.SetDefault("provider.primary.api_key", "")
	v.SetDefault("provider.primary.model", "")
	v.SetDefault("provider.primary.timeout_secs", 30)
	v.SetDefault("provider.secondary.provider", "gemini")
	v.SetDefault("provider.secondary.api_key", "")
	v.SetDefault("provider.secondary.model", "")
	v.SetDefault("provider.secondary.timeout_secs", 30)

	// Scan defaults
	v.SetDefault("scan.max_images", 3)
	v.SetDefault("scan.max_image_mb", 10)
	v.SetDefault("scan.max_image_width", 2048)
	v.SetDefault("scan.max_image_height", 2048)

	// Rescan defaults
	v.SetDefault("rescan.poll_interval_secs", 60)
	v.SetDefault("rescan.concurrency", 2)
	v.SetDefault("rescan.audit_interval_hours", 168)
	v.SetDefault("rescan.batch_size", 10)

	// Notify defaults
	v.SetDefault("notify.provider", "noop")
	v.SetDefault("notify.region", "us-east-1")
	v.SetDefault("notify.from_address", "noreply@leadscan.local")
	v.SetDefault("notify.to_address", "")

	// CORS defaults (localhost origins for development)
	v.SetDefault("cors.allowed_origins", "http://localhost:3000,http://127.0.0.1:3000")

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":                  "LEADSCAN_SERVER_PORT",
		"server.read_timeout":          "LEADSCAN_SERVER_READ_TIMEOUT",
		"server.write_timeout":         "LEADSCAN_SERVER_WRITE_TIMEOUT",
		"server.environment":           "LEADSCAN_SERVER_ENVIRONMENT",
		"db.host":                      "LEADSCAN_DB_HOST",
		"db.port":                      "LEADSCAN_DB_PORT",
		"db.user":                      "LEADSCAN_DB_USER",
		"db.password":                  "LEADSCAN_DB_PASSWORD",
		"db.name":                      "LEADSCAN_DB_NAME",
		"db.sslmode":                   "LEADSCAN_DB_SSLMODE",
		"db.max_open":                  "LEADSCAN_DB_MAX_OPEN",
		"db.max_idle":                  "LEADSCAN_DB_MAX_IDLE",
		"s3.region":                    "LEADSCAN_S3_REGION",
		"s3.bucket":                    "LEADSCAN_S3_BUCKET",
		"s3.endpoint":                  "LEADSCAN_S3_ENDPOINT",
		"s3.access_key":                "LEADSCAN_S3_ACCESS_KEY",
		"s3.secret_key":                "LEADSCAN_S3_SECRET_KEY",
		"s3.presign_expiry":            "LEADSCAN_S3_PRESIGN_EXPIRY",
		"log.level":                    "LEADSCAN_LOG_LEVEL",
		"log.format":                   "LEADSCAN_LOG_FORMAT",
		"provider.primary.provider":    "LEADSCAN_PROVIDER_PRIMARY_PROVIDER",
		"provider.primary.api_key":     "LEADSCAN_PROVIDER_PRIMARY_API_KEY",
		"provider.primary.model":       "LEADSCAN_PROVIDER_PRIMARY_MODEL",
		"provider.primary.timeout_secs": "LEADSCAN_PROVIDER_PRIMARY_TIMEOUT_SECS",
		"provider.secondary.provider":  "LEADSCAN_PROVIDER_SECONDARY_PROVIDER",
		"provider.secondary.api_key":   "LEADSCAN_PROVIDER_SECONDARY_API_KEY",
		"provider.secondary.model":     "LEADSCAN_PROVIDER_SECONDARY_MODEL",
		"provider.secondary.timeout_secs": "LEADSCAN_PROVIDER_SECONDARY_TIMEOUT_SECS",
		"scan.max_images":              "LEADSCAN_SCAN_MAX_IMAGES",
		"scan.max_image_mb":            "LEADSCAN_SCAN_MAX_IMAGE_MB",
		"scan.max_image_width":         "LEADSCAN_SCAN_MAX_IMAGE_WIDTH",
		"scan.max_image_height":        "LEADSCAN_SCAN_MAX_IMAGE_HEIGHT",
		"rescan.poll_interval_secs":    "LEADSCAN_RESCAN_POLL_INTERVAL_SECS",
		"rescan.concurrency":           "LEADSCAN_RESCAN_CONCURRENCY",
		"rescan.audit_interval_hours":  "LEADSCAN_RESCAN_AUDIT_INTERVAL_HOURS",
		"rescan.batch_size":            "LEADSCAN_RESCAN_BATCH_SIZE",
		"notify.provider":              "LEADSCAN_NOTIFY_PROVIDER",
		"notify.region":                "LEADSCAN_NOTIFY_REGION",
		"notify.from_address":          "LEADSCAN_NOTIFY_FROM_ADDRESS",
		"notify.to_address":            "LEADSCAN_NOTIFY_TO_ADDRESS",
		"cors.allowed_origins":         "LEADSCAN_CORS_ALLOWED_ORIGINS",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Railway/Heroku/Render set a PORT env var. Use it if LEADSCAN_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("LEADSCAN_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:         serverPort,
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		Environment:  v.GetString("server.environment"),
	}
	cfg.DB = DBConfig{
		Host:     v.GetString("db.host"),
		Port:     v.GetInt("db.port"),
		User:     v.GetString("db.user"),
		Password: v.GetString("db.password"),
		Name:     v.GetString("db.name"),
		SSLMode:  v.GetString("db.sslmode"),
		MaxOpen:  v.GetInt("db.max_open"),
		MaxIdle:  v.GetInt("db.max_idle"),
	}
	cfg.S3 = S3Config{
		Region:        v.GetString("s3.region"),
		Bucket:        v.GetString("s3.bucket"),
		Endpoint:      v.GetString("s3.endpoint"),
		AccessKey:     v.GetString("s3.access_key"),
		SecretKey:     v.GetString("s3.secret_key"),
		PresignExpiry: v.GetInt64("s3.presign_expiry"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}
	cfg.Provider = ProvidersConfig{
		Primary: ProviderConfig{
			Provider:    v.GetString("provider.primary.provider"),
			APIKey:      v.GetString("provider.primary.api_key"),
			Model:       v.GetString("provider.primary.model"),
			TimeoutSecs: v.GetInt("provider.primary.timeout_secs"),
		},
		Secondary: ProviderConfig{
			Provider:    v.GetString("provider.secondary.provider"),
			APIKey:      v.GetString("provider.secondary.api_key"),
			Model:       v.GetString("provider.secondary.model"),
			TimeoutSecs: v.GetInt("provider.secondary.timeout_secs"),
		},
	}
	cfg.Scan = ScanConfig{
		MaxImages:      v.GetInt("scan.max_images"),
		MaxImageMB:     v.GetInt64("scan.max_image_mb"),
		MaxImageWidth:  v.GetInt("scan.max_image_width"),
		MaxImageHeight: v.GetInt("scan.max_image_height"),
	}
	cfg.Rescan = RescanConfig{
		PollIntervalSecs:   v.GetInt("rescan.poll_interval_secs"),
		Concurrency:        v.GetInt("rescan.concurrency"),
		AuditIntervalHours: v.GetInt("rescan.audit_interval_hours"),
		BatchSize:          v.GetInt("rescan.batch_size"),
	}
	cfg.Notify = NotifyConfig{
		Provider:    v.GetString("notify.provider"),
		Region:      v.GetString("notify.region"),
		FromAddress: v.GetString("notify.from_address"),
		ToAddress:   v.GetString("notify.to_address"),
	}

	// Parse CORS allowed origins from comma-separated string
	var corsOrigins []string
	for _, o := range strings.Split(v.GetString("cors.allowed_origins"), ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			corsOrigins = append(corsOrigins, o)
		}
	}
	cfg.CORS = CORSConfig{AllowedOrigins: corsOrigins}

	return cfg, nil
}
