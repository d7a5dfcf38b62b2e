package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Logging   LoggingConfig
	Server    ServerConfig
	CORS      CORSConfig
	Security  SecurityConfig
	RateLimit RateLimitConfig
	CRM       CRMConfig
	Chat      ChatConfig
}

type AppConfig struct {
	Name        string
	Environment string
	Port        int
}

type DatabaseConfig struct {
	Host            string
	Port            int
	Name            string
	User            string
	Password        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int
}

type LoggingConfig struct {
	Level  string
	Format string
}

type ServerConfig struct {
	ReadTimeout    int
	WriteTimeout   int
	RequestTimeout int
}

// CORSConfig holds CORS configuration
type CORSConfig struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	MaxAge           int
}

// SecurityConfig holds security header configuration
type SecurityConfig struct {
	EnableHSTS            bool
	HSTSMaxAge            int
	HSTSIncludeSubdomains bool
	HSTSPreload           bool
	ContentSecurityPolicy string
	FrameOptions          string
	ContentTypeNosniff    bool
	XSSProtection         string
	ReferrerPolicy        string
	PermissionsPolicy     string
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled           bool
	RequestsPerMinute int
	WhitelistIPs      []string
	WhitelistPaths    []string
}

// CRMConfig holds the remote CRM store connection and the pipeline the
// quoting flow operates on.
type CRMConfig struct {
	// BaseURL is the CRM API root, without a trailing slash
	BaseURL string
	// Token is the private app access token
	Token string
	// RequestTimeout is the per-request timeout in seconds
	RequestTimeout int
	// Pipeline is the pipeline whose deals carry quotes
	Pipeline string
	// InitialStage is where new and duplicated deals start
	InitialStage string
	// QuoteSentStage is the stage a deal advances to when a complete
	// quote is published with the stage option set
	QuoteSentStage string
	// PurgeConcurrency caps parallel line-item deletions
	PurgeConcurrency int
}

// ChatConfig holds the external chat integration settings
type ChatConfig struct {
	// WebhookURL receives outbound quote notifications; empty disables
	// the send-quote operation
	WebhookURL string
	// RequestTimeout is the webhook delivery timeout in seconds
	RequestTimeout int
}

// ConnectionString builds PostgreSQL connection string
func (d *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

// ConnMaxLifetimeDuration returns connection max lifetime as duration
func (d *DatabaseConfig) ConnMaxLifetimeDuration() time.Duration {
	return time.Duration(d.ConnMaxLifetime) * time.Second
}

// ReadTimeoutDuration returns read timeout as duration
func (s *ServerConfig) ReadTimeoutDuration() time.Duration {
	return time.Duration(s.ReadTimeout) * time.Second
}

// WriteTimeoutDuration returns write timeout as duration
func (s *ServerConfig) WriteTimeoutDuration() time.Duration {
	return time.Duration(s.WriteTimeout) * time.Second
}

// RequestTimeoutDuration returns request timeout as duration
func (s *ServerConfig) RequestTimeoutDuration() time.Duration {
	return time.Duration(s.RequestTimeout) * time.Second
}

// RequestTimeoutDuration returns the CRM request timeout as duration
func (c *CRMConfig) RequestTimeoutDuration() time.Duration {
	return time.Duration(c.RequestTimeout) * time.Second
}

// RequestTimeoutDuration returns the webhook timeout as duration
func (c *ChatConfig) RequestTimeoutDuration() time.Duration {
	return time.Duration(c.RequestTimeout) * time.Second
}

// Load loads configuration from file and environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Read from config file
	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Environment variables override config file
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Token fallbacks for flat env naming
	if cfg.CRM.Token == "" {
		cfg.CRM.Token = v.GetString("CRM_TOKEN")
	}
	if cfg.Chat.WebhookURL == "" {
		cfg.Chat.WebhookURL = v.GetString("CHAT_WEBHOOK_URL")
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "Market Paper Quote API")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.port", 8080)

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "quotes")
	v.SetDefault("database.user", "quotes_user")
	v.SetDefault("database.password", "quotes_password")
	v.SetDefault("database.sslMode", "disable")
	v.SetDefault("database.maxOpenConns", 25)
	v.SetDefault("database.maxIdleConns", 5)
	v.SetDefault("database.connMaxLifetime", 300)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	// Server defaults
	v.SetDefault("server.readTimeout", 30)
	v.SetDefault("server.writeTimeout", 30)
	v.SetDefault("server.requestTimeout", 60)

	// CORS defaults - restrictive by default
	v.SetDefault("cors.allowedOrigins", []string{})
	v.SetDefault("cors.allowedMethods", []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"})
	v.SetDefault("cors.allowedHeaders", []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"})
	v.SetDefault("cors.exposedHeaders", []string{"Location", "X-Request-ID"})
	v.SetDefault("cors.allowCredentials", true)
	v.SetDefault("cors.maxAge", 300)

	// Security header defaults - secure by default
	v.SetDefault("security.enableHSTS", false)
	v.SetDefault("security.hstsMaxAge", 31536000)
	v.SetDefault("security.hstsIncludeSubdomains", true)
	v.SetDefault("security.contentSecurityPolicy", "default-src 'self'")
	v.SetDefault("security.frameOptions", "DENY")
	v.SetDefault("security.contentTypeNosniff", true)
	v.SetDefault("security.xssProtection", "1; mode=block")
	v.SetDefault("security.referrerPolicy", "strict-origin-when-cross-origin")

	// Rate limiting defaults
	v.SetDefault("rateLimit.enabled", true)
	v.SetDefault("rateLimit.requestsPerMinute", 60)
	v.SetDefault("rateLimit.whitelistPaths", []string{"/health", "/health/db", "/health/ready"})

	// CRM defaults
	v.SetDefault("crm.baseUrl", "https://api.hubapi.com")
	v.SetDefault("crm.requestTimeout", 15)
	v.SetDefault("crm.pipeline", "default")
	v.SetDefault("crm.initialStage", "appointmentscheduled")
	v.SetDefault("crm.quoteSentStage", "presentationscheduled")
	v.SetDefault("crm.purgeConcurrency", 5)

	// Chat defaults
	v.SetDefault("chat.requestTimeout", 15)
}
