package config

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/northpeak/logistics-api/internal/secrets"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Config is the full configuration tree. Values come from
// config.json, overridden by environment variables, with secrets
// optionally resolved from Azure Key Vault.
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Pricing   PricingConfig
	Push      PushConfig
	Identity  IdentityConfig
	Mailer    MailerConfig
	Storage   StorageConfig
	Secrets   SecretsConfig
	Logging   LoggingConfig
	Server    ServerConfig
	CORS      CORSConfig
	Security  SecurityConfig
	RateLimit RateLimitConfig
	Jobs      JobsConfig
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
	// QueryTimeout bounds every database call (seconds)
	QueryTimeout int
	// Retry settings for transient failures
	MaxRetries     int
	InitialBackoff int // milliseconds
}

// PricingConfig holds tax settings for the pricing calculator
type PricingConfig struct {
	// VATRate is the value-added tax rate applied per line item (e.g. 0.15)
	VATRate float64
}

// PushConfig holds Firebase Cloud Messaging (HTTP v1) settings
type PushConfig struct {
	// Enabled controls whether push notifications are dispatched at all
	Enabled bool
	// ProjectID is the Firebase project identifier
	ProjectID string
	// ClientEmail is the service account client email used for OAuth assertions
	ClientEmail string
	// PrivateKey is the service account PEM private key (from secrets)
	PrivateKey string
	// TokenURL is the OAuth token endpoint
	TokenURL string
	// Timeout for each push request (seconds)
	Timeout int
}

// IdentityConfig holds settings for the external identity provider
type IdentityConfig struct {
	BaseURL string
	APIKey  string // Loaded from secrets or environment
	Timeout int    // seconds
}

// MailerConfig holds settings for the outbound mail service
type MailerConfig struct {
	Enabled bool
	BaseURL string
	APIKey  string
	From    string
	Timeout int // seconds
}

type StorageConfig struct {
	Mode                  string
	LocalBasePath         string
	CloudConnectionString string
	CloudContainer        string
}

type SecretsConfig struct {
	// Source determines where secrets are loaded from: "environment", "vault", or "auto"
	// "auto" uses environment in development, vault in staging/production
	Source       string
	KeyVaultName string
	CacheEnabled bool
	CacheTTL     int // seconds
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

// JobsConfig holds background job settings
type JobsConfig struct {
	// PendingReminderEnabled enables the stale pending-approval reminder job
	PendingReminderEnabled bool
	// PendingReminderCron is the cron expression (with seconds) for the reminder
	PendingReminderCron string
	// PendingReminderAgeHours is how old a pending document must be to count as stale
	PendingReminderAgeHours int
}

// ConnectionString renders the postgres DSN in keyword form.
func (d *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

func (d *DatabaseConfig) ConnMaxLifetimeDuration() time.Duration {
	return time.Duration(d.ConnMaxLifetime) * time.Second
}

// QueryTimeoutDuration returns the per-call query timeout as duration
func (d *DatabaseConfig) QueryTimeoutDuration() time.Duration {
	return time.Duration(d.QueryTimeout) * time.Second
}

// InitialBackoffDuration returns the initial retry backoff as duration
func (d *DatabaseConfig) InitialBackoffDuration() time.Duration {
	return time.Duration(d.InitialBackoff) * time.Millisecond
}

func (s *ServerConfig) ReadTimeoutDuration() time.Duration {
	return time.Duration(s.ReadTimeout) * time.Second
}

func (s *ServerConfig) WriteTimeoutDuration() time.Duration {
	return time.Duration(s.WriteTimeout) * time.Second
}

func (s *ServerConfig) RequestTimeoutDuration() time.Duration {
	return time.Duration(s.RequestTimeout) * time.Second
}

// TimeoutDuration returns the push request timeout as duration
func (p *PushConfig) TimeoutDuration() time.Duration {
	return time.Duration(p.Timeout) * time.Second
}

// TimeoutDuration returns the identity request timeout as duration
func (i *IdentityConfig) TimeoutDuration() time.Duration {
	return time.Duration(i.Timeout) * time.Second
}

// TimeoutDuration returns the mailer request timeout as duration
func (m *MailerConfig) TimeoutDuration() time.Duration {
	return time.Duration(m.Timeout) * time.Second
}

// Load reads config.json (if present) and environment variables. It
// never talks to the vault; callers that need vault-backed secrets use
// LoadWithSecrets.
func Load() (*Config, error) {
	// A missing .env file is fine
	_ = godotenv.Load()

	v := viper.New()

	setDefaults(v)

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

	// Credentials that commonly arrive as plain env vars in development
	if cfg.Identity.APIKey == "" {
		cfg.Identity.APIKey = v.GetString("IDENTITY_API_KEY")
	}
	if cfg.Mailer.APIKey == "" {
		cfg.Mailer.APIKey = v.GetString("MAILER_API_KEY")
	}
	if cfg.Push.PrivateKey == "" {
		cfg.Push.PrivateKey = v.GetString("FCM_PRIVATE_KEY")
	}
	if cfg.Push.ClientEmail == "" {
		cfg.Push.ClientEmail = v.GetString("FCM_CLIENT_EMAIL")
	}
	if cfg.Push.ProjectID == "" {
		cfg.Push.ProjectID = v.GetString("FCM_PROJECT_ID")
	}
	if cfg.Secrets.KeyVaultName == "" {
		cfg.Secrets.KeyVaultName = v.GetString("AZURE_KEY_VAULT_NAME")
	}

	return &cfg, nil
}

// LoadWithSecrets is Load plus secret resolution. Key Vault is only
// consulted when USE_AZURE_KEY_VAULT=true AND the environment is
// staging or production; otherwise secrets stay on plain environment
// variables.
func LoadWithSecrets(ctx context.Context, logger *zap.Logger) (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}

	useKeyVault := strings.ToLower(os.Getenv("USE_AZURE_KEY_VAULT")) == "true"
	isValidEnv := cfg.App.Environment == "staging" || cfg.App.Environment == "production"

	if !useKeyVault {
		logger.Info("USE_AZURE_KEY_VAULT not enabled, using environment variables for secrets",
			zap.String("environment", cfg.App.Environment),
		)
		return cfg, nil
	}

	if !isValidEnv {
		logger.Warn("USE_AZURE_KEY_VAULT is enabled but environment is not staging or production, using environment variables",
			zap.String("environment", cfg.App.Environment),
			zap.Bool("use_key_vault", useKeyVault),
		)
		return cfg, nil
	}

	if cfg.Secrets.KeyVaultName == "" {
		return nil, fmt.Errorf("AZURE_KEY_VAULT_NAME is required when USE_AZURE_KEY_VAULT=true")
	}

	logger.Info("Azure Key Vault enabled for secrets",
		zap.String("environment", cfg.App.Environment),
		zap.String("key_vault_name", cfg.Secrets.KeyVaultName),
	)

	provider, err := secrets.NewProvider(&secrets.ProviderConfig{
		Source:       secrets.SourceVault,
		VaultName:    cfg.Secrets.KeyVaultName,
		Environment:  cfg.App.Environment,
		CacheEnabled: cfg.Secrets.CacheEnabled,
		CacheTTL:     time.Duration(cfg.Secrets.CacheTTL) * time.Second,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize secrets provider (USE_AZURE_KEY_VAULT=true requires valid vault): %w", err)
	}

	if !provider.IsVaultEnabled() {
		return nil, fmt.Errorf("vault provider not enabled despite USE_AZURE_KEY_VAULT=true")
	}

	logger.Info("Loading secrets from Azure Key Vault")

	// Database credentials. Port and database name stay environment-specific.
	if host, err := provider.GetSecretOrEnv(ctx, "logistics-db-host", "DATABASE_HOST"); err == nil && host != "" {
		cfg.Database.Host = host
	}
	if user, err := provider.GetSecretOrEnv(ctx, "logistics-db-user", "DATABASE_USER"); err == nil && user != "" {
		cfg.Database.User = user
	}
	if password, err := provider.GetSecretOrEnv(ctx, "logistics-db-password", "DATABASE_PASSWORD"); err == nil && password != "" {
		cfg.Database.Password = password
	}
	if sslMode := os.Getenv("DATABASE_SSLMODE"); sslMode != "" {
		cfg.Database.SSLMode = sslMode
	}

	// FCM service account
	if key, err := provider.GetSecretOrEnv(ctx, "fcm-private-key", "FCM_PRIVATE_KEY"); err == nil && key != "" {
		cfg.Push.PrivateKey = key
	}
	if email, err := provider.GetSecretOrEnv(ctx, "fcm-client-email", "FCM_CLIENT_EMAIL"); err == nil && email != "" {
		cfg.Push.ClientEmail = email
	}

	// External collaborators
	if apiKey, err := provider.GetSecretOrEnv(ctx, "identity-api-key", "IDENTITY_API_KEY"); err == nil && apiKey != "" {
		cfg.Identity.APIKey = apiKey
	}
	if apiKey, err := provider.GetSecretOrEnv(ctx, "mailer-api-key", "MAILER_API_KEY"); err == nil && apiKey != "" {
		cfg.Mailer.APIKey = apiKey
	}

	// Storage connection string (for cloud document archive)
	if connStr, err := provider.GetSecretOrEnv(ctx, "storage-connection-string", "STORAGE_CLOUDCONNECTIONSTRING"); err == nil && connStr != "" {
		cfg.Storage.CloudConnectionString = connStr
	}

	logger.Info("Secrets loaded from vault successfully")
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "NorthPeak Logistics API")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.port", 8080)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "logistics")
	v.SetDefault("database.user", "logistics_user")
	v.SetDefault("database.password", "logistics_password")
	v.SetDefault("database.sslMode", "disable")
	v.SetDefault("database.maxOpenConns", 25)
	v.SetDefault("database.maxIdleConns", 5)
	v.SetDefault("database.connMaxLifetime", 300)
	v.SetDefault("database.queryTimeout", 10)
	v.SetDefault("database.maxRetries", 3)
	v.SetDefault("database.initialBackoff", 1000)

	v.SetDefault("pricing.vatRate", 0.15)

	v.SetDefault("push.enabled", true)
	v.SetDefault("push.tokenURL", "https://oauth2.googleapis.com/token")
	v.SetDefault("push.timeout", 10)

	v.SetDefault("identity.timeout", 10)

	v.SetDefault("mailer.enabled", true)
	v.SetDefault("mailer.timeout", 10)

	v.SetDefault("secrets.source", "auto")
	v.SetDefault("secrets.cacheEnabled", true)
	v.SetDefault("secrets.cacheTTL", 300)

	v.SetDefault("storage.mode", "local")
	v.SetDefault("storage.localBasePath", "./storage")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("server.readTimeout", 30)
	v.SetDefault("server.writeTimeout", 30)
	v.SetDefault("server.requestTimeout", 60)

	// No origins allowed until deployment config names them
	v.SetDefault("cors.allowedOrigins", []string{})
	v.SetDefault("cors.allowedMethods", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})
	v.SetDefault("cors.allowedHeaders", []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"})
	v.SetDefault("cors.exposedHeaders", []string{"Location", "X-Request-ID"})
	v.SetDefault("cors.allowCredentials", true)
	v.SetDefault("cors.maxAge", 300)

	v.SetDefault("security.enableHSTS", false)
	v.SetDefault("security.hstsMaxAge", 31536000)
	v.SetDefault("security.hstsIncludeSubdomains", true)
	v.SetDefault("security.hstsPreload", false)
	v.SetDefault("security.contentSecurityPolicy", "default-src 'self'")
	v.SetDefault("security.frameOptions", "DENY")
	v.SetDefault("security.contentTypeNosniff", true)
	v.SetDefault("security.xssProtection", "1; mode=block")
	v.SetDefault("security.referrerPolicy", "strict-origin-when-cross-origin")
	v.SetDefault("security.permissionsPolicy", "geolocation=(), microphone=(), camera=()")

	v.SetDefault("rateLimit.enabled", true)
	v.SetDefault("rateLimit.requestsPerMinute", 120)
	v.SetDefault("rateLimit.whitelistIPs", []string{"127.0.0.1", "::1"})
	v.SetDefault("rateLimit.whitelistPaths", []string{"/health", "/health/db", "/health/ready"})

	v.SetDefault("jobs.pendingReminderEnabled", false)
	v.SetDefault("jobs.pendingReminderCron", "0 0 7 * * *")
	v.SetDefault("jobs.pendingReminderAgeHours", 48)
}
