package config

import (
	"fmt"
	"time"

	pkgconfig "github.com/deeppgcsca037/Rating-Prediction-Backend/pkg/config"
	"github.com/deeppgcsca037/Rating-Prediction-Backend/pkg/database"
)

// Config holds all configuration for the feedback service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	Version     string `env:"SERVICE_VERSION" envDefault:"1.0.0"`

	// HTTP server
	HTTPPort            int `env:"FEEDBACK_HTTP_PORT" envDefault:"5000"`
	RequestTimeoutSecs  int `env:"REQUEST_TIMEOUT_SECONDS" envDefault:"120"`
	ShutdownTimeoutSecs int `env:"SHUTDOWN_TIMEOUT_SECONDS" envDefault:"15"`

	// PostgreSQL
	PostgresHost string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser string `env:"POSTGRES_USER" envDefault:"feedback"`
	PostgresPass string `env:"POSTGRES_PASSWORD" envDefault:"feedback_secret"`
	PostgresDB   string `env:"FEEDBACK_DB_NAME" envDefault:"feedback"`
	PostgresSSL  string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`

	// Database pool
	DBMaxConns            int32 `env:"DB_MAX_CONNS" envDefault:"10"`
	DBMinConns            int32 `env:"DB_MIN_CONNS" envDefault:"2"`
	DBMaxConnLifetimeMins int   `env:"DB_MAX_CONN_LIFETIME_MINUTES" envDefault:"60"`
	DBMaxConnIdleTimeMins int   `env:"DB_MAX_CONN_IDLE_TIME_MINUTES" envDefault:"30"`

	// Text generation providers
	UseGemini         bool   `env:"USE_GEMINI" envDefault:"true"`
	GeminiAPIKey      string `env:"GEMINI_API_KEY"`
	GeminiModel       string `env:"GEMINI_MODEL" envDefault:"gemini-2.5-flash"`
	GeminiBaseURL     string `env:"GEMINI_BASE_URL" envDefault:"https://generativelanguage.googleapis.com/v1beta"`
	OpenRouterAPIKey  string `env:"OPENROUTER_API_KEY"`
	OpenRouterURL     string `env:"OPENROUTER_URL" envDefault:"https://openrouter.ai/api/v1/chat/completions"`
	OpenRouterModel   string `env:"OPENROUTER_MODEL" envDefault:"openai/gpt-3.5-turbo"`
	StaticProvider    bool   `env:"LLM_PROVIDER_STATIC" envDefault:"false"`
	LLMTimeoutSeconds int    `env:"LLM_TIMEOUT_SECONDS" envDefault:"30"`
	LLMMaxRetries     int    `env:"LLM_MAX_RETRIES" envDefault:"1"`
	LLMBudgetSeconds  int    `env:"LLM_GENERATION_BUDGET_SECONDS" envDefault:"90"`

	// HTTP surface
	CORSOrigins   []string `env:"CORS_ORIGINS" envDefault:"*" envSeparator:","`
	AdminAPIToken string   `env:"ADMIN_API_TOKEN"`

	// Kafka
	KafkaEnabled bool     `env:"KAFKA_ENABLED" envDefault:"false"`
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// Redis analytics cache
	RedisEnabled          bool   `env:"REDIS_ENABLED" envDefault:"false"`
	RedisHost             string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort             int    `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword         string `env:"REDIS_PASSWORD"`
	RedisDB               int    `env:"REDIS_DB" envDefault:"0"`
	AnalyticsCacheTTLSecs int    `env:"ANALYTICS_CACHE_TTL_SECONDS" envDefault:"60"`

	// OpenTelemetry
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`

	// Pprof debug endpoints (IP allowlist in CIDR notation)
	PprofAllowedCIDRs []string `env:"PPROF_ALLOWED_CIDRS" envDefault:"127.0.0.0/8,::1/128" envSeparator:","`

	// Slow query logging
	SlowQueryThresholdMs int `env:"LOG_SLOW_QUERY_MS" envDefault:"500"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load feedback config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.RequestTimeoutSecs < 1 {
		return fmt.Errorf("REQUEST_TIMEOUT_SECONDS must be positive, got %d", c.RequestTimeoutSecs)
	}
	if c.PostgresHost == "" {
		return fmt.Errorf("POSTGRES_HOST is required")
	}
	if c.PostgresUser == "" {
		return fmt.Errorf("POSTGRES_USER is required")
	}
	if c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS (%d) must not exceed DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
	}
	if c.LLMTimeoutSeconds < 1 {
		return fmt.Errorf("LLM_TIMEOUT_SECONDS must be positive, got %d", c.LLMTimeoutSeconds)
	}
	if c.LLMMaxRetries < 0 {
		return fmt.Errorf("LLM_MAX_RETRIES must not be negative, got %d", c.LLMMaxRetries)
	}
	if c.LLMBudgetSeconds < 1 {
		return fmt.Errorf("LLM_GENERATION_BUDGET_SECONDS must be positive, got %d", c.LLMBudgetSeconds)
	}
	if c.LLMBudgetSeconds >= c.RequestTimeoutSecs {
		return fmt.Errorf("LLM_GENERATION_BUDGET_SECONDS (%d) must be less than REQUEST_TIMEOUT_SECONDS (%d)",
			c.LLMBudgetSeconds, c.RequestTimeoutSecs)
	}
	if c.KafkaEnabled && len(c.KafkaBrokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required when KAFKA_ENABLED is set")
	}
	if c.RedisEnabled && (c.RedisPort < 1 || c.RedisPort > 65535) {
		return fmt.Errorf("invalid Redis port: %d", c.RedisPort)
	}
	if c.AnalyticsCacheTTLSecs < 0 {
		return fmt.Errorf("ANALYTICS_CACHE_TTL_SECONDS must not be negative, got %d", c.AnalyticsCacheTTLSecs)
	}
	if c.OTELSampleRate < 0 || c.OTELSampleRate > 1.0 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be between 0.0 and 1.0, got %f", c.OTELSampleRate)
	}
	return nil
}

// Postgres returns the connection settings for the review database.
func (c *Config) Postgres() database.PostgresConfig {
	return database.PostgresConfig{
		Host:            c.PostgresHost,
		Port:            c.PostgresPort,
		User:            c.PostgresUser,
		Password:        c.PostgresPass,
		DBName:          c.PostgresDB,
		SSLMode:         c.PostgresSSL,
		MaxConns:        c.DBMaxConns,
		MinConns:        c.DBMinConns,
		MaxConnLifetime: time.Duration(c.DBMaxConnLifetimeMins) * time.Minute,
		MaxConnIdleTime: time.Duration(c.DBMaxConnIdleTimeMins) * time.Minute,
	}
}

// Redis returns the connection settings for the analytics cache.
func (c *Config) Redis() database.RedisConfig {
	return database.RedisConfig{
		Host:        c.RedisHost,
		Port:        c.RedisPort,
		Password:    c.RedisPassword,
		DB:          c.RedisDB,
		DialTimeout: 5 * time.Second,
	}
}

// GeminiEnabled reports whether Gemini should head the provider chain.
func (c *Config) GeminiEnabled() bool {
	return c.UseGemini && c.GeminiAPIKey != ""
}

// OpenRouterEnabled reports whether an OpenRouter key is configured.
func (c *Config) OpenRouterEnabled() bool {
	return c.OpenRouterAPIKey != ""
}

// LLMTimeout is the per-attempt deadline for provider calls.
func (c *Config) LLMTimeout() time.Duration {
	return time.Duration(c.LLMTimeoutSeconds) * time.Second
}

// GenerationBudget caps the time spent generating AI texts for one review,
// leaving the rest of the request timeout for storage.
func (c *Config) GenerationBudget() time.Duration {
	return time.Duration(c.LLMBudgetSeconds) * time.Second
}

// AnalyticsCacheTTL is how long cached dashboard aggregates stay valid.
func (c *Config) AnalyticsCacheTTL() time.Duration {
	return time.Duration(c.AnalyticsCacheTTLSecs) * time.Second
}

// RequestTimeout bounds a single HTTP request, including provider calls.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSecs) * time.Second
}

// ShutdownTimeout bounds graceful HTTP shutdown.
func (c *Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutSecs) * time.Second
}
