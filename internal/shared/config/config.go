package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is read once at startup from the environment (and .env in development).
type Config struct {
	// Server configuration
	Port           string
	GinMode        string
	APIVersion     string
	APIPrefix      string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxHeaderBytes int

	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	RateLimit RateLimitConfig
	LogLevel  string

	// External services
	Kafka KafkaConfig
	Email EmailConfig

	// Claim pipeline
	Pipeline PipelineConfig
}

type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string
	DSN      string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	// ConnectAttempts covers containers where Postgres starts after the API.
	ConnectAttempts int
	SlowQuery       time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Addr     string
	PoolSize int

	TrainCacheTTL     time.Duration
	DeadlineNoticeTTL time.Duration
}

type JWTConfig struct {
	Secret           string
	JWTExpiresIn     time.Duration
	RefreshExpiresIn time.Duration
	// AdminEmails are promoted to ADMIN when they register.
	AdminEmails []string
}

// RateLimitConfig caps requests per client IP per window, by route class.
type RateLimitConfig struct {
	Enabled         bool          `json:"enabled"`
	WindowDuration  time.Duration `json:"window_duration"`
	DefaultRequests int           `json:"default_requests"`
	AdminRequests   int           `json:"admin_requests"`
	HealthRequests  int           `json:"health_requests"`
	AuthRequests    int           `json:"auth_requests"`
	ParseRequests   int           `json:"parse_requests"`
	ClaimRequests   int           `json:"claim_requests"`
	SubmitRequests  int           `json:"submit_requests"`
	WhitelistedIPs  []string      `json:"whitelisted_ips"`
}

// KafkaConfig holds notification broker configuration
type KafkaConfig struct {
	Enabled       bool
	Brokers       []string
	Topic         string
	ConsumerGroup string
	Workers       int
}

// EmailConfig falls back to logging emails when SMTPHost is empty.
type EmailConfig struct {
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	FromEmail    string
}

// PipelineConfig holds the claim pipeline's policy and schedule
type PipelineConfig struct {
	CompletionBuffer    time.Duration
	ClaimWindow         time.Duration
	DeadlineMonths      int
	EURToGBPRate        float64
	MinimumPayoutEUR    float64
	MinimumPayoutGBP    float64
	DefaultTicketPrice  float64
	PayoutCurrency      string
	Region              string
	FeedURL             string
	FeedTimeout         time.Duration
	FeedPollInterval    time.Duration
	SweepInterval       time.Duration
	DeadlineCheckEvery  time.Duration
	DeadlineNoticeAhead time.Duration
	SweepBatchSize      int
	ClaimPortalURL      string
}

// Load never fails; malformed values fall back to their defaults and
// Validate reports what cannot work.
func Load() *Config {
	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		GinMode:        getEnv("GIN_MODE", "debug"),
		APIVersion:     getEnv("API_VERSION", "v1"),
		APIPrefix:      getEnv("API_PREFIX", "/api"),
		ReadTimeout:    getDurationEnv("READ_TIMEOUT", 15*time.Second),
		WriteTimeout:   getDurationEnv("WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:    getDurationEnv("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes: getIntEnv("MAX_HEADER_BYTES", 1<<20), // 1 MB

		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			Name:     getEnv("DB_NAME", "autoclaim"),
			User:     getEnv("DB_USER", "autoclaim"),
			Password: getEnv("DB_PASSWORD", "autoclaim"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),

			MaxOpenConns:    getIntEnv("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getIntEnv("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getDurationEnv("DB_CONN_MAX_LIFETIME", 30*time.Minute),
			ConnectAttempts: getIntEnv("DB_CONNECT_ATTEMPTS", 5),
			SlowQuery:       getDurationEnv("DB_SLOW_QUERY", 500*time.Millisecond),
		},

		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
			PoolSize: getIntEnv("REDIS_POOL_SIZE", 10),

			TrainCacheTTL:     getDurationEnv("REDIS_TRAIN_CACHE_TTL", 2*time.Minute),
			DeadlineNoticeTTL: getDurationEnv("REDIS_DEADLINE_NOTICE_TTL", 7*24*time.Hour),
		},

		JWT: JWTConfig{
			Secret:           getEnv("JWT_SECRET", "your-super-secret-jwt-key"),
			JWTExpiresIn:     getDurationEnvSeconds("JWT_EXPIRES_IN", 15*time.Minute),
			RefreshExpiresIn: getDurationEnvSeconds("JWT_REFRESH_EXPIRES_IN", 24*time.Hour),
			AdminEmails:      getStringSliceEnv("ADMIN_EMAILS", nil),
		},

		// Rate limiting
		RateLimit: RateLimitConfig{
			Enabled:         getBoolEnv("RATE_LIMIT_ENABLED", true),
			WindowDuration:  getDurationEnv("RATE_LIMIT_WINDOW_DURATION", 60*time.Second),
			DefaultRequests: getIntEnv("RATE_LIMIT_DEFAULT_REQUESTS", 60),
			AdminRequests:   getIntEnv("RATE_LIMIT_ADMIN_REQUESTS", 30),
			HealthRequests:  getIntEnv("RATE_LIMIT_HEALTH_REQUESTS", 300),
			AuthRequests:    getIntEnv("RATE_LIMIT_AUTH_REQUESTS", 10),
			ParseRequests:   getIntEnv("RATE_LIMIT_PARSE_REQUESTS", 20),
			ClaimRequests:   getIntEnv("RATE_LIMIT_CLAIM_REQUESTS", 60),
			SubmitRequests:  getIntEnv("RATE_LIMIT_SUBMIT_REQUESTS", 10),
			WhitelistedIPs:  getStringSliceEnv("RATE_LIMIT_WHITELISTED_IPS", []string{}),
		},

		// Logging
		LogLevel: getEnv("LOG_LEVEL", "debug"),

		// Kafka configuration
		Kafka: KafkaConfig{
			Enabled:       getBoolEnv("KAFKA_ENABLED", true),
			Brokers:       getStringSliceEnv("KAFKA_BROKERS", []string{"localhost:9092"}),
			Topic:         getEnv("KAFKA_NOTIFICATION_TOPIC", "claim-notifications"),
			ConsumerGroup: getEnv("KAFKA_CONSUMER_GROUP", "autoclaim-notification-workers"),
			Workers:       getIntEnv("KAFKA_WORKERS", 2),
		},

		// Email configuration
		Email: EmailConfig{
			SMTPHost:     getEnv("SMTP_HOST", ""),
			SMTPPort:     getIntEnv("SMTP_PORT", 587),
			SMTPUsername: getEnv("SMTP_USERNAME", ""),
			SMTPPassword: getEnv("SMTP_PASSWORD", ""),
			FromEmail:    getEnv("FROM_EMAIL", "noreply@autoclaim.app"),
		},

		// Claim pipeline
		Pipeline: PipelineConfig{
			CompletionBuffer:    getDurationEnv("PIPELINE_COMPLETION_BUFFER", 30*time.Minute),
			ClaimWindow:         getDurationEnv("PIPELINE_CLAIM_WINDOW", 24*time.Hour),
			DeadlineMonths:      getIntEnv("PIPELINE_DEADLINE_MONTHS", 3),
			EURToGBPRate:        getFloatEnv("PIPELINE_EUR_TO_GBP_RATE", 0.85),
			MinimumPayoutEUR:    getFloatEnv("PIPELINE_MINIMUM_PAYOUT_EUR", 4),
			MinimumPayoutGBP:    getFloatEnv("PIPELINE_MINIMUM_PAYOUT_GBP", 4),
			DefaultTicketPrice:  getFloatEnv("PIPELINE_DEFAULT_TICKET_PRICE", 100),
			PayoutCurrency:      getEnv("PIPELINE_PAYOUT_CURRENCY", ""),
			Region:              getEnv("PIPELINE_REGION", ""),
			FeedURL:             getEnv("PIPELINE_FEED_URL", ""),
			FeedTimeout:         getDurationEnv("PIPELINE_FEED_TIMEOUT", 10*time.Second),
			FeedPollInterval:    getDurationEnv("PIPELINE_FEED_POLL_INTERVAL", 30*time.Second),
			SweepInterval:       getDurationEnv("PIPELINE_SWEEP_INTERVAL", 5*time.Minute),
			DeadlineCheckEvery:  getDurationEnv("PIPELINE_DEADLINE_CHECK_INTERVAL", 1*time.Hour),
			DeadlineNoticeAhead: getDurationEnv("PIPELINE_DEADLINE_NOTICE_AHEAD", 48*time.Hour),
			SweepBatchSize:      getIntEnv("PIPELINE_SWEEP_BATCH_SIZE", 200),
			ClaimPortalURL:      getEnv("PIPELINE_CLAIM_PORTAL_URL", "https://www.eurostar.com/uk-en/travel-info/service-information/delay-compensation"),
		},
	}

	// Build composite values
	cfg.Database.DSN = buildDatabaseDSN(cfg.Database)
	cfg.Redis.Addr = cfg.Redis.Host + ":" + cfg.Redis.Port

	return cfg
}

func buildDatabaseDSN(db DatabaseConfig) string {
	return "host=" + db.Host +
		" port=" + db.Port +
		" user=" + db.User +
		" password=" + db.Password +
		" dbname=" + db.Name +
		" sslmode=" + db.SSLMode
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return fallback
}

func getFloatEnv(key string, fallback float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}

// getDurationEnv takes Go duration syntax ("90s", "1h").
func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return fallback
}

// getDurationEnvSeconds takes a bare number of seconds.
func getDurationEnvSeconds(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if seconds, err := strconv.Atoi(value); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return fallback
}

func getBoolEnv(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return fallback
}

// getStringSliceEnv splits on commas and drops empty entries.
func getStringSliceEnv(key string, fallback []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		var result []string
		for _, part := range parts {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}

func (c *Config) IsProduction() bool {
	return c.GinMode == "release"
}

func (c *Config) IsDevelopment() bool {
	return c.GinMode == "debug"
}

func (c *Config) GetServerAddress() string {
	return ":" + c.Port
}

func (c *Config) GetAPIBasePath() string {
	return c.APIPrefix + "/" + c.APIVersion
}

// Validate fails fast on settings the pipeline cannot run with
func (c *Config) Validate() error {
	var errs []error
	p := c.Pipeline

	if c.Database.ConnectAttempts < 1 {
		errs = append(errs, errors.New("DB_CONNECT_ATTEMPTS must be at least 1"))
	}
	if c.JWT.Secret == "" {
		errs = append(errs, errors.New("JWT_SECRET must be set"))
	}
	if p.CompletionBuffer < 0 {
		errs = append(errs, errors.New("PIPELINE_COMPLETION_BUFFER must not be negative"))
	}
	if p.ClaimWindow < 0 {
		errs = append(errs, errors.New("PIPELINE_CLAIM_WINDOW must not be negative"))
	}
	if p.DeadlineMonths <= 0 {
		errs = append(errs, errors.New("PIPELINE_DEADLINE_MONTHS must be positive"))
	}
	if p.EURToGBPRate <= 0 {
		errs = append(errs, fmt.Errorf("PIPELINE_EUR_TO_GBP_RATE must be positive, got %v", p.EURToGBPRate))
	}
	if p.MinimumPayoutEUR < 0 || p.MinimumPayoutGBP < 0 {
		errs = append(errs, errors.New("minimum payouts must not be negative"))
	}
	if p.DefaultTicketPrice <= 0 {
		errs = append(errs, errors.New("PIPELINE_DEFAULT_TICKET_PRICE must be positive"))
	}
	switch strings.ToUpper(p.PayoutCurrency) {
	case "", "EUR", "GBP":
	default:
		errs = append(errs, fmt.Errorf("unsupported PIPELINE_PAYOUT_CURRENCY %q", p.PayoutCurrency))
	}
	if p.FeedPollInterval <= 0 || p.SweepInterval <= 0 || p.DeadlineCheckEvery <= 0 {
		errs = append(errs, errors.New("pipeline intervals must be positive"))
	}
	if p.SweepBatchSize <= 0 {
		errs = append(errs, errors.New("PIPELINE_SWEEP_BATCH_SIZE must be positive"))
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		errs = append(errs, errors.New("KAFKA_BROKERS must be set when Kafka is enabled"))
	}

	return errors.Join(errs...)
}
