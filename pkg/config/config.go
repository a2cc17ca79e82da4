package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Token ceiling bounds accepted for agent and chair completions
const (
	MinCompletionTokens = 1
	MaxCompletionTokens = 128000
)

// Config holds application configuration
type Config struct {
	Server       ServerConfig
	Database     DatabaseConfig
	Redis        RedisConfig
	Storage      StorageConfig
	JWT          JWTConfig
	LLM          LLMConfig
	Deliberation DeliberationConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port            string   `envconfig:"PORT" default:"8080"`
	Host            string   `envconfig:"HOST" default:"0.0.0.0"`
	Environment     string   `envconfig:"ENVIRONMENT" default:"development"`
	AllowedOrigins  []string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:3000"`
	ShutdownTimeout int      `envconfig:"SHUTDOWN_TIMEOUT" default:"10"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host        string `envconfig:"DB_HOST" default:"localhost"`
	Port        string `envconfig:"DB_PORT" default:"5432"`
	User        string `envconfig:"DB_USER" default:"postgres"`
	Password    string `envconfig:"DB_PASSWORD" default:"postgres"`
	Name        string `envconfig:"DB_NAME" default:"boardroom"`
	SSLMode     string `envconfig:"DB_SSLMODE" default:"disable"`
	MaxConns    int    `envconfig:"DB_MAX_CONNS" default:"25"`
	MinConns    int    `envconfig:"DB_MIN_CONNS" default:"5"`
	AutoMigrate bool   `envconfig:"DB_AUTO_MIGRATE" default:"false"`
}

// RedisConfig holds Redis configuration. An empty host selects the
// in-process meeting lock instead of Redis.
type RedisConfig struct {
	Host     string        `envconfig:"REDIS_HOST" default:"localhost"`
	Port     string        `envconfig:"REDIS_PORT" default:"6379"`
	Password string        `envconfig:"REDIS_PASSWORD"`
	DB       int           `envconfig:"REDIS_DB" default:"0"`
	LockTTL  time.Duration `envconfig:"MEETING_LOCK_TTL" default:"60s"`
}

// StorageConfig holds attachment storage configuration
type StorageConfig struct {
	Enabled         bool   `envconfig:"STORAGE_ENABLED" default:"true"`
	Endpoint        string `envconfig:"STORAGE_ENDPOINT" default:"localhost:9000"`
	AccessKeyID     string `envconfig:"STORAGE_ACCESS_KEY" default:"minioadmin"`
	SecretAccessKey string `envconfig:"STORAGE_SECRET_KEY" default:"minioadmin"`
	BucketName      string `envconfig:"STORAGE_BUCKET" default:"boardroom-attachments"`
	UseSSL          bool   `envconfig:"STORAGE_USE_SSL" default:"false"`
	PublicURL       string `envconfig:"STORAGE_PUBLIC_URL"`
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	AccessSecret string        `envconfig:"JWT_ACCESS_SECRET" default:"your-access-secret-change-in-production"`
	AccessExpiry time.Duration `envconfig:"JWT_ACCESS_EXPIRY" default:"15m"`
}

// LLMConfig holds reasoning provider configuration
type LLMConfig struct {
	APIKey         string        `envconfig:"OPENAI_API_KEY"`
	BaseURL        string        `envconfig:"OPENAI_BASE_URL"`
	RequestTimeout time.Duration `envconfig:"LLM_REQUEST_TIMEOUT" default:"90s"`
	Temperature    float64       `envconfig:"LLM_TEMPERATURE" default:"0.7"`
}

// DeliberationConfig holds the operator-tunable parameters of a board meeting
type DeliberationConfig struct {
	AgentMaxTokens    int           `envconfig:"AGENT_MAX_TOKENS" default:"1500"`
	ChairMaxTokens    int           `envconfig:"CHAIR_MAX_TOKENS" default:"3000"`
	FanOutTimeout     time.Duration `envconfig:"FANOUT_TIMEOUT" default:"120s"`
	ReplayFollowUps   bool          `envconfig:"REPLAY_FOLLOW_UPS" default:"true"`
	DocumentCharLimit int           `envconfig:"DOCUMENT_CHAR_LIMIT" default:"2000"`

	ChairName   string `envconfig:"CHAIR_NAME" default:"Board Chair"`
	ChairModel  string `envconfig:"CHAIR_MODEL" default:"gpt-4o-mini"`
	ChairColor  string `envconfig:"CHAIR_COLOR" default:"#f59e0b"`
	ChairPrompt string `envconfig:"CHAIR_PROMPT"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables or defaults")
	}

	var config Config
	sections := []struct {
		name   string
		target interface{}
	}{
		{"server", &config.Server},
		{"database", &config.Database},
		{"redis", &config.Redis},
		{"storage", &config.Storage},
		{"jwt", &config.JWT},
		{"llm", &config.LLM},
		{"deliberation", &config.Deliberation},
	}
	for _, s := range sections {
		if err := envconfig.Process("", s.target); err != nil {
			return nil, fmt.Errorf("failed to load %s config: %w", s.name, err)
		}
	}

	if strings.TrimSpace(config.Deliberation.ChairPrompt) == "" {
		config.Deliberation.ChairPrompt = DefaultChairPrompt
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.LLM.APIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required")
	}
	if c.LLM.RequestTimeout <= 0 {
		return fmt.Errorf("LLM_REQUEST_TIMEOUT must be positive")
	}
	return c.Deliberation.Validate()
}

// Validate rejects out-of-range deliberation parameters
func (d DeliberationConfig) Validate() error {
	if d.AgentMaxTokens < MinCompletionTokens || d.AgentMaxTokens > MaxCompletionTokens {
		return fmt.Errorf("AGENT_MAX_TOKENS must be between %d and %d, got %d", MinCompletionTokens, MaxCompletionTokens, d.AgentMaxTokens)
	}
	if d.ChairMaxTokens < MinCompletionTokens || d.ChairMaxTokens > MaxCompletionTokens {
		return fmt.Errorf("CHAIR_MAX_TOKENS must be between %d and %d, got %d", MinCompletionTokens, MaxCompletionTokens, d.ChairMaxTokens)
	}
	if d.FanOutTimeout <= 0 {
		return fmt.Errorf("FANOUT_TIMEOUT must be positive")
	}
	if d.DocumentCharLimit <= 0 {
		return fmt.Errorf("DOCUMENT_CHAR_LIMIT must be positive")
	}
	return nil
}

// GetDatabaseDSN returns the database connection string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// GetRedisAddr returns the Redis address
func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}

// IsProduction reports whether the server runs in production mode
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Server.Environment, "production")
}

// DefaultChairPrompt is used when no chair record exists and CHAIR_PROMPT is unset
const DefaultChairPrompt = `You are the Chair of the Board of Directors. Your role is to synthesize the opinions of all board members and provide a unified recommendation.

You must:
1. Consider all perspectives presented by board members
2. Weigh opinions based on their confidence levels and relevance to their expertise
3. Identify areas of consensus and disagreement
4. Formulate a clear, actionable recommendation

Be balanced, fair, and decisive. Your recommendation should be practical and actionable.`
