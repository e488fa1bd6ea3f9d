package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Port           int           `env:"PORT" envDefault:"8787"`
	DatabaseURL    string        `env:"DATABASE_URL" envDefault:"./data/history.db"`
	AllowedOrigins []string      `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"60s"`
	LogFile        string        `env:"LOG_FILE"`
	ToolsFile      string        `env:"TOOLS_FILE"`

	// Workers AI is the default provider for every tool in the built-in catalog.
	CloudflareAccountID string `env:"CLOUDFLARE_ACCOUNT_ID"`
	CloudflareAPIToken  string `env:"CLOUDFLARE_API_TOKEN"`
	WorkersAIBaseURL    string `env:"WORKERS_AI_BASE_URL" envDefault:"https://api.cloudflare.com/client/v4"`

	OpenAIAPIKey       string `env:"OPENAI_API_KEY"`
	OpenAIBaseURL      string `env:"OPENAI_BASE_URL"`
	AnthropicAPIKey    string `env:"ANTHROPIC_API_KEY"`
	AnthropicBaseURL   string `env:"ANTHROPIC_BASE_URL"`
	AnthropicMaxTokens int64  `env:"ANTHROPIC_MAX_TOKENS" envDefault:"1024"`
	OllamaURL          string `env:"OLLAMA_URL"`

	// HistoryCache is "memory", "redis" or "none". When empty, redis is used
	// if REDIS_ADDR is set.
	HistoryCache    string        `env:"HISTORY_CACHE"`
	RedisAddr       string        `env:"REDIS_ADDR"`
	RedisPassword   string        `env:"REDIS_PASSWORD"`
	HistoryCacheTTL time.Duration `env:"HISTORY_CACHE_TTL" envDefault:"5m"`

	ImageArchiveDir    string `env:"IMAGE_ARCHIVE_DIR"`
	ImageArchiveBucket string `env:"IMAGE_ARCHIVE_BUCKET"`
	S3EndpointURL      string `env:"S3_ENDPOINT_URL"`
	S3AccessKeyID      string `env:"AWS_ACCESS_KEY_ID"`
	S3SecretAccessKey  string `env:"AWS_SECRET_ACCESS_KEY"`
	S3Region           string `env:"AWS_REGION" envDefault:"us-east-1"`
}

// LoadConfig reads the optional dotenv file at envFile (if non-empty) and then
// parses the process environment.
func LoadConfig(envFile string) (*Config, error) {
	if envFile != "" {
		log.Printf("loading env from file %s", envFile)
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("error loading env file '%s': %w", envFile, err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	if cfg.S3EndpointURL != "" && (cfg.S3AccessKeyID == "" || cfg.S3SecretAccessKey == "") {
		log.Println("Warning: S3_ENDPOINT_URL is set, but AWS_ACCESS_KEY_ID or AWS_SECRET_ACCESS_KEY are missing.")
	}

	return &cfg, nil
}

func (c *Config) WorkersAIConfigured() bool {
	return c.CloudflareAccountID != "" && c.CloudflareAPIToken != ""
}

func (c *Config) UsesPostgres() bool {
	return strings.HasPrefix(c.DatabaseURL, "postgres://") || strings.HasPrefix(c.DatabaseURL, "postgresql://")
}
