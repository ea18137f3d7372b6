package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config 进程级配置，启动时从环境变量读取一次
type Config struct {
	Port          string
	DatabaseURL   string
	SessionSecret string
	GinMode       string
	LogLevel      string
	Env           string

	AI AIConfig

	AnonTokenTTL        time.Duration
	AdminEmails         []string
	EnrichmentQueueSize int
}

// AIConfig selects and configures the language model provider.
type AIConfig struct {
	Provider        string // "chat" or "genai"
	BaseURL         string
	APIKey          string
	ModerationModel string
	ExtractionModel string
	PreMortemModel  string
	Timeout         time.Duration

	GenAIKey   string
	GenAIModel string
}

// Load 读取 .env（可选）以及进程环境变量
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading config from environment")
	}

	return &Config{
		Port:          getenv("PORT", "8080"),
		DatabaseURL:   getenv("DATABASE_URL", "host=localhost user=postgres password=postgres dbname=failarchive port=5432 sslmode=disable"),
		SessionSecret: getenv("SESSION_SECRET", "secret_key_change_me"),
		GinMode:       getenv("GIN_MODE", "debug"),
		LogLevel:      getenv("LOG_LEVEL", "info"),
		Env:           getenv("APP_ENV", "development"),
		AI: AIConfig{
			Provider:        getenv("AI_PROVIDER", "chat"),
			BaseURL:         getenv("AI_API_URL", "https://api.perplexity.ai"),
			APIKey:          os.Getenv("AI_API_KEY"),
			ModerationModel: getenv("AI_MODERATION_MODEL", "sonar"),
			ExtractionModel: getenv("AI_EXTRACTION_MODEL", "sonar-pro"),
			PreMortemModel:  getenv("AI_PREMORTEM_MODEL", "sonar-reasoning-pro"),
			Timeout:         getDuration("AI_TIMEOUT", 20*time.Second),
			GenAIKey:        os.Getenv("GENAI_API_KEY"),
			GenAIModel:      getenv("GENAI_MODEL", "gemini-2.5-flash"),
		},
		AnonTokenTTL:        getDuration("ANON_TOKEN_TTL", 24*time.Hour),
		AdminEmails:         splitList(os.Getenv("ADMIN_EMAILS")),
		EnrichmentQueueSize: getInt("ENRICHMENT_QUEUE_SIZE", 256),
	}
}

// IsProduction reports whether APP_ENV is production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		log.Printf("Invalid %s=%q, using %d", key, v, fallback)
		return fallback
	}
	return n
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		log.Printf("Invalid %s=%q, using %s", key, v, fallback)
		return fallback
	}
	return d
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
