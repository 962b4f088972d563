package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"

	"mission-backend/internal/shared/telemetry"
)

// Config holds application configuration.
type Config struct {
	Port            string
	CORSAllowOrigin []string
	Env             string
	LogLevel        string

	ObjectStoreType string
	LocalStoreDir   string
	AWSRegion       string
	S3Bucket        string
	S3Prefix        string
	SSEKMSKeyID     string
	QueueURL        string

	WorkerConcurrency     int
	SQSVisibilityTimeout  time.Duration
	WorkerShutdownTimeout time.Duration

	LLMProvider      string
	LLMModel         string
	OpenAIAPIKey     string
	AnthropicAPIKey  string
	AdvisoryTimeout  time.Duration
	AdvisoryCacheTTL time.Duration
	AdvisoryLimit    int
	AnalysisVersion  string

	DatabaseURL string
	RedisURL    string
	HistoryTTL  time.Duration

	TracingEnabled bool

	JWTSecret          string
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
	UIRedirectURL      string
}

var defaults = map[string]any{
	"PORT":                       "8080",
	"ENV":                        "dev",
	"LOG_LEVEL":                  "info",
	"CORS_ALLOW_ORIGINS":         "http://localhost:3000",
	"OBJECT_STORE":               "local",
	"LOCAL_STORE_DIR":            "./data",
	"LLM_PROVIDER":               "openai",
	"LLM_MODEL":                  "gpt-4-turbo-preview",
	"ADVISORY_TIMEOUT_SECONDS":   30,
	"ADVISORY_CACHE_TTL_SECONDS": 86400,
	"ADVISORY_WEEKLY_LIMIT":      10,
	"ANALYSIS_VERSION":           "rules:v1",
	"HISTORY_TTL_SECONDS":        604800,
	"TRACING_ENABLED":            false,
	"WORKER_CONCURRENCY":         4,
	"SQS_VISIBILITY_SECONDS":     300,
	"WORKER_SHUTDOWN_SECONDS":    30,
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")
	return FromViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	return v
}

// FromViper builds a Config from an already populated viper instance.
func FromViper(v *viper.Viper) Config {
	env := normalizeEnv(v.GetString("ENV"))
	dbURL := strings.TrimSpace(v.GetString("DATABASE_URL"))
	if env == "production" && dbURL == "" {
		telemetry.Warn("config.missing", map[string]any{"key": "DATABASE_URL", "env": env})
	}

	return Config{
		Port:                  v.GetString("PORT"),
		CORSAllowOrigin:       splitAndTrim(v.GetString("CORS_ALLOW_ORIGINS")),
		Env:                   env,
		LogLevel:              strings.ToLower(v.GetString("LOG_LEVEL")),
		ObjectStoreType:       normalizeStoreType(v.GetString("OBJECT_STORE")),
		LocalStoreDir:         v.GetString("LOCAL_STORE_DIR"),
		AWSRegion:             v.GetString("AWS_REGION"),
		S3Bucket:              v.GetString("S3_BUCKET"),
		S3Prefix:              v.GetString("S3_PREFIX"),
		SSEKMSKeyID:           v.GetString("SSE_KMS_KEY_ID"),
		QueueURL:              strings.TrimSpace(v.GetString("MS_SQS_QUEUE_URL")),
		WorkerConcurrency:     positive(v.GetInt("WORKER_CONCURRENCY"), 4),
		SQSVisibilityTimeout:  seconds(v.GetInt("SQS_VISIBILITY_SECONDS"), 300),
		WorkerShutdownTimeout: seconds(v.GetInt("WORKER_SHUTDOWN_SECONDS"), 30),
		LLMProvider:           normalizeProvider(v.GetString("LLM_PROVIDER")),
		LLMModel:              strings.TrimSpace(v.GetString("LLM_MODEL")),
		OpenAIAPIKey:          strings.TrimSpace(v.GetString("OPENAI_API_KEY")),
		AnthropicAPIKey:       strings.TrimSpace(v.GetString("ANTHROPIC_API_KEY")),
		AdvisoryTimeout:       seconds(v.GetInt("ADVISORY_TIMEOUT_SECONDS"), 30),
		AdvisoryCacheTTL:      seconds(v.GetInt("ADVISORY_CACHE_TTL_SECONDS"), 86400),
		AdvisoryLimit:         v.GetInt("ADVISORY_WEEKLY_LIMIT"),
		AnalysisVersion:       v.GetString("ANALYSIS_VERSION"),
		DatabaseURL:           dbURL,
		RedisURL:              strings.TrimSpace(v.GetString("REDIS_URL")),
		HistoryTTL:            seconds(v.GetInt("HISTORY_TTL_SECONDS"), 604800),
		TracingEnabled:        v.GetBool("TRACING_ENABLED"),
		JWTSecret:             strings.TrimSpace(v.GetString("JWT_SECRET")),
		GoogleClientID:        v.GetString("GOOGLE_CLIENT_ID"),
		GoogleClientSecret:    v.GetString("GOOGLE_CLIENT_SECRET"),
		GoogleRedirectURL:     v.GetString("GOOGLE_REDIRECT_URL"),
		UIRedirectURL:         v.GetString("UI_REDIRECT_URL"),
	}
}

func positive(n, def int) int {
	if n <= 0 {
		return def
	}
	return n
}

func seconds(n, def int) time.Duration {
	if n <= 0 {
		n = def
	}
	return time.Duration(n) * time.Second
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	case "development", "dev":
		return "dev"
	default:
		return "dev"
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	default:
		return "local"
	}
}

func normalizeProvider(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "openai":
		return "openai"
	case "anthropic", "claude":
		return "anthropic"
	default:
		return "none"
	}
}

// IsDevLike reports whether env allows in-memory fallbacks.
func (c Config) IsDevLike() bool {
	return c.Env == "dev" || c.Env == "local"
}
