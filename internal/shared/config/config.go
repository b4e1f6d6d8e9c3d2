package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/afero"
)

// Config holds application configuration.
type Config struct {
	Port               string
	CORSAllowOrigin    []string
	ObjectStoreType    string
	LocalStoreDir      string
	PublicBaseURL      string
	AudioURLSecret     string
	AWSRegion          string
	S3Bucket           string
	S3Prefix           string
	SSEKMSKeyID        string
	DatabaseURL        string
	Env                string
	QueueURL           string
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
	UIRedirectURL      string
	AI                 AIConfig
	Retention          RetentionConfig
}

// AIConfig selects the speech and chat providers and their sampling parameters.
type AIConfig struct {
	Provider           string  `yaml:"provider"`
	APIKey             string  `yaml:"-"`
	GeminiAPIKey       string  `yaml:"-"`
	BaseURL            string  `yaml:"base_url"`
	ChatModel          string  `yaml:"chat_model"`
	SpeechModel        string  `yaml:"speech_model"`
	Language           string  `yaml:"language"`
	ResponseFormat     string  `yaml:"response_format"`
	TimeoutSeconds     int     `yaml:"timeout_seconds"`
	SummaryTemperature float32 `yaml:"summary_temperature"`
	SummaryMaxTokens   int     `yaml:"summary_max_tokens"`
	TitleTemperature   float32 `yaml:"title_temperature"`
	TitleMaxTokens     int     `yaml:"title_max_tokens"`
	TitleInputBudget   int     `yaml:"title_input_budget"`
	TitleFallback      string  `yaml:"title_fallback"`
	QATemperature      float32 `yaml:"qa_temperature"`
	QAMaxTokens        int     `yaml:"qa_max_tokens"`
}

// RetentionConfig controls audio cleanup.
type RetentionConfig struct {
	MaxAge       time.Duration `yaml:"max_age"`
	Interval     time.Duration `yaml:"interval"`
	SignedURLTTL time.Duration `yaml:"signed_url_ttl"`
}

const (
	defaultRetentionDays = 20
	defaultSignedURLTTL  = 365 * 24 * time.Hour
)

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(afero.NewOsFs(), ".env", "cmd/.env")

	env := normalizeEnv(getEnv("ENV", "dev"))
	dbURL := os.Getenv("DATABASE_URL")

	if env == "production" && dbURL == "" {
		log.Printf("DATABASE_URL is required in production")
	}

	cfg := Config{
		Port:               getEnv("PORT", "8080"),
		CORSAllowOrigin:    splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:5173")),
		ObjectStoreType:    normalizeStoreType(getEnv("OBJECT_STORE", "local")),
		LocalStoreDir:      getEnv("LOCAL_STORE_DIR", "./data"),
		PublicBaseURL:      strings.TrimRight(getEnv("PUBLIC_BASE_URL", "http://localhost:8080"), "/"),
		AudioURLSecret:     getEnv("AUDIO_URL_SECRET", getEnv("JWT_SECRET", "dev-secret")),
		AWSRegion:          getEnv("AWS_REGION", ""),
		S3Bucket:           getEnv("S3_BUCKET", ""),
		S3Prefix:           getEnv("S3_PREFIX", ""),
		SSEKMSKeyID:        getEnv("SSE_KMS_KEY_ID", ""),
		DatabaseURL:        dbURL,
		Env:                env,
		QueueURL:           getEnv("NOTES_SQS_QUEUE_URL", ""),
		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURL:  getEnv("GOOGLE_REDIRECT_URL", ""),
		UIRedirectURL:      getEnv("UI_REDIRECT_URL", ""),
		AI:                 DefaultAI(),
		Retention: RetentionConfig{
			MaxAge:       time.Duration(getEnvInt("RETENTION_DAYS", defaultRetentionDays)) * 24 * time.Hour,
			Interval:     getEnvDuration("RETENTION_INTERVAL", time.Hour),
			SignedURLTTL: getEnvDuration("SIGNED_URL_TTL", defaultSignedURLTTL),
		},
	}

	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		if err := applyFile(afero.NewOsFs(), &cfg, path); err != nil {
			log.Printf("config file %s ignored: %v", path, err)
		}
	}

	cfg.AI.Provider = normalizeProvider(getEnv("LLM_PROVIDER", cfg.AI.Provider))
	cfg.AI.APIKey = getEnv("LLM_API_KEY", os.Getenv("GROQ_API_KEY"))
	cfg.AI.GeminiAPIKey = getEnv("GEMINI_API_KEY", "")
	cfg.AI.BaseURL = getEnv("LLM_BASE_URL", cfg.AI.BaseURL)
	cfg.AI.ChatModel = getEnv("CHAT_MODEL", cfg.AI.ChatModel)
	cfg.AI.SpeechModel = getEnv("SPEECH_MODEL", cfg.AI.SpeechModel)
	cfg.AI.Language = getEnv("TRANSCRIPT_LANGUAGE", cfg.AI.Language)
	cfg.AI.TimeoutSeconds = getEnvInt("LLM_TIMEOUT_SECONDS", cfg.AI.TimeoutSeconds)

	return cfg
}

// DefaultAI returns the Groq-hosted Whisper and Llama settings.
func DefaultAI() AIConfig {
	return AIConfig{
		Provider:           "groq",
		BaseURL:            "https://api.groq.com/openai/v1",
		ChatModel:          "llama-3.3-70b-versatile",
		SpeechModel:        "whisper-large-v3",
		Language:           "en",
		ResponseFormat:     "json",
		SummaryTemperature: 0.7,
		SummaryMaxTokens:   2000,
		TitleTemperature:   0.7,
		TitleMaxTokens:     50,
		TitleInputBudget:   1000,
		TitleFallback:      "Meeting Recording",
		QATemperature:      0.3,
		QAMaxTokens:        500,
	}
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.Atoi(raw)
	if err != nil || val < 0 {
		log.Printf("config env %s invalid int: %q", key, raw)
		return def
	}
	return val
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := time.ParseDuration(raw)
	if err != nil || val <= 0 {
		log.Printf("config env %s invalid duration: %q", key, raw)
		return def
	}
	return val
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
	case "gemini", "google":
		return "gemini"
	case "openai":
		return "openai"
	default:
		return "groq"
	}
}
