package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port     string
	Env      string
	LogLevel string

	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	// WhatsApp Business Cloud API
	WhatsAppVerifyToken   string
	WhatsAppAppSecret     string
	WhatsAppAllowUnsigned bool
	WhatsAppAccessToken   string
	WhatsAppPhoneNumberID string
	GraphAPIVersion       string
	GraphBaseURL          string

	// Outbound send retry policy
	SendMaxAttempts int
	SendBaseDelay   time.Duration

	// Gemini answer provider
	GeminiAPIKey  string
	GeminiModelID string

	AdminJWTSecret string

	// Idempotency ledger retention
	LedgerRetentionDays int

	// Background processing
	WorkerCount int
	QueueBuffer int

	// Per-IP request rate on the public webhook route; 0 disables it.
	WebhookRPS int

	// Quotas
	TextRateLimit       int
	TextRateWindow      time.Duration
	AttachmentDailyCap  int
	MediaMaxImageBytes  int64
	MediaMaxPDFBytes    int64
	ExtractMaxPDFPages  int
	CORSAllowedOrigins  []string
	AnswerMaxTokens     int
	AnswerMaxReplyChars int
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DatabaseURL:   getEnv("DATABASE_URL", ""),
		RedisAddr:     getEnv("REDIS_ADDR", "redis:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		WhatsAppVerifyToken:   getEnv("WHATSAPP_VERIFY_TOKEN", ""),
		WhatsAppAppSecret:     getEnv("WHATSAPP_APP_SECRET", ""),
		WhatsAppAllowUnsigned: getEnvAsBool("WHATSAPP_ALLOW_UNSIGNED", false),
		WhatsAppAccessToken:   getEnv("WHATSAPP_ACCESS_TOKEN", ""),
		WhatsAppPhoneNumberID: getEnv("WHATSAPP_PHONE_NUMBER_ID", ""),
		GraphAPIVersion:       getEnv("GRAPH_API_VERSION", "v21.0"),
		GraphBaseURL:          getEnv("GRAPH_BASE_URL", "https://graph.facebook.com"),

		SendMaxAttempts: getEnvAsInt("SEND_MAX_ATTEMPTS", 3),
		SendBaseDelay:   getEnvAsDuration("SEND_BASE_DELAY", 1*time.Second),

		GeminiAPIKey:  getEnv("GEMINI_API_KEY", ""),
		GeminiModelID: getEnv("GEMINI_MODEL_ID", "gemini-2.5-flash"),

		AdminJWTSecret: getEnv("ADMIN_JWT_SECRET", ""),

		LedgerRetentionDays: getEnvAsInt("LEDGER_RETENTION_DAYS", 30),

		WorkerCount: getEnvAsInt("WORKER_COUNT", 4),
		QueueBuffer: getEnvAsInt("QUEUE_BUFFER", 256),

		WebhookRPS: getEnvAsInt("WEBHOOK_RPS", 20),

		TextRateLimit:       getEnvAsInt("TEXT_RATE_LIMIT", 10),
		TextRateWindow:      getEnvAsDuration("TEXT_RATE_WINDOW", 5*time.Minute),
		AttachmentDailyCap:  getEnvAsInt("ATTACHMENT_DAILY_CAP", 5),
		MediaMaxImageBytes:  getEnvAsInt64("MEDIA_MAX_IMAGE_BYTES", 10*1024*1024),
		MediaMaxPDFBytes:    getEnvAsInt64("MEDIA_MAX_PDF_BYTES", 20*1024*1024),
		ExtractMaxPDFPages:  getEnvAsInt("EXTRACT_MAX_PDF_PAGES", 10),
		CORSAllowedOrigins:  getEnvAsList("CORS_ALLOWED_ORIGINS"),
		AnswerMaxTokens:     getEnvAsInt("ANSWER_MAX_TOKENS", 1000),
		AnswerMaxReplyChars: getEnvAsInt("ANSWER_MAX_REPLY_CHARS", 4096),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseInt(valueStr, 10, 64); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsDuration retrieves an environment variable as a duration or returns a default value
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsList splits a comma-separated environment variable into trimmed values.
func getEnvAsList(key string) []string {
	raw := getEnv(key, "")
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			values = append(values, p)
		}
	}
	return values
}
