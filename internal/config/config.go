package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	DBUrl       string
	JWTSecret   string
	TokenTTL    time.Duration
	AppEnv      string
	EnableDocs  bool
	AppBaseURL  string
	LogLevel    string
	ShutdownTTL time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	SupabaseURL           string
	SupabaseServiceKey    string
	SupabasePostsBucket   string
	SupabaseAvatarsBucket string

	ResendAPIKey string
	MailFrom     string

	OAuthRedirectURL     string
	OAuthCallbackBaseURL string
	KakaoClientID        string
	KakaoClientSecret    string
	GoogleClientID       string
	GoogleClientSecret   string

	AIFunctionURL string
	OpenAIAPIKey  string
	OpenAIModel   string

	LoginMaxAttempts int
	LoginLockout     time.Duration

	DefaultAdminEmail    string
	DefaultAdminPassword string
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	jwtSecret, exists := os.LookupEnv("JWT_SECRET")
	if !exists || jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	appBaseURL := strings.TrimRight(getEnv("APP_BASE_URL", "http://localhost:5173"), "/")

	return &Config{
		Port:        getEnv("PORT", "8080"),
		DBUrl:       getEnv("DB_URL", ""),
		JWTSecret:   jwtSecret,
		TokenTTL:    getEnvDuration("TOKEN_TTL", 24*time.Hour),
		AppEnv:      normalizeEnv(getEnv("APP_ENV", "production")),
		EnableDocs:  getEnvBool("ENABLE_API_DOCS", false),
		AppBaseURL:  appBaseURL,
		LogLevel:    strings.ToLower(getEnv("LOG_LEVEL", "info")),
		ShutdownTTL: getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		SupabaseURL:           getEnv("SUPABASE_URL", ""),
		SupabaseServiceKey:    getEnv("SUPABASE_SERVICE_KEY", ""),
		SupabasePostsBucket:   getEnv("SUPABASE_POSTS_BUCKET", "climbing"),
		SupabaseAvatarsBucket: getEnv("SUPABASE_AVATARS_BUCKET", "avatars"),

		ResendAPIKey: getEnv("RESEND_API_KEY", ""),
		MailFrom:     getEnv("MAIL_FROM", "DoClimb <no-reply@doclimb.app>"),

		OAuthRedirectURL:     getEnv("OAUTH_REDIRECT_URL", appBaseURL+"/home"),
		OAuthCallbackBaseURL: strings.TrimRight(getEnv("OAUTH_CALLBACK_BASE_URL", "http://localhost:8080"), "/"),
		KakaoClientID:        getEnv("KAKAO_CLIENT_ID", ""),
		KakaoClientSecret:    getEnv("KAKAO_CLIENT_SECRET", ""),
		GoogleClientID:       getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret:   getEnv("GOOGLE_CLIENT_SECRET", ""),

		AIFunctionURL: getEnv("AI_FUNCTION_URL", ""),
		OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:   getEnv("OPENAI_MODEL", "gpt-4o-mini"),

		LoginMaxAttempts: getEnvInt("LOGIN_MAX_ATTEMPTS", 5),
		LoginLockout:     getEnvDuration("LOGIN_LOCKOUT", 15*time.Minute),

		DefaultAdminEmail:    getEnv("DEFAULT_ADMIN_EMAIL", ""),
		DefaultAdminPassword: getEnv("DEFAULT_ADMIN_PASSWORD", ""),
	}, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return fallback
	}

	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func getEnvInt(key string, fallback int) int {
	value, exists := os.LookupEnv(key)
	if !exists || strings.TrimSpace(value) == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, exists := os.LookupEnv(key)
	if !exists || strings.TrimSpace(value) == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func normalizeEnv(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "dev", "develop", "development", "local":
		return "development"
	case "prod", "production":
		return "production"
	case "stage", "staging":
		return "staging"
	case "test", "testing":
		return "test"
	default:
		return strings.ToLower(strings.TrimSpace(value))
	}
}

func (c *Config) DocsEnabled() bool {
	return c != nil && c.EnableDocs && c.AppEnv == "development"
}

func (c *Config) StorageEnabled() bool {
	return c != nil && c.SupabaseURL != "" && c.SupabaseServiceKey != ""
}

func (c *Config) MailEnabled() bool {
	return c != nil && c.ResendAPIKey != ""
}

// OAuthProviders lists the providers whose client credentials are present.
func (c *Config) OAuthProviders() []string {
	if c == nil {
		return nil
	}
	providers := make([]string, 0, 2)
	if c.KakaoClientID != "" {
		providers = append(providers, "kakao")
	}
	if c.GoogleClientID != "" && c.GoogleClientSecret != "" {
		providers = append(providers, "google")
	}
	return providers
}
