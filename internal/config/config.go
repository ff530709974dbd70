package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// OAuthApp holds the registered application credentials and endpoints for
// one provider. Endpoint fields are overridable for testing.
type OAuthApp struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	Scopes       []string
	AuthURL      string
	TokenURL     string
	ExchangeURL  string
	RefreshURL   string
}

// Config contains runtime configuration values.
type Config struct {
	Environment          string
	HTTPPort             string
	ServiceName          string
	DatabaseURL          string
	TokenCipherKey       string
	SessionJWTSecret     string
	InternalAPIToken     string
	Facebook             OAuthApp
	Instagram            OAuthApp
	Threads              OAuthApp
	RedisAddr            string
	RedisPassword        string
	RedisDB              int
	SweepInterval        time.Duration
	SweepWindow          time.Duration
	SweepConcurrency     int
	ProviderRateRPS      int
	TelemetryEndpoint    string
	TelemetryInsecure    bool
	CORSAllowedOrigins   []string
	CORSAllowedMethods   []string
	CORSAllowedHeaders   []string
	CORSAllowCredentials bool
}

var (
	facebookDefaults = OAuthApp{
		Scopes:   []string{"pages_show_list", "pages_read_engagement", "pages_manage_posts"},
		AuthURL:  "https://www.facebook.com/v21.0/dialog/oauth",
		TokenURL: "https://graph.facebook.com/v21.0/oauth/access_token",
	}
	instagramDefaults = OAuthApp{
		Scopes:      []string{"instagram_business_basic", "instagram_business_content_publish"},
		AuthURL:     "https://api.instagram.com/oauth/authorize",
		TokenURL:    "https://api.instagram.com/oauth/access_token",
		ExchangeURL: "https://graph.instagram.com/access_token",
		RefreshURL:  "https://graph.instagram.com/refresh_access_token",
	}
	threadsDefaults = OAuthApp{
		Scopes:   []string{"threads_basic", "threads_content_publish"},
		AuthURL:  "https://threads.net/oauth/authorize",
		TokenURL: "https://graph.threads.net/oauth/access_token",
	}
)

// Load reads configuration from environment variables with sane defaults.
// Missing provider credentials fail here so a misconfigured deployment never
// starts serving.
func Load() (Config, error) {
	_ = godotenv.Load()

	facebook, err := loadOAuthApp("FACEBOOK", facebookDefaults)
	if err != nil {
		return Config{}, err
	}
	instagram, err := loadOAuthApp("INSTAGRAM", instagramDefaults)
	if err != nil {
		return Config{}, err
	}
	threads, err := loadOAuthApp("THREADS", threadsDefaults)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Environment:          getEnv("APP_ENV", "development"),
		HTTPPort:             getEnv("HTTP_PORT", "8080"),
		ServiceName:          getEnv("SERVICE_NAME", "onesns-connect"),
		DatabaseURL:          os.Getenv("DATABASE_URL"),
		TokenCipherKey:       strings.TrimSpace(os.Getenv("TOKEN_CIPHER_KEY")),
		SessionJWTSecret:     strings.TrimSpace(os.Getenv("SESSION_JWT_SECRET")),
		InternalAPIToken:     strings.TrimSpace(os.Getenv("INTERNAL_API_TOKEN")),
		Facebook:             facebook,
		Instagram:            instagram,
		Threads:              threads,
		RedisAddr:            strings.TrimSpace(os.Getenv("REDIS_ADDR")),
		RedisPassword:        os.Getenv("REDIS_PASSWORD"),
		RedisDB:              getInt("REDIS_DB", 0),
		SweepInterval:        getDuration("SWEEP_INTERVAL", 0),
		SweepWindow:          getDuration("SWEEP_WINDOW", 7*24*time.Hour),
		SweepConcurrency:     getInt("SWEEP_CONCURRENCY", 4),
		ProviderRateRPS:      getInt("PROVIDER_RATE_LIMIT_RPS", 10),
		TelemetryEndpoint:    os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		TelemetryInsecure:    getBool("OTEL_EXPORTER_OTLP_INSECURE", true),
		CORSAllowedOrigins:   getList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		CORSAllowedMethods:   getList("CORS_ALLOWED_METHODS", []string{"GET", "POST", "OPTIONS"}),
		CORSAllowedHeaders:   getList("CORS_ALLOWED_HEADERS", []string{"Authorization", "Content-Type"}),
		CORSAllowCredentials: getBool("CORS_ALLOW_CREDENTIALS", false),
	}

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.TokenCipherKey == "" {
		return Config{}, fmt.Errorf("TOKEN_CIPHER_KEY is required")
	}
	if cfg.SessionJWTSecret == "" {
		return Config{}, fmt.Errorf("SESSION_JWT_SECRET is required")
	}
	if cfg.InternalAPIToken == "" {
		return Config{}, fmt.Errorf("INTERNAL_API_TOKEN is required")
	}

	if cfg.SweepConcurrency < 1 {
		cfg.SweepConcurrency = 1
	}
	if cfg.ProviderRateRPS < 1 {
		cfg.ProviderRateRPS = 1
	}

	return cfg, nil
}

func loadOAuthApp(prefix string, def OAuthApp) (OAuthApp, error) {
	app := OAuthApp{
		ClientID:     strings.TrimSpace(os.Getenv(prefix + "_CLIENT_ID")),
		ClientSecret: strings.TrimSpace(os.Getenv(prefix + "_CLIENT_SECRET")),
		RedirectURI:  strings.TrimSpace(os.Getenv(prefix + "_REDIRECT_URI")),
		Scopes:       getList(prefix+"_SCOPES", def.Scopes),
		AuthURL:      getEnv(prefix+"_AUTH_URL", def.AuthURL),
		TokenURL:     getEnv(prefix+"_TOKEN_URL", def.TokenURL),
		ExchangeURL:  getEnv(prefix+"_EXCHANGE_URL", def.ExchangeURL),
		RefreshURL:   getEnv(prefix+"_REFRESH_URL", def.RefreshURL),
	}
	if app.ClientID == "" {
		return OAuthApp{}, fmt.Errorf("%s_CLIENT_ID is required", prefix)
	}
	if app.ClientSecret == "" {
		return OAuthApp{}, fmt.Errorf("%s_CLIENT_SECRET is required", prefix)
	}
	if app.RedirectURI == "" {
		return OAuthApp{}, fmt.Errorf("%s_REDIRECT_URI is required", prefix)
	}
	return app, nil
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok {
		d, err := time.ParseDuration(v)
		if err == nil {
			return d
		}
	}
	return def
}

func getInt(key string, def int) int {
	if v, ok := os.LookupEnv(key); ok {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getBool(key string, def bool) bool {
	if v, ok := os.LookupEnv(key); ok {
		switch strings.ToLower(v) {
		case "1", "true", "t", "yes", "y", "on":
			return true
		case "0", "false", "f", "no", "n", "off":
			return false
		}
	}
	return def
}

func getList(key string, def []string) []string {
	if v, ok := os.LookupEnv(key); ok {
		parts := strings.Split(v, ",")
		var cleaned []string
		for _, p := range parts {
			trimmed := strings.TrimSpace(p)
			if trimmed != "" {
				cleaned = append(cleaned, trimmed)
			}
		}
		if len(cleaned) > 0 {
			return cleaned
		}
	}
	return def
}
