package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Default token lifetimes used when the configured TTL string does not match
// the accepted syntax.
const (
	DefaultAccessTokenTTL  = 15 * time.Minute
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour
)

// Config contains runtime configuration values.
type Config struct {
	Environment        string
	ServiceName        string
	HTTPPort           string
	DatabaseURL        string
	RedisAddr          string
	RedisPassword      string
	RedisDB            int
	AccessTokenSecret  string
	RefreshTokenSecret string
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
	TokenIssuer        string
	TokenAudience      string
	CookieDomain       string
	CookieSecure       bool
	AdminEmail         string
	AdminPassword      string
	RateLimitWindow    time.Duration
	RateLimitIPMax     int
	RateLimitUserMax   int
	RateLimitLoginMax  int
	ReadTimeout        time.Duration
	IdleTimeout        time.Duration
	TelemetryEndpoint  string
	TelemetryInsecure  bool
	CORSAllowedOrigins []string
}

// Load reads configuration from environment variables with sane defaults.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Environment:        getEnv("APP_ENV", "development"),
		ServiceName:        getEnv("SERVICE_NAME", "smart-finance"),
		HTTPPort:           getEnv("HTTP_PORT", "8080"),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		RedisAddr:          os.Getenv("REDIS_ADDR"),
		RedisPassword:      os.Getenv("REDIS_PASSWORD"),
		RedisDB:            getInt("REDIS_DB", 0),
		AccessTokenSecret:  strings.TrimSpace(os.Getenv("ACCESS_TOKEN_SECRET")),
		RefreshTokenSecret: strings.TrimSpace(os.Getenv("REFRESH_TOKEN_SECRET")),
		AccessTokenTTL:     getTTL("ACCESS_TOKEN_TTL", DefaultAccessTokenTTL),
		RefreshTokenTTL:    getTTL("REFRESH_TOKEN_TTL", DefaultRefreshTokenTTL),
		TokenIssuer:        getEnv("TOKEN_ISSUER", "smart-finance"),
		TokenAudience:      getEnv("TOKEN_AUDIENCE", "smart-finance-api"),
		CookieDomain:       os.Getenv("COOKIE_DOMAIN"),
		CookieSecure:       getBool("COOKIE_SECURE", true),
		AdminEmail:         strings.TrimSpace(os.Getenv("ADMIN_EMAIL")),
		AdminPassword:      os.Getenv("ADMIN_PASSWORD"),
		RateLimitWindow:    getDuration("RATE_LIMIT_WINDOW", time.Minute),
		RateLimitIPMax:     getInt("RATE_LIMIT_IP_MAX", 300),
		RateLimitUserMax:   getInt("RATE_LIMIT_USER_MAX", 120),
		RateLimitLoginMax:  getInt("RATE_LIMIT_LOGIN_MAX", 10),
		ReadTimeout:        getDuration("HTTP_READ_TIMEOUT", 30*time.Second),
		IdleTimeout:        getDuration("HTTP_IDLE_TIMEOUT", 120*time.Second),
		TelemetryEndpoint:  os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		TelemetryInsecure:  getBool("OTEL_EXPORTER_OTLP_INSECURE", true),
		CORSAllowedOrigins: getList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173"}),
	}

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.AccessTokenSecret == "" {
		return Config{}, fmt.Errorf("ACCESS_TOKEN_SECRET is required")
	}
	if cfg.RefreshTokenSecret == "" {
		return Config{}, fmt.Errorf("REFRESH_TOKEN_SECRET is required")
	}
	if cfg.AccessTokenSecret == cfg.RefreshTokenSecret {
		return Config{}, fmt.Errorf("access and refresh token secrets must differ")
	}

	return cfg, nil
}

var ttlPattern = regexp.MustCompile(`^(\d+)(s|m|h|d)$`)

// ParseTTL parses token lifetimes written as "15m", "12h" or "7d". A value
// that does not match the accepted syntax returns the fallback instead of an
// error, so a typo in deployment config degrades to the default rather than
// refusing to start.
func ParseTTL(value string, fallback time.Duration) time.Duration {
	m := ttlPattern.FindStringSubmatch(strings.TrimSpace(value))
	if m == nil {
		return fallback
	}
	n, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil || n <= 0 {
		return fallback
	}
	switch m[2] {
	case "s":
		return time.Duration(n) * time.Second
	case "m":
		return time.Duration(n) * time.Minute
	case "h":
		return time.Duration(n) * time.Hour
	case "d":
		return time.Duration(n) * 24 * time.Hour
	}
	return fallback
}

func getTTL(key string, fallback time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok {
		return ParseTTL(v, fallback)
	}
	return fallback
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
