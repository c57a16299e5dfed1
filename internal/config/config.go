package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

const DefaultTimezone = "America/Los_Angeles"

type Config struct {
	Env            string
	ServerAddr     string
	FrontendOrigin string

	CRMBaseURL    string
	CRMAPIKey     string
	CRMAPIVersion string
	CRMLocationID string
	CRMCompanyID  string
	CRMTimeoutSec int
	CRMPageLimit  int
	CRMMaxPages   int
	// When true, a 403 on a contact write is treated as applied.
	// The upstream API is known to return 403 on some writes that succeed.
	CRMForgiveWriteForbidden bool

	DefaultTimezone      string
	TZCacheTTLSeconds    int
	TZFallbackTTLSeconds int
	BoardCacheTTLSeconds int
	SlotCacheTTLSeconds  int

	RedisURL      string
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	JWTSecret         string
	AccessTTLMinutes  int
	RefreshTTLMinutes int
	CookieSecure      bool

	DashboardUser         string
	DashboardPasswordHash string

	RateLimitWrites    int
	RateLimitAuth      int
	RateLimitWindowSec int
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		return v == "true" || v == "1"
	}
	return fallback
}

func Load() (*Config, error) {
	loadDotEnv(".env")

	cfg := &Config{
		Env:            getEnv("APP_ENV", "development"),
		ServerAddr:     getEnv("SERVER_ADDR", ":8080"),
		FrontendOrigin: getEnv("FRONTEND_ORIGIN", "http://localhost:3000"),

		CRMBaseURL:               strings.TrimRight(getEnv("CRM_BASE_URL", "https://rest.crm.example.com/v1"), "/"),
		CRMAPIKey:                getEnv("CRM_API_KEY", ""),
		CRMAPIVersion:            getEnv("CRM_API_VERSION", "2021-07-28"),
		CRMLocationID:            getEnv("CRM_LOCATION_ID", ""),
		CRMCompanyID:             getEnv("CRM_COMPANY_ID", ""),
		CRMTimeoutSec:            getEnvInt("CRM_TIMEOUT_SEC", 10),
		CRMPageLimit:             getEnvInt("CRM_PAGE_LIMIT", 100),
		CRMMaxPages:              getEnvInt("CRM_MAX_PAGES", 20),
		CRMForgiveWriteForbidden: getEnvBool("CRM_FORGIVE_WRITE_FORBIDDEN", false),

		DefaultTimezone:      getEnv("DEFAULT_TIMEZONE", DefaultTimezone),
		TZCacheTTLSeconds:    getEnvInt("TZ_CACHE_TTL_SECONDS", 1800),
		TZFallbackTTLSeconds: getEnvInt("TZ_FALLBACK_TTL_SECONDS", 60),
		BoardCacheTTLSeconds: getEnvInt("BOARD_CACHE_TTL_SECONDS", 120),
		SlotCacheTTLSeconds:  getEnvInt("SLOT_CACHE_TTL_SECONDS", 120),

		RedisURL:      getEnv("REDIS_URL", ""),
		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		JWTSecret:         getEnv("JWT_SECRET", ""),
		AccessTTLMinutes:  getEnvInt("ACCESS_TTL_MINUTES", 15),
		RefreshTTLMinutes: getEnvInt("REFRESH_TTL_MINUTES", 43200),
		CookieSecure:      getEnv("COOKIE_SECURE", "false") == "true",

		DashboardUser:         getEnv("DASHBOARD_USER", "admin"),
		DashboardPasswordHash: getEnv("DASHBOARD_PASSWORD_HASH", ""),

		RateLimitWrites:    getEnvInt("RATE_LIMIT_WRITES", 30),
		RateLimitAuth:      getEnvInt("RATE_LIMIT_AUTH", 5),
		RateLimitWindowSec: getEnvInt("RATE_LIMIT_WINDOW_SEC", 60),
	}

	if cfg.CRMAPIKey == "" && cfg.Env != "development" {
		return nil, errors.New("CRM_API_KEY is required")
	}
	if _, err := time.LoadLocation(cfg.DefaultTimezone); err != nil {
		return nil, err
	}

	return cfg, nil
}

func loadDotEnv(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}
	lines := strings.Split(string(data), "\n")
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		val := strings.TrimSpace(parts[1])
		if key == "" {
			continue
		}
		if _, exists := os.LookupEnv(key); exists {
			continue
		}
		_ = os.Setenv(key, val)
	}
}
