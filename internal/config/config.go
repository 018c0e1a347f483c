package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port string
	Env  string

	// Database. Empty means the API runs on in-memory stores (dev only).
	DatabaseURL string

	// Redis
	RedisURL string

	// Identity tokens. Tokens are minted by the identity provider; this
	// service only validates them.
	JWTSecret    string
	JWTAccessTTL time.Duration

	// CORS
	AllowedOrigins []string

	// Object storage for break results media
	StorageBackend    string // "r2" or "local"
	LocalStoragePath  string
	LocalStorageURL   string
	R2AccountID       string
	R2AccessKeyID     string
	R2AccessKeySecret string
	R2BucketName      string
	R2PublicURL       string

	// Enrichment lookups
	CardInfoBaseURL string
	CardInfoAPIKey  string
	GeoBaseURL      string
	GeoUserAgent    string
	LookupTimeout   time.Duration

	// Workers
	SweepInterval     time.Duration
	MediaPollInterval time.Duration

	// Logging
	LogLevel string
}

func Load() *Config {
	// Load .env file in development
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	return &Config{
		Port: getEnv("PORT", "8080"),
		Env:  getEnv("ENV", "development"),

		DatabaseURL: getEnv("DATABASE_URL", ""),
		RedisURL:    getEnv("REDIS_URL", ""),

		JWTSecret:    getEnv("JWT_SECRET", "super-secret-key-change-me"),
		JWTAccessTTL: parseDuration(getEnv("JWT_ACCESS_TTL", "15m")),

		AllowedOrigins: parseStringSlice(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),

		StorageBackend:    getEnv("STORAGE_BACKEND", "local"),
		LocalStoragePath:  getEnv("LOCAL_STORAGE_PATH", "./data/media"),
		LocalStorageURL:   getEnv("LOCAL_STORAGE_URL", "http://localhost:8080/media"),
		R2AccountID:       getEnv("R2_ACCOUNT_ID", ""),
		R2AccessKeyID:     getEnv("R2_ACCESS_KEY_ID", ""),
		R2AccessKeySecret: getEnv("R2_ACCESS_KEY_SECRET", ""),
		R2BucketName:      getEnv("R2_BUCKET_NAME", "breakhouse-media"),
		R2PublicURL:       getEnv("R2_PUBLIC_URL", ""),

		CardInfoBaseURL: getEnv("CARDINFO_BASE_URL", "https://api.pokemontcg.io/v2"),
		CardInfoAPIKey:  getEnv("CARDINFO_API_KEY", ""),
		GeoBaseURL:      getEnv("GEO_BASE_URL", "https://nominatim.openstreetmap.org"),
		GeoUserAgent:    getEnv("GEO_USER_AGENT", "breakhouse-api/1.0"),
		LookupTimeout:   parseDuration(getEnv("LOOKUP_TIMEOUT", "10s")),

		SweepInterval:     parseDuration(getEnv("SWEEP_INTERVAL", "30s")),
		MediaPollInterval: parseDuration(getEnv("MEDIA_POLL_INTERVAL", "5s")),

		LogLevel: getEnv("LOG_LEVEL", "debug"),
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func parseDuration(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 15 * time.Minute
	}
	return d
}

func parseStringSlice(s string) []string {
	if s == "" {
		return []string{}
	}
	var result []string
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == ',' {
			if start < i {
				result = append(result, s[start:i])
			}
			start = i + 1
		}
	}
	return result
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
