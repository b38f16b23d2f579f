package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	PagesToScrape    int
	IncrementalPages int
	MaxRetries       int

	// Politeness delay range applied between outbound browser requests.
	DelayMinMs int
	DelayMaxMs int

	PageTimeoutSec int
	ExpiryDays     int

	// Optional Nominatim-format geocoding endpoint. Empty disables the
	// geocoding fallback entirely.
	GeocoderURL        string
	GeocoderTimeoutSec int

	FullSyncHours        int
	IncrementalSyncHours int

	ChromeBin string
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "scraper"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "scraper123"),
		PostgresDB:       getEnv("POSTGRES_DB", "listings_db"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		PagesToScrape:    getEnvInt("PAGES_TO_SCRAPE", 10),
		IncrementalPages: getEnvInt("INCREMENTAL_PAGES", 5),
		MaxRetries:       getEnvInt("MAX_RETRIES", 3),

		DelayMinMs: getEnvInt("DELAY_MIN_MS", 2000),
		DelayMaxMs: getEnvInt("DELAY_MAX_MS", 5000),

		PageTimeoutSec: getEnvInt("PAGE_TIMEOUT_SEC", 30),
		ExpiryDays:     getEnvInt("EXPIRY_DAYS", 7),

		GeocoderURL:        getEnv("GEOCODER_URL", ""),
		GeocoderTimeoutSec: getEnvInt("GEOCODER_TIMEOUT_SEC", 5),

		FullSyncHours:        getEnvInt("FULL_SYNC_HOURS", 24),
		IncrementalSyncHours: getEnvInt("INCREMENTAL_SYNC_HOURS", 1),

		ChromeBin: getEnv("CHROME_BIN", ""),
	}
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}
