package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	SearchKeywords string
	SearchURL      string
	Latitude       string
	Longitude      string

	MaxPages    int
	PageSize    int
	RateLimitMs int

	RiskThreshold  int
	NoiseFloor     float64
	FallbackMedian float64

	StorePath   string
	PostgresDSN string // empty disables the Postgres mirror

	ElasticURL      string
	ElasticIndex    string
	ElasticUser     string
	ElasticPassword string
	MaxRetries      int

	MonitorIntervalSec int
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		SearchKeywords: getEnv("SEARCH_KEYWORDS", "iphone"),
		SearchURL:      getEnv("WALLAPOP_SEARCH_URL", "https://api.wallapop.com/api/v3/search"),
		Latitude:       getEnv("SEARCH_LATITUDE", "40.4168"),
		Longitude:      getEnv("SEARCH_LONGITUDE", "-3.7038"),

		MaxPages:    getEnvInt("MAX_PAGES", 5),
		PageSize:    getEnvInt("PAGE_SIZE", 40),
		RateLimitMs: getEnvInt("RATE_LIMIT_MS", 500),

		RiskThreshold:  getEnvInt("RISK_THRESHOLD", 40),
		NoiseFloor:     getEnvFloat("PRICE_NOISE_FLOOR", 10),
		FallbackMedian: getEnvFloat("FALLBACK_MEDIAN", 400),

		StorePath:   getEnv("STORE_PATH", "./data/wallapop_master.json"),
		PostgresDSN: getEnv("POSTGRES_DSN", ""),

		ElasticURL:      getEnv("ELASTIC_URL", "http://localhost:9200"),
		ElasticIndex:    getEnv("ELASTIC_INDEX", "wallapop-items"),
		ElasticUser:     getEnv("ELASTIC_USER", "elastic"),
		ElasticPassword: getEnv("ELASTIC_PASSWORD", ""),
		MaxRetries:      getEnvInt("MAX_RETRIES", 3),

		MonitorIntervalSec: getEnvInt("MONITOR_INTERVAL_SEC", 300),
	}
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

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		f, err := strconv.ParseFloat(val, 64)
		if err == nil {
			return f
		}
	}
	return fallback
}
