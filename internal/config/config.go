package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/mnbarber/bookden/pkg/logger"
)

// Config holds all environment-driven settings.
type Config struct {
	Port          string
	MongoURI      string
	MongoDB       string
	JWTSecret     string
	AllowedOrigin string
	RateRPS       float64
	RateBurst     int
}

// LoadConfig reads configuration from the environment, loading .env first
// when present.
func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		logger.Log.Info("No .env file found, relying on environment")
	}

	return &Config{
		Port:          getEnv("PORT", "8080"),
		MongoURI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:       getEnv("MONGO_DB", "bookden"),
		JWTSecret:     getEnv("JWT_SECRET", "dev-secret"),
		AllowedOrigin: getEnv("ALLOWED_ORIGIN", "http://localhost:3000"),
		RateRPS:       getEnvFloat("RATE_LIMIT_RPS", 20),
		RateBurst:     getEnvInt("RATE_LIMIT_BURST", 40),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
