package config

import (
	"os"
	"strconv"
	"time"
)

// AppConfig holds application-level configuration
type AppConfig struct {
	Port            string
	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	KafkaBroker     string
	ActivityTopic   string
}

// GetAppConfig returns application configuration from environment variables
func GetAppConfig() *AppConfig {
	return &AppConfig{
		Port:            getEnv("PORT", "8080"),
		JWTSecret:       getEnv("JWT_SECRET_KEY", "jwt-secret-key-change-in-production"),
		AccessTokenTTL:  getEnvDuration("JWT_ACCESS_TTL_MINUTES", 60) * time.Minute,
		RefreshTokenTTL: getEnvDuration("JWT_REFRESH_TTL_MINUTES", 30*24*60) * time.Minute,
		KafkaBroker:     os.Getenv("KAFKA_BROKER"), // empty disables the activity event stream
		ActivityTopic:   getEnv("KAFKA_ACTIVITY_TOPIC", "activity-events"),
	}
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvDuration reads a numeric environment variable as a duration unit count
func getEnvDuration(key string, defaultValue int64) time.Duration {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.ParseInt(value, 10, 64); err == nil && n > 0 {
			return time.Duration(n)
		}
	}
	return time.Duration(defaultValue)
}
