package config

import (
	"os"
	"strconv"
	"time"
)

type FareConfig struct {
	DefaultFare       int64
	PassValidity      time.Duration
	RouteFareCacheTTL time.Duration
	QRImageSize       int
}

func LoadFareConfig() *FareConfig {
	return &FareConfig{
		DefaultFare:       getEnvAsInt64("FARE_DEFAULT", 250),
		PassValidity:      getEnvAsDuration("PASS_VALIDITY", 30*24*time.Hour),
		RouteFareCacheTTL: getEnvAsDuration("ROUTE_FARE_CACHE_TTL", 5*time.Minute),
		QRImageSize:       getEnvAsInt("QR_IMAGE_SIZE", 256),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsInt64(key string, defaultVal int64) int64 {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.ParseInt(val, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if duration, err := time.ParseDuration(val); err == nil {
			return duration
		}
	}
	return defaultVal
}
