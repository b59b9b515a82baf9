package config

import (
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort   string
	StoreBaseURL string
	StoreWSURL   string
	Environment  string
}

func Load() (*Config, error) {
	godotenv.Load()

	config := &Config{
		ServerPort:   getEnv("SERVER_PORT", "8080"),
		StoreBaseURL: getEnv("STORE_BASE_URL", "http://localhost:8080"),
		StoreWSURL:   getEnv("STORE_WS_URL", "ws://localhost:8080/ws"),
		Environment:  getEnv("ENVIRONMENT", "development"),
	}

	return config, nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
