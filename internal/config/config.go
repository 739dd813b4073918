package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Port string

	// Database configuration
	DBType            string // mysql, postgres, sqlite, sqlserver, etc.
	DBHost            string
	DBPort            string
	DBDatabase        string
	DBUser            string
	DBPassword        string
	DBConnectionLimit int
	DBConnectRetries  int
	DBConnectDelay    time.Duration

	// Auth configuration
	JWTSecret string
	JWTExpiry time.Duration

	// Geolocation configuration
	GeoAPIBaseURL string
	GeoAPITimeout time.Duration
	DemoMode      bool

	// Graph store (Neo4j) configuration
	GraphURI      string
	GraphUser     string
	GraphPassword string
	GraphDatabase string
}

// Load loads configuration from environment variables.
// A .env file in the working directory is honored when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:              getEnv("PORT", "3000"),
		DBType:            getEnv("DB_TYPE", "postgres"),
		DBHost:            getEnv("DB_HOST", "localhost"),
		DBPort:            getEnv("DB_PORT", "5432"),
		DBDatabase:        getEnv("DB_DATABASE", ""),
		DBUser:            getEnv("DB_USER", ""),
		DBPassword:        getEnv("DB_PASSWORD", ""),
		DBConnectionLimit: getEnvAsInt("DB_CONNECTION_LIMIT", 10),
		DBConnectRetries:  getEnvAsInt("DB_CONNECT_RETRIES", 3),
		DBConnectDelay:    getEnvAsDuration("DB_CONNECT_DELAY", time.Second),
		JWTSecret:         getEnv("JWT_SECRET", ""),
		JWTExpiry:         getEnvAsDuration("JWT_EXPIRY", time.Hour),
		GeoAPIBaseURL:     getEnv("GEO_API_BASE_URL", "https://ipapi.co"),
		GeoAPITimeout:     getEnvAsDuration("GEO_API_TIMEOUT", 5*time.Second),
		DemoMode:          getEnvAsBool("DEMO_MODE", false),
		GraphURI:          getEnv("GRAPH_URI", "bolt://localhost:7687"),
		GraphUser:         getEnv("GRAPH_USER", "neo4j"),
		GraphPassword:     getEnv("GRAPH_PASSWORD", ""),
		GraphDatabase:     getEnv("GRAPH_DATABASE", "neo4j"),
	}

	// Validate required fields
	if cfg.DBDatabase == "" {
		return nil, fmt.Errorf("DB_DATABASE is required")
	}
	if cfg.DBType != "sqlite" && cfg.DBUser == "" {
		return nil, fmt.Errorf("DB_USER is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	return cfg, nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsBool gets an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration gets an environment variable as a duration or returns a default value
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
