package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppPort    string
	AppMode    string
	BaseURL    string
	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string

	JWTSecret    string
	JWTExpiryMin int

	AdminEmail        string
	AdminPasswordHash string

	RedisHost     string
	RedisPort     string
	RedisPassword string

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string

	// Broadcast pipeline knobs. The defaults are the contract values;
	// overriding them is an operational decision, not a runtime one.
	SchedulerInterval time.Duration
	SendBatchSize     int
	SendMaxAttempts   int
}

func LoadConfig() *Config {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	return &Config{
		AppPort:    getEnv("APP_PORT", "8080"),
		AppMode:    getEnv("APP_MODE", "debug"),
		BaseURL:    getEnv("BASE_URL", "http://localhost:8080"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBName:     getEnv("DB_NAME", "letterdrop"),
		DBPort:     getEnv("DB_PORT", "5432"),

		JWTSecret:    getEnv("JWT_SECRET", "change-me"),
		JWTExpiryMin: getEnvAsInt("JWT_EXPIRY_MIN", 60),

		AdminEmail:        getEnv("ADMIN_EMAIL", "admin@letterdrop.local"),
		AdminPasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),

		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),

		SMTPHost:     getEnv("SMTP_HOST", "localhost"),
		SMTPPort:     getEnvAsInt("SMTP_PORT", 587),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		SMTPFrom:     getEnv("SMTP_FROM", "newsletter@letterdrop.local"),

		SchedulerInterval: getEnvAsDuration("SCHEDULER_INTERVAL", time.Minute),
		SendBatchSize:     getEnvAsInt("SEND_BATCH_SIZE", 25),
		SendMaxAttempts:   getEnvAsInt("SEND_MAX_ATTEMPTS", 5),
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return fallback
}
