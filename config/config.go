package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port   string
	JWTKey string

	DBDriver   string // postgres, mysql or sqlite
	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string

	LockTimeoutMs int // lock-wait limit applied to the attempt start transaction

	EventWorkers   int
	EventQueueSize int

	NotificationWebhookURL     string
	NotificationTimeoutSeconds int

	FinalGradePolicy        string // average, best, weighted
	FinalGradeReconcileCron string

	EnforceTimeWindow bool // reject answers and submits after ends_at
	RequireTextReview bool // auto-grading waits for reviewed text answers
	AutoGradeOnSubmit bool
}

// AppConfig is a global variable to access configuration
var AppConfig *Config

// LoadConfig initializes configuration from environment variables or defaults
func LoadConfig() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found. Using system environment variables.")
	}

	AppConfig = &Config{
		Port:   getEnv("PORT", "3000"),
		JWTKey: getEnv("JWT_SECRET_KEY", "defaultSecret"),

		DBDriver:   strings.ToLower(getEnv("DB_DRIVER", "postgres")),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "lms"),
		DBPort:     getEnv("DB_PORT", "5432"),

		LockTimeoutMs: getEnvInt("LOCK_TIMEOUT_MS", 5000),

		EventWorkers:   getEnvInt("EVENT_WORKERS", 4),
		EventQueueSize: getEnvInt("EVENT_QUEUE_SIZE", 256),

		NotificationWebhookURL:     getEnv("NOTIFICATION_WEBHOOK_URL", ""),
		NotificationTimeoutSeconds: getEnvInt("NOTIFICATION_TIMEOUT_SECONDS", 5),

		FinalGradePolicy:        strings.ToLower(getEnv("FINAL_GRADE_POLICY", "average")),
		FinalGradeReconcileCron: getEnv("FINAL_GRADE_RECONCILE_CRON", "*/15 * * * *"),

		EnforceTimeWindow: getEnvBool("ENFORCE_TIME_WINDOW", false),
		RequireTextReview: getEnvBool("REQUIRE_TEXT_REVIEW", true),
		AutoGradeOnSubmit: getEnvBool("AUTO_GRADE_ON_SUBMIT", true),
	}

	// Validate critical configuration
	if AppConfig.JWTKey == "defaultSecret" {
		log.Println("Warning: Using default JWT_SECRET_KEY. Update it in your environment.")
	}
	if AppConfig.NotificationWebhookURL == "" {
		log.Println("Warning: NOTIFICATION_WEBHOOK_URL not set. Attempt events will only be logged.")
	}
	switch AppConfig.FinalGradePolicy {
	case "average", "best", "weighted":
	default:
		log.Printf("Warning: unknown FINAL_GRADE_POLICY %q, falling back to average.", AppConfig.FinalGradePolicy)
		AppConfig.FinalGradePolicy = "average"
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvInt retrieves an environment variable as an integer or returns the default integer value
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Error converting environment variable %s to int: %v", key, err)
		return defaultValue
	}
	return intValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	boolValue, err := strconv.ParseBool(value)
	if err != nil {
		log.Printf("Error converting environment variable %s to bool: %v", key, err)
		return defaultValue
	}
	return boolValue
}
