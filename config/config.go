package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port      string
	JWTKey    string
	SaltRound int

	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string

	EmailSender string
	Password    string // SMTP Password

	PaymentApiURL string
	PaymentApiKey string

	ChatModelURL string
	ChatModelKey string

	OrderExpiryMinutes  int // unpaid orders older than this get swept
	MembershipGraceDays int // renew window after end once auto-renew is off
	ReminderLeadDays    int // expiry reminder emails go out this many days early
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
		Port:      getEnv("PORT", "3000"),
		JWTKey:    getEnv("JWT_SECRET_KEY", "defaultSecret"),
		SaltRound: getEnvInt("SALT_ROUND", 10),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "lms"),
		DBPort:     getEnv("DB_PORT", "5432"),

		EmailSender: getEnv("EMAIL_SENDER", "defaultSecret"),
		Password:    getEnv("PASSWORD", "defaultSecret"),

		PaymentApiURL: getEnv("PAYMENT_API_URL", "https://api.sandbox.credpay.io/v1/"),
		PaymentApiKey: getEnv("PAYMENT_API_KEY", "defaultSecret"),

		ChatModelURL: getEnv("CHAT_MODEL_URL", "https://api.openai.com/v1/"),
		ChatModelKey: getEnv("CHAT_MODEL_KEY", "defaultSecret"),

		OrderExpiryMinutes:  getEnvInt("ORDER_EXPIRY_MINUTES", 30),
		MembershipGraceDays: getEnvInt("MEMBERSHIP_GRACE_DAYS", 7),
		ReminderLeadDays:    getEnvInt("REMINDER_LEAD_DAYS", 2),
	}

	// Validate critical configuration
	if AppConfig.JWTKey == "defaultSecret" {
		log.Println("Warning: Using default JWT_SECRET_KEY. Update it in your environment.")
	}
	if AppConfig.PaymentApiKey == "defaultSecret" {
		log.Println("Warning: Using default PAYMENT_API_KEY. Update it in your environment.")
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
