package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Config struct {
	Port        string
	Environment string

	// Trading session timezone. All schedules and session boundaries are
	// evaluated in this location.
	Timezone string

	// Python collaborator scripts (screener, executor, broker data).
	PythonBin           string
	ScriptsDir          string
	CollaboratorTimeout time.Duration

	// Trade log database.
	DBPath string

	// Email-to-SMS notifications.
	EmailUser        string
	EmailAppPassword string
	SMSEmailAddress  string
	EmailSMSEnabled  bool
	SMTPServer       string
	SMTPPort         int
}

var AppConfig *Config
var DB *gorm.DB

// LoadConfig loads environment variables
func LoadConfig() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config := &Config{
		Port:                getEnv("PORT", "3001"),
		Environment:         getEnv("ENVIRONMENT", "development"),
		Timezone:            getEnv("TRADING_TIMEZONE", "America/New_York"),
		PythonBin:           getEnv("PYTHON_BIN", "python3"),
		ScriptsDir:          getEnv("SCRIPTS_DIR", "python_scripts"),
		CollaboratorTimeout: getEnvDuration("COLLABORATOR_TIMEOUT", 30*time.Second),
		DBPath:              getEnv("DB_PATH", "alpacabot.db"),
		EmailUser:           getEnv("EMAIL_USER", ""),
		EmailAppPassword:    getEnv("EMAIL_APP_PASSWORD", ""),
		SMSEmailAddress:     getEnv("SMS_EMAIL_ADDRESS", ""),
		EmailSMSEnabled:     getEnv("EMAIL_SMS_ENABLED", "false") == "true",
		SMTPServer:          getEnv("SMTP_SERVER", "smtp.gmail.com"),
		SMTPPort:            getEnvInt("SMTP_PORT", 587),
	}

	AppConfig = config
	return config, nil
}

// Location resolves the configured trading timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid trading timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// InitDB initializes the trade log database
func InitDB() (*gorm.DB, error) {
	log.Printf("Opening trade log database: %s", AppConfig.DBPath)

	var logLevel logger.LogLevel
	if AppConfig.Environment == "production" {
		logLevel = logger.Error
	} else {
		logLevel = logger.Warn
	}

	db, err := gorm.Open(sqlite.Open(AppConfig.DBPath), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		log.Printf("Database open error: %v", err)
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Verify connection with ping
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	log.Println("Trade log database ready")
	DB = db
	return db, nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Invalid value for %s: %q, using default %d", key, value, defaultValue)
		return defaultValue
	}
	return n
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("Invalid value for %s: %q, using default %v", key, value, defaultValue)
		return defaultValue
	}
	return d
}
