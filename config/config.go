package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/eventtide/ticketcore/internal/models"
)

type Config struct {
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	Port      string
	JWTSecret string
	Currency  string

	// Payment gateway
	GatewayMode     string // "http" or "stub"
	GatewayBaseURL  string
	GatewayClientID string
	GatewaySecret   string // shared secret for webhook signatures

	// Downstream event hook
	RedisURL         string
	RedisPassword    string
	RedisDB          int
	ActivatedChannel string

	// Background expiry sweep
	SweepInterval time.Duration

	// Hold window applied when a class is created without its own
	DefaultHoldWindow time.Duration

	// Admission window policy at the gate
	CheckInEnforce bool
	CheckInEarly   time.Duration
	CheckInLate    time.Duration
}

func LoadConfig() (*Config, error) {
	return &Config{
		DBHost:     os.Getenv("DB_HOST"),
		DBPort:     os.Getenv("DB_PORT"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),

		Port:      getEnv("PORT", "8080"),
		JWTSecret: os.Getenv("JWT_SECRET"),
		Currency:  getEnv("CURRENCY", "USD"),

		GatewayMode:     getEnv("GATEWAY_MODE", "stub"),
		GatewayBaseURL:  os.Getenv("GATEWAY_BASE_URL"),
		GatewayClientID: os.Getenv("GATEWAY_CLIENT_ID"),
		GatewaySecret:   os.Getenv("GATEWAY_SECRET"),

		RedisURL:         os.Getenv("REDIS_URL"),
		RedisPassword:    os.Getenv("REDIS_PASSWORD"),
		RedisDB:          getEnvAsInt("REDIS_DB", 0),
		ActivatedChannel: getEnv("ACTIVATED_CHANNEL", "ticket-activated"),

		SweepInterval:     getEnvAsDuration("SWEEP_INTERVAL", "30s"),
		DefaultHoldWindow: getEnvAsDuration("DEFAULT_HOLD_WINDOW", "10m"),

		CheckInEnforce: getEnvAsBool("CHECKIN_ENFORCE_WINDOW", false),
		CheckInEarly:   getEnvAsDuration("CHECKIN_EARLY_ENTRY", "2h"),
		CheckInLate:    getEnvAsDuration("CHECKIN_LATE_ENTRY", "1h"),
	}, nil
}

func enableUUIDExtension(db *gorm.DB) error {
	return db.Exec("CREATE EXTENSION IF NOT EXISTS \"uuid-ossp\"").Error
}

func InitDatabase(cfg *Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if err := enableUUIDExtension(db); err != nil {
		return nil, err
	}

	err = db.AutoMigrate(
		&models.Role{}, &models.User{},
		&models.Event{}, &models.TicketClass{}, &models.Ticket{},
		&models.PaymentOrder{}, &models.ResaleListing{}, &models.AuditEntry{},
	)
	if err != nil {
		return nil, err
	}

	seedRoles(db)

	return db, nil
}

func seedRoles(db *gorm.DB) {
	roles := []models.Role{
		{Name: "organizer"},
		{Name: "attendee"},
		{Name: "admin"},
	}

	for _, role := range roles {
		var existingRole models.Role
		result := db.Where("name = ?", role.Name).First(&existingRole)
		if result.Error != nil {
			db.Create(&role)
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}
