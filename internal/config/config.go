package config

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Driver names the storage backend selected by DATABASE_URL.
type Driver string

const (
	DriverPostgres Driver = "postgres"
	DriverSQLite   Driver = "sqlite"
	DriverMongo    Driver = "mongo"
	DriverMemory   Driver = "memory"
)

type Config struct {
	Port          string
	DatabaseURL   string
	MongoDatabase string
	AutoMigrate   bool
	JWTSecret     string
	JWTTTL        time.Duration
	CORSOrigins   string
	RabbitMQURL   string
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found; using environment variables")
	}

	v := viper.New()
	v.SetDefault("PORT", "5000")
	v.SetDefault("MONGO_DATABASE", "rescueplate")
	v.SetDefault("AUTO_MIGRATE", true)
	v.SetDefault("JWT_TTL", "24h")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("RABBITMQ_URL", "")
	if err := v.BindEnv("DATABASE_URL", "DATABASE_URL", "MONGO_URI"); err != nil {
		return nil, err
	}
	v.AutomaticEnv()

	cfg := &Config{
		Port:          strings.TrimPrefix(v.GetString("PORT"), ":"),
		DatabaseURL:   strings.TrimSpace(v.GetString("DATABASE_URL")),
		MongoDatabase: v.GetString("MONGO_DATABASE"),
		AutoMigrate:   v.GetBool("AUTO_MIGRATE"),
		JWTSecret:     v.GetString("JWT_SECRET"),
		JWTTTL:        v.GetDuration("JWT_TTL"),
		CORSOrigins:   v.GetString("CORS_ALLOWED_ORIGINS"),
		RabbitMQURL:   v.GetString("RABBITMQ_URL"),
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL (or MONGO_URI) environment variable is required")
	}
	if _, err := cfg.Driver(); err != nil {
		return nil, err
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET environment variable is required")
	}
	if cfg.JWTTTL <= 0 {
		return nil, errors.New("JWT_TTL must be a positive duration")
	}
	if cfg.CORSOrigins == "*" {
		log.Println("[WARN] CORS_ALLOWED_ORIGINS allows every origin; set it for production")
	}
	return cfg, nil
}

// Driver derives the storage backend from the DATABASE_URL scheme.
func (c *Config) Driver() (Driver, error) {
	url := strings.ToLower(c.DatabaseURL)
	switch {
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"), strings.HasPrefix(url, "host="):
		return DriverPostgres, nil
	case strings.HasPrefix(url, "sqlite:"), strings.HasPrefix(url, "file:"):
		return DriverSQLite, nil
	case strings.HasPrefix(url, "mongodb://"), strings.HasPrefix(url, "mongodb+srv://"):
		return DriverMongo, nil
	case strings.HasPrefix(url, "memory://"):
		return DriverMemory, nil
	}
	return "", errors.New("DATABASE_URL has an unsupported scheme (want postgres, sqlite, file, mongodb or memory)")
}

// SQLitePath strips the sqlite: prefix so the DSN can be handed to the driver.
func (c *Config) SQLitePath() string {
	if strings.HasPrefix(strings.ToLower(c.DatabaseURL), "sqlite:") {
		return strings.TrimPrefix(c.DatabaseURL[len("sqlite:"):], "//")
	}
	return c.DatabaseURL
}
