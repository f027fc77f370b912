package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config structure represents the application configuration
type Config struct {
	Server struct {
		Port            string `yaml:"port" env:"SERVER_PORT"`
		Mode            string `yaml:"mode" env:"SERVER_MODE"`
		ShutdownTimeout string `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT"`
	} `yaml:"server"`

	Database struct {
		Driver          string `yaml:"driver" env:"DB_DRIVER"`
		Host            string `yaml:"host" env:"DB_HOST"`
		Port            string `yaml:"port" env:"DB_PORT"`
		User            string `yaml:"user" env:"DB_USER"`
		Password        string `yaml:"password" env:"DB_PASSWORD"`
		DBName          string `yaml:"dbname" env:"DB_NAME"`
		SSLMode         string `yaml:"sslmode" env:"DB_SSLMODE"`
		MaxIdleConns    int    `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS"`
		MaxOpenConns    int    `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS"`
		ConnMaxLifetime string `yaml:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME"`
		MigrationsDir   string `yaml:"migrations_dir" env:"DB_MIGRATIONS_DIR"`
	} `yaml:"database"`

	Logging struct {
		Level  string `yaml:"level" env:"LOG_LEVEL"`
		Format string `yaml:"format" env:"LOG_FORMAT"`
	} `yaml:"logging"`

	Enrollment struct {
		DefaultStrategy string `yaml:"default_strategy" env:"ENROLLMENT_DEFAULT_STRATEGY"`
		LockTimeout     string `yaml:"lock_timeout" env:"ENROLLMENT_LOCK_TIMEOUT"`
	} `yaml:"enrollment"`

	Seed struct {
		Enabled                 bool  `yaml:"enabled" env:"SEED_ENABLED"`
		RandomSeed              int64 `yaml:"random_seed" env:"SEED_RANDOM_SEED"`
		Departments             int   `yaml:"departments" env:"SEED_DEPARTMENTS"`
		ProfessorsPerDepartment int   `yaml:"professors_per_department" env:"SEED_PROFESSORS_PER_DEPARTMENT"`
		Students                int   `yaml:"students" env:"SEED_STUDENTS"`
		Courses                 int   `yaml:"courses" env:"SEED_COURSES"`
		HotCourseCapacity       int   `yaml:"hot_course_capacity" env:"SEED_HOT_COURSE_CAPACITY"`
	} `yaml:"seed"`

	Tracing struct {
		Enabled     bool   `yaml:"enabled" env:"TRACING_ENABLED"`
		Endpoint    string `yaml:"endpoint" env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
		ServiceName string `yaml:"service_name" env:"OTEL_SERVICE_NAME"`
		Insecure    bool   `yaml:"insecure" env:"TRACING_INSECURE"`
	} `yaml:"tracing"`
}

// LoadConfig loads configuration from a file, an optional .env file and
// environment variables, in increasing order of precedence
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}
	setDefaults(config)

	file, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(file, config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	case errors.Is(err, fs.ErrNotExist):
		// defaults and environment only
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := loadFromEnv(config); err != nil {
		return nil, fmt.Errorf("failed to load from environment: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// setDefaults sets default values for the configuration
func setDefaults(config *Config) {
	// Server defaults
	config.Server.Port = "8080"
	config.Server.Mode = "development"
	config.Server.ShutdownTimeout = "10s"

	// Database defaults
	config.Database.Driver = "postgres"
	config.Database.Host = "localhost"
	config.Database.Port = "5432"
	config.Database.User = "postgres"
	config.Database.Password = "postgres"
	config.Database.DBName = "courseenroll"
	config.Database.SSLMode = "disable"
	config.Database.MaxIdleConns = 5
	config.Database.MaxOpenConns = 20
	config.Database.ConnMaxLifetime = "1h"
	config.Database.MigrationsDir = "migrations"

	// Logging defaults
	config.Logging.Level = "info"
	config.Logging.Format = "json"

	// Enrollment defaults
	config.Enrollment.DefaultStrategy = "ATOMIC"
	config.Enrollment.LockTimeout = "3s"

	// Seed defaults
	config.Seed.Enabled = true
	config.Seed.RandomSeed = 20260301
	config.Seed.Departments = 4
	config.Seed.ProfessorsPerDepartment = 3
	config.Seed.Students = 200
	config.Seed.Courses = 40
	config.Seed.HotCourseCapacity = 30

	// Tracing defaults
	config.Tracing.ServiceName = "courseenroll"
}

// validateConfig ensures that the configuration is valid
func validateConfig(config *Config) error {
	if config.Database.Driver == "" {
		return fmt.Errorf("database driver is required")
	}

	if config.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if _, err := time.ParseDuration(config.Database.ConnMaxLifetime); err != nil {
		return fmt.Errorf("invalid database connection max lifetime: %w", err)
	}

	if _, err := time.ParseDuration(config.Server.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid server shutdown timeout: %w", err)
	}

	switch strings.ToUpper(config.Enrollment.DefaultStrategy) {
	case "PESSIMISTIC", "OPTIMISTIC", "ATOMIC", "SEPARATED":
	default:
		return fmt.Errorf("unknown default enrollment strategy %q", config.Enrollment.DefaultStrategy)
	}

	lockTimeout, err := time.ParseDuration(config.Enrollment.LockTimeout)
	if err != nil {
		return fmt.Errorf("invalid enrollment lock timeout: %w", err)
	}
	if lockTimeout < 0 {
		return fmt.Errorf("enrollment lock timeout must not be negative")
	}

	if config.Seed.Enabled {
		if config.Seed.Departments <= 0 || config.Seed.ProfessorsPerDepartment <= 0 ||
			config.Seed.Students <= 0 || config.Seed.Courses <= 0 || config.Seed.HotCourseCapacity <= 0 {
			return fmt.Errorf("seed counts must be positive when seeding is enabled")
		}
	}

	if config.Tracing.Enabled && config.Tracing.Endpoint == "" {
		return fmt.Errorf("tracing endpoint is required when tracing is enabled")
	}

	return nil
}

// GetPostgresConnectionString returns postgres connection string
func (c *Config) GetPostgresConnectionString() string {
	sslMode := c.Database.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.DBName,
		sslMode,
	)
}
