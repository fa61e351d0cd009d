package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config structure represents the application configuration
type Config struct {
	Server struct {
		Port string `yaml:"port" env:"SERVER_PORT"`
		Mode string `yaml:"mode" env:"SERVER_MODE"`
	} `yaml:"server"`

	Database struct {
		Host            string `yaml:"host" env:"DB_HOST"`
		Port            string `yaml:"port" env:"DB_PORT"`
		User            string `yaml:"user" env:"DB_USER"`
		Password        string `yaml:"password" env:"DB_PASSWORD"`
		DBName          string `yaml:"dbname" env:"DB_NAME"`
		SSLMode         string `yaml:"sslmode" env:"DB_SSLMODE"`
		MaxIdleConns    int    `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS"`
		MaxOpenConns    int    `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS"`
		ConnMaxLifetime string `yaml:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME"`
	} `yaml:"database"`

	JWT struct {
		Secret string `yaml:"secret" env:"JWT_SECRET"`
		Issuer string `yaml:"issuer" env:"JWT_ISSUER"`
	} `yaml:"jwt"`

	// ContentService is the external lesson-content generation service.
	// When BaseURL is empty the lesson source adapter simulates content locally.
	ContentService struct {
		BaseURL string `yaml:"base_url" env:"CONTENT_SERVICE_URL"`
		Timeout string `yaml:"timeout" env:"CONTENT_SERVICE_TIMEOUT"`
	} `yaml:"content_service"`

	// AI configures the generative model used for course structuring.
	// When APIKey is empty the structure generator goes straight to fallback.
	AI struct {
		APIKey      string  `yaml:"api_key" env:"AI_API_KEY"`
		BaseURL     string  `yaml:"base_url" env:"AI_BASE_URL"`
		Model       string  `yaml:"model" env:"AI_MODEL"`
		Temperature float64 `yaml:"temperature" env:"AI_TEMPERATURE"`
		Timeout     string  `yaml:"timeout" env:"AI_TIMEOUT"`
	} `yaml:"ai"`

	Credential struct {
		BaseURL string `yaml:"base_url" env:"CREDENTIAL_SERVICE_URL"`
		Timeout string `yaml:"timeout" env:"CREDENTIAL_SERVICE_TIMEOUT"`
	} `yaml:"credential"`

	JobQueue struct {
		Concurrency int    `yaml:"concurrency" env:"JOB_QUEUE_CONCURRENCY"`
		MaxRetries  int    `yaml:"max_retries" env:"JOB_QUEUE_MAX_RETRIES"`
		BaseBackoff string `yaml:"base_backoff" env:"JOB_QUEUE_BASE_BACKOFF"`
	} `yaml:"job_queue"`

	Logging struct {
		Level  string `yaml:"level" env:"LOG_LEVEL"`
		Format string `yaml:"format" env:"LOG_FORMAT"`
	} `yaml:"logging"`
}

// LoadConfig loads configuration from a file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}
	setDefaults(config)

	// Config file is optional; environment variables can carry everything
	if _, err := os.Stat(configPath); err == nil {
		file, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if err := yaml.Unmarshal(file, config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := processStructFields(config); err != nil {
		return nil, fmt.Errorf("failed to load from environment: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// setDefaults sets default values for the configuration
func setDefaults(config *Config) {
	config.Server.Port = "8080"
	config.Server.Mode = "development"

	config.Database.Host = "localhost"
	config.Database.Port = "5432"
	config.Database.User = "postgres"
	config.Database.Password = "postgres"
	config.Database.DBName = "coursebuilder"
	config.Database.SSLMode = "disable"
	config.Database.MaxIdleConns = 5
	config.Database.MaxOpenConns = 20
	config.Database.ConnMaxLifetime = "1h"

	config.JWT.Issuer = "coursebuilder.app"

	config.ContentService.Timeout = "15s"

	config.AI.Model = "gpt-4o-mini"
	config.AI.Temperature = 0.3
	config.AI.Timeout = "30s"

	config.Credential.Timeout = "10s"

	config.JobQueue.Concurrency = 3
	config.JobQueue.MaxRetries = 3
	config.JobQueue.BaseBackoff = "2s"

	config.Logging.Level = "info"
	config.Logging.Format = "json"
}

// validateConfig ensures that the configuration is valid
func validateConfig(config *Config) error {
	if config.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if config.Database.DBName == "" {
		return fmt.Errorf("database name is required")
	}

	if config.JobQueue.Concurrency < 1 {
		return fmt.Errorf("job queue concurrency must be at least 1")
	}

	for name, value := range map[string]string{
		"content service timeout": config.ContentService.Timeout,
		"ai timeout":              config.AI.Timeout,
		"credential timeout":      config.Credential.Timeout,
		"job queue base backoff":  config.JobQueue.BaseBackoff,
	} {
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid %s format: %w", name, err)
		}
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
