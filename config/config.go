package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	LogLevel string

	GitHubAPIURL  string
	GitHubTimeout time.Duration

	AIBaseURL string
	AIModel   string
	AIToken   string
	AITimeout time.Duration

	Postgres PostgresConfig

	HTTPPort    string
	CORSOrigins []string

	Schedule           string
	ScheduleLocation   *time.Location
	ActivityWindowDays int
}

// PostgresConfig holds connection settings for the report store
type PostgresConfig struct {
	User            string
	Password        string
	Database        string
	Host            string
	Port            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DSN builds a lib/pq connection string
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"user=%s password=%s dbname=%s port=%s host=%s sslmode=%s",
		p.User, p.Password, p.Database, p.Port, p.Host, p.SSLMode,
	)
}

// Redacted is the DSN with the password masked, safe for logs
func (p PostgresConfig) Redacted() string {
	return fmt.Sprintf("user=%s dbname=%s port=%s host=%s", p.User, p.Database, p.Port, p.Host)
}

// NewConfig creates a new Config instance
func NewConfig() *Config {
	return &Config{}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("GITHUB_API_URL", "https://api.github.com/")
	v.SetDefault("GITHUB_TIMEOUT", "30s")
	v.SetDefault("AI_BASE_URL", "http://localhost:11434")
	v.SetDefault("AI_MODEL", "qwen3")
	v.SetDefault("AI_TIMEOUT", "60s")
	v.SetDefault("POSTGRES_HOST", "localhost")
	v.SetDefault("POSTGRES_PORT", "5432")
	v.SetDefault("POSTGRES_SSLMODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 25)
	v.SetDefault("DB_MAX_IDLE_CONNS", 25)
	v.SetDefault("DB_CONN_MAX_LIFETIME", "5m")
	v.SetDefault("HTTP_PORT", "5000")
	v.SetDefault("CORS_ORIGINS", "http://localhost:5173")
	v.SetDefault("SCHEDULE", "0 0 * * *")
	v.SetDefault("SCHEDULE_TZ", "Local")
	v.SetDefault("ACTIVITY_WINDOW_DAYS", 30)
}

// Load loads configuration from environment variables and an optional .env file
func (c *Config) Load() error {
	// Populate the process environment from .env for local runs; missing file is fine.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	configFile := v.GetString("CONFIG_FILE")
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return c.fromViper(v)
}

func (c *Config) fromViper(v *viper.Viper) error {
	c.LogLevel = v.GetString("LOG_LEVEL")

	c.GitHubAPIURL = v.GetString("GITHUB_API_URL")
	c.GitHubTimeout = v.GetDuration("GITHUB_TIMEOUT")

	c.AIBaseURL = strings.TrimRight(v.GetString("AI_BASE_URL"), "/")
	c.AIModel = v.GetString("AI_MODEL")
	c.AIToken = v.GetString("AI_TOKEN")
	c.AITimeout = v.GetDuration("AI_TIMEOUT")
	if c.AIModel == "" {
		return fmt.Errorf("AI_MODEL is required")
	}

	c.Postgres = PostgresConfig{
		User:            v.GetString("POSTGRES_USER"),
		Password:        v.GetString("POSTGRES_PASSWORD"),
		Database:        v.GetString("POSTGRES_DB"),
		Host:            v.GetString("POSTGRES_HOST"),
		Port:            v.GetString("POSTGRES_PORT"),
		SSLMode:         v.GetString("POSTGRES_SSLMODE"),
		MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
		ConnMaxLifetime: v.GetDuration("DB_CONN_MAX_LIFETIME"),
	}
	if c.Postgres.User == "" {
		return fmt.Errorf("POSTGRES_USER is required")
	}
	if c.Postgres.Database == "" {
		return fmt.Errorf("POSTGRES_DB is required")
	}

	c.HTTPPort = v.GetString("HTTP_PORT")
	c.CORSOrigins = splitList(v.GetString("CORS_ORIGINS"))

	c.Schedule = v.GetString("SCHEDULE")
	loc, err := time.LoadLocation(v.GetString("SCHEDULE_TZ"))
	if err != nil {
		return fmt.Errorf("invalid SCHEDULE_TZ: %w", err)
	}
	c.ScheduleLocation = loc

	c.ActivityWindowDays = v.GetInt("ACTIVITY_WINDOW_DAYS")
	if c.ActivityWindowDays < 1 {
		return fmt.Errorf("ACTIVITY_WINDOW_DAYS must be positive, got %d", c.ActivityWindowDays)
	}

	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
