package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App      AppConfig      `yaml:"app"`
	Database DatabaseConfig `yaml:"database"`
	Mongo    MongoConfig    `yaml:"mongo"`
	Redis    RedisConfig    `yaml:"redis"`
	SMTP     SMTPConfig     `yaml:"smtp"`
	Auth     AuthConfig     `yaml:"auth"`
	Logging  LoggingConfig  `yaml:"logging"`
	Limits   LimitsConfig   `yaml:"rate_limit"`
}

type AppConfig struct {
	Port          string `yaml:"port"`
	GinMode       string `yaml:"gin_mode"`
	PublicBaseURL string `yaml:"public_base_url"`
	Timezone      string `yaml:"timezone"`
	CORSOrigin    string `yaml:"cors_origin"`
	SeedDemo      bool   `yaml:"seed_demo"`
}

// DatabaseConfig selects the storage backend: "mysql", "sqlite" or "mongo".
type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

type MongoConfig struct {
	URI      string `yaml:"uri"`
	Database string `yaml:"database"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}

type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// LimitsConfig bounds the public endpoints per client IP.
type LimitsConfig struct {
	JoinPerMinute  int `yaml:"join_per_minute"`
	LoginPerMinute int `yaml:"login_per_minute"`
}

// Load reads .env (when present), then the optional YAML file at path, then environment
// overrides, and validates the result.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		expanded := []byte(os.ExpandEnv(string(data)))
		if err := yaml.Unmarshal(expanded, &cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	setString(&c.App.Port, "PORT")
	setString(&c.App.GinMode, "GIN_MODE")
	setString(&c.App.PublicBaseURL, "PUBLIC_BASE_URL")
	setString(&c.App.Timezone, "TIMEZONE")
	setString(&c.App.CORSOrigin, "CORS_ORIGIN")
	setBool(&c.App.SeedDemo, "SEED_DEMO")

	setString(&c.Database.Driver, "DB_DRIVER")
	setString(&c.Database.DSN, "DB_DSN")
	setString(&c.Mongo.URI, "MONGO_URI")
	setString(&c.Mongo.Database, "MONGO_DATABASE")

	setString(&c.Redis.Address, "REDIS_ADDR")
	setString(&c.Redis.Password, "REDIS_PASSWORD")
	setInt(&c.Redis.DB, "REDIS_DB")

	setString(&c.SMTP.Host, "SMTP_HOST")
	setInt(&c.SMTP.Port, "SMTP_PORT")
	setString(&c.SMTP.Username, "SMTP_USERNAME")
	setString(&c.SMTP.Password, "SMTP_PASSWORD")
	setString(&c.SMTP.From, "EMAIL_FROM")

	setString(&c.Auth.JWTSecret, "JWT_SECRET")
	setString(&c.Logging.Level, "LOG_LEVEL")
	setString(&c.Logging.Format, "LOG_FORMAT")
}

func (c *Config) applyDefaults() {
	if c.App.Port == "" {
		c.App.Port = "8080"
	}
	if c.App.GinMode == "" {
		c.App.GinMode = "debug"
	}
	if c.App.PublicBaseURL == "" {
		c.App.PublicBaseURL = "http://localhost:" + c.App.Port
	}
	c.App.PublicBaseURL = strings.TrimRight(c.App.PublicBaseURL, "/")
	if c.App.Timezone == "" {
		c.App.Timezone = "UTC"
	}
	if c.App.CORSOrigin == "" {
		c.App.CORSOrigin = "*"
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.Driver == "sqlite" && c.Database.DSN == "" {
		c.Database.DSN = "waitlist.db"
	}
	if c.Mongo.Database == "" {
		c.Mongo.Database = "waitlist"
	}
	if c.SMTP.Port == 0 {
		c.SMTP.Port = 587
	}
	if c.Auth.TokenTTL == 0 {
		c.Auth.TokenTTL = 24 * time.Hour
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
	if c.Limits.JoinPerMinute == 0 {
		c.Limits.JoinPerMinute = 10
	}
	if c.Limits.LoginPerMinute == 0 {
		c.Limits.LoginPerMinute = 5
	}
}

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "mysql", "sqlite":
		if c.Database.DSN == "" {
			return errors.New("database dsn is required")
		}
	case "mongo":
		if c.Mongo.URI == "" {
			return errors.New("mongo uri is required")
		}
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}

	if c.Auth.JWTSecret == "" {
		return errors.New("jwt secret is required")
	}
	if _, err := time.LoadLocation(c.App.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.App.Timezone, err)
	}
	if c.SMTP.Host != "" && c.SMTP.From == "" {
		return errors.New("email sender is required when smtp is configured")
	}
	return nil
}

// Location returns the zone used for history time features. Validate guarantees it loads.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.App.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}
