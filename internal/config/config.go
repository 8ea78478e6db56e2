package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	AWS      AWSConfig      `yaml:"aws"`
	JWT      JWTConfig      `yaml:"jwt"`
	Log      LogConfig      `yaml:"log"`
	APNs     APNsConfig     `yaml:"apns"`
	Geocoder GeocoderConfig `yaml:"geocoder"`
	Feed     FeedConfig     `yaml:"feed"`
	Jobs     JobsConfig     `yaml:"jobs"`
	Admin    AdminConfig    `yaml:"admin"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port           int      `yaml:"port"`
	Host           string   `yaml:"host"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
	MaxConns int32  `yaml:"max_conns"`
}

// RedisConfig holds the event bus / cache connection
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// AWSConfig holds S3 configuration for profile photos
type AWSConfig struct {
	Region    string `yaml:"region"`
	S3Bucket  string `yaml:"s3_bucket"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Endpoint  string `yaml:"endpoint"`
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret string `yaml:"secret"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// APNsConfig holds Apple push credentials. An empty KeyPath disables push.
type APNsConfig struct {
	KeyPath    string `yaml:"key_path"`
	KeyID      string `yaml:"key_id"`
	TeamID     string `yaml:"team_id"`
	Topic      string `yaml:"topic"`
	Production bool   `yaml:"production"`
}

// GeocoderConfig holds the geocoding API settings
type GeocoderConfig struct {
	BaseURL       string        `yaml:"base_url"`
	APIKey        string        `yaml:"api_key"`
	DefaultRegion string        `yaml:"default_region"`
	Timeout       time.Duration `yaml:"timeout"`
	CacheTTL      time.Duration `yaml:"cache_ttl"`
}

// FeedConfig holds proximity feed settings
type FeedConfig struct {
	RadiusMiles float64 `yaml:"radius_miles"`
}

// JobsConfig holds background job settings
type JobsConfig struct {
	Timezone  string `yaml:"timezone"`
	CleanupAt string `yaml:"cleanup_at"`
}

// AdminConfig holds the admin allow-list
type AdminConfig struct {
	Emails []string `yaml:"emails"`
}

// Location resolves the jobs timezone
func (c *JobsConfig) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// CleanupClock parses CleanupAt into hour and minute
func (c *JobsConfig) CleanupClock() (int, int, error) {
	t, err := time.Parse("15:04", c.CleanupAt)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid cleanup_at %q: %w", c.CleanupAt, err)
	}
	return t.Hour(), t.Minute(), nil
}

// IsAdmin reports whether email is on the allow-list
func (c *AdminConfig) IsAdmin(email string) bool {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return false
	}
	for _, e := range c.Emails {
		if strings.ToLower(strings.TrimSpace(e)) == email {
			return true
		}
	}
	return false
}

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

// Parse decodes YAML, applies defaults and environment overrides, and validates
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyDefaults()
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if len(c.Server.AllowedOrigins) == 0 {
		c.Server.AllowedOrigins = []string{"*"}
	}
	if c.Database.Port == 0 {
		c.Database.Port = 5432
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Geocoder.BaseURL == "" {
		c.Geocoder.BaseURL = "https://maps.googleapis.com/maps/api/geocode/json"
	}
	if c.Geocoder.Timeout == 0 {
		c.Geocoder.Timeout = 5 * time.Second
	}
	if c.Geocoder.CacheTTL == 0 {
		c.Geocoder.CacheTTL = 24 * time.Hour
	}
	if c.Feed.RadiusMiles == 0 {
		c.Feed.RadiusMiles = 10
	}
	if c.Jobs.Timezone == "" {
		c.Jobs.Timezone = "America/Los_Angeles"
	}
	if c.Jobs.CleanupAt == "" {
		c.Jobs.CleanupAt = "00:00"
	}
}

func (c *Config) applyEnv() {
	if v := os.Getenv("PICKLEBOOKIE_JWT_SECRET"); v != "" {
		c.JWT.Secret = v
	}
	if v := os.Getenv("PICKLEBOOKIE_DATABASE_PASSWORD"); v != "" {
		c.Database.Password = v
	}
}

// Validate ensures required values are present and well formed
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return errors.New("jwt.secret is required")
	}
	if c.Feed.RadiusMiles < 0 {
		return errors.New("feed.radius_miles must be positive")
	}
	if _, err := c.Jobs.Location(); err != nil {
		return fmt.Errorf("invalid jobs.timezone: %w", err)
	}
	if _, _, err := c.Jobs.CleanupClock(); err != nil {
		return err
	}
	return nil
}

// DSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DSN() string {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
	if c.MaxConns > 0 {
		dsn += fmt.Sprintf(" pool_max_conns=%d", c.MaxConns)
	}
	return dsn
}
