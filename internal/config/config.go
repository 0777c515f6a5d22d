package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const DefaultConfigPath = "config.yaml"

// AppConfig holds runtime startup configuration loaded from YAML.
// It is read once at process start and never reloaded.
type AppConfig struct {
	Port           int      `yaml:"port"`
	DSN            string   `yaml:"dsn"` // MySQL DSN
	RedisURL       string   `yaml:"redis_url"`
	Env            string   `yaml:"env"` // "development" | "production"
	JWTSecret      string   `yaml:"jwt_secret"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	S3             S3Config `yaml:"s3"`
}

// S3Config configures the object-storage bucket for media blobs.
// Endpoint is the internal storage endpoint used for uploads;
// PublicEndpoint is what clients see in returned URLs.
type S3Config struct {
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	PublicEndpoint  string `yaml:"public_endpoint"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	Prefix          string `yaml:"prefix"`
	PathStyle       bool   `yaml:"path_style"`
}

func (c *AppConfig) IsDev() bool { return c.Env != "production" }

// Load reads and validates the YAML config file, applying environment
// overrides for secrets so deployments can keep them out of the file.
func Load(path string) (*AppConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := &AppConfig{Port: 3000, Env: "development"}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyEnvOverrides(cfg)

	if cfg.DSN == "" {
		return nil, errors.New("config: dsn is required")
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("config: jwt_secret is required")
	}
	cfg.S3.Prefix = strings.Trim(cfg.S3.Prefix, "/")

	return cfg, nil
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := os.Getenv("TIDESAIL_DSN"); v != "" {
		cfg.DSN = v
	}
	if v := os.Getenv("TIDESAIL_REDIS_URL"); v != "" {
		cfg.RedisURL = v
	}
	if v := os.Getenv("TIDESAIL_JWT_SECRET"); v != "" {
		cfg.JWTSecret = v
	}
	if v := os.Getenv("TIDESAIL_ENV"); v != "" {
		cfg.Env = v
	}
	if v := os.Getenv("TIDESAIL_S3_ACCESS_KEY_ID"); v != "" {
		cfg.S3.AccessKeyID = v
	}
	if v := os.Getenv("TIDESAIL_S3_SECRET_ACCESS_KEY"); v != "" {
		cfg.S3.SecretAccessKey = v
	}
}
