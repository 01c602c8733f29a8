package services

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server       ServerConfig       `yaml:"server"`
	Database     DatabaseConfig     `yaml:"database"`
	Preserved    PreservedConfig    `yaml:"preserved"`
	Availability AvailabilityConfig `yaml:"availability"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

// PreservedConfig selects where the preserved-username list comes from.
// Source is one of "settings" (database), "file" (Usernames below) or "s3".
type PreservedConfig struct {
	Source     string        `yaml:"source"`
	Usernames  []string      `yaml:"usernames,omitempty"`
	S3         S3Config      `yaml:"s3"`
	CacheTTL   time.Duration `yaml:"cache_ttl"`
	PatternTTL time.Duration `yaml:"pattern_ttl"`
}

type S3Config struct {
	Endpoint       string `yaml:"endpoint"`
	Region         string `yaml:"region"`
	Bucket         string `yaml:"bucket"`
	Key            string `yaml:"key"`
	AccessKey      string `yaml:"access_key"`
	SecretKey      string `yaml:"secret_key"`
	UseSSL         bool   `yaml:"use_ssl"`
	ForcePathStyle bool   `yaml:"force_path_style"`
}

type AvailabilityConfig struct {
	QueryTimeout time.Duration `yaml:"query_timeout"`
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{Port: "8080"},
		Preserved: PreservedConfig{
			Source:     "settings",
			CacheTTL:   30 * time.Second,
			PatternTTL: 10 * time.Minute,
		},
		Availability: AvailabilityConfig{QueryTimeout: 5 * time.Second},
	}
}

// LoadConfig reads path over the defaults. A missing file yields the defaults.
// DATABASE_URL, PORT and PRESERVED_SOURCE override the file.
func LoadConfig(path string) (*Config, error) {
	config := defaultConfig()

	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}

	if v := os.Getenv("DATABASE_URL"); v != "" {
		config.Database.URL = v
	}
	if v := os.Getenv("PORT"); v != "" {
		config.Server.Port = v
	}
	if v := os.Getenv("PRESERVED_SOURCE"); v != "" {
		config.Preserved.Source = v
	}

	switch config.Preserved.Source {
	case "settings", "file", "s3":
	default:
		return nil, fmt.Errorf("unknown preserved source %q", config.Preserved.Source)
	}

	return config, nil
}
