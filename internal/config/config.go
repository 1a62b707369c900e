// Package config holds the application configuration: credentials, storage
// client settings and observability options, loaded from YAML with
// environment overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v2"
)

// Configuration represents the complete application configuration
type Configuration struct {
	Global      GlobalConfig      `yaml:"global"`
	Credentials CredentialsConfig `yaml:"credentials"`
	Storage     StorageConfig     `yaml:"storage"`
	Metrics     MetricsConfig     `yaml:"metrics"`
}

// GlobalConfig represents global application settings
type GlobalConfig struct {
	LogLevel string `yaml:"log_level"`
	LogFile  string `yaml:"log_file"`
}

// CredentialsConfig carries the credential mapping handed to the adapter.
// Both key conventions are accepted; access_key_id/secret_access_key win
// over username/password when both are present.
type CredentialsConfig struct {
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	Username        string `yaml:"username"`
	Password        string `yaml:"password"`
	Region          string `yaml:"region"`
}

// Map returns the credential mapping in the form the credential provider
// contract defines.
func (c CredentialsConfig) Map() map[string]string {
	return map[string]string{
		"access_key_id":     c.AccessKeyID,
		"secret_access_key": c.SecretAccessKey,
		"username":          c.Username,
		"password":          c.Password,
		"region":            c.Region,
	}
}

// StorageConfig represents storage client settings
type StorageConfig struct {
	Region         string        `yaml:"region"`
	Endpoint       string        `yaml:"endpoint"`
	ForcePathStyle bool          `yaml:"force_path_style"`
	MaxRetries     int           `yaml:"max_retries"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// Accelerated upload settings
	EnableAcceleratedUpload    bool  `yaml:"enable_accelerated_upload"`
	AcceleratedUploadThreshold int64 `yaml:"accelerated_upload_threshold"`
	UploadConcurrency          int   `yaml:"upload_concurrency"`
}

// MetricsConfig represents metrics settings
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Port      int    `yaml:"port"`
	Path      string `yaml:"path"`
	Namespace string `yaml:"namespace"`
}

// NewDefault returns a configuration with sensible defaults
func NewDefault() *Configuration {
	return &Configuration{
		Global: GlobalConfig{
			LogLevel: "INFO",
			LogFile:  "",
		},
		Storage: StorageConfig{
			Region:                     "us-east-1",
			MaxRetries:                 3,
			ConnectTimeout:             10 * time.Second,
			RequestTimeout:             30 * time.Second,
			EnableAcceleratedUpload:    false,
			AcceleratedUploadThreshold: 32 * 1024 * 1024,
			UploadConcurrency:          4,
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Port:      8080,
			Path:      "/metrics",
			Namespace: "s3bridge",
		},
	}
}

// LoadFromFile loads configuration from a YAML file
func (c *Configuration) LoadFromFile(filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// LoadFromEnv loads configuration from environment variables
func (c *Configuration) LoadFromEnv() error {
	if val := os.Getenv("S3BRIDGE_LOG_LEVEL"); val != "" {
		c.Global.LogLevel = val
	}
	if val := os.Getenv("S3BRIDGE_REGION"); val != "" {
		c.Storage.Region = val
	}
	if val := os.Getenv("S3BRIDGE_ENDPOINT"); val != "" {
		c.Storage.Endpoint = val
	}
	if val := os.Getenv("S3BRIDGE_FORCE_PATH_STYLE"); val != "" {
		b, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("invalid S3BRIDGE_FORCE_PATH_STYLE: %w", err)
		}
		c.Storage.ForcePathStyle = b
	}
	if val := os.Getenv("S3BRIDGE_METRICS_PORT"); val != "" {
		port, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("invalid S3BRIDGE_METRICS_PORT: %w", err)
		}
		c.Metrics.Port = port
	}
	if val := os.Getenv("AWS_ACCESS_KEY_ID"); val != "" && c.Credentials.AccessKeyID == "" {
		c.Credentials.AccessKeyID = val
	}
	if val := os.Getenv("AWS_SECRET_ACCESS_KEY"); val != "" && c.Credentials.SecretAccessKey == "" {
		c.Credentials.SecretAccessKey = val
	}
	if val := os.Getenv("AWS_REGION"); val != "" && c.Credentials.Region == "" {
		c.Credentials.Region = val
	}
	return nil
}

// Validate checks the configuration for consistency
func (c *Configuration) Validate() error {
	switch strings.ToUpper(c.Global.LogLevel) {
	case "DEBUG", "INFO", "WARN", "ERROR":
	default:
		return fmt.Errorf("invalid log level: %s", c.Global.LogLevel)
	}

	if c.Storage.MaxRetries < 0 {
		return fmt.Errorf("max_retries cannot be negative")
	}
	if c.Storage.AcceleratedUploadThreshold < 0 {
		return fmt.Errorf("accelerated_upload_threshold cannot be negative")
	}
	if c.Storage.UploadConcurrency < 1 {
		return fmt.Errorf("upload_concurrency must be at least 1")
	}

	if c.Metrics.Enabled {
		if c.Metrics.Port < 1 || c.Metrics.Port > 65535 {
			return fmt.Errorf("invalid metrics port: %d", c.Metrics.Port)
		}
		if c.Metrics.Path == "" {
			return fmt.Errorf("metrics path cannot be empty")
		}
	}

	return nil
}
