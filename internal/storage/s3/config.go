package s3

import (
	"time"
)

// Config represents storage client configuration
type Config struct {
	Region         string `yaml:"region"`
	Endpoint       string `yaml:"endpoint"`
	ForcePathStyle bool   `yaml:"force_path_style"`

	// Performance settings
	MaxRetries     int           `yaml:"max_retries"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// Accelerated upload settings. When enabled, uploads at or above the
	// threshold go through the CargoShip transporter with fallback to the
	// plain client on failure.
	EnableAcceleratedUpload    bool  `yaml:"enable_accelerated_upload"`
	AcceleratedUploadThreshold int64 `yaml:"accelerated_upload_threshold"`
	UploadConcurrency          int   `yaml:"upload_concurrency"`
}

// NewDefaultConfig returns a configuration with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Region:                     "us-east-1",
		MaxRetries:                 3,
		ConnectTimeout:             10 * time.Second,
		RequestTimeout:             30 * time.Second,
		EnableAcceleratedUpload:    false,
		AcceleratedUploadThreshold: 32 * 1024 * 1024,
		UploadConcurrency:          4,
	}
}
