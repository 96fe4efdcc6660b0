package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	EnvServerAddr            = "COMFYSCOPE_SERVER_ADDR"
	EnvServerMaxUploadBytes  = "COMFYSCOPE_SERVER_MAX_UPLOAD_BYTES"
	EnvServerReadTimeout     = "COMFYSCOPE_SERVER_READ_TIMEOUT"
	EnvServerWriteTimeout    = "COMFYSCOPE_SERVER_WRITE_TIMEOUT"
	EnvServerShutdownTimeout = "COMFYSCOPE_SERVER_SHUTDOWN_TIMEOUT"
)

// DefaultMaxUploadBytes caps uploaded images at 32 MiB.
const DefaultMaxUploadBytes = 32 << 20

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Addr            string `toml:"addr"`
	MaxUploadBytes  int64  `toml:"max_upload_bytes"`
	ReadTimeout     string `toml:"read_timeout"`
	WriteTimeout    string `toml:"write_timeout"`
	ShutdownTimeout string `toml:"shutdown_timeout"`
}

// ReadTimeoutDuration returns ReadTimeout as a time.Duration.
func (c *ServerConfig) ReadTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ReadTimeout)
	return d
}

// WriteTimeoutDuration returns WriteTimeout as a time.Duration.
func (c *ServerConfig) WriteTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.WriteTimeout)
	return d
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *ServerConfig) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *ServerConfig) Finalize() error {
	if err := c.loadEnv(); err != nil {
		return err
	}
	c.loadDefaults()
	return c.validate()
}

func (c *ServerConfig) loadDefaults() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
	if c.MaxUploadBytes == 0 {
		c.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if c.ReadTimeout == "" {
		c.ReadTimeout = "30s"
	}
	if c.WriteTimeout == "" {
		c.WriteTimeout = "60s"
	}
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "10s"
	}
}

func (c *ServerConfig) loadEnv() error {
	if v := os.Getenv(EnvServerAddr); v != "" {
		c.Addr = v
	}
	if v := os.Getenv(EnvServerMaxUploadBytes); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvServerMaxUploadBytes, err)
		}
		c.MaxUploadBytes = n
	}
	if v := os.Getenv(EnvServerReadTimeout); v != "" {
		c.ReadTimeout = v
	}
	if v := os.Getenv(EnvServerWriteTimeout); v != "" {
		c.WriteTimeout = v
	}
	if v := os.Getenv(EnvServerShutdownTimeout); v != "" {
		c.ShutdownTimeout = v
	}
	return nil
}

func (c *ServerConfig) validate() error {
	if c.MaxUploadBytes < 0 {
		return fmt.Errorf("max_upload_bytes must be positive, got %d", c.MaxUploadBytes)
	}
	for name, v := range map[string]string{
		"read_timeout":     c.ReadTimeout,
		"write_timeout":    c.WriteTimeout,
		"shutdown_timeout": c.ShutdownTimeout,
	} {
		if _, err := time.ParseDuration(v); err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
	}
	return nil
}
