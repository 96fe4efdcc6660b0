package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	EnvCacheBackend       = "COMFYSCOPE_CACHE_BACKEND"
	EnvCacheTTL           = "COMFYSCOPE_CACHE_TTL"
	EnvCacheDir           = "COMFYSCOPE_CACHE_DIR"
	EnvCachePrefix        = "COMFYSCOPE_CACHE_PREFIX"
	EnvCacheRedisAddr     = "COMFYSCOPE_CACHE_REDIS_ADDR"
	EnvCacheRedisPassword = "COMFYSCOPE_CACHE_REDIS_PASSWORD"
	EnvCacheRedisDB       = "COMFYSCOPE_CACHE_REDIS_DB"
)

// Cache backends.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendNone  = "none"
)

// CacheConfig selects and configures the result cache.
type CacheConfig struct {
	Backend string `toml:"backend"`
	TTL     string `toml:"ttl"`

	// Dir overrides the file backend directory. Empty uses the user cache dir.
	Dir string `toml:"dir"`

	// Prefix namespaces keys in a shared Redis.
	Prefix string `toml:"prefix"`

	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`
}

// TTLDuration returns TTL as a time.Duration.
func (c *CacheConfig) TTLDuration() time.Duration {
	d, _ := time.ParseDuration(c.TTL)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *CacheConfig) Finalize() error {
	if err := c.loadEnv(); err != nil {
		return err
	}
	c.loadDefaults()
	return c.validate()
}

func (c *CacheConfig) loadDefaults() {
	if c.Backend == "" {
		c.Backend = BackendFile
	}
	if c.TTL == "" {
		c.TTL = "168h"
	}
	if c.Prefix == "" {
		c.Prefix = "comfyscope:"
	}
	if c.RedisAddr == "" {
		c.RedisAddr = "localhost:6379"
	}
}

func (c *CacheConfig) loadEnv() error {
	if v := os.Getenv(EnvCacheBackend); v != "" {
		c.Backend = v
	}
	if v := os.Getenv(EnvCacheTTL); v != "" {
		c.TTL = v
	}
	if v := os.Getenv(EnvCacheDir); v != "" {
		c.Dir = v
	}
	if v := os.Getenv(EnvCachePrefix); v != "" {
		c.Prefix = v
	}
	if v := os.Getenv(EnvCacheRedisAddr); v != "" {
		c.RedisAddr = v
	}
	if v := os.Getenv(EnvCacheRedisPassword); v != "" {
		c.RedisPassword = v
	}
	if v := os.Getenv(EnvCacheRedisDB); v != "" {
		db, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvCacheRedisDB, err)
		}
		c.RedisDB = db
	}
	return nil
}

func (c *CacheConfig) validate() error {
	switch c.Backend {
	case BackendFile, BackendRedis, BackendNone:
	default:
		return fmt.Errorf("unknown backend %q (want %s, %s or %s)", c.Backend, BackendFile, BackendRedis, BackendNone)
	}
	d, err := time.ParseDuration(c.TTL)
	if err != nil {
		return fmt.Errorf("invalid ttl: %w", err)
	}
	if d < 0 {
		return fmt.Errorf("ttl must not be negative, got %s", c.TTL)
	}
	if c.RedisDB < 0 {
		return fmt.Errorf("redis_db must not be negative, got %d", c.RedisDB)
	}
	return nil
}
