// Package config loads comfyscope settings.
//
// Settings come from a TOML file, then COMFYSCOPE_* environment variables,
// then built-in defaults for anything still unset. Command-line flags are
// applied by the caller on top of the loaded value.
//
//	[classify]
//	text_encode_types = ["CLIPTextEncode", "CLIPTextEncodeSDXL"]
//	negative_slot = "negative"
//
//	[export]
//	filename = "comfyui_workflow.json"
//
//	[cache]
//	backend = "redis"
//	ttl = "168h"
//	redis_addr = "localhost:6379"
//
//	[server]
//	addr = ":8080"
//	max_upload_bytes = 33554432
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	cerrors "github.com/matzehuels/comfyscope/pkg/errors"
	cio "github.com/matzehuels/comfyscope/pkg/io"
	"github.com/matzehuels/comfyscope/pkg/workflow"
)

const (
	// FileName is the config file name inside the config directory.
	FileName = "config.toml"

	appDir = "comfyscope"
)

// ErrUnknownKeys is returned when the config file has keys no setting uses.
var ErrUnknownKeys = errors.New("unknown config keys")

// Config is the root configuration.
type Config struct {
	Classify ClassifyConfig `toml:"classify"`
	Export   ExportConfig   `toml:"export"`
	Cache    CacheConfig    `toml:"cache"`
	Server   ServerConfig   `toml:"server"`
}

// DefaultPath returns $XDG_CONFIG_HOME/comfyscope/config.toml, falling back
// to the user config directory.
func DefaultPath() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appDir, FileName), nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, appDir, FileName), nil
}

// Load reads the config file at path and finalizes all values.
//
// An empty path means [DefaultPath], which may be missing; an explicit path
// must exist.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return nil, fmt.Errorf("config path: %w", err)
		}
		path = p
	}

	if _, err := os.Stat(path); err == nil || explicit {
		if err := decode(path, cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}
	return cfg, nil
}

// Default returns a finalized config built from environment and defaults only.
func Default() (*Config, error) {
	cfg := &Config{}
	if err := cfg.Finalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Finalize applies defaults, environment variable overrides, and validation
// to every section.
func (c *Config) Finalize() error {
	if err := c.Classify.Finalize(); err != nil {
		return fmt.Errorf("classify: %w", err)
	}
	if err := c.Export.Finalize(); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	if err := c.Cache.Finalize(); err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	if err := c.Server.Finalize(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}

func decode(path string, cfg *Config) error {
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("%s: %w: %s", path, ErrUnknownKeys, strings.Join(keys, ", "))
	}
	return nil
}

// =============================================================================
// Classify
// =============================================================================

const (
	EnvClassifyTextEncodeTypes = "COMFYSCOPE_CLASSIFY_TEXT_ENCODE_TYPES"
	EnvClassifyNegativeSlot    = "COMFYSCOPE_CLASSIFY_NEGATIVE_SLOT"
)

// ClassifyConfig configures prompt classification.
type ClassifyConfig struct {
	TextEncodeTypes []string `toml:"text_encode_types"`
	NegativeSlot    string   `toml:"negative_slot"`
}

// Options returns the classifier options for this config.
func (c *ClassifyConfig) Options() workflow.ClassifyOptions {
	return workflow.ClassifyOptions{
		TextEncodeTypes: c.TextEncodeTypes,
		NegativeSlot:    c.NegativeSlot,
	}
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *ClassifyConfig) Finalize() error {
	c.loadEnv()
	c.loadDefaults()
	return c.validate()
}

func (c *ClassifyConfig) loadDefaults() {
	if len(c.TextEncodeTypes) == 0 {
		c.TextEncodeTypes = []string{workflow.DefaultTextEncodeType}
	}
	if c.NegativeSlot == "" {
		c.NegativeSlot = workflow.DefaultNegativeSlot
	}
}

func (c *ClassifyConfig) loadEnv() {
	if v := os.Getenv(EnvClassifyTextEncodeTypes); v != "" {
		c.TextEncodeTypes = splitList(v)
	}
	if v := os.Getenv(EnvClassifyNegativeSlot); v != "" {
		c.NegativeSlot = v
	}
}

func (c *ClassifyConfig) validate() error {
	for _, t := range c.TextEncodeTypes {
		if strings.TrimSpace(t) == "" {
			return errors.New("text_encode_types contains an empty type")
		}
	}
	return nil
}

// =============================================================================
// Export
// =============================================================================

const EnvExportFilename = "COMFYSCOPE_EXPORT_FILENAME"

// DefaultExportFilename is the default name for exported workflow files.
const DefaultExportFilename = cio.DefaultFilename

// ExportConfig configures canonical export.
type ExportConfig struct {
	Filename string `toml:"filename"`
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *ExportConfig) Finalize() error {
	if v := os.Getenv(EnvExportFilename); v != "" {
		c.Filename = v
	}
	if c.Filename == "" {
		c.Filename = DefaultExportFilename
	}
	if err := cerrors.ValidateFilename(c.Filename); err != nil {
		return fmt.Errorf("filename %q: %w", c.Filename, err)
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
