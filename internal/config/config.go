// Package config loads the optional YAML configuration file. Command-line
// flags are applied on top of the values returned here.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/tanq16/rangedl/internal/utils"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Connections     int
	RefreshInterval time.Duration
	BarWidth        int
	BufferSize      int
	Timeout         time.Duration
	UserAgent       string
	Ytdlp           YtdlpConfig
	S3              S3Config
}

// YtdlpConfig locates yt-dlp. CacheDir is where a downloaded yt-dlp binary is
// kept; segments always live next to their output file.
type YtdlpConfig struct {
	Path     string `yaml:"path"`
	Format   string `yaml:"format"`
	CacheDir string `yaml:"cache_dir"`
}

type S3Config struct {
	Profile string `yaml:"profile"`
}

// fileConfig mirrors the on-disk layout; durations and sizes stay strings
// until validated.
type fileConfig struct {
	Connections     int         `yaml:"connections"`
	RefreshInterval string      `yaml:"refresh_interval"`
	BarWidth        int         `yaml:"bar_width"`
	BufferSize      string      `yaml:"buffer_size"`
	Timeout         string      `yaml:"timeout"`
	UserAgent       string      `yaml:"user_agent"`
	Ytdlp           YtdlpConfig `yaml:"ytdlp"`
	S3              S3Config    `yaml:"s3"`
}

func Default() Config {
	return Config{
		Connections:     utils.DefaultConnections,
		RefreshInterval: 100 * time.Millisecond,
		BarWidth:        40,
		BufferSize:      utils.DefaultBufferSize,
		Timeout:         3 * time.Minute,
		UserAgent:       utils.ToolUserAgent,
		Ytdlp:           YtdlpConfig{Format: "18"},
		S3:              S3Config{Profile: "default"},
	}
}

// LoadFromFile reads path over Default(). Keys absent from the file keep
// their default values.
func LoadFromFile(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("error reading config: %w", err)
	}
	var raw fileConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return cfg, fmt.Errorf("%w: error parsing config %s: %v", utils.ErrInvalidInput, path, err)
	}
	if err := cfg.apply(raw); err != nil {
		return cfg, fmt.Errorf("%w: %s: %v", utils.ErrInvalidInput, path, err)
	}
	return cfg, nil
}

func (c *Config) apply(raw fileConfig) error {
	if raw.Connections < 0 {
		return fmt.Errorf("connections must be positive, got %d", raw.Connections)
	}
	if raw.Connections > 0 {
		c.Connections = raw.Connections
	}
	if raw.BarWidth < 0 {
		return fmt.Errorf("bar_width must be positive, got %d", raw.BarWidth)
	}
	if raw.BarWidth > 0 {
		c.BarWidth = raw.BarWidth
	}
	if raw.RefreshInterval != "" {
		d, err := parsePositiveDuration("refresh_interval", raw.RefreshInterval)
		if err != nil {
			return err
		}
		c.RefreshInterval = d
	}
	if raw.Timeout != "" {
		d, err := parsePositiveDuration("timeout", raw.Timeout)
		if err != nil {
			return err
		}
		c.Timeout = d
	}
	if raw.BufferSize != "" {
		size, err := humanize.ParseBytes(raw.BufferSize)
		if err != nil {
			return fmt.Errorf("invalid buffer_size %q: %v", raw.BufferSize, err)
		}
		if size == 0 || size > 64*1024*1024 {
			return fmt.Errorf("buffer_size %q out of range", raw.BufferSize)
		}
		c.BufferSize = int(size)
	}
	if raw.UserAgent != "" {
		c.UserAgent = raw.UserAgent
	}
	if raw.Ytdlp.Path != "" {
		c.Ytdlp.Path = raw.Ytdlp.Path
	}
	if raw.Ytdlp.Format != "" {
		c.Ytdlp.Format = raw.Ytdlp.Format
	}
	if raw.Ytdlp.CacheDir != "" {
		c.Ytdlp.CacheDir = raw.Ytdlp.CacheDir
	}
	if raw.S3.Profile != "" {
		c.S3.Profile = raw.S3.Profile
	}
	return nil
}

func parsePositiveDuration(key, value string) (time.Duration, error) {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %v", key, value, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %s", key, value)
	}
	return d, nil
}
