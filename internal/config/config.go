package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	toml "github.com/pelletier/go-toml/v2"
)

// ErrMissingAPIKey is returned by Validate when STEAM_API_KEY is not set.
var ErrMissingAPIKey = errors.New("STEAM_API_KEY environment variable not set")

// Config is built once at startup and handed to the Steam client, the image
// cache and the UI.
type Config struct {
	APIKey         string
	APIBaseURL     string
	CDNBaseURL     string
	Language       string
	CacheDir       string
	LogFile        string
	LogLevel       string
	RequestTimeout time.Duration
	ImageTimeout   time.Duration
	PollInterval   time.Duration
}

const (
	defaultConfigPath     = "~/.config/steamview/config.toml"
	defaultCacheDir       = "~/.cache/steamview/image_cache"
	defaultLogFile        = "~/.local/state/steamview/steamview.log"
	defaultAPIBaseURL     = "https://api.steampowered.com"
	defaultCDNBaseURL     = "https://steamcdn-a.akamaihd.net"
	defaultLanguage       = "english"
	defaultLogLevel       = "info"
	defaultRequestTimeout = 10 * time.Second
	defaultImageTimeout   = 5 * time.Second
	defaultPollInterval   = 100 * time.Millisecond
)

// fileConfig mirrors config.toml. Durations are strings ("10s", "250ms").
type fileConfig struct {
	APIBaseURL     string `toml:"api_base_url"`
	CDNBaseURL     string `toml:"cdn_base_url"`
	Language       string `toml:"language"`
	CacheDir       string `toml:"cache_dir"`
	LogFile        string `toml:"log_file"`
	LogLevel       string `toml:"log_level"`
	RequestTimeout string `toml:"request_timeout"`
	ImageTimeout   string `toml:"image_timeout"`
	PollInterval   string `toml:"poll_interval"`
}

// envConfig holds the variables that override the file.
type envConfig struct {
	APIKey   string `env:"STEAM_API_KEY"`
	CacheDir string `env:"STEAMVIEW_CACHE_DIR"`
	LogFile  string `env:"STEAMVIEW_LOG_FILE"`
	LogLevel string `env:"STEAMVIEW_LOG_LEVEL"`
}

// Default returns a Config populated with built-in defaults and no API key.
func Default() Config {
	return Config{
		APIBaseURL:     defaultAPIBaseURL,
		CDNBaseURL:     defaultCDNBaseURL,
		Language:       defaultLanguage,
		CacheDir:       mustExpand(defaultCacheDir),
		LogFile:        mustExpand(defaultLogFile),
		LogLevel:       defaultLogLevel,
		RequestTimeout: defaultRequestTimeout,
		ImageTimeout:   defaultImageTimeout,
		PollInterval:   defaultPollInterval,
	}
}

// Load reads the optional TOML file at path (default location when empty),
// applies environment overrides and returns the result. A missing file is not
// an error. Load does not require the API key; call Validate for that.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()
	if err := applyFile(&cfg, resolved); err != nil {
		return Config{}, err
	}

	var overrides envConfig
	if err := env.Parse(&overrides); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.APIKey = strings.TrimSpace(overrides.APIKey)
	if dir := strings.TrimSpace(overrides.CacheDir); dir != "" {
		cfg.CacheDir = mustExpand(dir)
	}
	if file := strings.TrimSpace(overrides.LogFile); file != "" {
		cfg.LogFile = mustExpand(file)
	}
	if level := strings.TrimSpace(overrides.LogLevel); level != "" {
		cfg.LogLevel = strings.ToLower(level)
	}

	return cfg, nil
}

// Validate reports configuration that makes the client unusable.
func (c Config) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return ErrMissingAPIKey
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive, got %s", c.RequestTimeout)
	}
	if c.ImageTimeout <= 0 {
		return fmt.Errorf("image_timeout must be positive, got %s", c.ImageTimeout)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll_interval must be positive, got %s", c.PollInterval)
	}
	if strings.TrimSpace(c.CacheDir) == "" {
		return fmt.Errorf("cache_dir is empty")
	}
	return nil
}

func applyFile(cfg *Config, path string) error {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("open config: %w", err)
	}
	defer func() { _ = file.Close() }()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	var raw fileConfig
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}

	if v := strings.TrimSpace(raw.APIBaseURL); v != "" {
		cfg.APIBaseURL = strings.TrimRight(v, "/")
	}
	if v := strings.TrimSpace(raw.CDNBaseURL); v != "" {
		cfg.CDNBaseURL = strings.TrimRight(v, "/")
	}
	if v := strings.TrimSpace(raw.Language); v != "" {
		cfg.Language = v
	}
	if v := strings.TrimSpace(raw.CacheDir); v != "" {
		cfg.CacheDir = mustExpand(v)
	}
	if v := strings.TrimSpace(raw.LogFile); v != "" {
		cfg.LogFile = mustExpand(v)
	}
	if v := strings.TrimSpace(raw.LogLevel); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}

	durations := []struct {
		name  string
		value string
		dest  *time.Duration
	}{
		{"request_timeout", raw.RequestTimeout, &cfg.RequestTimeout},
		{"image_timeout", raw.ImageTimeout, &cfg.ImageTimeout},
		{"poll_interval", raw.PollInterval, &cfg.PollInterval},
	}
	for _, d := range durations {
		v := strings.TrimSpace(d.value)
		if v == "" {
			continue
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse config %s: %w", d.name, err)
		}
		*d.dest = parsed
	}
	return nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
