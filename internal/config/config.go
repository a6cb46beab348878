// Package config loads the service settings from DOCSCAN_* environment
// variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the service settings.
type Config struct {
	Addr         string
	LogLevel     string
	LogFormat    string
	MaxUploadMB  int
	MaxDimension int
	JPEGQuality  int
	StaticDir    string
	CORSOrigin   string
	OCRLanguage  string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// MaxUploadBytes returns the request body limit in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

// Load reads the configuration from the environment. Unset variables take
// their defaults; a set but invalid value is an error naming the variable.
func Load() (*Config, error) {
	cfg := &Config{
		Addr:        getEnv("DOCSCAN_ADDR", ":5000"),
		LogLevel:    strings.ToLower(getEnv("DOCSCAN_LOG_LEVEL", "info")),
		LogFormat:   strings.ToLower(getEnv("DOCSCAN_LOG_FORMAT", "console")),
		StaticDir:   getEnv("DOCSCAN_STATIC_DIR", ""),
		CORSOrigin:  getEnv("DOCSCAN_CORS_ORIGIN", "*"),
		OCRLanguage: getEnv("DOCSCAN_OCR_LANGUAGE", "eng"),
	}

	var err error
	if cfg.MaxUploadMB, err = getInt("DOCSCAN_MAX_UPLOAD_MB", 50, 1, 1024); err != nil {
		return nil, err
	}
	if cfg.MaxDimension, err = getInt("DOCSCAN_MAX_DIMENSION", 1600, 0, 20000); err != nil {
		return nil, err
	}
	if cfg.JPEGQuality, err = getInt("DOCSCAN_JPEG_QUALITY", 90, 1, 100); err != nil {
		return nil, err
	}
	if cfg.ReadTimeout, err = getDuration("DOCSCAN_READ_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.WriteTimeout, err = getDuration("DOCSCAN_WRITE_TIMEOUT", 60*time.Second); err != nil {
		return nil, err
	}

	switch cfg.LogFormat {
	case "console", "json":
	default:
		return nil, fmt.Errorf("DOCSCAN_LOG_FORMAT: must be console or json, got %q", cfg.LogFormat)
	}
	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getInt(key string, defaultVal, min, max int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(val))
	if err != nil {
		return 0, fmt.Errorf("%s: not an integer: %q", key, val)
	}
	if n < min || n > max {
		return 0, fmt.Errorf("%s: %d out of range [%d, %d]", key, n, min, max)
	}
	return n, nil
}

func getDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(strings.TrimSpace(val))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s: must be positive, got %s", key, d)
	}
	return d, nil
}
