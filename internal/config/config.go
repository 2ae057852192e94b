// Package config loads engine configuration from environment variables,
// after an optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/rdogmartin/gallerymeta/core"
	"github.com/rdogmartin/gallerymeta/core/definition"
)

// Config holds all engine configuration.
type Config struct {
	GalleryID int

	// Display
	DateTimeFormat string
	Locale         string

	// Optional YAML file overriding the built-in metadata definitions.
	DefinitionsFile string

	// Persistence
	AllowFileWrites bool
	PersistDefault  bool
	TempDir         string

	// External encoder
	EncoderPath    string
	EncoderTimeout time.Duration

	// Logging
	LogLevel  string
	LogFormat string
}

// Load reads .env (when present) and then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv(), nil
}

// FromEnv builds a Config from the environment only.
func FromEnv() *Config {
	return &Config{
		GalleryID: getIntEnv("GALLERY_ID", 1),

		DateTimeFormat: getEnv("DATETIME_FORMAT", core.DefaultDateTimeFormat),
		Locale:         getEnv("LOCALE", "en-US"),

		DefinitionsFile: getEnv("METADATA_DEFINITIONS", ""),

		AllowFileWrites: getBoolEnv("ALLOW_FILE_WRITES", true),
		PersistDefault:  getBoolEnv("PERSIST_META_TO_FILE", true),
		TempDir:         getEnv("TEMP_DIR", ""),

		EncoderPath:    getEnv("ENCODER_PATH", "ffmpeg"),
		EncoderTimeout: getDurationEnv("ENCODER_TIMEOUT", 30*time.Second),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
	}
}

// Gallery returns the display settings handed to resolvers.
func (c *Config) Gallery() core.GallerySettings {
	return core.GallerySettings{
		GalleryID:      c.GalleryID,
		DateTimeFormat: c.DateTimeFormat,
		Locale:         c.Locale,
		PersistToFile:  c.PersistDefault,
	}
}

// Registry returns the metadata definitions: the built-in table, merged
// with DefinitionsFile when set.
func (c *Config) Registry() (*definition.Registry, error) {
	if c.DefinitionsFile == "" {
		return definition.Default(), nil
	}
	return definition.LoadFile(c.DefinitionsFile)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
