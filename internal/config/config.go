package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Settings backends.
const (
	BackendFile     = "file"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Playback drivers.
const (
	DriverDry     = "dry"
	DriverSpeaker = "speaker"
	DriverMQTT    = "mqtt"
)

// Config holds environment-based settings
type Config struct {
	Environment   string
	ServerAddress string
	LogLevel      string
	DisplayID     string

	SettingsBackend string
	SettingsFile    string

	DatabaseURL    string
	MigrationsPath string

	RedisAddress         string
	RedisUsername        string
	RedisPassword        string
	RedisSettingsKey     string
	RedisSettingsChannel string

	PlaybackDriver string
	MQTTBrokerURL  string
	AudioRoot      string
}

func (c *Config) Development() bool {
	return c.Environment == "development"
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

// Load reads configuration from environment variables. Values from a .env
// file in the working directory are used when the variable is not already set.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	cfg := &Config{
		Environment:   getenv("APP_ENV", "production"),
		ServerAddress: getenv("SERVER_ADDRESS", ":8080"),
		LogLevel:      getenv("LOG_LEVEL", "info"),
		DisplayID:     getenv("DISPLAY_ID", "main"),

		SettingsBackend: strings.ToLower(getenv("SETTINGS_BACKEND", BackendFile)),
		SettingsFile:    getenv("SETTINGS_FILE", "./settings.toml"),

		DatabaseURL:    getenv("DATABASE_URL", ""),
		MigrationsPath: getenv("MIGRATIONS_PATH", "./migrations"),

		RedisAddress:         getenv("REDIS_ADDRESS", ""),
		RedisUsername:        getenv("REDIS_USERNAME", ""),
		RedisPassword:        getenv("REDIS_PASSWORD", ""),
		RedisSettingsKey:     getenv("REDIS_SETTINGS_KEY", "tvmasjid:settings"),
		RedisSettingsChannel: getenv("REDIS_SETTINGS_CHANNEL", "tvmasjid:settings:changed"),

		PlaybackDriver: strings.ToLower(getenv("PLAYBACK_DRIVER", DriverDry)),
		MQTTBrokerURL:  getenv("MQTT_BROKER_URL", "tcp://0.0.0.0:1883"),
		AudioRoot:      getenv("AUDIO_ROOT", "."),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the selected backends have what they need.
func (c *Config) Validate() error {
	switch c.SettingsBackend {
	case BackendFile:
		if c.SettingsFile == "" {
			return fmt.Errorf("SETTINGS_FILE is required")
		}
	case BackendRedis:
		if c.RedisAddress == "" {
			return fmt.Errorf("REDIS_ADDRESS is required for the redis settings backend")
		}
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres settings backend")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("unknown SETTINGS_BACKEND %q", c.SettingsBackend)
	}

	switch c.PlaybackDriver {
	case DriverDry, DriverSpeaker:
	case DriverMQTT:
		if c.MQTTBrokerURL == "" {
			return fmt.Errorf("MQTT_BROKER_URL is required for the mqtt playback driver")
		}
	default:
		return fmt.Errorf("unknown PLAYBACK_DRIVER %q", c.PlaybackDriver)
	}
	if c.DisplayID == "" {
		return fmt.Errorf("DISPLAY_ID is required")
	}
	return nil
}
