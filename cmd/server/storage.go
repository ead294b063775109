package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/Ganezza/tvmasjid-sub000/internal/config"
	"github.com/Ganezza/tvmasjid-sub000/internal/model"
	"github.com/Ganezza/tvmasjid-sub000/internal/playback"
	"github.com/Ganezza/tvmasjid-sub000/internal/settings"
)

// InitSettingsStore selects, connects and starts the configured settings backend.
func InitSettingsStore(ctx context.Context, cfg *config.Config) (settings.Store, error) {
	switch cfg.SettingsBackend {
	case config.BackendFile:
		store, err := settings.NewFileStore(cfg.SettingsFile)
		if err != nil {
			return nil, err
		}
		if err := store.Start(); err != nil {
			_ = store.Close()
			return nil, err
		}
		log.Info().Str("file", cfg.SettingsFile).Msg("using file settings")
		return store, nil

	case config.BackendRedis:
		rdb := settings.NewRedisClient(cfg.RedisAddress, cfg.RedisUsername, cfg.RedisPassword)
		store := settings.NewRedisStore(rdb, cfg.RedisSettingsKey, cfg.RedisSettingsChannel)
		if err := store.Start(ctx); err != nil {
			_ = store.Close()
			return nil, err
		}
		log.Info().Str("address", cfg.RedisAddress).Str("key", cfg.RedisSettingsKey).Msg("using redis settings")
		return store, nil

	case config.BackendPostgres:
		db, err := settings.Connect(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("db init: %w", err)
		}
		if err := settings.RunMigrations(db, cfg.MigrationsPath); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("db migrate: %w", err)
		}
		store := settings.NewPostgresStore(db, cfg.DatabaseURL, cfg.DisplayID)
		if err := store.Start(); err != nil {
			_ = store.Close()
			return nil, err
		}
		log.Info().Msg("using postgres settings")
		return store, nil

	case config.BackendMemory:
		log.Warn().Msg("using built-in default settings")
		return settings.NewMemoryStore(model.DefaultSettings()), nil
	}
	return nil, fmt.Errorf("unknown settings backend %q", cfg.SettingsBackend)
}

// InitDriver selects the playback driver. The returned close function
// releases its resources.
func InitDriver(cfg *config.Config) (playback.Driver, func(), error) {
	switch cfg.PlaybackDriver {
	case config.DriverSpeaker:
		sp := playback.NewSpeaker(cfg.AudioRoot)
		log.Info().Str("root", cfg.AudioRoot).Msg("using local speaker")
		return sp, func() { _ = sp.Close() }, nil

	case config.DriverMQTT:
		client, err := playback.NewMQTTClient(cfg.MQTTBrokerURL, "tvmasjid-engine-"+cfg.DisplayID)
		if err != nil {
			return nil, nil, err
		}
		d := playback.NewMQTTDriver(client, cfg.DisplayID)
		if err := d.Start(); err != nil {
			_ = d.Close()
			return nil, nil, err
		}
		return d, func() { _ = d.Close() }, nil

	case config.DriverDry:
		log.Info().Msg("dry playback: commands are logged only")
		return playback.NewDry(), func() {}, nil
	}
	return nil, nil, fmt.Errorf("unknown playback driver %q", cfg.PlaybackDriver)
}
