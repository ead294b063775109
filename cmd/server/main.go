package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Ganezza/tvmasjid-sub000/internal/config"
	"github.com/Ganezza/tvmasjid-sub000/internal/engine"
	"github.com/Ganezza/tvmasjid-sub000/internal/playback"
	"github.com/Ganezza/tvmasjid-sub000/internal/prayer"
)

func main() {
	// load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	SetupLogging(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := InitSettingsStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.SettingsBackend).Msg("settings store init")
	}
	defer store.Close()

	driver, closeDriver, err := InitDriver(cfg)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.PlaybackDriver).Msg("playback driver init")
	}
	defer closeDriver()

	eng := engine.New(engine.Config{
		Calculator: prayer.NewAdhanCalculator(),
		Store:      store,
		Driver:     driver,
	})
	if err := eng.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("engine start")
	}

	if mq, ok := driver.(*playback.MQTTDriver); ok {
		go forwardOverlay(ctx, eng, mq)
	}

	// set up gin router
	r := gin.Default()
	RegisterRoutes(r, eng, LoadTemplates())
	srv := &http.Server{Addr: cfg.ServerAddress, Handler: r}
	go func() {
		log.Info().Str("address", cfg.ServerAddress).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	if err := eng.Run(ctx, engine.NewCronTicker(time.Local)); err != nil {
		log.Error().Err(err).Msg("engine stopped with error")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown")
	}
}

// forwardOverlay publishes overlay transitions to the screen over MQTT.
func forwardOverlay(ctx context.Context, eng *engine.Engine, mq *playback.MQTTDriver) {
	updates, cancel := eng.Subscribe(16)
	defer cancel()
	for {
		select {
		case u, ok := <-updates:
			if !ok {
				return
			}
			if len(u.Events) == 0 {
				continue
			}
			pctx, done := context.WithTimeout(ctx, 5*time.Second)
			if err := mq.PublishOverlay(pctx, u.Events); err != nil {
				log.Warn().Err(err).Msg("overlay publish failed")
			}
			done()
		case <-ctx.Done():
			return
		}
	}
}
