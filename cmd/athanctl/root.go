// Package main provides athanctl, an operator tool for checking prayer times
// and replaying a day of audio and overlay decisions.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Ganezza/tvmasjid-sub000/internal/model"
	"github.com/Ganezza/tvmasjid-sub000/internal/settings"
)

var globalOpts struct {
	settingsFile string
	date         string
	latitude     float64
	longitude    float64
	method       string
	timezone     string
	verbose      bool
}

var rootCmd = &cobra.Command{
	Use:   "athanctl",
	Short: "Inspect the prayer schedule and replay a day of the display engine",
	Long: `athanctl computes prayer times with the same settings the display uses
and can replay a whole day through the audio and overlay engine without
producing any sound.

Settings are read from --settings (TOML, YAML or JSON) or default to the
built-in values. --lat, --lon, --method and --tz override single fields.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := zerolog.WarnLevel
		if globalOpts.verbose {
			level = zerolog.DebugLevel
		}
		zerolog.SetGlobalLevel(level)
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
	},
}

func init() {
	f := rootCmd.PersistentFlags()
	f.StringVarP(&globalOpts.settingsFile, "settings", "s", "", "settings file (.toml, .yaml, .json)")
	f.StringVarP(&globalOpts.date, "date", "d", "", "date as YYYY-MM-DD (default today)")
	f.Float64Var(&globalOpts.latitude, "lat", 0, "override latitude")
	f.Float64Var(&globalOpts.longitude, "lon", 0, "override longitude")
	f.StringVar(&globalOpts.method, "method", "", "override calculation method")
	f.StringVar(&globalOpts.timezone, "tz", "", "override IANA timezone")
	f.BoolVarP(&globalOpts.verbose, "verbose", "v", false, "verbose logging")
}

// loadSettings applies flag overrides on top of the settings file.
func loadSettings(cmd *cobra.Command) (model.Settings, error) {
	s := model.DefaultSettings()
	if globalOpts.settingsFile != "" {
		store, err := settings.NewFileStore(globalOpts.settingsFile)
		if err != nil {
			return s, err
		}
		defer store.Close()
		if s, err = store.Snapshot(context.Background()); err != nil {
			return s, err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("lat") {
		s.Latitude = globalOpts.latitude
	}
	if flags.Changed("lon") {
		s.Longitude = globalOpts.longitude
	}
	if globalOpts.method != "" {
		s.CalculationMethod = globalOpts.method
	}
	if globalOpts.timezone != "" {
		s.Timezone = globalOpts.timezone
	}
	if err := s.Validate(); err != nil {
		return s, fmt.Errorf("invalid settings: %w", err)
	}
	return s, nil
}

// day resolves --date to local midnight in loc.
func day(loc *time.Location) (time.Time, error) {
	if globalOpts.date == "" {
		now := time.Now().In(loc)
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc), nil
	}
	d, err := time.ParseInLocation(model.DateLayout, globalOpts.date, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --date %q: %w", globalOpts.date, err)
	}
	return d, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
