package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/Ganezza/tvmasjid-sub000/internal/audio"
	"github.com/Ganezza/tvmasjid-sub000/internal/engine"
	"github.com/Ganezza/tvmasjid-sub000/internal/model"
	"github.com/Ganezza/tvmasjid-sub000/internal/playback"
	"github.com/Ganezza/tvmasjid-sub000/internal/prayer"
	"github.com/Ganezza/tvmasjid-sub000/internal/settings"
)

var simulateOpts struct {
	from     string
	to       string
	overlays bool
}

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Replay a day through the engine and print every decision",
	Long: `Replay ticks one second apart through the audio scheduler and the
overlay state machine, printing each playback command and, with
--overlays, each overlay transition. Nothing is played.`,
	RunE: runSimulate,
}

func init() {
	rootCmd.AddCommand(simulateCmd)
	f := simulateCmd.Flags()
	f.StringVar(&simulateOpts.from, "from", "00:00", "first tick, HH:MM")
	f.StringVar(&simulateOpts.to, "to", "23:59", "last tick, HH:MM (inclusive to the minute's end)")
	f.BoolVar(&simulateOpts.overlays, "overlays", false, "print overlay transitions")
}

func clockOn(d time.Time, hhmm string) (time.Time, error) {
	c, err := time.Parse("15:04", hhmm)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid clock %q: %w", hhmm, err)
	}
	return time.Date(d.Year(), d.Month(), d.Day(), c.Hour(), c.Minute(), 0, 0, d.Location()), nil
}

func runSimulate(cmd *cobra.Command, args []string) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	d, err := day(s.Location())
	if err != nil {
		return err
	}
	from, err := clockOn(d, simulateOpts.from)
	if err != nil {
		return err
	}
	to, err := clockOn(d, simulateOpts.to)
	if err != nil {
		return err
	}
	return simulate(cmd.OutOrStdout(), prayer.NewAdhanCalculator(), s, from, to.Add(59*time.Second), simulateOpts.overlays)
}

func describe(cmd audio.Command) string {
	switch cmd.Op {
	case audio.OpPlay:
		return fmt.Sprintf("play %-10s %s (%s)", cmd.Trigger.Kind, cmd.Source, cmd.Trigger.Prayer)
	case audio.OpResume:
		return fmt.Sprintf("resume %-8s %s at %s", cmd.Trigger.Kind, cmd.Source, cmd.Position.Truncate(time.Second))
	}
	return cmd.Op.String()
}

// simulate ticks every second in [from, to] and writes one line per decision.
func simulate(w io.Writer, calc prayer.Calculator, s model.Settings, from, to time.Time, overlays bool) error {
	now := from
	clock := func() time.Time { return now }
	eng := engine.New(engine.Config{
		Calculator: calc,
		Store:      settings.NewMemoryStore(s),
		Driver:     playback.NewDryWithClock(clock),
		Now:        clock,
	})
	defer eng.Close()
	if err := eng.Start(context.Background()); err != nil {
		return err
	}

	fmt.Fprintf(w, "simulating %s to %s\n", from.Format("2006-01-02 15:04:05"), to.Format("15:04:05"))
	for ; !now.After(to); now = now.Add(time.Second) {
		u := eng.Tick(now)
		eng.Drain()
		for _, c := range u.Commands {
			fmt.Fprintf(w, "%s  %s\n", now.Format("15:04:05"), describe(c))
		}
		if !overlays {
			continue
		}
		for _, ev := range u.Events {
			fmt.Fprintf(w, "%s  overlay %s %s %s %s\n", now.Format("15:04:05"), ev.Family, ev.Kind, ev.Phase, ev.Prayer)
		}
	}
	return nil
}
