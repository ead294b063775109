package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Ganezza/tvmasjid-sub000/internal/model"
	"github.com/Ganezza/tvmasjid-sub000/internal/prayer"
)

var scheduleOpts struct {
	json bool
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Print the prayer schedule for a day",
	RunE:  runSchedule,
}

func init() {
	rootCmd.AddCommand(scheduleCmd)
	scheduleCmd.Flags().BoolVar(&scheduleOpts.json, "json", false, "print the board data as JSON")
}

func runSchedule(cmd *cobra.Command, args []string) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	d, err := day(s.Location())
	if err != nil {
		return err
	}
	sched, err := prayer.NewAdhanCalculator().Compute(d, s)
	if err != nil {
		return err
	}
	return printSchedule(cmd.OutOrStdout(), sched, s, scheduleOpts.json)
}

func printSchedule(w io.Writer, sched model.PrayerSchedule, s model.Settings, asJSON bool) error {
	page := sched.PageData(s.AdhanDuration() + s.IqomahCountdown())
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(page)
	}

	fmt.Fprintf(w, "%s (%s)\n\n", page.Date, sched.Location)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PRAYER\tTIME\tIQAMA")
	for _, p := range model.AllPrayers {
		at, ok := sched.At(p)
		if !ok {
			continue
		}
		iqama := "-"
		if p != model.Imsak && p != model.Sunrise && !sched.IsJumuah(p) {
			iqama = at.Add(s.AdhanDuration() + s.IqomahCountdown()).Format("15:04")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", p.Label(sched.Friday), at.Format("15:04"), iqama)
	}
	return tw.Flush()
}
