package prayer

import (
	"fmt"
	"time"

	"github.com/Ganezza/tvmasjid-sub000/internal/model"
)

// StaticCalculator returns the same wall-clock times ("15:04" or
// "15:04:05") every day. Used by the simulator and in tests.
type StaticCalculator map[model.Prayer]string

func (c StaticCalculator) Compute(day time.Time, s model.Settings) (model.PrayerSchedule, error) {
	loc := s.Location()
	local := day.In(loc)
	raw := make(Times, len(c))
	for p, clock := range c {
		t, err := parseClock(clock)
		if err != nil {
			return model.PrayerSchedule{}, fmt.Errorf("%s: %w", p, err)
		}
		raw[p] = time.Date(local.Year(), local.Month(), local.Day(),
			t.Hour(), t.Minute(), t.Second(), 0, loc)
	}
	return Build(local, raw, s)
}

func parseClock(v string) (time.Time, error) {
	if t, err := time.Parse("15:04:05", v); err == nil {
		return t, nil
	}
	return time.Parse("15:04", v)
}
