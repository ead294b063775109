// Package prayer resolves the daily PrayerSchedule from calculated times and
// the admin-configured offsets.
package prayer

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Ganezza/tvmasjid-sub000/internal/model"
)

// ImsakLead is how far Imsak sits before the adjusted Fajr time.
const ImsakLead = 10 * time.Minute

var (
	ErrUnknownMethod = errors.New("unknown calculation method")
	ErrNoTimes       = errors.New("no usable prayer times")
)

// Calculator produces the schedule for the local calendar day containing day.
type Calculator interface {
	Compute(day time.Time, s model.Settings) (model.PrayerSchedule, error)
}

// Times are raw calculated timestamps before offsets are applied.
type Times map[model.Prayer]time.Time

// Build applies the per-prayer offsets to raw, derives Imsak from the
// adjusted Fajr and drops timestamps that do not belong to the day.
func Build(day time.Time, raw Times, s model.Settings) (model.PrayerSchedule, error) {
	loc := s.Location()
	local := day.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)

	sched := model.PrayerSchedule{
		Date:     start.Format(model.DateLayout),
		Friday:   start.Weekday() == time.Friday,
		Location: loc,
		Times:    make(map[model.Prayer]time.Time, len(model.AllPrayers)),
	}

	for _, p := range model.AllPrayers {
		if p == model.Imsak {
			continue
		}
		t, ok := raw[p]
		if !ok {
			continue
		}
		sched.Times[p] = t.In(loc).Add(s.Offsets.For(p))
	}
	if fajr, ok := sched.Times[model.Fajr]; ok {
		sched.Times[model.Imsak] = fajr.Add(-ImsakLead).Add(s.Offsets.For(model.Imsak))
	}

	Validate(&sched, start)
	if sched.Empty() {
		return sched, fmt.Errorf("%s: %w", sched.Date, ErrNoTimes)
	}
	return sched, nil
}

// Validate removes zero timestamps and timestamps more than half a day
// outside the calendar day starting at start. Removed prayers are absent
// from evaluation for the rest of the day.
func Validate(sched *model.PrayerSchedule, start time.Time) {
	lo := start.Add(-12 * time.Hour)
	hi := start.Add(36 * time.Hour)
	for p, t := range sched.Times {
		if t.IsZero() || t.Before(lo) || !t.Before(hi) {
			log.Warn().Str("prayer", string(p)).Time("time", t).Str("date", sched.Date).
				Msg("dropping invalid prayer time")
			delete(sched.Times, p)
		}
	}
}
