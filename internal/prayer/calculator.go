package prayer

import (
	"fmt"
	"strings"
	"time"

	calc "github.com/furkan000/adhango/pkg/calc"
	data "github.com/furkan000/adhango/pkg/data"
	util "github.com/furkan000/adhango/pkg/util"

	"github.com/Ganezza/tvmasjid-sub000/internal/model"
)

var methods = map[string]calc.CalculationMethod{
	"muslimworldleague": calc.MUSLIM_WORLD_LEAGUE,
	"egyptian":          calc.EGYPTIAN,
	"karachi":           calc.KARACHI,
	"ummalqura":         calc.UMM_AL_QURA,
	"dubai":             calc.DUBAI,
	"northamerica":      calc.NORTH_AMERICA,
	"kuwait":            calc.KUWAIT,
	"qatar":             calc.QATAR,
	"singapore":         calc.SINGAPORE,
	"turkey":            calc.TURKEY,
}

// Method maps a settings method id such as "MuslimWorldLeague" or
// "muslim_world_league" to the calculation method.
func Method(id string) (calc.CalculationMethod, error) {
	key := strings.ToLower(strings.NewReplacer("_", "", "-", "", " ", "").Replace(id))
	m, ok := methods[key]
	if !ok {
		return 0, fmt.Errorf("%q: %w", id, ErrUnknownMethod)
	}
	return m, nil
}

// AdhanCalculator computes astronomical times with adhango.
type AdhanCalculator struct{}

func NewAdhanCalculator() *AdhanCalculator {
	return &AdhanCalculator{}
}

func (c *AdhanCalculator) Compute(day time.Time, s model.Settings) (model.PrayerSchedule, error) {
	method, err := Method(s.CalculationMethod)
	if err != nil {
		return model.PrayerSchedule{}, err
	}
	coords, err := util.NewCoordinates(s.Latitude, s.Longitude)
	if err != nil {
		return model.PrayerSchedule{}, fmt.Errorf("coordinates: %w", err)
	}

	madhab := calc.SHAFI_HANBALI_MALIKI
	if s.Madhab == "hanafi" {
		madhab = calc.HANAFI
	}
	params := calc.NewCalculationParametersBuilder().
		SetMadhab(madhab).
		SetMethod(method).
		Build()

	loc := s.Location()
	local := day.In(loc)
	date := data.NewDateComponents(time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC))

	times, err := calc.NewPrayerTimes(coords, date, params)
	if err != nil {
		return model.PrayerSchedule{}, fmt.Errorf("calculate prayer times: %w", err)
	}
	if err := times.SetTimeZone(loc.String()); err != nil {
		return model.PrayerSchedule{}, fmt.Errorf("set timezone %s: %w", loc, err)
	}

	raw := Times{
		model.Fajr:    times.Fajr.Truncate(time.Minute),
		model.Sunrise: times.Sunrise.Truncate(time.Minute),
		model.Dhuhr:   times.Dhuhr.Truncate(time.Minute),
		model.Asr:     times.Asr.Truncate(time.Minute),
		model.Maghrib: times.Maghrib.Truncate(time.Minute),
		model.Isha:    times.Isha.Truncate(time.Minute),
	}
	return Build(local, raw, s)
}
