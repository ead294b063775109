package prayer

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ganezza/tvmasjid-sub000/internal/model"
)

func utcSettings() model.Settings {
	s := model.DefaultSettings()
	s.Timezone = "UTC"
	return s
}

func at(day time.Time, hh, mm int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), hh, mm, 0, 0, time.UTC)
}

func TestBuild_ImsakDerivedFromAdjustedFajr(t *testing.T) {
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	s := utcSettings()

	sched, err := Build(day, Times{model.Fajr: at(day, 4, 30)}, s)
	require.NoError(t, err)

	imsak, ok := sched.At(model.Imsak)
	require.True(t, ok)
	assert.Equal(t, at(day, 4, 20), imsak)

	s.Offsets.Fajr = 2
	s.Offsets.Imsak = -3
	sched, err = Build(day, Times{model.Fajr: at(day, 4, 30)}, s)
	require.NoError(t, err)
	fajr, _ := sched.At(model.Fajr)
	imsak, _ = sched.At(model.Imsak)
	assert.Equal(t, at(day, 4, 32), fajr)
	assert.Equal(t, at(day, 4, 19), imsak)
}

func TestBuild_OffsetsPerPrayer(t *testing.T) {
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	s := utcSettings()
	s.Offsets = model.Offsets{Fajr: 1, Dhuhr: 2, Asr: -3, Maghrib: 4, Isha: -5}

	raw := Times{
		model.Fajr:    at(day, 4, 30),
		model.Sunrise: at(day, 5, 50),
		model.Dhuhr:   at(day, 12, 0),
		model.Asr:     at(day, 15, 20),
		model.Maghrib: at(day, 18, 0),
		model.Isha:    at(day, 19, 10),
	}
	sched, err := Build(day, raw, s)
	require.NoError(t, err)

	want := map[model.Prayer]time.Time{
		model.Fajr:    at(day, 4, 31),
		model.Sunrise: at(day, 5, 50),
		model.Dhuhr:   at(day, 12, 2),
		model.Asr:     at(day, 15, 17),
		model.Maghrib: at(day, 18, 4),
		model.Isha:    at(day, 19, 5),
	}
	for p, w := range want {
		got, ok := sched.At(p)
		require.True(t, ok, p)
		assert.Equal(t, w, got, p)
	}
	assert.Equal(t, "2026-03-02", sched.Date)
	assert.False(t, sched.Friday)
}

func TestBuild_FridayRelabelsDhuhr(t *testing.T) {
	friday := time.Date(2026, 3, 6, 9, 0, 0, 0, time.UTC)
	sched, err := Build(friday, Times{model.Dhuhr: at(friday, 12, 5)}, utcSettings())
	require.NoError(t, err)

	assert.True(t, sched.Friday)
	assert.True(t, sched.IsJumuah(model.Dhuhr))
	assert.Equal(t, "Jumuah", model.Dhuhr.Label(sched.Friday))
	assert.Equal(t, "Asr", model.Asr.Label(sched.Friday))
}

func TestBuild_DropsInvalidTimes(t *testing.T) {
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	raw := Times{
		model.Fajr:  at(day, 4, 30),
		model.Asr:   {},
		model.Isha:  day.Add(72 * time.Hour),
		model.Dhuhr: at(day, 12, 0),
	}
	sched, err := Build(day, raw, utcSettings())
	require.NoError(t, err)

	_, ok := sched.At(model.Asr)
	assert.False(t, ok)
	_, ok = sched.At(model.Isha)
	assert.False(t, ok)
	_, ok = sched.At(model.Dhuhr)
	assert.True(t, ok)
}

func TestBuild_NoTimes(t *testing.T) {
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	_, err := Build(day, Times{}, utcSettings())
	assert.True(t, errors.Is(err, ErrNoTimes))
}

func TestMethod(t *testing.T) {
	for _, id := range []string{"MuslimWorldLeague", "muslim_world_league", "Singapore", "UmmAlQura", "north-america"} {
		_, err := Method(id)
		assert.NoError(t, err, id)
	}
	_, err := Method("Kemenag2")
	assert.ErrorIs(t, err, ErrUnknownMethod)
}

func TestStaticCalculator(t *testing.T) {
	c := StaticCalculator{model.Fajr: "04:30", model.Dhuhr: "12:05:00"}
	sched, err := c.Compute(time.Date(2026, 3, 6, 15, 0, 0, 0, time.UTC), utcSettings())
	require.NoError(t, err)

	dhuhr, ok := sched.At(model.Dhuhr)
	require.True(t, ok)
	assert.Equal(t, "12:05:00", dhuhr.Format("15:04:05"))
	imsak, _ := sched.At(model.Imsak)
	assert.Equal(t, "04:20", imsak.Format("15:04"))
	assert.True(t, sched.Friday)
}

func TestPageData(t *testing.T) {
	c := StaticCalculator{model.Fajr: "04:30", model.Sunrise: "05:50", model.Dhuhr: "12:05", model.Isha: "19:10"}
	sched, err := c.Compute(time.Date(2026, 3, 6, 8, 0, 0, 0, time.UTC), utcSettings())
	require.NoError(t, err)

	page := sched.PageData(10 * time.Minute)
	assert.Equal(t, "MARCH 6, 2026", page.Date)
	require.Len(t, page.Prayers, 5)
	assert.Equal(t, "IMSAK", page.Prayers[0].Name)
	assert.Empty(t, page.Prayers[0].Iqama)
	assert.Equal(t, "04:40", page.Prayers[1].Iqama)
	assert.Equal(t, "JUMUAH", page.Prayers[3].Name)
	assert.Empty(t, page.Prayers[3].Iqama)
	assert.Equal(t, "07:10", page.Prayers[4].Time)
	assert.Equal(t, "PM", page.Prayers[4].Period)
}
