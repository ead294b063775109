package model

import (
	"strings"
	"time"
)

// Prayer names a slot in the daily prayer schedule.
type Prayer string

const (
	Imsak   Prayer = "imsak"
	Fajr    Prayer = "fajr"
	Sunrise Prayer = "sunrise"
	Dhuhr   Prayer = "dhuhr"
	Asr     Prayer = "asr"
	Maghrib Prayer = "maghrib"
	Isha    Prayer = "isha"
)

// DateLayout is the local calendar-day key used for rollover detection.
const DateLayout = "2006-01-02"

// AllPrayers lists every schedule slot in chronological order.
var AllPrayers = []Prayer{Imsak, Fajr, Sunrise, Dhuhr, Asr, Maghrib, Isha}

// CanonicalPrayers are the five daily prayers that have an adhan.
var CanonicalPrayers = []Prayer{Fajr, Dhuhr, Asr, Maghrib, Isha}

// Label renders the display name; Friday's dhuhr is shown as Jumuah.
func (p Prayer) Label(friday bool) string {
	if p == Dhuhr && friday {
		return "Jumuah"
	}
	s := string(p)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// PrayerSchedule is the resolved set of prayer timestamps for one local
// calendar day. It is never mutated after construction.
type PrayerSchedule struct {
	Date     string
	Friday   bool
	Location *time.Location
	Times    map[Prayer]time.Time
}

// At returns the timestamp for p, or false when it is absent from today's
// evaluation.
func (s PrayerSchedule) At(p Prayer) (time.Time, bool) {
	if s.Times == nil {
		return time.Time{}, false
	}
	t, ok := s.Times[p]
	if !ok || t.IsZero() {
		return time.Time{}, false
	}
	return t, true
}

// IsJumuah reports whether p is the Friday dhuhr slot.
func (s PrayerSchedule) IsJumuah(p Prayer) bool {
	return s.Friday && p == Dhuhr
}

// Empty reports whether the schedule has no usable timestamps.
func (s PrayerSchedule) Empty() bool {
	for _, p := range AllPrayers {
		if _, ok := s.At(p); ok {
			return false
		}
	}
	return true
}

type PrayerEntry struct {
	Name   string `json:"name"` // "FAJR", "JUMUAH", ...
	Prayer Prayer `json:"prayer"`
	Time   string `json:"time"`   // "05:12"
	Period string `json:"period"` // "AM" or "PM"
	Iqama  string `json:"iqama,omitempty"`
}

type AthanPageData struct {
	Date    string        `json:"date"` // "AUGUST 5, 2025"
	Friday  bool          `json:"friday"`
	Prayers []PrayerEntry `json:"prayers"`
}

// PageData flattens the schedule for rendering. iqomaAfter is the delay
// between adhan and iqomah; zero leaves the iqama column empty.
func (s PrayerSchedule) PageData(iqomaAfter time.Duration) AthanPageData {
	data := AthanPageData{Friday: s.Friday, Prayers: make([]PrayerEntry, 0, len(AllPrayers))}
	for _, p := range AllPrayers {
		t, ok := s.At(p)
		if !ok {
			continue
		}
		if data.Date == "" {
			data.Date = strings.ToUpper(t.Format("January 2, 2006"))
		}
		entry := PrayerEntry{
			Name:   strings.ToUpper(p.Label(s.Friday)),
			Prayer: p,
			Time:   t.Format("03:04"),
			Period: t.Format("PM"),
		}
		if iqomaAfter > 0 && p != Sunrise && p != Imsak && !s.IsJumuah(p) {
			entry.Iqama = t.Add(iqomaAfter).Format("15:04")
		}
		data.Prayers = append(data.Prayers, entry)
	}
	return data
}
