package model

import (
	"fmt"
	"time"
)

// Settings is the full configuration snapshot pushed by the settings store.
// Every field has a documented default in DefaultSettings.
type Settings struct {
	Latitude          float64 `json:"latitude" toml:"latitude" yaml:"latitude"`
	Longitude         float64 `json:"longitude" toml:"longitude" yaml:"longitude"`
	CalculationMethod string  `json:"calculation_method" toml:"calculation_method" yaml:"calculation_method"`
	Madhab            string  `json:"madhab" toml:"madhab" yaml:"madhab"`       // "shafi" or "hanafi"
	Timezone          string  `json:"timezone" toml:"timezone" yaml:"timezone"` // IANA name, "Local" for host zone

	Offsets Offsets `json:"offsets" toml:"offsets" yaml:"offsets"`

	// AudioEnabled is the master switch; false silences every trigger.
	AudioEnabled bool `json:"audio_enabled" toml:"audio_enabled" yaml:"audio_enabled"`
	RamadanMode  bool `json:"ramadan_mode" toml:"ramadan_mode" yaml:"ramadan_mode"`

	Murottal MurottalSettings `json:"murottal" toml:"murottal" yaml:"murottal"`
	Tarhim   TarhimSettings   `json:"tarhim" toml:"tarhim" yaml:"tarhim"`
	Adhan    AdhanSettings    `json:"adhan" toml:"adhan" yaml:"adhan"`
	Iqomah   IqomahSettings   `json:"iqomah" toml:"iqomah" yaml:"iqomah"`
	Imsak    ImsakSettings    `json:"imsak" toml:"imsak" yaml:"imsak"`
	Overlay  OverlaySettings  `json:"overlay" toml:"overlay" yaml:"overlay"`
	Jumuah   JumuahSettings   `json:"jumuah" toml:"jumuah" yaml:"jumuah"`
}

// Offsets are signed minute adjustments applied to calculated times.
type Offsets struct {
	Fajr    int `json:"fajr" toml:"fajr" yaml:"fajr"`
	Dhuhr   int `json:"dhuhr" toml:"dhuhr" yaml:"dhuhr"`
	Asr     int `json:"asr" toml:"asr" yaml:"asr"`
	Maghrib int `json:"maghrib" toml:"maghrib" yaml:"maghrib"`
	Isha    int `json:"isha" toml:"isha" yaml:"isha"`
	Imsak   int `json:"imsak" toml:"imsak" yaml:"imsak"`
}

// For returns the offset for p. Sunrise has none.
func (o Offsets) For(p Prayer) time.Duration {
	var m int
	switch p {
	case Fajr:
		m = o.Fajr
	case Dhuhr:
		m = o.Dhuhr
	case Asr:
		m = o.Asr
	case Maghrib:
		m = o.Maghrib
	case Isha:
		m = o.Isha
	case Imsak:
		m = o.Imsak
	}
	return time.Duration(m) * time.Minute
}

type MurottalSettings struct {
	Enabled         bool            `json:"enabled" toml:"enabled" yaml:"enabled"`
	PreAdhanMinutes int             `json:"pre_adhan_minutes" toml:"pre_adhan_minutes" yaml:"pre_adhan_minutes"`
	Sources         MurottalSources `json:"sources" toml:"sources" yaml:"sources"`
}

// MurottalSources holds one recitation per slot, Imsak included.
type MurottalSources struct {
	Imsak   string `json:"imsak" toml:"imsak" yaml:"imsak"`
	Fajr    string `json:"fajr" toml:"fajr" yaml:"fajr"`
	Dhuhr   string `json:"dhuhr" toml:"dhuhr" yaml:"dhuhr"`
	Asr     string `json:"asr" toml:"asr" yaml:"asr"`
	Maghrib string `json:"maghrib" toml:"maghrib" yaml:"maghrib"`
	Isha    string `json:"isha" toml:"isha" yaml:"isha"`
}

func (m MurottalSources) For(p Prayer) string {
	switch p {
	case Imsak:
		return m.Imsak
	case Fajr:
		return m.Fajr
	case Dhuhr:
		return m.Dhuhr
	case Asr:
		return m.Asr
	case Maghrib:
		return m.Maghrib
	case Isha:
		return m.Isha
	}
	return ""
}

type TarhimSettings struct {
	Enabled     bool   `json:"enabled" toml:"enabled" yaml:"enabled"`
	Source      string `json:"source" toml:"source" yaml:"source"`
	LeadSeconds int    `json:"lead_seconds" toml:"lead_seconds" yaml:"lead_seconds"`
}

type AdhanSettings struct {
	BeepEnabled     bool   `json:"beep_enabled" toml:"beep_enabled" yaml:"beep_enabled"`
	BeepSource      string `json:"beep_source" toml:"beep_source" yaml:"beep_source"`
	DurationSeconds int    `json:"duration_seconds" toml:"duration_seconds" yaml:"duration_seconds"`
}

type IqomahSettings struct {
	BeepEnabled      bool   `json:"beep_enabled" toml:"beep_enabled" yaml:"beep_enabled"`
	BeepSource       string `json:"beep_source" toml:"beep_source" yaml:"beep_source"`
	CountdownSeconds int    `json:"countdown_seconds" toml:"countdown_seconds" yaml:"countdown_seconds"`
}

type ImsakSettings struct {
	// BeepSource falls back to the adhan beep when empty.
	BeepSource   string `json:"beep_source" toml:"beep_source" yaml:"beep_source"`
	FlashSeconds int    `json:"flash_seconds" toml:"flash_seconds" yaml:"flash_seconds"`
}

type OverlaySettings struct {
	PreAdhanSeconds int `json:"pre_adhan_seconds" toml:"pre_adhan_seconds" yaml:"pre_adhan_seconds"`
}

type JumuahSettings struct {
	LeadSeconds            int `json:"lead_seconds" toml:"lead_seconds" yaml:"lead_seconds"`
	KhutbahDurationMinutes int `json:"khutbah_duration_minutes" toml:"khutbah_duration_minutes" yaml:"khutbah_duration_minutes"`
}

// DefaultSettings returns the snapshot used for any field a store omits.
func DefaultSettings() Settings {
	return Settings{
		Latitude:          -6.2088,
		Longitude:         106.8456,
		CalculationMethod: "Singapore",
		Madhab:            "shafi",
		Timezone:          "Local",
		AudioEnabled:      true,
		Murottal:          MurottalSettings{PreAdhanMinutes: 10},
		Tarhim:            TarhimSettings{LeadSeconds: 300},
		Adhan:             AdhanSettings{BeepEnabled: true, DurationSeconds: 120},
		Iqomah:            IqomahSettings{BeepEnabled: true, CountdownSeconds: 600},
		Imsak:             ImsakSettings{FlashSeconds: 10},
		Overlay:           OverlaySettings{PreAdhanSeconds: 600},
		Jumuah:            JumuahSettings{LeadSeconds: 300, KhutbahDurationMinutes: 30},
	}
}

// Normalize replaces negative durations with their defaults.
func (s Settings) Normalize() Settings {
	d := DefaultSettings()
	fix := func(v *int, def int) {
		if *v < 0 {
			*v = def
		}
	}
	fix(&s.Murottal.PreAdhanMinutes, d.Murottal.PreAdhanMinutes)
	fix(&s.Tarhim.LeadSeconds, d.Tarhim.LeadSeconds)
	fix(&s.Adhan.DurationSeconds, d.Adhan.DurationSeconds)
	fix(&s.Iqomah.CountdownSeconds, d.Iqomah.CountdownSeconds)
	fix(&s.Imsak.FlashSeconds, d.Imsak.FlashSeconds)
	fix(&s.Overlay.PreAdhanSeconds, d.Overlay.PreAdhanSeconds)
	fix(&s.Jumuah.LeadSeconds, d.Jumuah.LeadSeconds)
	fix(&s.Jumuah.KhutbahDurationMinutes, d.Jumuah.KhutbahDurationMinutes)
	if s.Madhab == "" {
		s.Madhab = d.Madhab
	}
	if s.Timezone == "" {
		s.Timezone = d.Timezone
	}
	if s.CalculationMethod == "" {
		s.CalculationMethod = d.CalculationMethod
	}
	return s
}

// Validate rejects snapshots that cannot produce a schedule.
func (s Settings) Validate() error {
	if s.Latitude < -90 || s.Latitude > 90 {
		return fmt.Errorf("latitude %v out of range", s.Latitude)
	}
	if s.Longitude < -180 || s.Longitude > 180 {
		return fmt.Errorf("longitude %v out of range", s.Longitude)
	}
	if s.Madhab != "shafi" && s.Madhab != "hanafi" {
		return fmt.Errorf("unknown madhab %q", s.Madhab)
	}
	if _, err := time.LoadLocation(s.Timezone); err != nil {
		return fmt.Errorf("timezone %q: %w", s.Timezone, err)
	}
	return nil
}

// Location resolves Timezone, falling back to the host zone.
func (s Settings) Location() *time.Location {
	if s.Timezone == "" || s.Timezone == "Local" {
		return time.Local
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

func seconds(n int) time.Duration { return time.Duration(n) * time.Second }

func (s Settings) AdhanDuration() time.Duration   { return seconds(s.Adhan.DurationSeconds) }
func (s Settings) IqomahCountdown() time.Duration { return seconds(s.Iqomah.CountdownSeconds) }
func (s Settings) TarhimLead() time.Duration      { return seconds(s.Tarhim.LeadSeconds) }
func (s Settings) MurottalLead() time.Duration {
	return time.Duration(s.Murottal.PreAdhanMinutes) * time.Minute
}
func (s Settings) OverlayLead() time.Duration { return seconds(s.Overlay.PreAdhanSeconds) }
func (s Settings) JumuahLead() time.Duration  { return seconds(s.Jumuah.LeadSeconds) }
func (s Settings) KhutbahDuration() time.Duration {
	return time.Duration(s.Jumuah.KhutbahDurationMinutes) * time.Minute
}
func (s Settings) ImsakFlash() time.Duration { return seconds(s.Imsak.FlashSeconds) }

// ImsakBeepSource returns the Imsak beep clip, defaulting to the adhan beep.
func (s Settings) ImsakBeepSource() string {
	if s.Imsak.BeepSource != "" {
		return s.Imsak.BeepSource
	}
	return s.Adhan.BeepSource
}
