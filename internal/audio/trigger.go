// Package audio decides, once per tick, which single prayer clip should be
// playing. Evaluate is pure: it never touches a driver and returns the
// commands the engine must dispatch.
package audio

import (
	"fmt"
	"time"

	"github.com/Ganezza/tvmasjid-sub000/internal/model"
)

// Kind is the trigger family. Lower values win.
type Kind int

const (
	KindImsak Kind = iota
	KindTarhim
	KindAdhan
	KindIqomah
	KindMurottal
)

func (k Kind) String() string {
	switch k {
	case KindImsak:
		return "imsak_beep"
	case KindTarhim:
		return "tarhim"
	case KindAdhan:
		return "adhan_beep"
	case KindIqomah:
		return "iqomah_beep"
	case KindMurottal:
		return "murottal"
	}
	return "unknown"
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(b []byte) error {
	for c := KindImsak; c <= KindMurottal; c++ {
		if c.String() == string(b) {
			*k = c
			return nil
		}
	}
	return fmt.Errorf("unknown trigger kind %q", b)
}

// gated kinds play at most once per calendar day.
func (k Kind) gated() bool {
	return k == KindImsak || k == KindIqomah || k == KindMurottal
}

// Tolerance widens point-in-time triggers so a 1 Hz tick cannot miss them.
const Tolerance = time.Second

// Window is the time range in which a trigger may be selected.
type Window struct {
	Start     time.Time
	End       time.Time
	StartOpen bool
	EndOpen   bool
}

func (w Window) Contains(t time.Time) bool {
	if t.Before(w.Start) || (w.StartOpen && t.Equal(w.Start)) {
		return false
	}
	if t.After(w.End) || (w.EndOpen && t.Equal(w.End)) {
		return false
	}
	return true
}

func around(t time.Time) Window {
	return Window{Start: t.Add(-Tolerance), End: t.Add(Tolerance)}
}

// Trigger is one candidate clip with its resolved window.
type Trigger struct {
	Kind   Kind         `json:"kind"`
	Prayer model.Prayer `json:"prayer"`
	Source string       `json:"source"`
	Window Window       `json:"-"`
}

// ID identifies the trigger within one day, e.g. "murottal:fajr".
func (t Trigger) ID() string {
	return t.Kind.String() + ":" + string(t.Prayer)
}

var (
	tarhimPrayers   = []model.Prayer{model.Fajr, model.Isha}
	murottalPrayers = []model.Prayer{model.Imsak, model.Fajr, model.Dhuhr, model.Asr, model.Maghrib, model.Isha}
)

// Triggers lists every configured trigger for the day in priority order.
// Disabled features and empty sources produce nothing.
func Triggers(sched model.PrayerSchedule, s model.Settings) []Trigger {
	if !s.AudioEnabled {
		return nil
	}
	var out []Trigger

	if src := s.ImsakBeepSource(); s.RamadanMode && src != "" {
		if t, ok := sched.At(model.Imsak); ok {
			out = append(out, Trigger{Kind: KindImsak, Prayer: model.Imsak, Source: src, Window: around(t)})
		}
	}

	if lead := s.TarhimLead(); s.Tarhim.Enabled && s.Tarhim.Source != "" && lead > 0 {
		for _, p := range tarhimPrayers {
			if t, ok := sched.At(p); ok {
				out = append(out, Trigger{
					Kind:   KindTarhim,
					Prayer: p,
					Source: s.Tarhim.Source,
					Window: Window{Start: t.Add(-lead), End: t, EndOpen: true},
				})
			}
		}
	}

	if s.Adhan.BeepEnabled && s.Adhan.BeepSource != "" {
		for _, p := range model.CanonicalPrayers {
			if t, ok := sched.At(p); ok {
				out = append(out, Trigger{Kind: KindAdhan, Prayer: p, Source: s.Adhan.BeepSource, Window: around(t)})
			}
		}
	}

	if s.Iqomah.BeepEnabled && s.Iqomah.BeepSource != "" {
		after := s.AdhanDuration() + s.IqomahCountdown()
		for _, p := range model.CanonicalPrayers {
			if sched.IsJumuah(p) {
				continue
			}
			if t, ok := sched.At(p); ok {
				out = append(out, Trigger{Kind: KindIqomah, Prayer: p, Source: s.Iqomah.BeepSource, Window: around(t.Add(after))})
			}
		}
	}

	if lead := s.MurottalLead(); s.Murottal.Enabled && lead > 0 {
		for _, p := range murottalPrayers {
			src := s.Murottal.Sources.For(p)
			if src == "" {
				continue
			}
			if t, ok := sched.At(p); ok {
				out = append(out, Trigger{
					Kind:   KindMurottal,
					Prayer: p,
					Source: src,
					Window: Window{Start: t.Add(-lead), End: t, StartOpen: true},
				})
			}
		}
	}
	return out
}
