// Package overlay resolves which full-screen prayer overlay is visible.
package overlay

import (
	"fmt"
	"time"
)

type Phase string

const (
	Hidden   Phase = "hidden"
	PreAdhan Phase = "pre_adhan"
	Adhan    Phase = "adhan"
	Iqomah   Phase = "iqomah"
	Khutbah  Phase = "khutbah"
	// Shown is the single visible phase of the Imsak flash.
	Shown Phase = "imsak"
)

type Family string

const (
	Regular Family = "regular"
	Jumuah  Family = "jumuah"
	Imsak   Family = "imsak"
)

// Families in arbitration order.
var Families = []Family{Imsak, Jumuah, Regular}

// Window is one instance of the four-phase machine anchored at an adhan
// time T: [T-Lead, T) pre-adhan, [T, T+Adhan) adhan, [T+Adhan,
// T+Adhan+After) iqomah or khutbah.
type Window struct {
	Anchor     time.Time
	Lead       time.Duration
	Adhan      time.Duration
	After      time.Duration
	AfterPhase Phase
}

func (w Window) Start() time.Time          { return w.Anchor.Add(-w.Lead) }
func (w Window) AdhanEnd() time.Time       { return w.Anchor.Add(w.Adhan) }
func (w Window) End() time.Time            { return w.AdhanEnd().Add(w.After) }
func (w Window) Contains(t time.Time) bool { return !t.Before(w.Start()) && t.Before(w.End()) }

// PhaseAt returns the phase at now and the instant that phase ends.
func (w Window) PhaseAt(now time.Time) (Phase, time.Time) {
	switch {
	case now.Before(w.Start()):
		return Hidden, time.Time{}
	case now.Before(w.Anchor):
		return PreAdhan, w.Anchor
	case now.Before(w.AdhanEnd()):
		return Adhan, w.AdhanEnd()
	case now.Before(w.End()):
		after := w.AfterPhase
		if after == "" {
			after = Iqomah
		}
		return after, w.End()
	}
	return Hidden, time.Time{}
}

// FormatCountdown renders d as mm:ss; minutes are not wrapped into hours.
func FormatCountdown(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int(d / time.Second)
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}
