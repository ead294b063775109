package overlay

import (
	"time"

	"github.com/Ganezza/tvmasjid-sub000/internal/model"
)

type EventKind string

const (
	Opened       EventKind = "opened"
	PhaseChanged EventKind = "phase_changed"
	// Closed is the close notification sent to the host when a family's own
	// phase machine returns to Hidden. Being outranked by another family
	// does not close it.
	Closed EventKind = "closed"
)

type Event struct {
	Kind   EventKind    `json:"kind"`
	Family Family       `json:"family"`
	Phase  Phase        `json:"phase"`
	Prayer model.Prayer `json:"prayer,omitempty"`
	At     time.Time    `json:"at"`
}

// Machine remembers each family's own status so transitions can be
// reported. A family opens when it is first shown and stays open, even while
// another family covers it, until its phase machine reaches Hidden. It is not
// safe for concurrent use.
type Machine struct {
	prev map[Family]Status
	open map[Family]bool
	last Snapshot
}

func NewMachine() *Machine {
	m := &Machine{}
	m.Reset()
	return m
}

// Advance resolves the overlay for now and returns the transitions since
// the previous call.
func (m *Machine) Advance(now time.Time, sched model.PrayerSchedule, s model.Settings) (Snapshot, []Event) {
	own := evaluate(now, sched, s)
	snap := arbitrate(now, own)
	var events []Event
	for _, f := range Families {
		cur := own[f]
		prev, seen := m.prev[f]
		if !seen {
			prev = hidden(f)
		}
		switch {
		case !m.open[f] && snap.Families[f].Visible():
			m.open[f] = true
			events = append(events, Event{Kind: Opened, Family: f, Phase: cur.Phase, Prayer: cur.Prayer, At: now})
		case m.open[f] && !cur.Visible():
			m.open[f] = false
			events = append(events, Event{Kind: Closed, Family: f, Phase: prev.Phase, Prayer: prev.Prayer, At: now})
		case m.open[f] && (prev.Phase != cur.Phase || prev.Prayer != cur.Prayer):
			events = append(events, Event{Kind: PhaseChanged, Family: f, Phase: cur.Phase, Prayer: cur.Prayer, At: now})
		}
		m.prev[f] = cur
	}
	m.last = snap
	return snap, events
}

// Last returns the snapshot from the most recent Advance.
func (m *Machine) Last() Snapshot {
	return m.last
}

// Reset forgets previous phases without emitting events.
func (m *Machine) Reset() {
	m.prev = make(map[Family]Status, len(Families))
	m.open = make(map[Family]bool, len(Families))
	m.last = Snapshot{}
}
