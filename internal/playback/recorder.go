package playback

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

// Call is one recorded driver invocation.
type Call struct {
	Op       string
	Source   string
	Position time.Duration
}

func (c Call) String() string {
	var b strings.Builder
	b.WriteString(c.Op)
	if c.Source != "" {
		b.WriteString(" " + c.Source)
	}
	if c.Position > 0 {
		fmt.Fprintf(&b, " @%s", c.Position)
	}
	return b.String()
}

// Recorder is a Driver that remembers every call. Play and Resume fail for
// sources listed in Broken.
type Recorder struct {
	mu       sync.Mutex
	calls    []Call
	position time.Duration
	broken   map[string]error
}

func NewRecorder() *Recorder {
	return &Recorder{broken: map[string]error{}}
}

// Break makes every later Play or Resume of source return err.
func (r *Recorder) Break(source string, err error) {
	r.mu.Lock()
	r.broken[source] = err
	r.mu.Unlock()
}

// SetPosition sets what Position reports.
func (r *Recorder) SetPosition(d time.Duration) {
	r.mu.Lock()
	r.position = d
	r.mu.Unlock()
}

func (r *Recorder) record(c Call) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, c)
	if err, ok := r.broken[c.Source]; ok && c.Source != "" {
		return err
	}
	return nil
}

func (r *Recorder) Play(ctx context.Context, source string) error {
	return r.record(Call{Op: "play", Source: source})
}

func (r *Recorder) Pause(ctx context.Context) error {
	return r.record(Call{Op: "pause"})
}

func (r *Recorder) Resume(ctx context.Context, source string, position time.Duration) error {
	return r.record(Call{Op: "resume", Source: source, Position: position})
}

func (r *Recorder) Stop(ctx context.Context) error {
	return r.record(Call{Op: "stop"})
}

func (r *Recorder) Position() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.position
}

// Calls returns a copy of the recorded calls.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Call, len(r.calls))
	copy(out, r.calls)
	return out
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	r.calls = nil
	r.mu.Unlock()
}
