// Package playback turns scheduler commands into sound, either on a local
// speaker, on a remote screen over MQTT, or nowhere at all.
package playback

import (
	"context"
	"errors"
	"time"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported audio format")
	ErrNotPlaying        = errors.New("nothing is playing")
)

// Driver plays at most one clip at a time. Implementations must be safe for
// concurrent use; Position is called from the tick while commands are
// dispatched from another goroutine.
type Driver interface {
	Play(ctx context.Context, source string) error
	Pause(ctx context.Context) error
	Resume(ctx context.Context, source string, position time.Duration) error
	Stop(ctx context.Context) error
	// Position is the offset into the current clip, zero when idle.
	Position() time.Duration
}

// Listener receives reports that arrive after a command returned: a clip
// that played to its end, or a failure raised by a remote player.
type Listener interface {
	ReportEnded(source string)
	ReportFailure(source string, err error)
}

// Notifier is implemented by drivers that can report asynchronously.
type Notifier interface {
	SetListener(l Listener)
}
