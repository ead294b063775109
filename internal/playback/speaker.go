package playback

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"
	"github.com/rs/zerolog/log"
)

// Speaker plays clips on the local sound card. Clips are streamed from disk
// rather than buffered since recitations run for many minutes.
type Speaker struct {
	root string

	mu          sync.Mutex
	initialized bool
	sampleRate  beep.SampleRate
	current     *track
	listener    Listener
}

type track struct {
	source string
	stream beep.StreamSeekCloser
	format beep.Format
	ctrl   *beep.Ctrl
	file   *os.File
}

// NewSpeaker resolves relative sources against root.
func NewSpeaker(root string) *Speaker {
	return &Speaker{root: root, sampleRate: beep.SampleRate(44100)}
}

func (s *Speaker) SetListener(l Listener) {
	s.mu.Lock()
	s.listener = l
	s.mu.Unlock()
}

func (s *Speaker) path(source string) string {
	if filepath.IsAbs(source) {
		return source
	}
	return filepath.Join(s.root, source)
}

func (s *Speaker) open(source string) (*track, error) {
	path := s.path(source)
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	var stream beep.StreamSeekCloser
	var format beep.Format
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".mp3":
		stream, format, err = mp3.Decode(f)
	case ".wav":
		stream, format, err = wav.Decode(f)
	case ".ogg":
		stream, format, err = vorbis.Decode(f)
	default:
		_ = f.Close()
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return &track{source: source, stream: stream, format: format, ctrl: &beep.Ctrl{Streamer: stream}, file: f}, nil
}

// ensureInitialized must be called with s.mu held.
func (s *Speaker) ensureInitialized(rate beep.SampleRate) error {
	if s.initialized {
		return nil
	}
	if err := speaker.Init(rate, rate.N(100*time.Millisecond)); err != nil {
		return fmt.Errorf("init speaker: %w", err)
	}
	s.sampleRate = rate
	s.initialized = true
	log.Debug().Int("sample_rate", int(rate)).Msg("speaker initialized")
	return nil
}

// start replaces whatever is playing with t. Must be called with s.mu held.
func (s *Speaker) start(t *track) error {
	if err := s.ensureInitialized(t.format.SampleRate); err != nil {
		t.close()
		return err
	}
	s.clear()

	var out beep.Streamer = t.ctrl
	if t.format.SampleRate != s.sampleRate {
		out = beep.Resample(4, t.format.SampleRate, s.sampleRate, out)
	}
	s.current = t
	speaker.Play(beep.Seq(out, beep.Callback(func() {
		// runs on the speaker goroutine with the speaker lock held
		go s.finished(t)
	})))
	return nil
}

func (s *Speaker) finished(t *track) {
	s.mu.Lock()
	if s.current != t {
		s.mu.Unlock()
		return
	}
	s.current = nil
	l := s.listener
	s.mu.Unlock()

	t.close()
	log.Info().Str("source", t.source).Msg("clip finished")
	if l != nil {
		l.ReportEnded(t.source)
	}
}

// clear must be called with s.mu held.
func (s *Speaker) clear() {
	if s.initialized {
		speaker.Clear()
	}
	if s.current != nil {
		s.current.close()
		s.current = nil
	}
}

func (t *track) close() {
	_ = t.stream.Close()
	_ = t.file.Close()
}

func (s *Speaker) Play(ctx context.Context, source string) error {
	t, err := s.open(source)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.start(t); err != nil {
		return err
	}
	log.Info().Str("source", source).Msg("playing")
	return nil
}

func (s *Speaker) Pause(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return ErrNotPlaying
	}
	speaker.Lock()
	s.current.ctrl.Paused = true
	speaker.Unlock()
	return nil
}

// Resume continues source from position. The paused stream is reused when
// it is still loaded, otherwise the file is reopened and seeked.
func (s *Speaker) Resume(ctx context.Context, source string, position time.Duration) error {
	s.mu.Lock()
	if cur := s.current; cur != nil && cur.source == source {
		speaker.Lock()
		cur.ctrl.Paused = false
		speaker.Unlock()
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	t, err := s.open(source)
	if err != nil {
		return err
	}
	if n := t.format.SampleRate.N(position); n > 0 && n < t.stream.Len() {
		if err := t.stream.Seek(n); err != nil {
			t.close()
			return fmt.Errorf("seek %s: %w", source, err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.start(t); err != nil {
		return err
	}
	log.Info().Str("source", source).Dur("position", position).Msg("resumed")
	return nil
}

func (s *Speaker) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clear()
	return nil
}

func (s *Speaker) Position() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return 0
	}
	speaker.Lock()
	n := s.current.stream.Position()
	speaker.Unlock()
	return s.current.format.SampleRate.D(n)
}

// Close stops playback and releases the sound card.
func (s *Speaker) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clear()
	if s.initialized {
		speaker.Close()
		s.initialized = false
	}
	return nil
}
