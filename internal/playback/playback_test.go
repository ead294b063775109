package playback

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ Driver   = (*Speaker)(nil)
	_ Driver   = (*MQTTDriver)(nil)
	_ Driver   = (*Dry)(nil)
	_ Driver   = (*Recorder)(nil)
	_ Notifier = (*Speaker)(nil)
	_ Notifier = (*MQTTDriver)(nil)
)

type reports struct {
	mu     sync.Mutex
	ended  []string
	failed []string
}

func (r *reports) ReportEnded(source string) {
	r.mu.Lock()
	r.ended = append(r.ended, source)
	r.mu.Unlock()
}

func (r *reports) ReportFailure(source string, err error) {
	r.mu.Lock()
	r.failed = append(r.failed, source)
	r.mu.Unlock()
}

type message struct {
	topic   string
	payload []byte
}

func (m message) Duplicate() bool   { return false }
func (m message) Qos() byte         { return 1 }
func (m message) Retained() bool    { return false }
func (m message) Topic() string     { return m.topic }
func (m message) MessageID() uint16 { return 1 }
func (m message) Payload() []byte   { return m.payload }
func (m message) Ack()              {}

func status(t *testing.T, st StatusMessage) mqtt.Message {
	t.Helper()
	raw, err := json.Marshal(st)
	require.NoError(t, err)
	return message{topic: StatusTopic("main"), payload: raw}
}

func TestRecorder(t *testing.T) {
	ctx := context.Background()
	r := NewRecorder()
	boom := errors.New("missing file")
	r.Break("broken.mp3", boom)

	require.NoError(t, r.Play(ctx, "murottal.mp3"))
	require.NoError(t, r.Pause(ctx))
	assert.ErrorIs(t, r.Play(ctx, "broken.mp3"), boom)
	require.NoError(t, r.Resume(ctx, "murottal.mp3", 287*time.Second))
	require.NoError(t, r.Stop(ctx))

	calls := r.Calls()
	require.Len(t, calls, 5)
	assert.Equal(t, "play murottal.mp3", calls[0].String())
	assert.Equal(t, "pause", calls[1].String())
	assert.Equal(t, "resume murottal.mp3 @4m47s", calls[3].String())

	r.SetPosition(time.Minute)
	assert.Equal(t, time.Minute, r.Position())
	r.Reset()
	assert.Empty(t, r.Calls())
}

func TestDry_PositionFollowsClock(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 2, 4, 20, 0, 0, time.UTC)
	d := NewDry()
	d.now = func() time.Time { return now }

	assert.Zero(t, d.Position())
	assert.ErrorIs(t, d.Pause(ctx), ErrNotPlaying)

	require.NoError(t, d.Play(ctx, "murottal.mp3"))
	now = now.Add(287 * time.Second)
	assert.Equal(t, 287*time.Second, d.Position())

	require.NoError(t, d.Pause(ctx))
	now = now.Add(10 * time.Minute)
	assert.Equal(t, 287*time.Second, d.Position())

	require.NoError(t, d.Resume(ctx, "murottal.mp3", 287*time.Second))
	now = now.Add(3 * time.Second)
	assert.Equal(t, 290*time.Second, d.Position())

	require.NoError(t, d.Stop(ctx))
	assert.Zero(t, d.Position())
}

func TestSpeaker_RejectsBadSources(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("x"), 0o644))

	s := NewSpeaker(root)
	err := s.Play(ctx, "notes.txt")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	err = s.Play(ctx, "missing.mp3")
	assert.ErrorIs(t, err, os.ErrNotExist)

	err = s.Resume(ctx, "missing.mp3", time.Minute)
	assert.ErrorIs(t, err, os.ErrNotExist)

	assert.ErrorIs(t, s.Pause(ctx), ErrNotPlaying)
	assert.Zero(t, s.Position())
	assert.Equal(t, filepath.Join(root, "a.mp3"), s.path("a.mp3"))
	assert.Equal(t, "/srv/audio/a.mp3", s.path("/srv/audio/a.mp3"))
}

func TestMQTTDriver_StatusReports(t *testing.T) {
	d := NewMQTTDriver(nil, "main")
	rep := &reports{}
	d.SetListener(rep)
	d.source = "fajr.mp3"

	d.handleStatus(nil, status(t, StatusMessage{Source: "fajr.mp3", State: "playing", PositionMS: 12500}))
	assert.Equal(t, 12500*time.Millisecond, d.Position())

	// reports for a clip that is no longer current are ignored
	d.handleStatus(nil, status(t, StatusMessage{Source: "old.mp3", State: "ended"}))
	assert.Empty(t, rep.ended)

	d.handleStatus(nil, status(t, StatusMessage{Source: "fajr.mp3", State: "ended"}))
	assert.Equal(t, []string{"fajr.mp3"}, rep.ended)
	assert.Zero(t, d.Position())

	d.source = "tarhim.mp3"
	d.handleStatus(nil, status(t, StatusMessage{Source: "tarhim.mp3", State: "failed", Error: "decode error"}))
	assert.Equal(t, []string{"tarhim.mp3"}, rep.failed)

	d.handleStatus(nil, message{topic: StatusTopic("main"), payload: []byte("not json")})
}

func TestTopics(t *testing.T) {
	assert.Equal(t, "display/main/audio", AudioTopic("main"))
	assert.Equal(t, "display/main/status", StatusTopic("main"))
	assert.Equal(t, "display/lobby/overlay", OverlayTopic("lobby"))
}

func TestMQTTDriver_Integration(t *testing.T) {
	broker := os.Getenv("TEST_MQTT_BROKER_URL")
	if broker == "" {
		t.Skip("TEST_MQTT_BROKER_URL not set, skipping MQTT integration test")
	}
	client, err := NewMQTTClient(broker, "tvmasjid-test-engine")
	if err != nil {
		t.Skipf("MQTT broker not available, skipping test: %v", err)
	}
	d := NewMQTTDriver(client, "test")
	defer d.Close()

	received := make(chan AudioMessage, 1)
	token := client.Subscribe(AudioTopic("test"), 1, func(_ mqtt.Client, msg mqtt.Message) {
		var m AudioMessage
		if json.Unmarshal(msg.Payload(), &m) == nil {
			received <- m
		}
	})
	require.True(t, token.WaitTimeout(5*time.Second))
	require.NoError(t, token.Error())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, d.Resume(ctx, "murottal.mp3", 287*time.Second))

	select {
	case m := <-received:
		assert.Equal(t, "resume", m.Op)
		assert.Equal(t, int64(287000), m.PositionMS)
		assert.NotEmpty(t, m.ID)
	case <-time.After(5 * time.Second):
		t.Fatal("no audio command received")
	}
}
