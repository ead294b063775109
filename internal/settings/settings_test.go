package settings

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ganezza/tvmasjid-sub000/internal/model"
)

func TestDecode_JSONKeepsDefaults(t *testing.T) {
	raw := []byte(`{
		"latitude": 3.59,
		"longitude": 98.67,
		"ramadan_mode": true,
		"tarhim": {"enabled": true, "source": "tarhim.mp3"},
		"murottal": {"sources": {"fajr": "fajr.mp3"}}
	}`)
	s, err := Decode(raw, JSON)
	require.NoError(t, err)

	assert.Equal(t, 3.59, s.Latitude)
	assert.True(t, s.RamadanMode)
	assert.True(t, s.Tarhim.Enabled)
	assert.Equal(t, 300, s.Tarhim.LeadSeconds)
	assert.Equal(t, 10, s.Murottal.PreAdhanMinutes)
	assert.Equal(t, "fajr.mp3", s.Murottal.Sources.Fajr)
	assert.True(t, s.AudioEnabled)
	assert.Equal(t, "Singapore", s.CalculationMethod)
}

func TestDecode_RejectsUnknownFields(t *testing.T) {
	_, err := Decode([]byte(`{"latitude": 1, "volume": 80}`), JSON)
	assert.ErrorIs(t, err, ErrUnavailable)

	_, err = Decode([]byte("volume = 80\n"), TOML)
	assert.ErrorIs(t, err, ErrUnavailable)

	_, err = Decode([]byte("volume: 80\n"), YAML)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestDecode_TOML(t *testing.T) {
	raw := []byte(`
latitude = -7.25
longitude = 112.75
calculation_method = "MuslimWorldLeague"
timezone = "UTC"

[offsets]
fajr = 2
imsak = -1

[iqomah]
beep_enabled = true
beep_source = "iqomah.mp3"
countdown_seconds = 420

[jumuah]
khutbah_duration_minutes = 45
`)
	s, err := Decode(raw, TOML)
	require.NoError(t, err)
	assert.Equal(t, -7.25, s.Latitude)
	assert.Equal(t, 2, s.Offsets.Fajr)
	assert.Equal(t, -1, s.Offsets.Imsak)
	assert.Equal(t, 420, s.Iqomah.CountdownSeconds)
	assert.Equal(t, 45*time.Minute, s.KhutbahDuration())
	assert.Equal(t, 300, s.Jumuah.LeadSeconds)
}

func TestDecode_YAML(t *testing.T) {
	raw := []byte(`
audio_enabled: false
adhan:
  beep_source: adhan.mp3
  duration_seconds: -5
`)
	s, err := Decode(raw, YAML)
	require.NoError(t, err)
	assert.False(t, s.AudioEnabled)
	assert.Equal(t, "adhan.mp3", s.Adhan.BeepSource)
	assert.Equal(t, 120, s.Adhan.DurationSeconds, "negative durations fall back to the default")

	s, err = Decode(nil, YAML)
	require.NoError(t, err)
	assert.Equal(t, model.DefaultSettings(), s)
}

func TestDecode_ValidatesCoordinates(t *testing.T) {
	_, err := Decode([]byte(`{"latitude": 123}`), JSON)
	assert.ErrorIs(t, err, ErrUnavailable)

	_, err = Decode([]byte(`{"madhab": "maliki"}`), JSON)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestFormatFor(t *testing.T) {
	f, err := FormatFor("/etc/tvmasjid/settings.yml")
	require.NoError(t, err)
	assert.Equal(t, YAML, f)
	_, err = FormatFor("settings.ini")
	assert.Error(t, err)
}

func TestMemoryStore_NotifiesFullSnapshot(t *testing.T) {
	store := NewMemoryStore(model.DefaultSettings())

	var got []model.Settings
	cancel := store.OnSettingsChanged(func(s model.Settings) { got = append(got, s) })

	next := model.DefaultSettings()
	next.RamadanMode = true
	store.Set(next)
	require.Len(t, got, 1)
	assert.Equal(t, next, got[0])

	cancel()
	store.Set(model.DefaultSettings())
	assert.Len(t, got, 1)

	store.Fail(ErrUnavailable)
	_, err := store.Snapshot(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestFileStore_MissingFile(t *testing.T) {
	store, err := NewFileStore(filepath.Join(t.TempDir(), "settings.toml"))
	require.NoError(t, err)
	defer store.Close()

	_, err = store.Snapshot(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFileStore_ReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"ramadan_mode": false}`), 0o644))

	store, err := NewFileStore(path)
	require.NoError(t, err)
	defer store.Close()

	s, err := store.Snapshot(context.Background())
	require.NoError(t, err)
	assert.False(t, s.RamadanMode)

	var mu sync.Mutex
	var latest *model.Settings
	store.OnSettingsChanged(func(s model.Settings) {
		mu.Lock()
		latest = &s
		mu.Unlock()
	})
	require.NoError(t, store.Start())

	body, err := json.Marshal(map[string]any{"ramadan_mode": true, "jumuah": map[string]int{"lead_seconds": 120}})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, body, 0o644))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return latest != nil && latest.RamadanMode && latest.Jumuah.LeadSeconds == 120
	}, 5*time.Second, 20*time.Millisecond)
}

func TestRedisStore_Integration(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDRESS")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDRESS not set, skipping redis integration test")
	}
	ctx := context.Background()
	rdb := NewRedisClient(addr, "", "")
	if err := rdb.Ping(ctx).Err(); err != nil {
		t.Skipf("redis not available: %v", err)
	}

	key, channel := "tvmasjid:test:settings", "tvmasjid:test:settings:changed"
	rdb.Del(ctx, key)
	store := NewRedisStore(rdb, key, channel)
	defer store.Close()

	_, err := store.Snapshot(ctx)
	assert.True(t, errors.Is(err, ErrNotFound))

	changed := make(chan model.Settings, 1)
	store.OnSettingsChanged(func(s model.Settings) { changed <- s })
	require.NoError(t, store.Start(ctx))

	require.NoError(t, rdb.Set(ctx, key, `{"ramadan_mode": true}`, 0).Err())
	require.NoError(t, rdb.Publish(ctx, channel, "updated").Err())

	select {
	case s := <-changed:
		assert.True(t, s.RamadanMode)
	case <-time.After(5 * time.Second):
		t.Fatal("no change notification received")
	}
	rdb.Del(ctx, key)
}

func TestPostgresStore_Integration(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping postgres integration test")
	}
	db, err := Connect(url)
	require.NoError(t, err)
	require.NoError(t, RunMigrations(db, "../../migrations"))

	store := NewPostgresStore(db, url, "test-display")
	defer store.Close()
	_, err = db.Exec(`DELETE FROM display_settings WHERE display_id = $1`, "test-display")
	require.NoError(t, err)

	_, err = store.Snapshot(context.Background())
	assert.ErrorIs(t, err, ErrNotFound)

	changed := make(chan model.Settings, 1)
	store.OnSettingsChanged(func(s model.Settings) { changed <- s })
	require.NoError(t, store.Start())

	_, err = db.Exec(`INSERT INTO display_settings (display_id, payload) VALUES ($1, $2)`,
		"test-display", `{"jumuah": {"khutbah_duration_minutes": 40}}`)
	require.NoError(t, err)

	select {
	case s := <-changed:
		assert.Equal(t, 40, s.Jumuah.KhutbahDurationMinutes)
	case <-time.After(10 * time.Second):
		t.Fatal("no change notification received")
	}
}
