package endpoints

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ganezza/tvmasjid-sub000/internal/engine"
	"github.com/Ganezza/tvmasjid-sub000/internal/http/api"
	"github.com/Ganezza/tvmasjid-sub000/internal/http/api/display/packets"
	"github.com/Ganezza/tvmasjid-sub000/internal/model"
	"github.com/Ganezza/tvmasjid-sub000/internal/overlay"
	"github.com/Ganezza/tvmasjid-sub000/internal/playback"
	"github.com/Ganezza/tvmasjid-sub000/internal/prayer"
	"github.com/Ganezza/tvmasjid-sub000/internal/settings"
)

func at(hh, mm, ss int) time.Time {
	return time.Date(2026, 3, 6, hh, mm, ss, 0, time.UTC)
}

func setup(t *testing.T, store *settings.MemoryStore) (*gin.Engine, *engine.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	eng := engine.New(engine.Config{
		Calculator: prayer.StaticCalculator{
			model.Fajr:    "04:30",
			model.Sunrise: "05:50",
			model.Dhuhr:   "12:05",
			model.Asr:     "15:20",
			model.Maghrib: "18:00",
			model.Isha:    "19:10",
		},
		Store:  store,
		Driver: playback.NewRecorder(),
		Now:    func() time.Time { return at(11, 0, 0) },
	})
	t.Cleanup(func() { _ = eng.Close() })
	require.NoError(t, eng.Start(context.Background()))

	r := gin.New()
	api.MountGroup(r, api.GroupConfig{Prefix: "/api/display"}, DisplayModule(eng))
	return r, eng
}

func utc() model.Settings {
	s := model.DefaultSettings()
	s.Timezone = "UTC"
	return s
}

func get(t *testing.T, r http.Handler, path string, out any) int {
	t.Helper()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	if out != nil && w.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), out))
	}
	return w.Code
}

func TestSchedule(t *testing.T) {
	r, _ := setup(t, settings.NewMemoryStore(utc()))

	var resp packets.ScheduleResponse
	require.Equal(t, http.StatusOK, get(t, r, "/api/display/schedule", &resp))
	assert.Equal(t, "2026-03-06", resp.Date)
	assert.True(t, resp.Friday)
	assert.Equal(t, "UTC", resp.Timezone)
	require.Len(t, resp.Prayers, 7)
	assert.Equal(t, model.Imsak, resp.Prayers[0].Prayer)
	assert.Equal(t, "04:20", resp.Prayers[0].Clock)
	assert.Equal(t, "Jumuah", resp.Prayers[3].Label)
	assert.Equal(t, "04:42", resp.Page.Prayers[1].Iqama)
}

func TestSchedule_Unavailable(t *testing.T) {
	store := settings.NewMemoryStore(utc())
	store.Fail(settings.ErrUnavailable)
	r, _ := setup(t, store)

	assert.Equal(t, http.StatusServiceUnavailable, get(t, r, "/api/display/schedule", nil))

	var health packets.HealthResponse
	require.Equal(t, http.StatusOK, get(t, r, "/api/display/healthz", &health))
	assert.Equal(t, "degraded", health.Status)
	assert.False(t, health.SettingsLoaded)
}

func TestOverlayAndPlayback(t *testing.T) {
	s := utc()
	s.Adhan.BeepSource = "adhan.mp3"
	r, eng := setup(t, settings.NewMemoryStore(s))

	eng.Tick(at(12, 5, 0))
	eng.Drain()

	var ov packets.OverlayResponse
	require.Equal(t, http.StatusOK, get(t, r, "/api/display/overlay", &ov))
	assert.Equal(t, overlay.Jumuah, ov.Active)
	require.NotNil(t, ov.Current)
	assert.Equal(t, overlay.Adhan, ov.Current.Phase)
	assert.Equal(t, "02:00", ov.Current.Countdown)
	require.Len(t, ov.Families, 3)
	assert.Equal(t, overlay.Imsak, ov.Families[0].Family)

	var pb packets.PlaybackResponse
	require.Equal(t, http.StatusOK, get(t, r, "/api/display/playback", &pb))
	assert.True(t, pb.AudioEnabled)
	require.NotNil(t, pb.Active)
	assert.Equal(t, "adhan.mp3", pb.Active.Source)
	assert.Equal(t, []string{"adhan_beep:dhuhr"}, pb.Played)
}

func TestStream(t *testing.T) {
	r, eng := setup(t, settings.NewMemoryStore(utc()))
	eng.Tick(at(11, 59, 0))

	srv := httptest.NewServer(r)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/display/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	var first packets.StreamMessage
	require.NoError(t, conn.ReadJSON(&first))
	assert.Equal(t, "tick", first.Type)
	assert.Equal(t, at(11, 59, 0), first.At.UTC())
	assert.Empty(t, first.Overlay.Active)

	// the subscription exists before the first message is written
	eng.Tick(at(12, 0, 0))
	var next packets.StreamMessage
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	require.NoError(t, conn.ReadJSON(&next))

	assert.Equal(t, overlay.Jumuah, next.Overlay.Active)
	require.NotNil(t, next.Overlay.Current)
	assert.Equal(t, "05:00", next.Overlay.Current.Countdown)
}
