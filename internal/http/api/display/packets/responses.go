package packets

import (
	"time"

	"github.com/Ganezza/tvmasjid-sub000/internal/audio"
	"github.com/Ganezza/tvmasjid-sub000/internal/model"
	"github.com/Ganezza/tvmasjid-sub000/internal/overlay"
)

// RESPONSES FOR /api/display/*

type PrayerTimeResponse struct {
	Prayer model.Prayer `json:"prayer"`
	Label  string       `json:"label"`
	Clock  string       `json:"clock"` // "15:04"
	At     time.Time    `json:"at"`
}

type ScheduleResponse struct {
	Date     string               `json:"date"`
	Friday   bool                 `json:"friday"`
	Timezone string               `json:"timezone"`
	Prayers  []PrayerTimeResponse `json:"prayers"`
	// Page is the board layout with 12-hour clocks and iqama times.
	Page model.AthanPageData `json:"page"`
}

type OverlayResponse struct {
	At       time.Time        `json:"at"`
	Active   overlay.Family   `json:"active,omitempty"`
	Current  *overlay.Status  `json:"current,omitempty"`
	Families []overlay.Status `json:"families"`
}

type PlaybackResponse struct {
	AudioEnabled bool `json:"audio_enabled"`
	audio.View
}

type HealthResponse struct {
	Status         string    `json:"status"`
	SettingsLoaded bool      `json:"settings_loaded"`
	LastTick       time.Time `json:"last_tick"`
}

// StreamMessage is pushed over the websocket after every tick.
type StreamMessage struct {
	Type     string          `json:"type"`
	At       time.Time       `json:"at"`
	Overlay  OverlayResponse `json:"overlay"`
	Playback audio.View      `json:"playback"`
	Events   []overlay.Event `json:"events,omitempty"`
}
