package endpoints

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Ganezza/tvmasjid-sub000/internal/engine"
	"github.com/Ganezza/tvmasjid-sub000/internal/http/api"
	"github.com/Ganezza/tvmasjid-sub000/internal/http/api/display/packets"
	"github.com/Ganezza/tvmasjid-sub000/internal/model"
	"github.com/Ganezza/tvmasjid-sub000/internal/overlay"
)

// Source is the read side of the engine.
type Source interface {
	Last() engine.Update
	Schedule() model.PrayerSchedule
	Settings() (model.Settings, bool)
	Subscribe(buffer int) (<-chan engine.Update, func())
}

type DisplayController struct {
	src Source
}

func newDisplayController(src Source) *DisplayController {
	return &DisplayController{src: src}
}

// DisplayModule mounts the read-only endpoints the screen polls or streams.
func DisplayModule(src Source) api.Module {
	ctl := newDisplayController(src)
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/schedule", ctl.getSchedule)
		c.GET("/overlay", ctl.getOverlay)
		c.GET("/playback", ctl.getPlayback)
		c.GET("/healthz", ctl.healthz)
		c.Handle(http.MethodGet, "/stream", ctl.stream)
	})
}

func (d *DisplayController) getSchedule(ctx *gin.Context) (any, *api.APIError) {
	sched := d.src.Schedule()
	if sched.Empty() {
		return nil, &api.APIError{Code: http.StatusServiceUnavailable, Message: "prayer schedule not available"}
	}
	s, _ := d.src.Settings()

	out := packets.ScheduleResponse{
		Date:    sched.Date,
		Friday:  sched.Friday,
		Prayers: make([]packets.PrayerTimeResponse, 0, len(model.AllPrayers)),
		Page:    sched.PageData(s.AdhanDuration() + s.IqomahCountdown()),
	}
	if sched.Location != nil {
		out.Timezone = sched.Location.String()
	}
	for _, p := range model.AllPrayers {
		at, ok := sched.At(p)
		if !ok {
			continue
		}
		out.Prayers = append(out.Prayers, packets.PrayerTimeResponse{
			Prayer: p,
			Label:  p.Label(sched.Friday),
			Clock:  at.Format("15:04"),
			At:     at,
		})
	}
	return out, nil
}

func overlayResponse(snap overlay.Snapshot) packets.OverlayResponse {
	out := packets.OverlayResponse{At: snap.At, Active: snap.Active, Families: make([]overlay.Status, 0, len(overlay.Families))}
	if cur, ok := snap.Current(); ok {
		out.Current = &cur
	}
	for _, f := range overlay.Families {
		st, ok := snap.Families[f]
		if !ok {
			st = overlay.Status{Family: f, Phase: overlay.Hidden, Countdown: overlay.FormatCountdown(0)}
		}
		out.Families = append(out.Families, st)
	}
	return out
}

func (d *DisplayController) getOverlay(ctx *gin.Context) (any, *api.APIError) {
	return overlayResponse(d.src.Last().Overlay), nil
}

func (d *DisplayController) getPlayback(ctx *gin.Context) (any, *api.APIError) {
	s, loaded := d.src.Settings()
	return packets.PlaybackResponse{
		AudioEnabled: loaded && s.AudioEnabled,
		View:         d.src.Last().Playback,
	}, nil
}

func (d *DisplayController) healthz(ctx *gin.Context) (any, *api.APIError) {
	_, loaded := d.src.Settings()
	status := "ok"
	if !loaded {
		status = "degraded"
	}
	return packets.HealthResponse{Status: status, SettingsLoaded: loaded, LastTick: d.src.Last().At}, nil
}
