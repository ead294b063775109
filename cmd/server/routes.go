package main

import (
	"html/template"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/Ganezza/tvmasjid-sub000/internal/engine"
	"github.com/Ganezza/tvmasjid-sub000/internal/http/api"
	displayapi "github.com/Ganezza/tvmasjid-sub000/internal/http/api/display/endpoints"
)

// RegisterRoutes sets up all application routes
func RegisterRoutes(r *gin.Engine, eng *engine.Engine, tmpl *template.Template) {
	r.SetHTMLTemplate(tmpl)
	// CORS
	r.Use(cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool { return true },
		AllowMethods: []string{
			"GET",
			"OPTIONS",
			"HEAD",
		},
		AllowHeaders: []string{
			"Origin",
			"Content-Type",
			"Accept",
		},
		ExposeHeaders: []string{
			"Content-Length",
		},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	api.MountGroup(r, api.GroupConfig{
		Prefix: "/api/display",
		Name:   "display",
	},
		displayapi.DisplayModule(eng),
	)

	// the prayer board rendered server-side for screens without a client app
	r.GET("/integrations/athan", func(c *gin.Context) {
		sched := eng.Schedule()
		if sched.Empty() {
			c.String(http.StatusServiceUnavailable, "prayer schedule not available")
			return
		}
		s, _ := eng.Settings()
		c.HTML(http.StatusOK, "athan.html", sched.PageData(s.AdhanDuration()+s.IqomahCountdown()))
	})
}
