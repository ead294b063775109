package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// Module attaches its endpoints to a Controller.
type Module interface {
	Mount(c *Controller)
}

type ModuleFunc func(c *Controller)

func (f ModuleFunc) Mount(c *Controller) { f(c) }

// GroupConfig describes one mounted group. A non-empty Name turns on the
// request log for the group.
type GroupConfig struct {
	Prefix     string
	Name       string
	Middleware []gin.HandlerFunc
}

// MountGroup mounts modules under cfg.Prefix and returns the group.
func MountGroup(parent gin.IRouter, cfg GroupConfig, modules ...Module) *gin.RouterGroup {
	grp := parent.Group(cfg.Prefix)
	if cfg.Name != "" {
		grp.Use(RequestLogger(cfg.Name))
	}
	grp.Use(cfg.Middleware...)

	controller := &Controller{Group: grp}
	for _, m := range modules {
		m.Mount(controller)
	}
	return grp
}

// RequestLogger logs requests at debug level and server errors at warn.
func RequestLogger(group string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()

		status := ctx.Writer.Status()
		ev := log.Debug()
		if status >= http.StatusInternalServerError {
			ev = log.Warn()
		}
		ev.Str("group", group).
			Str("method", ctx.Request.Method).
			Str("route", ctx.FullPath()).
			Int("status", status).
			Dur("took", time.Since(start)).
			Msg("request")
	}
}
