package api

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMountGroup(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf).Level(zerolog.DebugLevel)
	t.Cleanup(func() { log.Logger = prev })

	r := gin.New()
	v1 := r.Group("/api")
	MountGroup(v1, GroupConfig{Prefix: "/display", Name: "display"}, ModuleFunc(func(c *Controller) {
		c.GET("/ok", func(ctx *gin.Context) (any, *APIError) {
			return gin.H{"status": "ok"}, nil
		})
		c.GET("/down", func(ctx *gin.Context) (any, *APIError) {
			return nil, &APIError{Code: http.StatusServiceUnavailable, Message: "not ready"}
		})
	}))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/display/ok", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	assert.Contains(t, buf.String(), `"route":"/api/display/ok"`)
	assert.Contains(t, buf.String(), `"level":"debug"`)

	buf.Reset()
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/display/down", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{"error":"not ready"}`, w.Body.String())
	assert.Contains(t, buf.String(), `"level":"warn"`)
	assert.Contains(t, buf.String(), `"group":"display"`)
}
