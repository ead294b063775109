package endpoints

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/Ganezza/tvmasjid-sub000/internal/engine"
	"github.com/Ganezza/tvmasjid-sub000/internal/http/api/display/packets"
)

const writeTimeout = 5 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func streamMessage(u engine.Update) packets.StreamMessage {
	return packets.StreamMessage{
		Type:     "tick",
		At:       u.At,
		Overlay:  overlayResponse(u.Overlay),
		Playback: u.Playback,
		Events:   u.Events,
	}
}

func send(conn *websocket.Conn, u engine.Update) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteJSON(streamMessage(u))
}

// stream pushes the latest update on connect and then one per tick until
// the client goes away or the engine stops.
func (d *DisplayController) stream(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	updates, cancel := d.src.Subscribe(8)
	defer cancel()

	remote := c.Request.RemoteAddr
	log.Info().Str("remote", remote).Msg("display stream connected")
	defer log.Info().Str("remote", remote).Msg("display stream disconnected")

	// the reader only notices the client closing
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := send(conn, d.src.Last()); err != nil {
		return
	}
	for {
		select {
		case u, ok := <-updates:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "engine stopped"),
					time.Now().Add(writeTimeout))
				return
			}
			if err := send(conn, u); err != nil {
				return
			}
		case <-gone:
			return
		}
	}
}
