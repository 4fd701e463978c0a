package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/yeremiapane/restaurant-reservations/events"
	"github.com/yeremiapane/restaurant-reservations/utils"
)

const (
	defaultPongWait = 60 * time.Second
	maxReadBytes    = 512
)

// EventsController streams change events to websocket clients. Clients are
// pinged every 9/10 of PongWait and dropped when no pong arrives within it.
type EventsController struct {
	Hub      *events.Hub
	PongWait time.Duration
	upgrader websocket.Upgrader
}

func NewEventsController(hub *events.Hub, allowedOrigin string) *EventsController {
	return &EventsController{
		Hub:      hub,
		PongWait: defaultPongWait,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return allowedOrigin == "*" || origin == "" || origin == allowedOrigin
			},
		},
	}
}

// Stream -> GET /ws/events
func (ec *EventsController) Stream(c *gin.Context) {
	ws, err := ec.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		utils.InfoLogger.WithField("remote", c.ClientIP()).Warnf("Websocket upgrade failed: %v", err)
		return
	}

	ec.Hub.Register(ws)
	defer ec.Hub.Unregister(ws)

	done := make(chan struct{})
	defer close(done)
	go ec.keepAlive(ws, done)

	// Clients only listen; reading handles pongs and detects disconnects.
	ws.SetReadLimit(maxReadBytes)
	_ = ws.SetReadDeadline(time.Now().Add(ec.PongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(ec.PongWait))
	})
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			break
		}
		_ = ws.SetReadDeadline(time.Now().Add(ec.PongWait))
	}
}

func (ec *EventsController) keepAlive(ws *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(ec.PongWait * 9 / 10)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := ec.Hub.Ping(ws); err != nil {
				return
			}
		}
	}
}
