package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/restaurant-reservations/utils"
)

const writeWait = 5 * time.Second

// Hub keeps the connected websocket clients and broadcasts every message to
// all of them.
type Hub struct {
	clients map[*websocket.Conn]string // conn -> remote address
	mutex   sync.Mutex
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*websocket.Conn]string)}
}

func (h *Hub) Register(conn *websocket.Conn) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.clients[conn] = conn.RemoteAddr().String()
	utils.InfoLogger.WithField("remote", conn.RemoteAddr().String()).Info("Event client connected")
}

func (h *Hub) Unregister(conn *websocket.Conn) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.remove(conn)
}

func (h *Hub) remove(conn *websocket.Conn) {
	remote, ok := h.clients[conn]
	if !ok {
		return
	}
	delete(h.clients, conn)
	conn.Close()
	utils.InfoLogger.WithField("remote", remote).Info("Event client disconnected")
}

func (h *Hub) ClientCount() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.clients)
}

// Publish writes msg to every client. Clients that cannot be written to are
// dropped; that is not reported as an error.
func (h *Hub) Publish(_ context.Context, msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()

	utils.InfoLogger.WithFields(logrus.Fields{
		"event":   msg.Event,
		"clients": len(h.clients),
	}).Debug("Broadcasting message")

	for conn, remote := range h.clients {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			utils.ErrorLogger.Printf("Error sending message to %s: %v", remote, err)
			h.remove(conn)
		}
	}
	return nil
}

// Ping sends a keepalive to conn. Writes share the hub lock with Publish, so
// a ping never interleaves with a broadcast. A client that cannot be pinged
// is dropped and the error returned.
func (h *Hub) Ping(conn *websocket.Conn) error {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if _, ok := h.clients[conn]; !ok {
		return websocket.ErrCloseSent
	}
	if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
		h.remove(conn)
		return err
	}
	return nil
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	for conn := range h.clients {
		h.remove(conn)
	}
}
