package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

const wsWriteTimeout = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		// Room codes gate access; the stream itself carries no credentials.
		return true
	},
}

// Watch upgrades to a WebSocket and pushes room events to the client. The
// stream is one-way: clients act through the HTTP surface and only read here.
// The first two frames are a connected notice and a full snapshot.
func (h *Handler) Watch(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.lookup(w, chi.URLParam(r, "code"))
	if !ok {
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade", "room", actor.Code(), "error", err)
		return
	}

	sub, err := actor.Subscribe()
	if err != nil {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "room is closed"),
			time.Now().Add(wsWriteTimeout))
		conn.Close()
		return
	}

	h.logger.Info("subscriber connected", "room", actor.Code())

	// Reader goroutine: we never expect frames, but reading is how we learn
	// the peer went away.
	go func() {
		defer sub.Close()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	defer func() {
		sub.Close()
		conn.Close()
		h.logger.Info("subscriber disconnected", "room", actor.Code())
	}()

	for ev := range sub.Events() {
		conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		if err := conn.WriteJSON(ev); err != nil {
			return
		}
	}
	// Events channel closed: the room was retired.
	conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseGoingAway, "room is closed"),
		time.Now().Add(wsWriteTimeout))
}
