package handlers

import (
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// WsHandler upgrades the request and runs the session loop on the calling
// goroutine. The server holds no per-connection state of its own; the
// shared registry inside the relay is the only thing sessions have in common.
func (r *Relay) WsHandler(w http.ResponseWriter, req *http.Request) {
	// Upgrade replies to the client itself on failure.
	ws, err := upgrader.Upgrade(w, req, nil)
	if err != nil {
		r.log.Error("websocket upgrade failed", zap.Error(err))
		return
	}

	conn := NewConnection(ws)
	go conn.writePump()

	newSession(r, conn, r.log).run()
}
