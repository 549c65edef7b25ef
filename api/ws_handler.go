package api

import (
	"log"
	"net/http"

	"github.com/fitly/fashion-ai/progress"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Browsers connect from the app's own origin; the API is CORS-open.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ProgressSocketHandler upgrades the connection and registers it with the
// broadcaster. The first frame tells the client its connection ID, which it
// passes along in generation requests to receive progress for them.
func ProgressSocketHandler(b *progress.Broadcaster) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("WebSocket upgrade failed: %v", err)
			return
		}

		connID := b.Register(ws)
		defer b.Unregister(connID)

		if err := ws.WriteJSON(map[string]string{
			"action":        "connection_created",
			"connection_id": connID,
		}); err != nil {
			log.Printf("Failed to send connection ID: %v", err)
			return
		}

		// Drain until the client goes away. Progress frames are pushed by
		// the broadcaster, not from this loop.
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}
}
