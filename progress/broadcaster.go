package progress

import (
	"log"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Broadcaster pushes pipeline progress to live client connections. Delivery
// is best-effort: sends to unknown or closed connections are dropped
// silently and never fail the request that emitted them.
type Broadcaster struct {
	mu    sync.Mutex
	conns map[string]*connection
}

type connection struct {
	mu sync.Mutex
	ws *websocket.Conn
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{conns: make(map[string]*connection)}
}

// Register adds a websocket connection to the table and returns the opaque
// connection ID the client should attach to its generation requests.
func (b *Broadcaster) Register(ws *websocket.Conn) string {
	id := uuid.NewString()
	b.mu.Lock()
	b.conns[id] = &connection{ws: ws}
	b.mu.Unlock()
	return id
}

// Unregister removes the connection. The caller owns closing the socket.
func (b *Broadcaster) Unregister(id string) {
	b.mu.Lock()
	delete(b.conns, id)
	b.mu.Unlock()
}

// Send delivers one event to the given connection. A failed write evicts
// the connection so later sends become no-ops.
func (b *Broadcaster) Send(connectionID string, ev Event) {
	b.mu.Lock()
	conn, ok := b.conns[connectionID]
	b.mu.Unlock()
	if !ok {
		return
	}

	conn.mu.Lock()
	err := conn.ws.WriteJSON(ev)
	conn.mu.Unlock()
	if err != nil {
		log.Printf("[Progress] dropping connection %s: %v", connectionID, err)
		b.Unregister(connectionID)
	}
}

// Count returns the number of live connections.
func (b *Broadcaster) Count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.conns)
}
