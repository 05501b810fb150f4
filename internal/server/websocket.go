package server

import (
	"context"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/michaelbrown/proctor/internal/storage"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // served on a trusted network, like the CLI itself
	},
}

// watchInterval is how often the store is polled for new records.
const watchInterval = 2 * time.Second

// hub tracks connected websocket clients. Each connection gets its own
// write mutex; broadcasts fan out under the hub lock.
type hub struct {
	mu      sync.Mutex
	clients map[*client]struct{}
}

type client struct {
	conn *websocket.Conn
	mu   sync.Mutex // serializes writes to the connection
}

func newHub() *hub {
	return &hub{clients: make(map[*client]struct{})}
}

func (h *hub) add(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
}

func (h *hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, c)
}

func (h *hub) broadcast(v any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		c.mu.Lock()
		if err := c.conn.WriteJSON(v); err != nil {
			log.Printf("websocket write error: %v", err)
		}
		c.mu.Unlock()
	}
}

func (h *hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		c.conn.Close()
		delete(h.clients, c)
	}
}

// wsEvent is a message pushed to websocket clients.
type wsEvent struct {
	Type   string          `json:"type"`
	Record *storage.Record `json:"record,omitempty"`
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}

	c := &client{conn: conn}
	s.hub.add(c)
	defer func() {
		s.hub.remove(c)
		conn.Close()
	}()

	// Read loop exists only to detect the client going away; the feed
	// is one-directional.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("websocket read error: %v", err)
			}
			return
		}
	}
}

// watchResults polls the store and pushes records created after the
// watcher started to all connected clients. Polling keeps the server
// decoupled from the CLI process actually writing the records.
func (s *Server) watchResults(ctx context.Context) {
	lastSeen := time.Now().UTC()
	ticker := time.NewTicker(watchInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		records, err := s.store.ListRecords(ctx, storage.ListOptions{Limit: 50})
		if err != nil {
			log.Printf("result watcher: %v", err)
			continue
		}

		// Newest first; walk backwards so clients see chronological order.
		for i := len(records) - 1; i >= 0; i-- {
			rec := records[i]
			if !rec.CreatedAt.After(lastSeen) {
				continue
			}
			lastSeen = rec.CreatedAt
			s.hub.broadcast(wsEvent{Type: "result", Record: &rec})
		}
	}
}
