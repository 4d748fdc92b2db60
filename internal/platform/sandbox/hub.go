package sandbox

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

var upgrader = websocket.Upgrader{
	// The sandbox is a local dev server; cross-origin pages may connect.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// hub fans a refresh event out to every connected client.
type hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
	log     zerolog.Logger
}

func newHub(log zerolog.Logger) *hub {
	return &hub{
		clients: make(map[*websocket.Conn]struct{}),
		log:     log,
	}
}

// handleConnect upgrades the request and keeps the connection registered
// until the client goes away.
func (h *hub) handleConnect(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	h.mu.Lock()
	h.clients[conn] = struct{}{}
	h.mu.Unlock()
	h.log.Debug().Msg("live client connected")

	// Drain inbound frames; the read error is the disconnect signal.
	go func() {
		defer func() {
			h.mu.Lock()
			delete(h.clients, conn)
			h.mu.Unlock()
			conn.Close()
			h.log.Debug().Msg("live client disconnected")
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
	return nil
}

// broadcastRefresh tells every client the data changed. Failed writes drop
// the client.
func (h *hub) broadcastRefresh() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		if err := conn.WriteJSON(map[string]string{"type": "refresh"}); err != nil {
			delete(h.clients, conn)
			conn.Close()
		}
	}
}
