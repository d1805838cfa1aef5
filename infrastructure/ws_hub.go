package infrastructure

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"prizedraw/domain/events"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

const (
	clientSendBuf = 64
	writeDeadline = 5 * time.Second
	pongWait      = 30 * time.Second
	pingInterval  = 20 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(_ *http.Request) bool { return true },
}

// wsMessage is the envelope pushed to every connected client.
type wsMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type hubClient struct {
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
}

// SnapshotFunc produces the payload sent to a client right after it
// connects, so late joiners never wait for the next mutation.
type SnapshotFunc func(ctx context.Context) (any, error)

// Hub fans out domain events to connected WebSocket clients.
type Hub struct {
	mu       sync.Mutex
	clients  map[*hubClient]struct{}
	snapshot SnapshotFunc
}

// NewHub creates a hub subscribed to the inventory, redemption and
// config event streams on the given bus.
func NewHub(bus *Bus, snapshot SnapshotFunc) *Hub {
	h := &Hub{
		clients:  make(map[*hubClient]struct{}),
		snapshot: snapshot,
	}
	bus.Subscribe(events.EventTypeInventoryChanged, h.forward)
	bus.Subscribe(events.EventTypeRedemptionCompleted, h.forward)
	bus.Subscribe(events.EventTypeConfigUpdated, h.forward)
	return h
}

// forward serializes an event and enqueues it to every client's send
// channel without blocking the publisher.
func (h *Hub) forward(_ context.Context, event events.Event) {
	data, err := json.Marshal(wsMessage{
		Type:    string(event.Type()),
		Payload: event,
	})
	if err != nil {
		log.WithError(err).Warn("Failed to marshal event for websocket fan-out")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			log.Warn("Dropping websocket message for slow client")
		}
	}
}

// HandleWS is the HTTP handler for WebSocket upgrade requests.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Warn("Websocket upgrade failed")
		return
	}

	c := &hubClient{
		conn: conn,
		send: make(chan []byte, clientSendBuf),
		done: make(chan struct{}),
	}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	log.Debug("Websocket client connected")

	h.sendSnapshot(r.Context(), c)

	go h.writePump(c)
	go h.readPump(c)
}

// sendSnapshot enqueues the current state so a fresh client renders
// immediately instead of waiting for the next event.
func (h *Hub) sendSnapshot(ctx context.Context, c *hubClient) {
	if h.snapshot == nil {
		return
	}
	payload, err := h.snapshot(ctx)
	if err != nil {
		log.WithError(err).Warn("Failed to build websocket snapshot")
		return
	}
	data, err := json.Marshal(wsMessage{Type: "state_snapshot", Payload: payload})
	if err != nil {
		log.WithError(err).Warn("Failed to marshal websocket snapshot")
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

// writePump drains the client's send channel and writes to the
// connection. It owns the client lifecycle: on exit it removes the
// client from the map and closes the connection.
func (h *Hub) writePump(c *hubClient) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		h.removeClient(c)
		c.conn.Close()
	}()

	for {
		select {
		case msg := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-c.done:
			return
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump keeps the connection alive by reading pongs and close
// frames. Clients never send upstream messages. On exit it signals
// writePump via c.done.
func (h *Hub) readPump(c *hubClient) {
	defer close(c.done)

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) removeClient(c *hubClient) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	log.Debug("Websocket client disconnected")
}
