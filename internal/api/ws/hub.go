package ws

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/agencyrpg/backend/internal/infrastructure/logging"
	"github.com/agencyrpg/backend/internal/infrastructure/monitoring"
	"github.com/agencyrpg/backend/internal/shared/types"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 32
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // CORS policy is enforced at the HTTP layer
	},
}

// Hub fans desktop events out to every connected client. It is the
// Publisher every domain manager broadcasts through.
type Hub struct {
	mu      sync.Mutex
	clients map[*client]bool // Protected by mu

	metrics *monitoring.Metrics
	logger  *logging.Logger
}

type client struct {
	id   string
	conn *websocket.Conn
	send chan types.Event
}

// NewHub creates an empty hub.
func NewHub(logger *logging.Logger) *Hub {
	return &Hub{
		clients: make(map[*client]bool),
		logger:  logger,
	}
}

// WithMetrics adds metrics tracking to the hub.
func (h *Hub) WithMetrics(metrics *monitoring.Metrics) *Hub {
	h.metrics = metrics
	return h
}

// Publish broadcasts an event to every connected client. A client that
// cannot keep up is dropped rather than blocking the state machines.
func (h *Hub) Publish(event types.Event) {
	if h.metrics != nil {
		h.metrics.WSEvents.WithLabelValues(event.Type).Inc()
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- event:
		default:
			h.dropLocked(c)
		}
	}
}

// HandleConnection upgrades an HTTP request and serves the connection
// until the client goes away.
func (h *Hub) HandleConnection(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	cl := &client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan types.Event, sendBuffer),
	}

	h.mu.Lock()
	h.clients[cl] = true
	count := len(h.clients)
	h.mu.Unlock()

	if h.metrics != nil {
		h.metrics.WSConnections.Set(float64(count))
	}
	h.logger.Debug("client connected",
		zap.String("client_id", cl.id),
		zap.Int("clients", count),
	)

	go h.writePump(cl)
	h.readPump(cl)
}

// Close drops every client. Used at server shutdown.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		h.dropLocked(c)
	}
}

func (h *Hub) readPump(cl *client) {
	defer func() {
		h.mu.Lock()
		h.dropLocked(cl)
		count := len(h.clients)
		h.mu.Unlock()
		if h.metrics != nil {
			h.metrics.WSConnections.Set(float64(count))
		}
		h.logger.Debug("client disconnected",
			zap.String("client_id", cl.id),
			zap.Int("clients", count),
		)
	}()

	cl.conn.SetReadLimit(1024)
	cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	cl.conn.SetPongHandler(func(string) error {
		return cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	// The push channel is one-way; inbound frames only keep the
	// connection alive.
	for {
		if _, _, err := cl.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(cl *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		cl.conn.Close()
	}()

	for {
		select {
		case event, ok := <-cl.send:
			cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				cl.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := cl.conn.WriteJSON(event); err != nil {
				return
			}
		case <-ticker.C:
			cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := cl.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// dropLocked removes a client and closes its send channel. Caller
// holds mu.
func (h *Hub) dropLocked(cl *client) {
	if h.clients[cl] {
		delete(h.clients, cl)
		close(cl.send)
	}
}
