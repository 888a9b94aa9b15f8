package progress

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"sync"
	"time"

	"seoaudit/internal/metrics"

	"github.com/gorilla/websocket"
)

var errHubFull = errors.New("connection limit reached")

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for now
	},
}

// Hub manages WebSocket connections and fans audit messages out to the
// connections subscribed to each audit
type Hub struct {
	connections    map[*Connection]bool
	mu             sync.RWMutex
	metrics        *metrics.ProgressMetrics
	log            *slog.Logger
	maxConnections int
	writeTimeout   time.Duration
}

// HubOption configures the Hub
type HubOption func(*Hub)

// NewHub creates a new WebSocket hub with optional configurations
func NewHub(opts ...HubOption) *Hub {
	h := &Hub{
		connections:  make(map[*Connection]bool),
		log:          slog.Default(),
		writeTimeout: 10 * time.Second,
	}

	for _, opt := range opts {
		opt(h)
	}

	return h
}

// WithHubMetrics sets the metrics collector for the hub
func WithHubMetrics(m *metrics.ProgressMetrics) HubOption {
	return func(h *Hub) { h.metrics = m }
}

// WithHubLogger sets the logger for the hub
func WithHubLogger(log *slog.Logger) HubOption {
	return func(h *Hub) { h.log = log }
}

// WithHubLimits caps concurrent connections and bounds each write. Zero values keep the defaults.
func WithHubLimits(maxConnections int, writeTimeout time.Duration) HubOption {
	return func(h *Hub) {
		h.maxConnections = maxConnections
		if writeTimeout > 0 {
			h.writeTimeout = writeTimeout
		}
	}
}

// AddConnection adds a new WebSocket connection to the hub
func (h *Hub) AddConnection(conn *Connection) error {
	h.mu.Lock()
	if h.maxConnections > 0 && len(h.connections) >= h.maxConnections {
		h.mu.Unlock()
		if h.metrics != nil {
			h.metrics.RecordWebSocketConnection(false)
		}
		return errHubFull
	}
	h.connections[conn] = true
	count := len(h.connections)
	h.mu.Unlock()

	if h.metrics != nil {
		h.metrics.RecordWebSocketConnection(true)
		h.metrics.SetActiveWebSocketConnections(count)
	}

	h.log.Info("New WebSocket connection established", slog.Int("total", count))
	return nil
}

// RemoveConnection removes a WebSocket connection from the hub
func (h *Hub) RemoveConnection(conn *Connection) {
	h.mu.Lock()
	if _, ok := h.connections[conn]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.connections, conn)
	count := len(h.connections)
	h.mu.Unlock()

	if h.metrics != nil {
		h.metrics.RecordWebSocketConnectionDuration(time.Since(conn.start).Seconds())
		h.metrics.SetActiveWebSocketConnections(count)
	}

	h.log.Info("WebSocket connection closed", slog.Int("total", count))
}

// BroadcastToGroup sends a message to all connections subscribed to an audit
func (h *Hub) BroadcastToGroup(group, messageType string, msg any) {
	start := time.Now()

	data, err := json.Marshal(msg)
	if err != nil {
		h.log.Error("Failed to marshal message", slog.Any("error", err))
		return
	}

	h.mu.RLock()
	targets := make([]*Connection, 0, len(h.connections))
	for conn := range h.connections {
		if conn.HasGroup(group) {
			targets = append(targets, conn)
		}
	}
	h.mu.RUnlock()

	if len(targets) == 0 {
		return
	}

	successCount := 0
	for _, conn := range targets {
		if err := conn.WriteMessage(data, h.writeTimeout); err != nil {
			h.log.Error("Failed to write to websocket", slog.Any("error", err))
			h.RemoveConnection(conn)
			conn.Close()
			continue
		}
		successCount++
	}

	if h.metrics != nil {
		h.metrics.RecordWebSocketMessage(messageType, successCount == len(targets), time.Since(start).Seconds())
	}
}

// Subscribers returns the number of connections subscribed to an audit
func (h *Hub) Subscribers(group string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n := 0
	for conn := range h.connections {
		if conn.HasGroup(group) {
			n++
		}
	}
	return n
}

// RecordSubscription records subscription metrics
func (h *Hub) RecordSubscription(action string) {
	if h.metrics != nil {
		h.metrics.RecordSubscription(action)
	}
}

// Close shuts down the hub and closes all connections
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.connections {
		conn.Close()
	}

	h.connections = make(map[*Connection]bool)
	h.log.Info("WebSocket hub closed")
}

// Connection represents a WebSocket connection with audit subscriptions
type Connection struct {
	conn    *websocket.Conn
	groups  []string
	mu      sync.RWMutex
	writeMu sync.Mutex
	hub     *Hub
	log     *slog.Logger
	start   time.Time
}

// SubscriptionMessage represents a subscription/unsubscription request.
// Group is the audit id.
type SubscriptionMessage struct {
	Action string `json:"action"`
	Group  string `json:"group"`
}

// NewConnection creates a new WebSocket connection wrapper
func NewConnection(conn *websocket.Conn, hub *Hub, log *slog.Logger) *Connection {
	return &Connection{
		conn:   conn,
		groups: make([]string, 0),
		hub:    hub,
		log:    log,
		start:  time.Now(),
	}
}

// AddGroup adds the connection to a subscription group
func (c *Connection) AddGroup(group string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !slices.Contains(c.groups, group) {
		c.groups = append(c.groups, group)
	}
}

// RemoveGroup removes the connection from a subscription group
func (c *Connection) RemoveGroup(group string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.groups = slices.DeleteFunc(c.groups, func(g string) bool { return g == group })
}

// HasGroup checks if the connection is subscribed to a group
func (c *Connection) HasGroup(group string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Contains(c.groups, group)
}

// WriteMessage sends a text frame. Writers are serialized per connection.
func (c *Connection) WriteMessage(msg []byte, timeout time.Duration) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if timeout > 0 {
		_ = c.conn.SetWriteDeadline(time.Now().Add(timeout))
	}
	return c.conn.WriteMessage(websocket.TextMessage, msg)
}

// Close closes the WebSocket connection
func (c *Connection) Close() error {
	return c.conn.Close()
}

// ReadLoop continuously reads subscription requests from the WebSocket connection
func (c *Connection) ReadLoop() {
	defer func() {
		c.hub.RemoveConnection(c)
		c.conn.Close()
	}()

	for {
		msgType, p, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.Error("Unexpected websocket close error", slog.Any("error", err))
			}
			break
		}

		if msgType == websocket.TextMessage {
			c.handleSubscriptionMessage(p)
		}
	}
}

// handleSubscriptionMessage processes subscription/unsubscription requests
func (c *Connection) handleSubscriptionMessage(data []byte) {
	var sub SubscriptionMessage
	if err := json.Unmarshal(data, &sub); err != nil {
		c.log.Error("Failed to unmarshal subscription message", slog.Any("error", err))
		return
	}

	if sub.Group == "" {
		c.log.Warn("Ignoring subscription without audit id", slog.String("action", sub.Action))
		return
	}

	switch sub.Action {
	case "subscribe":
		c.AddGroup(sub.Group)
		c.hub.RecordSubscription("subscribe")
		c.log.Info("Added subscription for audit", slog.String("auditId", sub.Group))

	case "unsubscribe":
		c.RemoveGroup(sub.Group)
		c.hub.RecordSubscription("unsubscribe")
		c.log.Info("Removed subscription for audit", slog.String("auditId", sub.Group))
	}
}

// Handler handles WebSocket HTTP requests and upgrades them to WebSocket connections
type Handler struct {
	hub *Hub
	log *slog.Logger
}

// NewHandler creates a new WebSocket handler
func NewHandler(hub *Hub, log *slog.Logger) *Handler {
	return &Handler{
		hub: hub,
		log: log,
	}
}

// HandleWebSocket upgrades HTTP requests to WebSocket connections
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error("Failed to upgrade websocket connection", slog.Any("error", err))
		return
	}

	wsConn := NewConnection(conn, h.hub, h.log)

	if err := h.hub.AddConnection(wsConn); err != nil {
		h.log.Warn("Rejecting websocket connection", slog.Any("error", err))
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseTryAgainLater, err.Error()),
			time.Now().Add(time.Second))
		conn.Close()
		return
	}

	go wsConn.ReadLoop()
}
