package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/timeshop/internal/models"
)

// TotalTimeFunc returns the current global counter, sent to every
// connection right after the upgrade.
type TotalTimeFunc func(ctx context.Context) (int, error)

// ConnectionManager owns the realtime connections and the presence
// registry. All outbound traffic funnels through a single broadcast
// channel; payloads are tiny and connection counts small, so the
// fan-out is synchronous with drop-on-full as the only backpressure.
type ConnectionManager struct {
	connections map[*Connection]bool
	mu          sync.RWMutex

	registry  *Registry
	totalTime TotalTimeFunc

	upgrader    websocket.Upgrader
	config      ConnectionConfig
	broadcastCh chan []byte
}

// Connection is one realtime client.
type Connection struct {
	ID      string
	Conn    *websocket.Conn
	Send    chan []byte
	Manager *ConnectionManager

	ConnectedAt time.Time
	LastPing    time.Time
}

// ConnectionConfig holds tunables for realtime connections.
type ConnectionConfig struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	CheckOrigin     func(r *http.Request) bool
}

// DefaultConnectionConfig returns the defaults.
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		MaxMessageSize:  4096,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			// Allow all origins in development - restrict in production
			return true
		},
	}
}

// NewConnectionManager creates a manager over the given registry.
func NewConnectionManager(config ConnectionConfig, registry *Registry, totalTime TotalTimeFunc) *ConnectionManager {
	return &ConnectionManager{
		connections: make(map[*Connection]bool),
		registry:    registry,
		totalTime:   totalTime,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		config:      config,
		broadcastCh: make(chan []byte, 256),
	}
}

// Start processes broadcast frames until ctx is cancelled.
func (cm *ConnectionManager) Start(ctx context.Context) {
	log.Info().Msg("connection manager started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("connection manager shutting down")
			return
		case frame := <-cm.broadcastCh:
			cm.fanOut(frame)
		}
	}
}

// UpgradeConnection upgrades an HTTP request to a realtime connection
// and sends the current global total as the first frame.
func (cm *ConnectionManager) UpgradeConnection(w http.ResponseWriter, r *http.Request) error {
	conn, err := cm.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return fmt.Errorf("upgrade connection: %w", err)
	}

	connection := &Connection{
		ID:          uuid.New().String(),
		Conn:        conn,
		Send:        make(chan []byte, 64),
		Manager:     cm,
		ConnectedAt: time.Now(),
		LastPing:    time.Now(),
	}

	cm.register(connection)

	go connection.writePump()
	go connection.readPump()

	if total, err := cm.totalTime(r.Context()); err != nil {
		log.Error().Err(err).Msg("failed to read total time for greeting")
	} else if frame, err := encodeTotalTime(total); err == nil {
		connection.trySend(frame)
	}

	log.Info().
		Str("connection_id", connection.ID).
		Msg("realtime connection established")
	return nil
}

func (cm *ConnectionManager) register(conn *Connection) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.connections[conn] = true

	log.Debug().
		Str("connection_id", conn.ID).
		Int("total_connections", len(cm.connections)).
		Msg("connection registered")
}

func (cm *ConnectionManager) unregister(conn *Connection) {
	cm.mu.Lock()
	removed := false
	if _, exists := cm.connections[conn]; exists {
		delete(cm.connections, conn)
		close(conn.Send)
		removed = true
	}
	cm.mu.Unlock()

	if !removed {
		return
	}

	// Dropping the presence entry changes the online list, so everyone
	// still connected gets exactly one rebroadcast.
	if cm.registry.Remove(conn.ID) {
		cm.BroadcastPresence()
	}

	log.Info().
		Str("connection_id", conn.ID).
		Msg("connection unregistered")
}

// BroadcastTotalTime queues a totalTime frame for every connection.
func (cm *ConnectionManager) BroadcastTotalTime(total int) {
	frame, err := encodeTotalTime(total)
	if err != nil {
		log.Error().Err(err).Msg("failed to encode totalTime frame")
		return
	}
	cm.enqueue(frame)
}

// BroadcastPresence queues the full online-users snapshot for every
// connection.
func (cm *ConnectionManager) BroadcastPresence() {
	frame, err := encodeOnlineUsers(cm.registry.SnapshotAll())
	if err != nil {
		log.Error().Err(err).Msg("failed to encode onlineUsers frame")
		return
	}
	cm.enqueue(frame)
}

func (cm *ConnectionManager) enqueue(frame []byte) {
	select {
	case cm.broadcastCh <- frame:
	default:
		log.Warn().Msg("broadcast channel full, dropping frame")
	}
}

func (cm *ConnectionManager) fanOut(frame []byte) {
	cm.mu.RLock()
	targets := make([]*Connection, 0, len(cm.connections))
	for conn := range cm.connections {
		targets = append(targets, conn)
	}
	cm.mu.RUnlock()

	for _, conn := range targets {
		if !conn.trySend(frame) {
			// Connection is slow/dead, close it
			log.Warn().
				Str("connection_id", conn.ID).
				Msg("connection send buffer full, closing connection")
			cm.unregister(conn)
			conn.Conn.Close()
		}
	}
}

// ConnectionCount returns the number of open connections.
func (cm *ConnectionManager) ConnectionCount() int {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return len(cm.connections)
}

// handlePresenceUpdate applies one presence:update frame from connID.
func (cm *ConnectionManager) handlePresenceUpdate(connID string, p models.Presence) {
	if p.Username == "" {
		return
	}
	if p.LastCards == nil {
		p.LastCards = []models.CardLevel{}
	}
	cm.registry.Upsert(connID, p)
	cm.BroadcastPresence()
}

func (c *Connection) trySend(frame []byte) bool {
	select {
	case c.Send <- frame:
		return true
	default:
		return false
	}
}

// writePump drains the Send channel and keeps the ping cadence.
func (c *Connection) writePump() {
	ticker := time.NewTicker(c.Manager.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
		c.Manager.unregister(c)
	}()

	for {
		select {
		case frame, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("failed to write frame")
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("failed to send ping")
				return
			}
			c.LastPing = time.Now()
		}
	}
}

// readPump consumes client frames until the connection drops.
func (c *Connection) readPump() {
	defer func() {
		c.Manager.unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(c.Manager.config.MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
		c.LastPing = time.Now()
		return nil
	})

	for {
		_, raw, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("unexpected close")
			}
			break
		}
		c.handleClientMessage(raw)
		c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	}
}

func (c *Connection) handleClientMessage(raw []byte) {
	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		log.Debug().
			Str("connection_id", c.ID).
			Err(err).
			Msg("ignoring malformed client frame")
		return
	}

	switch msg.Type {
	case MessageTypePresenceUpdate:
		var p models.Presence
		if err := json.Unmarshal(msg.Data, &p); err != nil {
			log.Debug().
				Str("connection_id", c.ID).
				Err(err).
				Msg("ignoring malformed presence payload")
			return
		}
		c.Manager.handlePresenceUpdate(c.ID, p)
	default:
		log.Debug().
			Str("connection_id", c.ID).
			Str("type", string(msg.Type)).
			Msg("ignoring unknown client frame")
	}
}
