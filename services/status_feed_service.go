package services

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"alpacabot/models"

	"github.com/gorilla/websocket"
)

// Constants for service configuration
const (
	MaxWebSocketClients   = 100 // Maximum concurrent WebSocket clients
	WebSocketWriteTimeout = 10 * time.Second
	WebSocketPongTimeout  = 60 * time.Second
	WebSocketPingInterval = 30 * time.Second
	RealtimeTickInterval  = 1 * time.Second
)

// CommandHandler executes bot commands received over the websocket.
type CommandHandler interface {
	StartManually(ctx context.Context) bool
	StopManually()
	CloseAllPositions(ctx context.Context) error
}

// Client represents a WebSocket client
type Client struct {
	conn *websocket.Conn
	send chan []byte
}

// StatusFeedService fans bot status events out to WebSocket subscribers and
// drives the 1-second realtime cadence while the bot is running.
type StatusFeedService struct {
	clients    map[*Client]bool
	broadcast  chan models.StatusEvent
	register   chan *Client
	unregister chan *Client
	shutdown   chan struct{}
	mu         sync.RWMutex
	upgrader   websocket.Upgrader

	// snapshotFn produces the full status payload sent to new subscribers.
	snapshotFn func() models.BotStatus
	// tickFn produces the per-second realtime payload.
	tickFn func() models.RealtimeStatus
	// commands executes start/stop/close_all_positions from subscribers.
	commands CommandHandler

	tickerRunning bool
	tickerStop    chan struct{}
}

// Global status feed
var GlobalStatusFeed *StatusFeedService

// InitStatusFeedService initializes the status feed and starts its hub.
// The command handler is attached afterwards via SetCommandHandler once the
// bot exists.
func InitStatusFeedService(snapshotFn func() models.BotStatus, tickFn func() models.RealtimeStatus) {
	GlobalStatusFeed = &StatusFeedService{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan models.StatusEvent, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		shutdown:   make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		snapshotFn: snapshotFn,
		tickFn:     tickFn,
	}

	// Start the hub
	go GlobalStatusFeed.run()

	log.Println("Status Feed Service initialized")
}

// SetCommandHandler attaches the bot's command surface.
func (s *StatusFeedService) SetCommandHandler(commands CommandHandler) {
	s.mu.Lock()
	s.commands = commands
	s.mu.Unlock()
}

// Shutdown gracefully shuts down the service
func (s *StatusFeedService) Shutdown() {
	s.StopRealtime()
	close(s.shutdown)

	// Close all client connections
	s.mu.Lock()
	for client := range s.clients {
		close(client.send)
		client.conn.Close()
	}
	s.clients = make(map[*Client]bool)
	s.mu.Unlock()

	log.Println("Status Feed Service shutdown complete")
}

// run starts the WebSocket hub
func (s *StatusFeedService) run() {
	for {
		select {
		case <-s.shutdown:
			return

		case client := <-s.register:
			s.mu.Lock()
			// Check client limit
			if len(s.clients) >= MaxWebSocketClients {
				s.mu.Unlock()
				client.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "Server at capacity"))
				client.conn.Close()
				log.Printf("WebSocket client rejected: max clients reached (%d)", MaxWebSocketClients)
				continue
			}
			s.clients[client] = true
			clientCount := len(s.clients)
			s.mu.Unlock()
			log.Printf("WebSocket client connected. Total clients: %d", clientCount)

			// New subscribers get the full state immediately.
			s.sendSnapshotToClient(client)

		case client := <-s.unregister:
			s.mu.Lock()
			if _, ok := s.clients[client]; ok {
				delete(s.clients, client)
				close(client.send)
			}
			clientCount := len(s.clients)
			s.mu.Unlock()
			log.Printf("WebSocket client disconnected. Total clients: %d", clientCount)

		case event := <-s.broadcast:
			data, err := json.Marshal(event)
			if err != nil {
				log.Printf("Error marshaling broadcast message: %v", err)
				continue
			}

			s.mu.Lock()
			deadClients := make([]*Client, 0)
			for client := range s.clients {
				select {
				case client.send <- data:
				default:
					// Client buffer full, mark for removal
					deadClients = append(deadClients, client)
				}
			}
			for _, client := range deadClients {
				delete(s.clients, client)
				close(client.send)
			}
			s.mu.Unlock()
		}
	}
}

// Broadcast stamps the envelope and queues an event for all subscribers.
func (s *StatusFeedService) Broadcast(eventType string, data interface{}) {
	event := models.StatusEvent{
		Type: eventType,
		Data: data,
		Time: time.Now().Format(time.RFC3339),
	}
	select {
	case s.broadcast <- event:
	case <-s.shutdown:
	}
}

// StartRealtime begins the 1-second realtime status cadence. Idempotent.
func (s *StatusFeedService) StartRealtime() {
	s.mu.Lock()
	if s.tickerRunning {
		s.mu.Unlock()
		return
	}
	s.tickerRunning = true
	s.tickerStop = make(chan struct{})
	stop := s.tickerStop
	s.mu.Unlock()

	go s.runTicker(stop)
	log.Println("Realtime status updates started")
}

// StopRealtime halts the cadence. Idempotent.
func (s *StatusFeedService) StopRealtime() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.tickerRunning {
		return
	}
	close(s.tickerStop)
	s.tickerRunning = false
	log.Println("Realtime status updates stopped")
}

func (s *StatusFeedService) runTicker(stop chan struct{}) {
	ticker := time.NewTicker(RealtimeTickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-s.shutdown:
			return
		case <-ticker.C:
			if s.tickFn != nil {
				s.Broadcast(models.EventRealtimeStatus, s.tickFn())
			}
		}
	}
}

// HandleWebSocket handles WebSocket connections
func (s *StatusFeedService) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	// Check if at capacity before upgrading
	s.mu.RLock()
	atCapacity := len(s.clients) >= MaxWebSocketClients
	s.mu.RUnlock()

	if atCapacity {
		http.Error(w, "Server at capacity", http.StatusServiceUnavailable)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	client := &Client{
		conn: conn,
		send: make(chan []byte, 256),
	}

	s.register <- client

	go client.writePump()
	go client.readPump(s)
}

// sendSnapshotToClient delivers the full bot status to one subscriber.
func (s *StatusFeedService) sendSnapshotToClient(c *Client) {
	if s.snapshotFn == nil {
		return
	}
	event := models.StatusEvent{
		Type: models.EventBotStatus,
		Data: s.snapshotFn(),
		Time: time.Now().Format(time.RFC3339),
	}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	select {
	case c.send <- data:
	default:
		// Client buffer full, skip
	}
}

// writePump writes messages to the WebSocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(WebSocketPingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(WebSocketWriteTimeout))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(WebSocketWriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump reads messages from the WebSocket connection
func (c *Client) readPump(s *StatusFeedService) {
	defer func() {
		s.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(WebSocketPongTimeout))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(WebSocketPongTimeout))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket read error: %v", err)
			}
			break
		}

		var cmd struct {
			Action string `json:"action"`
		}
		if err := json.Unmarshal(message, &cmd); err != nil {
			continue
		}

		s.mu.RLock()
		commands := s.commands
		s.mu.RUnlock()
		if commands == nil {
			continue
		}
		switch cmd.Action {
		case "start":
			commands.StartManually(context.Background())
		case "stop":
			commands.StopManually()
		case "close_all_positions":
			go func() {
				if err := commands.CloseAllPositions(context.Background()); err != nil {
					log.Printf("Close all positions (ws) failed: %v", err)
				}
			}()
		case "get_status":
			s.sendSnapshotToClient(c)
		}
	}
}

// GetClientCount returns the number of connected clients
func (s *StatusFeedService) GetClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// IsRealtimeRunning returns whether the realtime cadence is active
func (s *StatusFeedService) IsRealtimeRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tickerRunning
}

// GetStatus returns service status info
func (s *StatusFeedService) GetStatus() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return map[string]interface{}{
		"realtime_running": s.tickerRunning,
		"client_count":     len(s.clients),
		"max_clients":      MaxWebSocketClients,
	}
}
