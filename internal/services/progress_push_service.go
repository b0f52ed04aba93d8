package services

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"bridge-backend/internal/metrics"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Origin checks belong to the deployment's reverse proxy.
		return true
	},
}

// wsConnection is one progress subscriber.
type wsConnection struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

// ProgressPushService streams transfer progress events to websocket
// subscribers. It implements ProgressObserver; a slow or dead subscriber is
// dropped rather than allowed to block the bridge.
type ProgressPushService struct {
	mu          sync.RWMutex
	connections map[string]*wsConnection
}

// NewProgressPushService creates a ProgressPushService.
func NewProgressPushService() *ProgressPushService {
	return &ProgressPushService{
		connections: make(map[string]*wsConnection),
	}
}

// Notify implements ProgressObserver by broadcasting the event to all
// subscribers. Never blocks: full send buffers drop the event.
func (s *ProgressPushService) Notify(event ProgressEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		logrus.WithError(err).Error("failed to marshal progress event")
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.connections {
		select {
		case c.send <- data:
		default:
			// subscriber too slow, skip
		}
	}
}

// HandleConnection upgrades an HTTP request and serves the subscriber until
// it disconnects.
func (s *ProgressPushService) HandleConnection(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logrus.WithError(err).Warn("websocket upgrade failed")
		return
	}

	c := &wsConnection{
		id:   uuid.New().String(),
		conn: conn,
		send: make(chan []byte, 64),
	}

	s.mu.Lock()
	s.connections[c.id] = c
	s.mu.Unlock()
	metrics.WSConnectionsActive.Inc()

	logrus.WithField("connection_id", c.id).Info("progress subscriber connected")

	go s.writeLoop(c)
	s.readLoop(c)
}

func (s *ProgressPushService) writeLoop(c *wsConnection) {
	ping := time.NewTicker(30 * time.Second)
	defer ping.Stop()

	for {
		select {
		case data, ok := <-c.send:
			if !ok {
				return
			}
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ping.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readLoop discards inbound frames and tears the connection down on error.
func (s *ProgressPushService) readLoop(c *wsConnection) {
	defer s.drop(c)
	c.conn.SetReadLimit(1024)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *ProgressPushService) drop(c *wsConnection) {
	s.mu.Lock()
	if _, ok := s.connections[c.id]; ok {
		delete(s.connections, c.id)
		close(c.send)
		metrics.WSConnectionsActive.Dec()
	}
	s.mu.Unlock()

	c.conn.Close()
	logrus.WithField("connection_id", c.id).Info("progress subscriber disconnected")
}
