package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/coder/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Ping cadence keeping idle connections alive.
	pingPeriod = 30 * time.Second

	// Maximum message size accepted from a peer.
	maxMessageSize = 512
)

type client struct {
	conn   *websocket.Conn
	send   chan []byte
	server *PreviewServer
}

// reloadMessage is the payload pushed to browsers after a change.
type reloadMessage struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
}

func (s *PreviewServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		s.logger.Warn(r.Context(), err, "websocket upgrade failed")
		return
	}

	c := &client{
		conn:   conn,
		send:   make(chan []byte, 256),
		server: s,
	}

	go c.writePump()
	go c.readPump()

	s.register <- c
}

// notifyReload tells every connected browser to refresh.
func (s *PreviewServer) notifyReload() {
	payload, err := json.Marshal(reloadMessage{Type: "reload", Timestamp: time.Now()})
	if err != nil {
		return
	}
	select {
	case s.broadcast <- payload:
	default:
	}
}

// runHub owns the client set. Register, unregister, and broadcast all
// funnel through here so the map is only touched under its mutex.
func (s *PreviewServer) runHub(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			s.closeAllClients()
			return

		case c := <-s.register:
			s.clientsMutex.Lock()
			s.clients[c.conn] = c
			count := len(s.clients)
			s.clientsMutex.Unlock()
			s.logger.Debug(ctx, "websocket client connected", "total", count)

		case conn := <-s.unregister:
			s.clientsMutex.Lock()
			if c, ok := s.clients[conn]; ok {
				delete(s.clients, conn)
				close(c.send)
				conn.Close(websocket.StatusNormalClosure, "")
			}
			count := len(s.clients)
			s.clientsMutex.Unlock()
			s.logger.Debug(ctx, "websocket client disconnected", "total", count)

		case message := <-s.broadcast:
			s.clientsMutex.RLock()
			var stalled []*websocket.Conn
			for conn, c := range s.clients {
				select {
				case c.send <- message:
				default:
					stalled = append(stalled, conn)
				}
			}
			s.clientsMutex.RUnlock()

			// Drop clients whose send buffers filled up.
			s.clientsMutex.Lock()
			for _, conn := range stalled {
				if c, ok := s.clients[conn]; ok {
					delete(s.clients, conn)
					close(c.send)
					conn.Close(websocket.StatusNormalClosure, "")
				}
			}
			s.clientsMutex.Unlock()
		}
	}
}

func (s *PreviewServer) closeAllClients() {
	s.clientsMutex.Lock()
	defer s.clientsMutex.Unlock()
	for conn, c := range s.clients {
		delete(s.clients, conn)
		close(c.send)
		conn.Close(websocket.StatusGoingAway, "server shutting down")
	}
}

// readPump drains incoming frames so pongs and close frames are
// processed, and unregisters the client when the peer goes away. Reads
// carry no deadline: browsers send nothing while idle, and liveness
// comes from the write pump's pings instead.
func (c *client) readPump() {
	defer func() {
		c.server.unregister <- c.conn
	}()

	c.conn.SetReadLimit(maxMessageSize)

	ctx := context.Background()
	for {
		if _, _, err := c.conn.Read(ctx); err != nil {
			return
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	ctx := context.Background()
	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				return
			}
			writeCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Write(writeCtx, websocket.MessageText, message)
			cancel()
			if err != nil {
				return
			}

		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Ping(pingCtx)
			cancel()
			if err != nil {
				return
			}
		}
	}
}
