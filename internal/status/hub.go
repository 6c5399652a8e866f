// Package status serves playback status snapshots to websocket clients.
package status

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/lanikai/multisource/internal/logging"
)

var log = logging.DefaultLogger.WithTag("status")

// Messages queued per client. When a client falls behind, the oldest queued
// message is dropped.
const clientQueueSize = 8

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub broadcasts published values, encoded as JSON, to every connected
// websocket client. New clients receive the most recent value on connect.
type Hub struct {
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
	last    []byte
	closed  bool
}

func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		clients: make(map[*client]struct{}),
	}
}

// ServeHTTP upgrades the request to a websocket and streams status messages
// until the client disconnects or the hub is closed.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("upgrade: %v", err)
		return
	}

	c := &client{conn: conn, send: make(chan []byte, clientQueueSize)}
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.clients[c] = struct{}{}
	if h.last != nil {
		c.send <- h.last
	}
	h.mu.Unlock()
	log.Debug("Client %v connected", conn.RemoteAddr())

	go h.writeLoop(c)

	// Clients only listen. Reading detects disconnects.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	h.remove(c)
	log.Debug("Client %v disconnected", conn.RemoteAddr())
}

func (h *Hub) writeLoop(c *client) {
	defer c.conn.Close()
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			log.Debug("write to %v: %v", c.conn.RemoteAddr(), err)
			h.remove(c)
			return
		}
	}
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// Publish sends v to every connected client.
func (h *Hub) Publish(v interface{}) error {
	msg, err := json.Marshal(v)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.last = msg
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			// Drop oldest message, add newest
			select {
			case <-c.send:
			default:
			}
			select {
			case c.send <- msg:
			default:
			}
			log.Trace(5, "client %v missed a status message", c.conn.RemoteAddr())
		}
	}
	return nil
}

// Close disconnects all clients.
func (h *Hub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
	return nil
}
