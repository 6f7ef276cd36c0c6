package ws

import (
	"encoding/json"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
)

const broadcastBuffer = 256

// Message is the frame pushed to admin consoles.
type Message struct {
	Type      string      `json:"type"`
	Action    string      `json:"action"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

// actionNames maps audit event types onto the feed's action names; other
// events are forwarded lowercased.
var actionNames = map[string]string{
	"ORDER_STATUS_CHANGED":      "order_status_updated",
	"ORDER_ITEM_STATUS_CHANGED": "order_status_updated",
}

type Hub struct {
	Clients    map[*websocket.Conn]bool
	Register   chan *websocket.Conn
	Unregister chan *websocket.Conn
	Broadcast  chan []byte
	quit       chan struct{}
	once       sync.Once
	mutex      sync.Mutex
}

func NewHub() *Hub {
	return &Hub{
		Clients:    make(map[*websocket.Conn]bool),
		Register:   make(chan *websocket.Conn),
		Unregister: make(chan *websocket.Conn),
		Broadcast:  make(chan []byte, broadcastBuffer),
		quit:       make(chan struct{}),
	}
}

// Publish queues an event for connected clients without blocking the
// caller; when the queue is full the event is dropped.
func (h *Hub) Publish(eventType string, payload interface{}) {
	action, ok := actionNames[eventType]
	if !ok {
		action = strings.ToLower(eventType)
	}
	msg, err := json.Marshal(Message{
		Type:      "admin_event",
		Action:    action,
		Data:      payload,
		Timestamp: time.Now(),
	})
	if err != nil {
		log.Printf("WS: failed to encode %s: %v", eventType, err)
		return
	}

	select {
	case h.Broadcast <- msg:
	default:
		log.Printf("WS: broadcast queue full, dropping %s", eventType)
	}
}

// Join registers conn and reports false once the hub has stopped.
func (h *Hub) Join(conn *websocket.Conn) bool {
	select {
	case h.Register <- conn:
		return true
	case <-h.quit:
		return false
	}
}

// Leave unregisters conn. After Stop the hub has already closed it.
func (h *Hub) Leave(conn *websocket.Conn) {
	select {
	case h.Unregister <- conn:
	case <-h.quit:
	}
}

func (h *Hub) ClientCount() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.Clients)
}

func (h *Hub) Run() {
	for {
		select {
		case conn := <-h.Register:
			h.mutex.Lock()
			h.Clients[conn] = true
			h.mutex.Unlock()
			log.Println("New WS Client Connected")

		case conn := <-h.Unregister:
			h.mutex.Lock()
			if _, ok := h.Clients[conn]; ok {
				delete(h.Clients, conn)
				conn.Close()
			}
			h.mutex.Unlock()

		case message := <-h.Broadcast:
			h.mutex.Lock()
			for conn := range h.Clients {
				if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
					conn.Close()
					delete(h.Clients, conn)
				}
			}
			h.mutex.Unlock()

		case <-h.quit:
			h.mutex.Lock()
			for conn := range h.Clients {
				conn.Close()
				delete(h.Clients, conn)
			}
			h.mutex.Unlock()
			return
		}
	}
}

// Stop disconnects every client and ends Run.
func (h *Hub) Stop() {
	h.once.Do(func() { close(h.quit) })
}
