// Package monitor рассылает итоги запусков пайплайна подключенным
// дашбордам по WebSocket
package monitor

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Client подключенный клиент мониторинга
type Client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub менеджер WebSocket-соединений мониторинга
type Hub struct {
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	clients    map[*Client]bool
}

// NewHub создает новый экземпляр Hub
func NewHub() *Hub {
	return &Hub{
		broadcast:  make(chan []byte, 16),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
	}
}

// Run запускает цикл обработки подключений и рассылки
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			log.Printf("Клиент мониторинга подключился (всего: %d)", len(h.clients))

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				log.Printf("Клиент мониторинга отключился (всего: %d)", len(h.clients))
			}

		case message := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					close(client.send)
					delete(h.clients, client)
				}
			}
		}
	}
}

// BroadcastSummary рассылает итог запуска всем подключенным клиентам
func (h *Hub) BroadcastSummary(summary interface{}) {
	data, err := json.Marshal(summary)
	if err != nil {
		log.Printf("Ошибка при сериализации итога запуска: %v", err)
		return
	}

	select {
	case h.broadcast <- data:
	default:
		// Без читателей итог пропускается
	}
}

// HandleConnections обрабатывает входящие WebSocket-подключения
func (h *Hub) HandleConnections(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Ошибка при установке WebSocket-соединения: %v", err)
		return
	}

	client := &Client{
		conn: conn,
		send: make(chan []byte, 16),
	}
	h.register <- client

	go client.writePump(h)
	go client.readPump(h)
}

// writePump передает сообщения из канала клиента в соединение
func (c *Client) writePump(h *Hub) {
	defer c.conn.Close()

	for message := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
}

// readPump вычитывает соединение, чтобы обнаружить отключение клиента
func (c *Client) readPump(h *Hub) {
	defer func() {
		h.unregister <- c
		c.conn.Close()
	}()

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
