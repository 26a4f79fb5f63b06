// Package ws реализует websocket-узел для push-доставки событий:
// персональных уведомлений и периодических обновлений курсов валют.
//
// Hub держит реестр подключенных клиентов по UID пользователя. Один
// пользователь может держать несколько соединений одновременно.
package ws

import (
	"context"
	"log/slog"
	"sync"
)

// Hub управляет реестром websocket-клиентов и рассылкой сообщений.
type Hub struct {
	clients    map[string]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan any
	mu         sync.RWMutex

	log *slog.Logger
}

// NewHub создает новый Hub.
func NewHub(log *slog.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan any),
		log:        log,
	}
}

// Run обслуживает регистрацию клиентов и широковещательную рассылку
// до отмены контекста.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return

		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.UserUID] == nil {
				h.clients[client.UserUID] = make(map[*Client]struct{})
			}
			h.clients[client.UserUID][client] = struct{}{}
			h.mu.Unlock()
			h.log.Info("ws client registered", slog.String("user_uid", client.UserUID))

		case client := <-h.unregister:
			h.mu.Lock()
			if conns, ok := h.clients[client.UserUID]; ok {
				if _, ok := conns[client]; ok {
					close(client.send)
					delete(conns, client)
					if len(conns) == 0 {
						delete(h.clients, client.UserUID)
					}
				}
			}
			h.mu.Unlock()
			h.log.Info("ws client unregistered", slog.String("user_uid", client.UserUID))

		case message := <-h.broadcast:
			h.broadcastMessage(message)
		}
	}
}

// SendToUser отправляет сообщение всем соединениям пользователя.
// Клиенты с переполненным каналом отключаются.
func (h *Hub) SendToUser(userUID string, payload any) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients[userUID] {
		select {
		case client.send <- payload:
		default:
			go func(c *Client) { h.unregister <- c }(client)
			h.log.Warn("ws client dropped due to full send channel",
				slog.String("user_uid", userUID))
		}
	}
}

// Broadcast ставит сообщение в очередь рассылки всем подключенным клиентам.
func (h *Hub) Broadcast(payload any) {
	h.broadcast <- payload
}

func (h *Hub) broadcastMessage(message any) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for userUID, conns := range h.clients {
		for client := range conns {
			select {
			case client.send <- message:
			default:
				go func(c *Client) { h.unregister <- c }(client)
				h.log.Warn("ws client dropped due to full send channel",
					slog.String("user_uid", userUID))
			}
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, conns := range h.clients {
		for client := range conns {
			close(client.send)
			_ = client.conn.Close()
		}
	}
	h.clients = make(map[string]map[*Client]struct{})
}
