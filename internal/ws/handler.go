package ws

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/nurmohammad56/luxe-tracker/internal/lib/sl"
	"github.com/nurmohammad56/luxe-tracker/internal/models"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true // origin фильтруется на реверс-прокси
	},
}

// AuthService валидирует JWT из query-параметра до апгрейда соединения.
type AuthService interface {
	ValidateToken(ctx context.Context, token string) (*models.User, string, bool, error)
}

// Handler выполняет апгрейд HTTP-соединения до websocket.
//
// Токен передается query-параметром, поскольку браузерный websocket API
// не позволяет выставить заголовок Authorization.
type Handler struct {
	log  *slog.Logger
	hub  *Hub
	auth AuthService
}

// NewHandler создает обработчик websocket-подключений.
func NewHandler(log *slog.Logger, hub *Hub, auth AuthService) *Handler {
	return &Handler{
		log:  log,
		hub:  hub,
		auth: auth,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "ws.Handler"

	log := h.log.With(slog.String("op", op))

	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "token query parameter is required", http.StatusUnauthorized)
		return
	}

	user, _, valid, err := h.auth.ValidateToken(r.Context(), token)
	if err != nil || !valid {
		log.Error("invalid or expired token", sl.Err(err))
		http.Error(w, "invalid or expired token", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("websocket upgrade failed", sl.Err(err))
		return
	}

	client := &Client{
		UserUID: user.UID,
		conn:    conn,
		send:    make(chan any, sendBufferSize),
		hub:     h.hub,
		log:     log,
	}

	h.hub.register <- client

	go client.readPump()
	go client.writePump()
}
