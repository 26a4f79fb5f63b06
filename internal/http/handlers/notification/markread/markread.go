// Package markread реализует HTTP-обработчик для отметки уведомлений прочитанными.
package markread

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/nurmohammad56/luxe-tracker/internal/http/middlewarectx"
	"github.com/nurmohammad56/luxe-tracker/internal/http/response"
	"github.com/nurmohammad56/luxe-tracker/internal/lib/sl"
	"github.com/nurmohammad56/luxe-tracker/internal/models"
)

// Service описывает интерфейс бизнес-логики отметки уведомлений.
type Service interface {
	MarkRead(ctx context.Context, userUID string, ids []int) (int, error)
}

type Handler struct {
	log     *slog.Logger
	service Service
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Отметить уведомления прочитанными
// @Description Отмечает перечисленные уведомления прочитанными. Пустое тело отмечает все непрочитанные.
// @Tags Notifications
// @Accept  json
// @Produce  json
// @Param request body models.DummyMarkRead false "Идентификаторы уведомлений"
// @Success 200 {object} map[string]any "Количество отмеченных"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /notifications/read [post]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.notification.markread"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummyMarkRead
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		log.Error("failed to decode request body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	userUID, ok := r.Context().Value(middlewarectx.UserUID).(string)
	if !ok || userUID == "" {
		log.Error("user UID not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	marked, err := h.service.MarkRead(r.Context(), userUID, req.IDs)
	if err != nil {
		log.Error("failed to mark notifications read", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to mark notifications read"))
		return
	}

	log.Info("notifications marked read", slog.Int("marked", marked))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"marked": marked,
	}))
}
