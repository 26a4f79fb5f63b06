// Package dashboard реализует HTTP-обработчик метрик панели администратора.
package dashboard

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/nurmohammad56/luxe-tracker/internal/http/response"
	"github.com/nurmohammad56/luxe-tracker/internal/lib/sl"
	"github.com/nurmohammad56/luxe-tracker/internal/models"
)

// Service описывает интерфейс бизнес-логики админских метрик.
type Service interface {
	Dashboard(ctx context.Context, filter string) (*models.AdminDashboard, error)
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
// @Summary Метрики администратора
// @Description Возвращает общие счетчики подписок, купонов, продаж и платежей с помесячным или погодовым обзором.
// @Tags Admin
// @Produce  json
// @Param filter query string false "Группировка обзора: monthly или yearly"
// @Success 200 {object} map[string]any "Метрики"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /admin/dashboard [get]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.dashboard"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	res, err := h.service.Dashboard(r.Context(), r.URL.Query().Get("filter"))
	if err != nil {
		log.Error("failed to build admin dashboard", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to build dashboard"))
		return
	}

	log.Info("admin dashboard built")
	render.JSON(w, r, response.StatusOKWithData(res))
}
