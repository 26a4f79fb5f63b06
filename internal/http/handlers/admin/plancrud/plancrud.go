// Package plancrud реализует HTTP-обработчики административного CRUD тарифов.
//
// В отличие от остальных обработчиков пакет объединяет пять операций над
// одним ресурсом: создание, список, обновление, переключение активности
// и удаление. Каждая операция — отдельный метод-обработчик.
package plancrud

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/nurmohammad56/luxe-tracker/internal/http/response"
	"github.com/nurmohammad56/luxe-tracker/internal/lib/sl"
	"github.com/nurmohammad56/luxe-tracker/internal/models"
)

// Service описывает интерфейс бизнес-логики управления тарифами.
type Service interface {
	CreatePlan(ctx context.Context, req models.DummyPlan) (int, error)
	ListPlans(ctx context.Context) ([]*models.SubscriptionPlan, error)
	UpdatePlan(ctx context.Context, id int, req models.DummyPlan) error
	TogglePlanActive(ctx context.Context, id int) (bool, error)
	DeletePlan(ctx context.Context, id int) error
}

type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// Create godoc
// @Summary Создать тариф
// @Tags Admin
// @Accept  json
// @Produce  json
// @Param request body models.DummyPlan true "Данные тарифа"
// @Success 200 {object} map[string]any "Тариф создан"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /admin/plans [post]
// @Security BearerAuth
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.plancrud.create"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	req, ok := h.decodePlan(w, r, log)
	if !ok {
		return
	}

	id, err := h.service.CreatePlan(r.Context(), req)
	if err != nil {
		log.Error("failed to create plan", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to create plan"))
		return
	}

	log.Info("plan created", slog.Int("id", id))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"id": id,
	}))
}

// List godoc
// @Summary Список всех тарифов
// @Description Возвращает все тарифы, включая неактивные.
// @Tags Admin
// @Produce  json
// @Success 200 {object} map[string]any "Тарифы"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /admin/plans [get]
// @Security BearerAuth
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.plancrud.list"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	res, err := h.service.ListPlans(r.Context())
	if err != nil {
		log.Error("failed to list plans", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to list plans"))
		return
	}

	log.Info("list plans", "count", len(res))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"plans": res,
	}))
}

// Update godoc
// @Summary Обновить тариф
// @Tags Admin
// @Accept  json
// @Produce  json
// @Param id path int true "ID тарифа"
// @Param request body models.DummyPlan true "Новые данные тарифа"
// @Success 200 {object} map[string]any "Тариф обновлен"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON или ID"
// @Failure 404 {object} response.ErrorResponse "Тариф не найден"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /admin/plans/{id} [put]
// @Security BearerAuth
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.plancrud.update"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, ok := h.planID(w, r, log)
	if !ok {
		return
	}
	req, ok := h.decodePlan(w, r, log)
	if !ok {
		return
	}

	if err := h.service.UpdatePlan(r.Context(), id, req); err != nil {
		log.Error("failed to update plan", sl.Err(err))
		if errors.Is(err, models.ErrPlanNotFound) {
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("plan not found"))
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to update plan"))
		return
	}

	log.Info("plan updated", slog.Int("id", id))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"id":      id,
		"message": "plan updated",
	}))
}

// Toggle godoc
// @Summary Переключить активность тарифа
// @Tags Admin
// @Produce  json
// @Param id path int true "ID тарифа"
// @Success 200 {object} map[string]any "Новое состояние"
// @Failure 400 {object} response.ErrorResponse "Некорректный ID"
// @Failure 404 {object} response.ErrorResponse "Тариф не найден"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /admin/plans/{id}/toggle [post]
// @Security BearerAuth
func (h *Handler) Toggle(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.plancrud.toggle"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, ok := h.planID(w, r, log)
	if !ok {
		return
	}

	isActive, err := h.service.TogglePlanActive(r.Context(), id)
	if err != nil {
		log.Error("failed to toggle plan", sl.Err(err))
		if errors.Is(err, models.ErrPlanNotFound) {
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("plan not found"))
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to toggle plan"))
		return
	}

	log.Info("plan toggled", slog.Int("id", id), slog.Bool("is_active", isActive))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"id":        id,
		"is_active": isActive,
	}))
}

// Delete godoc
// @Summary Удалить тариф
// @Description Удаляет тариф, на который нет активных подписок.
// @Tags Admin
// @Produce  json
// @Param id path int true "ID тарифа"
// @Success 200 {object} map[string]any "Тариф удален"
// @Failure 400 {object} response.ErrorResponse "Некорректный ID"
// @Failure 404 {object} response.ErrorResponse "Тариф не найден"
// @Failure 409 {object} response.ErrorResponse "На тариф есть активные подписки"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /admin/plans/{id} [delete]
// @Security BearerAuth
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.plancrud.delete"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, ok := h.planID(w, r, log)
	if !ok {
		return
	}

	if err := h.service.DeletePlan(r.Context(), id); err != nil {
		log.Error("failed to delete plan", sl.Err(err))
		switch {
		case errors.Is(err, models.ErrPlanNotFound):
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("plan not found"))
		case errors.Is(err, models.ErrInvalidInput):
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error("plan has active subscriptions"))
		default:
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("failed to delete plan"))
		}
		return
	}

	log.Info("plan deleted", slog.Int("id", id))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"id":      id,
		"message": "plan deleted",
	}))
}

func (h *Handler) decodePlan(w http.ResponseWriter, r *http.Request, log *slog.Logger) (models.DummyPlan, bool) {
	var req models.DummyPlan
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return req, false
	}
	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return req, false
	}
	return req, true
}

func (h *Handler) planID(w http.ResponseWriter, r *http.Request, log *slog.Logger) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		log.Error("failed to decode id from url", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("failed to decode id from url"))
		return 0, false
	}
	return id, true
}
