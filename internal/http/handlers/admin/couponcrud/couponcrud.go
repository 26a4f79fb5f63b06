// Package couponcrud реализует HTTP-обработчики административного CRUD купонов:
// создание, список, обновление, смену статуса и удаление.
package couponcrud

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

// Service описывает интерфейс бизнес-логики управления купонами.
type Service interface {
	CreateCoupon(ctx context.Context, req models.DummyCoupon) (int, error)
	ListCoupons(ctx context.Context) ([]*models.Coupon, error)
	UpdateCoupon(ctx context.Context, id int, req models.DummyCoupon) error
	SetCouponStatus(ctx context.Context, id int, status string) error
	DeleteCoupon(ctx context.Context, id int) error
}

// StatusRequest — тело запроса смены статуса купона.
type StatusRequest struct {
	Status string `json:"status" validate:"required,oneof=active inactive"`
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
// @Summary Создать купон
// @Description Создает купон с окном действия и ограничением использований. Дата окончания включается целиком.
// @Tags Admin
// @Accept  json
// @Produce  json
// @Param request body models.DummyCoupon true "Данные купона"
// @Success 200 {object} map[string]any "Купон создан"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON или даты"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /admin/coupons [post]
// @Security BearerAuth
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.couponcrud.create"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	req, ok := h.decodeCoupon(w, r, log)
	if !ok {
		return
	}

	id, err := h.service.CreateCoupon(r.Context(), req)
	if err != nil {
		log.Error("failed to create coupon", sl.Err(err))
		if errors.Is(err, models.ErrInvalidInput) {
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(err.Error()))
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to create coupon"))
		return
	}

	log.Info("coupon created", slog.Int("id", id))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"id": id,
	}))
}

// List godoc
// @Summary Список купонов
// @Tags Admin
// @Produce  json
// @Success 200 {object} map[string]any "Купоны"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /admin/coupons [get]
// @Security BearerAuth
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.couponcrud.list"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	res, err := h.service.ListCoupons(r.Context())
	if err != nil {
		log.Error("failed to list coupons", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to list coupons"))
		return
	}

	log.Info("list coupons", "count", len(res))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"coupons": res,
	}))
}

// Update godoc
// @Summary Обновить купон
// @Description Обновляет определение купона. Счетчик использований сохраняется.
// @Tags Admin
// @Accept  json
// @Produce  json
// @Param id path int true "ID купона"
// @Param request body models.DummyCoupon true "Новые данные купона"
// @Success 200 {object} map[string]any "Купон обновлен"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON, ID или даты"
// @Failure 404 {object} response.ErrorResponse "Купон не найден"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /admin/coupons/{id} [put]
// @Security BearerAuth
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.couponcrud.update"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, ok := h.couponID(w, r, log)
	if !ok {
		return
	}
	req, ok := h.decodeCoupon(w, r, log)
	if !ok {
		return
	}

	if err := h.service.UpdateCoupon(r.Context(), id, req); err != nil {
		log.Error("failed to update coupon", sl.Err(err))
		switch {
		case errors.Is(err, models.ErrCouponInvalid):
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("coupon not found"))
		case errors.Is(err, models.ErrInvalidInput):
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(err.Error()))
		default:
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("failed to update coupon"))
		}
		return
	}

	log.Info("coupon updated", slog.Int("id", id))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"id":      id,
		"message": "coupon updated",
	}))
}

// SetStatus godoc
// @Summary Сменить статус купона
// @Description Переводит купон в состояние active или inactive.
// @Tags Admin
// @Accept  json
// @Produce  json
// @Param id path int true "ID купона"
// @Param request body StatusRequest true "Новый статус"
// @Success 200 {object} map[string]any "Статус изменен"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON, ID или статус"
// @Failure 404 {object} response.ErrorResponse "Купон не найден"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /admin/coupons/{id}/status [post]
// @Security BearerAuth
func (h *Handler) SetStatus(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.couponcrud.setstatus"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, ok := h.couponID(w, r, log)
	if !ok {
		return
	}

	var req StatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	if err := h.service.SetCouponStatus(r.Context(), id, req.Status); err != nil {
		log.Error("failed to set coupon status", sl.Err(err))
		switch {
		case errors.Is(err, models.ErrCouponInvalid):
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("coupon not found"))
		case errors.Is(err, models.ErrInvalidInput):
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(err.Error()))
		default:
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("failed to set coupon status"))
		}
		return
	}

	log.Info("coupon status changed", slog.Int("id", id), slog.String("status", req.Status))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"id":     id,
		"status": req.Status,
	}))
}

// Delete godoc
// @Summary Удалить купон
// @Tags Admin
// @Produce  json
// @Param id path int true "ID купона"
// @Success 200 {object} map[string]any "Купон удален"
// @Failure 400 {object} response.ErrorResponse "Некорректный ID"
// @Failure 404 {object} response.ErrorResponse "Купон не найден"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /admin/coupons/{id} [delete]
// @Security BearerAuth
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.couponcrud.delete"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, ok := h.couponID(w, r, log)
	if !ok {
		return
	}

	if err := h.service.DeleteCoupon(r.Context(), id); err != nil {
		log.Error("failed to delete coupon", sl.Err(err))
		if errors.Is(err, models.ErrCouponInvalid) {
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("coupon not found"))
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to delete coupon"))
		return
	}

	log.Info("coupon deleted", slog.Int("id", id))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"id":      id,
		"message": "coupon deleted",
	}))
}

func (h *Handler) decodeCoupon(w http.ResponseWriter, r *http.Request, log *slog.Logger) (models.DummyCoupon, bool) {
	var req models.DummyCoupon
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

func (h *Handler) couponID(w http.ResponseWriter, r *http.Request, log *slog.Logger) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		log.Error("failed to decode id from url", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("failed to decode id from url"))
		return 0, false
	}
	return id, true
}
