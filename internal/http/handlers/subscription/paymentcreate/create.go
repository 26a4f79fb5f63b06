// Package paymentcreate обрабатывает создание платежа за подписку.
//
// Handler валидирует запрос, достает UID пользователя из контекста и
// делегирует создание платежного интента бизнес-логике. Купон на этом
// шаге только проверяется, списание происходит при подтверждении.
package paymentcreate

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/nurmohammad56/luxe-tracker/internal/http/middlewarectx"
	"github.com/nurmohammad56/luxe-tracker/internal/http/response"
	"github.com/nurmohammad56/luxe-tracker/internal/lib/sl"
	"github.com/nurmohammad56/luxe-tracker/internal/models"
	"github.com/nurmohammad56/luxe-tracker/internal/services/payment"
)

// Service описывает интерфейс бизнес-логики создания платежа.
type Service interface {
	CreateIntent(ctx context.Context, userUID string, req models.DummyCreatePayment) (*payment.IntentResult, error)
}

// Handler обрабатывает запросы на создание платежа.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Создать платеж
// @Description Создает платежный интент у провайдера для выбранного тарифа с учетом купона.
// @Tags Subscriptions
// @Accept  json
// @Produce  json
// @Param request body models.DummyCreatePayment true "Данные для создания платежа"
// @Success 200 {object} map[string]any "Платежный интент создан"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON или купон"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 404 {object} response.ErrorResponse "Тариф не найден"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера при создании платежа"
// @Router /payments/create [post]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.create"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummyCreatePayment
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
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
	log.Info("all fields are validated")

	userUID, ok := r.Context().Value(middlewarectx.UserUID).(string)
	if !ok || userUID == "" {
		log.Error("user UID not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	res, err := h.service.CreateIntent(r.Context(), userUID, req)
	if err != nil {
		log.Error("failed to create payment intent", sl.Err(err))
		switch {
		case errors.Is(err, models.ErrPlanNotFound):
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("plan not found"))
		case errors.Is(err, models.ErrCouponInvalid):
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("invalid coupon"))
		default:
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("failed to create payment"))
		}
		return
	}

	log.Info("payment intent created", slog.String("transaction_id", res.TransactionID))
	render.JSON(w, r, response.StatusOKWithData(res))
}
