// Package paymentconfirm обрабатывает подтверждение платежа за подписку.
//
// При успешном подтверждении активируется подписка, списывается купон и
// обновляется текущий тариф пользователя. Повторное подтверждение того же
// платежа возвращает HTTP 409.
package paymentconfirm

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
)

// Service описывает интерфейс бизнес-логики подтверждения платежа.
type Service interface {
	Confirm(ctx context.Context, userUID string, req models.DummyConfirmPayment) (*models.UserSubscription, error)
}

// Handler обрабатывает запросы на подтверждение платежа.
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
// @Summary Подтвердить платеж
// @Description Подтверждает платежный интент у провайдера и активирует подписку пользователя.
// @Tags Subscriptions
// @Accept  json
// @Produce  json
// @Param request body models.DummyConfirmPayment true "Идентификаторы интента и платежного метода"
// @Success 200 {object} map[string]any "Подписка активирована"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON или исчерпанный купон"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 402 {object} response.ErrorResponse "Провайдер отклонил платеж"
// @Failure 404 {object} response.ErrorResponse "Платеж не найден"
// @Failure 409 {object} response.ErrorResponse "Платеж уже подтвержден"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /payments/confirm [post]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.confirm"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummyConfirmPayment
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

	sub, err := h.service.Confirm(r.Context(), userUID, req)
	if err != nil {
		log.Error("failed to confirm payment", sl.Err(err))
		switch {
		case errors.Is(err, models.ErrPaymentNotFound):
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("payment not found"))
		case errors.Is(err, models.ErrAlreadyConfirmed):
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error("payment already confirmed"))
		case errors.Is(err, models.ErrCouponInvalid):
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("invalid coupon"))
		case errors.Is(err, models.ErrPaymentFailed):
			w.WriteHeader(http.StatusPaymentRequired)
			render.JSON(w, r, response.Error("payment declined by provider"))
		default:
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("failed to confirm payment"))
		}
		return
	}

	log.Info("payment confirmed", slog.Int("subscription_id", sub.ID))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"subscription": sub,
	}))
}
