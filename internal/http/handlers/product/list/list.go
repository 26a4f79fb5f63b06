// Package list реализует HTTP-обработчик для получения списка товаров пользователя
// с фильтрацией по категории, бренду, стране и поисковой строке.
package list

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/nurmohammad56/luxe-tracker/internal/http/middlewarectx"
	"github.com/nurmohammad56/luxe-tracker/internal/http/response"
	"github.com/nurmohammad56/luxe-tracker/internal/lib/sl"
	"github.com/nurmohammad56/luxe-tracker/internal/models"
	"github.com/nurmohammad56/luxe-tracker/internal/services/product"
)

// Service описывает интерфейс бизнес-логики списка товаров.
type Service interface {
	List(ctx context.Context, filter models.ProductFilter) ([]*product.View, bool, error)
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

// ServeHTTP godoc
// @Summary Список товаров
// @Description Возвращает товары пользователя с рассчитанными ценами и экономией. Поддерживает фильтры search, category, brand, country и пагинацию.
// @Tags Products
// @Produce  json
// @Param search query string false "Подстрока в названии или бренде"
// @Param category query string false "Категория"
// @Param brand query string false "Бренд"
// @Param country query string false "Страна (домашняя или из сравнений)"
// @Param limit query int false "Размер страницы"
// @Param offset query int false "Смещение"
// @Success 200 {object} map[string]any "Список товаров"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 404 {object} response.ErrorResponse "Тариф пользователя не найден"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /products [get]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.product.list"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		limit = 20
	}
	offset, err := strconv.Atoi(r.URL.Query().Get("offset"))
	if err != nil || offset < 0 {
		offset = 0
	}

	userUID, ok := r.Context().Value(middlewarectx.UserUID).(string)
	if !ok || userUID == "" {
		log.Error("user UID not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	filter := models.ProductFilter{
		UserUID:  userUID,
		Search:   r.URL.Query().Get("search"),
		Category: r.URL.Query().Get("category"),
		Brand:    r.URL.Query().Get("brand"),
		Country:  r.URL.Query().Get("country"),
		Limit:    limit,
		Offset:   offset,
	}

	res, showAds, err := h.service.List(r.Context(), filter)
	if err != nil {
		log.Error("failed to list products", sl.Err(err))
		if errors.Is(err, models.ErrPlanNotFound) {
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("plan not found"))
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to list products"))
		return
	}

	log.Info("list products", "count", len(res))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"list_count": len(res),
		"products":   res,
		"show_ads":   showAds,
	}))
}
