// Package rates реализует HTTP-обработчик для получения актуальных курсов валют.
//
// Handler принимает базовую валюту и список ISO-кодов через query-параметры,
// по умолчанию возвращает курсы USD ко всем валютам справочника.
package rates

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/nurmohammad56/luxe-tracker/internal/exchange"
	"github.com/nurmohammad56/luxe-tracker/internal/http/response"
	"github.com/nurmohammad56/luxe-tracker/internal/lib/sl"
	"github.com/nurmohammad56/luxe-tracker/internal/models"
)

// Service описывает интерфейс клиента курсов валют.
type Service interface {
	Latest(ctx context.Context, base string, symbols []string) (*exchange.RatesPayload, error)
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
// @Summary Курсы валют
// @Description Возвращает последние курсы базовой валюты к списку ISO-кодов. Ответы кэшируются на 5 минут.
// @Tags Products
// @Produce  json
// @Param base query string false "Базовая валюта, по умолчанию USD"
// @Param symbols query string false "ISO-коды через запятую, по умолчанию весь справочник"
// @Success 200 {object} map[string]any "Курсы валют"
// @Failure 500 {object} response.ErrorResponse "Ошибка API курсов"
// @Router /products/rates [get]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.product.rates"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	base := r.URL.Query().Get("base")
	if base == "" {
		base = "USD"
	}

	var symbols []string
	if raw := r.URL.Query().Get("symbols"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			if s = strings.TrimSpace(s); s != "" {
				symbols = append(symbols, s)
			}
		}
	} else {
		for _, code := range models.CurrencySymbols {
			if code != base {
				symbols = append(symbols, code)
			}
		}
		sort.Strings(symbols)
	}

	res, err := h.service.Latest(r.Context(), base, symbols)
	if err != nil {
		log.Error("failed to fetch rates", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to fetch rates"))
		return
	}

	log.Info("rates fetched", slog.String("base", base), "count", len(res.Rates))
	render.JSON(w, r, response.StatusOKWithData(res))
}
