// Package exchange реализует клиента внешнего API курсов валют.
//
// Rate возвращает курс конвертации между валютами справочника. При недоступности
// внешнего API курс деградирует до 1 (без конвертации), при этом признак
// деградации возвращается наружу и попадает в ответ API, а не скрывается.
package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/nurmohammad56/luxe-tracker/internal/lib/sl"
	"github.com/nurmohammad56/luxe-tracker/internal/models"
)

// Cache описывает методы кэширования ответов API курсов.
type Cache interface {
	Get(key string, result any) (bool, error)
	Set(key string, value any, expiration time.Duration) error
}

// RatesPayload ответ о последних курсах для базовой валюты.
type RatesPayload struct {
	Base  string             `json:"base"`
	Date  time.Time          `json:"date"`
	Rates map[string]float64 `json:"rates"`
}

type latestResponse struct {
	Success   bool               `json:"success"`
	Timestamp int64              `json:"timestamp"`
	Base      string             `json:"base"`
	Rates     map[string]float64 `json:"rates"`
}

const cacheTTL = 5 * time.Minute

// Client клиент API курсов валют с кэшем последних ответов.
type Client struct {
	apiURL     string
	accessKey  string
	httpClient *http.Client
	cache      Cache
	log        *slog.Logger
}

// NewClient создаёт новый клиент API курсов валют.
func NewClient(apiURL, accessKey string, cache Cache, log *slog.Logger) *Client {
	return &Client{
		apiURL:     apiURL,
		accessKey:  accessKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		cache:      cache,
		log:        log,
	}
}

// Latest возвращает последние курсы для базовой валюты по списку ISO-кодов.
// Ответ кэшируется на 5 минут.
func (c *Client) Latest(ctx context.Context, base string, symbols []string) (*RatesPayload, error) {
	const op = "exchange.Latest"

	cacheKey := fmt.Sprintf("rates:%s:%s", base, strings.Join(symbols, ","))
	if c.cache != nil {
		var cached RatesPayload
		found, err := c.cache.Get(cacheKey, &cached)
		if err != nil {
			c.log.Warn("failed to read rates cache", slog.String("key", cacheKey), sl.Err(err))
		}
		if found {
			return &cached, nil
		}
	}

	params := url.Values{}
	params.Set("access_key", c.accessKey)
	params.Set("base", base)
	params.Set("symbols", strings.Join(symbols, ","))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL+"/latest?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: unexpected status %s", op, resp.Status)
	}

	var body latestResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !body.Success {
		return nil, fmt.Errorf("%s: api reported failure", op)
	}

	payload := &RatesPayload{
		Base:  base,
		Date:  time.Unix(body.Timestamp, 0).UTC(),
		Rates: body.Rates,
	}
	if c.cache != nil {
		if err := c.cache.Set(cacheKey, payload, cacheTTL); err != nil {
			c.log.Warn("failed to cache rates", slog.String("key", cacheKey), sl.Err(err))
		}
	}
	return payload, nil
}

// Rate возвращает курс конвертации from -> to для валют из справочника.
// Для одинаковых валют всегда ровно 1 без обращения к API. При любой ошибке
// внешнего запроса возвращается (1, true): сервис продолжает работать без
// конвертации, а признак деградации отдается вызывающему коду.
func (c *Client) Rate(ctx context.Context, from, to string) (float64, bool) {
	if from == to {
		return 1, false
	}

	fromSymbol, okFrom := models.CurrencySymbols[from]
	toSymbol, okTo := models.CurrencySymbols[to]
	if !okFrom || !okTo {
		c.log.Warn("unknown currency for rate lookup",
			slog.String("from", from), slog.String("to", to))
		return 1, true
	}
	if fromSymbol == toSymbol {
		return 1, false
	}

	payload, err := c.Latest(ctx, fromSymbol, []string{toSymbol})
	if err != nil {
		c.log.Warn("rate lookup failed, falling back to identity rate",
			slog.String("from", fromSymbol), slog.String("to", toSymbol), sl.Err(err))
		return 1, true
	}

	rate, ok := payload.Rates[toSymbol]
	if !ok || rate <= 0 {
		c.log.Warn("rate missing in response, falling back to identity rate",
			slog.String("from", fromSymbol), slog.String("to", toSymbol))
		return 1, true
	}
	return rate, false
}
