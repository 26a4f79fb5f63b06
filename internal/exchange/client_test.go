package exchange

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestClient_Rate_SameCurrency(t *testing.T) {
	// Обращений к API быть не должно
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		t.Fatal("unexpected http call for same currency")
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key", nil, newNoopLogger())

	rate, fallback := c.Rate(context.Background(), "Euro", "Euro")
	assert.Equal(t, 1.0, rate)
	assert.False(t, fallback)
}

func TestClient_Rate_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "EUR", r.URL.Query().Get("base"))
		assert.Equal(t, "USD", r.URL.Query().Get("symbols"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success":   true,
			"timestamp": 1700000000,
			"base":      "EUR",
			"rates":     map[string]float64{"USD": 1.08},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key", nil, newNoopLogger())

	rate, fallback := c.Rate(context.Background(), "Euro", "USD")
	assert.Equal(t, 1.08, rate)
	assert.False(t, fallback)
}

func TestClient_Rate_UpstreamFailureFallsBackToIdentity(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key", nil, newNoopLogger())

	rate, fallback := c.Rate(context.Background(), "Pound", "Yen")
	assert.Equal(t, 1.0, rate)
	assert.True(t, fallback)
}

func TestClient_Rate_UnknownCurrencyFallsBack(t *testing.T) {
	c := NewClient("http://127.0.0.1:0", "key", nil, newNoopLogger())

	rate, fallback := c.Rate(context.Background(), "Other", "USD")
	assert.Equal(t, 1.0, rate)
	assert.True(t, fallback)
}

func TestClient_Latest_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"success": false})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key", nil, newNoopLogger())

	_, err := c.Latest(context.Background(), "USD", []string{"EUR", "GBP"})
	require.Error(t, err)
}
