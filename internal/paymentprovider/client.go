// Package paymentprovider реализует клиента внешнего платежного процессора.
//
// Все сложные задачи (идемпотентность списаний, ретраи, проверка карт) остаются
// на стороне провайдера; клиент только создает и подтверждает платежные интенты.
package paymentprovider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Client клиент API платежного провайдера.
type Client struct {
	secretKey  string
	apiURL     string
	httpClient *http.Client
}

// NewClient создаёт новый клиент платежного провайдера.
func NewClient(apiURL, secretKey string) *Client {
	return &Client{
		secretKey:  secretKey,
		apiURL:     apiURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	url := c.apiURL + path
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return errors.New("unexpected status: " + resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// CreateIntent отправляет запрос на создание платежного интента.
func (c *Client) CreateIntent(ctx context.Context, reqParams CreateIntentRequest) (*IntentResponse, error) {
	const op = "paymentprovider.CreateIntent"
	req, err := c.newRequest(ctx, http.MethodPost, "/payment_intents", reqParams)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var intent IntentResponse
	if err := c.do(req, &intent); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &intent, nil
}

// ConfirmIntent подтверждает платежный интент выбранным платежным методом.
func (c *Client) ConfirmIntent(ctx context.Context, intentID string, reqParams ConfirmIntentRequest) (*IntentResponse, error) {
	const op = "paymentprovider.ConfirmIntent"
	req, err := c.newRequest(ctx, http.MethodPost, "/payment_intents/"+intentID+"/confirm", reqParams)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var intent IntentResponse
	if err := c.do(req, &intent); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &intent, nil
}
