package paymentprovider

// CreateIntentRequest запрос на создание платежного интента.
type CreateIntentRequest struct {
	Amount   int64             `json:"amount"` // Сумма в центах
	Currency string            `json:"currency"`
	Customer CustomerDetails   `json:"customer"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// CustomerDetails платежные реквизиты покупателя.
type CustomerDetails struct {
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Country string `json:"country"`
}

// IntentResponse ответ провайдера о платежном интенте.
type IntentResponse struct {
	ID                 string   `json:"id"`
	ClientSecret       string   `json:"client_secret"`
	Status             string   `json:"status"` // requires_confirmation, succeeded, canceled
	Amount             int64    `json:"amount"`
	Currency           string   `json:"currency"`
	PaymentMethodTypes []string `json:"payment_method_types,omitempty"`
}

// ConfirmIntentRequest запрос на подтверждение платежного интента.
type ConfirmIntentRequest struct {
	PaymentMethod string `json:"payment_method"`
}

// Статус успешного платежа у провайдера.
const StatusSucceeded = "succeeded"
