package gateway

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

// Типы событий провайдера
const (
	EventCheckoutCompleted = "checkout.session.completed"
)

// Ключи метаданных checkout-сессии
const (
	MetaOrderID = "order_id"
	MetaType    = "type"
	MetaUserID  = "user_id"
	MetaAmount  = "amount"

	MetaTypeWalletTopup = "wallet_topup"
)

var (
	// ErrInvalidSignature — подпись вебхука не совпала, payload отбрасывается.
	ErrInvalidSignature = errors.New("webhook signature mismatch")

	// ErrInvalidPayload — тело вебхука не декодируется.
	ErrInvalidPayload = errors.New("invalid webhook payload")
)

// CheckoutSession — созданная провайдером hosted-checkout сессия.
type CheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// Event — проверенное и декодированное событие провайдера.
// ID события служит идемпотентным ключом платежа.
type Event struct {
	ID       string            `json:"id"`
	Type     string            `json:"type"`
	Amount   decimal.Decimal   `json:"amount"`
	Currency string            `json:"currency"`
	Metadata map[string]string `json:"metadata"`
}

// Client — интерфейс платёжного провайдера, который потребляет ядро.
// Конкретный SDK провайдера за этим интерфейсом не живёт: наружу торчат
// только создание checkout-сессии и верификация подписанного вебхука.
type Client interface {
	CreateCheckout(ctx context.Context, amount decimal.Decimal, currency string, metadata map[string]string) (*CheckoutSession, error)
	VerifyAndDecode(rawBody []byte, signature string) (*Event, error)
}

// HTTPClient — клиент провайдера поверх его HTTP API.
type HTTPClient struct {
	baseURL       string
	apiKey        string
	webhookSecret string
	httpClient    *http.Client
}

// NewHTTPClient создаёт клиента провайдера.
func NewHTTPClient(baseURL, apiKey, webhookSecret string) *HTTPClient {
	return &HTTPClient{
		baseURL:       baseURL,
		apiKey:        apiKey,
		webhookSecret: webhookSecret,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// CreateCheckout создаёт hosted-checkout сессию на заданную сумму.
// Вызывается вне критических секций: никакие блокировки строк БД
// не должны удерживаться на время этого запроса.
func (c *HTTPClient) CreateCheckout(ctx context.Context, amount decimal.Decimal, currency string, metadata map[string]string) (*CheckoutSession, error) {
	if c.baseURL == "" {
		return nil, fmt.Errorf("gateway: baseURL не задан")
	}

	payload := map[string]any{
		"amount":   amount.StringFixed(2),
		"currency": currency,
		"metadata": metadata,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/checkout/sessions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gateway: create checkout %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("gateway: create checkout status %d: %s", resp.StatusCode, data)
	}

	var session CheckoutSession
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return nil, fmt.Errorf("gateway: decode checkout response %w", err)
	}
	return &session, nil
}

// VerifyAndDecode проверяет HMAC-SHA256 подпись сырого тела вебхука
// и декодирует событие. Сравнение подписи константно по времени.
func (c *HTTPClient) VerifyAndDecode(rawBody []byte, signature string) (*Event, error) {
	if !verifySignature(rawBody, signature, c.webhookSecret) {
		return nil, ErrInvalidSignature
	}

	var event Event
	if err := json.Unmarshal(rawBody, &event); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if event.ID == "" || event.Type == "" {
		return nil, ErrInvalidPayload
	}
	return &event, nil
}

func verifySignature(rawBody []byte, signature, secret string) bool {
	expected, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(rawBody)
	return hmac.Equal(mac.Sum(nil), expected)
}

// Sign подписывает payload секретом вебхука. Используется в тестах
// и провайдер-симуляторах для сборки валидных доставок.
func Sign(rawBody []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(rawBody)
	return hex.EncodeToString(mac.Sum(nil))
}
