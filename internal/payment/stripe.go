package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"medbook/config"
	"medbook/internal/domain"
)

const defaultBaseURL = "https://api.stripe.com/v1"

type Intent struct {
	ID           string            `json:"id"`
	ClientSecret string            `json:"client_secret"`
	Status       string            `json:"status"`
	Amount       int64             `json:"amount"`
	Metadata     map[string]string `json:"metadata"`
}

const IntentStatusSucceeded = "succeeded"

type StripeClient struct {
	secretKey  string
	currency   string
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewStripeClient(cfg config.StripeConfig, logger *zap.Logger) *StripeClient {
	return &StripeClient{
		secretKey: cfg.SecretKey,
		currency:  cfg.Currency,
		baseURL:   defaultBaseURL,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logger,
	}
}

// CreateIntent создает платежное намерение. Сумма передается в минимальных
// единицах валюты. Заголовок Idempotency-Key защищает от дублей при
// повторе запроса после сетевой ошибки.
func (c *StripeClient) CreateIntent(ctx context.Context, amountMinor int64, description string, metadata map[string]string) (*Intent, error) {
	form := url.Values{}
	form.Set("amount", strconv.FormatInt(amountMinor, 10))
	form.Set("currency", c.currency)
	form.Set("description", description)
	for k, v := range metadata {
		form.Set(fmt.Sprintf("metadata[%s]", k), v)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/payment_intents", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("ошибка формирования запроса: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Idempotency-Key", uuid.New().String())

	return c.do(req)
}

func (c *StripeClient) GetIntent(ctx context.Context, id string) (*Intent, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/payment_intents/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, fmt.Errorf("ошибка формирования запроса: %w", err)
	}

	return c.do(req)
}

func (c *StripeClient) do(req *http.Request) (*Intent, error) {
	req.Header.Set("Authorization", "Bearer "+c.secretKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			c.logger.Warn("таймаут запроса к платежному сервису", zap.Error(err))
			return nil, domain.ErrUpstreamUnavailable
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения ответа: %w", err)
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		c.logger.Error("платежный сервис вернул ошибку",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", body),
		)
		return nil, domain.ErrUpstreamUnavailable
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("отказ платежного сервиса: статус %d", resp.StatusCode)
	}

	var intent Intent
	if err := json.Unmarshal(body, &intent); err != nil {
		return nil, fmt.Errorf("ошибка декодирования ответа: %w", err)
	}

	return &intent, nil
}
