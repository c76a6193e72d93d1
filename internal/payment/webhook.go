package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"medbook/internal/domain"
)

const (
	EventPaymentSucceeded = "payment_intent.succeeded"
	EventPaymentFailed    = "payment_intent.payment_failed"

	// допустимое расхождение метки времени подписи
	signatureTolerance = 5 * time.Minute
)

type WebhookEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object Intent `json:"object"`
	} `json:"data"`
}

// ParseWebhook проверяет подпись сырого тела события и разбирает его.
// Событие с непроверяемой подписью никогда не применяется к состоянию.
func ParseWebhook(payload []byte, sigHeader, secret string) (*WebhookEvent, error) {
	if !verifySignature(secret, payload, sigHeader) {
		return nil, domain.ErrInvalidSignature
	}

	var event WebhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("ошибка разбора события: %w", err)
	}

	if event.ID == "" {
		return nil, fmt.Errorf("событие без идентификатора")
	}

	return &event, nil
}

// verifySignature проверяет подпись заголовка Stripe-Signature:
// HMAC-SHA256 от строки "<timestamp>.<payload>" общим секретом,
// заголовок в формате t=<timestamp>,v1=<signature>[,v1=...].
func verifySignature(secret string, payload []byte, header string) bool {
	if header == "" {
		return false
	}

	var timestamp string
	var signatures []string

	for _, part := range strings.Split(header, ",") {
		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch kv[0] {
		case "t":
			timestamp = kv[1]
		case "v1":
			signatures = append(signatures, kv[1])
		}
	}

	if timestamp == "" || len(signatures) == 0 {
		return false
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return false
	}
	diff := time.Since(time.Unix(ts, 0))
	if diff < -signatureTolerance || diff > signatureTolerance {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))

	for _, sig := range signatures {
		if hmac.Equal([]byte(sig), []byte(expected)) {
			return true
		}
	}

	return false
}

// SignPayload формирует значение заголовка подписи для события.
// Используется в тестах и локальной отладке вебхука.
func SignPayload(secret string, payload []byte, at time.Time) string {
	timestamp := strconv.FormatInt(at.Unix(), 10)

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(payload)

	return fmt.Sprintf("t=%s,v1=%s", timestamp, hex.EncodeToString(mac.Sum(nil)))
}
