package otp

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrCodeExpired     = errors.New("код подтверждения не найден или истек")
	ErrCodeMismatch    = errors.New("неверный код подтверждения")
	ErrTooManyAttempts = errors.New("превышено число попыток, запросите новый код")
)

type ticket struct {
	Code     string `json:"code"`
	Attempts int    `json:"attempts"`
}

// Store хранит одноразовые коды сброса пароля в redis. Срок жизни
// обеспечивается TTL ключа, потеря кодов при перезапуске допустима.
type Store struct {
	client      *redis.Client
	ttl         time.Duration
	maxAttempts int
}

func NewStore(client *redis.Client, ttl time.Duration, maxAttempts int) *Store {
	return &Store{
		client:      client,
		ttl:         ttl,
		maxAttempts: maxAttempts,
	}
}

func key(email string) string {
	return "otp:" + email
}

func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", fmt.Errorf("ошибка генерации кода: %w", err)
	}

	return fmt.Sprintf("%06d", n.Int64()), nil
}

// Put сбрасывает счетчик попыток и срок жизни предыдущего кода.
func (s *Store) Put(ctx context.Context, email, code string) error {
	data, err := json.Marshal(ticket{Code: code})
	if err != nil {
		return fmt.Errorf("ошибка сериализации кода: %w", err)
	}

	if err := s.client.Set(ctx, key(email), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("ошибка сохранения кода: %w", err)
	}

	return nil
}

// Verify проверяет код. Успешная проверка удаляет билет, неуспешная
// увеличивает счетчик попыток; после maxAttempts билет удаляется.
func (s *Store) Verify(ctx context.Context, email, code string) error {
	data, err := s.client.Get(ctx, key(email)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrCodeExpired
		}
		return fmt.Errorf("ошибка чтения кода: %w", err)
	}

	var t ticket
	if err := json.Unmarshal(data, &t); err != nil {
		return fmt.Errorf("ошибка десериализации кода: %w", err)
	}

	if t.Attempts >= s.maxAttempts {
		s.client.Del(ctx, key(email))
		return ErrTooManyAttempts
	}

	if t.Code != code {
		t.Attempts++
		if t.Attempts >= s.maxAttempts {
			s.client.Del(ctx, key(email))
			return ErrTooManyAttempts
		}

		updated, err := json.Marshal(t)
		if err != nil {
			return fmt.Errorf("ошибка сериализации кода: %w", err)
		}

		if err := s.client.Set(ctx, key(email), updated, redis.KeepTTL).Err(); err != nil {
			return fmt.Errorf("ошибка обновления счетчика попыток: %w", err)
		}

		return ErrCodeMismatch
	}

	s.client.Del(ctx, key(email))
	return nil
}
