package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type PaymentEventRepo struct {
	db *pgxpool.Pool
}

func NewPaymentEventRepository(db *pgxpool.Pool) *PaymentEventRepo {
	return &PaymentEventRepo{
		db: db,
	}
}

func (r *PaymentEventRepo) AlreadyProcessed(ctx context.Context, provider, eventID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM payment_events
			WHERE provider = $1 AND event_id = $2
		)
	`

	var processed bool
	err := r.db.QueryRow(ctx, query, provider, eventID).Scan(&processed)
	if err != nil {
		return false, fmt.Errorf("ошибка проверки события платежа: %w", err)
	}

	return processed, nil
}

// MarkProcessed возвращает true, если событие встретилось впервые.
// Повторная доставка того же события дает false и не обрабатывается.
func (r *PaymentEventRepo) MarkProcessed(ctx context.Context, provider, eventID string) (bool, error) {
	query := `
		INSERT INTO payment_events (provider, event_id)
		VALUES ($1, $2)
		ON CONFLICT (provider, event_id) DO NOTHING
	`

	tag, err := r.db.Exec(ctx, query, provider, eventID)
	if err != nil {
		return false, fmt.Errorf("ошибка регистрации события платежа: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}
