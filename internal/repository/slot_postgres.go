package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type SlotRepo struct {
	db *pgxpool.Pool
}

func NewSlotRepository(db *pgxpool.Pool) *SlotRepo {
	return &SlotRepo{
		db: db,
	}
}

func (r *SlotRepo) IsFree(ctx context.Context, doctorID int64, slotDate, slotTime string) (bool, error) {
	query := `
		SELECT NOT EXISTS (
			SELECT 1 FROM booked_slots
			WHERE doctor_id = $1 AND slot_date = $2 AND slot_time = $3
		)
	`

	var free bool
	err := r.db.QueryRow(ctx, query, doctorID, slotDate, slotTime).Scan(&free)
	if err != nil {
		return false, fmt.Errorf("ошибка проверки доступности слота: %w", err)
	}

	return free, nil
}

// Release освобождает слот записи. Удаление по appointment_id, а не по
// (врач, дата, время): повторная отмена не должна трогать слот, который
// уже перебронирован другой записью. Отсутствующая строка не является
// ошибкой, освобождение идемпотентно.
func (r *SlotRepo) Release(ctx context.Context, appointmentID int64) error {
	query := `
		DELETE FROM booked_slots
		WHERE appointment_id = $1
	`

	_, err := r.db.Exec(ctx, query, appointmentID)
	if err != nil {
		return fmt.Errorf("ошибка освобождения слота: %w", err)
	}

	return nil
}

func (r *SlotRepo) BookedByDoctor(ctx context.Context, doctorID int64) (map[string][]string, error) {
	query := `
		SELECT slot_date, slot_time
		FROM booked_slots
		WHERE doctor_id = $1
		ORDER BY slot_date, slot_time
	`

	rows, err := r.db.Query(ctx, query, doctorID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения занятых слотов: %w", err)
	}
	defer rows.Close()

	booked := make(map[string][]string)
	for rows.Next() {
		var slotDate, slotTime string
		if err := rows.Scan(&slotDate, &slotTime); err != nil {
			return nil, fmt.Errorf("ошибка сканирования слота: %w", err)
		}
		booked[slotDate] = append(booked[slotDate], slotTime)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка при обработке результатов: %w", err)
	}

	return booked, nil
}

func (r *SlotRepo) BookedByDoctorAndDate(ctx context.Context, doctorID int64, slotDate string) ([]string, error) {
	query := `
		SELECT slot_time
		FROM booked_slots
		WHERE doctor_id = $1 AND slot_date = $2
		ORDER BY slot_time
	`

	rows, err := r.db.Query(ctx, query, doctorID, slotDate)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения занятых слотов: %w", err)
	}
	defer rows.Close()

	times := make([]string, 0)
	for rows.Next() {
		var slotTime string
		if err := rows.Scan(&slotTime); err != nil {
			return nil, fmt.Errorf("ошибка сканирования слота: %w", err)
		}
		times = append(times, slotTime)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка при обработке результатов: %w", err)
	}

	return times, nil
}
