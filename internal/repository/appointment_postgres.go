package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"medbook/internal/domain"
)

const pgUniqueViolation = "23505"

type AppointmentRepo struct {
	db *pgxpool.Pool
}

func NewAppointmentRepository(db *pgxpool.Pool) *AppointmentRepo {
	return &AppointmentRepo{
		db: db,
	}
}

const appointmentColumns = `id, patient_id, doctor_id, slot_date, slot_time, patient_snapshot, doctor_snapshot, amount, cancelled, is_completed, payment, payment_method, payment_date, payment_intent_id, transaction_id, appointment_mode, created_at, updated_at`

// Create создает запись и резервирует слот в одной транзакции.
// Проверка занятости выполняется не чтением, а условной вставкой:
// уникальный индекс booked_slots гарантирует, что из двух конкурентных
// бронирований одного слота зафиксируется ровно одно.
func (r *AppointmentRepo) Create(ctx context.Context, appointment domain.Appointment) (int64, error) {
	patientSnapshot, err := json.Marshal(appointment.PatientSnapshot)
	if err != nil {
		return 0, fmt.Errorf("ошибка сериализации данных пациента: %w", err)
	}

	doctorSnapshot, err := json.Marshal(appointment.DoctorSnapshot)
	if err != nil {
		return 0, fmt.Errorf("ошибка сериализации данных врача: %w", err)
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	insertQuery := `
		INSERT INTO appointments (patient_id, doctor_id, slot_date, slot_time, patient_snapshot, doctor_snapshot, amount, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		RETURNING id
	`

	now := time.Now()
	var id int64
	err = tx.QueryRow(ctx, insertQuery,
		appointment.PatientID,
		appointment.DoctorID,
		appointment.SlotDate,
		appointment.SlotTime,
		patientSnapshot,
		doctorSnapshot,
		appointment.Amount,
		now,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("ошибка создания записи на прием: %w", err)
	}

	slotQuery := `
		INSERT INTO booked_slots (doctor_id, slot_date, slot_time, appointment_id, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err = tx.Exec(ctx, slotQuery,
		appointment.DoctorID,
		appointment.SlotDate,
		appointment.SlotTime,
		id,
		now,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return 0, domain.ErrSlotConflict
		}
		return 0, fmt.Errorf("ошибка резервирования слота: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("ошибка при коммите транзакции: %w", err)
	}

	return id, nil
}

func (r *AppointmentRepo) GetByID(ctx context.Context, id int64) (*domain.Appointment, error) {
	query := fmt.Sprintf(`SELECT %s FROM appointments WHERE id = $1`, appointmentColumns)
	return r.queryOne(ctx, query, id)
}

func (r *AppointmentRepo) GetByPaymentIntentID(ctx context.Context, intentID string) (*domain.Appointment, error) {
	query := fmt.Sprintf(`SELECT %s FROM appointments WHERE payment_intent_id = $1`, appointmentColumns)
	return r.queryOne(ctx, query, intentID)
}

func (r *AppointmentRepo) queryOne(ctx context.Context, query string, arg interface{}) (*domain.Appointment, error) {
	row := r.db.QueryRow(ctx, query, arg)

	appointment, err := scanAppointment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения записи на прием: %w", err)
	}

	return appointment, nil
}

func scanAppointment(row pgx.Row) (*domain.Appointment, error) {
	var appointment domain.Appointment
	var patientSnapshot, doctorSnapshot []byte

	err := row.Scan(
		&appointment.ID,
		&appointment.PatientID,
		&appointment.DoctorID,
		&appointment.SlotDate,
		&appointment.SlotTime,
		&patientSnapshot,
		&doctorSnapshot,
		&appointment.Amount,
		&appointment.Cancelled,
		&appointment.IsCompleted,
		&appointment.Payment,
		&appointment.PaymentMethod,
		&appointment.PaymentDate,
		&appointment.PaymentIntentID,
		&appointment.TransactionID,
		&appointment.AppointmentMode,
		&appointment.CreatedAt,
		&appointment.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(patientSnapshot, &appointment.PatientSnapshot); err != nil {
		return nil, fmt.Errorf("ошибка десериализации данных пациента: %w", err)
	}
	if err := json.Unmarshal(doctorSnapshot, &appointment.DoctorSnapshot); err != nil {
		return nil, fmt.Errorf("ошибка десериализации данных врача: %w", err)
	}

	return &appointment, nil
}

func (r *AppointmentRepo) List(ctx context.Context, filter domain.AppointmentFilter) ([]domain.Appointment, error) {
	baseQuery := fmt.Sprintf(`SELECT %s FROM appointments`, appointmentColumns)

	conditions, args := buildAppointmentConditions(filter)

	query := baseQuery
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	query += " ORDER BY created_at DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка выполнения запроса: %w", err)
	}
	defer rows.Close()

	appointments := make([]domain.Appointment, 0)
	for rows.Next() {
		appointment, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования строки записи: %w", err)
		}
		appointments = append(appointments, *appointment)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка при итерации по строкам: %w", err)
	}

	return appointments, nil
}

func (r *AppointmentRepo) CountByFilter(ctx context.Context, filter domain.AppointmentFilter) (int, error) {
	conditions, args := buildAppointmentConditions(filter)

	query := "SELECT COUNT(*) FROM appointments"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	var count int
	err := r.db.QueryRow(ctx, query, args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("ошибка подсчета записей: %w", err)
	}

	return count, nil
}

func buildAppointmentConditions(filter domain.AppointmentFilter) ([]string, []interface{}) {
	var conditions []string
	var args []interface{}
	argCount := 1

	if filter.PatientID != nil {
		conditions = append(conditions, fmt.Sprintf("patient_id = $%d", argCount))
		args = append(args, *filter.PatientID)
		argCount++
	}

	if filter.DoctorID != nil {
		conditions = append(conditions, fmt.Sprintf("doctor_id = $%d", argCount))
		args = append(args, *filter.DoctorID)
		argCount++
	}

	if filter.SlotDate != nil {
		conditions = append(conditions, fmt.Sprintf("slot_date = $%d", argCount))
		args = append(args, *filter.SlotDate)
		argCount++
	}

	return conditions, args
}

// SetCancelled помечает запись отмененной. Возвращает false без ошибки,
// если запись уже была отменена: повторная отмена — идемпотентный no-op.
func (r *AppointmentRepo) SetCancelled(ctx context.Context, id int64) (bool, error) {
	query := `
		UPDATE appointments
		SET cancelled = TRUE, updated_at = $2
		WHERE id = $1 AND cancelled = FALSE AND is_completed = FALSE
	`

	tag, err := r.db.Exec(ctx, query, id, time.Now())
	if err != nil {
		return false, fmt.Errorf("ошибка отмены записи: %w", err)
	}

	if tag.RowsAffected() == 1 {
		return true, nil
	}

	appointment, err := r.GetByID(ctx, id)
	if err != nil {
		return false, err
	}

	if appointment.IsCompleted {
		return false, domain.ErrAppointmentCompleted
	}

	return false, nil
}

func (r *AppointmentRepo) SetCompleted(ctx context.Context, id int64) (bool, error) {
	query := `
		UPDATE appointments
		SET is_completed = TRUE, updated_at = $2
		WHERE id = $1 AND is_completed = FALSE AND cancelled = FALSE
	`

	tag, err := r.db.Exec(ctx, query, id, time.Now())
	if err != nil {
		return false, fmt.Errorf("ошибка завершения приема: %w", err)
	}

	if tag.RowsAffected() == 1 {
		return true, nil
	}

	appointment, err := r.GetByID(ctx, id)
	if err != nil {
		return false, err
	}

	if appointment.Cancelled {
		return false, domain.ErrAppointmentCancelled
	}

	return false, nil
}

func (r *AppointmentRepo) SetMode(ctx context.Context, id int64, mode domain.AppointmentMode) error {
	query := `
		UPDATE appointments
		SET appointment_mode = $2, updated_at = $3
		WHERE id = $1 AND payment = TRUE AND cancelled = FALSE
	`

	tag, err := r.db.Exec(ctx, query, id, mode, time.Now())
	if err != nil {
		return fmt.Errorf("ошибка установки формата приема: %w", err)
	}

	if tag.RowsAffected() == 1 {
		return nil
	}

	appointment, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if appointment.Cancelled {
		return domain.ErrAppointmentCancelled
	}

	return domain.ErrPaymentRequired
}

func (r *AppointmentRepo) SetPaymentIntent(ctx context.Context, id int64, intentID string) error {
	query := `
		UPDATE appointments
		SET payment_intent_id = $2, updated_at = $3
		WHERE id = $1
	`

	tag, err := r.db.Exec(ctx, query, id, intentID, time.Now())
	if err != nil {
		return fmt.Errorf("ошибка сохранения платежного намерения: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}

	return nil
}

// RecordPayment фиксирует оплату условным обновлением: флаг payment
// монотонный. Повторный вызов с тем же идентификатором транзакции —
// идемпотентный no-op (провайдеры доставляют события повторно), с другим
// идентификатором — ErrAlreadyPaid. Отмена записи оплату не блокирует:
// платеж и отмена — независимые коммутативные переходы.
func (r *AppointmentRepo) RecordPayment(ctx context.Context, id int64, method domain.PaymentMethod, transactionID string) (bool, error) {
	query := `
		UPDATE appointments
		SET payment = TRUE, payment_method = $2, payment_date = $4, transaction_id = $3, updated_at = $4
		WHERE id = $1 AND payment = FALSE
	`

	tag, err := r.db.Exec(ctx, query, id, method, transactionID, time.Now())
	if err != nil {
		return false, fmt.Errorf("ошибка фиксации оплаты: %w", err)
	}

	if tag.RowsAffected() == 1 {
		return true, nil
	}

	appointment, err := r.GetByID(ctx, id)
	if err != nil {
		return false, err
	}

	if appointment.TransactionID != nil && *appointment.TransactionID == transactionID {
		return false, nil
	}

	return false, domain.ErrAlreadyPaid
}

func (r *AppointmentRepo) DoctorStats(ctx context.Context, doctorID int64) (*domain.DoctorDashboard, error) {
	query := `
		SELECT
			COALESCE(SUM(amount) FILTER (WHERE is_completed OR payment), 0),
			COUNT(*),
			COUNT(DISTINCT patient_id)
		FROM appointments
		WHERE doctor_id = $1
	`

	var dashboard domain.DoctorDashboard
	err := r.db.QueryRow(ctx, query, doctorID).Scan(
		&dashboard.Earning,
		&dashboard.Appointments,
		&dashboard.Patients,
	)
	if err != nil {
		return nil, fmt.Errorf("ошибка расчета статистики врача: %w", err)
	}

	latest, err := r.List(ctx, domain.AppointmentFilter{DoctorID: &doctorID, Limit: 5})
	if err != nil {
		return nil, err
	}
	dashboard.LatestAppointments = latest

	return &dashboard, nil
}
