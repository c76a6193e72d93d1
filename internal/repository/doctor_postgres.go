package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"medbook/internal/domain"
)

type DoctorRepo struct {
	db *pgxpool.Pool
}

func NewDoctorRepository(db *pgxpool.Pool) *DoctorRepo {
	return &DoctorRepo{
		db: db,
	}
}

const doctorColumns = `id, first_name, last_name, email, password_hash, speciality, degree, experience, about, fees, available, address, created_at, updated_at`

func (r *DoctorRepo) Create(ctx context.Context, dto domain.CreateDoctorDTO, passwordHash string) (int64, error) {
	query := `
		INSERT INTO doctors (first_name, last_name, email, password_hash, speciality, degree, experience, about, fees, address, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)
		RETURNING id
	`

	var id int64
	err := r.db.QueryRow(ctx, query,
		dto.FirstName,
		dto.LastName,
		dto.Email,
		passwordHash,
		dto.Speciality,
		dto.Degree,
		dto.Experience,
		dto.About,
		dto.Fees,
		dto.Address,
		time.Now(),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("ошибка создания врача: %w", err)
	}

	return id, nil
}

func (r *DoctorRepo) GetByID(ctx context.Context, id int64) (*domain.Doctor, error) {
	return r.getByField(ctx, "id", id)
}

func (r *DoctorRepo) GetByEmail(ctx context.Context, email string) (*domain.Doctor, error) {
	return r.getByField(ctx, "email", email)
}

func (r *DoctorRepo) getByField(ctx context.Context, field string, value interface{}) (*domain.Doctor, error) {
	query := fmt.Sprintf(`SELECT %s FROM doctors WHERE %s = $1`, doctorColumns, field)

	var doctor domain.Doctor
	err := r.db.QueryRow(ctx, query, value).Scan(
		&doctor.ID,
		&doctor.FirstName,
		&doctor.LastName,
		&doctor.Email,
		&doctor.PasswordHash,
		&doctor.Speciality,
		&doctor.Degree,
		&doctor.Experience,
		&doctor.About,
		&doctor.Fees,
		&doctor.Available,
		&doctor.Address,
		&doctor.CreatedAt,
		&doctor.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения врача: %w", err)
	}

	return &doctor, nil
}

func (r *DoctorRepo) Update(ctx context.Context, id int64, dto domain.UpdateDoctorDTO) error {
	var updateFields []string
	var args []interface{}

	argCount := 1

	if dto.Speciality != nil {
		updateFields = append(updateFields, fmt.Sprintf("speciality = $%d", argCount))
		args = append(args, *dto.Speciality)
		argCount++
	}

	if dto.Degree != nil {
		updateFields = append(updateFields, fmt.Sprintf("degree = $%d", argCount))
		args = append(args, *dto.Degree)
		argCount++
	}

	if dto.Experience != nil {
		updateFields = append(updateFields, fmt.Sprintf("experience = $%d", argCount))
		args = append(args, *dto.Experience)
		argCount++
	}

	if dto.About != nil {
		updateFields = append(updateFields, fmt.Sprintf("about = $%d", argCount))
		args = append(args, *dto.About)
		argCount++
	}

	if dto.Fees != nil {
		updateFields = append(updateFields, fmt.Sprintf("fees = $%d", argCount))
		args = append(args, *dto.Fees)
		argCount++
	}

	if dto.Available != nil {
		updateFields = append(updateFields, fmt.Sprintf("available = $%d", argCount))
		args = append(args, *dto.Available)
		argCount++
	}

	if dto.Address != nil {
		updateFields = append(updateFields, fmt.Sprintf("address = $%d", argCount))
		args = append(args, *dto.Address)
		argCount++
	}

	if len(updateFields) == 0 {
		return nil
	}

	updateFields = append(updateFields, fmt.Sprintf("updated_at = $%d", argCount))
	args = append(args, time.Now())
	argCount++

	args = append(args, id)
	query := fmt.Sprintf(`
		UPDATE doctors
		SET %s
		WHERE id = $%d
	`, strings.Join(updateFields, ", "), argCount)

	_, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("ошибка обновления врача: %w", err)
	}

	return nil
}

func (r *DoctorRepo) SetAvailability(ctx context.Context, id int64, available bool) error {
	query := `
		UPDATE doctors
		SET available = $1, updated_at = $2
		WHERE id = $3
	`

	tag, err := r.db.Exec(ctx, query, available, time.Now(), id)
	if err != nil {
		return fmt.Errorf("ошибка изменения доступности врача: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}

	return nil
}

func (r *DoctorRepo) List(ctx context.Context, filter domain.DoctorFilter) ([]domain.Doctor, error) {
	baseQuery := fmt.Sprintf(`SELECT %s FROM doctors`, doctorColumns)

	var conditions []string
	var args []interface{}
	argCount := 1

	if filter.Speciality != nil {
		conditions = append(conditions, fmt.Sprintf("speciality = $%d", argCount))
		args = append(args, *filter.Speciality)
		argCount++
	}

	if filter.Available != nil {
		conditions = append(conditions, fmt.Sprintf("available = $%d", argCount))
		args = append(args, *filter.Available)
		argCount++
	}

	query := baseQuery
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	query += " ORDER BY last_name, first_name"

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

	doctors := make([]domain.Doctor, 0)
	for rows.Next() {
		var doctor domain.Doctor
		if err := rows.Scan(
			&doctor.ID,
			&doctor.FirstName,
			&doctor.LastName,
			&doctor.Email,
			&doctor.PasswordHash,
			&doctor.Speciality,
			&doctor.Degree,
			&doctor.Experience,
			&doctor.About,
			&doctor.Fees,
			&doctor.Available,
			&doctor.Address,
			&doctor.CreatedAt,
			&doctor.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("ошибка сканирования строки врача: %w", err)
		}

		doctors = append(doctors, doctor)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка при итерации по строкам: %w", err)
	}

	return doctors, nil
}

func (r *DoctorRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM doctors").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("ошибка подсчета врачей: %w", err)
	}

	return count, nil
}
