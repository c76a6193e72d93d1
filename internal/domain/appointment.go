package domain

import (
	"fmt"
	"regexp"
	"time"
)

type AppointmentStatus string

const (
	AppointmentStatusBooked       AppointmentStatus = "booked"
	AppointmentStatusPaid         AppointmentStatus = "paid"
	AppointmentStatusModeSelected AppointmentStatus = "mode_selected"
	AppointmentStatusCompleted    AppointmentStatus = "completed"
	AppointmentStatusCancelled    AppointmentStatus = "cancelled"
)

type AppointmentMode string

const (
	AppointmentModeVideo    AppointmentMode = "video"
	AppointmentModePhysical AppointmentMode = "physical"
)

type PaymentMethod string

const (
	PaymentMethodStripe PaymentMethod = "stripe"
	PaymentMethodCash   PaymentMethod = "cash"
)

// PatientSnapshot и DoctorSnapshot фиксируются один раз при создании записи
// и не обновляются при последующем редактировании профилей.
type PatientSnapshot struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

type DoctorSnapshot struct {
	ID         int64   `json:"id"`
	FirstName  string  `json:"first_name"`
	LastName   string  `json:"last_name"`
	Speciality string  `json:"speciality"`
	Fees       float64 `json:"fees"`
	Address    string  `json:"address"`
}

type Appointment struct {
	ID              int64            `json:"id"`
	PatientID       int64            `json:"patient_id"`
	DoctorID        int64            `json:"doctor_id"`
	SlotDate        string           `json:"slot_date"`
	SlotTime        string           `json:"slot_time"`
	PatientSnapshot PatientSnapshot  `json:"patient_data"`
	DoctorSnapshot  DoctorSnapshot   `json:"doctor_data"`
	Amount          float64          `json:"amount"`
	Cancelled       bool             `json:"cancelled"`
	IsCompleted     bool             `json:"is_completed"`
	Payment         bool             `json:"payment"`
	PaymentMethod   *PaymentMethod   `json:"payment_method"`
	PaymentDate     *time.Time       `json:"payment_date"`
	PaymentIntentID *string          `json:"payment_intent_id"`
	TransactionID   *string          `json:"transaction_id"`
	AppointmentMode *AppointmentMode `json:"appointment_mode"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// Status сводит независимые флаги к явному состоянию жизненного цикла.
// Отмена имеет приоритет: оплаченная и затем отмененная запись остается
// отмененной, возврат средств выполняется вне системы.
func (a *Appointment) Status() AppointmentStatus {
	switch {
	case a.Cancelled:
		return AppointmentStatusCancelled
	case a.IsCompleted:
		return AppointmentStatusCompleted
	case a.AppointmentMode != nil:
		return AppointmentStatusModeSelected
	case a.Payment:
		return AppointmentStatusPaid
	default:
		return AppointmentStatusBooked
	}
}

type CreateAppointmentDTO struct {
	DoctorID int64  `json:"doctor_id" binding:"required"`
	SlotDate string `json:"slot_date" binding:"required"`
	SlotTime string `json:"slot_time" binding:"required"`
}

type SetAppointmentModeDTO struct {
	Mode AppointmentMode `json:"mode" binding:"required,oneof=video physical"`
}

type AppointmentFilter struct {
	PatientID *int64 `json:"patient_id"`
	DoctorID  *int64 `json:"doctor_id"`
	SlotDate  *string
	Limit     int `json:"limit"`
	Offset    int `json:"offset"`
}

type Actor struct {
	ID   int64
	Role UserRole
}

var slotTimeRegex = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// FormatSlotDate кодирует дату в формате D_M_YYYY без ведущих нулей.
// Формат является контрактом совместимости с клиентами и не меняется.
func FormatSlotDate(t time.Time) string {
	return fmt.Sprintf("%d_%d_%d", t.Day(), int(t.Month()), t.Year())
}

// ParseSlotDate принимает только каноническую форму D_M_YYYY:
// "05_6_2025" или несуществующая дата отклоняются.
func ParseSlotDate(s string) (time.Time, error) {
	var day, month, year int
	if _, err := fmt.Sscanf(s, "%d_%d_%d", &day, &month, &year); err != nil {
		return time.Time{}, ErrInvalidSlotFormat
	}
	if month < 1 || month > 12 || day < 1 || day > 31 || year < 1 {
		return time.Time{}, ErrInvalidSlotFormat
	}

	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || int(t.Month()) != month || t.Year() != year {
		return time.Time{}, ErrInvalidSlotFormat
	}
	if FormatSlotDate(t) != s {
		return time.Time{}, ErrInvalidSlotFormat
	}

	return t, nil
}

func ValidateSlotTime(s string) bool {
	return slotTimeRegex.MatchString(s)
}
