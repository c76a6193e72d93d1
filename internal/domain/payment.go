package domain

import (
	"time"
)

type CreatePaymentIntentDTO struct {
	AppointmentID int64 `json:"appointment_id" binding:"required"`
}

type ConfirmPaymentDTO struct {
	PaymentIntentID string `json:"payment_intent_id" binding:"required"`
	AppointmentID   int64  `json:"appointment_id" binding:"required"`
}

type PaymentIntentResponse struct {
	ClientSecret string  `json:"client_secret"`
	Amount       float64 `json:"amount"`
}

type PaymentStatus struct {
	Payment       bool           `json:"payment"`
	PaymentMethod *PaymentMethod `json:"payment_method"`
	TransactionID *string        `json:"transaction_id"`
	PaymentDate   *time.Time     `json:"payment_date"`
}

type DoctorDashboard struct {
	Earning            float64       `json:"earning"`
	Appointments       int           `json:"appointments"`
	Patients           int           `json:"patients"`
	LatestAppointments []Appointment `json:"latest_appointments"`
}

type AdminDashboard struct {
	Doctors            int           `json:"doctors"`
	Appointments       int           `json:"appointments"`
	Patients           int           `json:"patients"`
	LatestAppointments []Appointment `json:"latest_appointments"`
}
