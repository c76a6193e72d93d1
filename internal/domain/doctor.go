package domain

import (
	"time"
)

type Doctor struct {
	ID           int64     `json:"id"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Speciality   string    `json:"speciality"`
	Degree       string    `json:"degree"`
	Experience   string    `json:"experience"`
	About        string    `json:"about"`
	Fees         float64   `json:"fees"`
	Available    bool      `json:"available"`
	Address      string    `json:"address"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// занятые слоты по датам в формате D_M_YYYY -> [HH:MM]
	SlotBooked map[string][]string `json:"slot_booked,omitempty"`
}

type CreateDoctorDTO struct {
	FirstName  string  `json:"first_name" binding:"required"`
	LastName   string  `json:"last_name" binding:"required"`
	Email      string  `json:"email" binding:"required,email"`
	Password   string  `json:"password" binding:"required,min=6"`
	Speciality string  `json:"speciality" binding:"required"`
	Degree     string  `json:"degree" binding:"required"`
	Experience string  `json:"experience"`
	About      string  `json:"about"`
	Fees       float64 `json:"fees" binding:"required,gt=0"`
	Address    string  `json:"address"`
}

type UpdateDoctorDTO struct {
	Speciality *string  `json:"speciality"`
	Degree     *string  `json:"degree"`
	Experience *string  `json:"experience"`
	About      *string  `json:"about"`
	Fees       *float64 `json:"fees" binding:"omitempty,gt=0"`
	Available  *bool    `json:"available"`
	Address    *string  `json:"address"`
}

type DoctorFilter struct {
	Speciality *string `json:"speciality"`
	Available  *bool   `json:"available"`
	Limit      int     `json:"limit"`
	Offset     int     `json:"offset"`
}
