package service

import (
	"context"

	"go.uber.org/zap"

	"medbook/internal/domain"
	"medbook/internal/repository"
)

type AdminServiceImpl struct {
	userRepo        repository.UserRepository
	doctorRepo      repository.DoctorRepository
	appointmentRepo repository.AppointmentRepository
	logger          *zap.Logger
}

func NewAdminService(
	userRepo repository.UserRepository,
	doctorRepo repository.DoctorRepository,
	appointmentRepo repository.AppointmentRepository,
	logger *zap.Logger,
) *AdminServiceImpl {
	return &AdminServiceImpl{
		userRepo:        userRepo,
		doctorRepo:      doctorRepo,
		appointmentRepo: appointmentRepo,
		logger:          logger,
	}
}

func (s *AdminServiceImpl) Dashboard(ctx context.Context) (*domain.AdminDashboard, error) {
	doctors, err := s.doctorRepo.Count(ctx)
	if err != nil {
		return nil, err
	}

	patients, err := s.userRepo.Count(ctx)
	if err != nil {
		return nil, err
	}

	appointments, err := s.appointmentRepo.CountByFilter(ctx, domain.AppointmentFilter{})
	if err != nil {
		return nil, err
	}

	latest, err := s.appointmentRepo.List(ctx, domain.AppointmentFilter{Limit: 5})
	if err != nil {
		return nil, err
	}

	return &domain.AdminDashboard{
		Doctors:            doctors,
		Patients:           patients,
		Appointments:       appointments,
		LatestAppointments: latest,
	}, nil
}
