package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"medbook/internal/domain"
	"medbook/internal/repository"
	"medbook/pkg/validator"
)

type DoctorServiceImpl struct {
	doctorRepo      repository.DoctorRepository
	slotRepo        repository.SlotRepository
	appointmentRepo repository.AppointmentRepository
	logger          *zap.Logger
}

func NewDoctorService(
	doctorRepo repository.DoctorRepository,
	slotRepo repository.SlotRepository,
	appointmentRepo repository.AppointmentRepository,
	logger *zap.Logger,
) *DoctorServiceImpl {
	return &DoctorServiceImpl{
		doctorRepo:      doctorRepo,
		slotRepo:        slotRepo,
		appointmentRepo: appointmentRepo,
		logger:          logger,
	}
}

func (s *DoctorServiceImpl) Create(ctx context.Context, dto domain.CreateDoctorDTO) (int64, error) {
	if !validator.ValidateEmail(dto.Email) {
		return 0, errors.New("некорректный email")
	}

	if existing, err := s.doctorRepo.GetByEmail(ctx, dto.Email); err == nil && existing != nil {
		return 0, errors.New("врач с таким email уже существует")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(dto.Password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("ошибка при хешировании пароля", zap.Error(err))
		return 0, errors.New("ошибка при создании врача")
	}

	dto.FirstName = validator.FormatName(dto.FirstName)
	dto.LastName = validator.FormatName(dto.LastName)

	doctorID, err := s.doctorRepo.Create(ctx, dto, string(hashedPassword))
	if err != nil {
		s.logger.Error("ошибка при создании врача", zap.Error(err))
		return 0, errors.New("ошибка при создании врача")
	}

	return doctorID, nil
}

func (s *DoctorServiceImpl) GetByID(ctx context.Context, id int64) (*domain.Doctor, error) {
	doctor, err := s.doctorRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	booked, err := s.slotRepo.BookedByDoctor(ctx, id)
	if err != nil {
		return nil, err
	}
	doctor.SlotBooked = booked

	return doctor, nil
}

func (s *DoctorServiceImpl) List(ctx context.Context, filter domain.DoctorFilter) ([]domain.Doctor, error) {
	return s.doctorRepo.List(ctx, filter)
}

func (s *DoctorServiceImpl) Update(ctx context.Context, id int64, dto domain.UpdateDoctorDTO) error {
	return s.doctorRepo.Update(ctx, id, dto)
}

func (s *DoctorServiceImpl) SetAvailability(ctx context.Context, id int64, available bool) error {
	if _, err := s.doctorRepo.GetByID(ctx, id); err != nil {
		return err
	}

	return s.doctorRepo.SetAvailability(ctx, id, available)
}

func (s *DoctorServiceImpl) BookedSlots(ctx context.Context, doctorID int64, slotDate string) ([]string, error) {
	if _, err := domain.ParseSlotDate(slotDate); err != nil {
		return nil, domain.ErrInvalidSlotFormat
	}

	if _, err := s.doctorRepo.GetByID(ctx, doctorID); err != nil {
		return nil, err
	}

	return s.slotRepo.BookedByDoctorAndDate(ctx, doctorID, slotDate)
}

func (s *DoctorServiceImpl) Dashboard(ctx context.Context, doctorID int64) (*domain.DoctorDashboard, error) {
	if _, err := s.doctorRepo.GetByID(ctx, doctorID); err != nil {
		return nil, err
	}

	return s.appointmentRepo.DoctorStats(ctx, doctorID)
}
