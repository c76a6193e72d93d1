package service

import (
	"context"

	"go.uber.org/zap"

	"medbook/internal/domain"
	"medbook/internal/repository"
)

type AppointmentServiceImpl struct {
	repo       repository.AppointmentRepository
	slotRepo   repository.SlotRepository
	doctorRepo repository.DoctorRepository
	userRepo   repository.UserRepository
	logger     *zap.Logger
}

func NewAppointmentService(
	repo repository.AppointmentRepository,
	slotRepo repository.SlotRepository,
	doctorRepo repository.DoctorRepository,
	userRepo repository.UserRepository,
	logger *zap.Logger,
) *AppointmentServiceImpl {
	return &AppointmentServiceImpl{
		repo:       repo,
		slotRepo:   slotRepo,
		doctorRepo: doctorRepo,
		userRepo:   userRepo,
		logger:     logger,
	}
}

// Book фиксирует снимки профилей и текущую ставку врача на момент
// бронирования. Резервирование слота атомарно относительно создания
// записи: конкурентное бронирование того же слота получает ErrSlotConflict.
func (s *AppointmentServiceImpl) Book(ctx context.Context, patientID int64, dto domain.CreateAppointmentDTO) (int64, error) {
	if _, err := domain.ParseSlotDate(dto.SlotDate); err != nil {
		return 0, err
	}
	if !domain.ValidateSlotTime(dto.SlotTime) {
		return 0, domain.ErrInvalidSlotFormat
	}

	patient, err := s.userRepo.GetByID(ctx, patientID)
	if err != nil {
		s.logger.Error("пациент не найден при создании записи", zap.Int64("patientID", patientID), zap.Error(err))
		return 0, err
	}

	doctor, err := s.doctorRepo.GetByID(ctx, dto.DoctorID)
	if err != nil {
		s.logger.Error("врач не найден при создании записи", zap.Int64("doctorID", dto.DoctorID), zap.Error(err))
		return 0, err
	}

	if !doctor.Available {
		return 0, domain.ErrDoctorUnavailable
	}

	appointment := domain.Appointment{
		PatientID: patientID,
		DoctorID:  doctor.ID,
		SlotDate:  dto.SlotDate,
		SlotTime:  dto.SlotTime,
		PatientSnapshot: domain.PatientSnapshot{
			ID:        patient.ID,
			FirstName: patient.FirstName,
			LastName:  patient.LastName,
			Email:     patient.Email,
			Phone:     patient.Phone,
		},
		DoctorSnapshot: domain.DoctorSnapshot{
			ID:         doctor.ID,
			FirstName:  doctor.FirstName,
			LastName:   doctor.LastName,
			Speciality: doctor.Speciality,
			Fees:       doctor.Fees,
			Address:    doctor.Address,
		},
		Amount: doctor.Fees,
	}

	id, err := s.repo.Create(ctx, appointment)
	if err != nil {
		if err == domain.ErrSlotConflict {
			return 0, err
		}
		s.logger.Error("ошибка создания записи", zap.Error(err))
		return 0, err
	}

	s.logger.Info("запись создана",
		zap.Int64("appointmentID", id),
		zap.Int64("doctorID", doctor.ID),
		zap.String("slotDate", dto.SlotDate),
		zap.String("slotTime", dto.SlotTime),
	)

	return id, nil
}

func (s *AppointmentServiceImpl) GetByID(ctx context.Context, id int64, actor domain.Actor) (*domain.Appointment, error) {
	appointment, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := authorize(appointment, actor); err != nil {
		return nil, err
	}

	return appointment, nil
}

func (s *AppointmentServiceImpl) List(ctx context.Context, actor domain.Actor, limit, offset int) ([]domain.Appointment, int, error) {
	filter := domain.AppointmentFilter{
		Limit:  limit,
		Offset: offset,
	}

	switch actor.Role {
	case domain.UserRolePatient:
		filter.PatientID = &actor.ID
	case domain.UserRoleDoctor:
		filter.DoctorID = &actor.ID
	case domain.UserRoleAdmin:
	default:
		return nil, 0, domain.ErrUnauthorized
	}

	appointments, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error("ошибка получения списка записей", zap.Error(err))
		return nil, 0, err
	}

	count, err := s.repo.CountByFilter(ctx, filter)
	if err != nil {
		s.logger.Error("ошибка получения количества записей", zap.Error(err))
		return appointments, len(appointments), nil
	}

	return appointments, count, nil
}

// Cancel отменяет запись и освобождает слот. Повторная отмена —
// идемпотентный no-op. Отмена оплаченной записи допустима: флаги
// payment и cancelled независимы, возврат средств выполняется вне
// системы. Освобождение вызывается и при повторной отмене, чтобы
// повтор после частичного сбоя довел состояние до конца; слот удаляется
// по appointment_id, поэтому перебронированный слот другой записи
// повторная отмена не затрагивает.
func (s *AppointmentServiceImpl) Cancel(ctx context.Context, id int64, actor domain.Actor) error {
	appointment, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := authorize(appointment, actor); err != nil {
		return err
	}

	changed, err := s.repo.SetCancelled(ctx, id)
	if err != nil {
		return err
	}

	if err := s.slotRepo.Release(ctx, id); err != nil {
		s.logger.Error("ошибка освобождения слота при отмене",
			zap.Int64("appointmentID", id),
			zap.Error(err),
		)
		return err
	}

	if changed {
		s.logger.Info("запись отменена",
			zap.Int64("appointmentID", id),
			zap.Int64("actorID", actor.ID),
			zap.String("actorRole", string(actor.Role)),
		)
	}

	return nil
}

// Complete завершает прием. Слот остается занятым: прием состоялся.
func (s *AppointmentServiceImpl) Complete(ctx context.Context, id int64, actor domain.Actor) error {
	appointment, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if actor.Role == domain.UserRolePatient {
		return domain.ErrUnauthorized
	}

	if err := authorize(appointment, actor); err != nil {
		return err
	}

	changed, err := s.repo.SetCompleted(ctx, id)
	if err != nil {
		return err
	}

	if changed {
		s.logger.Info("прием завершен", zap.Int64("appointmentID", id))
	}

	return nil
}

func (s *AppointmentServiceImpl) SetMode(ctx context.Context, id int64, mode domain.AppointmentMode, actor domain.Actor) error {
	appointment, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := authorize(appointment, actor); err != nil {
		return err
	}

	return s.repo.SetMode(ctx, id, mode)
}

// RecordPayment — системный переход, вызывается платежным шлюзом после
// подтверждения провайдера. Идемпотентен по идентификатору транзакции.
func (s *AppointmentServiceImpl) RecordPayment(ctx context.Context, id int64, method domain.PaymentMethod, transactionID string) error {
	changed, err := s.repo.RecordPayment(ctx, id, method, transactionID)
	if err != nil {
		return err
	}

	if changed {
		s.logger.Info("оплата зафиксирована",
			zap.Int64("appointmentID", id),
			zap.String("transactionID", transactionID),
		)
	}

	return nil
}

// authorize проверяет право действующего лица на запись: пациент
// распоряжается только своими записями, врач — записями к себе,
// администратор — любыми.
func authorize(appointment *domain.Appointment, actor domain.Actor) error {
	switch actor.Role {
	case domain.UserRoleAdmin:
		return nil
	case domain.UserRolePatient:
		if appointment.PatientID == actor.ID {
			return nil
		}
	case domain.UserRoleDoctor:
		if appointment.DoctorID == actor.ID {
			return nil
		}
	}

	return domain.ErrUnauthorized
}
