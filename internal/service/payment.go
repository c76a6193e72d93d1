package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"

	"go.uber.org/zap"

	"medbook/config"
	"medbook/internal/domain"
	"medbook/internal/payment"
	"medbook/internal/repository"
)

const paymentProvider = "stripe"

type PaymentServiceImpl struct {
	repo         repository.AppointmentRepository
	eventRepo    repository.PaymentEventRepository
	appointments AppointmentService
	processor    PaymentProcessor
	cfg          config.StripeConfig
	logger       *zap.Logger
}

func NewPaymentService(
	repo repository.AppointmentRepository,
	eventRepo repository.PaymentEventRepository,
	appointments AppointmentService,
	processor PaymentProcessor,
	cfg config.StripeConfig,
	logger *zap.Logger,
) *PaymentServiceImpl {
	return &PaymentServiceImpl{
		repo:         repo,
		eventRepo:    eventRepo,
		appointments: appointments,
		processor:    processor,
		cfg:          cfg,
		logger:       logger,
	}
}

// CreateIntent создает платежное намерение у провайдера. Уже оплаченная
// запись отклоняется до обращения к провайдеру.
func (s *PaymentServiceImpl) CreateIntent(ctx context.Context, appointmentID, patientID int64) (*domain.PaymentIntentResponse, error) {
	appointment, err := s.repo.GetByID(ctx, appointmentID)
	if err != nil {
		return nil, err
	}

	if appointment.PatientID != patientID {
		return nil, domain.ErrUnauthorized
	}

	if appointment.Payment {
		return nil, domain.ErrAlreadyPaid
	}

	if appointment.Cancelled {
		return nil, domain.ErrAppointmentCancelled
	}

	amountMinor := int64(math.Round(appointment.Amount * 100))
	description := fmt.Sprintf("Оплата приема у врача %s %s",
		appointment.DoctorSnapshot.FirstName,
		appointment.DoctorSnapshot.LastName,
	)
	metadata := map[string]string{
		"appointmentId": strconv.FormatInt(appointment.ID, 10),
		"patientId":     strconv.FormatInt(appointment.PatientID, 10),
		"doctorId":      strconv.FormatInt(appointment.DoctorID, 10),
	}

	intent, err := s.processor.CreateIntent(ctx, amountMinor, description, metadata)
	if err != nil {
		s.logger.Error("ошибка создания платежного намерения",
			zap.Int64("appointmentID", appointmentID),
			zap.Error(err),
		)
		return nil, err
	}

	if err := s.repo.SetPaymentIntent(ctx, appointmentID, intent.ID); err != nil {
		return nil, err
	}

	return &domain.PaymentIntentResponse{
		ClientSecret: intent.ClientSecret,
		Amount:       appointment.Amount,
	}, nil
}

// Confirm — синхронное подтверждение: состояние намерения запрашивается
// у провайдера, локальное состояние меняется только после его ответа.
func (s *PaymentServiceImpl) Confirm(ctx context.Context, dto domain.ConfirmPaymentDTO, patientID int64) error {
	appointment, err := s.repo.GetByID(ctx, dto.AppointmentID)
	if err != nil {
		return err
	}

	if appointment.PatientID != patientID {
		return domain.ErrUnauthorized
	}

	intent, err := s.processor.GetIntent(ctx, dto.PaymentIntentID)
	if err != nil {
		return err
	}

	if intent.Status != payment.IntentStatusSucceeded {
		return domain.ErrPaymentNotCompleted
	}

	return s.appointments.RecordPayment(ctx, dto.AppointmentID, domain.PaymentMethodStripe, intent.ID)
}

// HandleWebhook обрабатывает событие провайдера. Подпись проверяется
// до любой обработки; событие с неверной подписью отбрасывается.
// Повторно доставленное событие пропускается. Бизнес-отказы (например,
// оплата другим способом) логируются, но наружу уходит успех: провайдер
// не должен повторять доставку из-за них.
func (s *PaymentServiceImpl) HandleWebhook(ctx context.Context, payload []byte, sigHeader string) error {
	event, err := payment.ParseWebhook(payload, sigHeader, s.cfg.WebhookSecret)
	if err != nil {
		return err
	}

	processed, err := s.eventRepo.AlreadyProcessed(ctx, paymentProvider, event.ID)
	if err != nil {
		return err
	}
	if processed {
		s.logger.Debug("повторная доставка события", zap.String("eventID", event.ID))
		return nil
	}

	switch event.Type {
	case payment.EventPaymentSucceeded:
		if err := s.applySucceeded(ctx, event); err != nil {
			return err
		}
	case payment.EventPaymentFailed:
		s.logger.Warn("платеж не прошел",
			zap.String("eventID", event.ID),
			zap.String("intentID", event.Data.Object.ID),
		)
	default:
		s.logger.Debug("событие не обрабатывается", zap.String("type", event.Type))
	}

	if _, err := s.eventRepo.MarkProcessed(ctx, paymentProvider, event.ID); err != nil {
		return err
	}

	return nil
}

func (s *PaymentServiceImpl) applySucceeded(ctx context.Context, event *payment.WebhookEvent) error {
	intent := event.Data.Object

	appointmentID, err := strconv.ParseInt(intent.Metadata["appointmentId"], 10, 64)
	if err != nil {
		s.logger.Warn("событие без идентификатора записи",
			zap.String("eventID", event.ID),
			zap.String("intentID", intent.ID),
		)
		return nil
	}

	err = s.appointments.RecordPayment(ctx, appointmentID, domain.PaymentMethodStripe, intent.ID)
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyPaid) || errors.Is(err, domain.ErrNotFound) {
			s.logger.Warn("событие оплаты не применено",
				zap.String("eventID", event.ID),
				zap.Int64("appointmentID", appointmentID),
				zap.Error(err),
			)
			return nil
		}
		return err
	}

	return nil
}

func (s *PaymentServiceImpl) Status(ctx context.Context, appointmentID, patientID int64) (*domain.PaymentStatus, error) {
	appointment, err := s.repo.GetByID(ctx, appointmentID)
	if err != nil {
		return nil, err
	}

	if appointment.PatientID != patientID {
		return nil, domain.ErrUnauthorized
	}

	return &domain.PaymentStatus{
		Payment:       appointment.Payment,
		PaymentMethod: appointment.PaymentMethod,
		TransactionID: appointment.TransactionID,
		PaymentDate:   appointment.PaymentDate,
	}, nil
}
