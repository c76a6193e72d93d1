package service

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"medbook/config"
	"medbook/internal/domain"
	"medbook/internal/payment"
)

const testWebhookSecret = "whsec_test"

func newPaymentFixture(processor *processorStub) (*PaymentServiceImpl, *AppointmentServiceImpl, *memStore, *memEvents) {
	appointmentSvc, store := newAppointmentFixture()
	events := newMemEvents()

	cfg := config.StripeConfig{
		SecretKey:     "sk_test",
		WebhookSecret: testWebhookSecret,
		Currency:      "usd",
	}

	svc := NewPaymentService(store, events, appointmentSvc, processor, cfg, zap.NewNop())

	return svc, appointmentSvc, store, events
}

func succeededEvent(t *testing.T, eventID string, appointmentID int64, intentID string) ([]byte, string) {
	t.Helper()

	event := map[string]interface{}{
		"id":   eventID,
		"type": payment.EventPaymentSucceeded,
		"data": map[string]interface{}{
			"object": map[string]interface{}{
				"id":     intentID,
				"status": payment.IntentStatusSucceeded,
				"metadata": map[string]string{
					"appointmentId": fmt.Sprintf("%d", appointmentID),
				},
			},
		},
	}

	payload, err := json.Marshal(event)
	require.NoError(t, err)

	return payload, payment.SignPayload(testWebhookSecret, payload, time.Now())
}

func TestPaymentCreateIntent(t *testing.T) {
	ctx := context.Background()
	processor := &processorStub{intent: &ProcessorIntent{
		ID:           "pi_123",
		ClientSecret: "pi_123_secret",
		Status:       "requires_payment_method",
	}}
	svc, appointmentSvc, store, _ := newPaymentFixture(processor)

	id, err := appointmentSvc.Book(ctx, 1, domain.CreateAppointmentDTO{DoctorID: 1, SlotDate: "15_6_2025", SlotTime: "14:00"})
	require.NoError(t, err)

	resp, err := svc.CreateIntent(ctx, id, 1)
	require.NoError(t, err)
	assert.Equal(t, "pi_123_secret", resp.ClientSecret)
	assert.Equal(t, 500.0, resp.Amount)
	assert.Equal(t, 1, processor.createCalls)

	appointment, err := store.GetByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, appointment.PaymentIntentID)
	assert.Equal(t, "pi_123", *appointment.PaymentIntentID)
}

func TestPaymentCreateIntentAlreadyPaid(t *testing.T) {
	ctx := context.Background()
	processor := &processorStub{intent: &ProcessorIntent{ID: "pi_new"}}
	svc, appointmentSvc, _, _ := newPaymentFixture(processor)

	id, err := appointmentSvc.Book(ctx, 1, domain.CreateAppointmentDTO{DoctorID: 1, SlotDate: "15_6_2025", SlotTime: "14:00"})
	require.NoError(t, err)

	require.NoError(t, appointmentSvc.RecordPayment(ctx, id, domain.PaymentMethodCash, "cash_1"))

	_, err = svc.CreateIntent(ctx, id, 1)
	assert.ErrorIs(t, err, domain.ErrAlreadyPaid)

	// оплаченная запись отклоняется до обращения к провайдеру
	assert.Zero(t, processor.createCalls)
}

func TestPaymentCreateIntentCancelled(t *testing.T) {
	ctx := context.Background()
	processor := &processorStub{intent: &ProcessorIntent{ID: "pi_new"}}
	svc, appointmentSvc, _, _ := newPaymentFixture(processor)

	id, err := appointmentSvc.Book(ctx, 1, domain.CreateAppointmentDTO{DoctorID: 1, SlotDate: "15_6_2025", SlotTime: "14:00"})
	require.NoError(t, err)

	require.NoError(t, appointmentSvc.Cancel(ctx, id, domain.Actor{ID: 1, Role: domain.UserRolePatient}))

	_, err = svc.CreateIntent(ctx, id, 1)
	assert.ErrorIs(t, err, domain.ErrAppointmentCancelled)
	assert.Zero(t, processor.createCalls)
}

func TestPaymentCreateIntentForeignAppointment(t *testing.T) {
	ctx := context.Background()
	processor := &processorStub{intent: &ProcessorIntent{ID: "pi_new"}}
	svc, appointmentSvc, _, _ := newPaymentFixture(processor)

	id, err := appointmentSvc.Book(ctx, 1, domain.CreateAppointmentDTO{DoctorID: 1, SlotDate: "15_6_2025", SlotTime: "14:00"})
	require.NoError(t, err)

	_, err = svc.CreateIntent(ctx, id, 2)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestPaymentConfirm(t *testing.T) {
	ctx := context.Background()
	processor := &processorStub{intent: &ProcessorIntent{
		ID:     "pi_123",
		Status: payment.IntentStatusSucceeded,
	}}
	svc, appointmentSvc, store, _ := newPaymentFixture(processor)

	id, err := appointmentSvc.Book(ctx, 1, domain.CreateAppointmentDTO{DoctorID: 1, SlotDate: "15_6_2025", SlotTime: "14:00"})
	require.NoError(t, err)

	dto := domain.ConfirmPaymentDTO{PaymentIntentID: "pi_123", AppointmentID: id}
	require.NoError(t, svc.Confirm(ctx, dto, 1))

	appointment, err := store.GetByID(ctx, id)
	require.NoError(t, err)
	assert.True(t, appointment.Payment)
	assert.Equal(t, domain.AppointmentStatusPaid, appointment.Status())
}

func TestPaymentConfirmNotSucceeded(t *testing.T) {
	ctx := context.Background()
	processor := &processorStub{intent: &ProcessorIntent{
		ID:     "pi_123",
		Status: "requires_payment_method",
	}}
	svc, appointmentSvc, store, _ := newPaymentFixture(processor)

	id, err := appointmentSvc.Book(ctx, 1, domain.CreateAppointmentDTO{DoctorID: 1, SlotDate: "15_6_2025", SlotTime: "14:00"})
	require.NoError(t, err)

	dto := domain.ConfirmPaymentDTO{PaymentIntentID: "pi_123", AppointmentID: id}
	err = svc.Confirm(ctx, dto, 1)
	assert.ErrorIs(t, err, domain.ErrPaymentNotCompleted)

	appointment, err := store.GetByID(ctx, id)
	require.NoError(t, err)
	assert.False(t, appointment.Payment)
}

func TestPaymentWebhookApplies(t *testing.T) {
	ctx := context.Background()
	svc, appointmentSvc, store, _ := newPaymentFixture(&processorStub{})

	id, err := appointmentSvc.Book(ctx, 1, domain.CreateAppointmentDTO{DoctorID: 1, SlotDate: "15_6_2025", SlotTime: "14:00"})
	require.NoError(t, err)

	payload, sig := succeededEvent(t, "evt_1", id, "pi_123")
	require.NoError(t, svc.HandleWebhook(ctx, payload, sig))

	appointment, err := store.GetByID(ctx, id)
	require.NoError(t, err)
	assert.True(t, appointment.Payment)
	require.NotNil(t, appointment.TransactionID)
	assert.Equal(t, "pi_123", *appointment.TransactionID)
}

func TestPaymentWebhookInvalidSignature(t *testing.T) {
	ctx := context.Background()
	svc, appointmentSvc, store, _ := newPaymentFixture(&processorStub{})

	id, err := appointmentSvc.Book(ctx, 1, domain.CreateAppointmentDTO{DoctorID: 1, SlotDate: "15_6_2025", SlotTime: "14:00"})
	require.NoError(t, err)

	payload, _ := succeededEvent(t, "evt_1", id, "pi_123")

	err = svc.HandleWebhook(ctx, payload, payment.SignPayload("другой_секрет", payload, time.Now()))
	assert.ErrorIs(t, err, domain.ErrInvalidSignature)

	err = svc.HandleWebhook(ctx, payload, "")
	assert.ErrorIs(t, err, domain.ErrInvalidSignature)

	// событие с неверной подписью не применяется к состоянию
	appointment, err := store.GetByID(ctx, id)
	require.NoError(t, err)
	assert.False(t, appointment.Payment)
}

func TestPaymentWebhookDeduplicates(t *testing.T) {
	ctx := context.Background()
	svc, appointmentSvc, store, events := newPaymentFixture(&processorStub{})

	id, err := appointmentSvc.Book(ctx, 1, domain.CreateAppointmentDTO{DoctorID: 1, SlotDate: "15_6_2025", SlotTime: "14:00"})
	require.NoError(t, err)

	payload, sig := succeededEvent(t, "evt_1", id, "pi_123")
	require.NoError(t, svc.HandleWebhook(ctx, payload, sig))

	processed, err := events.AlreadyProcessed(ctx, "stripe", "evt_1")
	require.NoError(t, err)
	assert.True(t, processed)

	// повторная доставка того же события — успех без изменений
	require.NoError(t, svc.HandleWebhook(ctx, payload, sig))

	appointment, err := store.GetByID(ctx, id)
	require.NoError(t, err)
	assert.True(t, appointment.Payment)
}

func TestPaymentWebhookUnknownAppointment(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := newPaymentFixture(&processorStub{})

	// события по неизвестным записям подтверждаются, чтобы провайдер
	// не повторял доставку
	payload, sig := succeededEvent(t, "evt_404", 999, "pi_404")
	assert.NoError(t, svc.HandleWebhook(ctx, payload, sig))
}

func TestPaymentStatus(t *testing.T) {
	ctx := context.Background()
	svc, appointmentSvc, _, _ := newPaymentFixture(&processorStub{})

	id, err := appointmentSvc.Book(ctx, 1, domain.CreateAppointmentDTO{DoctorID: 1, SlotDate: "15_6_2025", SlotTime: "14:00"})
	require.NoError(t, err)

	status, err := svc.Status(ctx, id, 1)
	require.NoError(t, err)
	assert.False(t, status.Payment)

	require.NoError(t, appointmentSvc.RecordPayment(ctx, id, domain.PaymentMethodStripe, "pi_123"))

	status, err = svc.Status(ctx, id, 1)
	require.NoError(t, err)
	assert.True(t, status.Payment)
	require.NotNil(t, status.TransactionID)
	assert.Equal(t, "pi_123", *status.TransactionID)

	_, err = svc.Status(ctx, id, 2)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}
