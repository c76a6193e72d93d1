package rest

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"medbook/config"
	"medbook/internal/domain"
	"medbook/internal/service"
)

type appointmentServiceStub struct {
	bookCalls     int
	lastPatientID int64
}

func (s *appointmentServiceStub) Book(ctx context.Context, patientID int64, dto domain.CreateAppointmentDTO) (int64, error) {
	s.bookCalls++
	s.lastPatientID = patientID
	return 7, nil
}

func (s *appointmentServiceStub) GetByID(ctx context.Context, id int64, actor domain.Actor) (*domain.Appointment, error) {
	return nil, domain.ErrNotFound
}

func (s *appointmentServiceStub) List(ctx context.Context, actor domain.Actor, limit, offset int) ([]domain.Appointment, int, error) {
	return nil, 0, nil
}

func (s *appointmentServiceStub) Cancel(ctx context.Context, id int64, actor domain.Actor) error {
	return nil
}

func (s *appointmentServiceStub) Complete(ctx context.Context, id int64, actor domain.Actor) error {
	return nil
}

func (s *appointmentServiceStub) SetMode(ctx context.Context, id int64, mode domain.AppointmentMode, actor domain.Actor) error {
	return nil
}

func (s *appointmentServiceStub) RecordPayment(ctx context.Context, id int64, method domain.PaymentMethod, transactionID string) error {
	return nil
}

func performCreateAppointment(h *Handler, accountID int64, role domain.UserRole) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	body := bytes.NewBufferString(`{"doctor_id":1,"slot_date":"15_6_2025","slot_time":"14:00"}`)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/appointments", body)
	c.Request.Header.Set("Content-Type", "application/json")
	c.Set(userIDCtx, accountID)
	c.Set(userRoleCtx, role)

	h.createAppointment(c)
	return w
}

func TestCreateAppointmentPatientOnly(t *testing.T) {
	stub := &appointmentServiceStub{}
	h := NewHandler(&service.Services{Appointment: stub}, zap.NewNop(), &config.Config{})

	// ID врача и пациента выдаются независимыми последовательностями,
	// токен врача не должен создавать запись от имени пациента с тем же ID
	w := performCreateAppointment(h, 3, domain.UserRoleDoctor)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Zero(t, stub.bookCalls)

	w = performCreateAppointment(h, 0, domain.UserRoleAdmin)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Zero(t, stub.bookCalls)

	w = performCreateAppointment(h, 1, domain.UserRolePatient)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, 1, stub.bookCalls)
	assert.Equal(t, int64(1), stub.lastPatientID)
}
