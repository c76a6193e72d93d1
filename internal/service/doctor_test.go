package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"medbook/internal/domain"
)

func newDoctorFixture() (*DoctorServiceImpl, *AppointmentServiceImpl, *memStore) {
	appointmentSvc, store := newAppointmentFixture()
	svc := NewDoctorService(appointmentSvc.doctorRepo, store, store, zap.NewNop())
	return svc, appointmentSvc, store
}

func TestDoctorGetByIDAttachesSlots(t *testing.T) {
	ctx := context.Background()
	svc, appointmentSvc, _ := newDoctorFixture()

	_, err := appointmentSvc.Book(ctx, 1, domain.CreateAppointmentDTO{DoctorID: 1, SlotDate: "15_6_2025", SlotTime: "14:00"})
	require.NoError(t, err)
	_, err = appointmentSvc.Book(ctx, 2, domain.CreateAppointmentDTO{DoctorID: 1, SlotDate: "15_6_2025", SlotTime: "15:00"})
	require.NoError(t, err)

	doctor, err := svc.GetByID(ctx, 1)
	require.NoError(t, err)
	require.Contains(t, doctor.SlotBooked, "15_6_2025")
	assert.ElementsMatch(t, []string{"14:00", "15:00"}, doctor.SlotBooked["15_6_2025"])
}

func TestDoctorBookedSlots(t *testing.T) {
	ctx := context.Background()
	svc, appointmentSvc, _ := newDoctorFixture()

	id, err := appointmentSvc.Book(ctx, 1, domain.CreateAppointmentDTO{DoctorID: 1, SlotDate: "15_6_2025", SlotTime: "14:00"})
	require.NoError(t, err)

	slots, err := svc.BookedSlots(ctx, 1, "15_6_2025")
	require.NoError(t, err)
	assert.Equal(t, []string{"14:00"}, slots)

	// после отмены слот исчезает из выдачи
	require.NoError(t, appointmentSvc.Cancel(ctx, id, domain.Actor{ID: 1, Role: domain.UserRolePatient}))

	slots, err = svc.BookedSlots(ctx, 1, "15_6_2025")
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestDoctorBookedSlotsInvalidDate(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newDoctorFixture()

	_, err := svc.BookedSlots(ctx, 1, "05_6_2025")
	assert.ErrorIs(t, err, domain.ErrInvalidSlotFormat)
}

func TestDoctorDashboardEarning(t *testing.T) {
	ctx := context.Background()
	svc, appointmentSvc, _ := newDoctorFixture()

	paid, err := appointmentSvc.Book(ctx, 1, domain.CreateAppointmentDTO{DoctorID: 1, SlotDate: "15_6_2025", SlotTime: "14:00"})
	require.NoError(t, err)
	require.NoError(t, appointmentSvc.RecordPayment(ctx, paid, domain.PaymentMethodStripe, "pi_1"))

	completed, err := appointmentSvc.Book(ctx, 2, domain.CreateAppointmentDTO{DoctorID: 1, SlotDate: "15_6_2025", SlotTime: "15:00"})
	require.NoError(t, err)
	require.NoError(t, appointmentSvc.Complete(ctx, completed, domain.Actor{ID: 1, Role: domain.UserRoleDoctor}))

	// ни оплаты, ни завершения — в заработок не входит
	_, err = appointmentSvc.Book(ctx, 1, domain.CreateAppointmentDTO{DoctorID: 1, SlotDate: "15_6_2025", SlotTime: "16:00"})
	require.NoError(t, err)

	dashboard, err := svc.Dashboard(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1000.0, dashboard.Earning)
	assert.Equal(t, 3, dashboard.Appointments)
	assert.Equal(t, 2, dashboard.Patients)
}
