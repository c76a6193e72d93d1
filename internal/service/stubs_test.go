package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"medbook/internal/domain"
)

// memStore — связанная in-memory реализация хранилища записей и
// реестра слотов с той же семантикой условных переходов, что и у
// Postgres-репозиториев. Реестр слотов хранит ID занявшей записи,
// как колонка appointment_id в booked_slots.
type memStore struct {
	mu           sync.Mutex
	seq          int64
	appointments map[int64]*domain.Appointment
	slots        map[string]int64
}

func newMemStore() *memStore {
	return &memStore{
		appointments: make(map[int64]*domain.Appointment),
		slots:        make(map[string]int64),
	}
}

func slotKey(doctorID int64, slotDate, slotTime string) string {
	return fmt.Sprintf("%d|%s|%s", doctorID, slotDate, slotTime)
}

func (m *memStore) Create(ctx context.Context, appointment domain.Appointment) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := slotKey(appointment.DoctorID, appointment.SlotDate, appointment.SlotTime)
	if _, taken := m.slots[key]; taken {
		return 0, domain.ErrSlotConflict
	}

	m.seq++
	appointment.ID = m.seq
	appointment.CreatedAt = time.Now()
	appointment.UpdatedAt = appointment.CreatedAt

	m.appointments[appointment.ID] = &appointment
	m.slots[key] = appointment.ID

	return appointment.ID, nil
}

func (m *memStore) GetByID(ctx context.Context, id int64) (*domain.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	appointment, ok := m.appointments[id]
	if !ok {
		return nil, domain.ErrNotFound
	}

	copied := *appointment
	return &copied, nil
}

func (m *memStore) GetByPaymentIntentID(ctx context.Context, intentID string) (*domain.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, appointment := range m.appointments {
		if appointment.PaymentIntentID != nil && *appointment.PaymentIntentID == intentID {
			copied := *appointment
			return &copied, nil
		}
	}

	return nil, domain.ErrNotFound
}

func (m *memStore) List(ctx context.Context, filter domain.AppointmentFilter) ([]domain.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := make([]domain.Appointment, 0)
	for _, appointment := range m.appointments {
		if filter.PatientID != nil && appointment.PatientID != *filter.PatientID {
			continue
		}
		if filter.DoctorID != nil && appointment.DoctorID != *filter.DoctorID {
			continue
		}
		result = append(result, *appointment)
	}

	return result, nil
}

func (m *memStore) CountByFilter(ctx context.Context, filter domain.AppointmentFilter) (int, error) {
	appointments, err := m.List(ctx, filter)
	if err != nil {
		return 0, err
	}
	return len(appointments), nil
}

func (m *memStore) SetCancelled(ctx context.Context, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	appointment, ok := m.appointments[id]
	if !ok {
		return false, domain.ErrNotFound
	}

	if appointment.Cancelled {
		return false, nil
	}
	if appointment.IsCompleted {
		return false, domain.ErrAppointmentCompleted
	}

	appointment.Cancelled = true
	return true, nil
}

func (m *memStore) SetCompleted(ctx context.Context, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	appointment, ok := m.appointments[id]
	if !ok {
		return false, domain.ErrNotFound
	}

	if appointment.IsCompleted {
		return false, nil
	}
	if appointment.Cancelled {
		return false, domain.ErrAppointmentCancelled
	}

	appointment.IsCompleted = true
	return true, nil
}

func (m *memStore) SetMode(ctx context.Context, id int64, mode domain.AppointmentMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	appointment, ok := m.appointments[id]
	if !ok {
		return domain.ErrNotFound
	}

	if appointment.Cancelled {
		return domain.ErrAppointmentCancelled
	}
	if !appointment.Payment {
		return domain.ErrPaymentRequired
	}

	appointment.AppointmentMode = &mode
	return nil
}

func (m *memStore) SetPaymentIntent(ctx context.Context, id int64, intentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	appointment, ok := m.appointments[id]
	if !ok {
		return domain.ErrNotFound
	}

	appointment.PaymentIntentID = &intentID
	return nil
}

func (m *memStore) RecordPayment(ctx context.Context, id int64, method domain.PaymentMethod, transactionID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	appointment, ok := m.appointments[id]
	if !ok {
		return false, domain.ErrNotFound
	}

	if appointment.Payment {
		if appointment.TransactionID != nil && *appointment.TransactionID == transactionID {
			return false, nil
		}
		return false, domain.ErrAlreadyPaid
	}

	now := time.Now()
	appointment.Payment = true
	appointment.PaymentMethod = &method
	appointment.PaymentDate = &now
	appointment.TransactionID = &transactionID

	return true, nil
}

func (m *memStore) DoctorStats(ctx context.Context, doctorID int64) (*domain.DoctorDashboard, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	dashboard := &domain.DoctorDashboard{}
	patients := make(map[int64]bool)
	for _, appointment := range m.appointments {
		if appointment.DoctorID != doctorID {
			continue
		}
		dashboard.Appointments++
		patients[appointment.PatientID] = true
		if appointment.IsCompleted || appointment.Payment {
			dashboard.Earning += appointment.Amount
		}
	}
	dashboard.Patients = len(patients)

	return dashboard, nil
}

func (m *memStore) IsFree(ctx context.Context, doctorID int64, slotDate, slotTime string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, taken := m.slots[slotKey(doctorID, slotDate, slotTime)]
	return !taken, nil
}

func (m *memStore) Release(ctx context.Context, appointmentID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for key, id := range m.slots {
		if id == appointmentID {
			delete(m.slots, key)
		}
	}
	return nil
}

func (m *memStore) BookedByDoctor(ctx context.Context, doctorID int64) (map[string][]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := make(map[string][]string)
	for _, appointment := range m.appointments {
		if appointment.DoctorID != doctorID {
			continue
		}
		if m.slots[slotKey(doctorID, appointment.SlotDate, appointment.SlotTime)] != appointment.ID {
			continue
		}
		result[appointment.SlotDate] = append(result[appointment.SlotDate], appointment.SlotTime)
	}

	return result, nil
}

func (m *memStore) BookedByDoctorAndDate(ctx context.Context, doctorID int64, slotDate string) ([]string, error) {
	booked, err := m.BookedByDoctor(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	return booked[slotDate], nil
}

type memUsers struct {
	seq   int64
	users map[int64]*domain.User
}

func (m *memUsers) Create(ctx context.Context, user domain.CreateUserDTO, passwordHash string) (int64, error) {
	for id := range m.users {
		if id > m.seq {
			m.seq = id
		}
	}
	m.seq++

	m.users[m.seq] = &domain.User{
		ID:           m.seq,
		FirstName:    user.FirstName,
		LastName:     user.LastName,
		Email:        user.Email,
		Phone:        user.Phone,
		PasswordHash: passwordHash,
		IsActive:     true,
	}

	return m.seq, nil
}

func (m *memUsers) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	user, ok := m.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return user, nil
}

func (m *memUsers) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	for _, user := range m.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memUsers) GetByPhone(ctx context.Context, phone string) (*domain.User, error) {
	return nil, domain.ErrNotFound
}

func (m *memUsers) Update(ctx context.Context, id int64, user domain.UpdateUserDTO) error {
	return nil
}

func (m *memUsers) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	user, ok := m.users[id]
	if !ok {
		return domain.ErrNotFound
	}
	user.PasswordHash = passwordHash
	return nil
}

func (m *memUsers) Count(ctx context.Context) (int, error) {
	return len(m.users), nil
}

type memDoctors struct {
	doctors map[int64]*domain.Doctor
}

func (m *memDoctors) Create(ctx context.Context, doctor domain.CreateDoctorDTO, passwordHash string) (int64, error) {
	return 0, nil
}

func (m *memDoctors) GetByID(ctx context.Context, id int64) (*domain.Doctor, error) {
	doctor, ok := m.doctors[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return doctor, nil
}

func (m *memDoctors) GetByEmail(ctx context.Context, email string) (*domain.Doctor, error) {
	for _, doctor := range m.doctors {
		if doctor.Email == email {
			return doctor, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memDoctors) Update(ctx context.Context, id int64, doctor domain.UpdateDoctorDTO) error {
	return nil
}

func (m *memDoctors) SetAvailability(ctx context.Context, id int64, available bool) error {
	doctor, ok := m.doctors[id]
	if !ok {
		return domain.ErrNotFound
	}
	doctor.Available = available
	return nil
}

func (m *memDoctors) List(ctx context.Context, filter domain.DoctorFilter) ([]domain.Doctor, error) {
	result := make([]domain.Doctor, 0, len(m.doctors))
	for _, doctor := range m.doctors {
		result = append(result, *doctor)
	}
	return result, nil
}

func (m *memDoctors) Count(ctx context.Context) (int, error) {
	return len(m.doctors), nil
}

type memSessions struct {
	mu       sync.Mutex
	sessions map[string]domain.Session
}

func newMemSessions() *memSessions {
	return &memSessions{sessions: make(map[string]domain.Session)}
}

func (m *memSessions) CreateSession(ctx context.Context, session domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[session.ID] = session
	return nil
}

func (m *memSessions) GetSessionByRefreshToken(ctx context.Context, refreshToken string) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, session := range m.sessions {
		if session.RefreshToken == refreshToken {
			copied := session
			return &copied, nil
		}
	}

	return nil, domain.ErrNotFound
}

func (m *memSessions) DeleteSession(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

func (m *memSessions) DeleteSessionsByAccount(ctx context.Context, accountID int64, role domain.UserRole) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, session := range m.sessions {
		if session.AccountID == accountID && session.Role == role {
			delete(m.sessions, id)
		}
	}

	return nil
}

type mailerStub struct {
	mu    sync.Mutex
	codes map[string]string
}

func newMailerStub() *mailerStub {
	return &mailerStub{codes: make(map[string]string)}
}

func (m *mailerStub) SendPasswordResetCode(ctx context.Context, email, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.codes[email] = code
	return nil
}

func (m *mailerStub) lastCode(email string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.codes[email]
}

type memEvents struct {
	mu        sync.Mutex
	processed map[string]bool
}

func newMemEvents() *memEvents {
	return &memEvents{processed: make(map[string]bool)}
}

func (m *memEvents) AlreadyProcessed(ctx context.Context, provider, eventID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.processed[provider+":"+eventID], nil
}

func (m *memEvents) MarkProcessed(ctx context.Context, provider, eventID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := provider + ":" + eventID
	if m.processed[key] {
		return false, nil
	}
	m.processed[key] = true
	return true, nil
}

type processorStub struct {
	createCalls int
	getCalls    int
	intent      *ProcessorIntent
	err         error
}

func (p *processorStub) CreateIntent(ctx context.Context, amountMinor int64, description string, metadata map[string]string) (*ProcessorIntent, error) {
	p.createCalls++
	if p.err != nil {
		return nil, p.err
	}
	return p.intent, nil
}

func (p *processorStub) GetIntent(ctx context.Context, id string) (*ProcessorIntent, error) {
	p.getCalls++
	if p.err != nil {
		return nil, p.err
	}
	return p.intent, nil
}
