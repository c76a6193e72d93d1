package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"medbook/internal/domain"
)

type Repositories struct {
	User         UserRepository
	Doctor       DoctorRepository
	Slot         SlotRepository
	Appointment  AppointmentRepository
	Auth         AuthRepository
	PaymentEvent PaymentEventRepository
}

func NewRepositories(db *pgxpool.Pool) *Repositories {
	return &Repositories{
		User:         NewUserRepository(db),
		Doctor:       NewDoctorRepository(db),
		Slot:         NewSlotRepository(db),
		Appointment:  NewAppointmentRepository(db),
		Auth:         NewAuthRepository(db),
		PaymentEvent: NewPaymentEventRepository(db),
	}
}

type UserRepository interface {
	Create(ctx context.Context, user domain.CreateUserDTO, passwordHash string) (int64, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByPhone(ctx context.Context, phone string) (*domain.User, error)
	Update(ctx context.Context, id int64, user domain.UpdateUserDTO) error
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	Count(ctx context.Context) (int, error)
}

type DoctorRepository interface {
	Create(ctx context.Context, doctor domain.CreateDoctorDTO, passwordHash string) (int64, error)
	GetByID(ctx context.Context, id int64) (*domain.Doctor, error)
	GetByEmail(ctx context.Context, email string) (*domain.Doctor, error)
	Update(ctx context.Context, id int64, doctor domain.UpdateDoctorDTO) error
	SetAvailability(ctx context.Context, id int64, available bool) error
	List(ctx context.Context, filter domain.DoctorFilter) ([]domain.Doctor, error)
	Count(ctx context.Context) (int, error)
}

// SlotRepository — реестр занятых слотов. Резервирование выполняется
// не здесь, а внутри транзакции AppointmentRepository.Create: уникальный
// индекс (doctor_id, slot_date, slot_time) служит условной проверкой.
type SlotRepository interface {
	IsFree(ctx context.Context, doctorID int64, slotDate, slotTime string) (bool, error)
	Release(ctx context.Context, appointmentID int64) error
	BookedByDoctor(ctx context.Context, doctorID int64) (map[string][]string, error)
	BookedByDoctorAndDate(ctx context.Context, doctorID int64, slotDate string) ([]string, error)
}

type AppointmentRepository interface {
	Create(ctx context.Context, appointment domain.Appointment) (int64, error)
	GetByID(ctx context.Context, id int64) (*domain.Appointment, error)
	GetByPaymentIntentID(ctx context.Context, intentID string) (*domain.Appointment, error)
	List(ctx context.Context, filter domain.AppointmentFilter) ([]domain.Appointment, error)
	CountByFilter(ctx context.Context, filter domain.AppointmentFilter) (int, error)

	SetCancelled(ctx context.Context, id int64) (bool, error)
	SetCompleted(ctx context.Context, id int64) (bool, error)
	SetMode(ctx context.Context, id int64, mode domain.AppointmentMode) error
	SetPaymentIntent(ctx context.Context, id int64, intentID string) error
	RecordPayment(ctx context.Context, id int64, method domain.PaymentMethod, transactionID string) (bool, error)

	DoctorStats(ctx context.Context, doctorID int64) (*domain.DoctorDashboard, error)
}

type AuthRepository interface {
	CreateSession(ctx context.Context, session domain.Session) error
	GetSessionByRefreshToken(ctx context.Context, refreshToken string) (*domain.Session, error)
	DeleteSession(ctx context.Context, id string) error
	DeleteSessionsByAccount(ctx context.Context, accountID int64, role domain.UserRole) error
}

// PaymentEventRepository отслеживает обработанные события платежного
// провайдера: провайдеры штатно доставляют события повторно.
type PaymentEventRepository interface {
	AlreadyProcessed(ctx context.Context, provider, eventID string) (bool, error)
	MarkProcessed(ctx context.Context, provider, eventID string) (bool, error)
}
