package service

import (
	"context"

	"go.uber.org/zap"

	"medbook/config"
	"medbook/internal/domain"
	"medbook/internal/mail"
	"medbook/internal/otp"
	"medbook/internal/repository"
)

type Deps struct {
	Repos     *repository.Repositories
	Logger    *zap.Logger
	Config    *config.Config
	OTPStore  *otp.Store
	Mailer    mail.Sender
	Processor PaymentProcessor
}

type Services struct {
	Auth        AuthService
	User        UserService
	Doctor      DoctorService
	Appointment AppointmentService
	Payment     PaymentService
	Admin       AdminService
}

func NewServices(deps Deps) *Services {
	appointment := NewAppointmentService(deps.Repos.Appointment, deps.Repos.Slot, deps.Repos.Doctor, deps.Repos.User, deps.Logger)

	return &Services{
		Auth:        NewAuthService(deps.Repos.Auth, deps.Repos.User, deps.Repos.Doctor, deps.OTPStore, deps.Mailer, deps.Config.JWT, deps.Config.Admin, deps.Logger),
		User:        NewUserService(deps.Repos.User, deps.Logger),
		Doctor:      NewDoctorService(deps.Repos.Doctor, deps.Repos.Slot, deps.Repos.Appointment, deps.Logger),
		Appointment: appointment,
		Payment:     NewPaymentService(deps.Repos.Appointment, deps.Repos.PaymentEvent, appointment, deps.Processor, deps.Config.Stripe, deps.Logger),
		Admin:       NewAdminService(deps.Repos.User, deps.Repos.Doctor, deps.Repos.Appointment, deps.Logger),
	}
}

// PaymentProcessor — исходящая граница к платежному провайдеру.
type PaymentProcessor interface {
	CreateIntent(ctx context.Context, amountMinor int64, description string, metadata map[string]string) (*ProcessorIntent, error)
	GetIntent(ctx context.Context, id string) (*ProcessorIntent, error)
}

// ProcessorIntent дублирует форму payment.Intent, не привязывая
// сервисный слой к конкретному клиенту провайдера.
type ProcessorIntent struct {
	ID           string
	ClientSecret string
	Status       string
	Metadata     map[string]string
}

type AuthService interface {
	RegisterPatient(ctx context.Context, dto domain.RegisterRequest) (int64, error)
	Login(ctx context.Context, dto domain.LoginRequest, role domain.UserRole, userAgent, ip string) (*domain.Tokens, error)
	RefreshTokens(ctx context.Context, refreshToken, userAgent, ip string) (*domain.Tokens, error)
	Logout(ctx context.Context, refreshToken string) error
	ParseToken(ctx context.Context, token string) (int64, domain.UserRole, error)

	ForgotPassword(ctx context.Context, email string) error
	VerifyOTP(ctx context.Context, email, code string) (string, error)
	ResetPassword(ctx context.Context, resetToken, newPassword string) error
}

type UserService interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	Update(ctx context.Context, id int64, dto domain.UpdateUserDTO) error
	UpdatePassword(ctx context.Context, id int64, dto domain.PasswordUpdateDTO) error
}

type DoctorService interface {
	Create(ctx context.Context, dto domain.CreateDoctorDTO) (int64, error)
	GetByID(ctx context.Context, id int64) (*domain.Doctor, error)
	List(ctx context.Context, filter domain.DoctorFilter) ([]domain.Doctor, error)
	Update(ctx context.Context, id int64, dto domain.UpdateDoctorDTO) error
	SetAvailability(ctx context.Context, id int64, available bool) error
	BookedSlots(ctx context.Context, doctorID int64, slotDate string) ([]string, error)
	Dashboard(ctx context.Context, doctorID int64) (*domain.DoctorDashboard, error)
}

type AppointmentService interface {
	Book(ctx context.Context, patientID int64, dto domain.CreateAppointmentDTO) (int64, error)
	GetByID(ctx context.Context, id int64, actor domain.Actor) (*domain.Appointment, error)
	List(ctx context.Context, actor domain.Actor, limit, offset int) ([]domain.Appointment, int, error)
	Cancel(ctx context.Context, id int64, actor domain.Actor) error
	Complete(ctx context.Context, id int64, actor domain.Actor) error
	SetMode(ctx context.Context, id int64, mode domain.AppointmentMode, actor domain.Actor) error
	RecordPayment(ctx context.Context, id int64, method domain.PaymentMethod, transactionID string) error
}

type PaymentService interface {
	CreateIntent(ctx context.Context, appointmentID, patientID int64) (*domain.PaymentIntentResponse, error)
	Confirm(ctx context.Context, dto domain.ConfirmPaymentDTO, patientID int64) error
	HandleWebhook(ctx context.Context, payload []byte, sigHeader string) error
	Status(ctx context.Context, appointmentID, patientID int64) (*domain.PaymentStatus, error)
}

type AdminService interface {
	Dashboard(ctx context.Context) (*domain.AdminDashboard, error)
}
