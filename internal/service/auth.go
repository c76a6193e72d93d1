package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"medbook/config"
	"medbook/internal/domain"
	"medbook/internal/mail"
	"medbook/internal/otp"
	"medbook/internal/repository"
	"medbook/pkg/validator"
)

const resetTokenPurpose = "password_reset"

type tokenClaims struct {
	jwt.RegisteredClaims
	AccountID int64           `json:"account_id"`
	Role      domain.UserRole `json:"role"`
}

type resetTokenClaims struct {
	jwt.RegisteredClaims
	Email   string `json:"email"`
	Purpose string `json:"purpose"`
}

type AuthServiceImpl struct {
	authRepo   repository.AuthRepository
	userRepo   repository.UserRepository
	doctorRepo repository.DoctorRepository
	otpStore   *otp.Store
	mailer     mail.Sender
	jwtConfig  config.JWTConfig
	adminCfg   config.AdminConfig
	logger     *zap.Logger
}

func NewAuthService(
	authRepo repository.AuthRepository,
	userRepo repository.UserRepository,
	doctorRepo repository.DoctorRepository,
	otpStore *otp.Store,
	mailer mail.Sender,
	jwtConfig config.JWTConfig,
	adminCfg config.AdminConfig,
	logger *zap.Logger,
) *AuthServiceImpl {
	return &AuthServiceImpl{
		authRepo:   authRepo,
		userRepo:   userRepo,
		doctorRepo: doctorRepo,
		otpStore:   otpStore,
		mailer:     mailer,
		jwtConfig:  jwtConfig,
		adminCfg:   adminCfg,
		logger:     logger,
	}
}

func (s *AuthServiceImpl) RegisterPatient(ctx context.Context, dto domain.RegisterRequest) (int64, error) {
	if !validator.ValidateEmail(dto.Email) {
		return 0, errors.New("некорректный email")
	}
	if !validator.ValidatePhone(dto.Phone) {
		return 0, errors.New("некорректный номер телефона")
	}

	if existing, err := s.userRepo.GetByEmail(ctx, dto.Email); err == nil && existing != nil {
		return 0, errors.New("пользователь с таким email уже существует")
	}
	if existing, err := s.userRepo.GetByPhone(ctx, validator.FormatPhone(dto.Phone)); err == nil && existing != nil {
		return 0, errors.New("пользователь с таким телефоном уже существует")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(dto.Password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("ошибка при хешировании пароля", zap.Error(err))
		return 0, errors.New("ошибка при регистрации пользователя")
	}

	createDTO := domain.CreateUserDTO{
		FirstName: validator.FormatName(dto.FirstName),
		LastName:  validator.FormatName(dto.LastName),
		Email:     dto.Email,
		Phone:     validator.FormatPhone(dto.Phone),
	}

	userID, err := s.userRepo.Create(ctx, createDTO, string(hashedPassword))
	if err != nil {
		s.logger.Error("ошибка при создании пользователя", zap.Error(err))
		return 0, errors.New("ошибка при регистрации пользователя")
	}

	return userID, nil
}

func (s *AuthServiceImpl) Login(ctx context.Context, dto domain.LoginRequest, role domain.UserRole, userAgent, ip string) (*domain.Tokens, error) {
	var accountID int64

	switch role {
	case domain.UserRolePatient:
		user, err := s.userRepo.GetByEmail(ctx, dto.Email)
		if err != nil {
			return nil, errors.New("неверный логин или пароль")
		}
		if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(dto.Password)) != nil {
			return nil, errors.New("неверный логин или пароль")
		}
		if !user.IsActive {
			return nil, errors.New("аккаунт деактивирован")
		}
		accountID = user.ID

	case domain.UserRoleDoctor:
		doctor, err := s.doctorRepo.GetByEmail(ctx, dto.Email)
		if err != nil {
			return nil, errors.New("неверный логин или пароль")
		}
		if bcrypt.CompareHashAndPassword([]byte(doctor.PasswordHash), []byte(dto.Password)) != nil {
			return nil, errors.New("неверный логин или пароль")
		}
		accountID = doctor.ID

	case domain.UserRoleAdmin:
		if s.adminCfg.Password == "" {
			return nil, errors.New("вход администратора не настроен")
		}
		emailOK := subtle.ConstantTimeCompare([]byte(dto.Email), []byte(s.adminCfg.Email)) == 1
		passwordOK := subtle.ConstantTimeCompare([]byte(dto.Password), []byte(s.adminCfg.Password)) == 1
		if !emailOK || !passwordOK {
			return nil, errors.New("неверный логин или пароль")
		}
		accountID = 0

	default:
		return nil, domain.ErrUnauthorized
	}

	tokens, err := s.generateTokens(accountID, role)
	if err != nil {
		s.logger.Error("ошибка генерации токенов", zap.Error(err))
		return nil, errors.New("ошибка при аутентификации")
	}

	session := domain.Session{
		ID:           uuid.New().String(),
		AccountID:    accountID,
		Role:         role,
		RefreshToken: tokens.RefreshToken,
		UserAgent:    userAgent,
		IP:           ip,
		ExpiresAt:    time.Now().Add(s.jwtConfig.RefreshTokenTTL),
		CreatedAt:    time.Now(),
	}

	if err := s.authRepo.CreateSession(ctx, session); err != nil {
		s.logger.Error("ошибка сохранения сессии", zap.Error(err))
		return nil, errors.New("ошибка при аутентификации")
	}

	return tokens, nil
}

func (s *AuthServiceImpl) RefreshTokens(ctx context.Context, refreshToken, userAgent, ip string) (*domain.Tokens, error) {
	session, err := s.authRepo.GetSessionByRefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, errors.New("недействительный refresh token")
	}

	if session.ExpiresAt.Before(time.Now()) {
		s.authRepo.DeleteSession(ctx, session.ID)
		return nil, errors.New("refresh token истек")
	}

	tokens, err := s.generateTokens(session.AccountID, session.Role)
	if err != nil {
		s.logger.Error("ошибка генерации токенов", zap.Error(err))
		return nil, errors.New("ошибка обновления токенов")
	}

	if err := s.authRepo.DeleteSession(ctx, session.ID); err != nil {
		s.logger.Warn("не удалось удалить старую сессию", zap.Error(err))
	}

	newSession := domain.Session{
		ID:           uuid.New().String(),
		AccountID:    session.AccountID,
		Role:         session.Role,
		RefreshToken: tokens.RefreshToken,
		UserAgent:    userAgent,
		IP:           ip,
		ExpiresAt:    time.Now().Add(s.jwtConfig.RefreshTokenTTL),
		CreatedAt:    time.Now(),
	}

	if err := s.authRepo.CreateSession(ctx, newSession); err != nil {
		s.logger.Error("ошибка сохранения сессии", zap.Error(err))
		return nil, errors.New("ошибка обновления токенов")
	}

	return tokens, nil
}

func (s *AuthServiceImpl) Logout(ctx context.Context, refreshToken string) error {
	session, err := s.authRepo.GetSessionByRefreshToken(ctx, refreshToken)
	if err != nil {
		return nil
	}

	return s.authRepo.DeleteSession(ctx, session.ID)
}

func (s *AuthServiceImpl) ParseToken(ctx context.Context, tokenString string) (int64, domain.UserRole, error) {
	token, err := jwt.ParseWithClaims(tokenString, &tokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("неверный метод подписи токена")
		}
		return []byte(s.jwtConfig.SigningKey), nil
	})
	if err != nil {
		return 0, "", errors.New("недействительный токен")
	}

	claims, ok := token.Claims.(*tokenClaims)
	if !ok || !token.Valid {
		return 0, "", errors.New("недействительный токен")
	}

	return claims.AccountID, claims.Role, nil
}

// ForgotPassword выдает одноразовый код: 5 минут жизни, 3 попытки.
func (s *AuthServiceImpl) ForgotPassword(ctx context.Context, email string) error {
	if _, err := s.userRepo.GetByEmail(ctx, email); err != nil {
		return err
	}

	code, err := otp.GenerateCode()
	if err != nil {
		s.logger.Error("ошибка генерации кода", zap.Error(err))
		return errors.New("ошибка при выдаче кода")
	}

	if err := s.otpStore.Put(ctx, email, code); err != nil {
		s.logger.Error("ошибка сохранения кода", zap.Error(err))
		return errors.New("ошибка при выдаче кода")
	}

	if err := s.mailer.SendPasswordResetCode(ctx, email, code); err != nil {
		s.logger.Error("ошибка отправки кода", zap.String("email", email), zap.Error(err))
		return domain.ErrUpstreamUnavailable
	}

	return nil
}

// VerifyOTP проверяет код и выдает короткоживущий токен сброса пароля.
func (s *AuthServiceImpl) VerifyOTP(ctx context.Context, email, code string) (string, error) {
	if err := s.otpStore.Verify(ctx, email, code); err != nil {
		return "", err
	}

	claims := resetTokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.jwtConfig.ResetTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		Email:   email,
		Purpose: resetTokenPurpose,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.jwtConfig.SigningKey))
	if err != nil {
		s.logger.Error("ошибка подписи токена сброса", zap.Error(err))
		return "", errors.New("ошибка при проверке кода")
	}

	return signed, nil
}

func (s *AuthServiceImpl) ResetPassword(ctx context.Context, resetToken, newPassword string) error {
	token, err := jwt.ParseWithClaims(resetToken, &resetTokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("неверный метод подписи токена")
		}
		return []byte(s.jwtConfig.SigningKey), nil
	})
	if err != nil {
		return errors.New("недействительный токен сброса")
	}

	claims, ok := token.Claims.(*resetTokenClaims)
	if !ok || !token.Valid || claims.Purpose != resetTokenPurpose {
		return errors.New("недействительный токен сброса")
	}

	user, err := s.userRepo.GetByEmail(ctx, claims.Email)
	if err != nil {
		return err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("ошибка при хешировании пароля", zap.Error(err))
		return errors.New("ошибка при смене пароля")
	}

	if err := s.userRepo.UpdatePassword(ctx, user.ID, string(hashedPassword)); err != nil {
		return err
	}

	// Смена пароля закрывает все активные сессии.
	if err := s.authRepo.DeleteSessionsByAccount(ctx, user.ID, domain.UserRolePatient); err != nil {
		s.logger.Warn("не удалось закрыть сессии пользователя", zap.Error(err))
	}

	return nil
}

func (s *AuthServiceImpl) generateTokens(accountID int64, role domain.UserRole) (*domain.Tokens, error) {
	claims := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.jwtConfig.AccessTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		AccountID: accountID,
		Role:      role,
	}

	accessToken := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedAccess, err := accessToken.SignedString([]byte(s.jwtConfig.SigningKey))
	if err != nil {
		return nil, err
	}

	refreshToken := uuid.New().String()

	return &domain.Tokens{
		AccessToken:  signedAccess,
		RefreshToken: refreshToken,
	}, nil
}
