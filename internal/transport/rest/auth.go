package rest

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"medbook/internal/domain"
	"medbook/internal/otp"
)

// @Summary Регистрация нового пациента
// @Description Регистрирует нового пациента в системе
// @Tags Авторизация
// @Accept json
// @Produce json
// @Param input body domain.RegisterRequest true "Данные для регистрации"
// @Success 201 {object} map[string]interface{} "ID созданного пациента"
// @Failure 400 {object} errorResponseBody "Ошибка валидации"
// @Failure 500 {object} errorResponseBody "Внутренняя ошибка сервера"
// @Router /auth/register [post]
func (h *Handler) register(c *gin.Context) {
	var input domain.RegisterRequest

	if err := c.ShouldBindJSON(&input); err != nil {
		h.logger.Warn("неверный формат данных", zap.Error(err))
		badRequestResponse(c, "неверный формат данных")
		return
	}

	id, err := h.services.Auth.RegisterPatient(c.Request.Context(), input)
	if err != nil {
		h.logger.Error("ошибка при регистрации", zap.Error(err))
		badRequestResponse(c, err.Error())
		return
	}

	createdResponse(c, map[string]interface{}{
		"id": id,
	})
}

// @Summary Вход пациента
// @Description Авторизует пациента и возвращает токены доступа
// @Tags Авторизация
// @Accept json
// @Produce json
// @Param input body domain.LoginRequest true "Данные для входа"
// @Success 200 {object} domain.Tokens "Токены доступа и обновления"
// @Failure 400 {object} errorResponseBody "Ошибка валидации"
// @Failure 401 {object} errorResponseBody "Неверные учетные данные"
// @Router /auth/login [post]
func (h *Handler) login(c *gin.Context) {
	h.loginWithRole(c, domain.UserRolePatient)
}

// @Summary Вход врача
// @Description Авторизует врача и возвращает токены доступа
// @Tags Авторизация
// @Accept json
// @Produce json
// @Param input body domain.LoginRequest true "Данные для входа"
// @Success 200 {object} domain.Tokens "Токены доступа и обновления"
// @Failure 400 {object} errorResponseBody "Ошибка валидации"
// @Failure 401 {object} errorResponseBody "Неверные учетные данные"
// @Router /auth/doctor-login [post]
func (h *Handler) doctorLogin(c *gin.Context) {
	h.loginWithRole(c, domain.UserRoleDoctor)
}

// @Summary Вход администратора
// @Description Авторизует администратора и возвращает токены доступа
// @Tags Авторизация
// @Accept json
// @Produce json
// @Param input body domain.LoginRequest true "Данные для входа"
// @Success 200 {object} domain.Tokens "Токены доступа и обновления"
// @Failure 400 {object} errorResponseBody "Ошибка валидации"
// @Failure 401 {object} errorResponseBody "Неверные учетные данные"
// @Router /auth/admin-login [post]
func (h *Handler) adminLogin(c *gin.Context) {
	h.loginWithRole(c, domain.UserRoleAdmin)
}

func (h *Handler) loginWithRole(c *gin.Context, role domain.UserRole) {
	var input domain.LoginRequest

	if err := c.ShouldBindJSON(&input); err != nil {
		h.logger.Warn("неверный формат данных", zap.Error(err))
		badRequestResponse(c, "неверный формат данных")
		return
	}

	userAgent := c.Request.UserAgent()
	ip := c.ClientIP()

	tokens, err := h.services.Auth.Login(c.Request.Context(), input, role, userAgent, ip)
	if err != nil {
		h.logger.Warn("ошибка при входе", zap.String("role", string(role)), zap.Error(err))
		errorResponse(c, http.StatusUnauthorized, err.Error())
		return
	}

	successResponse(c, http.StatusOK, tokens)
}

// @Summary Обновление токена
// @Description Обновляет токены доступа и обновления
// @Tags Авторизация
// @Accept json
// @Produce json
// @Param input body domain.RefreshTokenRequest true "Токен обновления"
// @Success 200 {object} domain.Tokens "Новые токены доступа и обновления"
// @Failure 400 {object} errorResponseBody "Ошибка валидации"
// @Failure 401 {object} errorResponseBody "Неверный токен обновления"
// @Router /auth/refresh [post]
func (h *Handler) refreshTokens(c *gin.Context) {
	var input domain.RefreshTokenRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		h.logger.Warn("неверный формат данных", zap.Error(err))
		badRequestResponse(c, "неверный формат данных")
		return
	}

	userAgent := c.Request.UserAgent()
	ip := c.ClientIP()

	tokens, err := h.services.Auth.RefreshTokens(c.Request.Context(), input.RefreshToken, userAgent, ip)
	if err != nil {
		h.logger.Warn("ошибка при обновлении токенов", zap.Error(err))
		errorResponse(c, http.StatusUnauthorized, err.Error())
		return
	}

	successResponse(c, http.StatusOK, tokens)
}

// @Summary Выход из системы
// @Description Завершает сессию и инвалидирует refresh token
// @Tags Авторизация
// @Accept json
// @Produce json
// @Param input body domain.RefreshTokenRequest true "Токен обновления"
// @Success 200 {object} messageResponseType "Сообщение об успешном выходе"
// @Failure 400 {object} errorResponseBody "Ошибка валидации"
// @Router /auth/logout [post]
func (h *Handler) logout(c *gin.Context) {
	var input domain.RefreshTokenRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		h.logger.Warn("неверный формат данных", zap.Error(err))
		badRequestResponse(c, "неверный формат данных")
		return
	}

	if err := h.services.Auth.Logout(c.Request.Context(), input.RefreshToken); err != nil {
		h.logger.Error("ошибка при выходе", zap.Error(err))
		internalServerErrorResponse(c)
		return
	}

	messageResponse(c, http.StatusOK, "выход выполнен")
}

// @Summary Запрос кода восстановления пароля
// @Description Отправляет одноразовый код на email пациента
// @Tags Авторизация
// @Accept json
// @Produce json
// @Param input body domain.ForgotPasswordRequest true "Email пациента"
// @Success 200 {object} messageResponseType "Код отправлен"
// @Failure 400 {object} errorResponseBody "Ошибка валидации"
// @Failure 502 {object} errorResponseBody "Почтовый сервис недоступен"
// @Router /auth/forgot-password [post]
func (h *Handler) forgotPassword(c *gin.Context) {
	var input domain.ForgotPasswordRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		h.logger.Warn("неверный формат данных", zap.Error(err))
		badRequestResponse(c, "неверный формат данных")
		return
	}

	err := h.services.Auth.ForgotPassword(c.Request.Context(), input.Email)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		h.logger.Error("ошибка при запросе кода", zap.Error(err))
		serviceErrorResponse(c, err)
		return
	}

	// Для несуществующего email отвечаем так же, чтобы не раскрывать
	// наличие аккаунта.
	messageResponse(c, http.StatusOK, "если аккаунт существует, код отправлен на email")
}

// @Summary Проверка кода восстановления
// @Description Проверяет одноразовый код и выдает токен сброса пароля
// @Tags Авторизация
// @Accept json
// @Produce json
// @Param input body domain.VerifyOTPRequest true "Email и код"
// @Success 200 {object} map[string]interface{} "Токен сброса пароля"
// @Failure 400 {object} errorResponseBody "Неверный или истекший код"
// @Router /auth/verify-otp [post]
func (h *Handler) verifyOTP(c *gin.Context) {
	var input domain.VerifyOTPRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		h.logger.Warn("неверный формат данных", zap.Error(err))
		badRequestResponse(c, "неверный формат данных")
		return
	}

	resetToken, err := h.services.Auth.VerifyOTP(c.Request.Context(), input.Email, input.Code)
	if err != nil {
		switch {
		case errors.Is(err, otp.ErrCodeExpired), errors.Is(err, otp.ErrCodeMismatch), errors.Is(err, otp.ErrTooManyAttempts):
			badRequestResponse(c, err.Error())
		default:
			h.logger.Error("ошибка при проверке кода", zap.Error(err))
			internalServerErrorResponse(c)
		}
		return
	}

	successResponse(c, http.StatusOK, map[string]interface{}{
		"reset_token": resetToken,
	})
}

// @Summary Сброс пароля
// @Description Устанавливает новый пароль по токену сброса
// @Tags Авторизация
// @Accept json
// @Produce json
// @Param input body domain.ResetPasswordRequest true "Токен сброса и новый пароль"
// @Success 200 {object} messageResponseType "Пароль изменен"
// @Failure 400 {object} errorResponseBody "Недействительный токен сброса"
// @Router /auth/reset-password [post]
func (h *Handler) resetPassword(c *gin.Context) {
	var input domain.ResetPasswordRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		h.logger.Warn("неверный формат данных", zap.Error(err))
		badRequestResponse(c, "неверный формат данных")
		return
	}

	if err := h.services.Auth.ResetPassword(c.Request.Context(), input.ResetToken, input.NewPassword); err != nil {
		h.logger.Warn("ошибка при сбросе пароля", zap.Error(err))
		serviceErrorResponse(c, err)
		return
	}

	messageResponse(c, http.StatusOK, "пароль успешно изменен")
}
