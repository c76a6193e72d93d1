package rest

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"medbook/internal/domain"
)

const stripeSignatureHeader = "Stripe-Signature"

// @Summary Создать платежное намерение
// @Description Создает payment intent у провайдера для оплаты записи
// @Tags Платежи
// @Accept json
// @Produce json
// @Param input body domain.CreatePaymentIntentDTO true "ID записи"
// @Success 200 {object} domain.PaymentIntentResponse "Секрет клиента и сумма"
// @Failure 400 {object} errorResponseBody "Ошибка валидации"
// @Failure 401 {object} errorResponseBody "Не авторизован"
// @Failure 403 {object} errorResponseBody "Запись принадлежит другому пациенту"
// @Failure 409 {object} errorResponseBody "Запись уже оплачена или отменена"
// @Failure 502 {object} errorResponseBody "Платежный провайдер недоступен"
// @Security ApiKeyAuth
// @Router /payments/intent [post]
func (h *Handler) createPaymentIntent(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		unauthorizedResponse(c)
		return
	}

	var input domain.CreatePaymentIntentDTO
	if err := c.ShouldBindJSON(&input); err != nil {
		h.logger.Warn("неверный формат данных", zap.Error(err))
		badRequestResponse(c, "неверный формат данных")
		return
	}

	intent, err := h.services.Payment.CreateIntent(c.Request.Context(), input.AppointmentID, userID)
	if err != nil {
		h.logger.Warn("ошибка создания платежного намерения",
			zap.Int64("appointment_id", input.AppointmentID),
			zap.Error(err),
		)
		serviceErrorResponse(c, err)
		return
	}

	successResponse(c, http.StatusOK, intent)
}

// @Summary Подтвердить оплату
// @Description Проверяет статус платежа у провайдера и отмечает запись оплаченной
// @Tags Платежи
// @Accept json
// @Produce json
// @Param input body domain.ConfirmPaymentDTO true "ID намерения и записи"
// @Success 200 {object} messageResponseType "Оплата подтверждена"
// @Failure 400 {object} errorResponseBody "Ошибка валидации"
// @Failure 401 {object} errorResponseBody "Не авторизован"
// @Failure 409 {object} errorResponseBody "Платеж не завершен или запись уже оплачена"
// @Failure 502 {object} errorResponseBody "Платежный провайдер недоступен"
// @Security ApiKeyAuth
// @Router /payments/confirm [post]
func (h *Handler) confirmPayment(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		unauthorizedResponse(c)
		return
	}

	var input domain.ConfirmPaymentDTO
	if err := c.ShouldBindJSON(&input); err != nil {
		h.logger.Warn("неверный формат данных", zap.Error(err))
		badRequestResponse(c, "неверный формат данных")
		return
	}

	if err := h.services.Payment.Confirm(c.Request.Context(), input, userID); err != nil {
		h.logger.Warn("ошибка подтверждения оплаты",
			zap.Int64("appointment_id", input.AppointmentID),
			zap.Error(err),
		)
		serviceErrorResponse(c, err)
		return
	}

	messageResponse(c, http.StatusOK, "оплата подтверждена")
}

// @Summary Статус оплаты записи
// @Tags Платежи
// @Accept json
// @Produce json
// @Param id path int true "ID записи"
// @Success 200 {object} domain.PaymentStatus "Статус оплаты"
// @Failure 400 {object} errorResponseBody "Неверный формат ID"
// @Failure 401 {object} errorResponseBody "Не авторизован"
// @Failure 403 {object} errorResponseBody "Запись принадлежит другому пациенту"
// @Failure 404 {object} errorResponseBody "Запись не найдена"
// @Security ApiKeyAuth
// @Router /payments/status/{id} [get]
func (h *Handler) getPaymentStatus(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		unauthorizedResponse(c)
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		badRequestResponse(c, "неверный формат ID")
		return
	}

	status, err := h.services.Payment.Status(c.Request.Context(), id, userID)
	if err != nil {
		h.logger.Warn("ошибка получения статуса оплаты", zap.Int64("id", id), zap.Error(err))
		serviceErrorResponse(c, err)
		return
	}

	successResponse(c, http.StatusOK, status)
}

// @Summary Вебхук платежного провайдера
// @Description Принимает события провайдера, подлинность проверяется по подписи
// @Tags Платежи
// @Accept json
// @Produce json
// @Param Stripe-Signature header string true "Подпись события"
// @Success 200 {object} map[string]interface{} "Событие принято"
// @Failure 400 {object} errorResponseBody "Неверная подпись"
// @Failure 500 {object} errorResponseBody "Ошибка обработки события"
// @Router /payments/webhook [post]
func (h *Handler) paymentWebhook(c *gin.Context) {
	payload, err := c.GetRawData()
	if err != nil {
		h.logger.Warn("ошибка чтения тела вебхука", zap.Error(err))
		badRequestResponse(c, "ошибка чтения тела запроса")
		return
	}

	sigHeader := c.GetHeader(stripeSignatureHeader)

	if err := h.services.Payment.HandleWebhook(c.Request.Context(), payload, sigHeader); err != nil {
		if errors.Is(err, domain.ErrInvalidSignature) {
			h.logger.Warn("вебхук с неверной подписью", zap.Error(err))
			badRequestResponse(c, err.Error())
			return
		}
		// 5xx заставляет провайдера повторить доставку события.
		h.logger.Error("ошибка обработки вебхука", zap.Error(err))
		internalServerErrorResponse(c)
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}
