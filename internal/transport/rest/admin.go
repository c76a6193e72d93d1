package rest

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// @Summary Панель администратора
// @Description Возвращает количество врачей, пациентов и записей, последние записи
// @Tags Администрирование
// @Accept json
// @Produce json
// @Success 200 {object} domain.AdminDashboard "Сводная статистика"
// @Failure 401 {object} errorResponseBody "Не авторизован"
// @Failure 403 {object} errorResponseBody "Доступ запрещен"
// @Security ApiKeyAuth
// @Router /admin/dashboard [get]
func (h *Handler) getAdminDashboard(c *gin.Context) {
	dashboard, err := h.services.Admin.Dashboard(c.Request.Context())
	if err != nil {
		h.logger.Error("ошибка получения статистики", zap.Error(err))
		internalServerErrorResponse(c)
		return
	}

	successResponse(c, http.StatusOK, dashboard)
}

// @Summary Все записи
// @Description Возвращает все записи на прием с пагинацией
// @Tags Администрирование
// @Accept json
// @Produce json
// @Param limit query int false "Лимит" default(20)
// @Param offset query int false "Смещение" default(0)
// @Success 200 {object} paginatedResponse "Список записей"
// @Failure 401 {object} errorResponseBody "Не авторизован"
// @Failure 403 {object} errorResponseBody "Доступ запрещен"
// @Security ApiKeyAuth
// @Router /admin/appointments [get]
func (h *Handler) getAdminAppointments(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		unauthorizedResponse(c)
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit <= 0 {
		limit = 20
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}

	appointments, total, err := h.services.Appointment.List(c.Request.Context(), actor, limit, offset)
	if err != nil {
		h.logger.Error("ошибка получения записей", zap.Error(err))
		internalServerErrorResponse(c)
		return
	}

	page := offset/limit + 1

	paginatedSuccessResponse(c, appointments, total, page, limit)
}
