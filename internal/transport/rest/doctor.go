package rest

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"medbook/internal/domain"
)

type changeAvailabilityInput struct {
	DoctorID  *int64 `json:"doctor_id"`
	Available bool   `json:"available"`
}

// @Summary Список врачей
// @Description Возвращает список врачей с фильтрацией по специальности и доступности
// @Tags Врачи
// @Accept json
// @Produce json
// @Param speciality query string false "Специальность"
// @Param available query bool false "Только доступные"
// @Param limit query int false "Лимит" default(20)
// @Param offset query int false "Смещение" default(0)
// @Success 200 {array} domain.Doctor "Список врачей"
// @Failure 500 {object} errorResponseBody "Внутренняя ошибка сервера"
// @Router /doctors [get]
func (h *Handler) getDoctors(c *gin.Context) {
	filter := domain.DoctorFilter{}

	if speciality := c.Query("speciality"); speciality != "" {
		filter.Speciality = &speciality
	}
	if availableStr := c.Query("available"); availableStr != "" {
		available, err := strconv.ParseBool(availableStr)
		if err == nil {
			filter.Available = &available
		}
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit <= 0 {
		limit = 20
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}
	filter.Limit = limit
	filter.Offset = offset

	doctors, err := h.services.Doctor.List(c.Request.Context(), filter)
	if err != nil {
		h.logger.Error("ошибка получения списка врачей", zap.Error(err))
		internalServerErrorResponse(c)
		return
	}

	successResponse(c, http.StatusOK, doctors)
}

// @Summary Получить врача по ID
// @Description Возвращает данные врача вместе с картой занятых слотов
// @Tags Врачи
// @Accept json
// @Produce json
// @Param id path int true "ID врача"
// @Success 200 {object} domain.Doctor "Данные врача"
// @Failure 400 {object} errorResponseBody "Неверный формат ID"
// @Failure 404 {object} errorResponseBody "Врач не найден"
// @Router /doctors/{id} [get]
func (h *Handler) getDoctorByID(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		badRequestResponse(c, "неверный формат ID")
		return
	}

	doctor, err := h.services.Doctor.GetByID(c.Request.Context(), id)
	if err != nil {
		h.logger.Warn("ошибка получения врача", zap.Int64("id", id), zap.Error(err))
		serviceErrorResponse(c, err)
		return
	}

	successResponse(c, http.StatusOK, doctor)
}

// @Summary Занятые слоты врача на дату
// @Description Возвращает занятые времена врача на указанную дату в формате D_M_YYYY
// @Tags Врачи
// @Accept json
// @Produce json
// @Param id path int true "ID врача"
// @Param date query string true "Дата в формате D_M_YYYY"
// @Success 200 {array} string "Занятые времена HH:MM"
// @Failure 400 {object} errorResponseBody "Неверный формат даты"
// @Failure 404 {object} errorResponseBody "Врач не найден"
// @Router /doctors/{id}/booked-slots [get]
func (h *Handler) getBookedSlots(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		badRequestResponse(c, "неверный формат ID")
		return
	}

	date := c.Query("date")
	if date == "" {
		badRequestResponse(c, "параметр date обязателен")
		return
	}

	slots, err := h.services.Doctor.BookedSlots(c.Request.Context(), id, date)
	if err != nil {
		h.logger.Warn("ошибка получения занятых слотов", zap.Int64("doctor_id", id), zap.Error(err))
		serviceErrorResponse(c, err)
		return
	}

	successResponse(c, http.StatusOK, slots)
}

// @Summary Добавить врача
// @Description Создает нового врача (только администратор)
// @Tags Врачи
// @Accept json
// @Produce json
// @Param input body domain.CreateDoctorDTO true "Данные врача"
// @Success 201 {object} map[string]interface{} "ID созданного врача"
// @Failure 400 {object} errorResponseBody "Ошибка валидации"
// @Failure 401 {object} errorResponseBody "Не авторизован"
// @Failure 403 {object} errorResponseBody "Доступ запрещен"
// @Security ApiKeyAuth
// @Router /doctors [post]
func (h *Handler) createDoctor(c *gin.Context) {
	var input domain.CreateDoctorDTO
	if err := c.ShouldBindJSON(&input); err != nil {
		h.logger.Warn("неверный формат данных", zap.Error(err))
		badRequestResponse(c, "неверный формат данных")
		return
	}

	id, err := h.services.Doctor.Create(c.Request.Context(), input)
	if err != nil {
		h.logger.Error("ошибка создания врача", zap.Error(err))
		badRequestResponse(c, err.Error())
		return
	}

	createdResponse(c, map[string]interface{}{
		"id": id,
	})
}

// @Summary Профиль текущего врача
// @Tags Врачи
// @Accept json
// @Produce json
// @Success 200 {object} domain.Doctor "Данные врача"
// @Failure 401 {object} errorResponseBody "Не авторизован"
// @Security ApiKeyAuth
// @Router /doctors/me [get]
func (h *Handler) getDoctorProfile(c *gin.Context) {
	doctorID, err := getUserID(c)
	if err != nil {
		unauthorizedResponse(c)
		return
	}

	doctor, err := h.services.Doctor.GetByID(c.Request.Context(), doctorID)
	if err != nil {
		h.logger.Error("ошибка получения профиля врача", zap.Int64("id", doctorID), zap.Error(err))
		serviceErrorResponse(c, err)
		return
	}

	successResponse(c, http.StatusOK, doctor)
}

// @Summary Обновить профиль врача
// @Tags Врачи
// @Accept json
// @Produce json
// @Param input body domain.UpdateDoctorDTO true "Данные для обновления"
// @Success 200 {object} messageResponseType "Сообщение об успешном обновлении"
// @Failure 400 {object} errorResponseBody "Ошибка валидации"
// @Failure 401 {object} errorResponseBody "Не авторизован"
// @Security ApiKeyAuth
// @Router /doctors/me [put]
func (h *Handler) updateDoctorProfile(c *gin.Context) {
	doctorID, err := getUserID(c)
	if err != nil {
		unauthorizedResponse(c)
		return
	}

	var input domain.UpdateDoctorDTO
	if err := c.ShouldBindJSON(&input); err != nil {
		h.logger.Warn("неверный формат данных", zap.Error(err))
		badRequestResponse(c, "неверный формат данных")
		return
	}

	if err := h.services.Doctor.Update(c.Request.Context(), doctorID, input); err != nil {
		h.logger.Error("ошибка обновления врача", zap.Int64("id", doctorID), zap.Error(err))
		serviceErrorResponse(c, err)
		return
	}

	messageResponse(c, http.StatusOK, "данные обновлены")
}

// @Summary Изменить доступность врача
// @Description Врач меняет собственную доступность, администратор передает doctor_id
// @Tags Врачи
// @Accept json
// @Produce json
// @Param input body changeAvailabilityInput true "Новое значение доступности"
// @Success 200 {object} messageResponseType "Доступность изменена"
// @Failure 400 {object} errorResponseBody "Ошибка валидации"
// @Failure 401 {object} errorResponseBody "Не авторизован"
// @Failure 403 {object} errorResponseBody "Доступ запрещен"
// @Security ApiKeyAuth
// @Router /doctors/availability [put]
func (h *Handler) changeAvailability(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		unauthorizedResponse(c)
		return
	}

	var input changeAvailabilityInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.logger.Warn("неверный формат данных", zap.Error(err))
		badRequestResponse(c, "неверный формат данных")
		return
	}

	var doctorID int64
	switch actor.Role {
	case domain.UserRoleDoctor:
		doctorID = actor.ID
	case domain.UserRoleAdmin:
		if input.DoctorID == nil {
			badRequestResponse(c, "поле doctor_id обязательно")
			return
		}
		doctorID = *input.DoctorID
	default:
		forbiddenResponse(c)
		return
	}

	if err := h.services.Doctor.SetAvailability(c.Request.Context(), doctorID, input.Available); err != nil {
		h.logger.Error("ошибка изменения доступности", zap.Int64("doctor_id", doctorID), zap.Error(err))
		serviceErrorResponse(c, err)
		return
	}

	messageResponse(c, http.StatusOK, "доступность изменена")
}

// @Summary Панель врача
// @Description Возвращает заработок, число записей и пациентов, последние записи
// @Tags Врачи
// @Accept json
// @Produce json
// @Success 200 {object} domain.DoctorDashboard "Статистика врача"
// @Failure 401 {object} errorResponseBody "Не авторизован"
// @Security ApiKeyAuth
// @Router /doctors/dashboard [get]
func (h *Handler) getDoctorDashboard(c *gin.Context) {
	doctorID, err := getUserID(c)
	if err != nil {
		unauthorizedResponse(c)
		return
	}

	dashboard, err := h.services.Doctor.Dashboard(c.Request.Context(), doctorID)
	if err != nil {
		h.logger.Error("ошибка получения статистики врача", zap.Int64("id", doctorID), zap.Error(err))
		serviceErrorResponse(c, err)
		return
	}

	successResponse(c, http.StatusOK, dashboard)
}
