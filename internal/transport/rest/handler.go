package rest

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"medbook/config"
	"medbook/internal/service"
)

type Handler struct {
	services *service.Services
	logger   *zap.Logger
	config   *config.Config
}

func NewHandler(services *service.Services, logger *zap.Logger, config *config.Config) *Handler {
	return &Handler{
		services: services,
		logger:   logger,
		config:   config,
	}
}

func (h *Handler) InitRoutes(router *gin.Engine) {
	router.Use(h.loggerMiddleware())

	router.Use(h.errorMiddleware())

	router.Use(h.corsMiddleware())

	api := router.Group("/api/v1")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", h.register)
			auth.POST("/login", h.login)
			auth.POST("/doctor-login", h.doctorLogin)
			auth.POST("/admin-login", h.adminLogin)
			auth.POST("/refresh", h.refreshTokens)
			auth.POST("/logout", h.logout)
			auth.POST("/forgot-password", h.forgotPassword)
			auth.POST("/verify-otp", h.verifyOTP)
			auth.POST("/reset-password", h.resetPassword)
		}

		users := api.Group("/users")
		users.Use(h.authMiddleware())
		{
			users.GET("/me", h.getCurrentUser)
			users.PUT("/me", h.updateCurrentUser)
			users.PUT("/me/password", h.updatePassword)
		}

		doctors := api.Group("/doctors")
		{
			doctors.GET("/", h.getDoctors)

			auth := doctors.Group("/", h.authMiddleware())
			{
				doctorRoutes := auth.Group("/", h.doctorMiddleware())
				{
					doctorRoutes.GET("/me", h.getDoctorProfile)
					doctorRoutes.PUT("/me", h.updateDoctorProfile)
					doctorRoutes.GET("/dashboard", h.getDoctorDashboard)
				}

				auth.PUT("/availability", h.changeAvailability)

				admin := auth.Group("/", h.adminMiddleware())
				{
					admin.POST("/", h.createDoctor)
				}
			}

			doctors.GET("/:id", h.getDoctorByID)
			doctors.GET("/:id/booked-slots", h.getBookedSlots)
		}

		appointments := api.Group("/appointments")
		appointments.Use(h.authMiddleware())
		{
			appointments.POST("/", h.createAppointment)
			appointments.GET("/", h.getAppointments)
			appointments.GET("/:id", h.getAppointmentByID)
			appointments.DELETE("/:id", h.cancelAppointment)
			appointments.POST("/:id/complete", h.completeAppointment)
			appointments.POST("/:id/mode", h.setAppointmentMode)
		}

		payments := api.Group("/payments")
		{
			// Вебхук провайдера не проходит через авторизацию:
			// подлинность подтверждается подписью в заголовке.
			payments.POST("/webhook", h.paymentWebhook)

			auth := payments.Group("/", h.authMiddleware())
			{
				auth.POST("/intent", h.createPaymentIntent)
				auth.POST("/confirm", h.confirmPayment)
				auth.GET("/status/:id", h.getPaymentStatus)
			}
		}

		admin := api.Group("/admin")
		admin.Use(h.authMiddleware(), h.adminMiddleware())
		{
			admin.GET("/dashboard", h.getAdminDashboard)
			admin.GET("/appointments", h.getAdminAppointments)
		}
	}
}
