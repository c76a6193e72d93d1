package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"medbook/config"
	_ "medbook/docs"
	"medbook/internal/mail"
	"medbook/internal/otp"
	"medbook/internal/payment"
	"medbook/internal/repository"
	"medbook/internal/service"
	"medbook/internal/transport/rest"
	"medbook/pkg/database"
	"medbook/pkg/logger"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title MedBook API
// @version 1.0
// @description API для записи на прием к врачам и оплаты консультаций

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization
func main() {
	log, err := logger.NewLogger()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatal("Не удалось загрузить конфигурацию", zap.Error(err))
	}

	db, err := database.NewPostgresDB(cfg.Postgres)
	if err != nil {
		log.Fatal("Не удалось подключиться к БД", zap.Error(err))
	}
	defer db.Close()

	log.Info("Запуск миграций базы данных")
	if err := database.RunMigrations(db, "./migrations", log); err != nil {
		log.Fatal("Ошибка при выполнении миграций", zap.Error(err))
	}
	log.Info("Миграции успешно выполнены")

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Fatal("Не удалось подключиться к Redis", zap.Error(err))
	}

	repos := repository.NewRepositories(db)

	otpStore := otp.NewStore(redisClient, cfg.OTP.TTL, cfg.OTP.MaxAttempts)
	mailer := mail.NewSendGridSender(cfg.Mail, log)
	stripeClient := payment.NewStripeClient(cfg.Stripe, log)

	services := service.NewServices(service.Deps{
		Repos:     repos,
		Logger:    log,
		Config:    cfg,
		OTPStore:  otpStore,
		Mailer:    mailer,
		Processor: &stripeProcessor{client: stripeClient},
	})

	handler := rest.NewHandler(services, log, cfg)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()

	handler.InitRoutes(router)

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/swagger", func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, "/swagger/index.html")
	})

	srv := &http.Server{
		Addr:           ":" + cfg.HTTP.Port,
		Handler:        router,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderMB << 20,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Ошибка запуска сервера", zap.Error(err))
		}
	}()

	log.Info("Сервер запущен", zap.String("addr", srv.Addr))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Выключение сервера...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Ошибка при остановке сервера", zap.Error(err))
	}

	log.Info("Сервер успешно остановлен")
}

// stripeProcessor адаптирует клиент Stripe к интерфейсу платежного
// процессора сервисного слоя.
type stripeProcessor struct {
	client *payment.StripeClient
}

func (p *stripeProcessor) CreateIntent(ctx context.Context, amountMinor int64, description string, metadata map[string]string) (*service.ProcessorIntent, error) {
	intent, err := p.client.CreateIntent(ctx, amountMinor, description, metadata)
	if err != nil {
		return nil, err
	}
	return toProcessorIntent(intent), nil
}

func (p *stripeProcessor) GetIntent(ctx context.Context, id string) (*service.ProcessorIntent, error) {
	intent, err := p.client.GetIntent(ctx, id)
	if err != nil {
		return nil, err
	}
	return toProcessorIntent(intent), nil
}

func toProcessorIntent(intent *payment.Intent) *service.ProcessorIntent {
	return &service.ProcessorIntent{
		ID:           intent.ID,
		ClientSecret: intent.ClientSecret,
		Status:       intent.Status,
		Metadata:     intent.Metadata,
	}
}
