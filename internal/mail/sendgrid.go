package mail

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"

	"medbook/config"
)

type SendGridSender struct {
	client    *sendgrid.Client
	fromEmail string
	fromName  string
	logger    *zap.Logger
}

func NewSendGridSender(cfg config.MailConfig, logger *zap.Logger) *SendGridSender {
	return &SendGridSender{
		client:    sendgrid.NewSendClient(cfg.SendGridKey),
		fromEmail: cfg.FromEmail,
		fromName:  cfg.FromName,
		logger:    logger,
	}
}

func (s *SendGridSender) SendPasswordResetCode(ctx context.Context, email, code string) error {
	from := sgmail.NewEmail(s.fromName, s.fromEmail)
	to := sgmail.NewEmail("", email)
	subject := "Код для сброса пароля"
	plainText := fmt.Sprintf("Ваш код подтверждения: %s. Код действует 5 минут.", code)
	htmlContent := fmt.Sprintf("<p>Ваш код подтверждения: <strong>%s</strong></p><p>Код действует 5 минут.</p>", code)

	message := sgmail.NewSingleEmail(from, subject, to, plainText, htmlContent)

	resp, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("ошибка отправки письма: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		s.logger.Error("сервис почты отклонил письмо",
			zap.Int("status", resp.StatusCode),
			zap.String("body", resp.Body),
		)
		return fmt.Errorf("сервис почты отклонил письмо: статус %d", resp.StatusCode)
	}

	return nil
}
