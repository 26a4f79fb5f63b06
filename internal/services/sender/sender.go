// Package services реализует отправку email-уведомлений пользователям.
// Сервис потребляет сообщения из очереди уведомлений и доставляет их
// по SMTP, подгружая адрес получателя из хранилища по UID пользователя.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nurmohammad56/luxe-tracker/internal/lib/sl"
	"github.com/nurmohammad56/luxe-tracker/internal/lib/smtp"
	"github.com/nurmohammad56/luxe-tracker/internal/models"
)

const lookupTimeout = 5 * time.Second

// SenderService доставляет уведомления по электронной почте.
type SenderService struct {
	repo      Repository
	transport smtp.TransportInterface
	log       *slog.Logger
}

// Repository предоставляет доступ к данным пользователей.
type Repository interface {
	GetUser(ctx context.Context, userUID string) (*models.User, error)
}

// NewSenderService создает новый экземпляр SenderService.
func NewSenderService(repo Repository, log *slog.Logger, transport smtp.TransportInterface) *SenderService {
	return &SenderService{
		repo:      repo,
		transport: transport,
		log:       log,
	}
}

// SendNotificationEmail разбирает сообщение очереди и отправляет письмо
// пользователю. Пользователи с выключенными уведомлениями пропускаются.
func (s *SenderService) SendNotificationEmail(body []byte) error {
	var notification models.Notification
	if err := json.Unmarshal(body, &notification); err != nil {
		s.log.Error("Failed to unmarshal message body", "error", sl.Err(err))
		return fmt.Errorf("error unmarshalling message: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), lookupTimeout)
	defer cancel()

	user, err := s.repo.GetUser(ctx, notification.UserUID)
	if err != nil {
		s.log.Error("Failed to load user for notification",
			"user_uid", notification.UserUID, "error", sl.Err(err))
		return fmt.Errorf("error loading user: %w", err)
	}

	if !user.EnableNotifications {
		s.log.Info("notifications disabled, skipping email", "user_uid", user.UID)
		return nil
	}

	to := []string{user.Email}
	subject := notification.Title
	bodyText := fmt.Sprintf("Hello, %s!\n\n%s\n\nLuxe Tracker", user.Name, notification.Message)

	return s.sendEmail(to, subject, bodyText)
}

func (s *SenderService) sendEmail(to []string, subject, bodyText string) error {
	msg := strings.Join([]string{
		"From: " + s.transport.GetSMTPUser(),
		"To: " + strings.Join(to, ";"),
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		bodyText,
	}, "\r\n")

	client, err := s.transport.Connect()
	if err != nil {
		s.log.Error("Failed to connect to SMTP server", "error", sl.Err(err))
		return err
	}
	defer client.Close()

	if err := client.Mail(s.transport.GetSMTPUser()); err != nil {
		s.log.Error("Failed to set MAIL FROM", "from", s.transport.GetSMTPUser(), "error", sl.Err(err))
		return err
	}

	for _, addr := range to {
		if err := client.Rcpt(addr); err != nil {
			s.log.Error("Failed to set RCPT TO", "recipient", addr, "error", sl.Err(err))
			return err
		}
	}

	wc, err := client.Data()
	if err != nil {
		s.log.Error("Failed to get Data writer", "error", sl.Err(err))
		return err
	}

	_, err = wc.Write([]byte(msg))
	if err != nil {
		s.log.Error("Failed to write email body", "error", sl.Err(err))
		return err
	}

	if err = wc.Close(); err != nil {
		s.log.Error("Failed to close Data writer", "error", sl.Err(err))
		return err
	}

	if err = client.Quit(); err != nil {
		s.log.Error("Failed to quit SMTP client", "error", sl.Err(err))
		return err
	}

	s.log.Info("email sent successfully", "to", to)
	return nil
}
