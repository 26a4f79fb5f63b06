// Package sender собирает воедино компоненты воркера email-рассылки:
// подключение к хранилищу, брокеру уведомлений и SMTP-транспорту.
package sender

import (
	"context"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/nurmohammad56/luxe-tracker/internal/config"
	"github.com/nurmohammad56/luxe-tracker/internal/lib/rabbitmq"
	"github.com/nurmohammad56/luxe-tracker/internal/lib/smtp"
	notificationservice "github.com/nurmohammad56/luxe-tracker/internal/services/notification"
	senderservice "github.com/nurmohammad56/luxe-tracker/internal/services/sender"
	"github.com/nurmohammad56/luxe-tracker/internal/storage/repository"
)

const notificationQueue = "user_notifications"

// App воркер, потребляющий очередь уведомлений и отправляющий письма.
type App struct {
	conn          *amqp.Connection
	ch            *amqp.Channel
	senderService *senderservice.SenderService
	logger        *slog.Logger
}

// New создает воркер рассылки со всеми зависимостями.
func New(_ context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, err
	}

	ch, err := rabbitmq.SetupChannel(conn, []rabbitmq.QueueConfig{
		{QueueName: notificationQueue, RoutingKey: notificationservice.RoutingKey},
	})
	if err != nil {
		conn.Close()
		return nil, err
	}

	transport := smtp.NewTransport(cfg, logger)
	senderService := senderservice.NewSenderService(db, logger, transport)

	return &App{
		conn:          conn,
		ch:            ch,
		senderService: senderService,
		logger:        logger,
	}, nil
}

// Run запускает потребителя очереди и блокируется до отмены контекста.
func (a *App) Run(ctx context.Context) error {
	err := rabbitmq.ConsumerMessage(ctx, a.ch, notificationQueue, a.senderService.SendNotificationEmail, a.logger)
	if err != nil {
		a.logger.Error("failed to start notification queue consumer", slog.Any("err", err))
		return err
	}

	<-ctx.Done()
	a.logger.Info("Sender service shutting down gracefully")

	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", slog.Any("err", err))
	}

	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", slog.Any("err", err))
	}

	return nil
}
