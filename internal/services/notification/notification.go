// Package notification рассылает и хранит уведомления пользователей.
package notification

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/nurmohammad56/luxe-tracker/internal/lib/rabbitmq"
	"github.com/nurmohammad56/luxe-tracker/internal/lib/sl"
	"github.com/nurmohammad56/luxe-tracker/internal/models"
)

// RoutingKey ключ маршрутизации уведомлений в обменнике.
const RoutingKey = "user.notification"

// NotificationRepository описывает контракт хранения уведомлений.
type NotificationRepository interface {
	CreateNotification(ctx context.Context, n models.Notification) (int, error)
	ListNotifications(ctx context.Context, userUID, notificationType string, limit, offset int) ([]*models.Notification, error)
	MarkNotificationsRead(ctx context.Context, userUID string, ids []int) (int, error)
	CountUnreadNotifications(ctx context.Context, userUID string) (int, error)
	GetUser(ctx context.Context, userUID string) (*models.User, error)
}

// Pusher доставляет уведомление в открытые веб-сокеты пользователя.
type Pusher interface {
	SendToUser(userUID string, payload any)
}

// Service сохраняет уведомления и доставляет их по каналам:
// веб-сокет для открытых сессий и очередь для остальной доставки.
type Service struct {
	repo    NotificationRepository
	channel *amqp.Channel
	pusher  Pusher
	log     *slog.Logger
}

// New создает сервис уведомлений. channel и pusher могут быть nil —
// тогда соответствующий канал доставки отключен.
func New(repo NotificationRepository, channel *amqp.Channel, pusher Pusher, log *slog.Logger) *Service {
	return &Service{
		repo:    repo,
		channel: channel,
		pusher:  pusher,
		log:     log,
	}
}

// Emit сохраняет уведомление и рассылает его по каналам доставки.
// Ошибка доставки не прерывает операцию: уведомление уже сохранено
// и будет показано при следующем чтении списка.
func (s *Service) Emit(ctx context.Context, n models.Notification) (int, error) {
	user, err := s.repo.GetUser(ctx, n.UserUID)
	if err != nil {
		return 0, err
	}
	if !user.EnableNotifications {
		return 0, nil
	}

	id, err := s.repo.CreateNotification(ctx, n)
	if err != nil {
		return 0, err
	}
	n.ID = id

	if s.pusher != nil {
		s.pusher.SendToUser(n.UserUID, n)
	}
	if s.channel != nil {
		if err := rabbitmq.PublishMessage(s.channel, rabbitmq.Exchange, RoutingKey, n); err != nil {
			s.log.Warn("failed to publish notification",
				slog.Int("id", id), sl.Err(err))
		}
	}
	return id, nil
}

// List возвращает страницу уведомлений пользователя и помечает её прочитанной.
func (s *Service) List(ctx context.Context, userUID, notificationType string,
	limit, offset int) ([]*models.Notification, error) {
	notifications, err := s.repo.ListNotifications(ctx, userUID, notificationType, limit, offset)
	if err != nil {
		return nil, err
	}

	var unreadIDs []int
	for _, n := range notifications {
		if !n.IsRead {
			unreadIDs = append(unreadIDs, n.ID)
		}
	}
	if len(unreadIDs) > 0 {
		if _, err := s.repo.MarkNotificationsRead(ctx, userUID, unreadIDs); err != nil {
			s.log.Warn("failed to mark notifications read", sl.Err(err))
		}
	}
	return notifications, nil
}

// MarkRead помечает уведомления прочитанными и возвращает количество изменённых.
func (s *Service) MarkRead(ctx context.Context, userUID string, ids []int) (int, error) {
	return s.repo.MarkNotificationsRead(ctx, userUID, ids)
}

// CountUnread возвращает количество непрочитанных уведомлений пользователя.
func (s *Service) CountUnread(ctx context.Context, userUID string) (int, error) {
	return s.repo.CountUnreadNotifications(ctx, userUID)
}

// SavingsAlert реализует приемник событий расчета цен: при значительной
// разнице цен пользователю отправляется уведомление с самой дешевой страной.
// Отрицательный percent означает подорожание за рубежом относительно
// домашней цены, такое уведомление получает тип price_increase.
func (s *Service) SavingsAlert(ctx context.Context, userUID string, productID int,
	productName, cheapestCountry string, percent float64) {
	n := models.Notification{
		UserUID: userUID,
		Title:   "Savings opportunity",
		Message: fmt.Sprintf("%s is %.2f%% cheaper in %s", productName, percent, cheapestCountry),
		Type:    models.NotificationSavingsAlert,
	}
	if percent < 0 {
		n.Title = "Price Alert"
		n.Message = fmt.Sprintf("%s is %.2f%% more expensive in %s", productName, -percent, cheapestCountry)
		n.Type = models.NotificationPriceIncrease
	}
	if productID > 0 {
		n.RelatedProduct = &productID
	}
	if _, err := s.Emit(ctx, n); err != nil {
		s.log.Warn("failed to emit savings alert",
			slog.String("user_uid", userUID), sl.Err(err))
	}
}
