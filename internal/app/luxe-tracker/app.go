// Package luxetracker собирает приложение: хранилище, кэш, брокер,
// внешние клиенты, сервисы, websocket-узел и HTTP-сервер.
package luxetracker

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	"github.com/nurmohammad56/luxe-tracker/internal/cache"
	"github.com/nurmohammad56/luxe-tracker/internal/config"
	"github.com/nurmohammad56/luxe-tracker/internal/exchange"
	"github.com/nurmohammad56/luxe-tracker/internal/lib/jwt"
	"github.com/nurmohammad56/luxe-tracker/internal/lib/rabbitmq"
	"github.com/nurmohammad56/luxe-tracker/internal/lib/sl"
	"github.com/nurmohammad56/luxe-tracker/internal/migrations"
	"github.com/nurmohammad56/luxe-tracker/internal/models"
	"github.com/nurmohammad56/luxe-tracker/internal/paymentprovider"
	"github.com/nurmohammad56/luxe-tracker/internal/pricing"
	adminservice "github.com/nurmohammad56/luxe-tracker/internal/services/admin"
	authservice "github.com/nurmohammad56/luxe-tracker/internal/services/auth"
	notificationservice "github.com/nurmohammad56/luxe-tracker/internal/services/notification"
	paymentservice "github.com/nurmohammad56/luxe-tracker/internal/services/payment"
	planservice "github.com/nurmohammad56/luxe-tracker/internal/services/plan"
	productservice "github.com/nurmohammad56/luxe-tracker/internal/services/product"
	userservice "github.com/nurmohammad56/luxe-tracker/internal/services/user"
	"github.com/nurmohammad56/luxe-tracker/internal/storage/repository"
	"github.com/nurmohammad56/luxe-tracker/internal/ws"
)

const expirySweepInterval = time.Hour

type App struct {
	server   *http.Server
	logger   *slog.Logger
	db       *repository.Storage
	cache    *cache.Cache
	amqpConn *amqp.Connection
	hub      *ws.Hub
	exchange *exchange.Client
	notifier *notificationservice.Service

	broadcastInterval time.Duration
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	amqpConn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, err
	}
	amqpChannel, err := rabbitmq.SetupChannel(amqpConn, []rabbitmq.QueueConfig{
		{QueueName: "user_notifications", RoutingKey: notificationservice.RoutingKey},
	})
	if err != nil {
		return nil, err
	}

	jwtMaker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)
	authService := authservice.NewAuthService(db, jwtMaker)

	hub := ws.NewHub(logger)

	exchangeClient := exchange.NewClient(cfg.ExchangeAPIURL, cfg.ExchangeAccessKey, cacheRedis, logger)
	providerClient := paymentprovider.NewClient(cfg.StripeAPIURL, cfg.StripeSecretKey)

	notificationService := notificationservice.New(db, amqpChannel, hub, logger)
	planService := planservice.New(db, cacheRedis, logger)
	productService := productservice.New(db, planService, exchangeClient,
		pricing.DefaultTaxTable(), notificationService, notificationService, cacheRedis, logger)
	paymentService := paymentservice.New(db, providerClient, notificationService, cacheRedis, logger)
	userService := userservice.New(db, planService, logger)
	adminService := adminservice.New(db, planService, cacheRedis, logger)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, &Services{
		Auth:         authService,
		User:         userService,
		Product:      productService,
		Plan:         planService,
		Payment:      paymentService,
		Notification: notificationService,
		Admin:        adminService,
		Exchange:     exchangeClient,
		Storage:      db,
		Hub:          hub,
	})

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server:            srv,
		logger:            logger,
		db:                db,
		cache:             cacheRedis,
		amqpConn:          amqpConn,
		hub:               hub,
		exchange:          exchangeClient,
		notifier:          notificationService,
		broadcastInterval: cfg.BroadcastInterval,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	go a.hub.Run(ctx)
	go a.broadcastRates(ctx)
	go a.expireSubscriptions(ctx)

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		_ = a.amqpConn.Close()
		_ = a.db.DB.Close()
		return err
	}
}

// broadcastRates периодически рассылает подключенным клиентам свежие курсы
// USD к валютам справочника.
func (a *App) broadcastRates(ctx context.Context) {
	symbols := make([]string, 0, len(models.CurrencySymbols))
	for _, code := range models.CurrencySymbols {
		if code != "USD" {
			symbols = append(symbols, code)
		}
	}

	ticker := time.NewTicker(a.broadcastInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			payload, err := a.exchange.Latest(ctx, "USD", symbols)
			if err != nil {
				a.logger.Warn("failed to fetch rates for broadcast", sl.Err(err))
				continue
			}
			a.hub.Broadcast(map[string]any{
				"type":  "rates_update",
				"rates": payload,
			})
		}
	}
}

// expireSubscriptions раз в час переводит истекшие подписки в состояние
// expired и возвращает пользователей на бесплатный тариф.
func (a *App) expireSubscriptions(ctx context.Context) {
	ticker := time.NewTicker(expirySweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			expired, err := a.db.ExpireSubscriptions(ctx, authservice.FreePlanName)
			if err != nil {
				a.logger.Error("failed to expire subscriptions", sl.Err(err))
				continue
			}
			for _, userUID := range expired {
				if _, err := a.notifier.Emit(ctx, models.Notification{
					UserUID: userUID,
					Title:   "Subscription expired",
					Message: "Your subscription has expired, you are back on the free plan",
					Type:    models.NotificationSubscriptionUpdate,
				}); err != nil {
					a.logger.Warn("failed to notify expired user", sl.Err(err))
				}
			}
			if len(expired) > 0 {
				a.logger.Info("expired subscriptions", slog.Int("count", len(expired)))
			}
		}
	}
}
