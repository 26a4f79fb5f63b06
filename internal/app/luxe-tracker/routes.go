// Package luxetracker предоставляет маршруты для основного приложения.
package luxetracker

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/nurmohammad56/luxe-tracker/internal/http/handlers/admin/couponcrud"
	admindashboard "github.com/nurmohammad56/luxe-tracker/internal/http/handlers/admin/dashboard"
	"github.com/nurmohammad56/luxe-tracker/internal/http/handlers/admin/plancrud"
	adminusers "github.com/nurmohammad56/luxe-tracker/internal/http/handlers/admin/users"
	"github.com/nurmohammad56/luxe-tracker/internal/http/handlers/auth/login"
	"github.com/nurmohammad56/luxe-tracker/internal/http/handlers/auth/register"
	"github.com/nurmohammad56/luxe-tracker/internal/http/handlers/health"
	notificationlist "github.com/nurmohammad56/luxe-tracker/internal/http/handlers/notification/list"
	"github.com/nurmohammad56/luxe-tracker/internal/http/handlers/notification/markread"
	"github.com/nurmohammad56/luxe-tracker/internal/http/handlers/product/create"
	productlist "github.com/nurmohammad56/luxe-tracker/internal/http/handlers/product/list"
	"github.com/nurmohammad56/luxe-tracker/internal/http/handlers/product/rates"
	"github.com/nurmohammad56/luxe-tracker/internal/http/handlers/product/read"
	"github.com/nurmohammad56/luxe-tracker/internal/http/handlers/product/remove"
	"github.com/nurmohammad56/luxe-tracker/internal/http/handlers/product/togglepurchase"
	"github.com/nurmohammad56/luxe-tracker/internal/http/handlers/product/update"
	"github.com/nurmohammad56/luxe-tracker/internal/http/handlers/subscription/paymentconfirm"
	"github.com/nurmohammad56/luxe-tracker/internal/http/handlers/subscription/paymentcreate"
	"github.com/nurmohammad56/luxe-tracker/internal/http/handlers/subscription/plans"
	"github.com/nurmohammad56/luxe-tracker/internal/http/handlers/user/changepassword"
	userdashboard "github.com/nurmohammad56/luxe-tracker/internal/http/handlers/user/dashboard"
	"github.com/nurmohammad56/luxe-tracker/internal/http/handlers/user/profile"
	"github.com/nurmohammad56/luxe-tracker/internal/http/handlers/user/updateprofile"
	"github.com/nurmohammad56/luxe-tracker/internal/http/middlewarectx"

	"github.com/nurmohammad56/luxe-tracker/internal/exchange"
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

// Services собирает зависимости маршрутов.
type Services struct {
	Auth         *authservice.AuthService
	User         *userservice.Service
	Product      *productservice.Service
	Plan         *planservice.Service
	Payment      *paymentservice.Service
	Notification *notificationservice.Service
	Admin        *adminservice.Service
	Exchange     *exchange.Client
	Storage      *repository.Storage
	Hub          *ws.Hub
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, s *Services) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Post("/register", register.New(logger, s.Auth).ServeHTTP)
		r.Post("/login", login.New(logger, s.Auth).ServeHTTP)
		r.Get("/plans", plans.New(logger, s.Payment).ServeHTTP)
		r.Get("/health", health.New(logger, s.Storage).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(s.Auth, logger))
			r.Use(middlewarectx.RateLimitMiddleware(logger))

			r.Get("/users/me", profile.New(logger, s.User).ServeHTTP)
			r.Put("/users/me", updateprofile.New(logger, s.User).ServeHTTP)
			r.Put("/users/me/password", changepassword.New(logger, s.User).ServeHTTP)
			r.Get("/users/me/dashboard", userdashboard.New(logger, s.User).ServeHTTP)

			r.Post("/products", create.New(logger, s.Product).ServeHTTP)
			r.Get("/products", productlist.New(logger, s.Product).ServeHTTP)
			r.Get("/products/rates", rates.New(logger, s.Exchange).ServeHTTP)
			r.Get("/products/{id}", read.New(logger, s.Product).ServeHTTP)
			r.Put("/products/{id}", update.New(logger, s.Product).ServeHTTP)
			r.Delete("/products/{id}", remove.New(logger, s.Product).ServeHTTP)
			r.Post("/products/{id}/purchase", togglepurchase.New(logger, s.Product).ServeHTTP)

			r.Post("/payments/create", paymentcreate.New(logger, s.Payment).ServeHTTP)
			r.Post("/payments/confirm", paymentconfirm.New(logger, s.Payment).ServeHTTP)

			r.Get("/notifications", notificationlist.New(logger, s.Notification).ServeHTTP)
			r.Post("/notifications/read", markread.New(logger, s.Notification).ServeHTTP)

			// Админская группа
			r.Route("/admin", func(r chi.Router) {
				r.Use(middlewarectx.AdminOnlyMiddleware(logger))

				r.Get("/dashboard", admindashboard.New(logger, s.Admin).ServeHTTP)
				r.Get("/users", adminusers.New(logger, s.Admin).ServeHTTP)

				planHandler := plancrud.New(logger, s.Admin)
				r.Post("/plans", planHandler.Create)
				r.Get("/plans", planHandler.List)
				r.Put("/plans/{id}", planHandler.Update)
				r.Post("/plans/{id}/toggle", planHandler.Toggle)
				r.Delete("/plans/{id}", planHandler.Delete)

				couponHandler := couponcrud.New(logger, s.Admin)
				r.Post("/coupons", couponHandler.Create)
				r.Get("/coupons", couponHandler.List)
				r.Put("/coupons/{id}", couponHandler.Update)
				r.Post("/coupons/{id}/status", couponHandler.SetStatus)
				r.Delete("/coupons/{id}", couponHandler.Delete)
			})
		})
	})

	// Websocket подключение, токен передается query-параметром
	r.Get("/ws", ws.NewHandler(logger, s.Hub, s.Auth).ServeHTTP)

	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
