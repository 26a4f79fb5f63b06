// Package product содержит бизнес-логику работы с товарами: лимиты тарифа,
// расчет сравнения цен и поддержание агрегатов экономии пользователя.
package product

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nurmohammad56/luxe-tracker/internal/lib/sl"
	"github.com/nurmohammad56/luxe-tracker/internal/models"
	"github.com/nurmohammad56/luxe-tracker/internal/pricing"
)

// ProductRepository описывает контракт хранилища для работы с товарами.
type ProductRepository interface {
	CreateProduct(ctx context.Context, product models.Product) (int, error)
	ReadProduct(ctx context.Context, id int, userUID string) (*models.Product, error)
	UpdateProduct(ctx context.Context, id int, userUID string, product models.Product) error
	RemoveProduct(ctx context.Context, id int, userUID string) (int, error)
	TogglePurchase(ctx context.Context, id int, userUID string) (bool, error)
	ListProducts(ctx context.Context, filter models.ProductFilter) ([]*models.Product, error)
	GetUser(ctx context.Context, userUID string) (*models.User, error)
	RecomputeUserSavings(ctx context.Context, userUID string, calc func(models.Product) float64) error
}

// PlanPolicy проверяет лимиты тарифа пользователя. Первый результат
// CheckProductAllowed — признак показа рекламы по тарифу.
type PlanPolicy interface {
	CheckProductAllowed(ctx context.Context, user *models.User,
		comparisons []models.ForeignComparison, countDelta int) (bool, error)
}

// Notifier отправляет уведомление пользователю.
type Notifier interface {
	Emit(ctx context.Context, n models.Notification) (int, error)
}

// Cache описывает контракт кэша товаров.
type Cache interface {
	Get(key string, result any) (bool, error)
	Set(key string, value any, expiration time.Duration) error
	Invalidate(key string) error
}

// View товар вместе с рассчитанным сравнением цен.
type View struct {
	*models.Product
	Pricing pricing.Result `json:"pricing"`
}

// Service реализует операции над товарами.
type Service struct {
	repo   ProductRepository
	policy PlanPolicy
	engine *pricing.Engine
	// quiet не шлет событий: им считаются агрегаты, чтобы пересчет
	// не дублировал savings-alert на каждый товар
	quiet    *pricing.Engine
	notifier Notifier
	cache    Cache
	log      *slog.Logger
}

// New создает сервис товаров.
func New(repo ProductRepository, policy PlanPolicy, rates pricing.RateSource,
	taxes pricing.TaxTable, sink pricing.EventSink, notifier Notifier,
	cache Cache, log *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		policy:   policy,
		engine:   pricing.NewEngine(rates, taxes, sink),
		quiet:    pricing.NewEngine(rates, taxes, nil),
		notifier: notifier,
		cache:    cache,
		log:      log,
	}
}

// Create проверяет лимиты тарифа, сохраняет товар и пересчитывает агрегаты.
// Второй результат — признак показа рекламы по тарифу пользователя.
func (s *Service) Create(ctx context.Context, userUID string, req models.DummyProduct) (int, bool, error) {
	product, err := buildProduct(userUID, req)
	if err != nil {
		return 0, false, err
	}

	user, err := s.repo.GetUser(ctx, userUID)
	if err != nil {
		return 0, false, err
	}
	showAds, err := s.policy.CheckProductAllowed(ctx, user, product.ForeignComparisons, 1)
	if err != nil {
		return 0, showAds, err
	}

	id, err := s.repo.CreateProduct(ctx, product)
	if err != nil {
		return 0, showAds, err
	}
	s.log.Info("created new product", slog.Int("id", id))

	// Категория "other" — служебная корзина, о ней не уведомляем
	if s.notifier != nil && product.Category != "other" {
		n := models.Notification{
			UserUID:        userUID,
			Title:          "New Luxury Item Added",
			Message:        fmt.Sprintf("You've added %s from %s to your collection.", product.Name, product.Brand),
			Type:           models.NotificationGeneral,
			RelatedProduct: &id,
		}
		if _, err := s.notifier.Emit(ctx, n); err != nil {
			s.log.Warn("failed to emit new item notification",
				slog.String("user_uid", userUID), sl.Err(err))
		}
	}

	s.refreshAggregates(ctx, userUID)
	return id, showAds, nil
}

// Read возвращает товар с рассчитанным сравнением цен и признаком показа
// рекламы по тарифу пользователя.
func (s *Service) Read(ctx context.Context, id int, userUID string) (*View, bool, error) {
	var product *models.Product
	cacheKey := fmt.Sprintf("product:%d", id)
	found, err := s.cache.Get(cacheKey, &product)
	if err != nil {
		s.log.Warn("failed to read product from cache", slog.String("key", cacheKey), sl.Err(err))
		found = false
	}
	if !found || product == nil || product.UserUID != userUID {
		product, err = s.repo.ReadProduct(ctx, id, userUID)
		if err != nil {
			return nil, false, err
		}
		if err := s.cache.Set(cacheKey, product, time.Hour); err != nil {
			s.log.Warn("failed to cache product", slog.String("key", cacheKey), sl.Err(err))
		}
	}

	showAds, err := s.showAds(ctx, userUID)
	if err != nil {
		return nil, false, err
	}
	return &View{
		Product: product,
		Pricing: s.engine.Compare(ctx, *product),
	}, showAds, nil
}

// List возвращает страницу товаров пользователя, каждый с расчетом сравнения,
// и признак показа рекламы. Расчет при чтении списка не шлет savings-alert,
// иначе каждый просмотр дублировал бы уведомления.
func (s *Service) List(ctx context.Context, filter models.ProductFilter) ([]*View, bool, error) {
	products, err := s.repo.ListProducts(ctx, filter)
	if err != nil {
		return nil, false, err
	}
	showAds, err := s.showAds(ctx, filter.UserUID)
	if err != nil {
		return nil, false, err
	}
	views := make([]*View, 0, len(products))
	for _, p := range products {
		views = append(views, &View{
			Product: p,
			Pricing: s.quiet.Compare(ctx, *p),
		})
	}
	return views, showAds, nil
}

// showAds оценивает тариф пользователя без изменений: нулевой countDelta
// и пустые сравнения ничего не проверяют, но возвращают признак рекламы.
func (s *Service) showAds(ctx context.Context, userUID string) (bool, error) {
	user, err := s.repo.GetUser(ctx, userUID)
	if err != nil {
		return false, err
	}
	return s.policy.CheckProductAllowed(ctx, user, nil, 0)
}

// Update заменяет поля товара и пересчитывает агрегаты.
func (s *Service) Update(ctx context.Context, id int, userUID string, req models.DummyProduct) error {
	product, err := buildProduct(userUID, req)
	if err != nil {
		return err
	}

	user, err := s.repo.GetUser(ctx, userUID)
	if err != nil {
		return err
	}
	// Товар уже учтен в лимите количества, проверяется только валютный лимит
	if _, err := s.policy.CheckProductAllowed(ctx, user, product.ForeignComparisons, 0); err != nil {
		return err
	}

	if err := s.repo.UpdateProduct(ctx, id, userUID, product); err != nil {
		return err
	}
	s.invalidate(id)
	s.log.Info("updated product", slog.Int("id", id))

	s.refreshAggregates(ctx, userUID)
	return nil
}

// Remove удаляет товар и пересчитывает агрегаты.
func (s *Service) Remove(ctx context.Context, id int, userUID string) error {
	count, err := s.repo.RemoveProduct(ctx, id, userUID)
	if err != nil {
		return err
	}
	if count == 0 {
		return models.ErrNotFound
	}
	s.invalidate(id)
	s.log.Info("removed product", slog.Int("id", id))

	s.refreshAggregates(ctx, userUID)
	return nil
}

// TogglePurchase переключает флаг "куплено" и возвращает новое значение.
func (s *Service) TogglePurchase(ctx context.Context, id int, userUID string) (bool, error) {
	isPurchase, err := s.repo.TogglePurchase(ctx, id, userUID)
	if err != nil {
		return false, err
	}
	s.invalidate(id)
	return isPurchase, nil
}

// refreshAggregates пересчитывает суммарную и среднюю экономию пользователя
// после изменения набора товаров. Сбой пересчета не отменяет операцию:
// агрегаты сойдутся при следующем изменении.
func (s *Service) refreshAggregates(ctx context.Context, userUID string) {
	err := s.repo.RecomputeUserSavings(ctx, userUID, func(p models.Product) float64 {
		return s.quiet.Compare(ctx, p).Savings
	})
	if err != nil {
		s.log.Warn("failed to recompute savings",
			slog.String("user_uid", userUID), sl.Err(err))
	}
}

func (s *Service) invalidate(id int) {
	cacheKey := fmt.Sprintf("product:%d", id)
	if err := s.cache.Invalidate(cacheKey); err != nil {
		s.log.Warn("failed to remove product from cache", slog.String("key", cacheKey), sl.Err(err))
	}
}

// buildProduct валидирует справочные значения и собирает модель товара.
func buildProduct(userUID string, req models.DummyProduct) (models.Product, error) {
	if !models.ValidCategory(req.Category) {
		return models.Product{}, fmt.Errorf("%w: unknown category %q", models.ErrInvalidInput, req.Category)
	}
	if !models.ValidCountry(req.HomeCountry) {
		return models.Product{}, fmt.Errorf("%w: unknown country %q", models.ErrInvalidInput, req.HomeCountry)
	}
	if !models.ValidCurrency(req.HomeCurrency) {
		return models.Product{}, fmt.Errorf("%w: unknown currency %q", models.ErrInvalidInput, req.HomeCurrency)
	}
	for _, comp := range req.ForeignComparisons {
		if !models.ValidCountry(comp.Country) {
			return models.Product{}, fmt.Errorf("%w: unknown country %q", models.ErrInvalidInput, comp.Country)
		}
		if !models.ValidCurrency(comp.Currency) {
			return models.Product{}, fmt.Errorf("%w: unknown currency %q", models.ErrInvalidInput, comp.Currency)
		}
		if comp.Price <= 0 {
			return models.Product{}, fmt.Errorf("%w: comparison price must be positive", models.ErrInvalidInput)
		}
	}
	return models.Product{
		UserUID:            userUID,
		Name:               req.Name,
		Brand:              req.Brand,
		Category:           req.Category,
		HomePrice:          req.HomePrice,
		HomeCountry:        req.HomeCountry,
		HomeCurrency:       req.HomeCurrency,
		ForeignComparisons: req.ForeignComparisons,
		Note:               req.Note,
		IsSaved:            req.IsSaved,
		IsPurchase:         req.IsPurchase,
		VATRefundPercent:   req.VATRefundPercent,
	}, nil
}
