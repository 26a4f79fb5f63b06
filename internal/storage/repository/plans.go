package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nurmohammad56/luxe-tracker/internal/models"
)

const planColumns = `id, name, price_monthly, price_yearly, benefits, has_ads,
		      max_items, max_currencies, is_active, created_at`

// CreatePlan сохраняет тарифный план и возвращает его ID.
func (s *Storage) CreatePlan(ctx context.Context, plan models.SubscriptionPlan) (int, error) {
	const op = "storage.CreatePlan"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	benefits, err := json.Marshal(plan.Benefits)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	var newID int
	query := `INSERT INTO subscription_plans (name, price_monthly, price_yearly,
			      benefits, has_ads, max_items, max_currencies, is_active)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			  RETURNING id;`
	if err = s.DB.QueryRowContext(ctx, query,
		plan.Name, plan.PriceMonthly, plan.PriceYearly, benefits,
		plan.HasAds, plan.MaxItems, plan.MaxCurrencies, plan.IsActive).Scan(&newID); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// GetPlanByID возвращает тарифный план по ID.
func (s *Storage) GetPlanByID(ctx context.Context, id int) (*models.SubscriptionPlan, error) {
	const op = "storage.GetPlanByID"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + planColumns + `
			  FROM subscription_plans
			  WHERE id = $1`
	return scanPlan(s.DB.QueryRowContext(ctx, query, id).Scan, op)
}

// GetPlanByName возвращает тарифный план по имени.
func (s *Storage) GetPlanByName(ctx context.Context, name string) (*models.SubscriptionPlan, error) {
	const op = "storage.GetPlanByName"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + planColumns + `
			  FROM subscription_plans
			  WHERE name = $1`
	return scanPlan(s.DB.QueryRowContext(ctx, query, name).Scan, op)
}

// ListPlans возвращает тарифные планы. При onlyActive возвращаются только
// активные, в порядке возрастания месячной цены.
func (s *Storage) ListPlans(ctx context.Context, onlyActive bool) ([]*models.SubscriptionPlan, error) {
	const op = "storage.ListPlans"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + planColumns + `
			  FROM subscription_plans
			  WHERE ($1 = FALSE OR is_active = TRUE)
			  ORDER BY price_monthly ASC`
	rows, err := s.DB.QueryContext(ctx, query, onlyActive)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()
	var result []*models.SubscriptionPlan
	for rows.Next() {
		p, err := scanPlan(rows.Scan, op)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// UpdatePlan заменяет поля тарифного плана.
func (s *Storage) UpdatePlan(ctx context.Context, id int, plan models.SubscriptionPlan) error {
	const op = "storage.UpdatePlan"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	benefits, err := json.Marshal(plan.Benefits)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	query := `UPDATE subscription_plans
			  SET name = $1, price_monthly = $2, price_yearly = $3, benefits = $4,
			      has_ads = $5, max_items = $6, max_currencies = $7, is_active = $8
			  WHERE id = $9`
	res, err := s.DB.ExecContext(ctx, query,
		plan.Name, plan.PriceMonthly, plan.PriceYearly, benefits,
		plan.HasAds, plan.MaxItems, plan.MaxCurrencies, plan.IsActive, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%s: %w", op, models.ErrPlanNotFound)
	}
	return nil
}

// SetPlanActive включает или выключает тарифный план.
func (s *Storage) SetPlanActive(ctx context.Context, id int, isActive bool) error {
	const op = "storage.SetPlanActive"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	res, err := s.DB.ExecContext(ctx,
		`UPDATE subscription_plans SET is_active = $1 WHERE id = $2`, isActive, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%s: %w", op, models.ErrPlanNotFound)
	}
	return nil
}

// DeletePlan удаляет тарифный план без активных подписок.
func (s *Storage) DeletePlan(ctx context.Context, id int) error {
	const op = "storage.DeletePlan"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `DELETE FROM subscription_plans
			  WHERE id = $1 AND NOT EXISTS (
			      SELECT 1 FROM user_subscriptions
			      WHERE plan_id = $1 AND status = 'active')`
	res, err := s.DB.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%s: %w", op, models.ErrPlanNotFound)
	}
	return nil
}

func scanPlan(scan func(dest ...any) error, op string) (*models.SubscriptionPlan, error) {
	p := &models.SubscriptionPlan{}
	var benefits []byte
	if err := scan(&p.ID, &p.Name, &p.PriceMonthly, &p.PriceYearly,
		&benefits, &p.HasAds, &p.MaxItems, &p.MaxCurrencies,
		&p.IsActive, &p.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, models.ErrPlanNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if len(benefits) > 0 {
		if err := json.Unmarshal(benefits, &p.Benefits); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}
	return p, nil
}
