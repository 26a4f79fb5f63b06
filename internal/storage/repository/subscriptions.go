package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/nurmohammad56/luxe-tracker/internal/models"
)

// GetSubscriptionByID возвращает подписку по ID.
func (s *Storage) GetSubscriptionByID(ctx context.Context, id int) (*models.UserSubscription, error) {
	const op = "storage.GetSubscriptionByID"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_uid, plan_id, start_date, end_date, status,
			      payment_method, transaction_id, coupon_used, created_at
			  FROM user_subscriptions
			  WHERE id = $1`
	sub := &models.UserSubscription{}
	row := s.DB.QueryRowContext(ctx, query, id)
	if err := row.Scan(&sub.ID, &sub.UserUID, &sub.PlanID, &sub.StartDate,
		&sub.EndDate, &sub.Status, &sub.PaymentMethod, &sub.TransactionID,
		&sub.CouponUsed, &sub.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, models.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return sub, nil
}

// CountActiveSubscriptions возвращает количество активных подписок.
func (s *Storage) CountActiveSubscriptions(ctx context.Context) (int, error) {
	const op = "storage.CountActiveSubscriptions"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var count int
	if err := s.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM user_subscriptions WHERE status = $1`,
		models.SubscriptionActive).Scan(&count); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return count, nil
}

// SumSubscriptionSales возвращает суммарную выручку по подтверждённым платежам.
func (s *Storage) SumSubscriptionSales(ctx context.Context) (float64, error) {
	const op = "storage.SumSubscriptionSales"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var total float64
	if err := s.DB.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(final_price), 0) FROM payments WHERE payment_status = $1`,
		models.PaymentComplete).Scan(&total); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return total, nil
}

// SubscriptionOverview возвращает количество подписок, начатых в каждом
// периоде. Период — месяц текущего года при monthly, иначе год.
func (s *Storage) SubscriptionOverview(ctx context.Context, monthly bool) ([]models.OverviewPoint, error) {
	const op = "storage.SubscriptionOverview"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT EXTRACT(YEAR FROM start_date)::INT AS period, COUNT(*)
			  FROM user_subscriptions
			  GROUP BY period
			  ORDER BY period`
	if monthly {
		query = `SELECT EXTRACT(MONTH FROM start_date)::INT AS period, COUNT(*)
			  FROM user_subscriptions
			  WHERE EXTRACT(YEAR FROM start_date) = EXTRACT(YEAR FROM CURRENT_DATE)
			  GROUP BY period
			  ORDER BY period`
	}
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()
	var result []models.OverviewPoint
	for rows.Next() {
		var p models.OverviewPoint
		if err = rows.Scan(&p.Period, &p.Count); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ExpireSubscriptions переводит просроченные активные подписки в статус expired
// и сбрасывает тариф их владельцев на бесплатный. Возвращает UID пользователей,
// чьи подписки истекли.
func (s *Storage) ExpireSubscriptions(ctx context.Context, freePlan string) ([]string, error) {
	const op = "storage.ExpireSubscriptions"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	rows, err := tx.QueryContext(ctx, `UPDATE user_subscriptions
			  SET status = $1
			  WHERE status = $2 AND end_date < NOW()
			  RETURNING user_uid`, models.SubscriptionExpired, models.SubscriptionActive)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	var uids []string
	for rows.Next() {
		var uid string
		if err = rows.Scan(&uid); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		uids = append(uids, uid)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	_ = rows.Close()

	for _, uid := range uids {
		if _, err = tx.ExecContext(ctx, `UPDATE users
			  SET current_plan = $1, subscription_id = NULL
			  WHERE uid = $2`, freePlan, uid); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return uids, nil
}
