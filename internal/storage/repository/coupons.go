package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nurmohammad56/luxe-tracker/internal/models"
)

const couponColumns = `id, code, discount_type, discount_value, start_date, expiry_date,
		      usage_limit, used_count, applicable_plans, status, created_at`

// CreateCoupon сохраняет купон и возвращает его ID.
func (s *Storage) CreateCoupon(ctx context.Context, coupon models.Coupon) (int, error) {
	const op = "storage.CreateCoupon"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	plans, err := json.Marshal(coupon.ApplicablePlans)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	var newID int
	query := `INSERT INTO coupons (code, discount_type, discount_value, start_date,
			      expiry_date, usage_limit, applicable_plans, status)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			  RETURNING id;`
	if err = s.DB.QueryRowContext(ctx, query,
		coupon.Code, coupon.DiscountType, coupon.DiscountValue, coupon.StartDate,
		coupon.ExpiryDate, coupon.UsageLimit, plans, coupon.Status).Scan(&newID); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// GetCouponByCode возвращает купон по коду.
func (s *Storage) GetCouponByCode(ctx context.Context, code string) (*models.Coupon, error) {
	const op = "storage.GetCouponByCode"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + couponColumns + `
			  FROM coupons
			  WHERE code = $1`
	return scanCoupon(s.DB.QueryRowContext(ctx, query, code).Scan, op)
}

// ListCoupons возвращает все купоны, начиная с недавно созданных.
func (s *Storage) ListCoupons(ctx context.Context) ([]*models.Coupon, error) {
	const op = "storage.ListCoupons"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + couponColumns + `
			  FROM coupons
			  ORDER BY created_at DESC`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()
	var result []*models.Coupon
	for rows.Next() {
		c, err := scanCoupon(rows.Scan, op)
		if err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// UpdateCoupon заменяет поля купона. Счётчик использований не трогается.
func (s *Storage) UpdateCoupon(ctx context.Context, id int, coupon models.Coupon) error {
	const op = "storage.UpdateCoupon"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	plans, err := json.Marshal(coupon.ApplicablePlans)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	query := `UPDATE coupons
			  SET code = $1, discount_type = $2, discount_value = $3, start_date = $4,
			      expiry_date = $5, usage_limit = $6, applicable_plans = $7, status = $8
			  WHERE id = $9`
	res, err := s.DB.ExecContext(ctx, query,
		coupon.Code, coupon.DiscountType, coupon.DiscountValue, coupon.StartDate,
		coupon.ExpiryDate, coupon.UsageLimit, plans, coupon.Status, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%s: %w", op, models.ErrNotFound)
	}
	return nil
}

// SetCouponStatus переводит купон в активное или неактивное состояние.
func (s *Storage) SetCouponStatus(ctx context.Context, id int, status string) error {
	const op = "storage.SetCouponStatus"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	res, err := s.DB.ExecContext(ctx,
		`UPDATE coupons SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%s: %w", op, models.ErrNotFound)
	}
	return nil
}

// DeleteCoupon удаляет купон.
func (s *Storage) DeleteCoupon(ctx context.Context, id int) error {
	const op = "storage.DeleteCoupon"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	res, err := s.DB.ExecContext(ctx, `DELETE FROM coupons WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%s: %w", op, models.ErrNotFound)
	}
	return nil
}

// CountCoupons возвращает количество купонов в заданном статусе.
func (s *Storage) CountCoupons(ctx context.Context, status string) (int, error) {
	const op = "storage.CountCoupons"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var count int
	if err := s.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM coupons WHERE ($1 = '' OR status = $1)`, status).Scan(&count); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return count, nil
}

// consumeCoupon атомарно увеличивает счётчик использований купона в рамках
// транзакции подтверждения платежа. Охранное условие не даёт превысить лимит
// при конкурентных подтверждениях. Возвращает false, если лимит уже исчерпан.
func consumeCoupon(ctx context.Context, tx *sql.Tx, code string) (bool, error) {
	const op = "storage.consumeCoupon"

	query := `UPDATE coupons
			  SET used_count = used_count + 1
			  WHERE code = $1
			    AND status = 'active'
			    AND (usage_limit = 0 OR used_count < usage_limit)`
	res, err := tx.ExecContext(ctx, query, code)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return n > 0, nil
}

func scanCoupon(scan func(dest ...any) error, op string) (*models.Coupon, error) {
	c := &models.Coupon{}
	var plans []byte
	if err := scan(&c.ID, &c.Code, &c.DiscountType, &c.DiscountValue,
		&c.StartDate, &c.ExpiryDate, &c.UsageLimit, &c.UsedCount,
		&plans, &c.Status, &c.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, models.ErrCouponInvalid)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if len(plans) > 0 {
		if err := json.Unmarshal(plans, &c.ApplicablePlans); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}
	return c, nil
}
