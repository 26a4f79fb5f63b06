package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/nurmohammad56/luxe-tracker/internal/models"
)

const paymentColumns = `id, user_uid, plan_id, price, discount, final_price,
		      transaction_id, payment_status, payment_method, coupon_used,
		      is_yearly, created_at`

// CreatePayment сохраняет платёж в статусе pending и возвращает его ID.
func (s *Storage) CreatePayment(ctx context.Context, payment models.PaymentInfo) (int, error) {
	const op = "storage.CreatePayment"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var newID int
	query := `INSERT INTO payments (user_uid, plan_id, price, discount, final_price,
			      transaction_id, payment_status, payment_method, coupon_used, is_yearly)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			  RETURNING id;`
	if err := s.DB.QueryRowContext(ctx, query,
		payment.UserUID, payment.PlanID, payment.Price, payment.Discount,
		payment.FinalPrice, payment.TransactionID, payment.PaymentStatus,
		payment.PaymentMethod, payment.CouponUsed, payment.IsYearly).Scan(&newID); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// GetPaymentByTransactionID возвращает платёж по внешнему идентификатору транзакции.
func (s *Storage) GetPaymentByTransactionID(ctx context.Context, transactionID string) (*models.PaymentInfo, error) {
	const op = "storage.GetPaymentByTransactionID"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + paymentColumns + `
			  FROM payments
			  WHERE transaction_id = $1`
	p := &models.PaymentInfo{}
	row := s.DB.QueryRowContext(ctx, query, transactionID)
	if err := row.Scan(&p.ID, &p.UserUID, &p.PlanID, &p.Price, &p.Discount,
		&p.FinalPrice, &p.TransactionID, &p.PaymentStatus, &p.PaymentMethod,
		&p.CouponUsed, &p.IsYearly, &p.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, models.ErrPaymentNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

// CompletePayment подтверждает платёж и активирует подписку в одной транзакции:
// переводит платёж из pending в complete, списывает купон, создаёт запись
// подписки и обновляет тариф пользователя. Повторное подтверждение того же
// платежа возвращает models.ErrAlreadyConfirmed и ничего не меняет.
func (s *Storage) CompletePayment(ctx context.Context, payment *models.PaymentInfo,
	planName, paymentMethod string, startDate, endDate time.Time) (*models.UserSubscription, error) {
	const op = "storage.CompletePayment"
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

	res, err := tx.ExecContext(ctx, `UPDATE payments
			  SET payment_status = $1, payment_method = $2
			  WHERE transaction_id = $3 AND payment_status = $4`,
		models.PaymentComplete, paymentMethod, payment.TransactionID, models.PaymentPending)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("%s: %w", op, models.ErrAlreadyConfirmed)
	}

	if payment.CouponUsed != "" {
		consumed, err := consumeCoupon(ctx, tx, payment.CouponUsed)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if !consumed {
			return nil, fmt.Errorf("%s: %w", op, models.ErrCouponInvalid)
		}
	}

	sub := &models.UserSubscription{
		UserUID:       payment.UserUID,
		PlanID:        payment.PlanID,
		StartDate:     startDate,
		EndDate:       endDate,
		Status:        models.SubscriptionActive,
		PaymentMethod: paymentMethod,
		TransactionID: payment.TransactionID,
		CouponUsed:    payment.CouponUsed,
	}
	if err = tx.QueryRowContext(ctx, `INSERT INTO user_subscriptions
			      (user_uid, plan_id, start_date, end_date, status,
			      payment_method, transaction_id, coupon_used)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			  RETURNING id;`,
		sub.UserUID, sub.PlanID, sub.StartDate, sub.EndDate, sub.Status,
		sub.PaymentMethod, sub.TransactionID, sub.CouponUsed).Scan(&sub.ID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if _, err = tx.ExecContext(ctx, `UPDATE user_subscriptions
			  SET status = $1
			  WHERE user_uid = $2 AND id <> $3 AND status = $4`,
		models.SubscriptionInactive, payment.UserUID, sub.ID,
		models.SubscriptionActive); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if _, err = tx.ExecContext(ctx, `UPDATE users
			  SET current_plan = $1, subscription_id = $2
			  WHERE uid = $3`, planName, sub.ID, payment.UserUID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return sub, nil
}

// MarkPaymentFailed переводит ожидающий платёж в статус failed.
func (s *Storage) MarkPaymentFailed(ctx context.Context, transactionID string) error {
	const op = "storage.MarkPaymentFailed"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	res, err := s.DB.ExecContext(ctx, `UPDATE payments
			  SET payment_status = $1
			  WHERE transaction_id = $2 AND payment_status = $3`,
		models.PaymentFailed, transactionID, models.PaymentPending)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%s: %w", op, models.ErrAlreadyConfirmed)
	}
	return nil
}

// CountPaymentsByStatus возвращает количество платежей в заданном статусе.
// Пустой статус означает все платежи.
func (s *Storage) CountPaymentsByStatus(ctx context.Context, status string) (int, error) {
	const op = "storage.CountPaymentsByStatus"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var count int
	if err := s.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM payments WHERE ($1 = '' OR payment_status = $1)`,
		status).Scan(&count); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return count, nil
}

// PaymentOverviewByMonth возвращает помесячную статистику платежей за год:
// общее количество и количество успешных.
func (s *Storage) PaymentOverviewByMonth(ctx context.Context, year int) ([]models.PaymentOverviewPoint, error) {
	const op = "storage.PaymentOverviewByMonth"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT EXTRACT(MONTH FROM created_at)::INT AS month,
			      COUNT(*),
			      COUNT(*) FILTER (WHERE payment_status = $1)
			  FROM payments
			  WHERE EXTRACT(YEAR FROM created_at) = $2
			  GROUP BY month
			  ORDER BY month`
	rows, err := s.DB.QueryContext(ctx, query, models.PaymentComplete, year)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()
	var result []models.PaymentOverviewPoint
	for rows.Next() {
		var p models.PaymentOverviewPoint
		if err = rows.Scan(&p.Month, &p.Count, &p.Success); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
