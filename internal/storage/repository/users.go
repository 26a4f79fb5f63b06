package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/nurmohammad56/luxe-tracker/internal/models"
)

// RegisterUser сохраняет нового пользователя в базу данных и возвращает его UID.
func (s *Storage) RegisterUser(ctx context.Context, user models.User) (string, error) {
	const op = "storage.RegisterUser"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var newID string
	query := `INSERT INTO users (name, email, username, password_hash, role, local_tax,
			      enable_notifications, current_plan)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			  RETURNING uid;`
	if err := s.DB.QueryRowContext(ctx, query,
		user.Name, user.Email, user.Username, user.PasswordHash, user.Role,
		user.LocalTax, user.EnableNotifications, user.CurrentPlan).Scan(&newID); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// GetUserByUsername возвращает пользователя по его username.
func (s *Storage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	const op = "storage.GetUserByUsername"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT uid, name, email, username, password_hash, role, local_tax,
			      enable_notifications, current_plan, subscription_id,
			      total_savings, avg_savings, created_at
			  FROM users
			  WHERE username = $1`
	return s.scanUser(s.DB.QueryRowContext(ctx, query, username), op)
}

// GetUser возвращает пользователя по его UID.
func (s *Storage) GetUser(ctx context.Context, userUID string) (*models.User, error) {
	const op = "storage.GetUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT uid, name, email, username, password_hash, role, local_tax,
			      enable_notifications, current_plan, subscription_id,
			      total_savings, avg_savings, created_at
			  FROM users
			  WHERE uid = $1`
	return s.scanUser(s.DB.QueryRowContext(ctx, query, userUID), op)
}

func (s *Storage) scanUser(row *sql.Row, op string) (*models.User, error) {
	u := &models.User{}
	var subscriptionID sql.NullInt64
	if err := row.Scan(&u.UID, &u.Name, &u.Email, &u.Username, &u.PasswordHash,
		&u.Role, &u.LocalTax, &u.EnableNotifications, &u.CurrentPlan,
		&subscriptionID, &u.TotalSavings, &u.AvgSavings, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, models.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if subscriptionID.Valid {
		id := int(subscriptionID.Int64)
		u.SubscriptionID = &id
	}
	return u, nil
}

// UpdateProfile обновляет имя, локальный налог и флаг уведомлений пользователя.
func (s *Storage) UpdateProfile(ctx context.Context, userUID string, entry models.DummyUpdateProfile) error {
	const op = "storage.UpdateProfile"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users
			  SET name = COALESCE(NULLIF($1, ''), name),
			      local_tax = COALESCE(NULLIF($2, ''), local_tax),
			      enable_notifications = COALESCE($3, enable_notifications)
			  WHERE uid = $4`
	res, err := s.DB.ExecContext(ctx, query, entry.Name, entry.LocalTax, entry.EnableNotifications, userUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%s: %w", op, models.ErrNotFound)
	}
	return nil
}

// UpdatePassword заменяет хэш пароля пользователя.
func (s *Storage) UpdatePassword(ctx context.Context, userUID, passwordHash string) error {
	const op = "storage.UpdatePassword"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users
			  SET password_hash = $1
			  WHERE uid = $2`
	res, err := s.DB.ExecContext(ctx, query, passwordHash, userUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%s: %w", op, models.ErrNotFound)
	}
	return nil
}

// RecomputeUserSavings пересчитывает агрегаты экономии пользователя в одной транзакции.
// Строка пользователя блокируется на время пересчёта, чтобы параллельные
// изменения товаров не перезаписывали друг друга устаревшими суммами.
func (s *Storage) RecomputeUserSavings(ctx context.Context, userUID string, calc func(models.Product) float64) error {
	const op = "storage.RecomputeUserSavings"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var uid string
	if err = tx.QueryRowContext(ctx,
		`SELECT uid FROM users WHERE uid = $1 FOR UPDATE`, userUID).Scan(&uid); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%s: %w", op, models.ErrNotFound)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	rows, err := tx.QueryContext(ctx, `SELECT `+productColumns+`
			  FROM products
			  WHERE user_uid = $1`, userUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	products, err := scanProducts(rows, op)
	if err != nil {
		return err
	}

	var total float64
	for _, p := range products {
		total += calc(*p)
	}
	avg := 0.0
	if len(products) > 0 {
		avg = total / float64(len(products))
	}

	if _, err = tx.ExecContext(ctx, `UPDATE users
			  SET total_savings = $1, avg_savings = $2
			  WHERE uid = $3`, total, avg, userUID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ListUsers возвращает страницу пользователей со статусом их подписки.
func (s *Storage) ListUsers(ctx context.Context, limit, offset int) ([]*models.AdminUser, error) {
	const op = "storage.ListUsers"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT u.uid, u.name, u.email, u.current_plan,
			      COALESCE(us.status, ''), u.created_at
			  FROM users u
			  LEFT JOIN user_subscriptions us ON us.id = u.subscription_id
			  ORDER BY u.created_at DESC
			  LIMIT $1 OFFSET $2`
	rows, err := s.DB.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()
	var result []*models.AdminUser
	for rows.Next() {
		var u models.AdminUser
		if err = rows.Scan(&u.UID, &u.Name, &u.Email, &u.CurrentPlan,
			&u.SubscriptionStatus, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &u)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// CountUsers возвращает общее количество пользователей.
func (s *Storage) CountUsers(ctx context.Context) (int, error) {
	const op = "storage.CountUsers"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var count int
	if err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return count, nil
}
