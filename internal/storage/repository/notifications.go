package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/nurmohammad56/luxe-tracker/internal/models"
)

// CreateNotification сохраняет уведомление и возвращает его ID.
func (s *Storage) CreateNotification(ctx context.Context, n models.Notification) (int, error) {
	const op = "storage.CreateNotification"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var relatedProduct sql.NullInt64
	if n.RelatedProduct != nil {
		relatedProduct = sql.NullInt64{Int64: int64(*n.RelatedProduct), Valid: true}
	}
	var newID int
	query := `INSERT INTO notifications (user_uid, title, message, type, related_product)
			  VALUES ($1, $2, $3, $4, $5)
			  RETURNING id;`
	if err := s.DB.QueryRowContext(ctx, query,
		n.UserUID, n.Title, n.Message, n.Type, relatedProduct).Scan(&newID); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// ListNotifications возвращает страницу уведомлений пользователя,
// опционально отфильтрованную по типу. Новые идут первыми.
func (s *Storage) ListNotifications(ctx context.Context, userUID, notificationType string,
	limit, offset int) ([]*models.Notification, error) {
	const op = "storage.ListNotifications"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_uid, title, message, type, related_product, is_read, created_at
			  FROM notifications
			  WHERE user_uid = $1 AND ($2 = '' OR type = $2)
			  ORDER BY created_at DESC
			  LIMIT $3 OFFSET $4`
	rows, err := s.DB.QueryContext(ctx, query, userUID, notificationType, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()
	var result []*models.Notification
	for rows.Next() {
		var n models.Notification
		var relatedProduct sql.NullInt64
		if err = rows.Scan(&n.ID, &n.UserUID, &n.Title, &n.Message, &n.Type,
			&relatedProduct, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if relatedProduct.Valid {
			id := int(relatedProduct.Int64)
			n.RelatedProduct = &id
		}
		result = append(result, &n)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// MarkNotificationsRead помечает уведомления пользователя прочитанными.
// Пустой список ID помечает все уведомления пользователя.
func (s *Storage) MarkNotificationsRead(ctx context.Context, userUID string, ids []int) (int, error) {
	const op = "storage.MarkNotificationsRead"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var res sql.Result
	var err error
	if len(ids) == 0 {
		res, err = s.DB.ExecContext(ctx, `UPDATE notifications
			  SET is_read = TRUE
			  WHERE user_uid = $1 AND is_read = FALSE`, userUID)
	} else {
		ids32 := make([]int32, len(ids))
		for i, id := range ids {
			ids32[i] = int32(id)
		}
		res, err = s.DB.ExecContext(ctx, `UPDATE notifications
			  SET is_read = TRUE
			  WHERE user_uid = $1 AND id = ANY($2)`, userUID, ids32)
	}
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(n), nil
}

// CountUnreadNotifications возвращает количество непрочитанных уведомлений пользователя.
func (s *Storage) CountUnreadNotifications(ctx context.Context, userUID string) (int, error) {
	const op = "storage.CountUnreadNotifications"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var count int
	if err := s.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications WHERE user_uid = $1 AND is_read = FALSE`,
		userUID).Scan(&count); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return count, nil
}
