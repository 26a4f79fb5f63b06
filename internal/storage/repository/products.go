package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/nurmohammad56/luxe-tracker/internal/models"
)

const productColumns = `id, user_uid, name, brand, category, home_price, home_country,
		      home_currency, foreign_comparisons, note, is_saved, is_purchase,
		      vat_refund_percent, created_at, updated_at`

// CreateProduct сохраняет товар пользователя и возвращает его ID.
func (s *Storage) CreateProduct(ctx context.Context, product models.Product) (int, error) {
	const op = "storage.CreateProduct"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	comparisons, err := json.Marshal(product.ForeignComparisons)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	var newID int
	query := `INSERT INTO products (user_uid, name, brand, category, home_price,
			      home_country, home_currency, foreign_comparisons, note,
			      is_saved, is_purchase, vat_refund_percent)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			  RETURNING id;`
	if err = s.DB.QueryRowContext(ctx, query,
		product.UserUID, product.Name, product.Brand, product.Category,
		product.HomePrice, product.HomeCountry, product.HomeCurrency,
		comparisons, product.Note, product.IsSaved, product.IsPurchase,
		product.VATRefundPercent).Scan(&newID); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// ReadProduct возвращает товар пользователя по ID.
func (s *Storage) ReadProduct(ctx context.Context, id int, userUID string) (*models.Product, error) {
	const op = "storage.ReadProduct"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + productColumns + `
			  FROM products
			  WHERE id = $1 AND user_uid = $2`
	row := s.DB.QueryRowContext(ctx, query, id, userUID)
	p, err := scanProduct(row.Scan, op)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// UpdateProduct полностью заменяет изменяемые поля товара.
func (s *Storage) UpdateProduct(ctx context.Context, id int, userUID string, product models.Product) error {
	const op = "storage.UpdateProduct"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	comparisons, err := json.Marshal(product.ForeignComparisons)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	query := `UPDATE products
			  SET name = $1, brand = $2, category = $3, home_price = $4,
			      home_country = $5, home_currency = $6, foreign_comparisons = $7,
			      note = $8, is_saved = $9, is_purchase = $10,
			      vat_refund_percent = $11, updated_at = NOW()
			  WHERE id = $12 AND user_uid = $13`
	res, err := s.DB.ExecContext(ctx, query,
		product.Name, product.Brand, product.Category, product.HomePrice,
		product.HomeCountry, product.HomeCurrency, comparisons, product.Note,
		product.IsSaved, product.IsPurchase, product.VATRefundPercent, id, userUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%s: %w", op, models.ErrNotFound)
	}
	return nil
}

// RemoveProduct удаляет товар пользователя и возвращает количество удалённых строк.
func (s *Storage) RemoveProduct(ctx context.Context, id int, userUID string) (int, error) {
	const op = "storage.RemoveProduct"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	res, err := s.DB.ExecContext(ctx,
		`DELETE FROM products WHERE id = $1 AND user_uid = $2`, id, userUID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(n), nil
}

// TogglePurchase переключает флаг "куплено" и возвращает новое значение.
func (s *Storage) TogglePurchase(ctx context.Context, id int, userUID string) (bool, error) {
	const op = "storage.TogglePurchase"
	select {
	case <-ctx.Done():
		return false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE products
			  SET is_purchase = NOT is_purchase, updated_at = NOW()
			  WHERE id = $1 AND user_uid = $2
			  RETURNING is_purchase`
	var isPurchase bool
	if err := s.DB.QueryRowContext(ctx, query, id, userUID).Scan(&isPurchase); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, fmt.Errorf("%s: %w", op, models.ErrNotFound)
		}
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return isPurchase, nil
}

// ListProducts возвращает страницу товаров пользователя по фильтру.
func (s *Storage) ListProducts(ctx context.Context, filter models.ProductFilter) ([]*models.Product, error) {
	const op = "storage.ListProducts"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var sb strings.Builder
	sb.WriteString(`SELECT ` + productColumns + ` FROM products WHERE user_uid = $1`)
	args := []any{filter.UserUID}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		fmt.Fprintf(&sb, ` AND (name ILIKE $%d OR brand ILIKE $%d)`, len(args), len(args))
	}
	if filter.Category != "" {
		args = append(args, filter.Category)
		fmt.Fprintf(&sb, ` AND category = $%d`, len(args))
	}
	if filter.Brand != "" {
		args = append(args, filter.Brand)
		fmt.Fprintf(&sb, ` AND brand = $%d`, len(args))
	}
	if filter.Country != "" {
		args = append(args, filter.Country)
		fmt.Fprintf(&sb, ` AND (home_country = $%d OR EXISTS (
				SELECT 1 FROM jsonb_array_elements(foreign_comparisons) c
				WHERE c->>'country' = $%d))`, len(args), len(args))
	}
	sb.WriteString(` ORDER BY created_at DESC`)
	args = append(args, filter.Limit)
	fmt.Fprintf(&sb, ` LIMIT $%d`, len(args))
	args = append(args, filter.Offset)
	fmt.Fprintf(&sb, ` OFFSET $%d`, len(args))

	rows, err := s.DB.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return scanProducts(rows, op)
}

// CountProductsByUser возвращает количество товаров пользователя.
func (s *Storage) CountProductsByUser(ctx context.Context, userUID string) (int, error) {
	const op = "storage.CountProductsByUser"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var count int
	if err := s.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM products WHERE user_uid = $1`, userUID).Scan(&count); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return count, nil
}

// SumHomePriceByUser возвращает сумму домашних цен всех товаров пользователя.
func (s *Storage) SumHomePriceByUser(ctx context.Context, userUID string) (float64, error) {
	const op = "storage.SumHomePriceByUser"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var sum float64
	if err := s.DB.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(home_price), 0) FROM products WHERE user_uid = $1`,
		userUID).Scan(&sum); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return sum, nil
}

func scanProduct(scan func(dest ...any) error, op string) (*models.Product, error) {
	var p models.Product
	var comparisons []byte
	if err := scan(&p.ID, &p.UserUID, &p.Name, &p.Brand, &p.Category,
		&p.HomePrice, &p.HomeCountry, &p.HomeCurrency, &comparisons, &p.Note,
		&p.IsSaved, &p.IsPurchase, &p.VATRefundPercent,
		&p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, models.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if len(comparisons) > 0 {
		if err := json.Unmarshal(comparisons, &p.ForeignComparisons); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}
	return &p, nil
}

func scanProducts(rows *sql.Rows, op string) ([]*models.Product, error) {
	defer func() {
		_ = rows.Close()
	}()
	var result []*models.Product
	for rows.Next() {
		p, err := scanProduct(rows.Scan, op)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
