package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/joao-fontenele/storefront-orders/internal/domain"
)

func (t *txn) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	row := t.tx.QueryRowContext(ctx, `
		SELECT id, name, quantity, price
		FROM products
		WHERE id = $1
		FOR UPDATE
	`, id)

	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return p, nil
}

func (t *txn) ListProducts(ctx context.Context) ([]domain.Product, error) {
	rows, err := t.tx.QueryContext(ctx, `
		SELECT id, name, quantity, price
		FROM products
		ORDER BY name, id
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	products := []domain.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return products, nil
}

func (t *txn) InsertProduct(ctx context.Context, p *domain.Product) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}

	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO products (id, name, quantity, price, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
	`, p.ID, p.Name, nullInt(p.Quantity), nullDecimal(p.Price))
	if err != nil {
		return mapInsertError(err, "product "+p.ID)
	}
	return nil
}

func (t *txn) UpdateProduct(ctx context.Context, p *domain.Product) (bool, error) {
	result, err := t.tx.ExecContext(ctx, `
		UPDATE products
		SET name = $2, quantity = $3, price = $4, updated_at = NOW()
		WHERE id = $1
	`, p.ID, p.Name, nullInt(p.Quantity), nullDecimal(p.Price))
	if err != nil {
		return false, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rowsAffected > 0, nil
}

func (t *txn) SetProductQuantity(ctx context.Context, id string, quantity int) error {
	result, err := t.tx.ExecContext(ctx, `
		UPDATE products SET quantity = $2, updated_at = NOW()
		WHERE id = $1
	`, id, quantity)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return errors.New("product " + id + " does not exist")
	}

	return nil
}

func (t *txn) DeleteProduct(ctx context.Context, id string) error {
	_, err := t.tx.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProduct(s scanner) (*domain.Product, error) {
	var (
		p        domain.Product
		quantity sql.NullInt64
		price    decimal.NullDecimal
	)

	if err := s.Scan(&p.ID, &p.Name, &quantity, &price); err != nil {
		return nil, err
	}

	if quantity.Valid {
		q := int(quantity.Int64)
		p.Quantity = &q
	}
	if price.Valid {
		p.Price = &price.Decimal
	}

	return &p, nil
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func nullDecimal(v *decimal.Decimal) decimal.NullDecimal {
	if v == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *v, Valid: true}
}
