package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/joao-fontenele/storefront-orders/internal/domain"
)

func (t *txn) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	order := &domain.Order{}

	err := t.tx.QueryRowContext(ctx, `
		SELECT id, state, created_at, updated_at
		FROM orders
		WHERE id = $1
		FOR UPDATE
	`, id).Scan(&order.ID, &order.State, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	rows, err := t.tx.QueryContext(ctx, `
		SELECT product_id, quantity
		FROM order_items
		WHERE order_id = $1
		ORDER BY position
	`, id)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(&item.ProductID, &item.Quantity); err != nil {
			return nil, err
		}
		order.Items = append(order.Items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return order, nil
}

func (t *txn) InsertOrder(ctx context.Context, order *domain.Order) error {
	if order.ID == "" {
		order.ID = uuid.New().String()
	}

	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO orders (id, state, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
	`, order.ID, order.State, order.CreatedAt, order.UpdatedAt)
	if err != nil {
		return mapInsertError(err, "order "+order.ID)
	}

	for i, item := range order.Items {
		_, err = t.tx.ExecContext(ctx, `
			INSERT INTO order_items (order_id, position, product_id, quantity)
			VALUES ($1, $2, $3, $4)
		`, order.ID, i, item.ProductID, item.Quantity)
		if err != nil {
			return err
		}
	}

	return nil
}

func (t *txn) UpdateOrderState(ctx context.Context, id string, state domain.OrderState, at time.Time) error {
	result, err := t.tx.ExecContext(ctx, `
		UPDATE orders SET state = $2, updated_at = $3
		WHERE id = $1
	`, id, state, at)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return errors.New("order " + id + " does not exist")
	}

	return nil
}
