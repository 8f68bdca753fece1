package postgres

import (
	"context"
	"time"

	"github.com/joao-fontenele/storefront-orders/internal/domain"
)

func (t *txn) InsertReservation(ctx context.Context, r domain.Reservation) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO active_reservations (order_id, created_at)
		VALUES ($1, $2)
	`, r.OrderID, r.CreatedAt)
	if err != nil {
		return mapInsertError(err, "reservation for order "+r.OrderID)
	}
	return nil
}

func (t *txn) DeleteReservation(ctx context.Context, orderID string) (bool, error) {
	result, err := t.tx.ExecContext(ctx, `
		DELETE FROM active_reservations WHERE order_id = $1
	`, orderID)
	if err != nil {
		return false, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rowsAffected > 0, nil
}

// ReservationsBefore does not lock the returned rows. Callers lock the order
// first and then delete the entry, which keeps the lock order the same as
// Cancel and Pay.
func (t *txn) ReservationsBefore(ctx context.Context, cutoff time.Time) ([]domain.Reservation, error) {
	rows, err := t.tx.QueryContext(ctx, `
		SELECT order_id, created_at
		FROM active_reservations
		WHERE created_at < $1
		ORDER BY created_at, order_id
	`, cutoff)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var reservations []domain.Reservation
	for rows.Next() {
		var r domain.Reservation
		if err := rows.Scan(&r.OrderID, &r.CreatedAt); err != nil {
			return nil, err
		}
		reservations = append(reservations, r)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return reservations, nil
}
