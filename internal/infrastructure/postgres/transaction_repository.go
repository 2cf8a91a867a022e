package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/stocktrack-api/internal/domain/entity"
	"github.com/jhoicas/stocktrack-api/internal/domain/repository"
)

var _ repository.TransactionRepository = (*TransactionRepo)(nil)

// TransactionRepo implementación de TransactionRepository sobre PostgreSQL
// (usable con pool o tx). La tabla es append-only: no hay UPDATE ni DELETE.
type TransactionRepo struct {
	q Querier
}

// NewTransactionRepository construye el adaptador. Pasar pool o tx (Querier).
func NewTransactionRepository(q Querier) *TransactionRepo {
	return &TransactionRepo{q: q}
}

// Create persiste una transacción de stock.
func (r *TransactionRepo) Create(tx *entity.Transaction) error {
	if tx.ID == "" {
		tx.ID = uuid.New().String()
	}
	query := `
		INSERT INTO stock_transactions (id, location_id, product_id, action, subaction, quantity, at, submission_id, seq)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.q.Exec(context.Background(), query,
		tx.ID, tx.LocationID, tx.ProductID, string(tx.Action), string(tx.SubAction),
		tx.Quantity, tx.At, tx.SubmissionID, tx.Seq,
	)
	if err != nil {
		return fmt.Errorf("create stock transaction: %w", err)
	}
	return nil
}

// ListForEstimate devuelve el historial ordenado de una clave para el
// estimador, anclando el inicio efectivo en el último stockonhand/stockout
// estrictamente anterior a windowStart (o en windowStart si no existe).
func (r *TransactionRepo) ListForEstimate(locationID, productID string, windowStart, windowEnd time.Time) ([]*entity.Transaction, error) {
	query := `
		WITH anchor AS (
			SELECT max(at) AS at FROM stock_transactions
			WHERE location_id = $1 AND product_id = $2
			  AND action IN ('stockonhand', 'stockout')
			  AND at < $3
		)
		SELECT id, location_id, product_id, action, subaction, quantity, at, submission_id, seq
		FROM stock_transactions
		WHERE location_id = $1 AND product_id = $2
		  AND at >= COALESCE((SELECT at FROM anchor), $3)
		  AND at <= $4
		ORDER BY at, seq`
	rows, err := r.q.Query(context.Background(), query, locationID, productID, windowStart, windowEnd)
	if err != nil {
		return nil, fmt.Errorf("list transactions for estimate: %w", err)
	}
	defer rows.Close()

	var out []*entity.Transaction
	for rows.Next() {
		var tx entity.Transaction
		var action, subaction string
		if err := rows.Scan(
			&tx.ID, &tx.LocationID, &tx.ProductID, &action, &subaction,
			&tx.Quantity, &tx.At, &tx.SubmissionID, &tx.Seq,
		); err != nil {
			return nil, fmt.Errorf("scan stock transaction: %w", err)
		}
		tx.Action = entity.Action(action)
		tx.SubAction = entity.SubAction(subaction)
		out = append(out, &tx)
	}
	return out, rows.Err()
}
