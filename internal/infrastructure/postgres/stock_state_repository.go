package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/stocktrack-api/internal/domain"
	"github.com/jhoicas/stocktrack-api/internal/domain/entity"
	"github.com/jhoicas/stocktrack-api/internal/domain/repository"
)

var _ repository.StockStateRepository = (*StockStateRepo)(nil)

// StockStateRepo implementación de StockStateRepository sobre PostgreSQL
// (usable con pool o tx). Los snapshots se agregan; solo consumption_rate se
// actualiza in place.
type StockStateRepo struct {
	q Querier
}

// NewStockStateRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockStateRepository(q Querier) *StockStateRepo {
	return &StockStateRepo{q: q}
}

const stockStateColumns = `id, location_id, product_id, at, current_stock, last_reported_at, stock_out_since, consumption_rate`

// Latest devuelve el snapshot más reciente de la clave. (nil, nil) si no hay.
func (r *StockStateRepo) Latest(locationID, productID string) (*entity.StockState, error) {
	query := `
		SELECT ` + stockStateColumns + `
		FROM stock_states WHERE location_id = $1 AND product_id = $2
		ORDER BY at DESC LIMIT 1`
	return r.scanOne(query, locationID, productID)
}

// LatestForUpdate es Latest con bloqueo de fila (SELECT FOR UPDATE): reportes
// concurrentes a la misma clave también se serializan a nivel de BD.
func (r *StockStateRepo) LatestForUpdate(locationID, productID string) (*entity.StockState, error) {
	query := `
		SELECT ` + stockStateColumns + `
		FROM stock_states WHERE location_id = $1 AND product_id = $2
		ORDER BY at DESC LIMIT 1
		FOR UPDATE`
	return r.scanOne(query, locationID, productID)
}

func (r *StockStateRepo) scanOne(query string, args ...any) (*entity.StockState, error) {
	var s entity.StockState
	err := r.q.QueryRow(context.Background(), query, args...).Scan(
		&s.ID, &s.LocationID, &s.ProductID, &s.At, &s.CurrentStock,
		&s.LastReportedAt, &s.StockOutSince, &s.ConsumptionRate,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get stock state: %w", err)
	}
	return &s, nil
}

// Append agrega un snapshot nuevo al historial de la clave.
func (r *StockStateRepo) Append(state *entity.StockState) error {
	if state.ID == "" {
		state.ID = uuid.New().String()
	}
	query := `
		INSERT INTO stock_states (` + stockStateColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.q.Exec(context.Background(), query,
		state.ID, state.LocationID, state.ProductID, state.At, state.CurrentStock,
		state.LastReportedAt, state.StockOutSince, state.ConsumptionRate,
	)
	if err != nil {
		return fmt.Errorf("append stock state: %w", err)
	}
	return nil
}

// UpdateConsumptionRate escribe la tasa sobre el snapshot con timestamp exacto.
// Un solo UPDATE atómico; rate nil guarda NULL ("sin estimación").
func (r *StockStateRepo) UpdateConsumptionRate(locationID, productID string, at time.Time, rate *float64) error {
	query := `
		UPDATE stock_states SET consumption_rate = $4
		WHERE location_id = $1 AND product_id = $2 AND at = $3`
	tag, err := r.q.Exec(context.Background(), query, locationID, productID, at, rate)
	if err != nil {
		return fmt.Errorf("update consumption rate: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
