package repository

import (
	"time"

	"github.com/jhoicas/stocktrack-api/internal/domain/entity"
)

// StockStateRepository define el puerto de persistencia de snapshots de estado.
// Los snapshots se agregan, nunca se editan, con una única excepción:
// UpdateConsumptionRate escribe la tasa sobre el snapshot con timestamp exacto.
type StockStateRepository interface {
	// Latest devuelve el snapshot más reciente de la clave, o (nil, nil) si nunca
	// se ha reportado.
	Latest(locationID, productID string) (*entity.StockState, error)
	// LatestForUpdate es Latest con bloqueo exclusivo de la fila (SELECT FOR
	// UPDATE) dentro de la transacción en curso.
	LatestForUpdate(locationID, productID string) (*entity.StockState, error)
	Append(state *entity.StockState) error
	// UpdateConsumptionRate actualiza in place la tasa del snapshot (clave, at).
	// rate nil significa "sin estimación". Escritura atómica de un solo campo.
	UpdateConsumptionRate(locationID, productID string, at time.Time, rate *float64) error
}
