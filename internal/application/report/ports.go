package report

import (
	"context"
	"time"

	"github.com/jhoicas/stocktrack-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando
// repositorios atados a esa tx. Garantiza atomicidad por clave para el ledger:
// o se persisten todas las transacciones y el snapshot, o nada.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		txRepo repository.TransactionRepository,
		stateRepo repository.StockStateRepository,
	) error) error
}

// UpdateNotifier recibe el evento de actualización del ledger tras cada
// snapshot confirmado, para disparar el recálculo asíncrono de consumo.
type UpdateNotifier interface {
	Notify(locationID, productID string, at time.Time)
}

// NopNotifier descarta los eventos de actualización. Útil para cargas masivas
// (seed) donde recalcular por reporte no tiene sentido.
type NopNotifier struct{}

func (NopNotifier) Notify(string, string, time.Time) {}
