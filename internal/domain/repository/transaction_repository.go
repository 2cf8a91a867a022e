package repository

import (
	"time"

	"github.com/jhoicas/stocktrack-api/internal/domain/entity"
)

// TransactionRepository define el puerto de persistencia de transacciones de
// stock. El historial es append-only: solo Create, nunca update ni delete.
type TransactionRepository interface {
	Create(tx *entity.Transaction) error
	// ListForEstimate devuelve el historial ordenado (At, Seq) de una clave para
	// el estimador de consumo. El inicio efectivo se ancla en el último
	// stockonhand/stockout estrictamente anterior a windowStart (para que el
	// primer periodo tenga checkpoint de apertura); si no existe, en windowStart.
	ListForEstimate(locationID, productID string, windowStart, windowEnd time.Time) ([]*entity.Transaction, error)
}
