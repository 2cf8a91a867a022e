package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Action tipo de transacción de stock reportada o sintetizada.
type Action string

const (
	ActionReceipt     Action = "receipt"     // entrada de stock
	ActionConsumption Action = "consumption" // salida de stock
	ActionStockOnHand Action = "stockonhand" // nivel reportado (checkpoint)
	ActionStockOut    Action = "stockout"    // agotamiento reportado
)

// SubAction califica una transacción. Las que empiezan con "_" son
// reconciliaciones sintetizadas por el ledger, nunca reportadas.
type SubAction string

const (
	SubActionNone     SubAction = ""
	SubActionLoss     SubAction = "loss"      // pérdida/merma (reportada como consumo)
	SubActionInitial  SubAction = "_initial"  // reconciliación del primer reporte de la clave
	SubActionInferred SubAction = "_inferred" // reconciliación inferida contra el stock calculado
)

// Transaction representa un movimiento de stock para una clave (bodega, producto).
// Inmutable una vez persistida; el historial es append-only, nunca se edita ni borra.
// Quantity es nula solo para stockout.
type Transaction struct {
	ID           string
	LocationID   string
	ProductID    string
	Action       Action
	SubAction    SubAction
	Quantity     decimal.NullDecimal
	At           time.Time
	SubmissionID string
	Seq          int // orden de persistencia dentro del reporte (desempate con At)
}

// IsStockout indica si la transacción invalida el periodo de consumo en curso:
// un stockout explícito, o un stockonhand con cantidad exactamente cero.
func (t *Transaction) IsStockout() bool {
	if t.Action == ActionStockOut {
		return true
	}
	return t.Action == ActionStockOnHand && t.Quantity.Valid && t.Quantity.Decimal.IsZero()
}

// IsCheckpoint indica si la transacción es un checkpoint autoritativo del nivel
// de stock (stockonhand con cantidad distinta de cero).
func (t *Transaction) IsCheckpoint() bool {
	return t.Action == ActionStockOnHand && !t.IsStockout()
}
