package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockState es un snapshot del estado de stock de una clave (bodega, producto)
// tras procesar un reporte. El historial es una secuencia de snapshots ordenada
// por At; el estado "actual" es el más reciente. Invariante: CurrentStock nunca
// es negativo en un snapshot persistido.
//
// ConsumptionRate es el único campo que se actualiza in place (lo escribe el
// recalculador de consumo, dirigido al snapshot con timestamp exacto At).
// Nil significa "sin estimación" (datos insuficientes), distinto de tasa cero.
type StockState struct {
	ID              string
	LocationID      string
	ProductID       string
	At              time.Time
	CurrentStock    decimal.Decimal
	LastReportedAt  *time.Time // último stockonhand/stockout reportado
	StockOutSince   *time.Time // inicio del agotamiento en curso; nil si hay stock
	ConsumptionRate *float64   // unidades por mes (30.4368 días)
}
