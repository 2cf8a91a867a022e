// Package consumption implementa el estimador puro de tasa de consumo.
//
// El historial de transacciones de una clave se segmenta en periodos acotados
// por checkpoints (stockonhand > 0). Un stockout descarta el periodo abierto:
// el consumo acumulado desde el último checkpoint es incognoscible una vez que
// hubo agotamiento, así que no se cuenta. Los periodos se normalizan a la
// ventana de promediado y se aplican umbrales de significancia estadística
// antes de devolver una tasa mensual.
package consumption

import (
	"iter"
	"time"

	"github.com/jhoicas/stocktrack-api/internal/domain/entity"
)

// DaysPerMonth días promedio por mes (año gregoriano / 12).
const DaysPerMonth = 365.2425 / 12

// Params umbrales y opciones del estimador.
type Params struct {
	MinPeriods     int     // mínimo de periodos con peso dentro de la ventana
	MinWindowDays  float64 // mínimo de días normalizados acumulados
	ThroughPresent bool    // cerrar el periodo abierto en windowEnd
}

// Period es un periodo de consumo efímero: el tramo entre un checkpoint y el
// siguiente checkpoint/stockout/fin de ventana. Nunca se persiste.
type Period struct {
	Start       time.Time
	End         time.Time
	Consumption float64 // acumulador de consumo crudo dentro del periodo
}

// Length días entre inicio y fin del periodo.
func (p Period) Length() float64 {
	return spanDays(p.Start, p.End)
}

// NormalizedLength días de solapamiento del periodo con la ventana de
// promediado que empieza en windowStart. Un periodo enteramente anterior a la
// ventana queda con longitud cero.
func (p Period) NormalizedLength(windowStart time.Time) float64 {
	return spanDays(maxTime(p.Start, windowStart), maxTime(p.End, windowStart))
}

// NormalizedConsumption reparte el consumo linealmente a la fracción del
// periodo dentro de la ventana. Un periodo de longitud cero (checkpoints
// consecutivos sin tiempo transcurrido) aporta cero en lugar de dividir por cero.
func (p Period) NormalizedConsumption(windowStart time.Time) float64 {
	length := p.Length()
	if length == 0 {
		return 0
	}
	return p.Consumption * p.NormalizedLength(windowStart) / length
}

// Periods segmenta el historial en periodos de consumo, como secuencia perezosa
// de un solo paso. Reglas, recorriendo las transacciones en orden con a lo sumo
// un periodo abierto:
//
//   - checkpoint (stockonhand > 0): cierra y emite el periodo abierto, y abre
//     uno nuevo en ese instante;
//   - stockout (stockout, o stockonhand == 0): descarta el periodo abierto sin
//     emitirlo;
//   - consumption: suma su cantidad al acumulador del periodo abierto; si no
//     hay periodo abierto se ignora;
//   - receipt: no afecta la segmentación ni la acumulación.
//
// Si throughPresent y queda un periodo abierto al agotar el historial, se
// cierra en windowEnd y se emite.
func Periods(history []*entity.Transaction, windowEnd time.Time, throughPresent bool) iter.Seq[Period] {
	return func(yield func(Period) bool) {
		var open *Period
		for _, tx := range history {
			switch {
			case tx.IsCheckpoint():
				if open != nil {
					open.End = tx.At
					if !yield(*open) {
						return
					}
				}
				open = &Period{Start: tx.At}
			case tx.IsStockout():
				open = nil
			case tx.Action == entity.ActionConsumption:
				if open != nil && tx.Quantity.Valid {
					open.Consumption += tx.Quantity.Decimal.InexactFloat64()
				}
			}
		}
		if throughPresent && open != nil {
			open.End = windowEnd
			yield(*open)
		}
	}
}

// Estimate calcula la tasa media de consumo mensual de una clave sobre la
// ventana [windowStart, windowEnd]. history debe ser el historial ordenado
// devuelto por TransactionRepository.ListForEstimate (anclado en el último
// checkpoint anterior a la ventana).
//
// Devuelve ok=false cuando los datos no alcanzan los umbrales de Params:
// "sin estimación" es un resultado válido, distinto de una tasa cero.
func Estimate(history []*entity.Transaction, windowStart, windowEnd time.Time, params Params) (rate float64, ok bool) {
	var count int
	var totalConsumption, totalLength float64
	for period := range Periods(history, windowEnd, params.ThroughPresent) {
		// excluye periodos enteramente anteriores a la ventana (y los de longitud cero)
		length := period.NormalizedLength(windowStart)
		if length <= 0 {
			continue
		}
		count++
		totalConsumption += period.NormalizedConsumption(windowStart)
		totalLength += length
	}

	if count < params.MinPeriods || totalLength < params.MinWindowDays {
		return 0, false
	}
	if totalLength == 0 {
		return 0, false
	}
	return totalConsumption / totalLength * DaysPerMonth, true
}

func spanDays(start, end time.Time) float64 {
	return end.Sub(start).Seconds() / 86400
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}
