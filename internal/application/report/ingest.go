package report

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stocktrack-api/internal/domain"
	"github.com/jhoicas/stocktrack-api/internal/domain/entity"
)

// StockTx es una transacción tipada tal como llega en un fragmento de reporte,
// antes de resolver códigos contra el catálogo y de persistir.
type StockTx struct {
	ProductCode string
	Action      entity.Action
	SubAction   entity.SubAction
	Quantity    decimal.NullDecimal // nula solo para stockout
}

// ProductGroup agrupa las transacciones de un producto dentro de un reporte,
// ya ordenadas por prioridad de acción.
type ProductGroup struct {
	ProductCode string
	Txs         []StockTx
}

// Mapa de códigos de acción de la gramática SMS: "<producto> <acción>[ <cantidad>]".
var actionCodes = map[string]struct {
	action    entity.Action
	subaction entity.SubAction
}{
	"r":   {entity.ActionReceipt, entity.SubActionNone},
	"c":   {entity.ActionConsumption, entity.SubActionNone},
	"soh": {entity.ActionStockOnHand, entity.SubActionNone},
	"so":  {entity.ActionStockOut, entity.SubActionNone},
	"l":   {entity.ActionConsumption, entity.SubActionLoss},
}

// Prioridad de aplicación dentro de un reporte: los efectos aditivos (receipt,
// consumption) siempre van antes que los de checkpoint/reset (stockonhand,
// stockout), sin importar el orden en que se escribieron los fragmentos.
var actionPriority = map[entity.Action]int{
	entity.ActionReceipt:     0,
	entity.ActionConsumption: 1,
	entity.ActionStockOnHand: 2,
	entity.ActionStockOut:    3,
}

// ParseReport convierte los fragmentos crudos de un reporte en grupos de
// transacciones tipadas por producto. El rechazo es atómico: cualquier
// fragmento malformado (código de acción desconocido, cantidad requerida
// ausente o no numérica) invalida el reporte completo con ErrInvalidInput.
//
// Los grupos conservan el orden de primera aparición del producto; dentro de
// cada grupo las transacciones quedan establemente ordenadas por prioridad de
// acción (los empates conservan el orden relativo original).
func ParseReport(fragments []string) ([]ProductGroup, error) {
	if len(fragments) == 0 {
		return nil, domain.ErrInvalidInput
	}

	index := make(map[string]int)
	var groups []ProductGroup
	for _, frag := range fragments {
		tx, err := parseFragment(frag)
		if err != nil {
			return nil, err
		}
		i, seen := index[tx.ProductCode]
		if !seen {
			i = len(groups)
			index[tx.ProductCode] = i
			groups = append(groups, ProductGroup{ProductCode: tx.ProductCode})
		}
		groups[i].Txs = append(groups[i].Txs, tx)
	}

	for i := range groups {
		txs := groups[i].Txs
		sort.SliceStable(txs, func(a, b int) bool {
			return actionPriority[txs[a].Action] < actionPriority[txs[b].Action]
		})
	}
	return groups, nil
}

// parseFragment parsea "<producto> <acción>[ <cantidad>]".
func parseFragment(frag string) (StockTx, error) {
	fields := strings.Fields(frag)
	if len(fields) < 2 || len(fields) > 3 {
		return StockTx{}, domain.ErrInvalidInput
	}

	code, ok := actionCodes[fields[1]]
	if !ok {
		return StockTx{}, domain.ErrInvalidInput
	}

	tx := StockTx{
		ProductCode: fields[0],
		Action:      code.action,
		SubAction:   code.subaction,
	}

	// La cantidad es obligatoria para toda acción salvo stockout.
	if len(fields) == 3 {
		qty, err := decimal.NewFromString(fields[2])
		if err != nil || qty.IsNegative() {
			return StockTx{}, domain.ErrInvalidInput
		}
		tx.Quantity = decimal.NewNullDecimal(qty)
	} else if tx.Action != entity.ActionStockOut {
		return StockTx{}, domain.ErrInvalidInput
	}
	return tx, nil
}
