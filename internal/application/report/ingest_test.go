package report_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stocktrack-api/internal/application/report"
	"github.com/jhoicas/stocktrack-api/internal/domain"
	"github.com/jhoicas/stocktrack-api/internal/domain/entity"
)

// TestParseReport_MapeoDeAcciones valida el mapa de códigos de la gramática
// SMS: r→receipt, c→consumption, soh→stockonhand, so→stockout, l→consumption/loss.
func TestParseReport_MapeoDeAcciones(t *testing.T) {
	groups, err := report.ParseReport([]string{
		"co r 30",
		"co c 5",
		"co soh 65",
		"co so",
		"co l 2",
	})
	require.NoError(t, err)
	require.Len(t, groups, 1)
	require.Len(t, groups[0].Txs, 5)
	assert.Equal(t, "co", groups[0].ProductCode)

	byAction := map[entity.Action][]report.StockTx{}
	for _, tx := range groups[0].Txs {
		byAction[tx.Action] = append(byAction[tx.Action], tx)
	}

	require.Len(t, byAction[entity.ActionReceipt], 1)
	assert.True(t, byAction[entity.ActionReceipt][0].Quantity.Decimal.Equal(decimal.NewFromInt(30)))

	require.Len(t, byAction[entity.ActionConsumption], 2, "c y l son ambos consumption")
	assert.Equal(t, entity.SubActionNone, byAction[entity.ActionConsumption][0].SubAction)
	assert.Equal(t, entity.SubActionLoss, byAction[entity.ActionConsumption][1].SubAction)

	require.Len(t, byAction[entity.ActionStockOut], 1)
	assert.False(t, byAction[entity.ActionStockOut][0].Quantity.Valid, "stockout no lleva cantidad")
}

// TestParseReport_PrioridadDeAcciones: dentro de un producto, los efectos
// aditivos van antes que los de checkpoint sin importar el orden de escritura;
// los empates conservan el orden relativo original (sort estable).
func TestParseReport_PrioridadDeAcciones(t *testing.T) {
	groups, err := report.ParseReport([]string{
		"co soh 65",
		"co c 3",
		"co r 30",
		"co c 4",
	})
	require.NoError(t, err)
	require.Len(t, groups, 1)

	txs := groups[0].Txs
	require.Len(t, txs, 4)
	assert.Equal(t, entity.ActionReceipt, txs[0].Action)
	assert.Equal(t, entity.ActionConsumption, txs[1].Action)
	assert.True(t, txs[1].Quantity.Decimal.Equal(decimal.NewFromInt(3)), "empate estable: c 3 antes que c 4")
	assert.Equal(t, entity.ActionConsumption, txs[2].Action)
	assert.True(t, txs[2].Quantity.Decimal.Equal(decimal.NewFromInt(4)))
	assert.Equal(t, entity.ActionStockOnHand, txs[3].Action)
}

// TestParseReport_AgrupaPorProducto: los grupos conservan el orden de primera
// aparición del producto.
func TestParseReport_AgrupaPorProducto(t *testing.T) {
	groups, err := report.ParseReport([]string{
		"co r 10",
		"cm soh 4",
		"co soh 12",
	})
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, "co", groups[0].ProductCode)
	assert.Len(t, groups[0].Txs, 2)
	assert.Equal(t, "cm", groups[1].ProductCode)
	assert.Len(t, groups[1].Txs, 1)
}

// TestParseReport_RechazoAtomico: cualquier fragmento inválido rechaza el
// reporte entero con ErrInvalidInput.
func TestParseReport_RechazoAtomico(t *testing.T) {
	cases := []struct {
		name      string
		fragments []string
	}{
		{"accion desconocida", []string{"co r 30", "co xyz 5"}},
		{"cantidad requerida ausente", []string{"co r"}},
		{"soh sin cantidad", []string{"co soh"}},
		{"cantidad no numerica", []string{"co r treinta"}},
		{"cantidad negativa", []string{"co r -5"}},
		{"fragmento vacio", []string{""}},
		{"demasiados campos", []string{"co r 30 40"}},
		{"reporte vacio", nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			groups, err := report.ParseReport(tc.fragments)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
			assert.Nil(t, groups, "no debe haber ingestión parcial")
		})
	}
}
