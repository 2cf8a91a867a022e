package consumption_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appconsumption "github.com/jhoicas/stocktrack-api/internal/application/consumption"
	domconsumption "github.com/jhoicas/stocktrack-api/internal/domain/consumption"
	"github.com/jhoicas/stocktrack-api/internal/domain/entity"
	"github.com/jhoicas/stocktrack-api/internal/infrastructure/memory"
	"github.com/jhoicas/stocktrack-api/pkg/config"
	"github.com/jhoicas/stocktrack-api/pkg/logger"
)

const (
	testLoc  = "loc-1"
	testProd = "prod-1"
)

// seedHistory escribe un historial con dos periodos de consumo (5 unidades en
// 10 días y 10 unidades en 10 días) y el snapshot objetivo en at.
func seedHistory(t *testing.T, txs *memory.TransactionRepo, states *memory.StockStateRepo, at time.Time) {
	t.Helper()

	day := func(n int) time.Time { return at.AddDate(0, 0, -n) }
	history := []struct {
		action  entity.Action
		daysAgo int
		qty     float64
	}{
		{entity.ActionStockOnHand, 30, 100},
		{entity.ActionConsumption, 25, 5},
		{entity.ActionStockOnHand, 20, 95},
		{entity.ActionConsumption, 15, 10},
		{entity.ActionStockOnHand, 10, 85},
	}
	for i, h := range history {
		require.NoError(t, txs.Create(&entity.Transaction{
			LocationID: testLoc,
			ProductID:  testProd,
			Action:     h.action,
			Quantity:   decimal.NewNullDecimal(decimal.NewFromFloat(h.qty)),
			At:         day(h.daysAgo),
			Seq:        i,
		}))
	}
	require.NoError(t, states.Append(&entity.StockState{
		LocationID:   testLoc,
		ProductID:    testProd,
		At:           at,
		CurrentStock: decimal.NewFromInt(85),
	}))
}

func testConfig(delay time.Duration) config.ConsumptionConfig {
	return config.ConsumptionConfig{
		WindowDays:    60,
		MinPeriods:    2,
		MinWindowDays: 10,
		Delay:         delay,
		Workers:       2,
	}
}

// waitForRate espera a que el snapshot objetivo tenga tasa escrita.
func waitForRate(t *testing.T, states *memory.StockStateRepo, at time.Time) *float64 {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		for _, s := range states.All() {
			if s.At.Equal(at) && s.ConsumptionRate != nil {
				return s.ConsumptionRate
			}
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("la tasa de consumo nunca se escribió en el snapshot objetivo")
	return nil
}

// TestUpdater_EscribeTasaEnSnapshotExacto: tras un evento del ledger, el
// recalculador estima sobre la ventana de 60 días y escribe la tasa en el
// snapshot cuyo timestamp coincide con el del evento.
func TestUpdater_EscribeTasaEnSnapshotExacto(t *testing.T) {
	txs := memory.NewTransactionRepository()
	states := memory.NewStockStateRepository()
	at := time.Now().Truncate(time.Second)
	seedHistory(t, txs, states, at)

	u := appconsumption.NewUpdater(txs, states, testConfig(0), logger.Nop())
	u.Start(context.Background())
	defer u.Stop()

	u.Notify(testLoc, testProd, at)

	rate := waitForRate(t, states, at)
	// 15 unidades en 20 días normalizados, con la ventana cerrando 10 días
	// después del último checkpoint: el periodo abierto (consumo 0) también
	// cuenta hasta windowEnd
	want := 15.0 / 30.0 * domconsumption.DaysPerMonth
	assert.InDelta(t, want, *rate, 1e-9)
}

// TestUpdater_DatosInsuficientesEscribeNulo: con umbrales no alcanzados la
// tarea corre igual y deja la tasa en nil (sin estimación ≠ tasa cero).
func TestUpdater_DatosInsuficientesEscribeNulo(t *testing.T) {
	txs := memory.NewTransactionRepository()
	states := memory.NewStockStateRepository()
	at := time.Now().Truncate(time.Second)

	// un solo checkpoint: nunca alcanza minPeriods=2
	require.NoError(t, txs.Create(&entity.Transaction{
		LocationID: testLoc,
		ProductID:  testProd,
		Action:     entity.ActionStockOnHand,
		Quantity:   decimal.NewNullDecimal(decimal.NewFromInt(50)),
		At:         at.AddDate(0, 0, -5),
	}))
	require.NoError(t, states.Append(&entity.StockState{
		LocationID:   testLoc,
		ProductID:    testProd,
		At:           at,
		CurrentStock: decimal.NewFromInt(50),
	}))

	u := appconsumption.NewUpdater(txs, states, testConfig(0), logger.Nop())
	u.Start(context.Background())
	defer u.Stop()

	u.Notify(testLoc, testProd, at)

	// espera a que la tarea corra; la tasa debe seguir en nil
	time.Sleep(100 * time.Millisecond)
	for _, s := range states.All() {
		if s.At.Equal(at) {
			assert.Nil(t, s.ConsumptionRate, "datos insuficientes deben dejar la tasa en nil")
			return
		}
	}
	t.Fatal("snapshot objetivo no encontrado")
}

// TestUpdater_RespetaElDelay: la tarea no es elegible antes de eventTime+delay.
func TestUpdater_RespetaElDelay(t *testing.T) {
	txs := memory.NewTransactionRepository()
	states := memory.NewStockStateRepository()
	at := time.Now().Truncate(time.Second)
	seedHistory(t, txs, states, at)

	const delay = 150 * time.Millisecond
	u := appconsumption.NewUpdater(txs, states, testConfig(delay), logger.Nop())
	u.Start(context.Background())
	defer u.Stop()

	enqueued := time.Now()
	u.Notify(testLoc, testProd, at)

	waitForRate(t, states, at)
	assert.GreaterOrEqual(t, time.Since(enqueued), delay,
		"el recálculo no debe correr antes del delay simulado")
}

// TestUpdater_StopAbandonaPendientes: tras Stop, las tareas no despachadas se
// abandonan sin escribir nada.
func TestUpdater_StopAbandonaPendientes(t *testing.T) {
	txs := memory.NewTransactionRepository()
	states := memory.NewStockStateRepository()
	at := time.Now().Truncate(time.Second)
	seedHistory(t, txs, states, at)

	u := appconsumption.NewUpdater(txs, states, testConfig(time.Hour), logger.Nop())
	u.Start(context.Background())

	u.Notify(testLoc, testProd, at)
	u.Stop()

	for _, s := range states.All() {
		assert.Nil(t, s.ConsumptionRate, "una tarea abandonada no debe escribir")
	}
}

// TestUpdater_EventosDeUnaClaveEnOrden: actualizaciones consecutivas de la
// misma clave se procesan en orden de evento; la última escritura corresponde
// al último snapshot.
func TestUpdater_EventosDeUnaClaveEnOrden(t *testing.T) {
	txs := memory.NewTransactionRepository()
	states := memory.NewStockStateRepository()
	base := time.Now().Truncate(time.Second)

	const n = 5
	for i := range n {
		at := base.Add(time.Duration(i) * time.Second)
		seedHistory(t, txs, states, at)
	}

	u := appconsumption.NewUpdater(txs, states, testConfig(0), logger.Nop())
	u.Start(context.Background())
	defer u.Stop()

	for i := range n {
		u.Notify(testLoc, testProd, base.Add(time.Duration(i)*time.Second))
	}

	for i := range n {
		rate := waitForRate(t, states, base.Add(time.Duration(i)*time.Second))
		assert.NotNil(t, rate)
	}
}
