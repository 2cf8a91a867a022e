package report

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stocktrack-api/internal/domain"
	"github.com/jhoicas/stocktrack-api/internal/domain/entity"
	"github.com/jhoicas/stocktrack-api/internal/domain/repository"
	"github.com/jhoicas/stocktrack-api/pkg/logger"
)

// SubmitReportUseCase ingiere reportes de stock: parsea los fragmentos, aplica
// la máquina de estados del ledger por clave (bodega, producto) con exclusión
// mutua y transacción de BD, y emite un evento de actualización por clave
// confirmada para el recálculo asíncrono de consumo.
type SubmitReportUseCase struct {
	locations repository.LocationRepository
	products  repository.ProductRepository
	txRunner  TxRunner
	notifier  UpdateNotifier
	keys      keyMutex
	log       *logger.Logger
}

// NewSubmitReportUseCase construye el caso de uso.
func NewSubmitReportUseCase(
	locations repository.LocationRepository,
	products repository.ProductRepository,
	txRunner TxRunner,
	notifier UpdateNotifier,
	log *logger.Logger,
) *SubmitReportUseCase {
	return &SubmitReportUseCase{
		locations: locations,
		products:  products,
		txRunner:  txRunner,
		notifier:  notifier,
		log:       log,
	}
}

// SubmitReport procesa un reporte de stock completo. at en cero usa la hora
// actual. Toda la validación (gramática, ubicación, productos) ocurre antes de
// persistir nada: un reporte inválido se rechaza entero con ErrInvalidInput o
// ErrNotFound sin aplicación parcial.
func (uc *SubmitReportUseCase) SubmitReport(ctx context.Context, locationCode string, fragments []string, at time.Time) error {
	if at.IsZero() {
		at = time.Now()
	}

	groups, err := ParseReport(fragments)
	if err != nil {
		return err
	}

	loc, err := uc.locations.GetByCode(locationCode)
	if err != nil {
		return fmt.Errorf("resolver ubicación: %w", err)
	}
	if loc == nil {
		return domain.ErrNotFound
	}

	productIDs := make([]string, len(groups))
	for i, g := range groups {
		p, err := uc.products.GetByCode(g.ProductCode)
		if err != nil {
			return fmt.Errorf("resolver producto %q: %w", g.ProductCode, err)
		}
		if p == nil {
			return domain.ErrNotFound
		}
		productIDs[i] = p.ID
	}

	submissionID := uuid.New().String()

	// Cada producto se procesa en su propia sección exclusiva y transacción:
	// claves distintas no se bloquean entre sí.
	for i, g := range groups {
		if err := uc.processProductStock(ctx, loc.ID, productIDs[i], g.Txs, submissionID, at); err != nil {
			return err
		}
		// el evento se emite solo después de que el snapshot es visible (commit)
		uc.notifier.Notify(loc.ID, productIDs[i], at)
	}

	uc.log.Info().
		Str("location", locationCode).
		Str("submission", submissionID).
		Int("products", len(groups)).
		Time("at", at).
		Msg("reporte de stock procesado")
	return nil
}

func (uc *SubmitReportUseCase) processProductStock(ctx context.Context, locationID, productID string, txs []StockTx, submissionID string, at time.Time) error {
	unlock := uc.keys.Lock(locationID + "|" + productID)
	defer unlock()

	return uc.txRunner.Run(ctx, func(
		txRepo repository.TransactionRepository,
		stateRepo repository.StockStateRepository,
	) error {
		prev, err := stateRepo.LatestForUpdate(locationID, productID)
		if err != nil {
			return err
		}
		state, records := Apply(prev, locationID, productID, txs, submissionID, at)
		for _, rec := range records {
			if err := txRepo.Create(rec); err != nil {
				return err
			}
		}
		return stateRepo.Append(&state)
	})
}

// Apply es el núcleo puro de la máquina de estados del ledger: aplica un lote
// ordenado de transacciones de un producto sobre el snapshot previo (nil si la
// clave nunca reportó) y devuelve el snapshot nuevo junto con los registros a
// persistir, en orden de persistencia — incluidas las reconciliaciones
// sintetizadas, que preceden al checkpoint que las disparó.
//
// Reglas:
//   - receipt suma, consumption resta;
//   - stockonhand/stockout fijan el stock al valor reportado (0 para stockout);
//     si difiere del calculado se sintetiza una reconciliación (consumption si
//     sobraba, receipt si faltaba; _initial en el primer reporte de la clave,
//     _inferred después) y se marca LastReportedAt;
//   - tras el lote, un balance negativo se reconcilia a cero: ningún snapshot
//     persiste stock negativo;
//   - StockOutSince: con stock cero se conserva el existente o se marca este
//     timestamp; con stock positivo se limpia.
func Apply(prev *entity.StockState, locationID, productID string, txs []StockTx, submissionID string, at time.Time) (entity.StockState, []*entity.Transaction) {
	stock := decimal.Zero
	var lastReported, stockOutSince *time.Time
	if prev != nil {
		stock = prev.CurrentStock
		lastReported = prev.LastReportedAt
		stockOutSince = prev.StockOutSince
	}

	var records []*entity.Transaction
	persist := func(action entity.Action, sub entity.SubAction, qty decimal.NullDecimal) {
		records = append(records, &entity.Transaction{
			LocationID:   locationID,
			ProductID:    productID,
			Action:       action,
			SubAction:    sub,
			Quantity:     qty,
			At:           at,
			SubmissionID: submissionID,
			Seq:          len(records),
		})
	}
	reconcile := func(target decimal.Decimal) {
		diff := target.Sub(stock)
		if diff.IsZero() {
			return
		}
		action := entity.ActionReceipt
		if diff.IsNegative() {
			action = entity.ActionConsumption
		}
		sub := entity.SubActionInferred
		if lastReported == nil {
			sub = entity.SubActionInitial
		}
		persist(action, sub, decimal.NewNullDecimal(diff.Abs()))
		stock = target
	}

	for _, tx := range txs {
		switch tx.Action {
		case entity.ActionReceipt:
			stock = stock.Add(tx.Quantity.Decimal)
		case entity.ActionConsumption:
			stock = stock.Sub(tx.Quantity.Decimal)
		case entity.ActionStockOnHand, entity.ActionStockOut:
			target := decimal.Zero
			if tx.Action == entity.ActionStockOnHand {
				target = tx.Quantity.Decimal
			}
			reconcile(target)
			ts := at
			lastReported = &ts
		}
		persist(tx.Action, tx.SubAction, tx.Quantity)
	}

	// invariante de no-negatividad, independiente de cualquier checkpoint
	if stock.IsNegative() {
		reconcile(decimal.Zero)
	}

	if stock.IsZero() {
		if stockOutSince == nil {
			ts := at
			stockOutSince = &ts
		}
	} else {
		stockOutSince = nil
	}

	return entity.StockState{
		LocationID:     locationID,
		ProductID:      productID,
		At:             at,
		CurrentStock:   stock,
		LastReportedAt: lastReported,
		StockOutSince:  stockOutSince,
	}, records
}
