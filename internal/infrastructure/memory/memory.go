// Package memory implementa los puertos de persistencia en memoria, con la
// misma semántica que los adaptadores de PostgreSQL (incluido el anclaje del
// historial para el estimador). Se usa en tests y en modo dry-run del seed.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/stocktrack-api/internal/application/report"
	"github.com/jhoicas/stocktrack-api/internal/domain"
	"github.com/jhoicas/stocktrack-api/internal/domain/entity"
	"github.com/jhoicas/stocktrack-api/internal/domain/repository"
)

var (
	_ repository.LocationRepository    = (*LocationRepo)(nil)
	_ repository.ProductRepository     = (*ProductRepo)(nil)
	_ repository.TransactionRepository = (*TransactionRepo)(nil)
	_ repository.StockStateRepository  = (*StockStateRepo)(nil)
	_ report.TxRunner                  = (*TxRunner)(nil)
)

// LocationRepo repositorio de ubicaciones en memoria.
type LocationRepo struct {
	mu   sync.RWMutex
	rows []*entity.Location
}

func NewLocationRepository() *LocationRepo { return &LocationRepo{} }

func (r *LocationRepo) Create(loc *entity.Location) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if loc.ID == "" {
		loc.ID = uuid.New().String()
	}
	cp := *loc
	r.rows = append(r.rows, &cp)
	return nil
}

func (r *LocationRepo) GetByCode(code string) (*entity.Location, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, l := range r.rows {
		if l.Code == code {
			cp := *l
			return &cp, nil
		}
	}
	return nil, nil
}

// ListLeafCodes devuelve los códigos de las ubicaciones sin hijos bajo la raíz dada.
func (r *LocationRepo) ListLeafCodes(rootCode string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	root, err := r.getByCodeLocked(rootCode)
	if err != nil {
		return nil, err
	}
	if root == nil {
		return nil, domain.ErrNotFound
	}

	children := make(map[string][]*entity.Location)
	for _, l := range r.rows {
		if l.ParentID != nil {
			children[*l.ParentID] = append(children[*l.ParentID], l)
		}
	}

	var codes []string
	var walk func(l *entity.Location)
	walk = func(l *entity.Location) {
		kids := children[l.ID]
		if len(kids) == 0 {
			if l.Code != "" {
				codes = append(codes, l.Code)
			}
			return
		}
		for _, k := range kids {
			walk(k)
		}
	}
	walk(root)
	return codes, nil
}

func (r *LocationRepo) getByCodeLocked(code string) (*entity.Location, error) {
	for _, l := range r.rows {
		if l.Code == code {
			return l, nil
		}
	}
	return nil, nil
}

// ProductRepo repositorio de productos en memoria.
type ProductRepo struct {
	mu   sync.RWMutex
	rows []*entity.Product
}

func NewProductRepository() *ProductRepo { return &ProductRepo{} }

func (r *ProductRepo) Create(p *entity.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	cp := *p
	r.rows = append(r.rows, &cp)
	return nil
}

func (r *ProductRepo) GetByCode(code string) (*entity.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.rows {
		if p.Code == code {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *ProductRepo) List() ([]*entity.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*entity.Product, 0, len(r.rows))
	for _, p := range r.rows {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

// TransactionRepo historial de transacciones en memoria (append-only).
type TransactionRepo struct {
	mu   sync.RWMutex
	rows []*entity.Transaction
}

func NewTransactionRepository() *TransactionRepo { return &TransactionRepo{} }

func (r *TransactionRepo) Create(tx *entity.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if tx.ID == "" {
		tx.ID = uuid.New().String()
	}
	cp := *tx
	r.rows = append(r.rows, &cp)
	return nil
}

// All devuelve una copia del historial completo en orden de inserción. Para tests.
func (r *TransactionRepo) All() []*entity.Transaction {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*entity.Transaction, 0, len(r.rows))
	for _, tx := range r.rows {
		cp := *tx
		out = append(out, &cp)
	}
	return out
}

// ListForEstimate replica la semántica del adaptador PostgreSQL: ancla el
// inicio efectivo en el último stockonhand/stockout estrictamente anterior a
// windowStart y devuelve el historial de la clave ordenado por (At, Seq).
func (r *TransactionRepo) ListForEstimate(locationID, productID string, windowStart, windowEnd time.Time) ([]*entity.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	effectiveStart := windowStart
	var anchor time.Time
	for _, tx := range r.rows {
		if tx.LocationID != locationID || tx.ProductID != productID {
			continue
		}
		if (tx.Action == entity.ActionStockOnHand || tx.Action == entity.ActionStockOut) &&
			tx.At.Before(windowStart) && tx.At.After(anchor) {
			anchor = tx.At
		}
	}
	if !anchor.IsZero() {
		effectiveStart = anchor
	}

	var out []*entity.Transaction
	for _, tx := range r.rows {
		if tx.LocationID != locationID || tx.ProductID != productID {
			continue
		}
		if tx.At.Before(effectiveStart) || tx.At.After(windowEnd) {
			continue
		}
		cp := *tx
		out = append(out, &cp)
	}
	sort.SliceStable(out, func(a, b int) bool {
		if !out[a].At.Equal(out[b].At) {
			return out[a].At.Before(out[b].At)
		}
		return out[a].Seq < out[b].Seq
	})
	return out, nil
}

// StockStateRepo historial de snapshots de estado en memoria.
type StockStateRepo struct {
	mu   sync.RWMutex
	rows []*entity.StockState
}

func NewStockStateRepository() *StockStateRepo { return &StockStateRepo{} }

func (r *StockStateRepo) Latest(locationID, productID string) (*entity.StockState, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var latest *entity.StockState
	for _, s := range r.rows {
		if s.LocationID != locationID || s.ProductID != productID {
			continue
		}
		// en empate de timestamp gana el insertado después
		if latest == nil || !s.At.Before(latest.At) {
			latest = s
		}
	}
	if latest == nil {
		return nil, nil
	}
	cp := *latest
	return &cp, nil
}

// LatestForUpdate en memoria no bloquea fila: la exclusión por clave la aporta
// el caso de uso.
func (r *StockStateRepo) LatestForUpdate(locationID, productID string) (*entity.StockState, error) {
	return r.Latest(locationID, productID)
}

func (r *StockStateRepo) Append(state *entity.StockState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if state.ID == "" {
		state.ID = uuid.New().String()
	}
	cp := *state
	r.rows = append(r.rows, &cp)
	return nil
}

func (r *StockStateRepo) UpdateConsumptionRate(locationID, productID string, at time.Time, rate *float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.rows {
		if s.LocationID == locationID && s.ProductID == productID && s.At.Equal(at) {
			s.ConsumptionRate = rate
			return nil
		}
	}
	return domain.ErrNotFound
}

// All devuelve una copia de todos los snapshots en orden de inserción. Para tests.
func (r *StockStateRepo) All() []*entity.StockState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*entity.StockState, 0, len(r.rows))
	for _, s := range r.rows {
		cp := *s
		out = append(out, &cp)
	}
	return out
}

// TxRunner pasa los repositorios en memoria directamente: la atomicidad por
// clave la garantiza la sección exclusiva del caso de uso.
type TxRunner struct {
	txs    *TransactionRepo
	states *StockStateRepo
}

func NewTxRunner(txs *TransactionRepo, states *StockStateRepo) *TxRunner {
	return &TxRunner{txs: txs, states: states}
}

func (r *TxRunner) Run(_ context.Context, fn func(
	txRepo repository.TransactionRepository,
	stateRepo repository.StockStateRepository,
) error) error {
	return fn(r.txs, r.states)
}
