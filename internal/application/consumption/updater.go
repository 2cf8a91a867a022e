// Package consumption contiene el recalculador asíncrono de tasas de consumo:
// consume los eventos de actualización del ledger, espera la latencia simulada
// de propagación y escribe la estimación sobre el snapshot correspondiente.
package consumption

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	domconsumption "github.com/jhoicas/stocktrack-api/internal/domain/consumption"
	"github.com/jhoicas/stocktrack-api/internal/domain/repository"
	"github.com/jhoicas/stocktrack-api/pkg/config"
	"github.com/jhoicas/stocktrack-api/pkg/logger"
)

// Updater programa y ejecuta recálculos de consumo sobre un pool acotado de
// workers. Por cada evento del ledger se encola exactamente una tarea,
// elegible a partir de eventTime + Delay; las tareas de claves distintas
// corren en paralelo, las de una misma clave se encadenan en orden de evento
// (no se deduplican: actualizaciones seguidas de una clave pueden producir
// recálculos redundantes).
type Updater struct {
	transactions repository.TransactionRepository
	states       repository.StockStateRepository
	cfg          config.ConsumptionConfig
	log          *logger.Logger

	tasks  chan *task
	cancel context.CancelFunc
	grp    *errgroup.Group

	mu    sync.Mutex
	heads map[string]chan struct{} // done de la última tarea encolada por clave
}

type task struct {
	locationID string
	productID  string
	at         time.Time     // timestamp del snapshot objetivo
	runAt      time.Time     // elegible a partir de este instante
	prev       chan struct{} // done de la tarea anterior de la misma clave (nil si no hay)
	done       chan struct{}
}

// NewUpdater construye el recalculador. Llamar Start antes de Notify.
func NewUpdater(
	transactions repository.TransactionRepository,
	states repository.StockStateRepository,
	cfg config.ConsumptionConfig,
	log *logger.Logger,
) *Updater {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	cfg.Workers = workers
	return &Updater{
		transactions: transactions,
		states:       states,
		cfg:          cfg,
		log:          log,
		tasks:        make(chan *task, 256),
		heads:        make(map[string]chan struct{}),
	}
}

// Start arranca el pool de workers. El ciclo de vida queda atado a ctx.
func (u *Updater) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	u.cancel = cancel
	u.grp, ctx = errgroup.WithContext(ctx)
	for range u.cfg.Workers {
		u.grp.Go(func() error { return u.worker(ctx) })
	}
}

// Stop cancela el contexto y espera a los workers. Las tareas aún no
// despachadas se abandonan; una escritura en curso es un único UPDATE atómico,
// así que el estado persistido nunca queda corrupto.
func (u *Updater) Stop() {
	if u.cancel == nil {
		return
	}
	u.cancel()
	_ = u.grp.Wait()
}

// Notify implementa report.UpdateNotifier: encola un recálculo para la clave,
// elegible en now + Delay.
func (u *Updater) Notify(locationID, productID string, at time.Time) {
	t := &task{
		locationID: locationID,
		productID:  productID,
		at:         at,
		runAt:      time.Now().Add(u.cfg.Delay),
		done:       make(chan struct{}),
	}

	// encadena con la tarea previa de la misma clave para preservar el orden
	key := locationID + "|" + productID
	u.mu.Lock()
	t.prev = u.heads[key]
	u.heads[key] = t.done
	u.mu.Unlock()

	u.tasks <- t
}

func (u *Updater) worker(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case t := <-u.tasks:
			if !u.await(ctx, t) {
				return ctx.Err()
			}
			u.recompute(t)
			close(t.done)
		}
	}
}

// await espera la elegibilidad de la tarea y el fin de la anterior de su clave.
// Devuelve false si el contexto se canceló mientras esperaba.
func (u *Updater) await(ctx context.Context, t *task) bool {
	if wait := time.Until(t.runAt); wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return false
		case <-timer.C:
		}
	}
	if t.prev != nil {
		select {
		case <-ctx.Done():
			return false
		case <-t.prev:
		}
	}
	return true
}

// recompute lee la ventana de historial [at − WindowDays, at], estima y
// escribe la tasa (o NULL por datos insuficientes) sobre el snapshot cuyo
// timestamp coincide exactamente con el del evento.
func (u *Updater) recompute(t *task) {
	windowEnd := t.at
	windowStart := windowEnd.AddDate(0, 0, -u.cfg.WindowDays)

	history, err := u.transactions.ListForEstimate(t.locationID, t.productID, windowStart, windowEnd)
	if err != nil {
		u.log.Error().Err(err).
			Str("location", t.locationID).
			Str("product", t.productID).
			Msg("leer historial para estimación")
		return
	}

	rate, ok := domconsumption.Estimate(history, windowStart, windowEnd, domconsumption.Params{
		MinPeriods:     u.cfg.MinPeriods,
		MinWindowDays:  u.cfg.MinWindowDays,
		ThroughPresent: true,
	})
	var ratePtr *float64
	if ok {
		ratePtr = &rate
	}

	if err := u.states.UpdateConsumptionRate(t.locationID, t.productID, t.at, ratePtr); err != nil {
		u.log.Error().Err(err).
			Str("location", t.locationID).
			Str("product", t.productID).
			Time("at", t.at).
			Msg("escribir tasa de consumo")
		return
	}

	u.log.Debug().
		Str("location", t.locationID).
		Str("product", t.productID).
		Time("at", t.at).
		Bool("estimated", ok).
		Float64("rate", rate).
		Msg("tasa de consumo actualizada")
}
