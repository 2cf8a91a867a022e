// seed genera datos sintéticos: jerarquía de ubicaciones, catálogo de
// productos de muestra e historial aleatorio de reportes de stock enviado a
// través del caso de uso real (el ledger aplica cada reporte como en
// producción, incluidas las reconciliaciones).
//
// Uso: go run ./cmd/seed -depth 2 -fan 3 -reports 52 -freq 7
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"time"

	"github.com/jhoicas/stocktrack-api/internal/application/report"
	"github.com/jhoicas/stocktrack-api/internal/domain/entity"
	"github.com/jhoicas/stocktrack-api/internal/domain/repository"
	"github.com/jhoicas/stocktrack-api/internal/infrastructure/postgres"
	"github.com/jhoicas/stocktrack-api/pkg/config"
	"github.com/jhoicas/stocktrack-api/pkg/logger"
)

// Catálogo de muestra (código SMS, nombre).
var sampleProducts = [][2]string{
	{"cm", "Condom"},
	{"co", "Coartem"},
	{"cx", "Cotrimoxazole"},
	{"rdt", "Rapid Diagnostic Test"},
	{"sp", "Sulfadoxine / Pyrimethamine"},
}

func main() {
	depth := flag.Int("depth", 2, "niveles de la jerarquía de ubicaciones")
	fan := flag.Int("fan", 3, "hijos por ubicación (crecimiento exponencial)")
	reports := flag.Int("reports", 52, "reportes de stock por ubicación hoja")
	freq := flag.Float64("freq", 7, "intervalo medio entre reportes (días)")
	seed := flag.Int64("seed", time.Now().UnixNano(), "semilla del generador aleatorio")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: "info"})

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	locationRepo := postgres.NewLocationRepository(pool)
	productRepo := postgres.NewProductRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	// Carga masiva: sin recálculo de consumo por reporte.
	uc := report.NewSubmitReportUseCase(locationRepo, productRepo, txRunner, report.NopNotifier{}, log)

	s := &seeder{
		rnd:       rand.New(rand.NewSource(*seed)),
		locations: locationRepo,
		products:  productRepo,
		uc:        uc,
		log:       log,
	}

	if err := s.makeProducts(); err != nil {
		log.Fatal().Err(err).Msg("crear productos")
	}
	leaves, err := s.makeLocations(*depth, *fan, nil, nil)
	if err != nil {
		log.Fatal().Err(err).Msg("crear ubicaciones")
	}
	log.Info().Int("hojas", len(leaves)).Msg("jerarquía creada")

	codes := make([]string, 0, len(sampleProducts))
	for _, p := range sampleProducts {
		codes = append(codes, p[0])
	}
	for _, leaf := range leaves {
		if err := s.sampleReports(ctx, leaf, codes, *reports, *freq); err != nil {
			log.Fatal().Err(err).Str("location", leaf).Msg("generar reportes")
		}
	}
	log.Info().Msg("seed completado")
}

type seeder struct {
	rnd       *rand.Rand
	locations repository.LocationRepository
	products  repository.ProductRepository
	uc        *report.SubmitReportUseCase
	log       *logger.Logger
}

func (s *seeder) makeProducts() error {
	for _, p := range sampleProducts {
		if err := s.products.Create(&entity.Product{Code: p[0], Name: p[1]}); err != nil {
			return err
		}
	}
	return nil
}

// makeLocations crea recursivamente la jerarquía y devuelve los códigos hoja.
func (s *seeder) makeLocations(depth, fan int, lineage []string, parentID *string) ([]string, error) {
	loc := &entity.Location{}
	if len(lineage) == 0 {
		loc.Name = "_root"
		loc.Type = "_root"
	} else {
		loc.Code = strings.Join(lineage, "")
		loc.Type = fmt.Sprintf("lvl%d", len(lineage))
		upper := make([]string, len(lineage))
		for i, part := range lineage {
			upper[i] = strings.ToUpper(part)
		}
		loc.Name = strings.Join(upper, ":")
	}
	loc.ParentID = parentID
	if err := s.locations.Create(loc); err != nil {
		return nil, err
	}

	if len(lineage) >= depth {
		return []string{loc.Code}, nil
	}
	var leaves []string
	for i := range fan {
		child := string(rune('a' + i))
		sub, err := s.makeLocations(depth, fan, append(lineage, child), &loc.ID)
		if err != nil {
			return nil, err
		}
		leaves = append(leaves, sub...)
	}
	return leaves, nil
}

type productModel struct {
	meanStock       float64
	meanConsumption float64
	stock           float64 // balance propio del simulador; puede ir negativo
}

// sampleReports genera el historial de una hoja: niveles iniciales y luego
// reportes con recepciones, consumos, mermas, agotamientos y checkpoints
// alrededor de un stock medio por producto.
func (s *seeder) sampleReports(ctx context.Context, loc string, products []string, numReports int, freq float64) error {
	window := time.Duration(float64(numReports) * freq * 24 * float64(time.Hour))
	now := time.Now()

	timestamps := make([]time.Time, numReports)
	for i := range timestamps {
		timestamps[i] = now.Add(-time.Duration(s.rnd.Float64() * float64(window)))
	}
	sort.Slice(timestamps, func(a, b int) bool { return timestamps[a].Before(timestamps[b]) })

	models := make(map[string]*productModel, len(products))
	for _, p := range products {
		stock := s.rnd.Float64() * 200
		consumption := 1 / (1.0/3 + s.rnd.Float64()*(5-1.0/3))
		models[p] = &productModel{
			meanStock:       stock,
			meanConsumption: stock * consumption,
			stock:           stock,
		}
	}

	// niveles iniciales
	lastReport := now.Add(-window)
	var frags []string
	for _, p := range products {
		frags = append(frags, fmt.Sprintf("%s soh %.1f", p, models[p].stock))
	}
	if err := s.uc.SubmitReport(ctx, loc, frags, lastReport); err != nil {
		return err
	}

	for _, ts := range timestamps {
		intervalDays := ts.Sub(lastReport).Hours() / 24
		frags = frags[:0]
		for _, p := range products {
			m := models[p]
			expectedBurn := intervalDays / 30.44 * m.meanConsumption
			receipts := s.rnd.Float64() * 2 * expectedBurn
			consumed := s.rnd.Float64() * 2 * expectedBurn

			oldStock := m.stock
			m.stock = oldStock + receipts - consumed

			var lossage float64
			if s.rnd.Float64() < 0.3 {
				lossage = s.rnd.Float64() * consumed
			}

			switch {
			case oldStock <= 0 && m.stock <= 0:
				// agotamiento prolongado; empuja de vuelta hacia el restock
				if s.rnd.Float64() < 0.3 {
					frags = append(frags, fmt.Sprintf("%s so", p))
				}
				m.stock *= 1 - abs(m.stock)/m.meanStock
				continue
			case oldStock > 0 && m.stock <= 0:
				frags = append(frags, fmt.Sprintf("%s so", p))
				continue
			case oldStock <= 0 && m.stock > 0:
				// reabastecido: descuenta el déficit acumulado
				receipts -= abs(oldStock)
			}

			frags = append(frags, fmt.Sprintf("%s r %.1f", p, receipts))
			if lossage > 0 {
				frags = append(frags, fmt.Sprintf("%s l %.1f", p, lossage))
			}
			if s.rnd.Float64() > 0.4 {
				frags = append(frags, fmt.Sprintf("%s soh %.1f", p, m.stock))
			}
		}
		if len(frags) > 0 {
			if err := s.uc.SubmitReport(ctx, loc, frags, ts); err != nil {
				return err
			}
		}
		lastReport = ts
	}
	return nil
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
