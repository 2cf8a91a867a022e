package http_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stocktrack-api/internal/application/dto"
	"github.com/jhoicas/stocktrack-api/internal/application/report"
	"github.com/jhoicas/stocktrack-api/internal/domain/entity"
	"github.com/jhoicas/stocktrack-api/internal/infrastructure/memory"
	apphttp "github.com/jhoicas/stocktrack-api/internal/interfaces/http"
	"github.com/jhoicas/stocktrack-api/pkg/logger"
)

// buildTestApp construye una app Fiber con el caso de uso sobre repositorios
// en memoria, con la ubicación "cla" y el producto "co" precargados.
func buildTestApp(t *testing.T) *fiber.App {
	t.Helper()

	locations := memory.NewLocationRepository()
	products := memory.NewProductRepository()
	txs := memory.NewTransactionRepository()
	states := memory.NewStockStateRepository()

	require.NoError(t, locations.Create(&entity.Location{Name: "CLINIC-A", Type: "lvl1", Code: "cla"}))
	require.NoError(t, products.Create(&entity.Product{Code: "co", Name: "Coartem"}))

	uc := report.NewSubmitReportUseCase(
		locations, products,
		memory.NewTxRunner(txs, states),
		report.NopNotifier{},
		logger.Nop(),
	)

	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{SubmitReport: uc})
	return app
}

func postReport(t *testing.T, app *fiber.App, body dto.SubmitReportRequest) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/reports/", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func TestSubmit_ReporteValido(t *testing.T) {
	app := buildTestApp(t)

	resp := postReport(t, app, dto.SubmitReportRequest{
		Location:  "cla",
		Fragments: []string{"co r 30", "co soh 65"},
	})
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
}

func TestSubmit_FragmentoInvalido(t *testing.T) {
	app := buildTestApp(t)

	resp := postReport(t, app, dto.SubmitReportRequest{
		Location:  "cla",
		Fragments: []string{"co bogus 1"},
	})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	var body dto.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "VALIDATION", body.Code)
}

func TestSubmit_UbicacionDesconocida(t *testing.T) {
	app := buildTestApp(t)

	resp := postReport(t, app, dto.SubmitReportRequest{
		Location:  "nope",
		Fragments: []string{"co r 30"},
	})
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestSubmit_CuerpoIncompleto(t *testing.T) {
	app := buildTestApp(t)

	resp := postReport(t, app, dto.SubmitReportRequest{Location: "cla"})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
