package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolioinsight/internal/marketdata"
	"portfolioinsight/internal/performance"
	"portfolioinsight/internal/store"
	"portfolioinsight/internal/utils"
)

type stubGateway struct {
	history map[string][]marketdata.Bar
	latest  map[string]float64
}

func (g *stubGateway) FetchHistory(_ context.Context, symbol, _, _ string) ([]marketdata.Bar, error) {
	return g.history[symbol], nil
}

func (g *stubGateway) FetchLatestPrice(_ context.Context, symbol string) (float64, error) {
	price, ok := g.latest[symbol]
	if !ok {
		return 0, marketdata.ErrNoPrice
	}
	return price, nil
}

func newTestServer(gw marketdata.Gateway) (*Server, *store.Memory) {
	logger := utils.NewAppLogger()
	st := store.NewMemory()
	engine := performance.NewService(st, gw, logger, performance.Config{
		MaxStaleDays: 7,
		FetchTimeout: time.Second,
	})
	cfg := &utils.Config{}
	return NewServer(logger, cfg, engine, st, nil), st
}

func doJSON(t *testing.T, srv *Server, method, path string, userID uuid.UUID, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", userID.String())

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func TestCreateAndListPortfolios(t *testing.T) {
	srv, _ := newTestServer(&stubGateway{})
	uid := uuid.New()

	rec := doJSON(t, srv, http.MethodPost, "/api/portfolios", uid, map[string]string{"name": "Retirement"})
	require.Equal(t, http.StatusCreated, rec.Code)

	var created store.Portfolio
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&created))
	assert.Equal(t, "Retirement", created.Name)
	assert.Equal(t, uid, created.UserID)

	rec = doJSON(t, srv, http.MethodGet, "/api/portfolios", uid, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var portfolios []store.Portfolio
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&portfolios))
	require.Len(t, portfolios, 1)

	// Another user sees nothing.
	rec = doJSON(t, srv, http.MethodGet, "/api/portfolios", uuid.New(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var other []store.Portfolio
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&other))
	assert.Empty(t, other)
}

func TestCreatePortfolioValidation(t *testing.T) {
	srv, _ := newTestServer(&stubGateway{})

	rec := doJSON(t, srv, http.MethodPost, "/api/portfolios", uuid.New(), map[string]string{"name": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/portfolios", bytes.NewBufferString(`{"name":"x"}`))
	rec = httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req) // no X-User-ID header
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateTransaction(t *testing.T) {
	srv, _ := newTestServer(&stubGateway{})
	uid := uuid.New()

	rec := doJSON(t, srv, http.MethodPost, "/api/portfolios", uid, map[string]string{"name": "Main"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var portfolio store.Portfolio
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&portfolio))

	txReq := map[string]interface{}{
		"symbol":     "AAPL",
		"asset_name": "Apple Inc.",
		"kind":       "BUY",
		"date":       "2023-01-02",
		"quantity":   "10",
		"unit_price": "150.25",
	}
	rec = doJSON(t, srv, http.MethodPost, fmt.Sprintf("/api/portfolios/%s/transactions", portfolio.ID), uid, txReq)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var tx performance.Transaction
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&tx))
	assert.Equal(t, "AAPL", tx.Symbol)
	assert.Equal(t, "1502.5", tx.Amount.String())

	// Unknown portfolio is rejected before any write.
	rec = doJSON(t, srv, http.MethodPost, fmt.Sprintf("/api/portfolios/%s/transactions", uuid.New()), uid, txReq)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Invalid kind is rejected.
	txReq["kind"] = "SHORT"
	rec = doJSON(t, srv, http.MethodPost, fmt.Sprintf("/api/portfolios/%s/transactions", portfolio.ID), uid, txReq)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetPortfolioPerformance(t *testing.T) {
	base := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	bars := make([]marketdata.Bar, 0, 366)
	for i := 0; i <= 365; i++ {
		bars = append(bars, marketdata.Bar{
			Date:  base.AddDate(0, 0, i),
			Close: 150 + 50*float64(i)/365,
		})
	}
	gw := &stubGateway{
		history: map[string][]marketdata.Bar{"AAPL": bars},
		latest:  map[string]float64{"AAPL": 200},
	}
	srv, _ := newTestServer(gw)
	uid := uuid.New()

	rec := doJSON(t, srv, http.MethodPost, "/api/portfolios", uid, map[string]string{"name": "Main"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var portfolio store.Portfolio
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&portfolio))

	txReq := map[string]interface{}{
		"symbol":     "AAPL",
		"asset_name": "Apple Inc.",
		"kind":       "BUY",
		"date":       "2023-01-02",
		"quantity":   "100",
		"unit_price": "150",
	}
	rec = doJSON(t, srv, http.MethodPost, fmt.Sprintf("/api/portfolios/%s/transactions", portfolio.ID), uid, txReq)
	require.Equal(t, http.StatusCreated, rec.Code)

	path := fmt.Sprintf("/api/portfolios/%s/performance?period=inception&end_date=2024-01-02", portfolio.ID)
	rec = doJSON(t, srv, http.MethodGet, path, uid, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result performance.Result
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&result))
	assert.Equal(t, "inception", result.PeriodLabel)
	assert.InDelta(t, 20000, result.CurrentValue, 1e-6)
	require.NotNil(t, result.Metrics.CAGR)
	assert.Positive(t, *result.Metrics.CAGR)
}

func TestGetPortfolioPerformanceErrors(t *testing.T) {
	srv, _ := newTestServer(&stubGateway{})
	uid := uuid.New()

	// Unknown portfolio.
	path := fmt.Sprintf("/api/portfolios/%s/performance", uuid.New())
	rec := doJSON(t, srv, http.MethodGet, path, uid, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Invalid period on an existing portfolio.
	rec = doJSON(t, srv, http.MethodPost, "/api/portfolios", uid, map[string]string{"name": "Main"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var portfolio store.Portfolio
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&portfolio))

	path = fmt.Sprintf("/api/portfolios/%s/performance?period=4y", portfolio.ID)
	rec = doJSON(t, srv, http.MethodGet, path, uid, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Malformed portfolio ID.
	rec = doJSON(t, srv, http.MethodGet, "/api/portfolios/not-a-uuid/performance", uid, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetPortfolioPerformanceEmptyPortfolio(t *testing.T) {
	srv, _ := newTestServer(&stubGateway{})
	uid := uuid.New()

	rec := doJSON(t, srv, http.MethodPost, "/api/portfolios", uid, map[string]string{"name": "Empty"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var portfolio store.Portfolio
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&portfolio))

	path := fmt.Sprintf("/api/portfolios/%s/performance", portfolio.ID)
	rec = doJSON(t, srv, http.MethodGet, path, uid, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var result performance.Result
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&result))
	assert.Equal(t, "no transactions recorded", result.Message)
	assert.Nil(t, result.Metrics.CAGR)
	assert.Zero(t, result.CurrentValue)
}
