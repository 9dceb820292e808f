package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-curve-sniper/internal/discovery"
	"solana-curve-sniper/internal/ledger"
	"solana-curve-sniper/internal/storage/memory"
)

func newTestServer() *Server {
	detector := discovery.NewDetector(discovery.DefaultParserConfig(), zerolog.Nop())
	l := ledger.New(ledger.DefaultConfig(), memory.NewTradeLogStore(), zerolog.Nop())
	return New(DefaultConfig(), detector, l, zerolog.Nop())
}

func TestWebhookDispatchesCandidates(t *testing.T) {
	s := newTestServer()

	payload := fmt.Sprintf(`[{
		"signature": "sig-1",
		"timestamp": %d,
		"slot": 100,
		"instructions": [{
			"programId": %q,
			"accounts": ["creator", "MintWeb1", "curve"]
		}]
	}]`, time.Now().Unix(), discovery.LaunchProgramID)

	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]int
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp["received"])
	assert.Equal(t, 1, resp["dispatched"])
	assert.Equal(t, 1, s.detector.SeenCount())
}

func TestWebhookRejectsMalformedPayload(t *testing.T) {
	s := newTestServer()

	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthz(t *testing.T) {
	s := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestStatusSnapshot(t *testing.T) {
	s := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp statusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "running", resp.Status)
	assert.Equal(t, s.ledger.Balance().String(), resp.BalanceSOL)
	assert.Equal(t, 0, resp.OpenPositions)
}

func TestPnLSummary(t *testing.T) {
	s := newTestServer()

	ctx := t.Context()
	_, err := s.ledger.ExecuteBuy(ctx, "MintPnL1",
		decimal.RequireFromString("1"), decimal.NewFromInt(100), decimal.RequireFromString("0.01"))
	require.NoError(t, err)
	_, err = s.ledger.ExecuteSell(ctx, "MintPnL1",
		decimal.NewFromInt(100), decimal.RequireFromString("1.5"), decimal.RequireFromString("0.015"), "TAKE_PROFIT")
	require.NoError(t, err)

	today := time.Now().UTC().Format("2006-01-02")
	req := httptest.NewRequest(http.MethodGet, "/pnl?date="+today, nil)
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Date        string `json:"date"`
		TotalTrades int    `json:"total_trades"`
		Buys        int    `json:"buys"`
		Sells       int    `json:"sells"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, today, resp.Date)
	assert.Equal(t, 2, resp.TotalTrades)
	assert.Equal(t, 1, resp.Buys)
	assert.Equal(t, 1, resp.Sells)
}

func TestPnLRejectsBadDate(t *testing.T) {
	s := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/pnl?date=not-a-date", nil)
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
