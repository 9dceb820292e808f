// Package server exposes the HTTP surface: the webhook receiver, a
// health probe, a status snapshot and Prometheus metrics.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"solana-curve-sniper/internal/discovery"
	"solana-curve-sniper/internal/ledger"
	"solana-curve-sniper/internal/observability"
)

// Config holds the HTTP listener settings.
type Config struct {
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// DefaultConfig listens on 8080 with 10 second timeouts.
func DefaultConfig() Config {
	return Config{
		Port:            8080,
		ReadTimeout:     10 * time.Second,
		WriteTimeout:    10 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
}

// Server wraps the Echo HTTP server.
type Server struct {
	cfg      Config
	echo     *echo.Echo
	detector *discovery.Detector
	ledger   *ledger.Ledger
	log      zerolog.Logger
	started  time.Time
}

// New builds the server and registers all routes.
func New(cfg Config, detector *discovery.Detector, l *ledger.Ledger, log zerolog.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(echomw.Recover())

	s := &Server{
		cfg:      cfg,
		echo:     e,
		detector: detector,
		ledger:   l,
		log:      log.With().Str("component", "server").Logger(),
		started:  time.Now(),
	}

	e.POST("/webhook", s.handleWebhook)
	e.GET("/healthz", s.handleHealth)
	e.GET("/status", s.handleStatus)
	e.GET("/pnl", s.handlePnL)
	e.GET("/metrics", echo.WrapHandler(observability.Handler()))

	return s
}

// Start listens until the server is shut down.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.echo.Server.ReadTimeout = s.cfg.ReadTimeout
	s.echo.Server.WriteTimeout = s.cfg.WriteTimeout

	s.log.Info().Str("addr", addr).Msg("http server listening")
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop shuts the server down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.ShutdownTimeout)
	defer cancel()
	return s.echo.Shutdown(ctx)
}

// handleWebhook receives pushed transaction batches from the RPC
// provider. A malformed body is the caller's fault; anything parseable
// is acknowledged even when no candidate survives.
func (s *Server) handleWebhook(c echo.Context) error {
	var txs []discovery.TransactionRecord
	if err := c.Bind(&txs); err != nil {
		observability.DefaultMetrics.WebhookBatches.WithLabelValues("malformed").Inc()
		return echo.NewHTTPError(http.StatusBadRequest, "invalid webhook payload")
	}

	dispatched := s.detector.HandleTransactions(c.Request().Context(), txs)
	observability.DefaultMetrics.WebhookBatches.WithLabelValues("ok").Inc()

	return c.JSON(http.StatusOK, map[string]int{
		"received":   len(txs),
		"dispatched": dispatched,
	})
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

// statusResponse is the JSON snapshot served by /status.
type statusResponse struct {
	Status        string `json:"status"`
	Uptime        string `json:"uptime"`
	BalanceSOL    string `json:"balance_sol"`
	OpenPositions int    `json:"open_positions"`
	SeenMints     int    `json:"seen_mints"`
}

func (s *Server) handleStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, statusResponse{
		Status:        "running",
		Uptime:        time.Since(s.started).String(),
		BalanceSOL:    s.ledger.Balance().String(),
		OpenPositions: len(s.ledger.Positions()),
		SeenMints:     s.detector.SeenCount(),
	})
}

// handlePnL serves the daily trade summary. Defaults to today (UTC)
// when no date parameter is given.
func (s *Server) handlePnL(c echo.Context) error {
	date := c.QueryParam("date")
	if date == "" {
		date = time.Now().UTC().Format("2006-01-02")
	} else if _, err := time.Parse("2006-01-02", date); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "date must be YYYY-MM-DD")
	}

	summary, err := s.ledger.DailyPnL(c.Request().Context(), date)
	if err != nil {
		s.log.Error().Err(err).Str("date", date).Msg("daily pnl query failed")
		return echo.NewHTTPError(http.StatusInternalServerError, "trade log unavailable")
	}
	return c.JSON(http.StatusOK, summary)
}
