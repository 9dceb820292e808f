// Package ledger tracks the simulated account: SOL balance, open
// positions and the append-only trade log.
package ledger

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"solana-curve-sniper/internal/domain"
	"solana-curve-sniper/internal/idhash"
	"solana-curve-sniper/internal/storage"
)

// Validation errors surfaced to the execution layer. A trade must never
// be reported successful when one of these occurred.
var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrNoPosition          = errors.New("no position for mint")
	ErrInsufficientTokens  = errors.New("insufficient tokens in position")
)

// Config holds the account parameters.
type Config struct {
	InitialBalanceSOL decimal.Decimal
	// NetworkFeeSOL and PriorityFeeSOL are charged together on every
	// buy and every sell.
	NetworkFeeSOL  decimal.Decimal
	PriorityFeeSOL decimal.Decimal
	SessionID      string
}

// DefaultConfig mirrors the production paper-trading account.
func DefaultConfig() Config {
	return Config{
		InitialBalanceSOL: decimal.RequireFromString("10.0"),
		NetworkFeeSOL:     decimal.RequireFromString("0.00001"),
		PriorityFeeSOL:    decimal.RequireFromString("0.0004"),
	}
}

// Ledger is the single owner of balance and position state. Operations
// on the same mint are serialized; operations on different mints only
// contend on the balance update itself.
type Ledger struct {
	cfg  Config
	fees decimal.Decimal
	log  zerolog.Logger

	store storage.TradeLogStore

	// mu guards balance and positions. mintLocks serializes buy/sell
	// per mint so the monitor loop and triggered sells cannot interleave
	// on one position.
	mu        sync.RWMutex
	balance   decimal.Decimal
	positions map[string]*domain.Position

	lockMu    sync.Mutex
	mintLocks map[string]*sync.Mutex

	now func() time.Time
}

// New creates a ledger with the configured starting balance. store may
// be nil, in which case trades are kept only in memory via positions.
func New(cfg Config, store storage.TradeLogStore, log zerolog.Logger) *Ledger {
	return &Ledger{
		cfg:       cfg,
		fees:      cfg.NetworkFeeSOL.Add(cfg.PriorityFeeSOL),
		log:       log.With().Str("component", "ledger").Logger(),
		store:     store,
		balance:   cfg.InitialBalanceSOL,
		positions: make(map[string]*domain.Position),
		mintLocks: make(map[string]*sync.Mutex),
		now:       time.Now,
	}
}

// mintLock returns the mutex serializing operations for one mint.
func (l *Ledger) mintLock(mint string) *sync.Mutex {
	l.lockMu.Lock()
	defer l.lockMu.Unlock()

	m, ok := l.mintLocks[mint]
	if !ok {
		m = &sync.Mutex{}
		l.mintLocks[mint] = m
	}
	return m
}

// ExecuteBuy deducts amount+fees from the balance and opens or extends
// the position for mint. Fails with ErrInsufficientBalance when the
// total cost exceeds the balance; no state changes in that case.
func (l *Ledger) ExecuteBuy(ctx context.Context, mint string, solAmount, unitsReceived, price decimal.Decimal) (*domain.TradeResult, error) {
	lock := l.mintLock(mint)
	lock.Lock()
	defer lock.Unlock()

	totalCost := solAmount.Add(l.fees)

	l.mu.Lock()
	if totalCost.GreaterThan(l.balance) {
		l.mu.Unlock()
		return nil, ErrInsufficientBalance
	}

	l.balance = l.balance.Sub(totalCost)

	ts := l.now().UTC()
	pos, ok := l.positions[mint]
	if !ok {
		pos = &domain.Position{
			Mint:       mint,
			EntryTime:  ts,
			EntryPrice: price,
			PeakPrice:  price,
			State:      domain.StateMonitor,
		}
		l.positions[mint] = pos
	}
	pos.Quantity = pos.Quantity.Add(unitsReceived)
	pos.InvestedSOL = pos.InvestedSOL.Add(solAmount)
	pos.FeesPaidSOL = pos.FeesPaidSOL.Add(l.fees)
	balanceAfter := l.balance
	l.mu.Unlock()

	result := &domain.TradeResult{
		Type:         domain.TradeBuy,
		Mint:         mint,
		SOLAmount:    solAmount,
		UnitAmount:   unitsReceived,
		Price:        price,
		FeesSOL:      l.fees,
		ProfitSOL:    decimal.Zero,
		ProfitPct:    decimal.Zero,
		BalanceAfter: balanceAfter,
		Timestamp:    ts,
	}

	l.appendRecord(ctx, result)
	return result, nil
}

// ExecuteSell credits net proceeds (received minus fees) and shrinks or
// removes the position. Profit is measured against the proportional
// cost basis of the units sold.
func (l *Ledger) ExecuteSell(ctx context.Context, mint string, unitsToSell, solReceived, price decimal.Decimal, reason string) (*domain.TradeResult, error) {
	lock := l.mintLock(mint)
	lock.Lock()
	defer lock.Unlock()

	l.mu.Lock()
	pos, ok := l.positions[mint]
	if !ok {
		l.mu.Unlock()
		return nil, ErrNoPosition
	}
	if unitsToSell.GreaterThan(pos.Quantity) {
		l.mu.Unlock()
		return nil, ErrInsufficientTokens
	}

	netProceeds := solReceived.Sub(l.fees)
	proportion := unitsToSell.Div(pos.Quantity)
	costBasis := pos.InvestedSOL.Mul(proportion)
	profit := netProceeds.Sub(costBasis)

	profitPct := decimal.Zero
	if !costBasis.IsZero() {
		profitPct = profit.Div(costBasis).Mul(decimal.NewFromInt(100))
	}

	l.balance = l.balance.Add(netProceeds)

	if unitsToSell.Equal(pos.Quantity) {
		delete(l.positions, mint)
	} else {
		pos.Quantity = pos.Quantity.Sub(unitsToSell)
		pos.InvestedSOL = pos.InvestedSOL.Sub(costBasis)
	}
	balanceAfter := l.balance
	l.mu.Unlock()

	result := &domain.TradeResult{
		Type:         domain.TradeSell,
		Mint:         mint,
		SOLAmount:    netProceeds,
		UnitAmount:   unitsToSell,
		Price:        price,
		FeesSOL:      l.fees,
		ProfitSOL:    profit,
		ProfitPct:    profitPct,
		Reason:       reason,
		BalanceAfter: balanceAfter,
		Timestamp:    l.now().UTC(),
	}

	l.appendRecord(ctx, result)
	return result, nil
}

// appendRecord writes the trade to the log. Log failures are reported
// but never fail the trade itself; the in-memory state is authoritative.
func (l *Ledger) appendRecord(ctx context.Context, r *domain.TradeResult) {
	if l.store == nil {
		return
	}

	record := &domain.TradeRecord{
		TradeID:    idhash.ComputeTradeID(r.Mint, r.Type, r.Timestamp.UnixMilli()),
		Type:       r.Type,
		Mint:       r.Mint,
		SOLAmount:  r.SOLAmount,
		UnitAmount: r.UnitAmount,
		Price:      r.Price,
		ProfitSOL:  r.ProfitSOL,
		ProfitPct:  r.ProfitPct,
		Reason:     r.Reason,
		SessionID:  l.cfg.SessionID,
		Timestamp:  r.Timestamp,
	}

	if err := l.store.Append(ctx, record); err != nil {
		l.log.Warn().Err(err).
			Str("mint", r.Mint).
			Str("type", string(r.Type)).
			Msg("failed to append trade record")
	}
}

// Balance returns the current SOL balance.
func (l *Ledger) Balance() decimal.Decimal {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.balance
}

// Position returns a copy of the position for mint, if open.
func (l *Ledger) Position(mint string) (*domain.Position, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	pos, ok := l.positions[mint]
	if !ok {
		return nil, false
	}
	copy := *pos
	return &copy, true
}

// Positions returns copies of all open positions.
func (l *Ledger) Positions() []*domain.Position {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make([]*domain.Position, 0, len(l.positions))
	for _, pos := range l.positions {
		copy := *pos
		result = append(result, &copy)
	}
	return result
}

// UpdatePeakPrice raises the tracked peak for mint if price exceeds it
// and returns the peak after the update.
func (l *Ledger) UpdatePeakPrice(mint string, price decimal.Decimal) (decimal.Decimal, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	pos, ok := l.positions[mint]
	if !ok {
		return decimal.Zero, false
	}
	if price.GreaterThan(pos.PeakPrice) {
		pos.PeakPrice = price
	}
	return pos.PeakPrice, true
}

// DailyPnL aggregates the trade log for one calendar date.
func (l *Ledger) DailyPnL(ctx context.Context, date string) (*domain.DailyPnL, error) {
	if l.store == nil {
		return &domain.DailyPnL{Date: date}, nil
	}

	records, err := l.store.Day(ctx, date)
	if err != nil {
		return nil, err
	}

	summary := &domain.DailyPnL{Date: date, TotalTrades: len(records)}
	for _, r := range records {
		switch r.Type {
		case domain.TradeBuy:
			summary.Buys++
		case domain.TradeSell:
			summary.Sells++
			summary.TotalProfitSOL = summary.TotalProfitSOL.Add(r.ProfitSOL)
			switch r.ProfitSOL.Sign() {
			case 1:
				summary.WinningTrades++
			case -1:
				summary.LosingTrades++
			}
		}
	}

	if summary.Sells > 0 {
		summary.WinRate = decimal.NewFromInt(int64(summary.WinningTrades)).
			Div(decimal.NewFromInt(int64(summary.Sells))).
			Mul(decimal.NewFromInt(100))
	}
	return summary, nil
}
