package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/vitos/perp_leverage_bot/internal/domain"
	"github.com/vitos/perp_leverage_bot/internal/metrics"
	"go.uber.org/zap"
)

// SessionStatus is the query surface polled by dashboards.
type SessionStatus struct {
	Symbol        string  `json:"symbol"`
	NetWorth      float64 `json:"net_worth"`
	Leverage      float64 `json:"leverage"`
	RealizedPnL   float64 `json:"realized_pnl"`
	UnrealizedPnL float64 `json:"unrealized_pnl"`
	TotalFees     float64 `json:"total_fees"`
	Trades        int     `json:"trades"`
	WinRate       float64 `json:"win_rate"`
	LastAction    string  `json:"last_action"`
}

// TradingSession composes the translator, one executor variant and the trade
// history behind a single per-cycle call. It is single-writer: the caller
// must not invoke cycles concurrently.
type TradingSession struct {
	symbol   string
	profile  Profile
	executor Executor
	journal  domain.TradeJournal
	trades   domain.TradeRepository // optional mirror for the query surface
	logger   *zap.Logger

	mu         sync.RWMutex
	history    []domain.TradeRecord
	lastAction string
}

func NewTradingSession(
	symbol string,
	profile Profile,
	executor Executor,
	journal domain.TradeJournal,
	trades domain.TradeRepository,
	logger *zap.Logger,
) (*TradingSession, error) {
	s := &TradingSession{
		symbol:     symbol,
		profile:    profile,
		executor:   executor,
		journal:    journal,
		trades:     trades,
		logger:     logger,
		lastAction: "--",
	}

	history, err := journal.Load()
	if err != nil {
		// A corrupt history file must not block the session; trading resumes
		// with an empty history, the old file is overwritten on the next trade.
		logger.Warn("Failed to load trade history, starting empty", zap.Error(err))
		history = nil
	}
	s.history = history
	logger.Info("Trading session ready",
		zap.String("symbol", symbol),
		zap.Int("history", len(history)))

	return s, nil
}

// ExecuteTargetLeverage runs one cycle: translate the target into a decision,
// execute it, and commit the resulting record. Hold cycles mutate nothing and
// charge no fee, so repeating an identical call is a no-op.
func (s *TradingSession) ExecuteTargetLeverage(ctx context.Context, targetLeverage, price float64, symbol string) (string, error) {
	if symbol != "" && symbol != s.symbol {
		return "", fmt.Errorf("session is bound to %s, got %s", s.symbol, symbol)
	}

	snap, err := s.executor.Snapshot(ctx, price)
	if err != nil {
		status := "ERROR: " + truncateErr(err, 50)
		s.setLastAction(status)
		metrics.IncCycle("error")
		return status, nil
	}

	view := LedgerView{NetWorth: snap.NetWorth, SignedQuantity: snap.SignedQuantity}
	decision, err := Translate(view, targetLeverage, price, s.profile)
	if err != nil {
		if errors.Is(err, domain.ErrNoBalance) {
			s.logger.Warn("No balance available", zap.Float64("net_worth", snap.NetWorth))
			s.setLastAction("NO BALANCE")
			metrics.IncCycle("no_balance")
			return "NO BALANCE", nil
		}
		// Invalid price fails the cycle and is reported to the caller.
		metrics.IncCycle("error")
		return "", err
	}

	result, err := s.executor.Execute(ctx, decision, price)
	if err != nil {
		return "", err
	}

	if result.Record != nil {
		if err := s.commit(ctx, result.Record); err != nil {
			// The trade already happened; a persistence failure is logged,
			// never surfaced as a failed cycle.
			s.logger.Error("Failed to persist trade record", zap.Error(err))
		}
		metrics.IncOrder(string(decision.Side))
		if result.Record.NetWorth > 0 {
			metrics.SetEquity(result.Record.NetWorth)
		}
		metrics.AddFees(result.Record.Fee)
		metrics.IncCycle("trade")
	} else {
		metrics.IncCycle("hold")
	}

	s.setLastAction(result.Status)
	return result.Status, nil
}

// commit appends the record and flushes the full history. History order is
// append-only: realized PnL depends on the preceding record's state.
func (s *TradingSession) commit(ctx context.Context, rec *domain.TradeRecord) error {
	s.mu.Lock()
	s.history = append(s.history, *rec)
	snapshot := make([]domain.TradeRecord, len(s.history))
	copy(snapshot, s.history)
	s.mu.Unlock()

	if err := s.journal.Save(snapshot); err != nil {
		return fmt.Errorf("journal save: %w", err)
	}
	if s.trades != nil {
		if err := s.trades.SaveTradeRecord(ctx, s.symbol, rec); err != nil {
			return fmt.Errorf("trade store: %w", err)
		}
	}
	return nil
}

// Status reports the account state at the given price.
func (s *TradingSession) Status(ctx context.Context, price float64) (*SessionStatus, error) {
	snap, err := s.executor.Snapshot(ctx, price)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	trades := len(s.history)
	last := s.lastAction
	s.mu.RUnlock()

	return &SessionStatus{
		Symbol:        s.symbol,
		NetWorth:      snap.NetWorth,
		Leverage:      snap.Leverage,
		RealizedPnL:   snap.RealizedPnL,
		UnrealizedPnL: snap.UnrealizedPnL,
		TotalFees:     snap.TotalFees,
		Trades:        trades,
		WinRate:       s.WinRate(),
		LastAction:    last,
	}, nil
}

// WinRate is the percentage of history records with positive realized PnL,
// 0 when the history is empty.
func (s *TradingSession) WinRate() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.history) == 0 {
		return 0
	}
	wins := 0
	for _, rec := range s.history {
		if rec.RealizedPnL > 0 {
			wins++
		}
	}
	return float64(wins) / float64(len(s.history)) * 100
}

// History returns a copy of the trade history, oldest first.
func (s *TradingSession) History() []domain.TradeRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.TradeRecord, len(s.history))
	copy(out, s.history)
	return out
}

func (s *TradingSession) Symbol() string { return s.symbol }

func (s *TradingSession) setLastAction(status string) {
	s.mu.Lock()
	s.lastAction = status
	s.mu.Unlock()
}
