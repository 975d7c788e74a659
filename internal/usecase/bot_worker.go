package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/vitos/perp_leverage_bot/internal/domain"
	"github.com/vitos/perp_leverage_bot/internal/metrics"
	"go.uber.org/zap"
)

// smoothingAlpha is the EMA weight applied to the raw policy signal. Raw
// targets can swing the full ±MaxLeverage range between cycles; smoothing
// keeps the engine from churning the position on every policy twitch.
const smoothingAlpha = 0.3

// BotWorker drives the session: one cycle per tick, each cycle polling the
// policy for a target leverage, smoothing and clamping it, and handing it to
// the session. Cycles run strictly sequentially; the session is
// single-writer and the worker is its only caller.
type BotWorker struct {
	session  *TradingSession
	policy   domain.PolicySource
	exchange domain.Exchange
	interval time.Duration
	logger   *zap.Logger

	smoothed float64

	mu        sync.RWMutex
	lastPrice float64
	priceAt   time.Time
}

func NewBotWorker(
	session *TradingSession,
	policy domain.PolicySource,
	exchange domain.Exchange,
	interval time.Duration,
	logger *zap.Logger,
) *BotWorker {
	return &BotWorker{
		session:  session,
		policy:   policy,
		exchange: exchange,
		interval: interval,
		logger:   logger,
	}
}

// OnPriceUpdate is wired to the exchange websocket stream; the cached price
// spares a REST round trip per cycle.
func (w *BotWorker) OnPriceUpdate(symbol string, price float64) {
	if symbol != w.session.Symbol() || price <= 0 {
		return
	}
	w.mu.Lock()
	w.lastPrice = price
	w.priceAt = time.Now()
	w.mu.Unlock()
}

// LastPrice returns the most recent price seen, 0 if none yet.
func (w *BotWorker) LastPrice() float64 {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.lastPrice
}

// cachedPrice returns the streamed price only while it is fresh. A dead
// websocket stops updating the cache; once the value is older than one cycle
// the worker sizes against REST instead of a frozen price.
func (w *BotWorker) cachedPrice() (float64, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.lastPrice <= 0 || time.Since(w.priceAt) > w.interval {
		return 0, false
	}
	return w.lastPrice, true
}

// Run blocks until ctx is cancelled, executing one cycle per interval.
func (w *BotWorker) Run(ctx context.Context) {
	w.logger.Info("Starting bot worker",
		zap.String("symbol", w.session.Symbol()),
		zap.Duration("interval", w.interval))

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.runCycle(ctx)
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Bot worker stopped")
			return
		case <-ticker.C:
			w.runCycle(ctx)
		}
	}
}

func (w *BotWorker) runCycle(ctx context.Context) {
	signal, err := w.policy.NextSignal(ctx)
	if err != nil {
		w.logger.Error("Failed to poll policy", zap.Error(err))
		metrics.IncCycle("skipped")
		return
	}

	// The liveness gate: the policy sidecar reports Training while it is
	// retraining, and the session must not be invoked during that window.
	if signal.Training {
		w.logger.Info("Policy is retraining, cycle skipped")
		metrics.IncCycle("skipped")
		return
	}

	price, ok := w.cachedPrice()
	if !ok {
		price, err = w.exchange.FetchLastPrice(ctx, w.session.Symbol())
		if err != nil {
			w.logger.Error("Failed to fetch price", zap.Error(err))
			metrics.IncCycle("skipped")
			return
		}
	}

	maxLev := w.session.profile.MaxLeverage
	raw := clamp(signal.TargetLeverage, -maxLev, maxLev)
	w.smoothed = smoothingAlpha*raw + (1-smoothingAlpha)*w.smoothed
	metrics.SetTargetLeverage(w.smoothed)

	status, err := w.session.ExecuteTargetLeverage(ctx, w.smoothed, price, w.session.Symbol())
	if err != nil {
		w.logger.Error("Cycle failed", zap.Error(err))
		return
	}

	w.logger.Info("Cycle complete",
		zap.Float64("price", price),
		zap.Float64("raw_target", raw),
		zap.Float64("smoothed_target", w.smoothed),
		zap.String("action", status))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
