package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/vitos/perp_leverage_bot/internal/domain"
	"go.uber.org/zap"
)

// settleDelay gives the exchange time to reflect a fill in its position and
// balance endpoints before reconciliation. Bounded well under one cycle.
const settleDelay = 500 * time.Millisecond

// lowBalanceWarn is the equity under which opening the exchange minimum is
// unlikely to ever succeed.
const lowBalanceWarn = 20.0

// LiveExecutor submits market orders to the exchange and reconciles account
// state from exchange reads. Quantity, entry price and net worth are never
// projected locally; only realized PnL and fees are accumulated here, from
// confirmed fills.
type LiveExecutor struct {
	exchange domain.Exchange
	symbol   string
	profile  Profile
	logger   *zap.Logger

	realizedPnL float64
	totalFees   float64
}

// NewLiveExecutor verifies the account is reachable, applies the session
// leverage (best effort) and warns on a balance too low to trade.
func NewLiveExecutor(ctx context.Context, exchange domain.Exchange, symbol string, profile Profile, logger *zap.Logger) (*LiveExecutor, error) {
	e := &LiveExecutor{
		exchange: exchange,
		symbol:   symbol,
		profile:  profile,
		logger:   logger,
	}

	equity, err := exchange.FetchEquity(ctx)
	if err != nil {
		return nil, domain.NewExchangeError("fetch equity", symbol, err)
	}

	if err := exchange.SetLeverage(ctx, symbol, int(profile.MaxLeverage)); err != nil {
		logger.Warn("Could not set leverage", zap.String("symbol", symbol), zap.Error(err))
	} else {
		logger.Info("Max leverage set", zap.Float64("leverage", profile.MaxLeverage))
	}

	logger.Info("Live session connected", zap.String("symbol", symbol), zap.Float64("equity", equity))
	if equity < lowBalanceWarn {
		logger.Warn("Balance too low to meet the exchange minimum notional",
			zap.Float64("equity", equity),
			zap.Float64("min_notional", profile.MinNotional))
	}

	return e, nil
}

func (e *LiveExecutor) Snapshot(ctx context.Context, price float64) (*AccountSnapshot, error) {
	equity, err := e.exchange.FetchEquity(ctx)
	if err != nil {
		return nil, domain.NewExchangeError("fetch equity", e.symbol, err)
	}
	pos, err := e.exchange.FetchPosition(ctx, e.symbol)
	if err != nil {
		return nil, domain.NewExchangeError("fetch position", e.symbol, err)
	}

	leverage := 0.0
	if equity > 0 {
		leverage = pos.SignedNotional() / equity
	}

	return &AccountSnapshot{
		NetWorth:       equity,
		SignedQuantity: pos.SignedQuantity(),
		EntryPrice:     pos.EntryPrice,
		UnrealizedPnL:  pos.UnrealizedPnL,
		Leverage:       leverage,
		RealizedPnL:    e.realizedPnL,
		TotalFees:      e.totalFees,
	}, nil
}

func (e *LiveExecutor) Execute(ctx context.Context, d domain.Decision, price float64) (*ActionResult, error) {
	if d.IsHold() {
		return &ActionResult{Status: fmt.Sprintf("HOLD (%s)", d.Reason)}, nil
	}

	// Pre-trade snapshot: the realized-PnL split needs the entry price and
	// size as they were before this order.
	pre, err := e.exchange.FetchPosition(ctx, e.symbol)
	if err != nil {
		return &ActionResult{Status: "ERROR: " + truncateErr(err, 50)}, nil
	}

	side := "BUY"
	if d.Side == domain.OrderSell {
		side = "SELL"
	}
	e.logger.Info("Placing market order",
		zap.String("side", side),
		zap.Float64("quantity", d.Quantity),
		zap.Bool("reduce_only", d.ReduceOnly))

	fill, err := e.exchange.CreateMarketOrder(ctx, e.symbol, d.Side, d.Quantity, d.ReduceOnly)
	if err != nil {
		if !errors.Is(err, domain.ErrMarginInsufficient) {
			e.logger.Error("Order failed", zap.Error(err))
			return &ActionResult{Status: "ERROR: " + truncateErr(err, 50)}, nil
		}

		// One retry at 95% of the computed size, re-rounded. A second
		// rejection fails the cycle with the ledger untouched.
		retryQty := e.exchange.RoundToPrecision(e.symbol, d.Quantity*0.95)
		if retryQty <= 0 {
			// A single-step order shrinks to nothing at 95%; submitting a
			// zero-quantity order would only collect another rejection.
			e.logger.Error("Retry size rounds to zero", zap.Float64("quantity", d.Quantity))
			return &ActionResult{Status: "RETRY FAIL: " + truncateErr(err, 50)}, nil
		}
		e.logger.Warn("Margin insufficient, retrying at 95% size",
			zap.Float64("quantity", retryQty))
		fill, err = e.exchange.CreateMarketOrder(ctx, e.symbol, d.Side, retryQty, d.ReduceOnly)
		if err != nil {
			e.logger.Error("Retry failed", zap.Error(err))
			return &ActionResult{Status: "RETRY FAIL: " + truncateErr(err, 50)}, nil
		}
	}

	fee := fill.FeeCost
	if fee == 0 {
		fee = fill.FilledQuantity * fill.AvgPrice * e.profile.CommissionRate
	}
	e.totalFees += fee

	var stepRealized float64
	if d.ReduceOnly && pre.EntryPrice > 0 {
		closedQty := math.Min(fill.FilledQuantity, pre.Contracts)
		if pre.Side == domain.SideLong {
			stepRealized = (fill.AvgPrice - pre.EntryPrice) * closedQty
		} else {
			stepRealized = (pre.EntryPrice - fill.AvgPrice) * closedQty
		}
		e.realizedPnL += stepRealized
	}

	// Let the exchange settle the position update, then reconcile from fresh
	// reads. Reconciled values win; projection is only the fallback when the
	// post-trade reads fail, so a confirmed fill always reaches the journal.
	select {
	case <-time.After(settleDelay):
	case <-ctx.Done():
		return e.projectedResult(ctx.Err(), d, pre, fill, fee, stepRealized), nil
	}

	newPos, err := e.exchange.FetchPosition(ctx, e.symbol)
	if err != nil {
		return e.projectedResult(err, d, pre, fill, fee, stepRealized), nil
	}
	newEquity, err := e.exchange.FetchEquity(ctx)
	if err != nil {
		return e.projectedResult(err, d, pre, fill, fee, stepRealized), nil
	}

	newLeverage := 0.0
	if newEquity > 0 {
		newLeverage = newPos.SignedNotional() / newEquity
	}
	positionType := classifyPosition(newLeverage)

	e.logger.Info("Order filled",
		zap.String("order_id", fill.OrderID),
		zap.String("side", side),
		zap.Float64("filled", fill.FilledQuantity),
		zap.Float64("avg_price", fill.AvgPrice),
		zap.Float64("fee", fee),
		zap.Float64("realized", stepRealized),
		zap.String("position", string(positionType)),
		zap.Float64("leverage", newLeverage),
	)

	record := &domain.TradeRecord{
		Timestamp:     time.Now(),
		Type:          positionType,
		Price:         fill.AvgPrice,
		Amount:        fill.FilledQuantity,
		RealizedPnL:   round2(stepRealized),
		UnrealizedPnL: round2(newPos.UnrealizedPnL),
		Fee:           round2(fee),
		NetWorth:      round2(newEquity),
		Leverage:      round2(newLeverage),
	}

	return &ActionResult{
		Status: fmt.Sprintf("%s %.1fx", positionType, math.Abs(newLeverage)),
		Record: record,
	}, nil
}

// projectedResult journals a confirmed fill when the post-trade reads are
// unavailable. The record carries the fill and the locally projected position
// type; equity-derived fields stay zero and the status reports the read
// failure. The next successful Snapshot reconciles against exchange state.
func (e *LiveExecutor) projectedResult(readErr error, d domain.Decision, pre *domain.Position, fill *domain.OrderFill, fee, stepRealized float64) *ActionResult {
	signedFill := fill.FilledQuantity
	if d.Side == domain.OrderSell {
		signedFill = -signedFill
	}
	projectedQty := pre.SignedQuantity() + signedFill

	positionType := domain.PositionClose
	switch {
	case projectedQty > qtyEpsilon:
		positionType = domain.PositionLong
	case projectedQty < -qtyEpsilon:
		positionType = domain.PositionShort
	}

	e.logger.Error("Reconcile failed after fill, journaling projected record",
		zap.String("order_id", fill.OrderID),
		zap.Float64("filled", fill.FilledQuantity),
		zap.Error(readErr))

	return &ActionResult{
		Status: "ERROR: " + truncateErr(readErr, 50),
		Record: &domain.TradeRecord{
			Timestamp:   time.Now(),
			Type:        positionType,
			Price:       fill.AvgPrice,
			Amount:      fill.FilledQuantity,
			RealizedPnL: round2(stepRealized),
			Fee:         round2(fee),
		},
	}
}
