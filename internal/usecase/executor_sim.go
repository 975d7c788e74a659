package usecase

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/vitos/perp_leverage_bot/internal/domain"
	"go.uber.org/zap"
)

// SimulatedExecutor fills trades against a local ledger using a flat
// commission model. Commission is charged on the full trade notional, so a
// flip executed in one call pays for both the closing and the opening leg.
type SimulatedExecutor struct {
	ledger  *PositionLedger
	profile Profile
	logger  *zap.Logger
}

func NewSimulatedExecutor(profile Profile, logger *zap.Logger) *SimulatedExecutor {
	return &SimulatedExecutor{
		ledger:  NewPositionLedger(profile.InitialBalance),
		profile: profile,
		logger:  logger,
	}
}

// Ledger exposes the backing ledger for status queries and tests.
func (e *SimulatedExecutor) Ledger() *PositionLedger { return e.ledger }

func (e *SimulatedExecutor) Snapshot(ctx context.Context, price float64) (*AccountSnapshot, error) {
	return &AccountSnapshot{
		NetWorth:       e.ledger.NetWorth(price),
		SignedQuantity: e.ledger.Quantity,
		EntryPrice:     e.ledger.EntryPrice,
		UnrealizedPnL:  e.ledger.UnrealizedPnL(price),
		Leverage:       e.ledger.Leverage(price),
		RealizedPnL:    e.ledger.RealizedPnL,
		TotalFees:      e.ledger.TotalFees,
	}, nil
}

func (e *SimulatedExecutor) Execute(ctx context.Context, d domain.Decision, price float64) (*ActionResult, error) {
	if d.IsHold() {
		return &ActionResult{Status: fmt.Sprintf("HOLD (%s)", d.Reason)}, nil
	}

	tradeQty := d.Quantity
	if d.Side == domain.OrderSell {
		tradeQty = -tradeQty
	}

	fee := math.Abs(tradeQty*price) * e.profile.CommissionRate
	e.ledger.AddFee(fee)

	stepRealized := e.ledger.ApplyFill(tradeQty, price)

	netWorth := e.ledger.NetWorth(price)
	leverage := e.ledger.Leverage(price)
	unrealized := e.ledger.UnrealizedPnL(price)
	positionType := classifyPosition(leverage)

	e.logger.Info("Simulated fill",
		zap.String("side", string(d.Side)),
		zap.Float64("quantity", d.Quantity),
		zap.Float64("price", price),
		zap.Float64("fee", fee),
		zap.Float64("realized", stepRealized),
		zap.Float64("leverage", leverage),
	)

	record := &domain.TradeRecord{
		Timestamp:     time.Now(),
		Type:          positionType,
		Price:         price,
		Amount:        d.Quantity,
		RealizedPnL:   round2(stepRealized),
		UnrealizedPnL: round2(unrealized),
		Fee:           round2(fee),
		NetWorth:      round2(netWorth),
		Leverage:      round2(leverage),
	}

	return &ActionResult{
		Status: fmt.Sprintf("%s %.1fx", positionType, math.Abs(leverage)),
		Record: record,
	}, nil
}
