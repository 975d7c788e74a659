package usecase

import (
	"math"

	"github.com/vitos/perp_leverage_bot/internal/domain"
)

// qtyEpsilon is the threshold below which a residual quantity snaps to flat.
const qtyEpsilon = 1e-10

// PositionLedger is the authoritative record of the simulated account: signed
// quantity, weighted entry price, cash, and cumulative realized PnL and fees.
// Quantity and EntryPrice are zero together or not at all.
type PositionLedger struct {
	InitialBalance float64
	Cash           float64
	Quantity       float64 // long positive, short negative
	EntryPrice     float64
	RealizedPnL    float64
	TotalFees      float64
}

func NewPositionLedger(initialBalance float64) *PositionLedger {
	return &PositionLedger{
		InitialBalance: initialBalance,
		Cash:           initialBalance,
	}
}

func (l *PositionLedger) UnrealizedPnL(price float64) float64 {
	if l.Quantity == 0 || l.EntryPrice == 0 {
		return 0
	}
	if l.Quantity > 0 {
		return (price - l.EntryPrice) * l.Quantity
	}
	return (l.EntryPrice - price) * math.Abs(l.Quantity)
}

func (l *PositionLedger) NetWorth(price float64) float64 {
	return l.Cash + l.UnrealizedPnL(price)
}

// Leverage is signed notional over net worth; 0 when net worth is not positive.
func (l *PositionLedger) Leverage(price float64) float64 {
	nw := l.NetWorth(price)
	if nw <= 0 {
		return 0
	}
	return (l.Quantity * price) / nw
}

func (l *PositionLedger) View(price float64) LedgerView {
	return LedgerView{
		NetWorth:       l.NetWorth(price),
		SignedQuantity: l.Quantity,
	}
}

// AddFee debits cash and accumulates total fees.
func (l *PositionLedger) AddFee(fee float64) {
	l.Cash -= fee
	l.TotalFees += fee
}

// ApplyFill adds a signed trade quantity at price and returns the realized
// PnL of the reducing portion, if any. Entry price is a notional-weighted
// average on same-direction adds and resets on open-from-flat and on flips.
func (l *PositionLedger) ApplyFill(tradeQty, price float64) float64 {
	var stepRealized float64

	reducing := (l.Quantity > 0 && tradeQty < 0) || (l.Quantity < 0 && tradeQty > 0)
	if reducing && l.EntryPrice > 0 {
		closedQty := math.Min(math.Abs(tradeQty), math.Abs(l.Quantity))
		if l.Quantity > 0 {
			stepRealized = (price - l.EntryPrice) * closedQty
		} else {
			stepRealized = (l.EntryPrice - price) * closedQty
		}
		l.RealizedPnL += stepRealized
	}

	oldQty := l.Quantity
	switch {
	case (l.Quantity > 0 && tradeQty > 0) || (l.Quantity < 0 && tradeQty < 0):
		total := l.Quantity + tradeQty
		notional := l.Quantity*l.EntryPrice + tradeQty*price
		l.EntryPrice = math.Abs(notional / total)
	case l.Quantity == 0 && tradeQty != 0:
		l.EntryPrice = price
	}

	l.Quantity += tradeQty

	// A flip closes the old position fully; the remainder opened at price.
	if (oldQty > 0 && l.Quantity < 0) || (oldQty < 0 && l.Quantity > 0) {
		l.EntryPrice = price
	}

	if math.Abs(l.Quantity) < qtyEpsilon {
		l.Quantity = 0
		l.EntryPrice = 0
	}

	return stepRealized
}

// classifyPosition maps the post-trade leverage to a record type. Exposure
// under 0.1x counts as flat.
func classifyPosition(leverage float64) domain.PositionType {
	switch {
	case math.Abs(leverage) < 0.1:
		return domain.PositionClose
	case leverage > 0:
		return domain.PositionLong
	default:
		return domain.PositionShort
	}
}
