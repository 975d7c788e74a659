package domain

import "time"

type Side string

const (
	SideLong  Side = "LONG"
	SideShort Side = "SHORT"
	SideNone  Side = "NONE"
)

type OrderSide string

const (
	OrderBuy  OrderSide = "BUY"
	OrderSell OrderSide = "SELL"
)

// PositionType classifies a committed trade record by the leverage it left
// behind: CLOSE when the remaining exposure is negligible.
type PositionType string

const (
	PositionLong  PositionType = "LONG"
	PositionShort PositionType = "SHORT"
	PositionClose PositionType = "CLOSE"
)

// Position is a position snapshot as reported by the exchange.
type Position struct {
	Symbol        string
	Side          Side
	Contracts     float64 // unsigned size in base units
	Notional      float64 // unsigned, quote units
	EntryPrice    float64
	UnrealizedPnL float64
	Leverage      float64
}

// SignedQuantity returns contracts signed by side: long positive, short negative.
func (p *Position) SignedQuantity() float64 {
	switch p.Side {
	case SideShort:
		return -p.Contracts
	case SideLong:
		return p.Contracts
	}
	return 0
}

// SignedNotional returns notional signed by side.
func (p *Position) SignedNotional() float64 {
	switch p.Side {
	case SideShort:
		return -abs(p.Notional)
	case SideLong:
		return abs(p.Notional)
	}
	return 0
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// OrderFill is the normalized result of a filled market order.
type OrderFill struct {
	OrderID        string
	FilledQuantity float64
	AvgPrice       float64
	FeeCost        float64 // 0 if the exchange did not report a fee
}

// TradeRecord is one committed trade. Records are append-only and never
// reordered: realized PnL and entry price depend on the preceding state.
type TradeRecord struct {
	Timestamp     time.Time    `json:"timestamp"`
	Type          PositionType `json:"type"`
	Price         float64      `json:"price"`
	Amount        float64      `json:"amount"`
	RealizedPnL   float64      `json:"realized_pnl"`
	UnrealizedPnL float64      `json:"unrealized_pnl"`
	Fee           float64      `json:"fee"`
	NetWorth      float64      `json:"net_worth"`
	Leverage      float64      `json:"leverage"`
}
