package domain

import "context"

// Exchange defines the capability the live executor needs from a derivatives
// exchange. Implementations must return ErrMarginInsufficient (wrapped or
// bare) when an order is rejected for margin, never a free-text message.
type Exchange interface {
	FetchEquity(ctx context.Context) (float64, error)
	FetchPosition(ctx context.Context, symbol string) (*Position, error)
	FetchLastPrice(ctx context.Context, symbol string) (float64, error)
	SetLeverage(ctx context.Context, symbol string, leverage int) error
	CreateMarketOrder(ctx context.Context, symbol string, side OrderSide, quantity float64, reduceOnly bool) (*OrderFill, error)

	// RoundToPrecision rounds a quantity down to the symbol's step size.
	RoundToPrecision(symbol string, quantity float64) float64
	PrecisionStep(symbol string) float64
}

// TradeJournal persists the session trade history as one document. Save
// rewrites the full history so a crash between cycles never leaves a partial
// record behind.
type TradeJournal interface {
	Load() ([]TradeRecord, error)
	Save(records []TradeRecord) error
}

// TradeRepository mirrors committed trade records into queryable storage for
// the web surface and offline analysis.
type TradeRepository interface {
	SaveTradeRecord(ctx context.Context, symbol string, rec *TradeRecord) error
	ListTradeRecords(ctx context.Context, symbol string, limit int) ([]*TradeRecord, error)
}

// PolicySignal is one cycle's worth of output from the external policy.
type PolicySignal struct {
	TargetLeverage float64 `json:"target_leverage"`
	Training       bool    `json:"training"`
}

// PolicySource produces the desired leverage each cycle. The Training flag is
// the liveness gate: the worker must not run a cycle while it is set.
type PolicySource interface {
	NextSignal(ctx context.Context) (*PolicySignal, error)
}
