package usecase

import (
	"context"
	"math"

	"github.com/vitos/perp_leverage_bot/internal/domain"
)

// AccountSnapshot is the account state an executor reports before and after
// trades. The simulated backend derives it locally; the live backend reads it
// from the exchange.
type AccountSnapshot struct {
	NetWorth       float64
	SignedQuantity float64
	EntryPrice     float64
	UnrealizedPnL  float64
	Leverage       float64
	RealizedPnL    float64
	TotalFees      float64
}

// ActionResult is the outcome of one executed decision. Record is nil unless
// a trade was committed.
type ActionResult struct {
	Status string
	Record *domain.TradeRecord
}

// Executor realizes decisions against one backend. Both variants must behave
// identically from the caller's perspective; only the source of truth for
// account state differs.
type Executor interface {
	Snapshot(ctx context.Context, price float64) (*AccountSnapshot, error)
	Execute(ctx context.Context, decision domain.Decision, price float64) (*ActionResult, error)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func truncateErr(err error, limit int) string {
	msg := err.Error()
	if len(msg) > limit {
		return msg[:limit]
	}
	return msg
}
