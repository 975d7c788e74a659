package usecase

import (
	"fmt"
	"math"

	"github.com/vitos/perp_leverage_bot/internal/domain"
)

// Profile holds the execution constraints for one backend. Values are fixed
// at session construction.
type Profile struct {
	MaxLeverage    float64
	SafetyMargin   float64 // fraction of target notional actually placed
	CommissionRate float64
	MinNotional    float64 // exchange minimum for opening orders
	MinDust        float64 // minimum for reduce-only orders
	Step           float64 // quantity precision step; 0 = no rounding
	AutoScale      bool    // bump undersized opening trades up to MinNotional
	InitialBalance float64 // simulated backend only
}

// LiveProfile mirrors Binance USDT-M futures constraints. The safety margin
// leaves headroom for fees and slippage before hitting margin limits.
func LiveProfile(maxLeverage, step float64) Profile {
	return Profile{
		MaxLeverage:    maxLeverage,
		SafetyMargin:   0.98,
		CommissionRate: 0.0005,
		MinNotional:    110,
		MinDust:        5,
		Step:           step,
		AutoScale:      true,
	}
}

// SimProfile trades at raw float precision with a small minimum, matching the
// paper backend's frictionless fills.
func SimProfile(maxLeverage, initialBalance float64) Profile {
	return Profile{
		MaxLeverage:    maxLeverage,
		SafetyMargin:   1.0,
		CommissionRate: 0.0005,
		MinNotional:    10,
		MinDust:        5,
		InitialBalance: initialBalance,
	}
}

// LedgerView is the read-only account state the translator needs.
type LedgerView struct {
	NetWorth       float64
	SignedQuantity float64 // long positive, short negative
}

// maxRoundingFixes bounds the post-rounding correction loop.
const maxRoundingFixes = 10

// Translate computes the minimal trade that moves the account from its
// current exposure to targetLeverage at the given price. It is pure: the same
// inputs always produce the same Decision.
//
// The caller clamps targetLeverage to ±MaxLeverage beforehand.
func Translate(view LedgerView, targetLeverage, price float64, p Profile) (domain.Decision, error) {
	if price <= 0 {
		return domain.Decision{}, domain.ErrInvalidPrice
	}
	if view.NetWorth <= 0 {
		return domain.Decision{}, domain.ErrNoBalance
	}

	targetNotional := view.NetWorth * targetLeverage * p.SafetyMargin
	currentNotional := view.SignedQuantity * price
	tradeNotional := targetNotional - currentNotional

	if tradeNotional == 0 {
		return domain.Hold(fmt.Sprintf("at target %.2fx", targetLeverage)), nil
	}

	isReducing := (view.SignedQuantity > 0 && tradeNotional < 0) ||
		(view.SignedQuantity < 0 && tradeNotional > 0)

	if isReducing {
		if math.Abs(tradeNotional) < p.MinDust {
			return domain.Hold(fmt.Sprintf("dust reduce $%.2f", math.Abs(tradeNotional))), nil
		}
	} else if math.Abs(tradeNotional) < p.MinNotional {
		if !p.AutoScale {
			return domain.Hold(fmt.Sprintf("below minimum $%.2f", math.Abs(tradeNotional))), nil
		}
		// Undersized opening trade: scale up to the exchange minimum if the
		// account can carry it at max leverage, otherwise there is nothing
		// this balance can legally do.
		maxPossible := view.NetWorth * p.MaxLeverage * p.SafetyMargin
		if maxPossible < p.MinNotional {
			return domain.Hold("balance too low"), nil
		}
		if tradeNotional > 0 {
			tradeNotional = p.MinNotional
		} else {
			tradeNotional = -p.MinNotional
		}
	}

	quantity := math.Abs(tradeNotional) / price
	if p.Step > 0 {
		quantity = roundToStep(quantity, p.Step)

		if !isReducing && quantity*price < p.MinNotional {
			// Rounding down can push an opening order back under the
			// minimum. Bump by single steps, capped both by iteration count
			// and by the notional the account can carry at max leverage.
			notionalCap := view.NetWorth * p.MaxLeverage * 0.99
			fixed := false
			for i := 0; i < maxRoundingFixes; i++ {
				quantity += p.Step
				value := quantity * price
				if value > notionalCap {
					return domain.Hold("cannot reach minimum after rounding"), nil
				}
				if value >= p.MinNotional {
					fixed = true
					break
				}
			}
			if !fixed {
				return domain.Hold("cannot reach minimum after rounding"), nil
			}
		}
	}

	if quantity <= 0 {
		return domain.Hold("quantity rounds to zero"), nil
	}

	side := domain.OrderBuy
	if tradeNotional < 0 {
		side = domain.OrderSell
	}
	return domain.Trade(side, quantity, isReducing), nil
}

func roundToStep(quantity, step float64) float64 {
	// The epsilon keeps 0.2/0.001 style divisions from flooring one step low.
	return math.Floor(quantity/step+1e-9) * step
}
