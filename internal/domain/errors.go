package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidPrice fails a cycle before any mutation.
	ErrInvalidPrice = errors.New("price must be positive")

	// ErrMarginInsufficient is returned by the exchange when an order is
	// rejected for margin. The live executor retries once at reduced size.
	ErrMarginInsufficient = errors.New("margin is insufficient")

	// ErrNoBalance means the account equity is zero or negative.
	ErrNoBalance = errors.New("no balance available")
)

// ExchangeError wraps a transport or API failure from the exchange. The
// ledger is never mutated when one is returned.
type ExchangeError struct {
	Op     string
	Symbol string
	Err    error
}

func (e *ExchangeError) Error() string {
	if e.Symbol != "" {
		return fmt.Sprintf("exchange %s [%s]: %v", e.Op, e.Symbol, e.Err)
	}
	return fmt.Sprintf("exchange %s: %v", e.Op, e.Err)
}

func (e *ExchangeError) Unwrap() error { return e.Err }

func NewExchangeError(op, symbol string, err error) *ExchangeError {
	return &ExchangeError{Op: op, Symbol: symbol, Err: err}
}

// ConfigError is fatal at session construction; the session never starts.
type ConfigError struct {
	Field string
	Msg   string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error [%s]: %s", e.Field, e.Msg)
}
