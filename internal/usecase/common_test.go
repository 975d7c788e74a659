package usecase_test

import (
	"context"
	"math"

	"github.com/vitos/perp_leverage_bot/internal/domain"
)

type placedOrder struct {
	Side       domain.OrderSide
	Quantity   float64
	ReduceOnly bool
}

// MockExchange plays back scripted positions, fills and errors in call order.
// When a queue runs out the last element repeats.
type MockExchange struct {
	Equity    float64
	LastPrice float64
	Step      float64

	Positions []*domain.Position
	PosErrs   []error
	Fills     []*domain.OrderFill
	OrderErrs []error

	Orders      []placedOrder
	LeverageSet int

	posCalls  int
	fillCalls int
}

func (m *MockExchange) FetchEquity(ctx context.Context) (float64, error) {
	return m.Equity, nil
}

func (m *MockExchange) FetchPosition(ctx context.Context, symbol string) (*domain.Position, error) {
	i := m.posCalls
	m.posCalls++
	if i < len(m.PosErrs) && m.PosErrs[i] != nil {
		return nil, m.PosErrs[i]
	}
	if len(m.Positions) == 0 {
		return &domain.Position{Symbol: symbol, Side: domain.SideNone}, nil
	}
	if i >= len(m.Positions) {
		i = len(m.Positions) - 1
	}
	return m.Positions[i], nil
}

func (m *MockExchange) FetchLastPrice(ctx context.Context, symbol string) (float64, error) {
	return m.LastPrice, nil
}

func (m *MockExchange) SetLeverage(ctx context.Context, symbol string, leverage int) error {
	m.LeverageSet = leverage
	return nil
}

func (m *MockExchange) CreateMarketOrder(ctx context.Context, symbol string, side domain.OrderSide, quantity float64, reduceOnly bool) (*domain.OrderFill, error) {
	m.Orders = append(m.Orders, placedOrder{Side: side, Quantity: quantity, ReduceOnly: reduceOnly})

	i := m.fillCalls
	m.fillCalls++
	if i < len(m.OrderErrs) && m.OrderErrs[i] != nil {
		return nil, m.OrderErrs[i]
	}
	if len(m.Fills) == 0 {
		return &domain.OrderFill{OrderID: "mock-1", FilledQuantity: quantity, AvgPrice: m.LastPrice}, nil
	}
	if i >= len(m.Fills) {
		i = len(m.Fills) - 1
	}
	return m.Fills[i], nil
}

func (m *MockExchange) PrecisionStep(symbol string) float64 {
	if m.Step == 0 {
		return 0.001
	}
	return m.Step
}

func (m *MockExchange) RoundToPrecision(symbol string, quantity float64) float64 {
	step := m.PrecisionStep(symbol)
	return math.Floor(quantity/step+1e-9) * step
}
