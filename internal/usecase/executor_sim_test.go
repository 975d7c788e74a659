package usecase_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitos/perp_leverage_bot/internal/domain"
	"github.com/vitos/perp_leverage_bot/internal/usecase"
	"go.uber.org/zap"
)

func TestSimulatedOpenLong(t *testing.T) {
	// 1. Fresh paper account with 10000.
	exec := usecase.NewSimulatedExecutor(usecase.SimProfile(5, 10000), zap.NewNop())
	ctx := context.Background()

	// 2. Buy 0.2 at 50000.
	result, err := exec.Execute(ctx, domain.Trade(domain.OrderBuy, 0.2, false), 50000)
	require.NoError(t, err)
	require.NotNil(t, result.Record)

	// 3. Commission 0.0005 on 10000 notional is 5; cash drops to 9995.
	ledger := exec.Ledger()
	assert.InDelta(t, 5.0, ledger.TotalFees, 1e-9)
	assert.InDelta(t, 9995.0, ledger.Cash, 1e-9)
	assert.Equal(t, 50000.0, ledger.EntryPrice)
	assert.InDelta(t, 0.2, ledger.Quantity, 1e-12)

	assert.Equal(t, domain.PositionLong, result.Record.Type)
	assert.Equal(t, "LONG 1.0x", result.Status)
	assert.InDelta(t, 5.0, result.Record.Fee, 1e-9)
	assert.InDelta(t, 9995.0, result.Record.NetWorth, 1e-9)
}

func TestSimulatedRoundTrip(t *testing.T) {
	exec := usecase.NewSimulatedExecutor(usecase.SimProfile(5, 10000), zap.NewNop())
	ctx := context.Background()

	_, err := exec.Execute(ctx, domain.Trade(domain.OrderBuy, 0.2, false), 50000)
	require.NoError(t, err)
	result, err := exec.Execute(ctx, domain.Trade(domain.OrderSell, 0.2, true), 50000)
	require.NoError(t, err)

	// Flat again at the same price: equity is the start minus two commissions.
	ledger := exec.Ledger()
	assert.Equal(t, 0.0, ledger.Quantity)
	assert.Equal(t, 0.0, ledger.EntryPrice)
	assert.InDelta(t, 10.0, ledger.TotalFees, 1e-9)
	assert.InDelta(t, 9990.0, ledger.NetWorth(50000), 1e-9)
	assert.Equal(t, domain.PositionClose, result.Record.Type)
	assert.Equal(t, "CLOSE 0.0x", result.Status)
}

func TestSimulatedHoldMutatesNothing(t *testing.T) {
	exec := usecase.NewSimulatedExecutor(usecase.SimProfile(5, 10000), zap.NewNop())
	ctx := context.Background()

	result, err := exec.Execute(ctx, domain.Hold("below minimum $5.00"), 50000)
	require.NoError(t, err)

	assert.Nil(t, result.Record)
	assert.Equal(t, "HOLD (below minimum $5.00)", result.Status)
	assert.Equal(t, 10000.0, exec.Ledger().Cash)
	assert.Equal(t, 0.0, exec.Ledger().TotalFees)
}

func TestSimulatedSnapshotIdentity(t *testing.T) {
	exec := usecase.NewSimulatedExecutor(usecase.SimProfile(5, 10000), zap.NewNop())
	ctx := context.Background()

	_, err := exec.Execute(ctx, domain.Trade(domain.OrderBuy, 0.2, false), 50000)
	require.NoError(t, err)

	snap, err := exec.Snapshot(ctx, 51000)
	require.NoError(t, err)

	// Net worth at any price is cash plus unrealized.
	assert.InDelta(t, 9995.0+200.0, snap.NetWorth, 1e-9)
	assert.InDelta(t, 200.0, snap.UnrealizedPnL, 1e-9)
	assert.InDelta(t, 0.2, snap.SignedQuantity, 1e-12)
}

func TestSimulatedFlipChargesFullNotional(t *testing.T) {
	exec := usecase.NewSimulatedExecutor(usecase.SimProfile(5, 10000), zap.NewNop())
	ctx := context.Background()

	_, err := exec.Execute(ctx, domain.Trade(domain.OrderBuy, 0.1, false), 50000)
	require.NoError(t, err)

	// One sell of 0.3 closes the long and opens a 0.2 short; commission is
	// charged on the whole 0.3.
	result, err := exec.Execute(ctx, domain.Trade(domain.OrderSell, 0.3, false), 50000)
	require.NoError(t, err)

	ledger := exec.Ledger()
	assert.InDelta(t, -0.2, ledger.Quantity, 1e-12)
	assert.Equal(t, 50000.0, ledger.EntryPrice)
	assert.InDelta(t, 2.5+7.5, ledger.TotalFees, 1e-9)
	assert.Equal(t, domain.PositionShort, result.Record.Type)
}
