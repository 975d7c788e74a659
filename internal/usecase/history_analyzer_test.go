package usecase_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/vitos/perp_leverage_bot/internal/domain"
	"github.com/vitos/perp_leverage_bot/internal/usecase"
)

func TestAnalyzeHistoryEmpty(t *testing.T) {
	report := usecase.AnalyzeHistory(nil)

	assert.Equal(t, 0, report.Trades)
	assert.Equal(t, 0.0, report.WinRate)
	assert.NotNil(t, report.ByType)
}

func TestAnalyzeHistoryAggregates(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	records := []domain.TradeRecord{
		{Timestamp: base, Type: domain.PositionLong, RealizedPnL: 0, Fee: 5},
		{Timestamp: base.Add(time.Hour), Type: domain.PositionClose, RealizedPnL: 120, Fee: 5},
		{Timestamp: base.Add(2 * time.Hour), Type: domain.PositionShort, RealizedPnL: -40, Fee: 4},
		{Timestamp: base.Add(3 * time.Hour), Type: domain.PositionClose, RealizedPnL: 60, Fee: 4},
	}

	report := usecase.AnalyzeHistory(records)

	assert.Equal(t, 4, report.Trades)
	assert.Equal(t, 2, report.Wins)
	assert.Equal(t, 1, report.Losses)
	assert.InDelta(t, 50.0, report.WinRate, 1e-9)
	assert.InDelta(t, 140.0, report.RealizedPnL, 1e-9)
	assert.InDelta(t, 18.0, report.TotalFees, 1e-9)
	assert.Equal(t, 2, report.ByType[domain.PositionClose])
	assert.Equal(t, base, report.FirstTrade)
	assert.Equal(t, base.Add(3*time.Hour), report.LastTrade)
}
