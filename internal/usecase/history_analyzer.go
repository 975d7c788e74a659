package usecase

import (
	"time"

	"github.com/vitos/perp_leverage_bot/internal/domain"
)

// HistoryReport is an offline summary of a session's trade history.
type HistoryReport struct {
	Trades      int
	Wins        int
	Losses      int
	WinRate     float64 // percent
	RealizedPnL float64
	TotalFees   float64
	ByType      map[domain.PositionType]int
	FirstTrade  time.Time
	LastTrade   time.Time
}

// AnalyzeHistory aggregates a trade history, oldest first. Win rate counts
// records with positive realized PnL, the same definition the session uses.
func AnalyzeHistory(records []domain.TradeRecord) *HistoryReport {
	report := &HistoryReport{
		ByType: make(map[domain.PositionType]int),
	}
	if len(records) == 0 {
		return report
	}

	report.Trades = len(records)
	report.FirstTrade = records[0].Timestamp
	report.LastTrade = records[len(records)-1].Timestamp

	for _, rec := range records {
		report.RealizedPnL += rec.RealizedPnL
		report.TotalFees += rec.Fee
		report.ByType[rec.Type]++
		if rec.RealizedPnL > 0 {
			report.Wins++
		} else if rec.RealizedPnL < 0 {
			report.Losses++
		}
	}
	report.WinRate = float64(report.Wins) / float64(report.Trades) * 100

	return report
}
