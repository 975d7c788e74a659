package main

import (
	"fmt"
	"os"

	"github.com/vitos/perp_leverage_bot/internal/domain"
	"github.com/vitos/perp_leverage_bot/internal/infrastructure/storage"
	"github.com/vitos/perp_leverage_bot/internal/usecase"
)

func main() {
	path := "data/paper_trades.json"
	if len(os.Args) > 1 {
		path = os.Args[1]
	}

	journal := storage.NewJSONJournal(path)
	records, err := journal.Load()
	if err != nil {
		fmt.Printf("Failed to load history %s: %v\n", path, err)
		os.Exit(1)
	}

	fmt.Printf("Analyzing %s\n\n", path)
	report := usecase.AnalyzeHistory(records)

	if report.Trades == 0 {
		fmt.Println("No trades recorded.")
		return
	}

	fmt.Printf("Trades:       %d (%s - %s)\n",
		report.Trades,
		report.FirstTrade.Format("2006-01-02 15:04:05"),
		report.LastTrade.Format("2006-01-02 15:04:05"))
	fmt.Printf("Win rate:     %.1f%% (%d wins / %d losses)\n", report.WinRate, report.Wins, report.Losses)
	fmt.Printf("Realized PnL: %.2f USDT\n", report.RealizedPnL)
	fmt.Printf("Total fees:   %.2f USDT\n", report.TotalFees)

	fmt.Println("\nBy position type:")
	for _, t := range []string{"LONG", "SHORT", "CLOSE"} {
		if n := report.ByType[domain.PositionType(t)]; n > 0 {
			fmt.Printf("  %-6s %d\n", t, n)
		}
	}

	fmt.Println("\nLast trades:")
	start := len(records) - 5
	if start < 0 {
		start = 0
	}
	for _, rec := range records[start:] {
		fmt.Printf("  %s  %-5s price=%.2f amount=%g realized=%.2f fee=%.2f nw=%.2f lev=%.2f\n",
			rec.Timestamp.Format("15:04:05"), rec.Type, rec.Price, rec.Amount,
			rec.RealizedPnL, rec.Fee, rec.NetWorth, rec.Leverage)
	}
}
