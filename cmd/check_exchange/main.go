package main

import (
	"context"
	"fmt"
	"os"

	"github.com/vitos/perp_leverage_bot/internal/config"
	"github.com/vitos/perp_leverage_bot/internal/infrastructure/exchange"
)

func main() {
	cfg, err := config.Load("config/config.yaml")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	creds, err := config.LoadCredentials(cfg.Mode)
	if err != nil {
		fmt.Printf("Failed to load credentials: %v\n", err)
		os.Exit(1)
	}

	restURL := cfg.Exchange.RESTEndpoint
	if cfg.Exchange.Testnet && restURL == "" {
		restURL = exchange.BinanceTestnetBaseURL
	}

	fmt.Printf("Testing Binance Futures interaction...\n")
	fmt.Printf("Symbol: %s\n", cfg.Symbol)

	adapter := exchange.NewBinanceAdapter(creds.APIKey, creds.APISecret, restURL, "")
	ctx := context.Background()

	// Public endpoints
	price, err := adapter.FetchLastPrice(ctx, cfg.Symbol)
	if err != nil {
		fmt.Printf("FAIL price: %v\n", err)
	} else {
		fmt.Printf("OK   price: %.2f\n", price)
	}

	if err := adapter.Init(ctx, cfg.Symbol); err != nil {
		fmt.Printf("FAIL exchangeInfo: %v\n", err)
	} else {
		fmt.Printf("OK   precision step: %g\n", adapter.PrecisionStep(cfg.Symbol))
	}

	if creds.APIKey == "" {
		fmt.Println("No credentials set, skipping signed endpoints.")
		return
	}

	// Signed endpoints
	equity, err := adapter.FetchEquity(ctx)
	if err != nil {
		fmt.Printf("FAIL equity: %v\n", err)
	} else {
		fmt.Printf("OK   equity: %.2f USDT\n", equity)
	}

	pos, err := adapter.FetchPosition(ctx, cfg.Symbol)
	if err != nil {
		fmt.Printf("FAIL position: %v\n", err)
	} else {
		fmt.Printf("OK   position: side=%s contracts=%g entry=%.2f upnl=%.2f\n",
			pos.Side, pos.Contracts, pos.EntryPrice, pos.UnrealizedPnL)
	}
}
