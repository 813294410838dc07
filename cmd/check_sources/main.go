package main

import (
	"context"
	"fmt"
	"os"

	"github.com/vitos/crypto_narratives/internal/config"
	"github.com/vitos/crypto_narratives/internal/infrastructure/binance"
	"github.com/vitos/crypto_narratives/internal/infrastructure/coingecko"
)

func main() {
	// 1. Load Config
	cfg, err := config.Load("")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	ctx := context.Background()
	failed := false

	// 2. CoinGecko market chart, one day for the first configured token
	fmt.Printf("Testing CoinGecko...\n")
	fmt.Printf("Endpoint: %s\n", cfg.CoinGecko.RESTEndpoint)
	if len(cfg.CoinGecko.APIKey) >= 4 {
		fmt.Printf("API Key: %s...\n", cfg.CoinGecko.APIKey[:4])
	}
	gecko := coingecko.NewClient(cfg.CoinGecko.RESTEndpoint, cfg.CoinGecko.APIKey, cfg.CoinGeckoTimeout())
	token := cfg.Narratives[0].Tokens[0]
	samples, err := gecko.MarketChart(ctx, token, 1)
	if err != nil {
		fmt.Printf("❌ Failed to get market chart (%s): %v\n", token, err)
		failed = true
	} else if len(samples) == 0 {
		fmt.Printf("❌ Market chart (%s) returned no prices\n", token)
		failed = true
	} else {
		last := samples[len(samples)-1]
		fmt.Printf("✅ Market chart (%s): %d samples, last %f at %s\n",
			token, len(samples), last.Price, last.Time.Format("2006-01-02 15:04"))
	}

	// 3. Binance futures data
	fmt.Printf("\nTesting Binance futures data...\n")
	fmt.Printf("Endpoint: %s\n", cfg.Binance.RESTEndpoint)
	fapi := binance.NewFuturesDataClient(cfg.Binance.RESTEndpoint, cfg.BinanceTimeout())
	symbol := cfg.Binance.Symbol

	ratios, err := fapi.GlobalLongShortAccountRatio(ctx, symbol, cfg.Binance.Period, 1)
	if err != nil || len(ratios) == 0 {
		fmt.Printf("❌ Failed to get long/short ratio: %v\n", err)
		failed = true
	} else {
		fmt.Printf("✅ Long/short (%s): long=%.4f short=%.4f\n", symbol, ratios[0].LongAccount, ratios[0].ShortAccount)
	}

	oi, err := fapi.OpenInterestHist(ctx, symbol, cfg.Binance.Period, 2)
	if err != nil {
		fmt.Printf("❌ Failed to get open interest: %v\n", err)
		failed = true
	} else if col, pts, ok := oi.Series(); ok {
		fmt.Printf("✅ Open interest (%s): %d points of %s, last %.2f\n", symbol, len(pts), col, pts[len(pts)-1].Value)
	} else {
		fmt.Printf("✅ Open interest (%s): %d raw rows, no numeric column\n", symbol, len(oi.Raw.Rows))
	}

	liqs, err := fapi.LiquidationOrders(ctx, symbol, 5)
	if err != nil {
		fmt.Printf("❌ Failed to get liquidations: %v\n", err)
		failed = true
	} else {
		fmt.Printf("✅ Liquidations (%s): %d events, notional %s\n", symbol, len(liqs.Events), liqs.TotalNotional().StringFixed(2))
	}

	if failed {
		os.Exit(1)
	}
}
