package main

import (
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/zudevon/ez-dash/internal/config"
	"github.com/zudevon/ez-dash/pkg/news"
	"github.com/zudevon/ez-dash/pkg/stocks"
	"github.com/zudevon/ez-dash/pkg/weather"
)

// probe hits each configured provider once with a canary request, so keys
// and connectivity can be checked before starting the API.
func main() {

	godotenv.Load()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	cfg := config.Load()
	failed := false

	if cfg.NewsAPIKey == "" {
		slog.Error("NEWS_API_KEY not configured")
		failed = true
	} else {
		client := news.NewNewsAPIClient(cfg.NewsAPIKey, 1)
		articles, err := client.FetchNews(time.Now().Format("2006-01-02"))
		if err != nil {
			slog.Error("news probe failed", "source", client.Name(), "error", err)
			failed = true
		} else {
			slog.Info("news probe ok", "source", client.Name(), "articles", len(articles))
		}
	}

	if cfg.WeatherAPIKey == "" {
		slog.Error("WEATHER_API_KEY not configured")
		failed = true
	} else {
		client := weather.NewOpenWeatherClient(cfg.WeatherAPIKey)
		obs, err := client.Current("London")
		if err != nil {
			slog.Error("weather probe failed", "source", client.Name(), "error", err)
			failed = true
		} else {
			slog.Info("weather probe ok", "source", client.Name(), "location", obs.Location, "temp_f", obs.TempF)
		}
	}

	var stockSrc stocks.Client
	switch {
	case cfg.StockProvider == "finnhub" && cfg.FinnhubAPIKey != "":
		stockSrc = stocks.NewFinnhubClient(cfg.FinnhubAPIKey)
	case cfg.TiingoAPIKey != "":
		stockSrc = stocks.NewTiingoClient(cfg.TiingoAPIKey)
	}
	if stockSrc == nil {
		slog.Error("no stock API key configured")
		failed = true
	} else {
		quote, err := stockSrc.Latest(cfg.FallbackTicker)
		if err != nil {
			slog.Error("stock probe failed", "source", stockSrc.Name(), "error", err)
			failed = true
		} else {
			slog.Info("stock probe ok", "source", stockSrc.Name(), "ticker", quote.Ticker, "price", quote.Price.String())
		}
	}

	if failed {
		os.Exit(1)
	}
}
