package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/zudevon/ez-dash/internal/config"
	"github.com/zudevon/ez-dash/internal/enrich"
	"github.com/zudevon/ez-dash/internal/extract"
	"github.com/zudevon/ez-dash/internal/handler"
	"github.com/zudevon/ez-dash/internal/schedule"
	"github.com/zudevon/ez-dash/internal/store"
	"github.com/zudevon/ez-dash/pkg/brief"
	"github.com/zudevon/ez-dash/pkg/news"
	"github.com/zudevon/ez-dash/pkg/stocks"
	"github.com/zudevon/ez-dash/pkg/weather"
)

func main() {

	godotenv.Load()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	cfg := config.Load()

	if cfg.NewsAPIKey == "" || cfg.WeatherAPIKey == "" {
		log.Fatal("NEWS_API_KEY and WEATHER_API_KEY must be configured")
	}

	extractor, err := extract.NewExtractor()
	if err != nil {
		log.Fatalf("error loading extraction tables: %v", err)
	}

	var stockSrc stocks.Client
	switch cfg.StockProvider {
	case "finnhub":
		if cfg.FinnhubAPIKey == "" {
			log.Fatal("STOCK_PROVIDER=finnhub requires FINNHUB_API_KEY")
		}
		stockSrc = stocks.NewFinnhubClient(cfg.FinnhubAPIKey)
	default:
		if cfg.TiingoAPIKey == "" {
			log.Fatal("TIINGO_API_KEY must be configured")
		}
		stockSrc = stocks.NewTiingoClient(cfg.TiingoAPIKey)
	}
	slog.Info("stock provider selected", "provider", stockSrc.Name())

	st := store.NewStore(cfg.RetentionDays)
	sched := schedule.New(schedule.Config{
		StockInterval:            cfg.StockRefreshInterval,
		StockMinProviderInterval: cfg.StockMinProviderInterval,
		WeatherCadence:           cfg.WeatherCadence,
		NewsPerMinute:            cfg.NewsRatePerMin,
		WeatherPerMinute:         cfg.WeatherRatePerMin,
		StockPerMinute:           cfg.StockRatePerMin,
	})

	var opts []enrich.Option
	if cfg.AnthropicAPIKey != "" {
		opts = append(opts, enrich.WithBriefClient(brief.NewAnthropicClient(cfg.AnthropicAPIKey)))
	} else if cfg.OpenAIAPIKey != "" {
		opts = append(opts, enrich.WithBriefClient(brief.NewOpenAIClient(cfg.OpenAIAPIKey)))
	}

	orchestrator := enrich.New(
		st, sched, extractor,
		news.NewNewsAPIClient(cfg.NewsAPIKey, cfg.NewsPageSize),
		weather.NewOpenWeatherClient(cfg.WeatherAPIKey),
		stockSrc,
		cfg.FallbackTicker,
		opts...,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go orchestrator.Run(ctx, cfg.StockRefreshInterval)

	viewHandler := handler.NewViewHandler(orchestrator)

	r := gin.Default()

	allowedOrigins := []string{"http://localhost:3000"}

	if frontendURL := os.Getenv("FRONTEND_URL"); frontendURL != "" {
		allowedOrigins = append(allowedOrigins, frontendURL)
	}

	slog.Info("AllowOrigins URL:", "urls", allowedOrigins)

	r.Use(cors.New(cors.Config{
		AllowOrigins: allowedOrigins,
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type"},
	}))

	r.GET("/view/:date", viewHandler.GetView)
	r.GET("/dates", viewHandler.GetDates)
	r.GET("/brief/:date", viewHandler.GetBrief)
	r.POST("/refresh/:date", viewHandler.PostRefresh)
	r.GET("/health", viewHandler.GetHealth)

	err = r.Run(":" + cfg.Port)
	if err != nil {
		log.Fatalf("error starting server: %v", err)
	}
}
