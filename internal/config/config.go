package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port          string
	RetentionDays int
	NewsPageSize  int

	StockRefreshInterval     time.Duration
	StockMinProviderInterval time.Duration
	WeatherCadence           time.Duration

	NewsRatePerMin    int
	WeatherRatePerMin int
	StockRatePerMin   int

	FallbackTicker string
	StockProvider  string

	NewsAPIKey      string
	WeatherAPIKey   string
	TiingoAPIKey    string
	FinnhubAPIKey   string
	OpenAIAPIKey    string
	AnthropicAPIKey string
}

// Load reads the configuration from the environment, with defaults matching
// a single free-tier key per provider.
func Load() Config {
	return Config{
		Port:          getEnv("PORT", "8080"),
		RetentionDays: getEnvInt("RETENTION_DAYS", 10),
		NewsPageSize:  getEnvInt("NEWS_PAGE_SIZE", 5),

		StockRefreshInterval:     getEnvDuration("STOCK_REFRESH_INTERVAL", 60*time.Second),
		StockMinProviderInterval: getEnvDuration("STOCK_MIN_PROVIDER_INTERVAL", 2*time.Second),
		WeatherCadence:           getEnvDuration("WEATHER_CADENCE", 0),

		NewsRatePerMin:    getEnvInt("NEWS_RATE_PER_MIN", 5),
		WeatherRatePerMin: getEnvInt("WEATHER_RATE_PER_MIN", 30),
		StockRatePerMin:   getEnvInt("STOCK_RATE_PER_MIN", 30),

		FallbackTicker: getEnv("FALLBACK_TICKER", "SPY"),
		StockProvider:  getEnv("STOCK_PROVIDER", "tiingo"),

		NewsAPIKey:      os.Getenv("NEWS_API_KEY"),
		WeatherAPIKey:   os.Getenv("WEATHER_API_KEY"),
		TiingoAPIKey:    os.Getenv("TIINGO_API_KEY"),
		FinnhubAPIKey:   os.Getenv("FINNHUB_API_KEY"),
		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
	}
}

func getEnv(name, defaultValue string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return defaultValue
}

func getEnvInt(name string, defaultValue int) int {
	v := os.Getenv(name)
	if v == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return defaultValue
	}
	return n
}

func getEnvDuration(name string, defaultValue time.Duration) time.Duration {
	v := os.Getenv(name)
	if v == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultValue
	}
	return d
}
