package stocks

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type TiingoClient struct {
	apiKey     string
	httpClient *http.Client
}

func NewTiingoClient(apiKey string) *TiingoClient {
	return &TiingoClient{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *TiingoClient) Name() string {
	return "Tiingo"
}

// Latest fetches the most recent daily price for a ticker. Tiingo returns a
// list with the latest bar first; close is preferred, adjClose is the
// fallback.
func (c *TiingoClient) Latest(ticker string) (Quote, error) {
	ticker = strings.ToUpper(ticker)
	endpoint := fmt.Sprintf("https://api.tiingo.com/tiingo/daily/%s/prices?token=%s", ticker, c.apiKey)

	req, err := http.NewRequest(http.MethodGet, endpoint, nil)
	if err != nil {
		return Quote{}, fmt.Errorf("tiingo request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Quote{}, fmt.Errorf("tiingo fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return Quote{}, ErrRateLimited
	}
	if resp.StatusCode != http.StatusOK {
		return Quote{}, fmt.Errorf("tiingo status %d for %s", resp.StatusCode, ticker)
	}

	var raw []tiingoBar
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return Quote{}, fmt.Errorf("tiingo decode: %w", err)
	}
	if len(raw) == 0 {
		return Quote{}, fmt.Errorf("tiingo: no price data for %s", ticker)
	}

	latest := raw[0]
	price := latest.Close
	if price == 0 {
		price = latest.AdjClose
	}

	asOf, err := time.Parse(time.RFC3339, latest.Date)
	if err != nil {
		asOf = time.Now()
	}

	return Quote{
		Ticker: ticker,
		Price:  decimal.NewFromFloat(price),
		AsOf:   asOf,
	}, nil
}

type tiingoBar struct {
	Date     string  `json:"date"`
	Close    float64 `json:"close"`
	AdjClose float64 `json:"adjClose"`
}
