package stocks

import (
	"context"
	"fmt"
	"strings"
	"time"

	finnhub "github.com/Finnhub-Stock-API/finnhub-go/v2"
	"github.com/shopspring/decimal"
)

type FinnhubClient struct {
	client *finnhub.DefaultApiService
}

func NewFinnhubClient(apiKey string) *FinnhubClient {
	cfg := finnhub.NewConfiguration()
	cfg.AddDefaultHeader("X-Finnhub-Token", apiKey)
	client := finnhub.NewAPIClient(cfg).DefaultApi
	return &FinnhubClient{client: client}
}

func (c *FinnhubClient) Name() string {
	return "Finnhub"
}

func (c *FinnhubClient) Latest(ticker string) (Quote, error) {
	ticker = strings.ToUpper(ticker)

	res, httpRes, err := c.client.Quote(context.Background()).Symbol(ticker).Execute()
	if err != nil {
		if httpRes != nil && httpRes.StatusCode == 429 {
			return Quote{}, ErrRateLimited
		}
		return Quote{}, fmt.Errorf("finnhub quote %s: %w", ticker, err)
	}

	if res.C == nil || *res.C == 0 {
		return Quote{}, fmt.Errorf("finnhub: no price data for %s", ticker)
	}

	return Quote{
		Ticker: ticker,
		Price:  decimal.NewFromFloat32(*res.C),
		AsOf:   time.Now(),
	}, nil
}
