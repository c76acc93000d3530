package stocks

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

type Quote struct {
	Ticker string
	Price  decimal.Decimal
	AsOf   time.Time
}

type Client interface {
	Latest(ticker string) (Quote, error)
	Name() string
}

// ErrRateLimited signals that the provider throttled the request.
var ErrRateLimited = errors.New("stock provider rate limited")
