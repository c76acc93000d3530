package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Day is a calendar date in YYYY-MM-DD form. ISO dates compare
// lexicographically in chronological order, so Day values sort with <.
type Day string

const dayLayout = "2006-01-02"

func ParseDay(s string) (Day, error) {
	t, err := time.Parse(dayLayout, s)
	if err != nil {
		return "", err
	}
	return Day(t.Format(dayLayout)), nil
}

func DayOf(t time.Time) Day {
	return Day(t.Format(dayLayout))
}

func (d Day) String() string {
	return string(d)
}

func (d Day) Before(other Day) bool {
	return d < other
}

type NewsItem struct {
	ID          string
	Headline    string
	Description string
	URL         string
	Source      string
	Day         Day
	Location    string
	Tickers     []string
}

type WeatherReading struct {
	Location    string
	TempF       float64
	FeelsLikeF  float64
	Humidity    int
	Description string
	Day         Day
}

type StockQuote struct {
	Ticker   string
	Company  string
	Price    decimal.NullDecimal
	QuotedAt time.Time
}

// EnrichedItem is one row of the composed view: a news item, the weather
// for its resolved location (nil when none or unavailable), and the quotes
// for its linked tickers in first-appearance order.
type EnrichedItem struct {
	News    NewsItem
	Weather *WeatherReading
	Quotes  []StockQuote
}
