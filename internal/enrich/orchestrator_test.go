package enrich

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/assert/v2"
	"github.com/shopspring/decimal"

	"github.com/zudevon/ez-dash/internal/extract"
	"github.com/zudevon/ez-dash/internal/model"
	"github.com/zudevon/ez-dash/internal/schedule"
	"github.com/zudevon/ez-dash/internal/store"
	"github.com/zudevon/ez-dash/pkg/news"
	"github.com/zudevon/ez-dash/pkg/stocks"
	"github.com/zudevon/ez-dash/pkg/weather"
)

type fakeNews struct {
	mu       sync.Mutex
	calls    int
	articles []news.Article
	err      error
}

func (f *fakeNews) FetchNews(date string) ([]news.Article, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.articles, f.err
}

func (f *fakeNews) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeWeather struct {
	mu    sync.Mutex
	calls map[string]int
	fail  map[string]bool
}

func newFakeWeather() *fakeWeather {
	return &fakeWeather{calls: make(map[string]int), fail: make(map[string]bool)}
}

func (f *fakeWeather) Current(city string) (weather.Observation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[city]++
	if f.fail[city] {
		return weather.Observation{}, errors.New("weather upstream down")
	}
	return weather.Observation{Location: city, TempF: 72.5, FeelsLikeF: 70.1, Humidity: 40, Description: "clear sky"}, nil
}

func (f *fakeWeather) callCount(city string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[city]
}

type fakeStocks struct {
	mu    sync.Mutex
	calls map[string]int
	fail  map[string]bool
}

func newFakeStocks() *fakeStocks {
	return &fakeStocks{calls: make(map[string]int), fail: make(map[string]bool)}
}

func (f *fakeStocks) Latest(ticker string) (stocks.Quote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[ticker]++
	if f.fail[ticker] {
		return stocks.Quote{}, errors.New("stock upstream down")
	}
	return stocks.Quote{Ticker: ticker, Price: decimal.NewFromFloat(123.45), AsOf: time.Now()}, nil
}

func (f *fakeStocks) callCount(ticker string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[ticker]
}

type fixture struct {
	orchestrator *Orchestrator
	news         *fakeNews
	weather      *fakeWeather
	stocks       *fakeStocks
	clock        *fakeClock
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newFixture(t *testing.T, articles []news.Article) *fixture {
	t.Helper()

	extractor, err := extract.NewExtractor()
	assert.Equal(t, nil, err)

	clock := &fakeClock{t: time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)}
	sched := schedule.New(schedule.Config{
		StockInterval:            60 * time.Second,
		StockMinProviderInterval: time.Second,
	}, schedule.WithClock(clock.now))

	newsSrc := &fakeNews{articles: articles}
	weatherSrc := newFakeWeather()
	stockSrc := newFakeStocks()

	o := New(store.NewStore(10), sched, extractor, newsSrc, weatherSrc, stockSrc,
		"SPY", WithClock(clock.now))

	return &fixture{orchestrator: o, news: newsSrc, weather: weatherSrc, stocks: stockSrc, clock: clock}
}

var testDay = model.Day("2026-08-30")

func article(headline, description string) news.Article {
	return news.Article{ExternalID: headline, Headline: headline, Description: description, URL: "https://example.com/" + headline}
}

func TestEnrichedView_ComposesNewsWeatherAndQuotes(t *testing.T) {
	f := newFixture(t, []news.Article{
		article("Tesla deliveries jump as Apple stalls", "Quarterly numbers out of both companies."),
		article("France unveils new budget in Paris", "Lawmakers debate spending plans."),
	})

	view, err := f.orchestrator.EnrichedView(testDay)
	assert.Equal(t, nil, err)
	assert.Equal(t, 2, len(view))

	// First item: two tickers in first-appearance order, no location.
	assert.Equal(t, []string{"TSLA", "AAPL"}, view[0].News.Tickers)
	assert.Equal(t, 2, len(view[0].Quotes))
	assert.Equal(t, "TSLA", view[0].Quotes[0].Ticker)
	assert.Equal(t, "AAPL", view[0].Quotes[1].Ticker)
	if view[0].Weather != nil {
		t.Fatal("expected no weather for item without location")
	}

	// Second item: location resolved, no tickers, so the index fallback.
	assert.Equal(t, "Paris", view[1].News.Location)
	if view[1].Weather == nil {
		t.Fatal("expected weather for Paris")
	}
	assert.Equal(t, 72.5, view[1].Weather.TempF)
	assert.Equal(t, 1, len(view[1].Quotes))
	assert.Equal(t, "SPY", view[1].Quotes[0].Ticker)
	assert.Equal(t, "S&P 500 ETF", view[1].Quotes[0].Company)
}

func TestEnrichedView_SecondCallIsIdenticalAndCached(t *testing.T) {
	f := newFixture(t, []news.Article{
		article("Microsoft and Nvidia expand partnership", "AI infrastructure deal."),
		article("Boeing wins new orders", "Airlines refresh fleets."),
	})

	first, err := f.orchestrator.EnrichedView(testDay)
	assert.Equal(t, nil, err)

	second, err := f.orchestrator.EnrichedView(testDay)
	assert.Equal(t, nil, err)

	assert.Equal(t, 1, f.news.callCount())
	assert.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].News.Headline, second[i].News.Headline)
		assert.Equal(t, first[i].News.Tickers, second[i].News.Tickers)
	}

	// Quotes were fresh, so no extra stock calls either.
	assert.Equal(t, 1, f.stocks.callCount("MSFT"))
	assert.Equal(t, 1, f.stocks.callCount("NVDA"))
}

func TestEnrichedView_StockOnlyRefreshAfterCadence(t *testing.T) {
	f := newFixture(t, []news.Article{
		article("Tesla and Apple report earnings", "Both beat expectations."),
	})

	_, err := f.orchestrator.EnrichedView(testDay)
	assert.Equal(t, nil, err)
	assert.Equal(t, 1, f.stocks.callCount("TSLA"))

	// Within the cadence nothing is re-fetched.
	f.clock.advance(30 * time.Second)
	_, err = f.orchestrator.EnrichedView(testDay)
	assert.Equal(t, nil, err)
	assert.Equal(t, 1, f.stocks.callCount("TSLA"))
	assert.Equal(t, 1, f.stocks.callCount("AAPL"))

	// Past the cadence only stocks are re-fetched; news stays untouched.
	f.clock.advance(31 * time.Second)
	_, err = f.orchestrator.EnrichedView(testDay)
	assert.Equal(t, nil, err)
	assert.Equal(t, 1, f.news.callCount())
	assert.Equal(t, 2, f.stocks.callCount("TSLA"))
	assert.Equal(t, 2, f.stocks.callCount("AAPL"))
}

func TestEnrichedView_OneFailedTickerDegradesGracefully(t *testing.T) {
	f := newFixture(t, []news.Article{
		article("Apple Microsoft Google Amazon Tesla roundup", "Big tech week in review."),
	})
	f.stocks.fail["GOOGL"] = true

	view, err := f.orchestrator.EnrichedView(testDay)
	assert.Equal(t, nil, err)
	assert.Equal(t, 1, len(view))
	assert.Equal(t, 5, len(view[0].Quotes))

	for _, q := range view[0].Quotes {
		if q.Ticker == "GOOGL" {
			assert.Equal(t, false, q.Price.Valid)
		} else {
			assert.Equal(t, true, q.Price.Valid)
		}
	}
}

func TestEnrichedView_FailedTickerRetriedOnceDue(t *testing.T) {
	f := newFixture(t, []news.Article{
		article("Tesla in focus", "Deliveries due this week."),
	})
	f.stocks.fail["TSLA"] = true

	view, err := f.orchestrator.EnrichedView(testDay)
	assert.Equal(t, nil, err)
	assert.Equal(t, false, view[0].Quotes[0].Price.Valid)

	// The failure never advanced lastFetched, so the key is due again
	// without waiting out the cadence.
	f.stocks.fail["TSLA"] = false
	_, err = f.orchestrator.EnrichedView(testDay)
	assert.Equal(t, nil, err)
	assert.Equal(t, 2, f.stocks.callCount("TSLA"))

	view, err = f.orchestrator.EnrichedView(testDay)
	assert.Equal(t, nil, err)
	assert.Equal(t, true, view[0].Quotes[0].Price.Valid)
}

func TestEnrichedView_FailedWeatherSelfHeals(t *testing.T) {
	f := newFixture(t, []news.Article{
		article("Storms sweep across France", "Paris braces for wind."),
	})
	f.weather.fail["Paris"] = true

	view, err := f.orchestrator.EnrichedView(testDay)
	assert.Equal(t, nil, err)
	if view[0].Weather != nil {
		t.Fatal("expected weather unavailable after failed fetch")
	}

	f.weather.fail["Paris"] = false
	view, err = f.orchestrator.EnrichedView(testDay)
	assert.Equal(t, nil, err)
	if view[0].Weather == nil {
		t.Fatal("expected weather healed on next request")
	}
	assert.Equal(t, 2, f.weather.callCount("Paris"))
	assert.Equal(t, 1, f.news.callCount())
}

func TestEnrichedView_FailedNewsIsExplicitlyUnavailable(t *testing.T) {
	f := newFixture(t, nil)
	f.news.err = errors.New("provider down")

	_, err := f.orchestrator.EnrichedView(testDay)
	assert.Equal(t, true, errors.Is(err, ErrNewsUnavailable))

	// Nothing was cached: the day reads as no-data, not as an empty list.
	assert.Equal(t, 0, len(f.orchestrator.Dates()))
}

func TestEnrichedView_RateLimitedNewsWidensCadence(t *testing.T) {
	f := newFixture(t, nil)
	f.news.err = news.ErrRateLimited

	_, err := f.orchestrator.EnrichedView(testDay)
	assert.Equal(t, true, errors.Is(err, ErrNewsUnavailable))
	assert.Equal(t, 1, f.news.callCount())

	// During the cooldown no permit is granted, so the provider is not
	// hammered again.
	_, err = f.orchestrator.EnrichedView(testDay)
	assert.Equal(t, true, errors.Is(err, ErrNewsUnavailable))
	assert.Equal(t, 1, f.news.callCount())

	f.clock.advance(2 * time.Minute)
	f.news.err = nil
	f.news.articles = []news.Article{article("Markets reopen", "A calmer session.")}
	_, err = f.orchestrator.EnrichedView(testDay)
	assert.Equal(t, nil, err)
}

func TestEnrichedView_NoArticlesStillHasFallbackQuote(t *testing.T) {
	f := newFixture(t, []news.Article{})

	view, err := f.orchestrator.EnrichedView(testDay)
	assert.Equal(t, nil, err)
	assert.Equal(t, 0, len(view))
	assert.Equal(t, 1, f.stocks.callCount("SPY"))
}

func TestEnrichedView_EmptyDayIsCachedNotRefetched(t *testing.T) {
	f := newFixture(t, []news.Article{})

	for i := 0; i < 3; i++ {
		view, err := f.orchestrator.EnrichedView(testDay)
		assert.Equal(t, nil, err)
		assert.Equal(t, 0, len(view))
	}

	// A successful fetch that returned no articles is still a cached day.
	assert.Equal(t, 1, f.news.callCount())
	assert.Equal(t, []model.Day{testDay}, f.orchestrator.Dates())

	// Only an explicit force goes back upstream.
	err := f.orchestrator.Refresh(testDay)
	assert.Equal(t, nil, err)
	assert.Equal(t, 2, f.news.callCount())
}

func TestDates_MostRecentFirst(t *testing.T) {
	f := newFixture(t, []news.Article{article("Quiet day", "Not much happened.")})

	older := model.Day("2026-08-28")
	_, err := f.orchestrator.EnrichedView(testDay)
	assert.Equal(t, nil, err)
	_, err = f.orchestrator.EnrichedView(older)
	assert.Equal(t, nil, err)

	assert.Equal(t, []model.Day{testDay, older}, f.orchestrator.Dates())
}

func TestRefresh_ForcesNewsRefetch(t *testing.T) {
	f := newFixture(t, []news.Article{article("Morning headline", "Early edition.")})

	_, err := f.orchestrator.EnrichedView(testDay)
	assert.Equal(t, nil, err)
	assert.Equal(t, 1, f.news.callCount())

	err = f.orchestrator.Refresh(testDay)
	assert.Equal(t, nil, err)
	assert.Equal(t, 2, f.news.callCount())
}

func TestBrief_DisabledWithoutClient(t *testing.T) {
	f := newFixture(t, []news.Article{article("Headline", "Detail.")})

	_, err := f.orchestrator.Brief(testDay)
	assert.Equal(t, true, errors.Is(err, ErrBriefDisabled))
}
