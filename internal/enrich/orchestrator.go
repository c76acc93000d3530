package enrich

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/zudevon/ez-dash/internal/extract"
	"github.com/zudevon/ez-dash/internal/model"
	"github.com/zudevon/ez-dash/internal/schedule"
	"github.com/zudevon/ez-dash/internal/store"
	"github.com/zudevon/ez-dash/pkg/brief"
	"github.com/zudevon/ez-dash/pkg/news"
	"github.com/zudevon/ez-dash/pkg/stocks"
	"github.com/zudevon/ez-dash/pkg/weather"
)

// ErrNewsUnavailable means the news fetch for the whole requested day
// failed or was not permitted; the day has no data rather than empty news.
var ErrNewsUnavailable = errors.New("news unavailable")

// ErrNoData means the requested day is not cached.
var ErrNoData = errors.New("no cached data for date")

// ErrBriefDisabled means no LLM client is configured.
var ErrBriefDisabled = errors.New("brief generation not configured")

type NewsSource interface {
	FetchNews(date string) ([]news.Article, error)
}

type WeatherSource interface {
	Current(city string) (weather.Observation, error)
}

type StockSource interface {
	Latest(ticker string) (stocks.Quote, error)
}

type BriefClient interface {
	Summarize(items []brief.Input) (*brief.Result, error)
}

// Orchestrator is the query surface over the retention store. It decides
// whether a date is served from cache or fetched upstream, routes article
// text through the extractor, and keeps stock quotes fresh on a cadence
// without blocking readers.
type Orchestrator struct {
	store     *store.Store
	sched     *schedule.Scheduler
	extractor *extract.Extractor

	newsSrc    NewsSource
	weatherSrc WeatherSource
	stockSrc   StockSource
	briefSrc   BriefClient

	fallbackTicker string
	now            func() time.Time

	mu           sync.Mutex
	watchDay     model.Day
	watchTickers []string
}

type Option func(*Orchestrator)

func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

// WithBriefClient enables the daily brief endpoint.
func WithBriefClient(c BriefClient) Option {
	return func(o *Orchestrator) {
		o.briefSrc = c
	}
}

func New(st *store.Store, sched *schedule.Scheduler, ex *extract.Extractor,
	newsSrc NewsSource, weatherSrc WeatherSource, stockSrc StockSource,
	fallbackTicker string, opts ...Option) *Orchestrator {

	o := &Orchestrator{
		store:          st,
		sched:          sched,
		extractor:      ex,
		newsSrc:        newsSrc,
		weatherSrc:     weatherSrc,
		stockSrc:       stockSrc,
		fallbackTicker: fallbackTicker,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// EnrichedView returns the composed view for a day, in the news provider's
// ranking order. A cached day refreshes only its stale stock quotes and
// heals missing weather; it never re-fetches or re-extracts news. A day
// whose fetch succeeded with zero articles stays cached as an empty day,
// distinct from a day with no data at all.
func (o *Orchestrator) EnrichedView(day model.Day) ([]model.EnrichedItem, error) {
	bucket, ok := o.store.Get(day)
	if !ok || (len(bucket.News) == 0 && o.sched.ShouldRefresh(schedule.KindNews, day.String())) {
		if err := o.buildDay(day); err != nil {
			return nil, err
		}
	} else {
		o.refreshQuotes(day, bucket)
		o.healMissingWeather(day, bucket)
	}

	bucket, ok = o.store.Get(day)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoData, day)
	}
	o.setWatch(day, o.trackedTickers(bucket))
	return o.compose(bucket), nil
}

// Refresh force-rebuilds a day from upstream, bypassing the cached news.
// Permits still apply.
func (o *Orchestrator) Refresh(day model.Day) error {
	return o.buildDay(day)
}

// Dates lists retained days, most recent first.
func (o *Orchestrator) Dates() []model.Day {
	return o.store.Days()
}

// buildDay fetches news for the day, extracts entities, fetches weather and
// quotes for the distinct locations and tickers, and publishes the bucket
// with a single merge so readers never see a half-built day.
func (o *Orchestrator) buildDay(day model.Day) error {
	if ok, delay := o.sched.Guard(schedule.KindNews); !ok {
		return fmt.Errorf("%w: rate ceiling reached, retry in %s", ErrNewsUnavailable, delay)
	}

	articles, err := o.newsSrc.FetchNews(day.String())
	if err != nil {
		if errors.Is(err, news.ErrRateLimited) {
			o.sched.MarkThrottled(schedule.KindNews)
		}
		return fmt.Errorf("%w: %w", ErrNewsUnavailable, err)
	}
	o.sched.MarkFetched(schedule.KindNews, day.String())

	items := make([]model.NewsItem, 0, len(articles))
	var locations, tickers []string
	seenLocation := make(map[string]bool)
	seenTicker := make(map[string]bool)
	needFallback := len(articles) == 0

	for _, a := range articles {
		location, linked := o.extractor.Extract(a.Headline + " " + a.Description)

		items = append(items, model.NewsItem{
			ID:          a.ExternalID,
			Headline:    a.Headline,
			Description: a.Description,
			URL:         a.URL,
			Source:      a.Publisher,
			Day:         day,
			Location:    location,
			Tickers:     linked,
		})

		if location != "" && !seenLocation[location] {
			seenLocation[location] = true
			locations = append(locations, location)
		}
		for _, t := range linked {
			if !seenTicker[t] {
				seenTicker[t] = true
				tickers = append(tickers, t)
			}
		}
		if len(linked) == 0 {
			needFallback = true
		}
	}

	if needFallback && !seenTicker[o.fallbackTicker] {
		tickers = append(tickers, o.fallbackTicker)
	}
	o.sched.Track(schedule.KindStock, len(tickers))

	readings := o.fetchWeather(day, locations)
	quotes := o.fetchQuotes(tickers, true)

	o.store.Put(day, store.Delta{News: items, Weather: readings, Quotes: quotes})
	return nil
}

// refreshQuotes re-fetches only the cached day's stale tickers; failures
// keep the last known quote.
func (o *Orchestrator) refreshQuotes(day model.Day, bucket store.Bucket) {
	tickers := o.trackedTickers(bucket)
	o.sched.Track(schedule.KindStock, len(tickers))

	stale := make([]string, 0, len(tickers))
	for _, t := range tickers {
		if o.sched.ShouldRefresh(schedule.KindStock, t) {
			stale = append(stale, t)
		}
	}
	if len(stale) == 0 {
		return
	}

	quotes := o.fetchQuotes(stale, false)
	if len(quotes) > 0 {
		o.store.Put(day, store.Delta{Quotes: quotes})
	}
}

// healMissingWeather fetches readings for locations the bucket's news
// resolved to but that have no reading yet, so an earlier per-key failure
// repairs itself on a later request.
func (o *Orchestrator) healMissingWeather(day model.Day, bucket store.Bucket) {
	var missing []string
	seen := make(map[string]bool)
	for _, item := range bucket.News {
		loc := item.Location
		if loc == "" || seen[loc] {
			continue
		}
		seen[loc] = true
		if _, ok := bucket.Weather[loc]; !ok && o.sched.ShouldRefresh(schedule.KindWeather, loc) {
			missing = append(missing, loc)
		}
	}
	if len(missing) == 0 {
		return
	}

	readings := o.fetchWeather(day, missing)
	if len(readings) > 0 {
		o.store.Put(day, store.Delta{Weather: readings})
	}
}

// fetchWeather fetches readings for distinct locations concurrently, each
// under a weather permit. A failed location is skipped; the rest of the
// view is unaffected.
func (o *Orchestrator) fetchWeather(day model.Day, locations []string) []model.WeatherReading {
	var (
		mu       sync.Mutex
		readings []model.WeatherReading
		wg       sync.WaitGroup
	)

	for _, location := range locations {
		if ok, delay := o.sched.Guard(schedule.KindWeather); !ok {
			slog.Warn("weather permit denied", "location", location, "retry_in", delay)
			continue
		}

		wg.Add(1)
		go func(location string) {
			defer wg.Done()

			obs, err := o.weatherSrc.Current(location)
			if err != nil {
				if errors.Is(err, weather.ErrRateLimited) {
					o.sched.MarkThrottled(schedule.KindWeather)
				}
				slog.Error("error fetching weather", "location", location, "error", err)
				return
			}
			o.sched.MarkFetched(schedule.KindWeather, location)

			mu.Lock()
			readings = append(readings, model.WeatherReading{
				Location:    location,
				TempF:       obs.TempF,
				FeelsLikeF:  obs.FeelsLikeF,
				Humidity:    obs.Humidity,
				Description: obs.Description,
				Day:         day,
			})
			mu.Unlock()
		}(location)
	}

	wg.Wait()
	return readings
}

// fetchQuotes fetches quotes for distinct tickers concurrently, each under
// a stock permit. On the initial build a failed ticker yields a quote with
// an invalid price so the view can report it unavailable; on refresh a
// failure is dropped so the last known value survives.
func (o *Orchestrator) fetchQuotes(tickers []string, placeholderOnFailure bool) []model.StockQuote {
	var (
		mu     sync.Mutex
		quotes []model.StockQuote
		wg     sync.WaitGroup
	)

	add := func(q model.StockQuote) {
		mu.Lock()
		quotes = append(quotes, q)
		mu.Unlock()
	}

	for _, ticker := range tickers {
		if ok, delay := o.sched.Guard(schedule.KindStock); !ok {
			slog.Warn("stock permit denied", "ticker", ticker, "retry_in", delay)
			if placeholderOnFailure {
				add(o.unavailableQuote(ticker))
			}
			continue
		}

		wg.Add(1)
		go func(ticker string) {
			defer wg.Done()

			quote, err := o.stockSrc.Latest(ticker)
			if err != nil {
				if errors.Is(err, stocks.ErrRateLimited) {
					o.sched.MarkThrottled(schedule.KindStock)
				}
				slog.Error("error fetching stock price", "ticker", ticker, "error", err)
				if placeholderOnFailure {
					add(o.unavailableQuote(ticker))
				}
				return
			}
			o.sched.MarkFetched(schedule.KindStock, ticker)

			add(model.StockQuote{
				Ticker:   quote.Ticker,
				Company:  o.companyName(quote.Ticker),
				Price:    decimal.NewNullDecimal(quote.Price),
				QuotedAt: o.now(),
			})
		}(ticker)
	}

	wg.Wait()
	return quotes
}

func (o *Orchestrator) unavailableQuote(ticker string) model.StockQuote {
	return model.StockQuote{
		Ticker:   ticker,
		Company:  o.companyName(ticker),
		QuotedAt: o.now(),
	}
}

func (o *Orchestrator) companyName(ticker string) string {
	if ticker == o.fallbackTicker {
		return "S&P 500 ETF"
	}
	return o.extractor.Company(ticker)
}

// compose builds view rows in the provider's ranking order. An item with no
// linked tickers falls back to the index quote.
func (o *Orchestrator) compose(bucket store.Bucket) []model.EnrichedItem {
	view := make([]model.EnrichedItem, 0, len(bucket.News))
	for _, item := range bucket.News {
		row := model.EnrichedItem{News: item}

		if item.Location != "" {
			if reading, ok := bucket.Weather[item.Location]; ok {
				row.Weather = &reading
			}
		}

		tickers := item.Tickers
		if len(tickers) == 0 {
			tickers = []string{o.fallbackTicker}
		}
		for _, t := range tickers {
			if quote, ok := bucket.Quotes[t]; ok {
				row.Quotes = append(row.Quotes, quote)
			}
		}

		view = append(view, row)
	}
	return view
}

// trackedTickers is the distinct ticker set a bucket needs: every linked
// ticker in news order, plus the fallback when any item has none.
func (o *Orchestrator) trackedTickers(bucket store.Bucket) []string {
	var tickers []string
	seen := make(map[string]bool)
	needFallback := len(bucket.News) == 0

	for _, item := range bucket.News {
		for _, t := range item.Tickers {
			if !seen[t] {
				seen[t] = true
				tickers = append(tickers, t)
			}
		}
		if len(item.Tickers) == 0 {
			needFallback = true
		}
	}
	if needFallback && !seen[o.fallbackTicker] {
		tickers = append(tickers, o.fallbackTicker)
	}
	return tickers
}

func (o *Orchestrator) setWatch(day model.Day, tickers []string) {
	o.mu.Lock()
	o.watchDay = day
	o.watchTickers = tickers
	o.mu.Unlock()
}

func (o *Orchestrator) watchlist() (model.Day, []string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.watchDay, o.watchTickers
}

// Run refreshes the most recently viewed day's stock quotes on the given
// interval until the context is cancelled. Readers keep getting the last
// known values while a refresh is in flight.
func (o *Orchestrator) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			day, _ := o.watchlist()
			if day == "" {
				continue
			}
			bucket, ok := o.store.Get(day)
			if !ok {
				continue
			}
			o.refreshQuotes(day, bucket)
		}
	}
}

// Brief summarizes a cached day's enriched view through the configured LLM
// client.
func (o *Orchestrator) Brief(day model.Day) (*brief.Result, error) {
	if o.briefSrc == nil {
		return nil, ErrBriefDisabled
	}

	bucket, ok := o.store.Get(day)
	if !ok || len(bucket.News) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoData, day)
	}

	items := make([]brief.Input, 0, len(bucket.News))
	for _, item := range bucket.News {
		items = append(items, brief.Input{
			Headline:    item.Headline,
			Description: item.Description,
			Location:    item.Location,
			Tickers:     item.Tickers,
		})
	}

	result, err := o.briefSrc.Summarize(items)
	if err != nil {
		return nil, fmt.Errorf("brief generation: %w", err)
	}
	return result, nil
}
