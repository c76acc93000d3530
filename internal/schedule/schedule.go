package schedule

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Kind identifies one class of upstream data with its own cadence and
// permit pool.
type Kind string

const (
	KindNews    Kind = "news"
	KindWeather Kind = "weather"
	KindStock   Kind = "stock"
)

type Config struct {
	// StockInterval is how long a stock quote stays fresh. The effective
	// interval is floored at TrackedKeys x StockMinProviderInterval so the
	// cadence respects the provider's per-key rate limit as the tracked set
	// grows.
	StockInterval            time.Duration
	StockMinProviderInterval time.Duration

	// WeatherCadence of zero means weather is re-fetched on each explicit
	// request.
	WeatherCadence time.Duration

	// Per-kind ceilings on total upstream calls per minute, enforced by
	// Guard independently of per-key staleness.
	NewsPerMinute    int
	WeatherPerMinute int
	StockPerMinute   int
}

// Scheduler decides when a cached value of a given kind is stale enough to
// warrant an upstream call, and rate-limits the total calls per kind.
// Failed fetches never advance lastFetched, so a transient failure is due
// again on the next staleness check.
type Scheduler struct {
	cfg Config
	now func() time.Time

	mu             sync.Mutex
	lastFetched    map[Kind]map[string]time.Time
	tracked        map[Kind]int
	throttledUntil map[Kind]time.Time
	limiters       map[Kind]*rate.Limiter
}

type Option func(*Scheduler)

// WithClock injects a virtual clock for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		if now != nil {
			s.now = now
		}
	}
}

func New(cfg Config, opts ...Option) *Scheduler {
	s := &Scheduler{
		cfg: cfg,
		now: time.Now,
		lastFetched: map[Kind]map[string]time.Time{
			KindNews:    {},
			KindWeather: {},
			KindStock:   {},
		},
		tracked:        make(map[Kind]int),
		throttledUntil: make(map[Kind]time.Time),
		limiters: map[Kind]*rate.Limiter{
			KindNews:    perMinuteLimiter(cfg.NewsPerMinute),
			KindWeather: perMinuteLimiter(cfg.WeatherPerMinute),
			KindStock:   perMinuteLimiter(cfg.StockPerMinute),
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func perMinuteLimiter(perMinute int) *rate.Limiter {
	if perMinute <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute)
}

// ShouldRefresh reports whether the value behind (kind, key) is stale.
// News keys are the calendar day itself: once fetched for a day it stays
// fresh for good, a force refresh bypasses this check at the caller.
func (s *Scheduler) ShouldRefresh(kind Kind, key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	last, ok := s.lastFetched[kind][key]
	if !ok {
		return true
	}

	switch kind {
	case KindNews:
		return false
	case KindWeather:
		return s.now().Sub(last) >= s.cfg.WeatherCadence
	case KindStock:
		return s.now().Sub(last) >= s.effectiveStockInterval()
	}
	return true
}

// effectiveStockInterval applies the cadence formula: never shorter than
// tracked_keys x provider_min_interval. Callers hold s.mu.
func (s *Scheduler) effectiveStockInterval() time.Duration {
	interval := s.cfg.StockInterval
	floor := time.Duration(s.tracked[KindStock]) * s.cfg.StockMinProviderInterval
	if floor > interval {
		return floor
	}
	return interval
}

// Guard issues a permit for one upstream call of the kind, or a suggested
// backoff when the per-minute ceiling is exhausted or the provider recently
// throttled us. It never blocks.
func (s *Scheduler) Guard(kind Kind) (bool, time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if until, ok := s.throttledUntil[kind]; ok && now.Before(until) {
		return false, until.Sub(now)
	}

	r := s.limiters[kind].ReserveN(now, 1)
	if !r.OK() {
		return false, time.Minute
	}
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return false, delay
	}
	return true, 0
}

// MarkFetched records a successful fetch for (kind, key). It is not called
// on failure, so the next staleness check still considers the key due.
func (s *Scheduler) MarkFetched(kind Kind, key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastFetched[kind][key] = s.now()
}

// MarkThrottled widens the kind's effective cadence after a provider
// rate-limit signal: no permit is granted until the cooldown passes.
func (s *Scheduler) MarkThrottled(kind Kind) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.throttledUntil[kind] = s.now().Add(s.cooldown(kind))
}

func (s *Scheduler) cooldown(kind Kind) time.Duration {
	switch kind {
	case KindStock:
		return s.effectiveStockInterval()
	case KindWeather:
		if s.cfg.WeatherCadence > time.Minute {
			return s.cfg.WeatherCadence
		}
		return time.Minute
	default:
		return time.Minute
	}
}

// Track records how many distinct keys of the kind are being refreshed
// concurrently; for stocks this feeds the cadence formula.
func (s *Scheduler) Track(kind Kind, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tracked[kind] = n
}
