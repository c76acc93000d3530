package store

import (
	"fmt"
	"sort"
	"sync"

	"github.com/zudevon/ez-dash/internal/model"
)

// Bucket holds everything cached for one calendar day. News keeps the
// provider's ranking order; weather and quotes are keyed by their business
// key within the day.
type Bucket struct {
	News    []model.NewsItem
	Weather map[string]model.WeatherReading
	Quotes  map[string]model.StockQuote
}

// Delta is the partial bucket data merged by Put.
type Delta struct {
	News    []model.NewsItem
	Weather []model.WeatherReading
	Quotes  []model.StockQuote
}

// Store is the date-bucketed retention store. It retains at most `retention`
// distinct days; writing a day beyond that evicts the oldest day present,
// never the day being written. All mutation goes through Put, which is what
// preserves the dedup and retention invariants.
type Store struct {
	mu        sync.RWMutex
	retention int
	buckets   map[model.Day]*Bucket
}

func NewStore(retention int) *Store {
	if retention <= 0 {
		panic(fmt.Sprintf("store: retention must be positive, got %d", retention))
	}
	return &Store{
		retention: retention,
		buckets:   make(map[model.Day]*Bucket),
	}
}

// Get returns a copy of the bucket for the day, so callers cannot mutate
// retained state behind the store's back.
func (s *Store) Get(day model.Day) (Bucket, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.buckets[day]
	if !ok {
		return Bucket{}, false
	}
	return copyBucket(b), true
}

// Put merges the delta into the day's bucket, creating it when absent.
// News items are deduplicated by headline within the day; re-inserting an
// identical item is a no-op, while a same-headline item with different data
// is a contract violation and panics. Weather replaces per location, quotes
// replace per ticker only when the incoming quote is at least as new.
// Eviction runs synchronously at the end of any Put that introduced a new
// day.
func (s *Store) Put(day model.Day, delta Delta) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, existed := s.buckets[day]
	if !existed {
		b = &Bucket{
			Weather: make(map[string]model.WeatherReading),
			Quotes:  make(map[string]model.StockQuote),
		}
		s.buckets[day] = b
	}

	for _, item := range delta.News {
		s.mergeNews(b, day, item)
	}
	for _, w := range delta.Weather {
		b.Weather[w.Location] = w
	}
	for _, q := range delta.Quotes {
		if prev, ok := b.Quotes[q.Ticker]; ok && q.QuotedAt.Before(prev.QuotedAt) {
			continue
		}
		b.Quotes[q.Ticker] = q
	}

	if !existed {
		s.evictBeyondRetention(day)
	}
}

func (s *Store) mergeNews(b *Bucket, day model.Day, item model.NewsItem) {
	for _, existing := range b.News {
		if existing.Headline != item.Headline {
			continue
		}
		if existing.URL != item.URL || existing.Description != item.Description {
			panic(fmt.Sprintf("store: conflicting news for headline %q on %s", item.Headline, day))
		}
		return
	}
	b.News = append(b.News, item)
}

// evictBeyondRetention drops the minimum day present while the store holds
// more than `retention` days. The day just written is exempt even when it is
// the minimum, so backfilling an old date cannot evict itself mid-write.
func (s *Store) evictBeyondRetention(justWritten model.Day) {
	for len(s.buckets) > s.retention {
		var oldest model.Day
		for day := range s.buckets {
			if day == justWritten {
				continue
			}
			if oldest == "" || day.Before(oldest) {
				oldest = day
			}
		}
		if oldest == "" {
			panic(fmt.Sprintf("store: cannot evict, only day present is the one being written (%s)", justWritten))
		}
		delete(s.buckets, oldest)
	}
}

// Days lists retained days, most recent first.
func (s *Store) Days() []model.Day {
	s.mu.RLock()
	defer s.mu.RUnlock()

	days := make([]model.Day, 0, len(s.buckets))
	for day := range s.buckets {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[j].Before(days[i]) })
	return days
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.buckets)
}

func copyBucket(b *Bucket) Bucket {
	out := Bucket{
		News:    make([]model.NewsItem, len(b.News)),
		Weather: make(map[string]model.WeatherReading, len(b.Weather)),
		Quotes:  make(map[string]model.StockQuote, len(b.Quotes)),
	}
	copy(out.News, b.News)
	for k, v := range b.Weather {
		out.Weather[k] = v
	}
	for k, v := range b.Quotes {
		out.Quotes[k] = v
	}
	return out
}
