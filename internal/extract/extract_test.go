package extract

import (
	"testing"

	"github.com/go-playground/assert/v2"
)

func newTestExtractor(t *testing.T) *Extractor {
	t.Helper()
	e, err := NewExtractor()
	assert.Equal(t, nil, err)
	return e
}

func TestLocation_CountryMapsToCapital(t *testing.T) {
	e := newTestExtractor(t)

	got := e.Location("Trade talks stall as France weighs new tariffs")
	assert.Equal(t, "Paris", got)
}

func TestLocation_NationalityAdjective(t *testing.T) {
	e := newTestExtractor(t)

	got := e.Location("Japanese automakers report record quarterly output")
	assert.Equal(t, "Tokyo", got)
}

func TestLocation_CountryBeatsCity(t *testing.T) {
	e := newTestExtractor(t)

	// Germany (country tier) wins over London (city tier) even though
	// London appears first in the text.
	got := e.Location("London investors watch Germany bond auctions")
	assert.Equal(t, "Berlin", got)
}

func TestLocation_InternationalCity(t *testing.T) {
	e := newTestExtractor(t)

	got := e.Location("Hong Kong exchange extends trading hours")
	assert.Equal(t, "Hong Kong", got)
}

func TestLocation_USCity(t *testing.T) {
	e := newTestExtractor(t)

	got := e.Location("Seattle startups raise another record round")
	assert.Equal(t, "Seattle", got)
}

func TestLocation_NoMatchIsEmpty(t *testing.T) {
	e := newTestExtractor(t)

	got := e.Location("Quarterly earnings season begins this week")
	assert.Equal(t, "", got)
}

func TestLocation_UkraineNotShadowedByUK(t *testing.T) {
	e := newTestExtractor(t)

	got := e.Location("Grain exports from Ukraine resume under new deal")
	assert.Equal(t, "Kyiv", got)
}

func TestTickers_FirstAppearanceOrder(t *testing.T) {
	e := newTestExtractor(t)

	// Tesla appears before Apple in the text; TSLA must come first even
	// though AAPL sorts first alphabetically.
	got := e.Tickers("Tesla deliveries beat estimates while Apple guidance slips")
	assert.Equal(t, []string{"TSLA", "AAPL"}, got)
}

func TestTickers_DuplicateNamesCollapse(t *testing.T) {
	e := newTestExtractor(t)

	// Meta and Facebook both map to META; one entry, at the earliest
	// mention.
	got := e.Tickers("Facebook parent Meta expands data centers, Meta shares rise")
	assert.Equal(t, []string{"META"}, got)
}

func TestTickers_NoCompanyIsEmpty(t *testing.T) {
	e := newTestExtractor(t)

	got := e.Tickers("Severe storms expected across the midwest this weekend")
	assert.Equal(t, 0, len(got))
}

func TestExtract_Deterministic(t *testing.T) {
	e := newTestExtractor(t)
	text := "Microsoft and Nvidia announce partnership at Paris summit"

	loc1, tickers1 := e.Extract(text)
	loc2, tickers2 := e.Extract(text)

	assert.Equal(t, loc1, loc2)
	assert.Equal(t, tickers1, tickers2)
	assert.Equal(t, "Paris", loc1)
	assert.Equal(t, []string{"MSFT", "NVDA"}, tickers1)
}

func TestCompany_KnownAndUnknown(t *testing.T) {
	e := newTestExtractor(t)

	assert.Equal(t, "Apple", e.Company("AAPL"))
	assert.Equal(t, "SPY", e.Company("SPY"))
}
