package extract

import (
	"embed"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

//go:embed tables/locations.json tables/companies.json
var tableFiles embed.FS

type locationRule struct {
	Match string `json:"match"`
	City  string `json:"city"`
}

type locationTables struct {
	Countries           []locationRule `json:"countries"`
	Adjectives          []locationRule `json:"adjectives"`
	InternationalCities []string       `json:"international_cities"`
	USCities            []string       `json:"us_cities"`
}

type companyRule struct {
	Name   string `json:"name"`
	Ticker string `json:"ticker"`
}

// Extractor resolves a location and the mentioned tickers from free article
// text using static mapping tables. It holds no mutable state; Extract is
// deterministic for identical input.
type Extractor struct {
	locations locationTables
	companies []companyRule
}

func NewExtractor() (*Extractor, error) {
	e := &Extractor{}

	data, err := tableFiles.ReadFile("tables/locations.json")
	if err != nil {
		return nil, fmt.Errorf("read locations table: %w", err)
	}
	if err := json.Unmarshal(data, &e.locations); err != nil {
		return nil, fmt.Errorf("parse locations table: %w", err)
	}

	data, err = tableFiles.ReadFile("tables/companies.json")
	if err != nil {
		return nil, fmt.Errorf("read companies table: %w", err)
	}
	if err := json.Unmarshal(data, &e.companies); err != nil {
		return nil, fmt.Errorf("parse companies table: %w", err)
	}

	return e, nil
}

// Extract returns the resolved city for the text (empty when nothing
// matches) and the tickers of mentioned companies, ordered by the first
// appearance of the company name in the text, duplicates removed.
func (e *Extractor) Extract(text string) (string, []string) {
	return e.Location(text), e.Tickers(text)
}

// Location scans the text in a fixed priority order: country names mapped
// to a capital-city proxy, then nationality adjectives, then international
// cities, then US cities. The first rule that matches wins.
func (e *Extractor) Location(text string) string {
	lower := strings.ToLower(text)

	for _, rule := range e.locations.Countries {
		if strings.Contains(lower, strings.ToLower(rule.Match)) {
			return rule.City
		}
	}
	for _, rule := range e.locations.Adjectives {
		if strings.Contains(lower, strings.ToLower(rule.Match)) {
			return rule.City
		}
	}
	for _, city := range e.locations.InternationalCities {
		if strings.Contains(lower, strings.ToLower(city)) {
			return city
		}
	}
	for _, city := range e.locations.USCities {
		if strings.Contains(lower, strings.ToLower(city)) {
			return city
		}
	}

	return ""
}

// Tickers returns the tickers of companies mentioned in the text. Order is
// the first appearance of each company name in the text, not table order;
// a ticker reachable through several names (Meta/Facebook) appears once, at
// its earliest mention. An empty result is normal, not an error.
func (e *Extractor) Tickers(text string) []string {
	lower := strings.ToLower(text)

	type hit struct {
		pos    int
		ticker string
	}
	earliest := make(map[string]int)
	for _, c := range e.companies {
		pos := strings.Index(lower, strings.ToLower(c.Name))
		if pos < 0 {
			continue
		}
		if prev, ok := earliest[c.Ticker]; !ok || pos < prev {
			earliest[c.Ticker] = pos
		}
	}

	hits := make([]hit, 0, len(earliest))
	for ticker, pos := range earliest {
		hits = append(hits, hit{pos: pos, ticker: ticker})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].pos != hits[j].pos {
			return hits[i].pos < hits[j].pos
		}
		return hits[i].ticker < hits[j].ticker
	})

	tickers := make([]string, 0, len(hits))
	for _, h := range hits {
		tickers = append(tickers, h.ticker)
	}
	return tickers
}

// Company returns the display name for a ticker, or the ticker itself when
// the table has no entry (the index fallback, for instance).
func (e *Extractor) Company(ticker string) string {
	for _, c := range e.companies {
		if c.Ticker == ticker {
			return c.Name
		}
	}
	return ticker
}
