package news

import (
	"errors"
	"time"
)

type Article struct {
	ExternalID  string
	Headline    string
	Description string
	URL         string
	Publisher   string
	PublishedAt time.Time
}

type Client interface {
	// FetchNews returns the articles for a YYYY-MM-DD date: today's top
	// headlines, or the everything feed for a past date.
	FetchNews(date string) ([]Article, error)
	Name() string
}

// ErrRateLimited signals that the provider throttled the request.
var ErrRateLimited = errors.New("news provider rate limited")
