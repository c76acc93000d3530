package news

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

type NewsAPIClient struct {
	apiKey     string
	pageSize   int
	httpClient *http.Client
	now        func() time.Time
}

func NewNewsAPIClient(apiKey string, pageSize int) *NewsAPIClient {
	return &NewsAPIClient{
		apiKey:     apiKey,
		pageSize:   pageSize,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		now:        time.Now,
	}
}

func (c *NewsAPIClient) Name() string {
	return "NewsAPI"
}

// FetchNews uses the top-headlines endpoint for today and the everything
// endpoint for historical dates, which is how NewsAPI exposes date queries.
func (c *NewsAPIClient) FetchNews(date string) ([]Article, error) {
	if date == c.now().Format("2006-01-02") {
		return c.topHeadlines()
	}
	return c.byDate(date)
}

func (c *NewsAPIClient) topHeadlines() ([]Article, error) {
	q := url.Values{}
	q.Set("country", "us")
	q.Set("pageSize", fmt.Sprintf("%d", c.pageSize))
	q.Set("apiKey", c.apiKey)
	return c.fetch("https://newsapi.org/v2/top-headlines?" + q.Encode())
}

func (c *NewsAPIClient) byDate(date string) ([]Article, error) {
	q := url.Values{}
	q.Set("q", "news")
	q.Set("from", date)
	q.Set("to", date)
	q.Set("language", "en")
	q.Set("sortBy", "publishedAt")
	q.Set("pageSize", fmt.Sprintf("%d", c.pageSize))
	q.Set("apiKey", c.apiKey)
	return c.fetch("https://newsapi.org/v2/everything?" + q.Encode())
}

func (c *NewsAPIClient) fetch(endpoint string) ([]Article, error) {
	resp, err := c.httpClient.Get(endpoint)
	if err != nil {
		return nil, fmt.Errorf("newsapi fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, ErrRateLimited
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("newsapi status %d", resp.StatusCode)
	}

	var raw newsAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("newsapi decode: %w", err)
	}
	if raw.Status != "ok" {
		return nil, fmt.Errorf("newsapi error: %s", raw.Message)
	}

	articles := make([]Article, 0, len(raw.Articles))
	for _, item := range raw.Articles {
		publishedAt, err := time.Parse(time.RFC3339, item.PublishedAt)
		if err != nil {
			publishedAt = time.Time{}
		}

		articles = append(articles, Article{
			ExternalID:  generateExternalID(item.URL),
			Headline:    item.Title,
			Description: item.Description,
			URL:         item.URL,
			Publisher:   item.Source.Name,
			PublishedAt: publishedAt,
		})
	}

	return articles, nil
}

func generateExternalID(url string) string {
	sum := sha256.Sum256([]byte(url))
	return fmt.Sprintf("%x", sum)[:16]
}

type newsAPIResponse struct {
	Status   string `json:"status"`
	Message  string `json:"message"`
	Articles []struct {
		Source struct {
			Name string `json:"name"`
		} `json:"source"`
		Title       string `json:"title"`
		Description string `json:"description"`
		URL         string `json:"url"`
		PublishedAt string `json:"publishedAt"`
	} `json:"articles"`
}
