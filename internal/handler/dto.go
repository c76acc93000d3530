package handler

type ViewResponse struct {
	Date  string         `json:"date"`
	Items []ItemResponse `json:"items"`
}

type ItemResponse struct {
	ID          string           `json:"id"`
	Headline    string           `json:"headline"`
	Description string           `json:"description"`
	URL         string           `json:"url"`
	Source      string           `json:"source"`
	Location    string           `json:"location,omitempty"`
	Weather     *WeatherResponse `json:"weather"`
	Quotes      []QuoteResponse  `json:"quotes"`
}

type WeatherResponse struct {
	Location    string  `json:"location"`
	TempF       float64 `json:"temp_f"`
	FeelsLikeF  float64 `json:"feels_like_f"`
	Humidity    int     `json:"humidity"`
	Description string  `json:"description"`
}

type QuoteResponse struct {
	Ticker   string  `json:"ticker"`
	Company  string  `json:"company"`
	Price    *string `json:"price"`
	QuotedAt string  `json:"quoted_at"`
}

type DatesResponse struct {
	Dates []string `json:"dates"`
}

type BriefResponse struct {
	Date      string   `json:"date"`
	Paragraph string   `json:"paragraph"`
	Bullets   []string `json:"bullets"`
	ModelUsed string   `json:"model_used"`
}
