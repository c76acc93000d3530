package weather

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

type Observation struct {
	Location    string
	TempF       float64
	FeelsLikeF  float64
	Humidity    int
	Description string
}

type Client interface {
	Current(city string) (Observation, error)
	Name() string
}

// ErrRateLimited signals that the provider throttled the request.
var ErrRateLimited = errors.New("weather provider rate limited")

type OpenWeatherClient struct {
	apiKey     string
	httpClient *http.Client
}

func NewOpenWeatherClient(apiKey string) *OpenWeatherClient {
	return &OpenWeatherClient{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *OpenWeatherClient) Name() string {
	return "OpenWeatherMap"
}

// Current fetches the current conditions for a city, in imperial units.
func (c *OpenWeatherClient) Current(city string) (Observation, error) {
	q := url.Values{}
	q.Set("q", city)
	q.Set("appid", c.apiKey)
	q.Set("units", "imperial")

	resp, err := c.httpClient.Get("https://api.openweathermap.org/data/2.5/weather?" + q.Encode())
	if err != nil {
		return Observation{}, fmt.Errorf("openweather fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return Observation{}, ErrRateLimited
	}
	if resp.StatusCode != http.StatusOK {
		return Observation{}, fmt.Errorf("openweather status %d for %s", resp.StatusCode, city)
	}

	var raw owmResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return Observation{}, fmt.Errorf("openweather decode: %w", err)
	}

	obs := Observation{
		Location:   raw.Name,
		TempF:      raw.Main.Temp,
		FeelsLikeF: raw.Main.FeelsLike,
		Humidity:   raw.Main.Humidity,
	}
	if obs.Location == "" {
		obs.Location = city
	}
	if len(raw.Weather) > 0 {
		obs.Description = raw.Weather[0].Description
	}

	return obs, nil
}

type owmResponse struct {
	Name string `json:"name"`
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Humidity  int     `json:"humidity"`
	} `json:"main"`
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
}
