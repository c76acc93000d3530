package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/zudevon/ez-dash/internal/enrich"
	"github.com/zudevon/ez-dash/internal/model"
	"github.com/zudevon/ez-dash/pkg/brief"
)

type ViewProvider interface {
	EnrichedView(day model.Day) ([]model.EnrichedItem, error)
	Dates() []model.Day
	Refresh(day model.Day) error
	Brief(day model.Day) (*brief.Result, error)
}

type ViewHandler struct {
	provider ViewProvider
}

func NewViewHandler(provider ViewProvider) *ViewHandler {
	return &ViewHandler{provider: provider}
}

func (h *ViewHandler) GetView(c *gin.Context) {
	day, ok := parseDay(c)
	if !ok {
		return
	}

	items, err := h.provider.EnrichedView(day)
	if err != nil {
		if errors.Is(err, enrich.ErrNewsUnavailable) {
			// An explicit no-data state, distinct from a day with no news.
			c.JSON(http.StatusBadGateway, gin.H{"error": "News unavailable for this date", "status": "no_data"})
			return
		}
		slog.Error("error building view", "date", day, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
		return
	}

	c.JSON(http.StatusOK, toViewResponse(day, items))
}

func (h *ViewHandler) GetDates(c *gin.Context) {
	days := h.provider.Dates()
	dates := make([]string, 0, len(days))
	for _, d := range days {
		dates = append(dates, d.String())
	}
	c.JSON(http.StatusOK, DatesResponse{Dates: dates})
}

func (h *ViewHandler) PostRefresh(c *gin.Context) {
	day, ok := parseDay(c)
	if !ok {
		return
	}

	if err := h.provider.Refresh(day); err != nil {
		if errors.Is(err, enrich.ErrNewsUnavailable) {
			c.JSON(http.StatusBadGateway, gin.H{"error": "News unavailable for this date", "status": "no_data"})
			return
		}
		slog.Error("error refreshing date", "date", day, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "refreshed", "date": day.String()})
}

func (h *ViewHandler) GetBrief(c *gin.Context) {
	day, ok := parseDay(c)
	if !ok {
		return
	}

	result, err := h.provider.Brief(day)
	if err != nil {
		switch {
		case errors.Is(err, enrich.ErrBriefDisabled):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Brief generation not configured"})
		case errors.Is(err, enrich.ErrNoData):
			c.JSON(http.StatusNotFound, gin.H{"error": "No cached data for this date"})
		default:
			slog.Error("error generating brief", "date", day, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
		}
		return
	}

	c.JSON(http.StatusOK, BriefResponse{
		Date:      day.String(),
		Paragraph: result.Paragraph,
		Bullets:   result.Bullets,
		ModelUsed: result.ModelUsed,
	})
}

func (h *ViewHandler) GetHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().UTC().Format(time.RFC3339)})
}

func parseDay(c *gin.Context) (model.Day, bool) {
	day, err := model.ParseDay(c.Param("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date, expected YYYY-MM-DD"})
		return "", false
	}
	return day, true
}

func toViewResponse(day model.Day, items []model.EnrichedItem) ViewResponse {
	resp := ViewResponse{Date: day.String(), Items: make([]ItemResponse, 0, len(items))}

	for _, item := range items {
		row := ItemResponse{
			ID:          item.News.ID,
			Headline:    item.News.Headline,
			Description: item.News.Description,
			URL:         item.News.URL,
			Source:      item.News.Source,
			Location:    item.News.Location,
			Quotes:      make([]QuoteResponse, 0, len(item.Quotes)),
		}

		if item.Weather != nil {
			row.Weather = &WeatherResponse{
				Location:    item.Weather.Location,
				TempF:       item.Weather.TempF,
				FeelsLikeF:  item.Weather.FeelsLikeF,
				Humidity:    item.Weather.Humidity,
				Description: item.Weather.Description,
			}
		}

		for _, q := range item.Quotes {
			qr := QuoteResponse{
				Ticker:   q.Ticker,
				Company:  q.Company,
				QuotedAt: q.QuotedAt.UTC().Format(time.RFC3339),
			}
			if q.Price.Valid {
				s := q.Price.Decimal.StringFixed(2)
				qr.Price = &s
			}
			row.Quotes = append(row.Quotes, qr)
		}

		resp.Items = append(resp.Items, row)
	}

	return resp
}
