package dto

import (
	"encoding/json"
	"time"

	"github.com/GregMSThompson/finance-dashboard/internal/models"
)

// Widget type constants
const (
	WidgetTypeSummary = "summary"
	WidgetTypeChart   = "chart"
	WidgetTypeList    = "list"
)

// Display format constants
const (
	FormatNumber      = "number"
	FormatCurrencyUSD = "currency-usd"
	FormatCurrencyINR = "currency-inr"
	FormatPercentage  = "percentage"
)

// Chart window labels
const (
	Interval1Day   = "1D"
	Interval1Week  = "1W"
	Interval1Month = "1M"
)

// Display sentinels
const (
	SentinelNoData       = "---"
	SentinelNotAvailable = "N/A"
)

// Polling states
const (
	StateIdle    = "idle"
	StateLoading = "loading"
	StateSuccess = "success"
	StateError   = "error"
)

// MinRefreshInterval is the smallest interval (seconds) accepted at input time.
const MinRefreshInterval = 5

// --- Request types ---

type CreateWidgetRequest struct {
	ID              string `json:"id,omitempty"`
	Type            string `json:"type"`
	Title           string `json:"title"`
	Symbol          string `json:"symbol"`
	Interval        string `json:"interval,omitempty"`
	APIEndpoint     string `json:"apiEndpoint,omitempty"`
	APIKey          string `json:"apiKey,omitempty"`
	APIKeyHeader    string `json:"apiKeyHeader,omitempty"`
	DataKey         string `json:"dataKey,omitempty"`
	RefreshInterval int    `json:"refreshInterval"`
	Format          string `json:"format,omitempty"`
}

// WidgetPatch carries a partial update. Nil fields are left untouched.
type WidgetPatch struct {
	Type            *string `json:"type,omitempty"`
	Title           *string `json:"title,omitempty"`
	Symbol          *string `json:"symbol,omitempty"`
	Interval        *string `json:"interval,omitempty"`
	APIEndpoint     *string `json:"apiEndpoint,omitempty"`
	APIKey          *string `json:"apiKey,omitempty"`
	APIKeyHeader    *string `json:"apiKeyHeader,omitempty"`
	DataKey         *string `json:"dataKey,omitempty"`
	RefreshInterval *int    `json:"refreshInterval,omitempty"`
	Format          *string `json:"format,omitempty"`
}

// Apply merges the patch into w and returns the result.
func (p WidgetPatch) Apply(w models.Widget) models.Widget {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&w.Type, p.Type)
	set(&w.Title, p.Title)
	set(&w.Symbol, p.Symbol)
	set(&w.Interval, p.Interval)
	set(&w.APIEndpoint, p.APIEndpoint)
	set(&w.APIKey, p.APIKey)
	set(&w.APIKeyHeader, p.APIKeyHeader)
	set(&w.DataKey, p.DataKey)
	set(&w.Format, p.Format)
	if p.RefreshInterval != nil {
		w.RefreshInterval = *p.RefreshInterval
	}
	return w
}

type ReorderWidgetsRequest struct {
	IDs []string `json:"ids"`
}

type MoveWidgetRequest struct {
	To int `json:"to"`
}

// --- Widget data response types ---

// WidgetView is the renderable state of one widget as produced by its polling controller.
type WidgetView struct {
	WidgetID    string          `json:"widgetId"`
	Type        string          `json:"type"`
	State       string          `json:"state"`
	Display     string          `json:"display,omitempty"`
	Raw         json.RawMessage `json:"raw,omitempty"`
	Series      []SeriesPoint   `json:"series,omitempty"`
	Rows        []WatchlistRow  `json:"rows,omitempty"`
	Mock        bool            `json:"mock"`
	LastUpdated time.Time       `json:"lastUpdated"`
	Error       string          `json:"error,omitempty"`
}

type SeriesPoint struct {
	Name  int     `json:"name"`
	Value float64 `json:"value"`
}

type WatchlistRow struct {
	Company string  `json:"company"`
	Price   float64 `json:"price"`
	High    float64 `json:"high"`
}
