package services

import (
	"github.com/GregMSThompson/finance-dashboard/internal/dto"
	"github.com/GregMSThompson/finance-dashboard/internal/models"
)

// DefaultSeeds is the first-run dashboard.
func DefaultSeeds() []models.Widget {
	return []models.Widget{
		{
			ID:              "1",
			Type:            dto.WidgetTypeSummary,
			Title:           "Bitcoin Price",
			Symbol:          "BTC",
			RefreshInterval: 30,
			APIEndpoint:     "https://api.coinbase.com/v2/exchange-rates?currency=BTC",
			DataKey:         "data.rates.USD",
		},
		{
			ID:              "3",
			Type:            dto.WidgetTypeSummary,
			Title:           "USD to INR",
			Symbol:          "₹",
			RefreshInterval: 60,
			APIEndpoint:     "https://open.er-api.com/v6/latest/USD",
			DataKey:         "rates.INR",
		},
		{
			ID:              "2",
			Type:            dto.WidgetTypeChart,
			Title:           "Market Trend",
			Symbol:          "SPY",
			Interval:        dto.Interval1Month,
			RefreshInterval: 60,
		},
		{
			ID:              "4",
			Type:            dto.WidgetTypeChart,
			Title:           "Ethereum Growth",
			Symbol:          "ETH",
			Interval:        dto.Interval1Week,
			RefreshInterval: 45,
		},
		{
			ID:              "5",
			Type:            dto.WidgetTypeList,
			Title:           "Top Gainers",
			Symbol:          "MKT",
			RefreshInterval: 120,
		},
		{
			ID:              "6",
			Type:            dto.WidgetTypeList,
			Title:           "My Watchlist",
			Symbol:          "WATCH",
			RefreshInterval: 300,
		},
	}
}
