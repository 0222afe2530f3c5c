package display

import (
	"encoding/json"
	"math/rand/v2"

	"github.com/GregMSThompson/finance-dashboard/internal/dto"
	"github.com/GregMSThompson/finance-dashboard/internal/models"
)

const mockSeriesLen = 30

// Watchlist is the static sample data shown by list widgets.
var Watchlist = []dto.WatchlistRow{
	{Company: "Uti Silver Etf", Price: 114.2, High: 114.73},
	{Company: "Mirae Asset Mutual Fund Silver Etf", Price: 114.92, High: 114.70},
	{Company: "Sbi Fix Sr54 1842 D Reg Idcw Cf", Price: 16.03, High: 16.22},
	{Company: "Hdfc Gold Etf", Price: 87.00, High: 88.21},
	{Company: "Absl Fmurrn", Price: 110.16, High: 110.16},
	{Company: "Motilal Oswal Midcap 100 Etf", Price: 60.32, High: 22.00},
}

// Render fills the display part of a widget view from a fetched payload.
// State and timestamps are owned by the caller.
func Render(w models.Widget, payload any) dto.WidgetView {
	view := dto.WidgetView{
		WidgetID: w.ID,
		Type:     w.Type,
	}
	if payload != nil {
		if b, err := json.Marshal(payload); err == nil {
			view.Raw = b
		}
	}

	switch w.Type {
	case dto.WidgetTypeChart:
		if series, ok := Series(payload); ok {
			view.Series = series
		} else {
			view.Series = MockSeries(rand.Float64)
			view.Mock = true
		}
	case dto.WidgetTypeList:
		view.Rows = append([]dto.WatchlistRow(nil), Watchlist...)
	default:
		view.Display = Display(Extract(payload, w.DataKey), w.Format)
	}
	return view
}

// Series converts an array payload into chart points. Elements may be bare
// numbers or objects carrying a numeric "value" (and optionally "name").
func Series(payload any) ([]dto.SeriesPoint, bool) {
	list, ok := payload.([]any)
	if !ok {
		return nil, false
	}
	points := make([]dto.SeriesPoint, 0, len(list))
	for i, item := range list {
		p := dto.SeriesPoint{Name: i}
		switch t := item.(type) {
		case map[string]any:
			v, ok := parseNumber(t["value"])
			if !ok {
				continue
			}
			p.Value = v.InexactFloat64()
			if n, ok := t["name"].(float64); ok {
				p.Name = int(n)
			}
		default:
			v, ok := parseNumber(t)
			if !ok {
				continue
			}
			p.Value = v.InexactFloat64()
		}
		points = append(points, p)
	}
	return points, true
}

// MockSeries generates a demo series around 20000.
func MockSeries(rnd func() float64) []dto.SeriesPoint {
	points := make([]dto.SeriesPoint, mockSeriesLen)
	for i := range points {
		points[i] = dto.SeriesPoint{Name: i, Value: 20000 + rnd()*2000 - 1000}
	}
	return points
}
