package poller

import (
	"context"
	"time"

	"github.com/GregMSThompson/finance-dashboard/internal/display"
	"github.com/GregMSThompson/finance-dashboard/internal/dto"
	"github.com/GregMSThompson/finance-dashboard/internal/models"
)

// Fetcher returns a widget's decoded payload, or nil when the fetch failed.
type Fetcher interface {
	FetchWidgetData(ctx context.Context, endpoint, apiKey, headerOverride string) any
}

// RunOnce performs a single refresh cycle for w outside any controller and
// returns the resulting view.
func RunOnce(ctx context.Context, fetcher Fetcher, w models.Widget, opts Options) dto.WidgetView {
	opts = opts.withDefaults()
	payload, mock := fetchPayload(ctx, fetcher, w, opts)
	return renderView(w, payload, mock, opts.Clock.Now())
}

// fetchPayload gets one payload for w. Widgets without an endpoint never touch
// the network: summaries get a random demo value, charts get nil so that
// rendering falls back to a demo series.
func fetchPayload(ctx context.Context, fetcher Fetcher, w models.Widget, opts Options) (payload any, mock bool) {
	if !w.HasEndpoint() {
		if w.Type == dto.WidgetTypeChart {
			return nil, true
		}
		return map[string]any{"value": opts.Rand()*10000 + 30000}, true
	}

	ctx, cancel := context.WithTimeout(ctx, opts.CycleTimeout)
	defer cancel()
	return fetcher.FetchWidgetData(ctx, w.APIEndpoint, w.APIKey, w.APIKeyHeader), false
}

// renderView turns a cycle outcome into a view. A nil live payload is a
// failed fetch and yields an error view with no data.
func renderView(w models.Widget, payload any, mock bool, fetched time.Time) dto.WidgetView {
	if payload == nil && !mock {
		return dto.WidgetView{
			WidgetID:    w.ID,
			Type:        w.Type,
			State:       dto.StateError,
			LastUpdated: fetched,
			Error:       fetchFailedMessage,
		}
	}
	if mock {
		// demo values live under "value" whatever the configured path is
		w.DataKey = ""
	}
	view := display.Render(w, payload)
	view.State = dto.StateSuccess
	view.Mock = view.Mock || mock
	view.LastUpdated = fetched
	return view
}
