package models

// Widget is a single dashboard widget configuration. The JSON encoding of an
// ordered []Widget is both the persisted document and the export format.
type Widget struct {
	ID              string `json:"id"`
	Type            string `json:"type"`
	Title           string `json:"title"`
	Symbol          string `json:"symbol"`
	Interval        string `json:"interval,omitempty"` // chart window: "1D","1W","1M"
	APIEndpoint     string `json:"apiEndpoint,omitempty"`
	APIKey          string `json:"apiKey,omitempty"`
	APIKeyHeader    string `json:"apiKeyHeader,omitempty"`
	DataKey         string `json:"dataKey,omitempty"`
	RefreshInterval int    `json:"refreshInterval"` // seconds
	Format          string `json:"format,omitempty"`
}

// HasEndpoint reports whether the widget fetches live data instead of running in demo mode.
func (w Widget) HasEndpoint() bool {
	return w.APIEndpoint != ""
}
