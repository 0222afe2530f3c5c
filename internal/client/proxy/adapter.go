package proxyclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/GregMSThompson/finance-dashboard/internal/dto"
	"github.com/GregMSThompson/finance-dashboard/internal/errs"
)

// Adapter calls the /api/proxy endpoint of a running dashboard server.
type Adapter struct {
	client  *http.Client
	baseURL string
}

func NewAdapter(client *http.Client, baseURL string) *Adapter {
	if client == nil {
		client = http.DefaultClient
	}
	return &Adapter{client: client, baseURL: strings.TrimRight(baseURL, "/")}
}

// ProxyURL builds the relay URL for req.
func (a *Adapter) ProxyURL(req dto.ProxyRequest) string {
	q := url.Values{}
	q.Set("url", req.URL)
	if req.Token != "" {
		q.Set("token", req.Token)
	}
	if req.Header != "" {
		q.Set("header", req.Header)
	}
	return a.baseURL + "/api/proxy?" + q.Encode()
}

func (a *Adapter) Fetch(ctx context.Context, req dto.ProxyRequest) (json.RawMessage, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, a.ProxyURL(req), nil)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return nil, errs.NewExternalServiceError("proxy", "proxy unreachable", true, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errs.NewExternalServiceError("proxy", "failed to read proxy response", true, err)
	}

	if resp.StatusCode == http.StatusOK {
		return json.RawMessage(body), nil
	}

	// a details key, even an empty one, marks a relayed upstream failure
	var perr struct {
		Error   string  `json:"error"`
		Details *string `json:"details"`
	}
	_ = json.Unmarshal(body, &perr)
	switch {
	case perr.Details != nil:
		return nil, errs.NewUpstreamError(resp.StatusCode, *perr.Details)
	case resp.StatusCode == http.StatusBadRequest && perr.Error != "":
		return nil, errs.NewValidationError(perr.Error)
	case resp.StatusCode == http.StatusInternalServerError && perr.Error != "":
		return nil, errs.NewExternalServiceError("proxy", perr.Error, false, nil)
	default:
		return nil, errs.NewUpstreamError(resp.StatusCode, string(body))
	}
}

func (a *Adapter) String() string {
	return fmt.Sprintf("proxy(%s)", a.baseURL)
}
