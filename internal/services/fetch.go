package services

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/GregMSThompson/finance-dashboard/internal/dto"
	"github.com/GregMSThompson/finance-dashboard/pkg/logger"
)

// proxyCaller is satisfied by the in-process proxy service and by the HTTP
// adapter that talks to a remote /api/proxy.
type proxyCaller interface {
	Fetch(ctx context.Context, req dto.ProxyRequest) (json.RawMessage, error)
}

// DefaultHeaderRules lists providers that expect the credential on a custom header.
func DefaultHeaderRules() []dto.HeaderRule {
	return []dto.HeaderRule{
		{Match: "goldapi.io", Header: "x-access-token"},
	}
}

type fetchService struct {
	proxy proxyCaller
	rules []dto.HeaderRule
}

func NewFetchService(proxy proxyCaller, rules []dto.HeaderRule) *fetchService {
	return &fetchService{proxy: proxy, rules: rules}
}

// HeaderFor picks the credential header for endpoint: an explicit per-widget
// override first, then the first matching provider rule, else "" (proxy default).
func (s *fetchService) HeaderFor(endpoint, override string) string {
	if override != "" {
		return override
	}
	for _, r := range s.rules {
		if r.Match != "" && strings.Contains(endpoint, r.Match) {
			return r.Header
		}
	}
	return ""
}

// FetchWidgetData returns the decoded payload, or nil when anything fails.
// Failures are logged and never returned.
func (s *fetchService) FetchWidgetData(ctx context.Context, endpoint, apiKey, headerOverride string) any {
	log := logger.FromContext(ctx)

	raw, err := s.proxy.Fetch(ctx, dto.ProxyRequest{
		URL:    endpoint,
		Token:  apiKey,
		Header: s.HeaderFor(endpoint, headerOverride),
	})
	if err != nil {
		log.Warn("widget data fetch failed", "error", err)
		return nil
	}

	var payload any
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Warn("widget data is not valid JSON", "error", err)
		return nil
	}
	return payload
}
