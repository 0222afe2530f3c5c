package services

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/GregMSThompson/finance-dashboard/internal/dto"
	"github.com/GregMSThompson/finance-dashboard/internal/errs"
	"github.com/GregMSThompson/finance-dashboard/pkg/logger"
)

const (
	bearerPrefix    = "Bearer "
	maxUpstreamBody = 10 << 20
)

// DefaultUserAgent identifies the proxy to upstream data sources.
const DefaultUserAgent = "finance-dashboard-proxy/1.0 (+https://github.com/GregMSThompson/finance-dashboard)"

// proxyService relays one GET per call to an external JSON API, attaching
// credentials server-side. It keeps no state between calls and never retries.
type proxyService struct {
	client       *http.Client
	defaultToken string
	userAgent    string
	tracer       trace.Tracer
}

func NewProxyService(client *http.Client, defaultToken, userAgent string) *proxyService {
	if client == nil {
		client = http.DefaultClient
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &proxyService{
		client:       client,
		defaultToken: defaultToken,
		userAgent:    userAgent,
		tracer:       otel.Tracer("github.com/GregMSThompson/finance-dashboard/internal/services"),
	}
}

// Fetch performs the upstream request and returns its JSON body verbatim.
func (s *proxyService) Fetch(ctx context.Context, req dto.ProxyRequest) (json.RawMessage, error) {
	if req.URL == "" {
		return nil, errs.NewValidationError("Missing url parameter")
	}
	target, err := url.Parse(req.URL)
	if err != nil || (target.Scheme != "http" && target.Scheme != "https") || target.Host == "" {
		return nil, errs.NewValidationError("url must be an absolute http(s) URL")
	}

	log := logger.FromContext(ctx).With("upstream_host", target.Host, "upstream_path", target.Path)
	ctx, span := s.tracer.Start(ctx, "proxy.fetch", trace.WithAttributes(
		attribute.String("upstream.host", target.Host),
		attribute.String("upstream.path", target.Path),
	))
	defer span.End()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, nil)
	if err != nil {
		return nil, errs.NewValidationError("url must be an absolute http(s) URL")
	}
	httpReq.Header = s.BuildHeaders(req)

	resp, err := s.client.Do(httpReq)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport failure")
		return nil, errs.NewExternalServiceError("upstream", "Failed to fetch data", true, err)
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("upstream.status", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxUpstreamBody))
		log.Error("proxy upstream error", "status", resp.StatusCode, "body", string(body))
		span.SetStatus(codes.Error, resp.Status)
		return nil, errs.NewUpstreamError(resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxUpstreamBody))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "read failure")
		return nil, errs.NewExternalServiceError("upstream", "Failed to fetch data", true, err)
	}
	if !json.Valid(body) {
		span.SetStatus(codes.Error, "invalid json")
		return nil, errs.NewExternalServiceError("upstream", "upstream returned a non-JSON body", false, nil)
	}

	log.Debug("proxy upstream ok", "status", resp.StatusCode, "bytes", len(body))
	return json.RawMessage(body), nil
}

// BuildHeaders returns the outbound headers for req. A per-request token wins
// over the process default. The default Authorization header gets a Bearer
// prefix unless the token already carries one; custom headers get the raw token.
func (s *proxyService) BuildHeaders(req dto.ProxyRequest) http.Header {
	h := make(http.Header)
	h.Set("Accept", "application/json")
	h.Set("User-Agent", s.userAgent)

	token := req.Token
	if token == "" {
		token = s.defaultToken
	}
	if token == "" {
		return h
	}

	name := req.Header
	if name == "" {
		name = dto.DefaultAuthHeader
	}
	if strings.EqualFold(name, dto.DefaultAuthHeader) && !strings.HasPrefix(token, bearerPrefix) {
		h.Set(name, bearerPrefix+token)
	} else {
		h.Set(name, token)
	}
	return h
}
