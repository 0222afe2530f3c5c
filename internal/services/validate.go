package services

import (
	"fmt"
	"net/url"

	"github.com/GregMSThompson/finance-dashboard/internal/dto"
	"github.com/GregMSThompson/finance-dashboard/internal/errs"
)

// Input-time rules. The registry itself accepts anything; these run only on
// user-facing create/update paths.

func validateCreateRequest(req dto.CreateWidgetRequest) error {
	if err := validateWidgetType(req.Type); err != nil {
		return err
	}
	if req.Title == "" {
		return errs.NewValidationError("title is required")
	}
	if err := validateRefreshInterval(req.RefreshInterval); err != nil {
		return err
	}
	if err := validateFormat(req.Format); err != nil {
		return err
	}
	if err := validateInterval(req.Interval); err != nil {
		return err
	}
	return validateEndpoint(req.APIEndpoint)
}

func validatePatch(p dto.WidgetPatch) error {
	if p.Type != nil {
		if err := validateWidgetType(*p.Type); err != nil {
			return err
		}
	}
	if p.Title != nil && *p.Title == "" {
		return errs.NewValidationError("title cannot be empty")
	}
	if p.RefreshInterval != nil {
		if err := validateRefreshInterval(*p.RefreshInterval); err != nil {
			return err
		}
	}
	if p.Format != nil {
		if err := validateFormat(*p.Format); err != nil {
			return err
		}
	}
	if p.Interval != nil {
		if err := validateInterval(*p.Interval); err != nil {
			return err
		}
	}
	if p.APIEndpoint != nil {
		return validateEndpoint(*p.APIEndpoint)
	}
	return nil
}

func validateWidgetType(t string) error {
	switch t {
	case dto.WidgetTypeSummary, dto.WidgetTypeChart, dto.WidgetTypeList:
		return nil
	}
	return errs.NewValidationError("unknown widget type: " + t)
}

func validateRefreshInterval(seconds int) error {
	if seconds < dto.MinRefreshInterval {
		return errs.NewValidationError(fmt.Sprintf("refreshInterval must be at least %d seconds", dto.MinRefreshInterval))
	}
	return nil
}

func validateFormat(f string) error {
	switch f {
	case "", dto.FormatNumber, dto.FormatCurrencyUSD, dto.FormatCurrencyINR, dto.FormatPercentage:
		return nil
	}
	return errs.NewValidationError("format must be one of: number, currency-usd, currency-inr, percentage")
}

func validateInterval(i string) error {
	switch i {
	case "", dto.Interval1Day, dto.Interval1Week, dto.Interval1Month:
		return nil
	}
	return errs.NewValidationError("interval must be one of: 1D, 1W, 1M")
}

func validateEndpoint(endpoint string) error {
	if endpoint == "" {
		return nil
	}
	if !isAbsoluteHTTPURL(endpoint) {
		return errs.NewValidationError("apiEndpoint must be an absolute http(s) URL")
	}
	return nil
}

func isAbsoluteHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
