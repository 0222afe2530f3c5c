package handlers

import (
	"log/slog"

	"github.com/GregMSThompson/finance-dashboard/internal/response"
)

type Deps struct {
	Log             *slog.Logger
	ResponseHandler response.ResponseHandler
	RegistrySvc     RegistryService
	ProxySvc        ProxyService
	Poller          WidgetPoller
}
