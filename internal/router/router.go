package router

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/GregMSThompson/finance-dashboard/internal/handlers"
	"github.com/GregMSThompson/finance-dashboard/internal/middleware"
)

func NewRouter(deps *handlers.Deps) chi.Router {
	r := chi.NewRouter()

	lm := middleware.NewLoggerMiddleware(deps.Log)
	r.Use(chimiddleware.RequestID)
	r.Use(lm.LoggerMiddleware)
	r.Use(chimiddleware.Recoverer)

	dsh := handlers.NewDashboardHandlers(deps)
	prh := handlers.NewProxyHandlers(deps)

	r.Mount("/api/proxy", prh.ProxyRoutes())
	r.Mount("/dashboard", dsh.DashboardRoutes())
	return r
}
