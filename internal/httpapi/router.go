package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"procodus.dev/fleet-inventory/internal/inventory"
	"procodus.dev/fleet-inventory/pkg/metrics"
)

// api holds the dependencies shared by all handlers.
type api struct {
	svc    *inventory.Service
	logger *slog.Logger
	debug  bool
}

// NewRouter builds the full route tree. m may be nil to disable metrics
// collection (tests).
func NewRouter(svc *inventory.Service, logger *slog.Logger, m *metrics.APIMetrics, debug bool) http.Handler {
	a := &api{svc: svc, logger: logger, debug: debug}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(requestMetrics(m))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", a.handleHealth)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Route("/tenants", func(r chi.Router) {
			r.Post("/", a.createTenant)
			r.Get("/", a.listTenants)
			r.Get("/{id}", a.getTenant)
			r.Put("/{id}", a.updateTenant)
			r.Delete("/{id}", a.deleteTenant)
		})

		r.Route("/gateways", func(r chi.Router) {
			r.Post("/", a.createGateway)
			r.Get("/", a.listGateways)
			// Static segment registered ahead of /{id}.
			r.Get("/logs", a.listAllLogs)
			r.Get("/{id}", a.getGateway)
			r.Patch("/{id}", a.updateGateway)
			r.Delete("/{id}", a.deleteGateway)
			r.Get("/{id}/logs", a.listGatewayLogs)
			r.Post("/{id}/devices", a.attachDevice)
			r.Delete("/{id}/devices/{deviceId}", a.detachDevice)
		})

		r.Route("/devices", func(r chi.Router) {
			r.Post("/", a.createDevice)
			r.Get("/", a.listDevices)
			r.Get("/orphans", a.listOrphanDevices)
			r.Get("/{id}", a.getDevice)
			r.Patch("/{id}", a.updateDevice)
			r.Delete("/{id}", a.deleteDevice)
		})

		r.Route("/device-types", func(r chi.Router) {
			r.Post("/", a.createDeviceType)
			r.Get("/", a.listDeviceTypes)
			r.Get("/{id}", a.getDeviceType)
			r.Patch("/{id}", a.updateDeviceType)
			r.Delete("/{id}", a.deleteDeviceType)
		})
	})

	return r
}

func (a *api) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
