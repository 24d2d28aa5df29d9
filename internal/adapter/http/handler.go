package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"

	"github.com/neomorfeo/fuelops/internal/app"
	"github.com/neomorfeo/fuelops/internal/domain"
)

const timeLayout = "2006-01-02T15:04:05Z"

// Services are the application services exposed over HTTP.
type Services struct {
	Tenants   *app.TenantService
	Orders    *app.OrderService
	Clients   *app.ClientService
	Locations *app.LocationService
	Trucks    *app.TruckService
	Activity  *app.ActivityService
	Dashboard *app.DashboardService
}

type handler struct {
	Services
}

// NewAPI mounts the tenant-scoped API on router. Every operation requires a
// bearer token accepted by auth.
func NewAPI(router chi.Router, version string, svc Services, auth *Authenticator) huma.API {
	config := huma.DefaultConfig("fuelops", version)
	config.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {Type: "http", Scheme: "bearer", BearerFormat: "JWT"},
	}
	config.Security = []map[string][]string{{"bearer": {}}}

	api := humachi.New(router, config)
	api.UseMiddleware(auth.Middleware(api))
	Register(api, svc)
	return api
}

// Register adds all tenant-scoped API routes to the Huma API.
func Register(api huma.API, svc Services) {
	h := &handler{Services: svc}
	h.registerClients(api)
	h.registerLocations(api)
	h.registerTrucks(api)
	h.registerOrders(api)
	h.registerActivity(api)
	h.registerDashboard(api)
}

// Pinger is implemented by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Healthz reports whether the database is reachable.
func Healthz(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := db.PingContext(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}
}

// scope resolves the tenant named in the path and checks that the
// authenticated actor belongs to it.
func (h *handler) scope(ctx context.Context, slug string) (domain.TenantID, domain.Actor, error) {
	actor, ok := ActorFrom(ctx)
	if !ok {
		return "", domain.Actor{}, huma.Error401Unauthorized("missing bearer token")
	}

	tenant, err := h.Tenants.Resolve(ctx, slug)
	if err != nil {
		return "", domain.Actor{}, toHumaError(err)
	}
	if actor.TenantID != tenant.ID {
		return "", domain.Actor{}, huma.Error403Forbidden("token is not valid for this tenant")
	}
	return tenant.Scope(), actor, nil
}

// toHumaError translates domain errors to Huma HTTP errors.
func toHumaError(err error) error {
	if errors.Is(err, domain.ErrTenantNotFound) {
		return huma.Error404NotFound("tenant not found")
	}

	var notFound *domain.NotFoundError
	if errors.As(err, &notFound) {
		return huma.Error404NotFound(notFound.Error())
	}

	var validation *domain.ValidationError
	if errors.As(err, &validation) {
		return huma.Error422UnprocessableEntity(validation.Error(), &huma.ErrorDetail{
			Message:  validation.Reason,
			Location: "body." + validation.Field,
		})
	}

	var denied *domain.AuthorizationError
	if errors.As(err, &denied) {
		return huma.Error403Forbidden(denied.Error())
	}

	var conflict *domain.ConflictError
	if errors.As(err, &conflict) {
		return huma.Error409Conflict(conflict.Error())
	}

	var domainErr *domain.DomainError
	if errors.As(err, &domainErr) {
		return huma.Error422UnprocessableEntity(domainErr.Error())
	}

	var trErr *domain.TransitionError
	if errors.As(err, &trErr) {
		return huma.Error422UnprocessableEntity(trErr.Error())
	}

	slog.Error("unhandled error", "error", err)
	return huma.Error500InternalServerError("internal server error")
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func formatOptionalTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}

func optionalTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
