package httpapi

import (
	"context"
	"net/http"
	"time"

	"fieldbook.org/internal/access"
	"fieldbook.org/internal/obs"
	"fieldbook.org/internal/records"
)

const serviceName = "fieldbook-api"

// Pinger is the readiness dependency, usually the database.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ReadyProbe checks the upstream store. A nil Pinger means "always ready",
// which keeps the API usable in tests without a database.
type ReadyProbe struct {
	Pinger Pinger
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.Pinger == nil {
		return nil
	}
	return rp.Pinger.Ping(ctx)
}

// Services bundles the domain dependencies of the HTTP layer.
type Services struct {
	Profiles  *access.ProfileService
	Directory *access.DirectoryService
	Grants    *access.GrantService
	Resolver  *access.Resolver
	Records   *records.Service
}

// API is the HTTP layer.
type API struct {
	mux        *http.ServeMux
	readyProbe ReadyProbe
	version    string

	profiles  *access.ProfileService
	directory *access.DirectoryService
	grants    *access.GrantService
	resolver  *access.Resolver
	records   *records.Service
}

func New(rp ReadyProbe, version string, svc Services) *API {
	a := &API{
		mux:        http.NewServeMux(),
		readyProbe: rp,
		version:    version,
		profiles:   svc.Profiles,
		directory:  svc.Directory,
		grants:     svc.Grants,
		resolver:   svc.Resolver,
		records:    svc.Records,
	}

	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)
	a.mux.HandleFunc("/v1/info", a.Info)
	a.mux.Handle("/metrics", obs.Handler())

	a.mux.HandleFunc("/v1/organizations", a.handleOrganizations)
	a.mux.HandleFunc("/v1/organizations/", a.handleOrganizationScoped)
	a.mux.HandleFunc("/v1/profiles", a.handleProfiles)
	a.mux.HandleFunc("/v1/profiles/", a.handleProfileScoped)
	a.mux.HandleFunc("/v1/grants", a.handleGrants)
	a.mux.HandleFunc("/v1/grants/", a.handleGrantScoped)
	a.mux.HandleFunc("/v1/scope", a.handleScope)
	a.mux.HandleFunc("/v1/scope/can-mutate", a.handleCanMutate)

	a.mux.HandleFunc("/v1/fields", a.handleFields)
	a.mux.HandleFunc("/v1/fields/", a.handleFieldScoped)
	a.mux.HandleFunc("/v1/work-records", a.handleWorkRecords)
	a.mux.HandleFunc("/v1/work-records/", a.handleWorkRecordScoped)

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	return a
}

// Handler returns the fully wrapped http.Handler for the server.
func (a *API) Handler() http.Handler {
	var h http.Handler = a.mux
	h = a.withAuth(h)
	h = MaxBodyBytes(h, 1<<20)
	h = RateLimit(h, 60, 30)
	h = Logging(h)
	h = RequestID(h)
	h = SecurityHeaders(h)
	h = CORS(h)
	return obs.Instrument(h)
}

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": serviceName,
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.Check(r.Context()); err != nil {
		obs.SetReady(false)
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	obs.SetReady(true)
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}

func (a *API) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    serviceName,
		"time":    time.Now().UTC().Format(time.RFC3339),
		"version": a.version,
	})
}
