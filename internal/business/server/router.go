package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/advbs/portal/internal/backend"
	"github.com/advbs/portal/internal/config"
	"github.com/advbs/portal/internal/serviceerr"
	"github.com/advbs/portal/pkg/apiclient"
	"github.com/advbs/portal/pkg/csrf"
	"github.com/advbs/portal/pkg/guard"
	"github.com/advbs/portal/pkg/session"
)

// Sessions is the session controller the views sign in and out through.
type Sessions interface {
	Snapshot() session.Snapshot
	Login(ctx context.Context, email, password string) bool
	Logout(ctx context.Context)
}

// Backend is the set of backend operations the views expose.
type Backend interface {
	Dashboard(ctx context.Context) (backend.Dashboard, error)
	Clients(ctx context.Context) ([]backend.Client, error)
	Client(ctx context.Context, id int64) (backend.Client, error)
	CreateClient(ctx context.Context, c backend.Client) (backend.Client, error)
	UpdateClient(ctx context.Context, id int64, c backend.Client) (backend.Client, error)
	DeleteClient(ctx context.Context, id int64) error
	SearchClients(ctx context.Context, term string, limit int) ([]backend.Client, error)
	Cases(ctx context.Context, filter backend.CaseFilter) ([]backend.Case, error)
	ClientCases(ctx context.Context, clientID int64) ([]backend.Case, error)
	CreateCase(ctx context.Context, clientID int64, nc backend.NewCase) (backend.Case, error)
	UpdateCaseStatus(ctx context.Context, caseID int64, status backend.CaseStatus) (backend.Case, error)
	ProcessFiles(ctx context.Context) ([]backend.ProcessFile, error)
	UploadProcessFile(ctx context.Context, req backend.UploadRequest) (backend.ProcessFile, error)
	DeleteProcessFile(ctx context.Context, id int64) error
	DownloadProcessFile(ctx context.Context, id int64) (*apiclient.File, error)
	Stats(ctx context.Context) (backend.Stats, error)
	Services(ctx context.Context) ([]backend.LegalService, error)

	Profile(ctx context.Context) (backend.Profile, error)
	UpdateProfile(ctx context.Context, c backend.Client) (backend.Profile, error)
	MyCases(ctx context.Context) ([]backend.Case, error)
	MyCase(ctx context.Context, id int64) (backend.Case, error)
	MyStats(ctx context.Context) (backend.ClientStats, error)
	DownloadDocument(ctx context.Context, id int64) (*apiclient.File, error)
}

// newRouter lays out the portal: public landing and login, one guarded
// subtree per role and a catch-all back to the landing page. Form posts
// must carry a token from forms.
func newRouter(cfg *config.Config, sessions Sessions, svc Backend, forms *csrf.Protector) http.Handler {
	h := &handlers{
		sessions: sessions,
		svc:      svc,
		forms:    forms,
		landing:  cfg.Portal.Landing,
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(newTraceMiddleware(cfg))
	r.Use(requireFormToken(forms))

	// Unknown routes, including those under the role subtrees, go home.
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		guard.Redirect(w, r, guard.LandingPath)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: http.StatusText(http.StatusMethodNotAllowed)})
	})

	r.Get("/ping", pingHandlerFunc(sessions))
	r.Handle("/metrics", promhttp.Handler())

	r.Method(http.MethodGet, guard.LandingPath, guard.Root(sessions, http.HandlerFunc(h.landingPage)))
	r.Get("/csrf", h.csrfToken)
	r.Get("/login", h.loginPage)
	r.Post("/login", h.login)
	r.Post("/logout", h.logout)

	r.Route(session.RoleAdmin.RootPath(), func(r chi.Router) {
		r.Use(guard.Require(sessions, session.RoleAdmin))

		r.Get("/", h.adminDashboard)
		r.Get("/dashboard", h.adminDashboard)

		r.Get("/clients", h.listClients)
		r.Post("/clients", h.createClient)
		r.Get("/clients/{clientID}", h.getClient)
		r.Put("/clients/{clientID}", h.updateClient)
		r.Delete("/clients/{clientID}", h.deleteClient)
		r.Get("/clients/{clientID}/cases", h.listClientCases)
		r.Post("/clients/{clientID}/cases", h.createCase)

		r.Get("/cases", h.listCases)
		r.Put("/cases/{caseID}/status", h.updateCaseStatus)

		r.Get("/files", h.listFiles)
		r.Post("/files", h.uploadFile)
		r.Delete("/files/{fileID}", h.deleteFile)
		r.Get("/files/{fileID}/download", h.downloadFile)

		r.Get("/stats", h.adminStats)
		r.Get("/services", h.listServices)
	})

	r.Route(session.RoleClient.RootPath(), func(r chi.Router) {
		r.Use(guard.Require(sessions, session.RoleClient))

		r.Get("/", h.clientHome)
		r.Get("/profile", h.getProfile)
		r.Put("/profile", h.updateProfile)
		r.Get("/cases", h.myCases)
		r.Get("/cases/{caseID}", h.myCase)
		r.Get("/stats", h.myStats)
		r.Get("/files/{fileID}/download", h.downloadDocument)
	})

	return r
}

func requireFormToken(forms *csrf.Protector) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := forms.Check(r); err != nil {
				writeError(w, r, fmt.Errorf("%w: %w", serviceerr.ErrForbidden, err))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
