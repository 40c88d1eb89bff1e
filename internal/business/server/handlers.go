package server

import (
	"net/http"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/advbs/portal/internal/backend"
	"github.com/advbs/portal/internal/config"
	"github.com/advbs/portal/pkg/csrf"
	"github.com/advbs/portal/pkg/guard"
	"github.com/advbs/portal/pkg/session"
)

const maxUploadMemory = 32 << 20

type handlers struct {
	sessions Sessions
	svc      Backend
	forms    *csrf.Protector
	landing  config.Landing
}

type landingResponse struct {
	FirmName      string   `json:"firm_name"`
	Practice      string   `json:"practice"`
	Contact       string   `json:"contact,omitempty"`
	Highlights    []string `json:"highlights,omitempty"`
	Registrations []string `json:"registrations,omitempty"`
	Login         string   `json:"login"`
}

func (h *handlers) landingPage(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, landingResponse{
		FirmName:      h.landing.FirmName,
		Practice:      h.landing.Practice,
		Contact:       h.landing.Contact,
		Highlights:    h.landing.Highlights,
		Registrations: h.landing.Registrations,
		Login:         "/login",
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// loginPage sends signed-in users to their area and shows the session
// state to everyone else, including the error of a failed attempt.
func (h *handlers) loginPage(w http.ResponseWriter, r *http.Request) {
	snap := h.sessions.Snapshot()
	if snap.IsAuthenticated() {
		guard.Redirect(w, r, snap.Role().RootPath())
		return
	}
	writeJSON(w, http.StatusOK, loginPageResponse{
		Snapshot:  snap,
		CSRFToken: h.forms.Issue(w, r),
	})
}

type loginPageResponse struct {
	session.Snapshot
	CSRFToken string `json:"csrf_token"`
}

type csrfResponse struct {
	CSRFToken string `json:"csrf_token"`
}

// csrfToken hands out the token that form posts, uploads and logout must
// carry.
func (h *handlers) csrfToken(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, csrfResponse{CSRFToken: h.forms.Issue(w, r)})
}

func (h *handlers) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if isForm(r) {
		if err := r.ParseForm(); err != nil {
			writeError(w, r, badRequest("parsing form: %v", err))
			return
		}
		req.Email = r.PostForm.Get("email")
		req.Password = r.PostForm.Get("password")
	} else if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	if !h.sessions.Login(r.Context(), req.Email, req.Password) {
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: h.sessions.Snapshot().Error})
		return
	}

	guard.Redirect(w, r, h.sessions.Snapshot().Role().RootPath())
}

func (h *handlers) logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.Logout(r.Context())
	guard.Redirect(w, r, guard.LandingPath)
}

// Admin area.

func (h *handlers) adminDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.svc.Dashboard(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// listClients lists the roster, or searches it when q is given.
func (h *handlers) listClients(w http.ResponseWriter, r *http.Request) {
	var (
		clients []backend.Client
		err     error
	)
	if q := r.URL.Query().Get("q"); q != "" {
		limit := 0
		if raw := r.URL.Query().Get("limit"); raw != "" {
			limit, err = strconv.Atoi(raw)
			if err != nil {
				writeError(w, r, badRequest("limit %q is not a number", raw))
				return
			}
		}
		clients, err = h.svc.SearchClients(r.Context(), q, limit)
	} else {
		clients, err = h.svc.Clients(r.Context())
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, clients)
}

func (h *handlers) getClient(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "clientID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	c, err := h.svc.Client(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *handlers) createClient(w http.ResponseWriter, r *http.Request) {
	var c backend.Client
	if err := decodeJSON(r, &c); err != nil {
		writeError(w, r, err)
		return
	}
	created, err := h.svc.CreateClient(r.Context(), c)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *handlers) updateClient(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "clientID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var c backend.Client
	if err := decodeJSON(r, &c); err != nil {
		writeError(w, r, err)
		return
	}
	updated, err := h.svc.UpdateClient(r.Context(), id, c)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *handlers) deleteClient(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "clientID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.svc.DeleteClient(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) listClientCases(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "clientID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	cases, err := h.svc.ClientCases(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cases)
}

func (h *handlers) createCase(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "clientID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var nc backend.NewCase
	if err := decodeJSON(r, &nc); err != nil {
		writeError(w, r, err)
		return
	}
	created, err := h.svc.CreateCase(r.Context(), id, nc)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// listCases accepts client_id, status and search query parameters.
func (h *handlers) listCases(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := backend.CaseFilter{Search: q.Get("search")}

	if raw := q.Get("client_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(w, r, badRequest("client_id %q is not a valid id", raw))
			return
		}
		filter.ClientID = id
	}
	if raw := q.Get("status"); raw != "" {
		status, err := backend.ParseCaseStatus(raw)
		if err != nil {
			writeError(w, r, badRequest("%v", err))
			return
		}
		filter.Status = status
	}

	cases, err := h.svc.Cases(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cases)
}

type statusRequest struct {
	Status string `json:"status"`
}

func (h *handlers) updateCaseStatus(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "caseID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req statusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	status, err := backend.ParseCaseStatus(req.Status)
	if err != nil {
		writeError(w, r, badRequest("%v", err))
		return
	}
	updated, err := h.svc.UpdateCaseStatus(r.Context(), id, status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *handlers) listFiles(w http.ResponseWriter, r *http.Request) {
	files, err := h.svc.ProcessFiles(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, files)
}

// uploadFile takes a multipart form with a file part named "file" and the
// client_id, case_id and description fields.
func (h *handlers) uploadFile(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		writeError(w, r, badRequest("parsing upload: %v", err))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, badRequest("file part missing: %v", err))
		return
	}
	defer file.Close()

	req := backend.UploadRequest{
		Description: r.FormValue("description"),
		FileName:    header.Filename,
		Content:     file,
	}
	if req.ClientID, err = strconv.ParseInt(r.FormValue("client_id"), 10, 64); err != nil {
		writeError(w, r, badRequest("client_id %q is not a valid id", r.FormValue("client_id")))
		return
	}
	if raw := r.FormValue("case_id"); raw != "" {
		if req.CaseID, err = strconv.ParseInt(raw, 10, 64); err != nil {
			writeError(w, r, badRequest("case_id %q is not a valid id", raw))
			return
		}
	}

	pf, err := h.svc.UploadProcessFile(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, pf)
}

func (h *handlers) deleteFile(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "fileID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.svc.DeleteProcessFile(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) downloadFile(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "fileID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	f, err := h.svc.DownloadProcessFile(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeFile(w, f)
}

func (h *handlers) adminStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Stats(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *handlers) listServices(w http.ResponseWriter, r *http.Request) {
	services, err := h.svc.Services(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, services)
}

// Client area.

type clientHomeResponse struct {
	User  *session.User       `json:"user"`
	Stats backend.ClientStats `json:"stats"`
	Cases []backend.Case      `json:"cases"`
}

func (h *handlers) clientHome(w http.ResponseWriter, r *http.Request) {
	snap, _ := guard.FromContext(r.Context())
	resp := clientHomeResponse{User: snap.User}

	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		resp.Stats, err = h.svc.MyStats(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		resp.Cases, err = h.svc.MyCases(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *handlers) getProfile(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.Profile(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *handlers) updateProfile(w http.ResponseWriter, r *http.Request) {
	var c backend.Client
	if err := decodeJSON(r, &c); err != nil {
		writeError(w, r, err)
		return
	}
	p, err := h.svc.UpdateProfile(r.Context(), c)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *handlers) myCases(w http.ResponseWriter, r *http.Request) {
	cases, err := h.svc.MyCases(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cases)
}

func (h *handlers) myCase(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "caseID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	c, err := h.svc.MyCase(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *handlers) myStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.MyStats(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *handlers) downloadDocument(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "fileID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	f, err := h.svc.DownloadDocument(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeFile(w, f)
}
