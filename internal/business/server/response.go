package server

import (
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	slogctx "github.com/veqryn/slog-context"

	"github.com/advbs/portal/internal/serviceerr"
	"github.com/advbs/portal/pkg/apiclient"
)

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError answers with the status err maps to. Messages from the backend
// are passed through, everything else is reduced to the status text.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := serviceerr.HTTPStatus(err)

	msg := http.StatusText(status)
	if status == http.StatusBadRequest {
		msg = err.Error()
	}
	if apiErr, ok := apiclient.AsError(err); ok && apiErr.Kind == apiclient.KindHTTP && apiErr.Message != "" {
		msg = apiErr.Message
	}

	if status >= http.StatusInternalServerError {
		slogctx.Error(r.Context(), "Request failed", "status", status, "error", err)
	} else {
		slogctx.Debug(r.Context(), "Request rejected", "status", status, "error", err)
	}

	writeJSON(w, status, errorBody{Error: msg})
}

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", serviceerr.ErrInvalidInput, fmt.Sprintf(format, args...))
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return badRequest("decoding request body: %v", err)
	}
	return nil
}

func idParam(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, badRequest("%s %q is not a valid id", name, raw)
	}
	return id, nil
}

func isForm(r *http.Request) bool {
	ct, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return false
	}
	return ct == "application/x-www-form-urlencoded" || ct == "multipart/form-data"
}

func writeFile(w http.ResponseWriter, f *apiclient.File) {
	ct := f.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	w.Header().Set("Content-Type", ct)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": f.Name}))
	w.Header().Set("Content-Length", strconv.Itoa(len(f.Data)))
	_, _ = w.Write(f.Data)
}
