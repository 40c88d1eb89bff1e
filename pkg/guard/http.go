package guard

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/advbs/portal/pkg/session"
)

// Source yields the current session.
type Source interface {
	Snapshot() session.Snapshot
}

type contextKey string

const snapshotKey contextKey = "session"

// FromContext returns the session snapshot a guard let through.
func FromContext(ctx context.Context) (session.Snapshot, bool) {
	snap, ok := ctx.Value(snapshotKey).(session.Snapshot)
	return snap, ok
}

// Require wraps a subtree that needs an authenticated user of the given role.
func Require(src Source, role session.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			snap := src.Snapshot()
			serve(w, r, Decide(snap, role), snap, next)
		})
	}
}

// Root serves the landing handler unless the user is already signed in.
func Root(src Source, landing http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		snap := src.Snapshot()
		serve(w, r, DecideRoot(snap), snap, landing)
	})
}

func serve(w http.ResponseWriter, r *http.Request, d Decision, snap session.Snapshot, next http.Handler) {
	switch d.Action {
	case ActionLoading:
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Refresh", "1")
		w.WriteHeader(http.StatusAccepted)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": session.StatusVerifying.String()})
	case ActionRedirect:
		Redirect(w, r, d.Location)
	default:
		ctx := context.WithValue(r.Context(), snapshotKey, snap)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

// Redirect answers 302 to GET requests and 303 otherwise, so that a form
// post is followed by a GET.
func Redirect(w http.ResponseWriter, r *http.Request, location string) {
	code := http.StatusSeeOther
	if r.Method == http.MethodGet || r.Method == http.MethodHead {
		code = http.StatusFound
	}
	http.Redirect(w, r, location, code)
}
