package server

import (
	"net/http"

	slogctx "github.com/veqryn/slog-context"
)

type pingResponse struct {
	Result  string `json:"result"`
	Session string `json:"session"`
}

// pingHandlerFunc answers liveness probes of the portal listener itself.
// It reports the session status without touching the backend.
func pingHandlerFunc(sessions Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slogctx.Debug(r.Context(), "Starting ping request")
		writeJSON(w, http.StatusOK, pingResponse{
			Result:  "ping",
			Session: sessions.Snapshot().Status.String(),
		})
	}
}
