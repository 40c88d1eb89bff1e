// Package cmdtest builds command environments against a fake backend.
package cmdtest

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/advbs/portal/internal/business"
	"github.com/advbs/portal/internal/cli"
	"github.com/advbs/portal/internal/cmdutils"
	"github.com/advbs/portal/internal/config"
	"github.com/advbs/portal/pkg/session"
)

// Token is the session token saved for signed-in environments.
const Token = "T"

var Users = map[session.Role]session.User{
	session.RoleAdmin:  {ID: 1, Type: session.RoleAdmin, Name: "Ana Admin", Email: "admin@advbs.com"},
	session.RoleClient: {ID: 7, Type: session.RoleClient, Name: "Carlos Cliente", Email: "carlos@example.com"},
}

// NewEnv serves mux as the backend and returns an environment signed in as
// role, plus the buffer the printer writes to. With RoleNone nobody is
// signed in and no verify route is registered.
func NewEnv(t *testing.T, mux *http.ServeMux, role session.Role, format cli.Format) (*cmdutils.Env, *bytes.Buffer) {
	t.Helper()

	if mux == nil {
		mux = http.NewServeMux()
	}
	if role != session.RoleNone {
		user := Users[role]
		mux.HandleFunc("GET /api/auth/verify", func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer "+Token {
				Reply(http.StatusUnauthorized, `{"message":"Invalid token"}`)(w, r)
				return
			}
			JSON(w, http.StatusOK, map[string]any{"user": user})
		})
	}

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	cfg := config.Default()
	cfg.Backend.BaseURL = srv.URL
	cfg.TokenStore.Type = config.TokenStoreMemory

	portal, err := business.NewPortal(t.Context(), cfg)
	require.NoError(t, err)
	t.Cleanup(portal.Close)

	out := &bytes.Buffer{}
	env := &cmdutils.Env{
		Portal:  portal,
		Printer: cli.NewPrinter(out, format),
	}

	if role != session.RoleNone {
		require.NoError(t, portal.Tokens.Set(t.Context(), Token))
		env.Session = portal.Sessions.Activate(t.Context())
		require.True(t, env.Session.IsAuthenticated())
	}

	return env, out
}

// Reply answers every request with status and a raw JSON body.
func Reply(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}
}

func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
