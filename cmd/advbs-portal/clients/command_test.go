package clients_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/advbs/portal/cmd/advbs-portal/clients"
	"github.com/advbs/portal/internal/backend"
	"github.com/advbs/portal/internal/cli"
	"github.com/advbs/portal/internal/cmdutils/cmdtest"
	"github.com/advbs/portal/internal/serviceerr"
	"github.com/advbs/portal/pkg/session"
)

const roster = `[
	{"id":1,"name":"Maria Souza","email":"maria@example.com","cpf":"111.222.333-44"},
	{"id":2,"name":"João Lima","email":"joao@example.com"}
]`

func TestList(t *testing.T) {
	tests := []struct {
		name    string
		search  string
		wantIn  []string
		wantOut []string
	}{
		{
			name:   "whole roster",
			wantIn: []string{"Clients (2)", "Maria Souza", "João Lima"},
		},
		{
			name:    "search",
			search:  "maria",
			wantIn:  []string{"Clients (1)", "Maria Souza"},
			wantOut: []string{"João Lima"},
		},
		{
			name:   "search term too short lists nothing",
			search: "m",
			wantIn: []string{"Clients (0)", "No entries."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := http.NewServeMux()
			mux.Handle("GET /api/admin/clients", cmdtest.Reply(http.StatusOK, roster))
			mux.HandleFunc("GET /api/admin/clients/search", func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "maria", r.URL.Query().Get("q"))
				assert.Equal(t, "10", r.URL.Query().Get("limit"))
				cmdtest.Reply(http.StatusOK, `{"data":[{"id":1,"name":"Maria Souza","email":"maria@example.com"}]}`)(w, r)
			})
			env, out := cmdtest.NewEnv(t, mux, session.RoleAdmin, cli.FormatTable)

			require.NoError(t, clients.List(t.Context(), env, tt.search))

			for _, s := range tt.wantIn {
				assert.Contains(t, out.String(), s)
			}
			for _, s := range tt.wantOut {
				assert.NotContains(t, out.String(), s)
			}
		})
	}
}

func TestCreate(t *testing.T) {
	tests := []struct {
		name    string
		client  backend.Client
		wantOut string
		wantErr assert.ErrorAssertionFunc
	}{
		{
			name:    "registered",
			client:  backend.Client{Name: "Maria Souza", Email: "maria@example.com", CPF: "111.222.333-44"},
			wantOut: "Client Maria Souza registered with id 3",
			wantErr: assert.NoError,
		},
		{
			name:   "missing name is refused locally",
			client: backend.Client{Email: "maria@example.com"},
			wantErr: func(t assert.TestingT, err error, _ ...any) bool {
				return assert.ErrorIs(t, err, serviceerr.ErrInvalidInput)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var posted backend.Client
			mux := http.NewServeMux()
			mux.HandleFunc("POST /api/admin/clients", func(w http.ResponseWriter, r *http.Request) {
				assert.NoError(t, json.NewDecoder(r.Body).Decode(&posted))
				posted.ID = 3
				cmdtest.JSON(w, http.StatusCreated, posted)
			})
			env, out := cmdtest.NewEnv(t, mux, session.RoleAdmin, cli.FormatTable)

			err := clients.Create(t.Context(), env, tt.client)
			if !tt.wantErr(t, err) {
				return
			}

			assert.Contains(t, out.String(), tt.wantOut)
			if err == nil {
				assert.Equal(t, tt.client.CPF, posted.CPF)
			}
		})
	}
}

func TestDelete(t *testing.T) {
	t.Run("deleted", func(t *testing.T) {
		var called bool
		mux := http.NewServeMux()
		mux.HandleFunc("DELETE /api/admin/clients/2", func(w http.ResponseWriter, _ *http.Request) {
			called = true
			w.WriteHeader(http.StatusNoContent)
		})
		env, out := cmdtest.NewEnv(t, mux, session.RoleAdmin, cli.FormatTable)

		require.NoError(t, clients.Delete(t.Context(), env, 2))
		assert.True(t, called)
		assert.Contains(t, out.String(), "Client 2 deleted")
	})

	t.Run("unknown client", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.Handle("DELETE /api/admin/clients/9", cmdtest.Reply(http.StatusNotFound, `{"message":"Client not found"}`))
		env, out := cmdtest.NewEnv(t, mux, session.RoleAdmin, cli.FormatTable)

		err := clients.Delete(t.Context(), env, 9)
		assert.ErrorIs(t, err, serviceerr.ErrNotFound)
		assert.NotContains(t, out.String(), "deleted")
	})
}
