//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/go-viper/mapstructure/v2"
	"github.com/goccy/go-yaml"
	"github.com/openkcm/common-sdk/pkg/commoncfg"
	"github.com/stretchr/testify/require"

	"github.com/advbs/portal/internal/config"
	"github.com/advbs/portal/internal/dbtest/valkeytest"
)

const (
	adminEmail    = "admin@advbs.test"
	adminPassword = "secret"
	adminToken    = "tok-admin"
)

type closeFunc func(ctx context.Context)

type infraStat struct {
	ValKeyPort     nat.Port
	ConfigFilePath string
	Procdir        string
	Socket         string
	Backend        *httptest.Server
	Cfg            *config.Config

	closeFuncs []closeFunc
}

// initInfra prepares a working directory for one portal process and a fake
// law firm backend. The process reads config.yaml from its working
// directory.
func initInfra(t *testing.T, name string) (istat infraStat) {
	t.Helper()

	istat.Procdir = t.TempDir()
	istat.ConfigFilePath = filepath.Join(istat.Procdir, "config.yaml")
	istat.Socket = filepath.Join(istat.Procdir, name+".sock")
	istat.Backend = httptest.NewServer(fakeBackend())
	istat.closeFuncs = append(istat.closeFuncs, func(context.Context) { istat.Backend.Close() })

	istat.Cfg = config.Default()
	istat.Cfg.Application.Name = name
	istat.Cfg.HTTP.Address = "unix://" + istat.Socket
	istat.Cfg.Backend.BaseURL = istat.Backend.URL
	istat.Cfg.TokenStore.File.Dir = filepath.Join(istat.Procdir, "state")
	istat.Cfg.Portal.ReverifyInterval = time.Second
	istat.Cfg.Portal.Landing.FirmName = "Advocacia Integração"

	return istat
}

// PrepareValKey keeps the session token in a throwaway Valkey instead of
// the token file.
func (istat *infraStat) PrepareValKey(t *testing.T) {
	t.Helper()

	vkClient, vkPort, vkTerminate := valkeytest.Start(t.Context())
	vkClient.Close()

	istat.ValKeyPort = vkPort
	istat.closeFuncs = append(istat.closeFuncs, vkTerminate)

	istat.Cfg.TokenStore.Type = config.TokenStoreValKey
	istat.Cfg.TokenStore.ValKey.Host = commoncfg.SourceRef{Source: "embedded", Value: net.JoinHostPort("localhost", vkPort.Port())}
	istat.Cfg.TokenStore.ValKey.User = commoncfg.SourceRef{Source: "embedded", Value: ""}
	istat.Cfg.TokenStore.ValKey.Password = commoncfg.SourceRef{Source: "embedded", Value: ""}
	istat.Cfg.TokenStore.ValKey.Prefix = "integration"
}

// PrepareConfig writes the config file the process will read.
func (istat *infraStat) PrepareConfig(t *testing.T) {
	t.Helper()

	cfgMap := make(map[string]any)
	err := mapstructure.Decode(*istat.Cfg, &cfgMap)
	require.NoError(t, err, "failed to decode mapstructure")

	data, err := yaml.Marshal(cfgMap)
	require.NoError(t, err, "failed to encode config")

	err = os.WriteFile(istat.ConfigFilePath, data, 0o600)
	require.NoError(t, err, "failed to write config file")
}

func (istat *infraStat) Close(ctx context.Context) {
	for _, close := range istat.closeFuncs {
		close(ctx)
	}
}

// Run runs one portal command to completion in the process directory and
// returns its combined output.
func (istat *infraStat) Run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := exec.CommandContext(t.Context(), binaryPath, args...)
	cmd.Dir = istat.Procdir
	cmd.Env = append(os.Environ(), "HOME="+istat.Procdir)

	out, err := cmd.CombinedOutput()
	return string(out), err
}

// Client talks HTTP to the portal over its unix socket.
func (istat *infraStat) Client() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
				return new(net.Dialer).DialContext(ctx, "unix", istat.Socket)
			},
		},
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func fakeBackend() http.Handler {
	admin := map[string]any{"id": 1, "type": "admin", "name": "Dra. Beatriz", "email": adminEmail}

	authorized := func(r *http.Request) bool {
		return r.Header.Get("Authorization") == "Bearer "+adminToken
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var creds struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		_ = json.NewDecoder(r.Body).Decode(&creds)
		if !strings.EqualFold(creds.Email, adminEmail) || creds.Password != adminPassword {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "Invalid credentials"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"access_token": adminToken, "user": admin})
	})
	mux.HandleFunc("GET /api/auth/verify", func(w http.ResponseWriter, r *http.Request) {
		if !authorized(r) {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "Invalid token"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"user": admin})
	})
	mux.HandleFunc("POST /api/auth/logout", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"message": "Logged out"})
	})
	mux.HandleFunc("GET /api/admin/clients", func(w http.ResponseWriter, r *http.Request) {
		if !authorized(r) {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "Invalid token"})
			return
		}
		writeJSON(w, http.StatusOK, []map[string]any{
			{"id": 1, "name": "Maria Souza", "email": "maria@example.com", "cpf": "111.222.333-44"},
		})
	})

	return mux
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
