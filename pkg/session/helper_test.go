package session_test

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/advbs/portal/pkg/apiclient"
	"github.com/advbs/portal/pkg/session"
	"github.com/advbs/portal/pkg/tokenstore"
	tokenstoremock "github.com/advbs/portal/pkg/tokenstore/mock"
)

type reply struct {
	status int
	body   string
}

// backend is a fake REST backend that records the calls it receives.
type backend struct {
	*httptest.Server

	mu      sync.Mutex
	replies map[string]reply
	calls   []call
}

type call struct {
	Method        string
	Path          string
	Authorization string
}

func startBackend(t *testing.T, replies map[string]reply) *backend {
	t.Helper()

	b := &backend{replies: replies}
	b.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.calls = append(b.calls, call{
			Method:        r.Method,
			Path:          r.URL.Path,
			Authorization: r.Header.Get("Authorization"),
		})
		rep, ok := b.replies[r.URL.Path]
		b.mu.Unlock()

		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(rep.status)
		_, _ = w.Write([]byte(rep.body))
	}))
	t.Cleanup(b.Close)

	return b
}

func (b *backend) Calls() []call {
	b.mu.Lock()
	defer b.mu.Unlock()

	return append([]call(nil), b.calls...)
}

func newManager(t *testing.T, baseURL string, persister *tokenstoremock.Persister) (*session.Manager, *tokenstore.Store) {
	t.Helper()

	store := tokenstore.New(persister)
	api, err := apiclient.New(baseURL, store)
	require.NoError(t, err)

	return session.NewManager(store, api), store
}
