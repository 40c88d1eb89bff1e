package session_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/advbs/portal/pkg/session"
	tokenstoremock "github.com/advbs/portal/pkg/tokenstore/mock"
)

const adminUser = `{"id":1,"type":"admin","name":"Ana","email":"ana@advbs.com"}`

func TestManager_Activate(t *testing.T) {
	tests := []struct {
		name        string
		persisted   string
		verify      reply
		wantStatus  session.Status
		wantUser    *session.User
		wantToken   string
		wantCalls   int
		wantOutcome string
	}{
		{
			name:        "Valid saved token restores the session",
			persisted:   "T",
			verify:      reply{status: http.StatusOK, body: `{"user":` + adminUser + `}`},
			wantStatus:  session.StatusAuthenticated,
			wantUser:    &session.User{ID: 1, Type: session.RoleAdmin, Name: "Ana", Email: "ana@advbs.com"},
			wantToken:   "T",
			wantCalls:   1,
			wantOutcome: "success",
		},
		{
			name:        "Rejected saved token is cleared",
			persisted:   "T",
			verify:      reply{status: http.StatusUnauthorized, body: `{"error":"Token expired"}`},
			wantStatus:  session.StatusUnauthenticated,
			wantToken:   "",
			wantCalls:   1,
			wantOutcome: "rejected",
		},
		{
			name:        "Verify without user is malformed",
			persisted:   "T",
			verify:      reply{status: http.StatusOK, body: `{}`},
			wantStatus:  session.StatusUnauthenticated,
			wantToken:   "",
			wantCalls:   1,
			wantOutcome: "malformed",
		},
		{
			name:        "Unknown role is malformed",
			persisted:   "T",
			verify:      reply{status: http.StatusOK, body: `{"user":{"id":1,"type":"root"}}`},
			wantStatus:  session.StatusUnauthenticated,
			wantToken:   "",
			wantCalls:   1,
			wantOutcome: "malformed",
		},
		{
			name:        "No saved token skips the backend",
			wantStatus:  session.StatusUnauthenticated,
			wantCalls:   0,
			wantOutcome: "no_token",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := startBackend(t, map[string]reply{session.VerifyPath: tt.verify})

			opts := []tokenstoremock.PersisterOption{}
			if tt.persisted != "" {
				opts = append(opts, tokenstoremock.WithToken(tt.persisted))
			}
			persister := tokenstoremock.NewPersister(opts...)
			m, store := newManager(t, b.URL, persister)

			before := session.Verifications(tt.wantOutcome)
			snap := m.Activate(t.Context())

			assert.Equal(t, tt.wantStatus, snap.Status)
			assert.False(t, snap.Loading)
			assert.Empty(t, snap.Error, "verification never surfaces an error")
			if diff := cmp.Diff(tt.wantUser, snap.User); diff != "" {
				t.Errorf("user mismatch (-want +got):\n%s", diff)
			}

			token, _ := store.Get(t.Context())
			assert.Equal(t, tt.wantToken, token)
			assert.Equal(t, tt.wantToken, persister.Token())

			calls := b.Calls()
			require.Len(t, calls, tt.wantCalls)
			if tt.wantCalls > 0 {
				assert.Equal(t, http.MethodGet, calls[0].Method)
				assert.Equal(t, "Bearer "+tt.persisted, calls[0].Authorization)
			}

			assert.Equal(t, before+1, session.Verifications(tt.wantOutcome))
		})
	}
}

func TestManager_ActivateUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	persister := tokenstoremock.NewPersister(tokenstoremock.WithToken("T"))
	m, _ := newManager(t, url, persister)

	snap := m.Activate(t.Context())

	assert.Equal(t, session.StatusUnauthenticated, snap.Status)
	assert.Nil(t, snap.User)
	assert.Empty(t, persister.Token())
}

func TestManager_Start(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-release
		_, _ = w.Write([]byte(`{"user":` + adminUser + `}`))
	}))
	t.Cleanup(srv.Close)

	m, _ := newManager(t, srv.URL, tokenstoremock.NewPersister(tokenstoremock.WithToken("T")))

	assert.Equal(t, session.StatusUnknown, m.Snapshot().Status)

	done := m.Start(t.Context())

	snap := m.Snapshot()
	assert.Equal(t, session.StatusVerifying, snap.Status)
	assert.True(t, snap.Loading)

	close(release)
	<-done

	snap = m.Snapshot()
	assert.Equal(t, session.StatusAuthenticated, snap.Status)
	assert.False(t, snap.Loading)
}

func TestManager_Login(t *testing.T) {
	tests := []struct {
		name       string
		login      reply
		wantOK     bool
		wantStatus session.Status
		wantError  string
		wantRole   session.Role
	}{
		{
			name:       "Success stores the token",
			login:      reply{status: http.StatusOK, body: `{"access_token":"T","user":` + adminUser + `}`},
			wantOK:     true,
			wantStatus: session.StatusAuthenticated,
			wantRole:   session.RoleAdmin,
		},
		{
			name:       "Legacy client role",
			login:      reply{status: http.StatusOK, body: `{"access_token":"T","user":{"id":2,"type":"cliente","name":"Caio"}}`},
			wantOK:     true,
			wantStatus: session.StatusAuthenticated,
			wantRole:   session.RoleClient,
		},
		{
			name:       "Invalid credentials",
			login:      reply{status: http.StatusUnauthorized, body: `{"error":"Invalid credentials"}`},
			wantStatus: session.StatusUnauthenticated,
			wantError:  "Invalid credentials",
		},
		{
			name:       "Error without message",
			login:      reply{status: http.StatusInternalServerError, body: `{}`},
			wantStatus: session.StatusUnauthenticated,
			wantError:  session.MsgLoginFailed,
		},
		{
			name:       "Missing token",
			login:      reply{status: http.StatusOK, body: `{"user":` + adminUser + `}`},
			wantStatus: session.StatusUnauthenticated,
			wantError:  session.MsgUnexpectedRes,
		},
		{
			name:       "Not JSON",
			login:      reply{status: http.StatusOK, body: `<html>`},
			wantStatus: session.StatusUnauthenticated,
			wantError:  session.MsgUnexpectedRes,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := startBackend(t, map[string]reply{session.LoginPath: tt.login})
			persister := tokenstoremock.NewPersister(tokenstoremock.WithToken("OLD"))
			m, store := newManager(t, b.URL, persister)

			ok := m.Login(t.Context(), "ana@advbs.com", "secret")

			assert.Equal(t, tt.wantOK, ok)

			snap := m.Snapshot()
			assert.Equal(t, tt.wantStatus, snap.Status)
			assert.Equal(t, tt.wantError, snap.Error)
			assert.False(t, snap.Loading)
			assert.Equal(t, tt.wantRole, snap.Role())

			token, _ := store.Get(t.Context())
			if tt.wantOK {
				assert.Equal(t, "T", token)
				assert.Equal(t, "T", persister.Token())
			} else {
				assert.Nil(t, snap.User)
				assert.Equal(t, "OLD", token, "failed login leaves the store untouched")
				assert.Zero(t, persister.Saves)
				assert.Zero(t, persister.Deletes)
			}

			calls := b.Calls()
			require.Len(t, calls, 1)
			assert.Equal(t, http.MethodPost, calls[0].Method)
			assert.Empty(t, calls[0].Authorization, "login is sent without a token")
		})
	}
}

func TestManager_LoginUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	m, _ := newManager(t, url, tokenstoremock.NewPersister())

	ok := m.Login(t.Context(), "ana@advbs.com", "secret")

	assert.False(t, ok)
	assert.True(t, strings.HasPrefix(m.Snapshot().Error, session.MsgUnreachable))
}

func TestManager_LoginClearsPreviousError(t *testing.T) {
	b := startBackend(t, map[string]reply{
		session.LoginPath: {status: http.StatusUnauthorized, body: `{"error":"Invalid credentials"}`},
	})
	m, _ := newManager(t, b.URL, tokenstoremock.NewPersister())

	require.False(t, m.Login(t.Context(), "ana@advbs.com", "wrong"))
	require.Equal(t, "Invalid credentials", m.Snapshot().Error)

	b.mu.Lock()
	b.replies[session.LoginPath] = reply{status: http.StatusOK, body: `{"access_token":"T","user":` + adminUser + `}`}
	b.mu.Unlock()

	require.True(t, m.Login(t.Context(), "ana@advbs.com", "right"))
	assert.Empty(t, m.Snapshot().Error)
}

func TestManager_LoginPersistFailure(t *testing.T) {
	b := startBackend(t, map[string]reply{
		session.LoginPath: {status: http.StatusOK, body: `{"access_token":"T","user":` + adminUser + `}`},
	})
	persister := tokenstoremock.NewPersister(tokenstoremock.WithSaveError(errors.New("read-only")))
	m, store := newManager(t, b.URL, persister)

	assert.True(t, m.Login(t.Context(), "ana@advbs.com", "secret"))

	token, ok := store.Get(t.Context())
	assert.True(t, ok)
	assert.Equal(t, "T", token)
}

func TestManager_Logout(t *testing.T) {
	b := startBackend(t, map[string]reply{
		session.LoginPath:  {status: http.StatusOK, body: `{"access_token":"T","user":` + adminUser + `}`},
		session.LogoutPath: {status: http.StatusOK, body: `{}`},
	})
	persister := tokenstoremock.NewPersister()
	m, store := newManager(t, b.URL, persister)

	require.True(t, m.Login(t.Context(), "ana@advbs.com", "secret"))

	for range 2 {
		m.Logout(t.Context())

		snap := m.Snapshot()
		assert.Equal(t, session.StatusUnauthenticated, snap.Status)
		assert.Nil(t, snap.User)
		assert.Empty(t, snap.Error)

		_, ok := store.Get(t.Context())
		assert.False(t, ok)
		assert.Empty(t, persister.Token())
	}

	calls := b.Calls()
	require.Len(t, calls, 2, "only the first logout reaches the backend")
	assert.Equal(t, session.LogoutPath, calls[1].Path)
	assert.Equal(t, "Bearer T", calls[1].Authorization)
}

func TestManager_LogoutBackendFailure(t *testing.T) {
	b := startBackend(t, map[string]reply{
		session.LogoutPath: {status: http.StatusInternalServerError, body: `{}`},
	})
	m, store := newManager(t, b.URL, tokenstoremock.NewPersister(tokenstoremock.WithToken("T")))

	m.Logout(t.Context())

	assert.Equal(t, session.StatusUnauthenticated, m.Snapshot().Status)
	_, ok := store.Get(t.Context())
	assert.False(t, ok)
}

func TestManager_Reverify(t *testing.T) {
	b := startBackend(t, map[string]reply{
		session.VerifyPath: {status: http.StatusOK, body: `{"user":` + adminUser + `}`},
	})
	persister := tokenstoremock.NewPersister(tokenstoremock.WithToken("T"))
	m, _ := newManager(t, b.URL, persister)

	require.Equal(t, session.StatusAuthenticated, m.Activate(t.Context()).Status)

	m.Reverify(t.Context())
	assert.Equal(t, session.StatusAuthenticated, m.Snapshot().Status)

	b.mu.Lock()
	b.replies[session.VerifyPath] = reply{status: http.StatusUnauthorized, body: `{"error":"Token expired"}`}
	b.mu.Unlock()

	m.Reverify(t.Context())

	snap := m.Snapshot()
	assert.Equal(t, session.StatusUnauthenticated, snap.Status)
	assert.Nil(t, snap.User)
	assert.Empty(t, snap.Error)
	assert.Empty(t, persister.Token())

	calls := len(b.Calls())
	m.Reverify(t.Context())
	assert.Len(t, b.Calls(), calls, "unauthenticated sessions are not re-verified")
}

func TestManager_LoginDuringStartKeepsNewToken(t *testing.T) {
	arrived, release := make(chan struct{}), make(chan struct{})
	mux := http.NewServeMux()
	mux.HandleFunc("GET "+session.VerifyPath, func(w http.ResponseWriter, _ *http.Request) {
		close(arrived)
		<-release
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"Token expired"}`))
	})
	mux.HandleFunc("POST "+session.LoginPath, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"access_token":"NEW","user":` + adminUser + `}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	persister := tokenstoremock.NewPersister(tokenstoremock.WithToken("OLD"))
	m, store := newManager(t, srv.URL, persister)

	done := m.Start(t.Context())
	<-arrived
	require.True(t, m.Login(t.Context(), "ana@advbs.com", "secret"))

	close(release)
	<-done

	snap := m.Snapshot()
	assert.Equal(t, session.StatusAuthenticated, snap.Status)
	assert.False(t, snap.Loading)

	token, _ := store.Get(t.Context())
	assert.Equal(t, "NEW", token)
	assert.Equal(t, "NEW", persister.Token())
	assert.Zero(t, persister.Deletes)
}

func TestManager_ReverifyAdoptsTokenSavedElsewhere(t *testing.T) {
	b := startBackend(t, map[string]reply{
		session.VerifyPath: {status: http.StatusOK, body: `{"user":` + adminUser + `}`},
	})
	persister := tokenstoremock.NewPersister()
	m, _ := newManager(t, b.URL, persister)

	require.Equal(t, session.StatusUnauthenticated, m.Activate(t.Context()).Status)

	m.Reverify(t.Context())
	assert.Empty(t, b.Calls(), "nothing to verify yet")

	// The login command of another process saves a token.
	require.NoError(t, persister.Save(t.Context(), "T"))

	m.Reverify(t.Context())

	snap := m.Snapshot()
	assert.Equal(t, session.StatusAuthenticated, snap.Status)
	assert.Equal(t, session.RoleAdmin, snap.Role())

	calls := b.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "Bearer T", calls[0].Authorization)
}

func TestManager_SnapshotIsACopy(t *testing.T) {
	b := startBackend(t, map[string]reply{
		session.VerifyPath: {status: http.StatusOK, body: `{"user":` + adminUser + `}`},
	})
	m, _ := newManager(t, b.URL, tokenstoremock.NewPersister(tokenstoremock.WithToken("T")))
	m.Activate(t.Context())

	snap := m.Snapshot()
	snap.User.Name = "changed"

	assert.Equal(t, "Ana", m.Snapshot().User.Name)
}
