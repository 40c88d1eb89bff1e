// Package session owns the portal's authentication lifecycle: restoring a
// saved token on start, login, logout and periodic re-verification.
package session

import (
	"context"
	"errors"
	"net/http"
	"sync"

	slogctx "github.com/veqryn/slog-context"

	"github.com/advbs/portal/pkg/apiclient"
)

const (
	LoginPath  = "/api/auth/login"
	VerifyPath = "/api/auth/verify"
	LogoutPath = "/api/auth/logout"
)

// Login error messages shown to the user.
const (
	MsgLoginFailed   = "Login failed"
	MsgUnreachable   = "Unable to reach the server: "
	MsgUnexpectedRes = "Unexpected response from the server"
)

// TokenStore is the durable token cell. The manager is its only writer.
type TokenStore interface {
	Get(ctx context.Context) (string, bool)
	Set(ctx context.Context, token string) error
}

// Backend issues JSON calls to the REST backend.
type Backend interface {
	Do(ctx context.Context, path string, opts apiclient.Options, out any) error
}

type Manager struct {
	tokens TokenStore
	api    Backend

	mu   sync.RWMutex
	snap Snapshot
}

func NewManager(tokens TokenStore, api Backend) *Manager {
	return &Manager{
		tokens: tokens,
		api:    api,
	}
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
	User        *User  `json:"user"`
}

type verifyResponse struct {
	User *User `json:"user"`
}

// Snapshot returns a copy of the current state.
func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := m.snap
	if s.User != nil {
		u := *s.User
		s.User = &u
	}
	return s
}

// Start moves the session to verifying before returning and checks the saved
// token in the background. The channel is closed once the check is done.
func (m *Manager) Start(ctx context.Context) <-chan struct{} {
	m.beginVerification()

	done := make(chan struct{})
	go func() {
		defer close(done)
		m.verifySaved(ctx)
	}()

	return done
}

// Activate is the blocking form of Start.
func (m *Manager) Activate(ctx context.Context) Snapshot {
	m.beginVerification()
	m.verifySaved(ctx)

	return m.Snapshot()
}

// Login exchanges credentials for a token. On failure the saved token is
// left alone and the reason is exposed through Snapshot().Error.
func (m *Manager) Login(ctx context.Context, email, password string) bool {
	m.update(func(s *Snapshot) {
		s.Status = StatusVerifying
		s.Loading = true
		s.Error = ""
	})

	ctx = slogctx.With(ctx, "email", email)

	var resp loginResponse
	err := m.api.Do(ctx, LoginPath, apiclient.Options{
		Method:    http.MethodPost,
		Body:      credentials{Email: email, Password: password},
		Anonymous: true,
	}, &resp)
	if err == nil && (resp.AccessToken == "" || !resp.User.valid()) {
		err = apiclient.Malformed(http.MethodPost, LoginPath, errors.New("missing access_token or user"))
	}

	if err != nil {
		loginAttempts.WithLabelValues(outcome(err)).Inc()
		slogctx.Info(ctx, "Login failed", "error", err)

		msg := loginMessage(err)
		m.update(func(s *Snapshot) {
			s.Status = StatusUnauthenticated
			s.User = nil
			s.Loading = false
			s.Error = msg
		})

		return false
	}

	if err := m.tokens.Set(ctx, resp.AccessToken); err != nil {
		slogctx.Warn(ctx, "Could not persist the session token", "error", err)
	}

	loginAttempts.WithLabelValues(outcomeSuccess).Inc()
	slogctx.Info(ctx, "Logged in", "role", resp.User.Type.String())

	m.update(func(s *Snapshot) {
		s.Status = StatusAuthenticated
		s.User = resp.User
		s.Loading = false
		s.Error = ""
	})

	return true
}

// Logout ends the session locally and tells the backend on a best effort
// basis. Calling it twice is harmless.
func (m *Manager) Logout(ctx context.Context) {
	token, hadToken := m.tokens.Get(ctx)

	if err := m.tokens.Set(ctx, ""); err != nil {
		slogctx.Warn(ctx, "Could not remove the session token", "error", err)
	}

	m.update(func(s *Snapshot) {
		s.Status = StatusUnauthenticated
		s.User = nil
		s.Loading = false
		s.Error = ""
	})

	if !hadToken {
		return
	}

	err := m.api.Do(ctx, LogoutPath, apiclient.Options{Method: http.MethodPost, Token: token}, nil)
	if err != nil {
		slogctx.Debug(ctx, "Backend logout failed", "error", err)
		return
	}

	slogctx.Info(ctx, "Logged out")
}

// Reverify checks that an authenticated session's token is still accepted.
// A rejected token ends the session the same way a failed start does. A
// signed-out session adopts a token saved meanwhile by another process.
func (m *Manager) Reverify(ctx context.Context) {
	snap := m.Snapshot()
	if !snap.IsAuthenticated() {
		if snap.Status != StatusUnauthenticated || snap.Loading {
			return
		}
		if _, ok := m.tokens.Get(ctx); ok {
			m.verifySaved(ctx)
		}
		return
	}

	token, ok := m.tokens.Get(ctx)
	if !ok {
		m.downgrade(ctx, "")
		return
	}

	user, err := m.verify(ctx, token)

	// The session changed hands while we were waiting.
	if current, _ := m.tokens.Get(ctx); current != token {
		return
	}

	if err != nil {
		verifications.WithLabelValues(outcome(err)).Inc()
		slogctx.Info(ctx, "Session is no longer valid", "error", err)
		m.downgrade(ctx, token)

		return
	}

	verifications.WithLabelValues(outcomeSuccess).Inc()
	m.update(func(s *Snapshot) {
		if s.Status == StatusAuthenticated {
			s.User = user
		}
	})
}

func (m *Manager) beginVerification() {
	m.update(func(s *Snapshot) {
		s.Status = StatusVerifying
		s.Loading = true
	})
}

func (m *Manager) verifySaved(ctx context.Context) {
	token, ok := m.tokens.Get(ctx)
	if !ok {
		verifications.WithLabelValues(outcomeNoToken).Inc()
		slogctx.Debug(ctx, "No saved session")

		m.update(func(s *Snapshot) {
			s.Status = StatusUnauthenticated
			s.User = nil
			s.Loading = false
		})

		return
	}

	user, err := m.verify(ctx, token)

	// A login finished first and owns the session now.
	if current, _ := m.tokens.Get(ctx); current != token {
		return
	}

	if err != nil {
		verifications.WithLabelValues(outcome(err)).Inc()
		slogctx.Info(ctx, "Saved session was rejected", "error", err)
		m.downgrade(ctx, token)

		return
	}

	verifications.WithLabelValues(outcomeSuccess).Inc()
	slogctx.Info(ctx, "Restored saved session", "role", user.Type.String())

	m.update(func(s *Snapshot) {
		s.Status = StatusAuthenticated
		s.User = user
		s.Loading = false
	})
}

func (m *Manager) verify(ctx context.Context, token string) (*User, error) {
	var resp verifyResponse
	if err := m.api.Do(ctx, VerifyPath, apiclient.Options{Token: token}, &resp); err != nil {
		return nil, err
	}

	if !resp.User.valid() {
		return nil, apiclient.Malformed(http.MethodGet, VerifyPath, errors.New("missing user"))
	}

	return resp.User, nil
}

// downgrade drops the token and user after a failed verification.
func (m *Manager) downgrade(ctx context.Context, token string) {
	if token != "" {
		if err := m.tokens.Set(ctx, ""); err != nil {
			slogctx.Warn(ctx, "Could not remove the session token", "error", err)
		}
	}

	m.update(func(s *Snapshot) {
		s.Status = StatusUnauthenticated
		s.User = nil
		s.Loading = false
	})
}

func (m *Manager) update(fn func(s *Snapshot)) {
	m.mu.Lock()
	defer m.mu.Unlock()

	fn(&m.snap)
}

func loginMessage(err error) string {
	apiErr, ok := apiclient.AsError(err)
	if !ok {
		return MsgLoginFailed
	}

	switch apiErr.Kind {
	case apiclient.KindHTTP:
		if apiErr.Message != "" {
			return apiErr.Message
		}
		return MsgLoginFailed
	case apiclient.KindNetwork:
		return MsgUnreachable + apiErr.Err.Error()
	case apiclient.KindMalformed:
		return MsgUnexpectedRes
	default:
		return MsgLoginFailed
	}
}
