package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/openkcm/common-sdk/pkg/commoncfg"
	"github.com/samber/oops"

	slogctx "github.com/veqryn/slog-context"

	"github.com/advbs/portal/internal/config"
	"github.com/advbs/portal/pkg/csrf"
)

// createHTTPServer creates the portal http server using the given config.
func createHTTPServer(_ context.Context, cfg *config.Config, sessions Sessions, svc Backend) (*http.Server, error) {
	secret, err := loadCSRFSecret(cfg.HTTP.CSRFSecret)
	if err != nil {
		return nil, err
	}

	return &http.Server{
		Addr:    cfg.HTTP.Address,
		Handler: newRouter(cfg, sessions, svc, csrf.New(secret)),
	}, nil
}

func loadCSRFSecret(ref commoncfg.SourceRef) ([]byte, error) {
	if ref.Source == "" {
		return nil, nil
	}

	secret, err := commoncfg.LoadValueFromSourceRef(ref)
	if err != nil {
		return nil, fmt.Errorf("loading csrf secret from source ref: %w", err)
	}
	if len(secret) < csrf.MinSecretLength {
		return nil, fmt.Errorf("CSRF secret must be at least %d bytes", csrf.MinSecretLength)
	}

	return secret, nil
}

// StartHTTPServer serves the portal until ctx is cancelled, then shuts the
// server down gracefully.
func StartHTTPServer(ctx context.Context, cfg *config.Config, sessions Sessions, svc Backend) error {
	if err := initMeters(ctx, cfg); err != nil {
		return err
	}

	server, err := createHTTPServer(ctx, cfg, sessions, svc)
	if err != nil {
		return oops.In("HTTP Server").
			WithContext(ctx).
			Wrapf(err, "Failed to create the HTTP server")
	}

	slogctx.Info(ctx, "Starting a listener", "address", server.Addr)

	// The address may be given as network://address, e.g. unix:///run/portal.sock.
	network := "tcp"
	if idx := strings.IndexRune(server.Addr, ':'); idx != -1 && len(server.Addr) > idx+3 && server.Addr[idx:idx+3] == "://" {
		network = server.Addr[:idx]
		server.Addr = server.Addr[idx+3:]
	}

	listener, err := new(net.ListenConfig).Listen(ctx, network, server.Addr)
	if err != nil {
		return oops.In("HTTP Server").
			WithContext(ctx).
			Wrapf(err, "Failed to create a listener")
	}

	slogctx.Info(ctx, "Serving the portal", "address", listener.Addr().String())

	serveErr := make(chan error, 1)
	go func() {
		err := server.Serve(listener)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err, ok := <-serveErr:
		if ok {
			return oops.In("HTTP Server").
				WithContext(ctx).
				Wrapf(err, "Failed to serve the portal")
		}
	}

	shutdownCtx, shutdownRelease := context.WithTimeout(context.WithoutCancel(ctx), cfg.HTTP.ShutdownTimeout)
	defer shutdownRelease()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return oops.In("HTTP Server").
			WithContext(ctx).
			Wrapf(err, "Failed shutting down HTTP server")
	}

	slogctx.Info(ctx, "Completed graceful shutdown of HTTP server")

	return nil
}
