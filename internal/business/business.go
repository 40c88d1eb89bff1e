package business

import (
	"context"
	"fmt"
	"sync"

	"github.com/openkcm/common-sdk/pkg/commoncfg"
	"github.com/valkey-io/valkey-go"

	slogctx "github.com/veqryn/slog-context"

	"github.com/advbs/portal/internal/backend"
	"github.com/advbs/portal/internal/business/server"
	"github.com/advbs/portal/internal/config"
	"github.com/advbs/portal/pkg/apiclient"
	"github.com/advbs/portal/pkg/session"
	"github.com/advbs/portal/pkg/tokenstore"
	"github.com/advbs/portal/pkg/tokenstore/filestore"
	tokenvalkey "github.com/advbs/portal/pkg/tokenstore/valkey"
)

// Portal is the wired session controller and backend services of one
// portal process.
type Portal struct {
	Tokens   *tokenstore.Store
	API      *apiclient.Client
	Sessions *session.Manager
	Backend  *backend.Service

	closeFn func()
}

// NewPortal builds the portal from the configuration. The session is not
// activated; servers call Start and commands call Activate.
func NewPortal(ctx context.Context, cfg *config.Config) (*Portal, error) {
	persister, closeFn, err := initPersister(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("initialising the token persister: %w", err)
	}

	tokens := tokenstore.New(persister)

	api, err := apiclient.New(cfg.Backend.BaseURL, tokens, apiclient.WithTimeout(cfg.Backend.Timeout))
	if err != nil {
		closeFn()
		return nil, fmt.Errorf("creating the API client: %w", err)
	}

	return &Portal{
		Tokens:   tokens,
		API:      api,
		Sessions: session.NewManager(tokens, api),
		Backend:  backend.NewService(api, cfg.Backend.CatalogTTL),
		closeFn:  closeFn,
	}, nil
}

// Close releases the token persister.
func (p *Portal) Close() {
	if p.closeFn != nil {
		p.closeFn()
	}
}

// Main serves the portal and keeps the session verified until ctx is done.
func Main(ctx context.Context, cfg *config.Config) error {
	portal, err := NewPortal(ctx, cfg)
	if err != nil {
		return err
	}
	defer portal.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	verified := portal.Sessions.Start(ctx)

	// errChan is used to capture the first error and shut everything down.
	errChan := make(chan error, 2)

	var wg sync.WaitGroup

	wg.Go(func() {
		errChan <- server.StartHTTPServer(ctx, cfg, portal.Sessions, portal.Backend)
	})

	wg.Go(func() {
		select {
		case <-verified:
		case <-ctx.Done():
			errChan <- nil
			return
		}
		slogctx.Info(ctx, "Session ready", "status", portal.Sessions.Snapshot().Status.String())
		errChan <- watchSession(ctx, portal.Sessions, cfg.Portal.ReverifyInterval)
	})

	if err := <-errChan; err != nil {
		slogctx.Error(ctx, "Shutting down the portal", "error", err)
	}
	cancel()

	wg.Wait()

	return nil
}

func initPersister(ctx context.Context, cfg *config.Config) (_ tokenstore.Persister, closeFn func(), _ error) {
	switch cfg.TokenStore.Type {
	case config.TokenStoreFile, "":
		dir := cfg.TokenStore.File.Dir
		if dir == "" {
			var err error
			dir, err = filestore.DefaultDir()
			if err != nil {
				return nil, nil, err
			}
		}

		p, err := filestore.New(dir)
		if err != nil {
			return nil, nil, fmt.Errorf("creating the file persister: %w", err)
		}

		slogctx.Debug(ctx, "Persisting the token to a file", "path", p.Path())

		return p, func() {}, nil
	case config.TokenStoreValKey:
		valkeyClient, err := valkeyClientFromConfig(cfg.TokenStore.ValKey)
		if err != nil {
			return nil, nil, err
		}

		slogctx.Debug(ctx, "Persisting the token to valkey", "prefix", cfg.TokenStore.ValKey.Prefix)

		return tokenvalkey.NewPersister(valkeyClient, cfg.TokenStore.ValKey.Prefix), valkeyClient.Close, nil
	case config.TokenStoreMemory:
		return tokenstore.NewMemoryPersister(), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown token store type %q", cfg.TokenStore.Type)
	}
}

func valkeyClientFromConfig(cfg config.ValKey) (valkey.Client, error) {
	valkeyHost, err := commoncfg.LoadValueFromSourceRef(cfg.Host)
	if err != nil {
		return nil, fmt.Errorf("loading valkey host: %w", err)
	}

	valkeyUsername, err := commoncfg.LoadValueFromSourceRef(cfg.User)
	if err != nil {
		return nil, fmt.Errorf("loading valkey username: %w", err)
	}

	valkeyPassword, err := commoncfg.LoadValueFromSourceRef(cfg.Password)
	if err != nil {
		return nil, fmt.Errorf("loading valkey password: %w", err)
	}

	valkeyOpts := valkey.ClientOption{
		InitAddress: []string{string(valkeyHost)},
		Username:    string(valkeyUsername),
		Password:    string(valkeyPassword),
	}

	if cfg.SecretRef.Type == commoncfg.MTLSSecretType {
		tlsConfig, err := commoncfg.LoadMTLSConfig(&cfg.SecretRef.MTLS)
		if err != nil {
			return nil, fmt.Errorf("loading valkey mTLS config from secret ref: %w", err)
		}

		valkeyOpts.TLSConfig = tlsConfig
	}

	valkeyClient, err := valkey.NewClient(valkeyOpts)
	if err != nil {
		return nil, fmt.Errorf("creating a new valkey client: %w", err)
	}

	return valkeyClient, nil
}
