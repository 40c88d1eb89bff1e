// Package backend exposes the law firm's REST resources as typed operations
// for the portal views and the CLI.
package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/errgroup"

	"github.com/advbs/portal/internal/serviceerr"
	"github.com/advbs/portal/pkg/apiclient"
)

const catalogKey = "legal_services"

// API is the subset of the API client the services need.
type API interface {
	Request(ctx context.Context, path string, opts apiclient.Options) (json.RawMessage, error)
	Download(ctx context.Context, path, fallbackName string) (*apiclient.File, error)
	Upload(ctx context.Context, path string, fields map[string]string, file apiclient.UploadFile) (json.RawMessage, error)
}

type Service struct {
	api     API
	catalog *cache.Cache
}

// NewService builds the service. catalogTTL bounds how long the legal
// service catalog is reused; zero disables caching.
func NewService(api API, catalogTTL time.Duration) *Service {
	s := &Service{api: api}
	if catalogTTL > 0 {
		s.catalog = cache.New(catalogTTL, 2*catalogTTL)
	}
	return s
}

// Services returns the catalog of legal services the firm offers.
func (s *Service) Services(ctx context.Context) ([]LegalService, error) {
	if s.catalog != nil {
		if cached, ok := s.catalog.Get(catalogKey); ok {
			//nolint:forcetypeassert
			return cached.([]LegalService), nil
		}
	}

	var services []LegalService
	if err := s.get(ctx, "/api/services", &services); err != nil {
		return nil, fmt.Errorf("listing legal services: %w", err)
	}

	if s.catalog != nil {
		s.catalog.SetDefault(catalogKey, services)
	}

	return services, nil
}

// Dashboard loads clients and cases concurrently and summarises them.
func (s *Service) Dashboard(ctx context.Context) (Dashboard, error) {
	var (
		clients []Client
		cases   []Case
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		clients, err = s.Clients(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		cases, err = s.Cases(gctx, CaseFilter{})
		return err
	})
	if err := g.Wait(); err != nil {
		return Dashboard{}, fmt.Errorf("loading dashboard: %w", err)
	}

	d := Dashboard{TotalClients: len(clients)}
	for _, c := range cases {
		switch c.Status {
		case CaseStatusInProgress:
			d.ActiveCases++
		case CaseStatusPending:
			d.PendingCases++
		case CaseStatusCompleted:
			d.CompletedCases++
		}
	}

	// The last five registered clients, newest first.
	recent := clients[max(0, len(clients)-5):]
	d.RecentClients = make([]Client, 0, len(recent))
	for i := len(recent) - 1; i >= 0; i-- {
		d.RecentClients = append(d.RecentClients, recent[i])
	}

	return d, nil
}

func (s *Service) get(ctx context.Context, path string, out any) error {
	return s.call(ctx, http.MethodGet, path, nil, out)
}

func (s *Service) call(ctx context.Context, method, path string, body, out any) error {
	raw, err := s.api.Request(ctx, path, apiclient.Options{Method: method, Body: body})
	if err != nil {
		return classify(err)
	}

	return decode(method, path, raw, out)
}

func (s *Service) upload(ctx context.Context, path string, fields map[string]string, file apiclient.UploadFile, out any) error {
	raw, err := s.api.Upload(ctx, path, fields, file)
	if err != nil {
		return classify(err)
	}

	return decode(http.MethodPost, path, raw, out)
}

func (s *Service) download(ctx context.Context, path, fallbackName string) (*apiclient.File, error) {
	f, err := s.api.Download(ctx, path, fallbackName)
	if err != nil {
		return nil, classify(err)
	}

	return f, nil
}

// decode reads a payload that may or may not be wrapped in {"data": ...}.
func decode(method, path string, raw json.RawMessage, out any) error {
	if out == nil {
		return nil
	}

	if err := json.Unmarshal(unwrap(raw), out); err != nil {
		return classify(apiclient.Malformed(method, path, err))
	}

	return nil
}

func unwrap(raw json.RawMessage) json.RawMessage {
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil && len(envelope.Data) > 0 {
		return envelope.Data
	}
	return raw
}

// classify attaches the matching service error to an API failure.
func classify(err error) error {
	apiErr, ok := apiclient.AsError(err)
	if !ok {
		return err
	}

	switch apiErr.Kind {
	case apiclient.KindNetwork, apiclient.KindMalformed:
		return errors.Join(err, serviceerr.ErrUnavailable)
	case apiclient.KindHTTP:
		switch apiErr.StatusCode {
		case http.StatusBadRequest, http.StatusUnprocessableEntity, http.StatusConflict:
			return errors.Join(err, serviceerr.ErrInvalidInput)
		case http.StatusUnauthorized:
			return errors.Join(err, serviceerr.ErrUnauthenticated)
		case http.StatusForbidden:
			return errors.Join(err, serviceerr.ErrForbidden)
		case http.StatusNotFound:
			return errors.Join(err, serviceerr.ErrNotFound)
		}
		if apiErr.StatusCode >= http.StatusInternalServerError {
			return errors.Join(err, serviceerr.ErrUnavailable)
		}
	}

	return err
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", serviceerr.ErrInvalidInput, fmt.Sprintf(format, args...))
}

// UploadRequest describes a process file to attach to a client.
type UploadRequest struct {
	ClientID    int64
	CaseID      int64
	Description string
	FileName    string
	Content     io.Reader
}
