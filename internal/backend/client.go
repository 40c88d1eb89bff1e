package backend

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	slogctx "github.com/veqryn/slog-context"

	"github.com/advbs/portal/internal/serviceerr"
	"github.com/advbs/portal/pkg/apiclient"
)

// Operations of the client portal. They act on the signed-in client only.

func (s *Service) Profile(ctx context.Context) (Profile, error) {
	var p Profile
	if err := s.get(ctx, "/api/client/profile", &p); err != nil {
		return Profile{}, fmt.Errorf("getting profile: %w", err)
	}
	return p, nil
}

func (s *Service) UpdateProfile(ctx context.Context, c Client) (Profile, error) {
	if err := c.Validate(); err != nil {
		return Profile{}, invalid("%v", err)
	}

	c.ID = 0
	var p Profile
	if err := s.call(ctx, http.MethodPut, "/api/client/profile", c, &p); err != nil {
		return Profile{}, fmt.Errorf("updating profile: %w", err)
	}
	return p, nil
}

func (s *Service) MyCases(ctx context.Context) ([]Case, error) {
	var cases []Case
	if err := s.get(ctx, "/api/client/cases", &cases); err != nil {
		return nil, fmt.Errorf("listing own cases: %w", err)
	}
	return cases, nil
}

func (s *Service) MyCase(ctx context.Context, id int64) (Case, error) {
	var c Case
	if err := s.get(ctx, "/api/client/cases/"+strconv.FormatInt(id, 10), &c); err != nil {
		return Case{}, fmt.Errorf("getting own case %d: %w", id, err)
	}
	return c, nil
}

// MyStats returns the client's counters. Backends without the stats route
// get them computed from the case list.
func (s *Service) MyStats(ctx context.Context) (ClientStats, error) {
	var stats ClientStats
	err := s.get(ctx, "/api/client/stats", &stats)
	if err == nil {
		return stats, nil
	}
	if !errors.Is(err, serviceerr.ErrNotFound) {
		return ClientStats{}, fmt.Errorf("loading own stats: %w", err)
	}

	slogctx.Debug(ctx, "Stats route missing, counting cases")

	cases, err := s.MyCases(ctx)
	if err != nil {
		return ClientStats{}, err
	}

	stats.TotalCases = len(cases)
	for _, c := range cases {
		switch c.Status {
		case CaseStatusPending:
			stats.PendingCases++
		case CaseStatusInProgress:
			stats.ActiveCases++
		case CaseStatusCompleted:
			stats.CompletedCases++
		}
	}

	return stats, nil
}

func (s *Service) DownloadDocument(ctx context.Context, id int64) (*apiclient.File, error) {
	f, err := s.download(ctx, "/api/client/files/"+strconv.FormatInt(id, 10)+"/download", fallbackName(id))
	if err != nil {
		return nil, fmt.Errorf("downloading document %d: %w", id, err)
	}
	return f, nil
}
