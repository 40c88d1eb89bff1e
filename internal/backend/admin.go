package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	slogctx "github.com/veqryn/slog-context"

	"github.com/advbs/portal/pkg/apiclient"
)

// Search terms shorter than this return no matches without asking the backend.
const minSearchLength = 2

const defaultSearchLimit = 10

// CaseFilter narrows a case listing. Zero fields match everything.
type CaseFilter struct {
	ClientID int64
	Status   CaseStatus
	// Search matches the description or the client name, case-insensitively.
	Search string
}

func (f CaseFilter) match(c Case) bool {
	if f.ClientID != 0 && c.ClientID != f.ClientID {
		return false
	}
	if f.Status != "" && c.Status != f.Status {
		return false
	}
	if f.Search != "" {
		q := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(c.Description), q) &&
			!strings.Contains(strings.ToLower(c.ClientName), q) {
			return false
		}
	}
	return true
}

func (s *Service) Clients(ctx context.Context) ([]Client, error) {
	var clients []Client
	if err := s.get(ctx, "/api/admin/clients", &clients); err != nil {
		return nil, fmt.Errorf("listing clients: %w", err)
	}
	return clients, nil
}

func (s *Service) Client(ctx context.Context, id int64) (Client, error) {
	var c Client
	if err := s.get(ctx, clientPath(id), &c); err != nil {
		return Client{}, fmt.Errorf("getting client %d: %w", id, err)
	}
	return c, nil
}

func (s *Service) CreateClient(ctx context.Context, c Client) (Client, error) {
	if err := c.Validate(); err != nil {
		return Client{}, invalid("%v", err)
	}

	c.ID = 0
	var created Client
	if err := s.call(ctx, http.MethodPost, "/api/admin/clients", c, &created); err != nil {
		return Client{}, fmt.Errorf("creating client: %w", err)
	}

	slogctx.Info(ctx, "Created client", "client_id", created.ID)

	return created, nil
}

func (s *Service) UpdateClient(ctx context.Context, id int64, c Client) (Client, error) {
	if err := c.Validate(); err != nil {
		return Client{}, invalid("%v", err)
	}

	c.ID = 0
	var updated Client
	if err := s.call(ctx, http.MethodPut, clientPath(id), c, &updated); err != nil {
		return Client{}, fmt.Errorf("updating client %d: %w", id, err)
	}

	return updated, nil
}

func (s *Service) DeleteClient(ctx context.Context, id int64) error {
	if err := s.call(ctx, http.MethodDelete, clientPath(id), nil, nil); err != nil {
		return fmt.Errorf("deleting client %d: %w", id, err)
	}

	slogctx.Info(ctx, "Deleted client", "client_id", id)

	return nil
}

// SearchClients looks clients up by name, email or CPF. A limit of zero
// means the default of ten.
func (s *Service) SearchClients(ctx context.Context, term string, limit int) ([]Client, error) {
	term = strings.TrimSpace(term)
	if len([]rune(term)) < minSearchLength {
		return nil, nil
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	q := url.Values{}
	q.Set("q", term)
	q.Set("limit", strconv.Itoa(limit))

	var clients []Client
	if err := s.get(ctx, "/api/admin/clients/search?"+q.Encode(), &clients); err != nil {
		return nil, fmt.Errorf("searching clients: %w", err)
	}
	return clients, nil
}

// Cases lists every case in the firm. The backend has no filtering, so the
// filter is applied here.
func (s *Service) Cases(ctx context.Context, filter CaseFilter) ([]Case, error) {
	var cases []Case
	if err := s.get(ctx, "/api/admin/cases", &cases); err != nil {
		return nil, fmt.Errorf("listing cases: %w", err)
	}

	filtered := cases[:0]
	for _, c := range cases {
		if filter.match(c) {
			filtered = append(filtered, c)
		}
	}

	return filtered, nil
}

func (s *Service) ClientCases(ctx context.Context, clientID int64) ([]Case, error) {
	var cases []Case
	if err := s.get(ctx, clientPath(clientID)+"/cases", &cases); err != nil {
		return nil, fmt.Errorf("listing cases of client %d: %w", clientID, err)
	}
	return cases, nil
}

// CreateCase opens a case for a client. Older backends only expose the
// flat create-case route, which is tried when the nested one is missing.
func (s *Service) CreateCase(ctx context.Context, clientID int64, nc NewCase) (Case, error) {
	if strings.TrimSpace(nc.Description) == "" {
		return Case{}, invalid("description is required")
	}
	if nc.Status == "" {
		nc.Status = CaseStatusPending
	}

	var created Case
	err := s.call(ctx, http.MethodPost, clientPath(clientID)+"/cases", nc, &created)
	if apiclient.IsStatus(err, http.StatusNotFound) || apiclient.IsStatus(err, http.StatusMethodNotAllowed) {
		slogctx.Debug(ctx, "Nested case route missing, using the flat one", "client_id", clientID)

		flat := struct {
			NewCase
			ClientID int64 `json:"client_id"`
		}{NewCase: nc, ClientID: clientID}
		err = s.call(ctx, http.MethodPost, "/api/admin/create-case", flat, &created)
	}
	if err != nil {
		return Case{}, fmt.Errorf("creating case for client %d: %w", clientID, err)
	}

	slogctx.Info(ctx, "Opened case", "client_id", clientID, "case_id", created.ID)

	return created, nil
}

func (s *Service) UpdateCaseStatus(ctx context.Context, caseID int64, status CaseStatus) (Case, error) {
	if _, err := ParseCaseStatus(string(status)); err != nil {
		return Case{}, invalid("%v", err)
	}

	var updated Case
	body := map[string]CaseStatus{"status": status}
	if err := s.call(ctx, http.MethodPut, "/api/admin/cases/"+strconv.FormatInt(caseID, 10), body, &updated); err != nil {
		return Case{}, fmt.Errorf("updating status of case %d: %w", caseID, err)
	}

	slogctx.Info(ctx, "Updated case status", "case_id", caseID, "status", string(status))

	return updated, nil
}

func (s *Service) ProcessFiles(ctx context.Context) ([]ProcessFile, error) {
	var files []ProcessFile
	if err := s.get(ctx, "/api/admin/process-files", &files); err != nil {
		return nil, fmt.Errorf("listing process files: %w", err)
	}
	return files, nil
}

func (s *Service) UploadProcessFile(ctx context.Context, req UploadRequest) (ProcessFile, error) {
	if req.ClientID == 0 {
		return ProcessFile{}, invalid("client is required")
	}
	if req.Content == nil || strings.TrimSpace(req.FileName) == "" {
		return ProcessFile{}, invalid("file is required")
	}

	fields := map[string]string{
		"client_id":   strconv.FormatInt(req.ClientID, 10),
		"description": req.Description,
	}
	if req.CaseID != 0 {
		fields["case_id"] = strconv.FormatInt(req.CaseID, 10)
	}

	var uploaded ProcessFile
	err := s.upload(ctx, "/api/admin/process-files", fields, apiclient.UploadFile{
		FieldName: "file",
		FileName:  req.FileName,
		Content:   req.Content,
	}, &uploaded)
	if err != nil {
		return ProcessFile{}, fmt.Errorf("uploading %s: %w", req.FileName, err)
	}

	slogctx.Info(ctx, "Uploaded process file", "client_id", req.ClientID, "file_id", uploaded.ID)

	return uploaded, nil
}

func (s *Service) DeleteProcessFile(ctx context.Context, id int64) error {
	if err := s.call(ctx, http.MethodDelete, processFilePath(id), nil, nil); err != nil {
		return fmt.Errorf("deleting process file %d: %w", id, err)
	}
	return nil
}

func (s *Service) DownloadProcessFile(ctx context.Context, id int64) (*apiclient.File, error) {
	f, err := s.download(ctx, processFilePath(id)+"/download", fallbackName(id))
	if err != nil {
		return nil, fmt.Errorf("downloading process file %d: %w", id, err)
	}
	return f, nil
}

func (s *Service) Stats(ctx context.Context) (Stats, error) {
	var stats Stats
	if err := s.get(ctx, "/api/analytics/stats", &stats); err != nil {
		return Stats{}, fmt.Errorf("loading analytics: %w", err)
	}
	return stats, nil
}

func clientPath(id int64) string {
	return "/api/admin/clients/" + strconv.FormatInt(id, 10)
}

func processFilePath(id int64) string {
	return "/api/admin/process-files/" + strconv.FormatInt(id, 10)
}

func fallbackName(id int64) string {
	return "arquivo_" + strconv.FormatInt(id, 10)
}
