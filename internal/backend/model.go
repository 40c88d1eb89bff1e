package backend

import (
	"fmt"
	"strings"
)

// CaseStatus is the progress of a legal case.
type CaseStatus string

const (
	CaseStatusPending    CaseStatus = "pendente"
	CaseStatusInProgress CaseStatus = "em_andamento"
	CaseStatusCompleted  CaseStatus = "concluido"
	CaseStatusArchived   CaseStatus = "arquivado"
)

// ParseCaseStatus accepts the wire value or the English name of a status.
func ParseCaseStatus(s string) (CaseStatus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pendente", "pending":
		return CaseStatusPending, nil
	case "em_andamento", "in_progress", "active":
		return CaseStatusInProgress, nil
	case "concluido", "completed":
		return CaseStatusCompleted, nil
	case "arquivado", "archived":
		return CaseStatusArchived, nil
	default:
		return "", fmt.Errorf("unknown case status %q", s)
	}
}

// Label is the human readable name shown in listings.
func (s CaseStatus) Label() string {
	switch s {
	case CaseStatusPending:
		return "Pendente"
	case CaseStatusInProgress:
		return "Em Andamento"
	case CaseStatusCompleted:
		return "Concluído"
	case CaseStatusArchived:
		return "Arquivado"
	default:
		return string(s)
	}
}

type Client struct {
	ID        int64  `json:"id,omitempty" yaml:"id"`
	Name      string `json:"name" yaml:"name"`
	Email     string `json:"email" yaml:"email"`
	CPF       string `json:"cpf" yaml:"cpf"`
	Phone     string `json:"phone" yaml:"phone"`
	Address   string `json:"address" yaml:"address"`
	City      string `json:"city" yaml:"city"`
	State     string `json:"state" yaml:"state"`
	ZipCode   string `json:"zip_code" yaml:"zip_code"`
	CreatedAt string `json:"created_at,omitempty" yaml:"created_at,omitempty"`
}

// Validate checks the fields the backend requires on create and update.
func (c Client) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if !strings.Contains(c.Email, "@") {
		return fmt.Errorf("email %q is not valid", c.Email)
	}
	return nil
}

type Case struct {
	ID          int64      `json:"id" yaml:"id"`
	ClientID    int64      `json:"client_id" yaml:"client_id"`
	ClientName  string     `json:"client_name,omitempty" yaml:"client_name,omitempty"`
	ServiceID   int64      `json:"service_id,omitempty" yaml:"service_id,omitempty"`
	ServiceName string     `json:"service_name,omitempty" yaml:"service_name,omitempty"`
	Title       string     `json:"title,omitempty" yaml:"title,omitempty"`
	Description string     `json:"description" yaml:"description"`
	Status      CaseStatus `json:"status" yaml:"status"`
	CreatedAt   string     `json:"created_at,omitempty" yaml:"created_at,omitempty"`
	UpdatedAt   string     `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
}

// NewCase is the payload for opening a case for a client.
type NewCase struct {
	ServiceID   int64      `json:"service_id"`
	Title       string     `json:"title,omitempty"`
	Description string     `json:"description"`
	Status      CaseStatus `json:"status,omitempty"`
}

type ProcessFile struct {
	ID               int64  `json:"id" yaml:"id"`
	ClientID         int64  `json:"client_id" yaml:"client_id"`
	CaseID           int64  `json:"case_id,omitempty" yaml:"case_id,omitempty"`
	OriginalFilename string `json:"original_filename" yaml:"original_filename"`
	Description      string `json:"description,omitempty" yaml:"description,omitempty"`
	Type             string `json:"type,omitempty" yaml:"type,omitempty"`
	CreatedAt        string `json:"created_at,omitempty" yaml:"created_at,omitempty"`
}

type LegalService struct {
	ID           int64   `json:"id" yaml:"id"`
	Name         string  `json:"name" yaml:"name"`
	Description  string  `json:"description" yaml:"description"`
	Category     string  `json:"category,omitempty" yaml:"category,omitempty"`
	Price        float64 `json:"price,omitempty" yaml:"price,omitempty"`
	DurationDays int     `json:"duration_days,omitempty" yaml:"duration_days,omitempty"`
}

// Stats are the firm-wide analytics.
type Stats struct {
	TotalClients   int `json:"total_clients" yaml:"total_clients"`
	TotalCases     int `json:"total_cases" yaml:"total_cases"`
	PendingCases   int `json:"pending_cases" yaml:"pending_cases"`
	ActiveCases    int `json:"active_cases" yaml:"active_cases"`
	CompletedCases int `json:"completed_cases" yaml:"completed_cases"`
	TotalFiles     int `json:"total_files" yaml:"total_files"`
	TotalServices  int `json:"total_services" yaml:"total_services"`
}

// ClientStats are a client's own counters.
type ClientStats struct {
	TotalCases     int `json:"total_cases" yaml:"total_cases"`
	PendingCases   int `json:"pending_cases" yaml:"pending_cases"`
	ActiveCases    int `json:"active_cases" yaml:"active_cases"`
	CompletedCases int `json:"completed_cases" yaml:"completed_cases"`
	TotalFiles     int `json:"total_files" yaml:"total_files"`
}

// Profile is the signed-in client's own record.
type Profile struct {
	Client       `yaml:",inline"`
	RegisterDate string `json:"register_date,omitempty" yaml:"register_date,omitempty"`
	LastLogin    string `json:"last_login,omitempty" yaml:"last_login,omitempty"`
}

// Dashboard summarises the roster for the admin home page.
type Dashboard struct {
	TotalClients   int      `json:"total_clients" yaml:"total_clients"`
	ActiveCases    int      `json:"active_cases" yaml:"active_cases"`
	PendingCases   int      `json:"pending_cases" yaml:"pending_cases"`
	CompletedCases int      `json:"completed_cases" yaml:"completed_cases"`
	RecentClients  []Client `json:"recent_clients" yaml:"recent_clients"`
}
