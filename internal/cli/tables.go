package cli

import (
	"strconv"

	"github.com/advbs/portal/internal/backend"
	"github.com/advbs/portal/pkg/session"
)

func id(v int64) string {
	if v == 0 {
		return "-"
	}
	return strconv.FormatInt(v, 10)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func ClientsTable(clients []backend.Client) Table {
	t := Table{Headers: []string{"ID", "Name", "Email", "CPF", "Phone", "City"}}
	for _, c := range clients {
		t.Rows = append(t.Rows, []string{id(c.ID), c.Name, c.Email, orDash(c.CPF), orDash(c.Phone), orDash(c.City)})
	}
	return t
}

func CasesTable(cases []backend.Case) Table {
	t := Table{Headers: []string{"ID", "Client", "Service", "Description", "Status", "Created"}}
	for _, c := range cases {
		client := c.ClientName
		if client == "" {
			client = id(c.ClientID)
		}
		t.Rows = append(t.Rows, []string{
			id(c.ID), client, orDash(c.ServiceName), c.Description, c.Status.Label(), orDash(c.CreatedAt),
		})
	}
	return t
}

func FilesTable(files []backend.ProcessFile) Table {
	t := Table{Headers: []string{"ID", "Client", "Case", "File", "Description", "Uploaded"}}
	for _, f := range files {
		t.Rows = append(t.Rows, []string{
			id(f.ID), id(f.ClientID), id(f.CaseID), f.OriginalFilename, orDash(f.Description), orDash(f.CreatedAt),
		})
	}
	return t
}

func ServicesTable(services []backend.LegalService) Table {
	t := Table{Headers: []string{"ID", "Service", "Category", "Description"}}
	for _, s := range services {
		t.Rows = append(t.Rows, []string{id(s.ID), s.Name, orDash(s.Category), s.Description})
	}
	return t
}

func counters(pairs ...any) Table {
	t := Table{Headers: []string{"Counter", "Value"}}
	for i := 0; i+1 < len(pairs); i += 2 {
		label, _ := pairs[i].(string)
		value, _ := pairs[i+1].(int)
		t.Rows = append(t.Rows, []string{label, strconv.Itoa(value)})
	}
	return t
}

func StatsTable(s backend.Stats) Table {
	return counters(
		"Clients", s.TotalClients,
		"Cases", s.TotalCases,
		"Pending", s.PendingCases,
		"In progress", s.ActiveCases,
		"Completed", s.CompletedCases,
		"Files", s.TotalFiles,
		"Services", s.TotalServices,
	)
}

func ClientStatsTable(s backend.ClientStats) Table {
	return counters(
		"Cases", s.TotalCases,
		"Pending", s.PendingCases,
		"In progress", s.ActiveCases,
		"Completed", s.CompletedCases,
		"Files", s.TotalFiles,
	)
}

func DashboardTable(d backend.Dashboard) Table {
	return counters(
		"Clients", d.TotalClients,
		"Pending", d.PendingCases,
		"In progress", d.ActiveCases,
		"Completed", d.CompletedCases,
	)
}

func ProfileTable(p backend.Profile) Table {
	return Table{
		Headers: []string{"Field", "Value"},
		Rows: [][]string{
			{"Name", p.Name},
			{"Email", p.Email},
			{"CPF", orDash(p.CPF)},
			{"Phone", orDash(p.Phone)},
			{"Address", orDash(p.Address)},
			{"City", orDash(p.City)},
			{"State", orDash(p.State)},
			{"Registered", orDash(p.RegisterDate)},
			{"Last login", orDash(p.LastLogin)},
		},
	}
}

func SessionTable(s session.Snapshot) Table {
	t := Table{
		Headers: []string{"Field", "Value"},
		Rows:    [][]string{{"Status", s.Status.String()}},
	}
	if s.User != nil {
		t.Rows = append(t.Rows,
			[]string{"Name", s.User.Name},
			[]string{"Email", s.User.Email},
			[]string{"Role", s.User.Type.String()},
		)
	}
	if s.Error != "" {
		t.Rows = append(t.Rows, []string{"Error", s.Error})
	}
	return t
}
