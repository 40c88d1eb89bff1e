// Package cli renders portal data for the terminal and prompts for input.
package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/goccy/go-yaml"
)

type Format string

const (
	FormatTable Format = "table"
	FormatYAML  Format = "yaml"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FormatTable:
		return FormatTable, nil
	case FormatYAML:
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown output format %q, use table or yaml", s)
	}
}

// Table is the tabular view of a value.
type Table struct {
	Headers []string
	Rows    [][]string
}

var (
	headerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
	titleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// Printer writes values in one output format.
type Printer struct {
	out    io.Writer
	format Format
}

func NewPrinter(out io.Writer, format Format) *Printer {
	return &Printer{out: out, format: format}
}

func (p *Printer) Format() Format { return p.format }

// Print writes v as YAML, or t as a table.
func (p *Printer) Print(v any, t Table) error {
	if p.format == FormatYAML {
		data, err := yaml.Marshal(v)
		if err != nil {
			return fmt.Errorf("encoding yaml: %w", err)
		}
		_, err = p.out.Write(data)
		return err
	}

	if len(t.Rows) == 0 {
		_, err := fmt.Fprintln(p.out, labelStyle.Render("No entries."))
		return err
	}

	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(labelStyle).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(t.Headers...).
		Rows(t.Rows...)

	_, err := fmt.Fprintln(p.out, tbl.String())
	return err
}

// Title writes a heading. It is skipped for YAML so the output stays parseable.
func (p *Printer) Title(text string) {
	if p.format == FormatYAML {
		return
	}
	_, _ = fmt.Fprintln(p.out, titleStyle.Render(text))
}

func (p *Printer) Success(format string, args ...any) {
	_, _ = fmt.Fprintln(p.out, successStyle.Render(fmt.Sprintf(format, args...)))
}

func (p *Printer) Failure(format string, args ...any) {
	_, _ = fmt.Fprintln(p.out, errorStyle.Render(fmt.Sprintf(format, args...)))
}
