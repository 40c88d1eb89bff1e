// Package filestore persists the portal token as a single file, the CLI
// counterpart of the browser's local storage entry.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/advbs/portal/pkg/tokenstore"
)

const (
	dirMode  = 0o700
	fileMode = 0o600
)

type Persister struct {
	path string
}

var _ tokenstore.Persister = (*Persister)(nil)

// New returns a persister writing to dir/advbs_token.
func New(dir string) (*Persister, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, errors.New("token directory is required")
	}

	return &Persister{path: filepath.Join(dir, tokenstore.Key)}, nil
}

// DefaultDir is $HOME/.advbs-portal, next to the configuration file.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}

	return filepath.Join(home, ".advbs-portal"), nil
}

func (p *Persister) Path() string {
	return p.path
}

func (p *Persister) Load(_ context.Context) (string, error) {
	b, err := os.ReadFile(p.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}

		return "", fmt.Errorf("reading token file: %w", err)
	}

	return strings.TrimSpace(string(b)), nil
}

func (p *Persister) Save(_ context.Context, token string) error {
	if err := os.MkdirAll(filepath.Dir(p.path), dirMode); err != nil {
		return fmt.Errorf("creating token directory: %w", err)
	}

	tmp := p.path + ".tmp"
	if err := os.WriteFile(tmp, []byte(token), fileMode); err != nil {
		return fmt.Errorf("writing token file: %w", err)
	}

	if err := os.Rename(tmp, p.path); err != nil {
		return fmt.Errorf("replacing token file: %w", err)
	}

	return nil
}

func (p *Persister) Delete(_ context.Context) error {
	err := os.Remove(p.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing token file: %w", err)
	}

	return nil
}
