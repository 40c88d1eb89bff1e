package tokenstoremock

import (
	"context"
	"sync"

	"github.com/advbs/portal/pkg/tokenstore"
)

type PersisterOption func(*Persister)

// Persister is an in-memory tokenstore.Persister with error injection and
// call counters.
type Persister struct {
	mu    sync.Mutex
	token string

	loadErr, saveErr, deleteErr error

	Loads, Saves, Deletes int
}

var _ tokenstore.Persister = (*Persister)(nil)

func WithToken(token string) PersisterOption {
	return func(p *Persister) { p.token = token }
}
func WithLoadError(err error) PersisterOption {
	return func(p *Persister) { p.loadErr = err }
}
func WithSaveError(err error) PersisterOption {
	return func(p *Persister) { p.saveErr = err }
}
func WithDeleteError(err error) PersisterOption {
	return func(p *Persister) { p.deleteErr = err }
}

func NewPersister(opts ...PersisterOption) *Persister {
	p := &Persister{}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

// Token returns the persisted value without counting as a Load.
func (p *Persister) Token() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.token
}

func (p *Persister) Load(_ context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.Loads++
	if p.loadErr != nil {
		return "", p.loadErr
	}
	return p.token, nil
}

func (p *Persister) Save(_ context.Context, token string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.Saves++
	if p.saveErr != nil {
		return p.saveErr
	}
	p.token = token
	return nil
}

func (p *Persister) Delete(_ context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.Deletes++
	if p.deleteErr != nil {
		return p.deleteErr
	}
	p.token = ""
	return nil
}
