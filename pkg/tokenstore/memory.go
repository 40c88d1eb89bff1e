package tokenstore

import (
	"context"
	"sync"
)

// MemoryPersister keeps the token for the lifetime of the process only.
type MemoryPersister struct {
	mu    sync.Mutex
	token string
}

var _ Persister = (*MemoryPersister)(nil)

func NewMemoryPersister() *MemoryPersister {
	return &MemoryPersister{}
}

func (p *MemoryPersister) Load(_ context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.token, nil
}

func (p *MemoryPersister) Save(_ context.Context, token string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.token = token

	return nil
}

func (p *MemoryPersister) Delete(_ context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.token = ""

	return nil
}
