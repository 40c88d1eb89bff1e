// Package tokenvalkey persists the portal token in Valkey under
// <prefix>:token:advbs_token.
package tokenvalkey

import (
	"context"
	"errors"

	"github.com/valkey-io/valkey-go"

	"github.com/advbs/portal/internal/serviceerr"
	"github.com/advbs/portal/pkg/tokenstore"
)

const objectTypeToken = "token"

var (
	ErrLoadToken   = errors.New("getting token from store")
	ErrSaveToken   = errors.New("setting token into storage")
	ErrDeleteToken = errors.New("deleting token from store")
)

type Persister struct {
	store *store
}

var _ tokenstore.Persister = (*Persister)(nil)

func NewPersister(valkeyClient valkey.Client, prefix string) *Persister {
	return &Persister{
		store: newStore(valkeyClient, prefix),
	}
}

func (p *Persister) Load(ctx context.Context) (string, error) {
	token, err := p.store.Get(ctx, objectTypeToken, tokenstore.Key)
	if err != nil {
		if errors.Is(err, serviceerr.ErrNotFound) {
			return "", nil
		}

		return "", errors.Join(ErrLoadToken, err)
	}

	return token, nil
}

func (p *Persister) Save(ctx context.Context, token string) error {
	if err := p.store.Set(ctx, objectTypeToken, tokenstore.Key, token); err != nil {
		return errors.Join(ErrSaveToken, err)
	}

	return nil
}

func (p *Persister) Delete(ctx context.Context) error {
	if err := p.store.Destroy(ctx, objectTypeToken, tokenstore.Key); err != nil {
		return errors.Join(ErrDeleteToken, err)
	}

	return nil
}
