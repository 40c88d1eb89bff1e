package tokenvalkey

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/valkey-io/valkey-go"

	"github.com/advbs/portal/internal/serviceerr"
)

type store struct {
	valkey valkey.Client
	prefix string
}

func newStore(valkeyClient valkey.Client, prefix string) *store {
	prefix = strings.TrimSuffix(prefix, ":")
	return &store{
		valkey: valkeyClient,
		prefix: prefix,
	}
}

func (s *store) Get(ctx context.Context, objectType, objectID string) (string, error) {
	key := s.key(objectType, objectID)
	value, err := s.valkey.Do(ctx, s.valkey.B().Get().Key(key).Build()).ToString()
	if err != nil {
		valkeyErr, ok := valkey.IsValkeyErr(err)
		if ok && valkeyErr.IsNil() {
			return "", errors.Join(valkeyErr, serviceerr.ErrNotFound)
		}

		return "", fmt.Errorf("executing get command: %w", err)
	}

	return value, nil
}

func (s *store) Set(ctx context.Context, objectType, objectID, value string) error {
	key := s.key(objectType, objectID)
	if err := s.valkey.Do(ctx, s.valkey.B().Set().Key(key).Value(value).Build()).Error(); err != nil {
		return fmt.Errorf("executing set command: %w", err)
	}

	return nil
}

func (s *store) Destroy(ctx context.Context, objectType, objectID string) error {
	key := s.key(objectType, objectID)
	if err := s.valkey.Do(ctx, s.valkey.B().Del().Key(key).Build()).Error(); err != nil {
		return fmt.Errorf("executing del command: %w", err)
	}

	return nil
}

func (s *store) key(objectType string, objectID string) string {
	if s.prefix == "" {
		return fmt.Sprintf("%s:%s", objectType, objectID)
	}
	return fmt.Sprintf("%s:%s:%s", s.prefix, objectType, objectID)
}
