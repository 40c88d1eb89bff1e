package tokenvalkey_test

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valkey-io/valkey-go"

	"github.com/advbs/portal/internal/dbtest/valkeytest"
	"github.com/advbs/portal/pkg/tokenstore"
	tokenvalkey "github.com/advbs/portal/pkg/tokenstore/valkey"
)

var client valkey.Client

func TestMain(m *testing.M) {
	ctx := context.Background()

	valkeyClient, _, terminate := valkeytest.Start(ctx)
	client = valkeyClient

	code := m.Run()
	terminate(ctx)

	os.Exit(code)
}

func prepareToken(t *testing.T, prefix, token string) {
	t.Helper()

	key := fmt.Sprintf("%s:token:%s", prefix, tokenstore.Key)
	err := client.Do(t.Context(), client.B().Set().Key(key).Value(token).Build()).Error()
	require.NoError(t, err, "inserting token")
}

func TestPersister_Load(t *testing.T) {
	const prefix = "advbs-load-token-test"

	prepareToken(t, prefix, "stored-token")

	tests := []struct {
		name      string
		prefix    string
		wantToken string
		assertErr assert.ErrorAssertionFunc
	}{
		{
			name:      "Existing token",
			prefix:    prefix,
			wantToken: "stored-token",
			assertErr: assert.NoError,
		},
		{
			name:      "Missing token is absent, not an error",
			prefix:    "advbs-load-token-missing",
			wantToken: "",
			assertErr: assert.NoError,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tokenvalkey.NewPersister(client, tt.prefix)

			got, err := p.Load(t.Context())
			if !tt.assertErr(t, err, fmt.Sprintf("Persister.Load() error %v", err)) || err != nil {
				return
			}

			assert.Equal(t, tt.wantToken, got, "Persister.Load()")
		})
	}
}

func TestPersister_SaveAndDelete(t *testing.T) {
	const prefix = "advbs-save-token-test:"

	p := tokenvalkey.NewPersister(client, prefix)

	require.NoError(t, p.Save(t.Context(), "first"))
	require.NoError(t, p.Save(t.Context(), "second"), "overwriting the token")

	raw, err := client.Do(t.Context(), client.B().Get().Key("advbs-save-token-test:token:advbs_token").Build()).ToString()
	require.NoError(t, err)
	assert.Equal(t, "second", raw, "the trailing colon of the prefix must be trimmed")

	require.NoError(t, p.Delete(t.Context()))

	got, err := p.Load(t.Context())
	require.NoError(t, err)
	assert.Empty(t, got, "token should be absent after deletion")

	assert.NoError(t, p.Delete(t.Context()), "deleting an absent token")
}

func TestStoreOverValkey_SurvivesRestart(t *testing.T) {
	const prefix = "advbs-store-restart-test"

	first := tokenstore.New(tokenvalkey.NewPersister(client, prefix))
	require.NoError(t, first.Set(t.Context(), "abc"))

	restarted := tokenstore.New(tokenvalkey.NewPersister(client, prefix))
	token, ok := restarted.Get(t.Context())
	assert.True(t, ok)
	assert.Equal(t, "abc", token)

	require.NoError(t, restarted.Set(t.Context(), ""))

	again := tokenstore.New(tokenvalkey.NewPersister(client, prefix))
	_, ok = again.Get(t.Context())
	assert.False(t, ok)
}
