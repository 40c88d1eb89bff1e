package cmdutils

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/openkcm/common-sdk/pkg/health"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/advbs/portal/internal/config"
)

func TestCobraCommand(t *testing.T) {
	t.Run("creates command with correct properties", func(t *testing.T) {
		businessFunc := func(ctx context.Context, cfg *config.Config) error {
			return nil
		}

		wrapperFunc := func(ctx context.Context, fn BusinessFunc, cfg *config.Config) error {
			return fn(ctx, cfg)
		}

		cmd := CobraCommand("serve", "short desc", "long description", "v1.0.0", wrapperFunc, businessFunc)

		assert.Equal(t, "serve", cmd.Use)
		assert.Equal(t, "short desc", cmd.Short)
		assert.Equal(t, "long description", cmd.Long)
		assert.NotNil(t, cmd.RunE)
	})

	t.Run("RunE returns error when wrapper function fails", func(t *testing.T) {
		businessFunc := func(ctx context.Context, cfg *config.Config) error {
			return nil
		}

		wrapperErr := errors.New("wrapper error")
		wrapperFunc := func(ctx context.Context, fn BusinessFunc, cfg *config.Config) error {
			return wrapperErr
		}

		cmd := CobraCommand("serve", "short", "long", "v1.0.0", wrapperFunc, businessFunc)

		// Fails either on the missing config file or on the wrapper.
		err := cmd.Execute()
		assert.Error(t, err)
	})
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(testConfig), 0o600)
	require.NoError(t, err)

	paths := ConfigPaths
	ConfigPaths = []string{dir}
	t.Cleanup(func() { ConfigPaths = paths })

	cfg, err := LoadConfig("v1.0.0")
	require.NoError(t, err)

	assert.Equal(t, "http://backend.test:8000", cfg.Backend.BaseURL)
	assert.Equal(t, config.TokenStoreMemory, cfg.TokenStore.Type)
	assert.Equal(t, "Advocacia Teste", cfg.Portal.Landing.FirmName)
}

func TestLoadConfigOrDefault(t *testing.T) {
	paths := ConfigPaths
	ConfigPaths = []string{filepath.Join(t.TempDir(), "missing")}
	t.Cleanup(func() { ConfigPaths = paths })

	cfg := LoadConfigOrDefault(t.Context(), "v1.0.0")

	assert.NotNil(t, cfg)
}

const testConfig = `
application:
  name: advbs-portal
backend:
  baseURL: http://backend.test:8000
tokenStore:
  type: memory
portal:
  landing:
    firmName: Advocacia Teste
`

func TestStatusListener(t *testing.T) {
	t.Run("handles empty state", func(t *testing.T) {
		state := health.State{
			Status:     "up",
			CheckState: map[string]health.CheckState{},
		}

		assert.NotPanics(t, func() {
			statusListener(t.Context(), state)
		})
	})

	t.Run("handles state with multiple check states", func(t *testing.T) {
		state := health.State{
			Status: "degraded",
			CheckState: map[string]health.CheckState{
				"backend": {
					Status: "down",
					Result: errors.New("connection refused"),
				},
			},
		}

		assert.NotPanics(t, func() {
			statusListener(t.Context(), state)
		})
	})
}

func TestHealthStatusTimeout(t *testing.T) {
	assert.Equal(t, 5*time.Second, healthStatusTimeout)
}

func ExampleCobraCommand() {
	businessFunc := func(ctx context.Context, cfg *config.Config) error {
		fmt.Println("Running business logic")
		return nil
	}

	wrapperFunc := func(ctx context.Context, fn BusinessFunc, cfg *config.Config) error {
		fmt.Println("Wrapper function called")
		return fn(ctx, cfg)
	}

	cmd := CobraCommand(
		"example",
		"Example command",
		"This is an example of how to use CobraCommand",
		"v1.0.0",
		wrapperFunc,
		businessFunc,
	)

	fmt.Printf("Command use: %s\n", cmd.Use)
	// Output: Command use: example
}
