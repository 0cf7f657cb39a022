package cmd

import (
	"context"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YZTangent/lsmcp/pkg/config"
	"github.com/YZTangent/lsmcp/pkg/lsp/client"
)

// fakeServer is an MCPServer stand-in so runServe can be exercised without
// spawning a real stdio transport.
type fakeServer struct {
	runFunc func(ctx context.Context) error
}

func (f *fakeServer) Run(ctx context.Context) error {
	if f.runFunc != nil {
		return f.runFunc(ctx)
	}
	return nil
}

func setupMockFactories(t *testing.T, loader ConfigLoader, factory ServerFactory) {
	t.Helper()
	origLoader, origFactory := configLoader, serverFactory
	if loader != nil {
		configLoader = loader
	}
	if factory != nil {
		serverFactory = factory
	}
	t.Cleanup(func() {
		configLoader = origLoader
		serverFactory = origFactory
	})
}

func TestServeCmd_Metadata(t *testing.T) {
	assert.Equal(t, "serve", serveCmd.Use)
	assert.Contains(t, serveCmd.Long, "stdio")
	assert.NotNil(t, serveCmd.RunE)
}

func TestRunServe_HappyPath(t *testing.T) {
	var gotManager *client.Manager
	setupMockFactories(t,
		func() (*config.Loader, error) { return config.New() },
		func(manager *client.Manager) MCPServer {
			gotManager = manager
			return &fakeServer{runFunc: func(ctx context.Context) error { return nil }}
		},
	)

	err := runServe(serveCmd, nil)
	require.NoError(t, err)
	assert.NotNil(t, gotManager)
}

func TestRunServe_PropagatesConfigLoaderError(t *testing.T) {
	boom := errors.New("boom")
	setupMockFactories(t,
		func() (*config.Loader, error) { return nil, boom },
		nil,
	)

	err := runServe(serveCmd, nil)
	assert.ErrorIs(t, err, boom)
}

func TestRunServe_PropagatesServerRunError(t *testing.T) {
	boom := errors.New("server crashed")
	setupMockFactories(t,
		func() (*config.Loader, error) { return config.New() },
		func(manager *client.Manager) MCPServer {
			return &fakeServer{runFunc: func(ctx context.Context) error { return boom }}
		},
	)

	err := runServe(serveCmd, nil)
	assert.ErrorIs(t, err, boom)
}
