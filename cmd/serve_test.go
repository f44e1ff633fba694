package cmd

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tonimelisma/spsync/internal/app"
	"github.com/tonimelisma/spsync/internal/config"
)

func TestServeLogicStopsOnCancel(t *testing.T) {
	a, err := app.New(config.Default(), nil)
	require.NoError(t, err)
	defer a.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, serveLogic(ctx, a, "127.0.0.1:0"))
}

func TestServeLogicDrainsQueuedUploads(t *testing.T) {
	a, err := app.New(config.Default(), nil)
	require.NoError(t, err)
	defer a.Close()

	var jobErr error
	_, err = a.Services.Queue.Enqueue("upload", func(ctx context.Context) error {
		jobErr = ctx.Err()
		return jobErr
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, serveLogic(ctx, a, "127.0.0.1:0"))

	assert.NoError(t, jobErr)
	assert.Equal(t, int64(1), a.Services.Queue.Stats().Succeeded)
}
