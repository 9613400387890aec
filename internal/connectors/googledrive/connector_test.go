package googledrive

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quarrydocs/quarry/internal/core/domain"
)

func TestConnectorType(t *testing.T) {
	assert.Equal(t, "google_drive", New(Config{}).Type())
}

func TestNewDefaults(t *testing.T) {
	c := New(Config{})
	assert.Equal(t, int64(DefaultPageSize), c.config.PageSize)

	c = New(Config{PageSize: 25})
	assert.Equal(t, int64(25), c.config.PageSize)
}

func TestServiceErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("missing credentials", func(t *testing.T) {
		c := New(Config{})
		_, err := c.service(ctx)
		require.ErrorIs(t, err, domain.ErrAuthRequired)
	})

	t.Run("unreadable credentials file", func(t *testing.T) {
		c := New(Config{CredentialsFile: "/does/not/exist.json"})
		_, err := c.service(ctx)
		require.ErrorIs(t, err, domain.ErrAuthRequired)
	})

	t.Run("closed connector", func(t *testing.T) {
		c := New(Config{})
		require.NoError(t, c.Close())
		_, err := c.service(ctx)
		require.ErrorIs(t, err, domain.ErrConnectorClosed)
	})
}

func TestFullSyncSurfacesSetupError(t *testing.T) {
	c := New(Config{})

	filesCh, errsCh := c.FullSync(context.Background())

	var files int
	for range filesCh {
		files++
	}
	assert.Zero(t, files)

	var syncErr error
	for err := range errsCh {
		syncErr = err
	}
	require.ErrorIs(t, syncErr, domain.ErrAuthRequired)
}
