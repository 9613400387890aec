package dropbox

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quarrydocs/quarry/internal/core/domain"
)

func TestConnectorType(t *testing.T) {
	assert.Equal(t, "dropbox", New(Config{}).Type())
}

func TestValidate(t *testing.T) {
	ctx := context.Background()

	t.Run("missing token", func(t *testing.T) {
		err := New(Config{}).Validate(ctx)
		require.ErrorIs(t, err, domain.ErrAuthRequired)
	})

	t.Run("closed connector", func(t *testing.T) {
		c := New(Config{AccessToken: "token"})
		require.NoError(t, c.Close())
		require.ErrorIs(t, c.Validate(ctx), domain.ErrConnectorClosed)
	})
}

func TestFullSyncSurfacesSetupError(t *testing.T) {
	c := New(Config{})

	filesCh, errsCh := c.FullSync(context.Background())

	var count int
	for range filesCh {
		count++
	}
	assert.Zero(t, count)

	var syncErr error
	for err := range errsCh {
		syncErr = err
	}
	require.ErrorIs(t, syncErr, domain.ErrAuthRequired)
}

func TestFilesClientReuse(t *testing.T) {
	c := New(Config{AccessToken: "token"})

	first, err := c.filesClient()
	require.NoError(t, err)
	second, err := c.filesClient()
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
