package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshot_WriteThenFetch(t *testing.T) {
	records, err := DecodePayload([]byte(samplePayload))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "catalog.json.gz")
	require.NoError(t, WriteSnapshot(path, records))

	got, err := NewSnapshot(path).Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, records, got)

	// No temp files left behind.
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestSnapshot_MissingFile(t *testing.T) {
	_, err := NewSnapshot(filepath.Join(t.TempDir(), "nope.json.gz")).Fetch(context.Background())
	require.Error(t, err)
}

func TestSnapshot_NotGzip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plain.json")
	require.NoError(t, os.WriteFile(path, []byte(samplePayload), 0o600))

	_, err := NewSnapshot(path).Fetch(context.Background())
	require.Error(t, err)
}

func TestSnapshot_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewSnapshot("unused").Fetch(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
