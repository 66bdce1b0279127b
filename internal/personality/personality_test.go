package personality

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReadsEmpty(t *testing.T) {
	s := Load(filepath.Join(t.TempDir(), "missing.md"), nil)
	assert.Empty(t, s.Get())
}

func TestLoadTrimsWhitespace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "personality.md")
	require.NoError(t, os.WriteFile(path, []byte("\n  curious and warm  \n"), 0o644))
	s := Load(path, nil)
	assert.Equal(t, "curious and warm", s.Get())
}

func TestWatchReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "personality.md")
	require.NoError(t, os.WriteFile(path, []byte("first"), 0o644))

	s := Load(path, nil)
	require.Equal(t, "first", s.Get())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, s.Watch(ctx))
	defer s.Close()

	require.NoError(t, os.WriteFile(path, []byte("second"), 0o644))

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if s.Get() == "second" {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("personality text was not reloaded; got %q", s.Get())
}

func TestCloseStopsWatching(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "personality.md")
	require.NoError(t, os.WriteFile(path, []byte("first"), 0o644))

	s := Load(path, nil)
	ctx := context.Background()
	require.NoError(t, s.Watch(ctx))
	assert.NoError(t, s.Close())
}
