package paths

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultLayout(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("MCP_CONFIG", "")
	t.Setenv("PERSONALITY_FILE", "")

	p, err := Default()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, ".familiar_ai", "memory.db"), p.MemoryDB)
	assert.Equal(t, filepath.Join(home, ".familiar_ai", "desires.json"), p.DesireState)
	assert.Equal(t, filepath.Join(home, ".familiar-ai.json"), p.MCPConfig)
	assert.Equal(t, filepath.Join(home, ".familiar_ai", "personality.md"), p.PersonalityFile)
}

func TestDefaultHonorsOverrides(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("MCP_CONFIG", "/custom/mcp.json")
	t.Setenv("PERSONALITY_FILE", "/custom/personality.md")

	p, err := Default()
	require.NoError(t, err)

	assert.Equal(t, "/custom/mcp.json", p.MCPConfig)
	assert.Equal(t, "/custom/personality.md", p.PersonalityFile)
}

func TestEnsureCreatesDirectories(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("MCP_CONFIG", "")
	t.Setenv("PERSONALITY_FILE", "")

	p, err := Default()
	require.NoError(t, err)
	require.NoError(t, p.Ensure())

	for _, dir := range []string{filepath.Dir(p.MemoryDB), p.CaptureDir, filepath.Dir(p.ChatLog)} {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}
