// Package paths centralizes every on-disk location the process touches
// into one value created at startup and passed explicitly to the
// components that need it. Nothing in this module reaches for an ambient
// global path; they all go through a *Paths.
package paths

import (
	"os"
	"path/filepath"
)

// Paths is the per-process filesystem layout: memory database, desire
// state file, capture directory, chat log and MCP config file.
type Paths struct {
	Home            string
	MemoryDB        string
	DesireState     string
	CaptureDir      string
	ChatLog         string
	MCPConfig       string
	PersonalityFile string
}

// Default builds a Paths rooted at the user's home directory under
// ~/.familiar_ai, honoring the MCP_CONFIG override when set.
func Default() (*Paths, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	root := filepath.Join(home, ".familiar_ai")

	mcpConfig := os.Getenv("MCP_CONFIG")
	if mcpConfig == "" {
		mcpConfig = filepath.Join(home, ".familiar-ai.json")
	}

	personality := os.Getenv("PERSONALITY_FILE")
	if personality == "" {
		personality = filepath.Join(root, "personality.md")
	}

	return &Paths{
		Home:            home,
		MemoryDB:        filepath.Join(root, "memory.db"),
		DesireState:     filepath.Join(root, "desires.json"),
		CaptureDir:      filepath.Join(root, "captures"),
		ChatLog:         filepath.Join(root, "chat.log"),
		MCPConfig:       mcpConfig,
		PersonalityFile: personality,
	}, nil
}

// Ensure creates every directory required by the layout. It does not
// create the files themselves; writers create those lazily.
func (p *Paths) Ensure() error {
	for _, dir := range []string{filepath.Dir(p.MemoryDB), filepath.Dir(p.DesireState), p.CaptureDir, filepath.Dir(p.ChatLog)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return nil
}
