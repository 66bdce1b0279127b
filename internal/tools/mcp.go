package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"sync"

	mcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/utenadev/familiar-ai/pkg/models"
)

// MCPServerConfig is one entry of the mcpServers map in the MCP config
// file. Type is "stdio" (the default when omitted) or "sse"; a server
// with any other type is skipped with a warning when the manager starts,
// not a hard failure.
type MCPServerConfig struct {
	Type    string            `json:"type"`
	Command string            `json:"command,omitempty"`
	Args    []string          `json:"args,omitempty"`
	Env     map[string]string `json:"env,omitempty"`
	URL     string            `json:"url,omitempty"`
}

// MCPConfigFile is the on-disk shape at Paths.MCPConfig.
type MCPConfigFile struct {
	MCPServers map[string]MCPServerConfig `json:"mcpServers"`
}

// LoadMCPConfig reads and parses the MCP config file. A missing file is
// not an error — it means zero external servers are configured.
func LoadMCPConfig(path string) (*MCPConfigFile, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &MCPConfigFile{MCPServers: map[string]MCPServerConfig{}}, nil
	}
	if err != nil {
		return nil, err
	}
	var cfg MCPConfigFile
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("mcp: parse %s: %w", path, err)
	}
	if cfg.MCPServers == nil {
		cfg.MCPServers = map[string]MCPServerConfig{}
	}
	return &cfg, nil
}

type mcpSession struct {
	name    string
	session *mcp.ClientSession
}

// MCPManager owns zero or more MCP client sessions and the routing table
// from tool name to the session that serves it. Start is idempotent and
// lazy; Close releases sessions in reverse acquisition order, mirroring a
// nested scoped-acquisition stack.
type MCPManager struct {
	mu       sync.Mutex
	started  bool
	sessions []*mcpSession
	routes   map[string]*mcpSession
	defs     map[string]models.ToolDef
	logger   *slog.Logger
}

// NewMCPManager constructs an unstarted manager.
func NewMCPManager(logger *slog.Logger) *MCPManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &MCPManager{
		routes: map[string]*mcpSession{},
		defs:   map[string]models.ToolDef{},
		logger: logger,
	}
}

// Start connects every configured server whose transport type is
// recognized. Each server's connection failure is isolated: one bad
// server does not prevent the others from starting. Calling Start twice
// is a no-op.
func (m *MCPManager) Start(ctx context.Context, cfg *MCPConfigFile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started {
		return nil
	}
	m.started = true

	client := mcp.NewClient(&mcp.Implementation{Name: "familiar-ai", Version: "0.1.0"}, nil)

	for name, server := range cfg.MCPServers {
		transport, err := buildTransport(server)
		if err != nil {
			m.logger.Warn("mcp: skipping server with unrecognized transport", "server", name, "error", err)
			continue
		}

		session, err := client.Connect(ctx, transport, nil)
		if err != nil {
			m.logger.Warn("mcp: failed to connect", "server", name, "error", err)
			continue
		}

		sess := &mcpSession{name: name, session: session}
		m.sessions = append(m.sessions, sess)
		m.registerTools(ctx, sess)
	}
	return nil
}

func buildTransport(server MCPServerConfig) (mcp.Transport, error) {
	kind := server.Type
	if kind == "" {
		kind = "stdio"
	}
	switch kind {
	case "stdio":
		cmd := exec.Command(server.Command, server.Args...)
		for k, v := range server.Env {
			cmd.Env = append(cmd.Env, k+"="+v)
		}
		return &mcp.CommandTransport{Command: cmd}, nil
	case "sse":
		return &mcp.SSEClientTransport{Endpoint: server.URL}, nil
	default:
		return nil, fmt.Errorf("unrecognized transport %q", kind)
	}
}

// registerTools fetches a session's tool list and records a
// first-registration-wins routing entry for each. Collisions are dropped
// with a warning naming both the server already holding the name — the
// caller only has the new server's name here, so both appear in the log
// via the existing route.
func (m *MCPManager) registerTools(ctx context.Context, sess *mcpSession) {
	result, err := sess.session.ListTools(ctx, &mcp.ListToolsParams{})
	if err != nil {
		m.logger.Warn("mcp: list tools failed", "server", sess.name, "error", err)
		return
	}
	for _, t := range result.Tools {
		if existing, ok := m.routes[t.Name]; ok {
			m.logger.Warn("mcp: tool name collision, first registration wins",
				"tool", t.Name, "kept_server", existing.name, "dropped_server", sess.name)
			continue
		}
		schema, _ := json.Marshal(t.InputSchema)
		m.routes[t.Name] = sess
		m.defs[t.Name] = models.ToolDef{Name: t.Name, Description: t.Description, InputSchema: schema}
	}
}

// ToolDefinitions returns every tool definition collected across sessions.
func (m *MCPManager) ToolDefinitions() []models.ToolDef {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.ToolDef, 0, len(m.defs))
	for _, d := range m.defs {
		out = append(out, d)
	}
	return out
}

// Call routes name to its owning session and extracts text/image content
// blocks from the response. A response with no text parts yields
// "(no output)" rather than an empty string.
func (m *MCPManager) Call(ctx context.Context, name string, input json.RawMessage) (text, imageB64, mediaType string, err error) {
	m.mu.Lock()
	sess, ok := m.routes[name]
	m.mu.Unlock()
	if !ok {
		return "", "", "", fmt.Errorf("no MCP session serves %q", name)
	}

	var args map[string]any
	if len(input) > 0 {
		if uerr := json.Unmarshal(input, &args); uerr != nil {
			return "", "", "", fmt.Errorf("decode arguments: %w", uerr)
		}
	}

	result, err := sess.session.CallTool(ctx, &mcp.CallToolParams{Name: name, Arguments: args})
	if err != nil {
		return "", "", "", err
	}

	var textParts []string
	for _, content := range result.Content {
		switch c := content.(type) {
		case *mcp.TextContent:
			textParts = append(textParts, c.Text)
		case *mcp.ImageContent:
			imageB64 = c.Data
			mediaType = c.MIMEType
		}
	}
	if len(textParts) == 0 {
		return "(no output)", imageB64, mediaType, nil
	}
	return joinLines(textParts), imageB64, mediaType, nil
}

func joinLines(parts []string) string {
	out := parts[0]
	for _, p := range parts[1:] {
		out += "\n" + p
	}
	return out
}

// Close releases sessions in reverse acquisition order.
func (m *MCPManager) Close(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var firstErr error
	for i := len(m.sessions) - 1; i >= 0; i-- {
		if err := m.sessions[i].session.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	m.sessions = nil
	return firstErr
}
