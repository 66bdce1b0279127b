// Command familiar is the process entry point: it wires every package
// into a running agent and reads stdin as the conversational channel.
// A companion "mcp" subcommand edits the MCP server config file without
// starting the agent loop.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/utenadev/familiar-ai/internal/config"
	"github.com/utenadev/familiar-ai/internal/desire"
	"github.com/utenadev/familiar-ai/internal/memory"
	"github.com/utenadev/familiar-ai/internal/paths"
	"github.com/utenadev/familiar-ai/internal/personality"
	"github.com/utenadev/familiar-ai/internal/providers"
	"github.com/utenadev/familiar-ai/internal/scheduler"
	"github.com/utenadev/familiar-ai/internal/tools"
	"github.com/utenadev/familiar-ai/internal/turn"
	"github.com/utenadev/familiar-ai/pkg/models"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	root := buildRootCmd(logger)
	if err := root.ExecuteContext(context.Background()); err != nil {
		logger.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func buildRootCmd(logger *slog.Logger) *cobra.Command {
	root := &cobra.Command{
		Use:           "familiar",
		Short:         "Run the embodied companion agent",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), logger)
		},
	}
	root.AddCommand(buildMCPCmd())
	return root
}

// run builds every component and blocks until the scheduler stops
// (SIGINT/SIGTERM or a "/quit" line from stdin).
func run(ctx context.Context, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if cfg.APIKey == "" && cfg.Platform != config.PlatformCLI {
		return fmt.Errorf("config: API_KEY is required for platform %q", cfg.Platform)
	}

	p, err := paths.Default()
	if err != nil {
		return fmt.Errorf("paths: %w", err)
	}
	if err := p.Ensure(); err != nil {
		return fmt.Errorf("paths: ensure: %w", err)
	}

	backend, err := providers.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("providers: %w", err)
	}

	store, err := memory.Open(memory.Config{
		Path:    p.MemoryDB,
		Encoder: buildEncoder(cfg.Embeddings),
		Logger:  logger,
	})
	if err != nil {
		return fmt.Errorf("memory: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("memory: close failed", "error", err)
		}
	}()

	desires := desire.Load(p.DesireState, logger)

	registry := tools.NewRegistry(logger)
	registerBuiltins(registry, cfg, store)

	mcpCfg, err := tools.LoadMCPConfig(p.MCPConfig)
	if err != nil {
		return fmt.Errorf("mcp: %w", err)
	}
	mgr := tools.NewMCPManager(logger)
	if err := mgr.Start(ctx, mcpCfg); err != nil {
		logger.Warn("mcp: start failed", "error", err)
	}
	registry.AttachMCP(mgr)

	pers := personality.Load(p.PersonalityFile, logger)
	if err := pers.Watch(ctx); err != nil {
		logger.Warn("personality: watch failed, running without hot-reload", "error", err)
	}
	defer pers.Close()

	session := &models.AgentSession{StartedAt: time.Now()}
	engine := turn.NewEngine(backend, registry, store, desires, session, pers.Get, cfg.Locale, logger)

	sched := scheduler.New(engine, desires, registry, cfg.Locale, logger)
	go sched.ReadStdin(ctx, os.Stdin)
	sched.Run(ctx)
	return nil
}

// buildEncoder selects a memory.Encoder per cfg.Provider. An unrecognized
// provider falls back to the local-first Ollama encoder rather than
// failing startup over an embeddings misconfiguration.
func buildEncoder(cfg config.EmbeddingsConfig) memory.Encoder {
	switch cfg.Provider {
	case "openai":
		model := cfg.Model
		if model == "" {
			model = "text-embedding-3-small"
		}
		return memory.NewOpenAIEncoder(cfg.BaseURL, cfg.APIKey, model, 1536)
	default:
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434"
		}
		model := cfg.Model
		if model == "" {
			model = "nomic-embed-text"
		}
		return memory.NewOllamaEncoder(baseURL, model, 768)
	}
}

// registerBuiltins wires every built-in tool into registry. Device tools
// (see/look/walk/say) are always registered with a nil device, whatever
// credentials cfg carries, since no concrete device client ships in this
// module; the tools themselves report "not configured" rather than the
// registry omitting them, so the model can discover their absence
// instead of guessing it.
func registerBuiltins(registry *tools.Registry, cfg *config.Config, store *memory.Store) {
	registry.Register(&tools.SeeTool{Camera: nil})
	registry.Register(&tools.LookTool{Camera: nil})
	registry.Register(&tools.WalkTool{Mobility: nil})
	registry.Register(&tools.SayTool{Speaker: nil})

	registry.Register(&tools.RememberTool{Store: store})
	registry.Register(&tools.RecallTool{Store: store})
	registry.Register(&tools.TomTool{Store: store})

	registry.Register(tools.NewSearchTool())
	registry.Register(tools.NewFetchTool())

	coding := &tools.CodingTools{Workdir: cfg.CodingWorkdir, AllowBash: cfg.CodingBash}
	registry.Register(&tools.ReadFileTool{Coding: coding})
	registry.Register(&tools.EditFileTool{Coding: coding})
	registry.Register(&tools.GlobTool{Coding: coding})
	registry.Register(&tools.GrepTool{Coding: coding})
	if cfg.CodingBash {
		registry.Register(&tools.BashTool{Coding: coding})
	}
}
