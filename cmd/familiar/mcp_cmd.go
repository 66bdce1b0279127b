package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/utenadev/familiar-ai/internal/paths"
	"github.com/utenadev/familiar-ai/internal/tools"
)

// buildMCPCmd creates the "mcp" command group for editing the MCP server
// config file in place, without starting the agent loop.
func buildMCPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Manage configured MCP servers",
	}
	cmd.AddCommand(buildMCPListCmd(), buildMCPAddCmd(), buildMCPRemoveCmd())
	return cmd
}

func buildMCPListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List configured MCP servers",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadMCPConfig()
			if err != nil {
				return err
			}
			if len(cfg.MCPServers) == 0 {
				fmt.Println("No MCP servers configured.")
				return nil
			}
			for name, srv := range cfg.MCPServers {
				switch srv.Type {
				case "http", "sse":
					fmt.Printf("%s\t%s\t%s\n", name, srv.Type, srv.URL)
				default:
					fmt.Printf("%s\tstdio\t%s %v\n", name, srv.Command, srv.Args)
				}
			}
			return nil
		},
	}
}

func buildMCPAddCmd() *cobra.Command {
	var (
		serverType string
		command    string
		args       []string
		url        string
	)
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add or replace an MCP server entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, cmdArgs []string) error {
			cfg, err := loadMCPConfig()
			if err != nil {
				return err
			}
			name := cmdArgs[0]
			entry := tools.MCPServerConfig{Type: serverType}
			switch serverType {
			case "sse":
				if url == "" {
					return fmt.Errorf("--url is required for type %q", serverType)
				}
				entry.URL = url
			case "stdio", "":
				entry.Type = "stdio"
				if command == "" {
					return fmt.Errorf("--command is required for stdio servers")
				}
				entry.Command = command
				entry.Args = args
			default:
				return fmt.Errorf("unsupported --type %q: use stdio or sse", serverType)
			}
			cfg.MCPServers[name] = entry
			return saveMCPConfig(cfg)
		},
	}
	cmd.Flags().StringVar(&serverType, "type", "stdio", "Server transport: stdio or sse")
	cmd.Flags().StringVar(&command, "command", "", "Command to run (stdio servers)")
	cmd.Flags().StringArrayVar(&args, "arg", nil, "Argument to pass to command (repeatable)")
	cmd.Flags().StringVar(&url, "url", "", "Server URL (sse servers)")
	return cmd
}

func buildMCPRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <name>",
		Short: "Remove an MCP server entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, cmdArgs []string) error {
			cfg, err := loadMCPConfig()
			if err != nil {
				return err
			}
			name := cmdArgs[0]
			if _, ok := cfg.MCPServers[name]; !ok {
				return fmt.Errorf("no MCP server named %q", name)
			}
			delete(cfg.MCPServers, name)
			return saveMCPConfig(cfg)
		},
	}
}

func loadMCPConfig() (*tools.MCPConfigFile, error) {
	p, err := paths.Default()
	if err != nil {
		return nil, err
	}
	return tools.LoadMCPConfig(p.MCPConfig)
}

func saveMCPConfig(cfg *tools.MCPConfigFile) error {
	p, err := paths.Default()
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(p.MCPConfig, data, 0o644)
}
