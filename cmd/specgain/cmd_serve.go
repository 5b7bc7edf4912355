package main

import (
	"context"

	"github.com/spf13/cobra"

	"specgain/internal/logging"
	mcpserver "specgain/internal/mcp"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

var serveFlags struct {
	config string
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server over stdio",
	Long: `Starts an MCP server over stdin/stdout exposing run_report and
get_summary, so an agent driving the paper build can regenerate the
artifacts and inspect the numbers without shelling out.

The server monitors for parent process death. When the client disconnects,
the server self-terminates to prevent zombie processes.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveFlags.config, "config", "", "Study config file (YAML/JSON) seeding every run")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := resolveConfig(serveFlags.config, nil)
	if err != nil {
		return err
	}

	srv := mcpserver.NewServer(*cfg)
	defer srv.Shutdown()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	mcpserver.WatchStdin(ctx, nil, cancel)

	logging.New("mcp").Info("starting specgain MCP server over stdio (parent watchdog active)")
	return srv.MCPServer.Run(ctx, &sdkmcp.StdioTransport{})
}
