package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/YZTangent/lsmcp/pkg/config"
	"github.com/YZTangent/lsmcp/pkg/logger"
	"github.com/YZTangent/lsmcp/pkg/lsp/client"
	"github.com/YZTangent/lsmcp/pkg/mcp"
)

// MCPServer is the subset of *mcp.Server the serve command depends on,
// letting tests substitute a fake server that never touches stdio.
type MCPServer interface {
	Run(ctx context.Context) error
}

// ConfigLoader builds the Loader used to resolve language servers.
type ConfigLoader func() (*config.Loader, error)

// ServerFactory builds the MCPServer to run, given the manager it should
// dispatch tool calls against.
type ServerFactory func(manager *client.Manager) MCPServer

// configLoader and serverFactory are package-level factories so tests can
// substitute fakes without spawning real language servers or an MCP
// transport.
var (
	configLoader  ConfigLoader  = config.New
	serverFactory ServerFactory = func(manager *client.Manager) MCPServer {
		return mcp.NewServer(manager)
	}
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server over stdio",
	Long: `serve boots the MCP server, which lazily spawns a language server per
language as MCP clients request operations against files under --root, and
serves the lsp_* tools over stdio until the process receives an interrupt
or the transport closes.`,
	Example: "  lsmcp serve --root /path/to/workspace",
	RunE:    runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	loader, err := configLoader()
	if err != nil {
		return err
	}

	manager := client.NewManager(loader, rootDirFlag)
	defer manager.Shutdown()

	server := serverFactory(manager)

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger.Info("starting MCP server", "root", rootDirFlag, "transport", "stdio")
	if err := server.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}

	logger.Info("MCP server stopped")
	return nil
}
