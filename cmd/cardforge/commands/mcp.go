package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/harulab/cardforge/config"
	"github.com/harulab/cardforge/logger"
	"github.com/harulab/cardforge/server"
)

// MCPCmd runs the MCP tool server on stdio
var MCPCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the MCP tool server on stdio",
	Long: `Expose the catalog query tools (get_operator_basic, get_operator_skill,
get_glossary) over the Model Context Protocol on stdin/stdout.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.close()

		if err := a.ensureReady(ctx); err != nil {
			return err
		}

		srv := server.NewMCPServer(a.repo, a.cards, a.alias, a.loader, a.searchOptions(), a.cfg.Server.BaseURL)

		// Pick up search tuning edits without restarting the session
		if path := config.ProjectConfigPath(); path != "" {
			watcher, err := config.NewWatcher(path)
			if err != nil {
				logger.Warnw("config watcher unavailable", "path", path, "error", err)
			} else {
				watcher.OnReload(func(cfg *config.Config) error {
					srv.SetSearchOptions(searchOptionsFrom(cfg))
					return nil
				})
				watcher.Start()
				defer watcher.Stop()
			}
		}

		logger.Info("starting MCP server on stdio")
		return srv.ServeStdio()
	},
}
