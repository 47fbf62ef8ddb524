package main

import (
	"os/signal"
	"syscall"

	"github.com/rendis/arazzo-graph/internal/config"
	"github.com/rendis/arazzo-graph/internal/graph"
	"github.com/rendis/arazzo-graph/internal/logging"
	"github.com/rendis/arazzo-graph/internal/telemetry"
	graphmcp "github.com/rendis/arazzo-graph/pkg/mcp"
	"github.com/spf13/cobra"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the MCP workflow editor over stdio",
		Long: `Serve runs an MCP server on stdin/stdout. Logs go to stderr.

Edits to the settings file apply while serving: log level, layout and
graph settings take effect at once; catalog and history settings apply
after a restart.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			hints, err := a.hints()
			if err != nil {
				return err
			}
			srv, err := graphmcp.NewGraphServer(graphmcp.GraphServerDeps{
				Logger:       a.logger,
				Metrics:      telemetry.New(),
				Hints:        hints,
				Graph:        a.graphOptions(),
				Layout:       a.cfg.Layout,
				HistoryLimit: a.cfg.Editor.HistoryLimit,
			})
			if err != nil {
				return err
			}

			if file := a.viper.ConfigFileUsed(); file != "" {
				config.Watch(a.viper, a.cfg, func(old, new config.Config) {
					applyReload(a, srv, cmd, old, new)
				}, func(err error) {
					a.logger.Error("settings reload rejected", "error", err)
				})
				a.logger.Info("watching settings", "file", file)
			}

			a.logger.Info("arazzo-graph MCP server starting", "version", version, "transport", "stdio")
			return srv.Serve(ctx)
		},
	}
}

// applyReload pushes the settings that can change at runtime into srv.
func applyReload(a *app, srv *graphmcp.GraphServer, cmd *cobra.Command, old, new config.Config) {
	d := config.Compare(old, new)
	if d.LogLevelChanged {
		a.logger = logging.New(cmd.ErrOrStderr(), new.LogLevel)
		srv.SetLogger(a.logger)
		a.logger.Info("log level changed", "from", old.LogLevel, "to", new.LogLevel)
	}
	if d.LayoutChanged || d.GraphChanged {
		srv.SetViewDefaults(graphmcp.ViewDefaults{
			Graph:  graph.Options{HideFailureEdges: new.Graph.HideFailureEdges},
			Layout: new.Layout,
		})
		a.logger.Info("view settings reloaded")
	}
	if len(d.RestartNeeded) > 0 {
		a.logger.Warn("settings changed that need a restart", "keys", d.RestartNeeded)
	}
}
