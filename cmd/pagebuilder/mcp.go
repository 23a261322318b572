package main

import (
	"github.com/aretw0/pagebuilder"
	"github.com/aretw0/pagebuilder/internal/cli"
	"github.com/aretw0/pagebuilder/pkg/adapters/mcp"
	"github.com/spf13/cobra"
)

func newMCPCmd(a *app) *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Run the Model Context Protocol (MCP) server",
		Long: `Exposes document operations as MCP tools so AI agents can compose pages.

Transports:
- stdio (default, port 0): Standard Input/Output for local process integration.
- sse (--port N): Server-Sent Events over HTTP for remote agents.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("port") {
				port = a.cfg.MCP.Port
			}
			mgr, err := a.manager(cmd.Context())
			if err != nil {
				return err
			}
			srv := mcp.NewServer(mgr, pagebuilder.Version, mcp.WithLogger(a.logger))

			if port == 0 {
				a.logger.Info("starting MCP server (stdio)")
				return srv.ServeStdio()
			}

			sigCtx := cli.NewSignalContext(cmd.Context())
			defer sigCtx.Cancel()
			if err := srv.ServeSSE(sigCtx, port); err != nil {
				return err
			}
			a.logger.Info("MCP server stopped", "signal", sigCtx.Signal())
			return nil
		},
	}
	cmd.Flags().IntVar(&port, "port", 0, "Serve SSE on this port instead of stdio")
	return cmd
}
