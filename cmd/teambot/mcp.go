package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sandevgo/teambot/internal/config"
	"github.com/sandevgo/teambot/internal/transport/mcp"
	"github.com/sandevgo/teambot/pkg/log"
)

var mcpCmd = &cobra.Command{
	Use:          "mcp",
	Short:        "Serve the knowledge base to MCP clients over stdio",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		// stdout carries the protocol
		var flushLog func()
		ctx, flushLog = log.NewStderrContextWithLogger(ctx, debug || config.IsDebug())
		defer flushLog()

		a, err := initApp(ctx)
		if err != nil {
			return err
		}
		defer a.close(ctx)

		responder, _, err := initAgent(ctx, a)
		if err != nil {
			return err
		}

		server := mcp.NewServer(mcp.NewKnowledgeTools(a.vectors, responder, a.appCfg.GetRetrievalK()))
		return server.Start(ctx)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
