// Package mcp serves the knowledge tools to MCP clients over stdio.
package mcp

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"sort"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/sandevgo/teambot/internal/core"
	"github.com/sandevgo/teambot/pkg/log"
)

type Server struct {
	mcp    *server.MCPServer
	stdin  io.Reader
	stdout io.Writer
}

func NewServer(tools *KnowledgeTools) *Server {
	s := server.NewMCPServer(core.BotName, core.BotVersion, server.WithToolCapabilities(false))

	defs := tools.GetDefinitions()
	names := make([]string, 0, len(defs))
	for name := range defs {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		def := defs[name]
		s.AddTool(mcp.NewToolWithRawSchema(name, def.Description, json.RawMessage(def.Schema)), toolHandler(def.Handler))
	}

	return &Server{
		mcp:    s,
		stdin:  os.Stdin,
		stdout: os.Stdout,
	}
}

func toolHandler(fn func(context.Context, json.RawMessage) (string, error)) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, err := json.Marshal(req.GetRawArguments())
		if err != nil {
			return mcp.NewToolResultErrorFromErr("invalid arguments", err), nil
		}

		out, err := fn(ctx, args)
		if err != nil {
			log.FromCtx(ctx).Warn().Err(err).Str("tool", req.Params.Name).Msg("tool call failed")
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(out), nil
	}
}

// Start serves until stdin closes or ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	log.FromCtx(ctx).Info().Msg("starting mcp server on stdio")
	return server.NewStdioServer(s.mcp).Listen(ctx, s.stdin, s.stdout)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return nil
}
