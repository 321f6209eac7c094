package tools

import (
	"context"
	"io"
	"log"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
)

// NewMCPServer registers the catalog on a new MCP server, routing every call
// through h.
func NewMCPServer(name, version string, h *Handler) *server.MCPServer {
	s := server.NewMCPServer(name, version, server.WithToolCapabilities(false))
	for _, tool := range Catalog() {
		s.AddTool(tool, h.mcpHandler())
	}
	return s
}

func (h *Handler) mcpHandler() server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return toCallToolResult(h.Call(ctx, req.Params.Name, req.GetArguments())), nil
	}
}

func toCallToolResult(r Result) *mcp.CallToolResult {
	if r.IsError {
		return mcp.NewToolResultError(r.Text)
	}
	return mcp.NewToolResultText(r.Text)
}

// ServeStdio speaks MCP over in/out until ctx is cancelled or in is closed.
// Protocol errors go to logger; out carries protocol frames only.
func ServeStdio(ctx context.Context, s *server.MCPServer, in io.Reader, out io.Writer, logger zerolog.Logger) error {
	stdio := server.NewStdioServer(s)
	stdio.SetErrorLogger(log.New(logger.With().Str("transport", "stdio").Logger(), "", 0))
	return stdio.Listen(ctx, in, out)
}

// HTTPHandler serves MCP over streamable HTTP.
func HTTPHandler(s *server.MCPServer) http.Handler {
	return server.NewStreamableHTTPServer(s)
}
