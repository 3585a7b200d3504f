// Package mcpserver exposes the ledger as Model Context Protocol tools and a
// read-only export resource.
package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"ledger/internal/core"
	"ledger/internal/log"
	"ledger/internal/services"
)

const (
	ServerName  = "ledger"
	ExportURI   = "ledger://transactions"
	storageHint = "storage error: the operation could not be completed, see server logs"
)

// Ledger is the subset of the ledger service the tools call.
type Ledger interface {
	Add(ctx context.Context, req services.AddRequest) (core.Entry, error)
	Get(ctx context.Context, id int64) (core.Entry, error)
	List(ctx context.Context, req services.ListRequest) ([]core.Entry, error)
	Summary(ctx context.Context) (core.Summary, error)
	Delete(ctx context.Context, req services.DeleteRequest) (services.DeleteOutcome, error)
	Visualize(ctx context.Context, req services.VisualizeRequest) (services.Chart, error)
	Export(ctx context.Context) (services.Export, error)
}

// Server owns the MCP server and its tool handlers.
type Server struct {
	ledger Ledger
	mcp    *server.MCPServer
	logger *log.Logger
	slog   *log.StructuredLogger
}

// New registers every tool and resource on a fresh MCP server.
func New(ledger Ledger, version string, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentMCP)

	s := &Server{
		ledger: ledger,
		logger: logger,
		slog:   log.NewStructuredLogger(logger),
		mcp: server.NewMCPServer(ServerName, version,
			server.WithToolCapabilities(false),
			server.WithResourceCapabilities(false, false),
			server.WithRecovery(),
		),
	}
	s.registerTools()
	s.mcp.AddResource(exportResource(), s.readExport)
	return s
}

// MCP returns the underlying protocol server.
func (s *Server) MCP() *server.MCPServer {
	return s.mcp
}

// ServeStdio serves JSON-RPC over in and out until ctx is done or in closes.
func (s *Server) ServeStdio(ctx context.Context, in io.Reader, out io.Writer) error {
	stdio := server.NewStdioServer(s.mcp)
	s.logger.InfoContext(ctx, "Serving MCP over stdio")
	if err := stdio.Listen(ctx, in, out); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("stdio transport: %w", err)
	}
	return nil
}

// StreamableHTTP returns the handler for the streamable HTTP transport.
func (s *Server) StreamableHTTP() *server.StreamableHTTPServer {
	return server.NewStreamableHTTPServer(s.mcp)
}

type toolFunc func(ctx context.Context, args arguments) (string, error)

// handle adapts fn to the MCP handler signature and maps domain errors to
// tool errors. Only unexpected failures reach the protocol layer as text.
func (s *Server) handle(name string, fn toolFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ctx = log.NewContext(ctx, s.logger)
		start := time.Now()
		text, err := fn(ctx, arguments(req.GetArguments()))
		s.slog.LogToolCall(ctx, name, time.Since(start).Milliseconds(), err)
		if err != nil {
			return s.toolError(ctx, name, err), nil
		}
		return mcp.NewToolResultText(text), nil
	}
}

func (s *Server) toolError(ctx context.Context, tool string, err error) *mcp.CallToolResult {
	switch {
	case core.IsValidation(err),
		errors.Is(err, core.ErrNoCriteria),
		errors.Is(err, core.ErrInvalidGroupBy),
		errors.Is(err, core.ErrInvalidChartType),
		errors.Is(err, core.ErrAmountOverflow):
		return mcp.NewToolResultError(err.Error())
	case errors.Is(err, core.ErrNotFound):
		return mcp.NewToolResultError(err.Error())
	}

	s.slog.LogError(ctx, "Tool failed on storage", err, log.ComponentMCP, tool, log.NewFields().WithTool(tool))
	return mcp.NewToolResultError(storageHint)
}

func exportResource() mcp.Resource {
	return mcp.NewResource(ExportURI, "All transactions",
		mcp.WithResourceDescription("Every stored transaction plus counts, totals, balance, distinct categories and the earliest and latest timestamps."),
		mcp.WithMIMEType("application/json"),
	)
}

func (s *Server) readExport(ctx context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	x, err := s.ledger.Export(log.NewContext(ctx, s.logger))
	if errors.Is(err, core.ErrAmountOverflow) {
		return nil, err
	}
	if err != nil {
		s.slog.LogError(ctx, "Export failed", err, log.ComponentMCP, log.OpExport, nil)
		return nil, errors.New(storageHint)
	}
	body, err := ExportJSON(x)
	if err != nil {
		return nil, fmt.Errorf("encode export: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      ExportURI,
			MIMEType: "application/json",
			Text:     string(body),
		},
	}, nil
}
