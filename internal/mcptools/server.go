// Package mcptools exposes the analytics pipeline as Model Context Protocol
// tools over stdio or streamable HTTP.
package mcptools

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// version is set by the linker at build time.
var version = "dev"

// NewAnalysisMCPServer creates an MCP server with the analysis tools
// registered: analyze_process, calculate_roi and list_sectors.
func NewAnalysisMCPServer(svc *AnalysisService) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "sopflow",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "analyze_process",
		Description: "Analyze a procedure document: flatten it into ordered steps, cluster similar steps, flag anomalies, score against a sector benchmark and estimate automation ROI. Returns headline figures and the full report as JSON.",
	}, svc.AnalyzeProcess)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "calculate_roi",
		Description: "Compute savings, payback and annual ROI for a list of automation candidates, with totals and quick-win/strategic phasing.",
	}, svc.CalculateROI)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_sectors",
		Description: "List the sectors with a built-in benchmark text.",
	}, svc.ListSectors)

	return server
}

// RunStdio serves the tools over stdin/stdout until the client disconnects
// or ctx ends.
func RunStdio(ctx context.Context, server *mcp.Server) error {
	return server.Run(ctx, &mcp.StdioTransport{})
}

// shutdownTimeout bounds how long RunHTTP waits for in-flight tool calls.
const shutdownTimeout = 10 * time.Second

// RunHTTP serves the tools over streamable HTTP on addr until ctx ends.
func RunHTTP(ctx context.Context, server *mcp.Server, addr string) error {
	httpServer := &http.Server{
		Addr: addr,
		Handler: mcp.NewStreamableHTTPHandler(
			func(*http.Request) *mcp.Server { return server },
			nil,
		),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = httpServer.Shutdown(sctx)
	}()

	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
