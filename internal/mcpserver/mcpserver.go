// Package mcpserver exposes drift detection over the Model Context
// Protocol so coding agents can check documentation freshness directly.
package mcpserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Server wraps the MCP server and registers all docdrift tools.
type Server struct {
	server *mcp.Server
}

// NewServer creates a new MCP server with all docdrift tools registered.
func NewServer(version string) *Server {
	if version == "" {
		version = "dev"
	}
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "docdrift",
			Version: version,
		},
		nil,
	)

	s := &Server{server: server}
	s.registerTools()
	return s
}

// Run starts the MCP server over stdio transport.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name: "scan_drift",
		Description: "Scan a repository for semantic code changes since the stored baseline " +
			"and report which documentation files may be stale. Returns change events, " +
			"per-doc alerts, and a summary.",
	}, handleScanDrift)

	mcp.AddTool(s.server, &mcp.Tool{
		Name: "update_baseline",
		Description: "Refingerprint the repository and replace the stored baseline. " +
			"Subsequent scans compare against this new state.",
	}, handleUpdateBaseline)

	mcp.AddTool(s.server, &mcp.Tool{
		Name: "fingerprint_file",
		Description: "Compute the semantic fingerprints of every function in a single " +
			"Python file: feature views, per-view digests, and the aggregate digest.",
	}, handleFingerprintFile)
}
