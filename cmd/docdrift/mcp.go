package main

import (
	"context"

	"github.com/urfave/cli/v2"

	"github.com/docdrift/docdrift/internal/mcpserver"
)

func mcpCmd() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Start MCP (Model Context Protocol) server for LLM tool integration",
		Description: `Starts an MCP server over stdio transport that exposes drift detection
as tools LLMs can invoke, so an assistant can check whether docs are
stale before relying on them.

To use with Claude Desktop, add to your config:
  {
    "mcpServers": {
      "docdrift": {
        "command": "docdrift",
        "args": ["mcp"]
      }
    }
  }

Available tools:
  - scan_drift        Compare the tree against the baseline and flag stale docs
  - update_baseline   Accept the current code state as the new baseline
  - fingerprint_file  Show one file's function fingerprints`,
		Action: runMCPCmd,
	}
}

func runMCPCmd(c *cli.Context) error {
	server := mcpserver.NewServer(version)
	return server.Run(context.Background())
}
