package mcpserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	toon "github.com/toon-format/toon-go"

	"github.com/docdrift/docdrift/internal/pipeline"
	"github.com/docdrift/docdrift/pkg/config"
	"github.com/docdrift/docdrift/pkg/fingerprint"
	"github.com/docdrift/docdrift/pkg/parser"
)

// ScanDriftInput configures the scan_drift tool.
type ScanDriftInput struct {
	Root   string `json:"root,omitempty" jsonschema:"Repository root to scan. Defaults to the current directory."`
	Config string `json:"config,omitempty" jsonschema:"Path to a docdrift config file. Defaults to the standard search locations."`
}

// UpdateBaselineInput configures the update_baseline tool.
type UpdateBaselineInput struct {
	Root   string `json:"root,omitempty" jsonschema:"Repository root to fingerprint. Defaults to the current directory."`
	Config string `json:"config,omitempty" jsonschema:"Path to a docdrift config file. Defaults to the standard search locations."`
}

// FingerprintFileInput configures the fingerprint_file tool.
type FingerprintFileInput struct {
	Path string `json:"path" jsonschema:"Python file to fingerprint."`
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	cfg, _ := config.LoadOrDefault()
	return cfg, nil
}

func rootOrDot(root string) string {
	if root == "" {
		return "."
	}
	return root
}

func toolResult(data any) (*mcp.CallToolResult, any, error) {
	text, err := toon.Marshal(data, toon.WithIndent(2))
	if err != nil {
		return nil, nil, err
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(text)},
		},
	}, nil, nil
}

func toolError(msg string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: "Error: " + msg},
		},
		IsError: true,
	}, nil, nil
}

func handleScanDrift(ctx context.Context, req *mcp.CallToolRequest, input ScanDriftInput) (*mcp.CallToolResult, any, error) {
	cfg, err := loadConfig(input.Config)
	if err != nil {
		return toolError(err.Error())
	}

	runner := pipeline.New(rootOrDot(input.Root), cfg)
	result, err := runner.Scan(ctx, nil)
	if err != nil {
		return toolError(err.Error())
	}

	return toolResult(result)
}

func handleUpdateBaseline(ctx context.Context, req *mcp.CallToolRequest, input UpdateBaselineInput) (*mcp.CallToolResult, any, error) {
	cfg, err := loadConfig(input.Config)
	if err != nil {
		return toolError(err.Error())
	}

	runner := pipeline.New(rootOrDot(input.Root), cfg)
	stats, skipped, err := runner.RebuildBaseline(ctx, nil)
	if err != nil {
		return toolError(err.Error())
	}

	return toolResult(struct {
		Baseline string `json:"baseline" toon:"baseline"`
		Stats    any    `json:"stats" toon:"stats"`
		Skipped  any    `json:"skipped,omitempty" toon:"skipped,omitempty"`
	}{runner.BaselinePath(), stats, skipped})
}

func handleFingerprintFile(ctx context.Context, req *mcp.CallToolRequest, input FingerprintFileInput) (*mcp.CallToolResult, any, error) {
	if input.Path == "" {
		return toolError("path is required")
	}

	psr := parser.New()
	defer psr.Close()

	parsed, err := psr.ParseFile(input.Path)
	if err != nil {
		return toolError(err.Error())
	}

	result, err := fingerprint.ExtractFile(parsed)
	if err != nil {
		return toolError(err.Error())
	}

	return toolResult(result)
}
