package mcpserver

import (
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"
)

func textOf(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.Len(t, result.Content, 1)
	text, ok := result.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func TestToolResultEncodesTOON(t *testing.T) {
	result, _, err := toolResult(map[string]any{"modified": 3})
	require.NoError(t, err)
	require.False(t, result.IsError)
	require.Contains(t, textOf(t, result), "modified")
}

func TestToolErrorMarksResult(t *testing.T) {
	result, _, err := toolError("baseline is corrupt")
	require.NoError(t, err)
	require.True(t, result.IsError)
	require.Equal(t, "Error: baseline is corrupt", textOf(t, result))
}

func TestFingerprintFileRequiresPath(t *testing.T) {
	result, _, err := handleFingerprintFile(t.Context(), nil, FingerprintFileInput{})
	require.NoError(t, err)
	require.True(t, result.IsError)
	require.True(t, strings.Contains(textOf(t, result), "path is required"))
}

func TestRootOrDot(t *testing.T) {
	require.Equal(t, ".", rootOrDot(""))
	require.Equal(t, "/repo", rootOrDot("/repo"))
}
