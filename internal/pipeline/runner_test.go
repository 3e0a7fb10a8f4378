package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/docdrift/docdrift/pkg/config"
	"github.com/docdrift/docdrift/pkg/models"
)

const loginV1 = `def login(user):
    if user is None:
        raise ValueError("missing user")
    check_auth(user)
    return user
`

// Same function with the check_auth call removed.
const loginV2 = `def login(user):
    if user is None:
        raise ValueError("missing user")
    return user
`

func writeSource(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Docs = map[string][]string{
		"docs/auth.md": {"**/*.py"},
	}
	cfg.Exclude.Gitignore = false
	return cfg
}

func TestScanFirstRunStoresBaseline(t *testing.T) {
	root := t.TempDir()
	writeSource(t, root, "src/auth.py", loginV1)

	r := New(root, testConfig())

	result, err := r.Scan(context.Background(), nil)
	require.NoError(t, err)
	require.True(t, result.FirstRun)
	require.Empty(t, result.Events)
	require.Empty(t, result.Alerts)
	require.Equal(t, 1, result.Stats.FilesAdded)
	require.Equal(t, 1, result.Summary.TotalFunctions)

	_, err = os.Stat(r.BaselinePath())
	require.NoError(t, err)
}

func TestScanUnchangedTree(t *testing.T) {
	root := t.TempDir()
	writeSource(t, root, "src/auth.py", loginV1)

	r := New(root, testConfig())
	_, err := r.Scan(context.Background(), nil)
	require.NoError(t, err)

	result, err := r.Scan(context.Background(), nil)
	require.NoError(t, err)
	require.False(t, result.FirstRun)
	require.Empty(t, result.Alerts)
	require.Len(t, result.Events, 1)
	require.Equal(t, models.EventUnchanged, result.Events[0].Kind)
	require.Equal(t, 1, result.Stats.FilesUnchanged)
	require.Equal(t, 1, result.Summary.Unchanged)
}

func TestScanDetectsRemovedAuthCall(t *testing.T) {
	root := t.TempDir()
	writeSource(t, root, "auth/login.py", loginV1)

	// The doc threshold is far above any single score so the alert can only
	// come from the critical flag.
	cfg := testConfig()
	cfg.Docs = map[string][]string{
		"docs/auth.md": {"auth/*.py"},
	}
	cfg.Thresholds.DocAlert = 50

	r := New(root, cfg)
	_, err := r.Scan(context.Background(), nil)
	require.NoError(t, err)

	writeSource(t, root, "auth/login.py", loginV2)

	result, err := r.Scan(context.Background(), nil)
	require.NoError(t, err)
	require.False(t, result.FirstRun)
	require.Len(t, result.Events, 1)

	ev := result.Events[0]
	require.Equal(t, models.EventModified, ev.Kind)
	require.Equal(t, "auth/login.py", ev.File)
	require.Equal(t, "login", ev.Function)
	require.Equal(t, 6, ev.Score)
	require.True(t, ev.Critical)
	require.Equal(t, models.SeverityHigh, ev.Severity)
	require.Contains(t, ev.Reasons, "side effects changed")

	require.Len(t, result.Alerts, 1)
	alert := result.Alerts[0]
	require.Equal(t, "docs/auth.md", alert.DocPath)
	require.True(t, alert.CriticalFound)
	require.Equal(t, []string{"login"}, alert.Functions)

	require.Equal(t, 1, result.Summary.Modified)
	require.Equal(t, 1, result.Summary.CriticalCount)
	require.Equal(t, 6, result.Summary.TotalScore)
}

func TestScanReportsAddedAndRemovedFunctions(t *testing.T) {
	root := t.TempDir()
	writeSource(t, root, "api.py", "def fetch():\n    return 1\n\ndef _helper():\n    return 2\n")

	r := New(root, testConfig())
	_, err := r.Scan(context.Background(), nil)
	require.NoError(t, err)

	writeSource(t, root, "api.py", "def fetch():\n    return 1\n\ndef publish():\n    return 3\n")

	result, err := r.Scan(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, result.Events, 3)

	byFunc := map[string]models.ChangeEvent{}
	for _, ev := range result.Events {
		byFunc[ev.Function] = ev
	}

	require.Equal(t, models.EventUnchanged, byFunc["fetch"].Kind)

	added := byFunc["publish"]
	require.Equal(t, models.EventAdded, added.Kind)
	require.Equal(t, 5, added.Score)
	require.True(t, added.Critical)

	removed := byFunc["_helper"]
	require.Equal(t, models.EventRemoved, removed.Kind)
	require.Equal(t, 0, removed.Score)
	require.False(t, removed.Critical)
}

func TestScanSkipsUnparseableFiles(t *testing.T) {
	root := t.TempDir()
	writeSource(t, root, "good.py", "def ok():\n    return 1\n")
	writeSource(t, root, "bad.py", "def broken(:\n")

	r := New(root, testConfig())

	result, err := r.Scan(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, result.Skipped, 1)
	require.Equal(t, "bad.py", result.Skipped[0].Path)
	require.Equal(t, "syntax errors", result.Skipped[0].Reason)
	require.Equal(t, 1, result.Summary.FilesScanned)
	require.Equal(t, 1, result.Summary.FilesSkipped)
}

func TestScanCancelledContext(t *testing.T) {
	root := t.TempDir()
	writeSource(t, root, "app.py", loginV1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(root, testConfig()).Scan(ctx, nil)
	require.ErrorIs(t, err, context.Canceled)
}

func TestRebuildBaseline(t *testing.T) {
	root := t.TempDir()
	writeSource(t, root, "app.py", loginV1)

	r := New(root, testConfig())

	stats, skipped, err := r.RebuildBaseline(context.Background(), nil)
	require.NoError(t, err)
	require.Empty(t, skipped)
	require.Equal(t, 1, stats.FilesAdded)
	require.Equal(t, 1, stats.FunctionsAdded)

	writeSource(t, root, "app.py", loginV2)

	stats, _, err = r.RebuildBaseline(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, 1, stats.FilesChanged)
	require.Equal(t, 1, stats.FunctionsChanged)
}

func TestWithBaselineDir(t *testing.T) {
	root := t.TempDir()
	custom := filepath.Join(t.TempDir(), "state")
	writeSource(t, root, "app.py", loginV1)

	r := New(root, testConfig(), WithBaselineDir(custom))
	require.Equal(t, filepath.Join(custom, "baseline.json"), r.BaselinePath())

	_, err := r.Scan(context.Background(), nil)
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(custom, "baseline.json"))
	require.NoError(t, err)
}
