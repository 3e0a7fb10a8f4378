package baseline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/docdrift/docdrift/pkg/fingerprint"
)

func fileResult(path, hash string, funcs ...string) *fingerprint.FileResult {
	fr := &fingerprint.FileResult{
		Path:       path,
		SourceHash: hash,
		Functions:  map[string]fingerprint.Fingerprint{},
	}
	for _, name := range funcs {
		id := fingerprint.NewIdentity(path, nil, name)
		fr.Functions[id.Key()] = fingerprint.Fingerprint{
			Identity: id,
			Public:   id.Public(),
			Digests:  fingerprint.Digests{Aggregate: path + ":" + name},
		}
	}
	return fr
}

func TestLoadAbsentIsNotAnError(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), ".docdrift"))

	snap, exists, err := store.Load()
	require.NoError(t, err)
	require.False(t, exists)
	require.Nil(t, snap)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), ".docdrift"))

	snap := NewSnapshot([]*fingerprint.FileResult{
		fileResult("app.py", "aaaa", "main", "_setup"),
		fileResult("lib.py", "bbbb", "helper"),
	})
	require.NoError(t, store.Save(snap))

	loaded, exists, err := store.Load()
	require.NoError(t, err)
	require.True(t, exists)
	require.Equal(t, snap.Version, loaded.Version)
	require.Len(t, loaded.Files, 2)
	require.Equal(t, "aaaa", loaded.Files["app.py"].SourceHash)
	require.Len(t, loaded.Functions(), 3)
}

func TestSaveLeavesNoTempFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), ".docdrift")
	store := NewStore(dir)

	require.NoError(t, store.Save(NewSnapshot(nil)))
	require.NoError(t, store.Save(NewSnapshot([]*fingerprint.FileResult{
		fileResult("app.py", "aaaa", "main"),
	})))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "baseline.json", entries[0].Name())
}

func TestLoadRejectsCorruptBaseline(t *testing.T) {
	dir := filepath.Join(t.TempDir(), ".docdrift")
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "baseline.json"), []byte("{not json"), 0644))

	_, _, err := NewStore(dir).Load()
	require.Error(t, err)
}

func TestReplaceStats(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), ".docdrift"))

	old := NewSnapshot([]*fingerprint.FileResult{
		fileResult("same.py", "hash1", "alpha"),
		fileResult("edited.py", "hash2", "beta", "gamma"),
		fileResult("gone.py", "hash3", "delta"),
	})

	edited := fileResult("edited.py", "hash2-new", "beta", "epsilon")
	// beta's body changed, epsilon replaces gamma
	key := fingerprint.NewIdentity("edited.py", nil, "beta").Key()
	fp := edited.Functions[key]
	fp.Digests.Aggregate = "different"
	edited.Functions[key] = fp

	_, stats, err := store.Replace(old, []*fingerprint.FileResult{
		fileResult("same.py", "hash1", "alpha"),
		edited,
		fileResult("new.py", "hash4", "zeta"),
	})
	require.NoError(t, err)

	require.Equal(t, 1, stats.FilesAdded)
	require.Equal(t, 1, stats.FilesRemoved)
	require.Equal(t, 1, stats.FilesChanged)
	require.Equal(t, 1, stats.FilesUnchanged)
	require.Equal(t, 3, stats.TotalFiles)

	require.Equal(t, 2, stats.FunctionsAdded)   // epsilon, zeta
	require.Equal(t, 2, stats.FunctionsRemoved) // gamma, delta
	require.Equal(t, 1, stats.FunctionsChanged) // beta
	require.Equal(t, 1, stats.FunctionsUnchanged)
	require.Equal(t, 4, stats.TotalFunctions)
}
