package assets_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crab.casa/puzzle-tournament/internal/assets"
)

func TestLoadDictionaryLowercasesAndTrims(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dict.txt")
	require.NoError(t, os.WriteFile(path, []byte("Chou\nest\n\n  pain \n"), 0o644))

	d, err := assets.LoadDictionary(path)
	require.NoError(t, err)
	assert.True(t, d.Has("chou"))
	assert.True(t, d.Has("pain"))
	assert.False(t, d.Has("Chou"))
}

func TestLoadMazeCatalogUnescapesNewlines(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mazes.txt")
	require.NoError(t, os.WriteFile(path, []byte(`#I#\n# #\n#X#`+"\n"), 0o644))

	c, err := assets.LoadMazeCatalog(path)
	require.NoError(t, err)
	require.Len(t, c.Grids(), 1)
	assert.Equal(t, "#I#\n# #\n#X#", c.Grids()[0])
}

func TestLoadDictionaryMissingFileReportsAssetUnavailable(t *testing.T) {
	_, err := assets.LoadDictionary(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}
