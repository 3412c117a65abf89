package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func createFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestScan_Directory(t *testing.T) {
	a := assert.New(t)

	dir := t.TempDir()
	createFiles(t, dir, "b.jpg", "a.png", "notes.txt", "sub/c.png")

	catalog, err := Scan(dir, nil)
	a.NoError(err)
	a.Equal(3, catalog.Length())
	a.Equal(0, catalog.StartIndex())

	a.Equal("a.png", catalog.FileName(0))
	a.Equal("b.jpg", catalog.FileName(1))
	a.Equal("c.png", catalog.FileName(2))
}

func TestScan_SingleFileSetsStartIndex(t *testing.T) {
	a := assert.New(t)

	dir := t.TempDir()
	createFiles(t, dir, "a.png", "b.png", "c.png")

	catalog, err := Scan(filepath.Join(dir, "b.png"), nil)
	a.NoError(err)
	a.Equal(3, catalog.Length())
	a.Equal(1, catalog.StartIndex())
}

func TestScan_UnsupportedFile(t *testing.T) {
	a := assert.New(t)

	dir := t.TempDir()
	createFiles(t, dir, "notes.txt")

	catalog, err := Scan(filepath.Join(dir, "notes.txt"), nil)
	a.NoError(err)
	a.True(catalog.IsEmpty())
}

func TestScan_PluginExtensions(t *testing.T) {
	a := assert.New(t)

	dir := t.TempDir()
	createFiles(t, dir, "scan.fits", "a.png")

	catalog, err := Scan(dir, []string{"fits"})
	a.NoError(err)
	a.Equal(2, catalog.Length())
}

func TestScan_MissingPath(t *testing.T) {
	a := assert.New(t)

	_, err := Scan(filepath.Join(t.TempDir(), "does-not-exist"), nil)
	a.Error(err)
}

func TestCatalog_PathAt(t *testing.T) {
	a := assert.New(t)

	dir := t.TempDir()
	createFiles(t, dir, "a.png")
	catalog, err := Scan(dir, nil)
	a.NoError(err)

	path, ok := catalog.PathAt(0)
	a.True(ok)
	a.True(filepath.IsAbs(path))

	_, ok = catalog.PathAt(1)
	a.False(ok)
	_, ok = catalog.PathAt(-1)
	a.False(ok)
}
