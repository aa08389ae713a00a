// Package testutil provides shared test helpers for setting up repositories
// and history databases.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/docsauthor/internal/history"
	"github.com/starford/docsauthor/internal/storage"
)

// TestDB creates a temporary history database that is automatically cleaned up.
func TestDB(t *testing.T) *history.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "docsauthor-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := history.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestRepo creates a temporary repository root (with a .git marker) named
// name and returns its path and a storage.Provider for it.
func TestRepo(t *testing.T, name string) (string, storage.Provider) {
	t.Helper()
	root := filepath.Join(t.TempDir(), name)
	if err := os.MkdirAll(filepath.Join(root, storage.VCSMarker), 0o755); err != nil {
		t.Fatal(err)
	}
	store, err := storage.NewFS(root)
	if err != nil {
		t.Fatal(err)
	}
	return root, store
}

// WriteDoc writes a Markdown document with the given front matter lines.
// An empty redirectURL writes a document without a redirect.
func WriteDoc(t *testing.T, store storage.Provider, rel, redirectURL string) {
	t.Helper()
	content := "---\ntitle: " + filepath.Base(rel) + "\n"
	if redirectURL != "" {
		content += "redirect_url: " + redirectURL + "\n"
	}
	content += "---\n# " + filepath.Base(rel) + "\n"
	if err := store.Write(rel, []byte(content)); err != nil {
		t.Fatal(err)
	}
}
