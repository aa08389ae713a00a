package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func tempRoot(t *testing.T) *FS {
	t.Helper()
	dir := t.TempDir()
	fs, err := NewFS(dir)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return fs
}

func TestWriteAndRead(t *testing.T) {
	s := tempRoot(t)
	content := []byte("---\nredirect_url: /a\n---\n# A\n")
	if err := s.Write("a.md", content); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read("a.md")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != string(content) {
		t.Errorf("content mismatch: got %q", got)
	}
}

func TestWriteCreatesSubdirs(t *testing.T) {
	s := tempRoot(t)
	if err := s.Write("docs/b/c.md", []byte("deep")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read("docs/b/c.md")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != "deep" {
		t.Errorf("content = %q", got)
	}
}

func TestDelete(t *testing.T) {
	s := tempRoot(t)
	_ = s.Write("del.md", []byte("bye"))
	if err := s.Delete("del.md"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	ok, err := s.Exists("del.md")
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if ok {
		t.Error("deleted file still exists")
	}
}

func TestFiles_SkipsVCSMarkerAndFilters(t *testing.T) {
	s := tempRoot(t)
	_ = s.Write("a.md", []byte("a"))
	_ = s.Write("sub/B.MD", []byte("b"))
	_ = s.Write("readme.txt", []byte("not md"))
	_ = s.Write(".git/notes.md", []byte("ignored"))

	files, err := s.Files("", func(rel string) bool {
		return strings.EqualFold(filepath.Ext(rel), ".md")
	})
	if err != nil {
		t.Fatalf("Files: %v", err)
	}
	if len(files) != 2 || files[0] != "a.md" || files[1] != "sub/B.MD" {
		t.Errorf("files = %v, want [a.md sub/B.MD]", files)
	}
}

func TestTraversalBlocked(t *testing.T) {
	s := tempRoot(t)

	cases := []string{
		"../../etc/passwd",
		"../outside.md",
		"/etc/shadow",
	}
	for _, p := range cases {
		if _, err := s.Read(p); err == nil {
			t.Errorf("expected error for path %q", p)
		}
		if err := s.Write(p, []byte("x")); err == nil {
			t.Errorf("expected error for write to %q", p)
		}
	}
}

func TestAtomicWriteLeavesNoTempFiles(t *testing.T) {
	s := tempRoot(t)
	_ = s.Write("m.json", []byte("original"))
	if err := s.Write("m.json", []byte("updated")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, _ := s.Read("m.json")
	if string(got) != "updated" {
		t.Errorf("expected updated content, got %q", got)
	}
	matches, _ := filepath.Glob(filepath.Join(s.Root(), ".docsauthor-tmp-*"))
	if len(matches) != 0 {
		t.Errorf("leftover temp files: %v", matches)
	}
}

func TestEnsureFS_CreatesRoot(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "Docs Authoring", "Redirects")
	s, err := EnsureFS(dir)
	if err != nil {
		t.Fatalf("EnsureFS: %v", err)
	}
	if _, err := os.Stat(s.Root()); err != nil {
		t.Errorf("root not created: %v", err)
	}
}

func TestNewFS_NonExistentDir(t *testing.T) {
	_, err := NewFS(filepath.Join(t.TempDir(), "missing"))
	if err == nil {
		t.Error("expected error for non-existent dir")
	}
}

func TestNewFS_FileNotDir(t *testing.T) {
	f, _ := os.CreateTemp("", "docsauthor-test-*")
	_ = f.Close()
	defer os.Remove(f.Name())
	_, err := NewFS(f.Name())
	if err == nil {
		t.Error("expected error when root is a file")
	}
}

func TestChecksum(t *testing.T) {
	a := Checksum([]byte("x"))
	if len(a) != 64 || a != Checksum([]byte("x")) || a == Checksum([]byte("y")) {
		t.Errorf("unexpected checksum %q", a)
	}
}
