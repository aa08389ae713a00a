package internal

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/starford/docsauthor/internal/apperr"
	"github.com/starford/docsauthor/internal/console"
	"github.com/starford/docsauthor/internal/testutil"
)

func testConfig(t *testing.T, root string) *Config {
	t.Helper()
	cfg := NewDefaultConfig()
	base := t.TempDir()
	cfg.Workspace.Root = root
	cfg.Authoring.Home = filepath.Join(base, HomeDirName)
	cfg.History.Path = filepath.Join(base, "data", "history.db")
	return cfg
}

func testApp(t *testing.T, cfg *Config) *App {
	t.Helper()
	a, err := New(WithConfig(cfg), WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a
}

func TestNew_RequiresConfig(t *testing.T) {
	if _, err := New(); err == nil {
		t.Fatal("expected error without config")
	}
}

func TestNew_GeneratesIntoConfiguredHome(t *testing.T) {
	root, repo := testutil.TestRepo(t, "repo")
	testutil.WriteDoc(t, repo, "a.md", "/a")
	cfg := testConfig(t, root)
	a := testApp(t, cfg)

	report, err := a.Service().GenerateRedirects(context.Background(), "", false)
	if err != nil {
		t.Fatalf("GenerateRedirects: %v", err)
	}
	if filepath.Dir(report.ArchiveDir) != cfg.Authoring.RedirectsPath() {
		t.Errorf("archive dir = %q, want below %q", report.ArchiveDir, cfg.Authoring.RedirectsPath())
	}
	runs, err := a.Service().History(context.Background(), 5)
	if err != nil || len(runs) != 1 {
		t.Errorf("runs = %+v, err = %v", runs, err)
	}
}

func TestWatch_NoWorkspace(t *testing.T) {
	a := testApp(t, testConfig(t, ""))
	err := a.Watch(context.Background(), "", nil)
	if !errors.Is(err, apperr.ErrNoWorkspace) {
		t.Fatalf("err = %v, want ErrNoWorkspace", err)
	}
}

func TestWatch_NotRepoRoot(t *testing.T) {
	a := testApp(t, testConfig(t, ""))
	err := a.Watch(context.Background(), t.TempDir(), nil)
	if !errors.Is(err, apperr.ErrNotRepoRoot) {
		t.Fatalf("err = %v, want ErrNotRepoRoot", err)
	}
}

func TestServe_RequiresBroker(t *testing.T) {
	cfg := testConfig(t, "")
	a, err := New(WithConfig(cfg), WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))), WithPublisher(console.NewPublisher(console.NewReporter(io.Discard))))
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()
	if err := a.Serve(context.Background()); err == nil {
		t.Fatal("expected error without broker")
	}
}
