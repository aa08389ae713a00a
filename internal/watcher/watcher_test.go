package watcher

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/starford/docsauthor/internal/redirect"
	"github.com/starford/docsauthor/internal/testutil"
)

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

type plans struct {
	mu      sync.Mutex
	reports []*redirect.Report
}

func (p *plans) add(r *redirect.Report, err error) {
	if err != nil {
		return
	}
	p.mu.Lock()
	p.reports = append(p.reports, r)
	p.mu.Unlock()
}

func (p *plans) last() *redirect.Report {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.reports) == 0 {
		return nil
	}
	return p.reports[len(p.reports)-1]
}

func (p *plans) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.reports)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func startWatch(t *testing.T, root string, p *plans) {
	t.Helper()
	gen := redirect.NewGenerator(filepath.Join(t.TempDir(), "Redirects"), redirect.WithLogger(testLogger()))
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go Watch(ctx, gen, root, 50*time.Millisecond, testLogger(), p.add)
	time.Sleep(100 * time.Millisecond)
}

func TestWatcher_NewRedirectPlanned(t *testing.T) {
	root, store := testutil.TestRepo(t, "repo")
	p := &plans{}
	startWatch(t, root, p)

	testutil.WriteDoc(t, store, "moved.md", "/new/moved")

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		r := p.last()
		return r != nil && len(r.Added) == 1 && r.Added[0].SourcePath == "moved.md"
	}, "expected a plan adding moved.md")

	if ok, _ := store.Exists("moved.md"); !ok {
		t.Error("watcher must only plan, never archive")
	}
}

func TestWatcher_NewDirWatched(t *testing.T) {
	root, store := testutil.TestRepo(t, "repo")
	p := &plans{}
	startWatch(t, root, p)

	_ = os.MkdirAll(filepath.Join(root, "sub"), 0o755)
	time.Sleep(200 * time.Millisecond)
	testutil.WriteDoc(t, store, "sub/deep.md", "/deep")

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		r := p.last()
		return r != nil && len(r.Added) == 1 && r.Added[0].SourcePath == "sub/deep.md"
	}, "document in new subdirectory not planned")
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	root, _ := testutil.TestRepo(t, "repo")
	p := &plans{}
	startWatch(t, root, p)

	_ = os.WriteFile(filepath.Join(root, "notes.txt"), []byte("x"), 0o644)
	_ = os.WriteFile(filepath.Join(root, ".git", "HEAD.md"), []byte("x"), 0o644)
	time.Sleep(400 * time.Millisecond)

	if n := p.count(); n != 0 {
		t.Errorf("plans = %d, want 0", n)
	}
}

func TestWatcher_Debounces(t *testing.T) {
	root, store := testutil.TestRepo(t, "repo")
	p := &plans{}
	gen := redirect.NewGenerator(filepath.Join(t.TempDir(), "Redirects"), redirect.WithLogger(testLogger()))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go Watch(ctx, gen, root, 300*time.Millisecond, testLogger(), p.add)
	time.Sleep(100 * time.Millisecond)

	for _, name := range []string{"a.md", "b.md", "c.md"} {
		testutil.WriteDoc(t, store, name, "/"+name)
	}

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		r := p.last()
		return r != nil && len(r.Added) == 3
	}, "expected one plan covering all three documents")
	if n := p.count(); n != 1 {
		t.Errorf("plans = %d, want 1", n)
	}
}

func TestIgnored(t *testing.T) {
	root := filepath.FromSlash("/repo")
	cases := map[string]bool{
		filepath.FromSlash("/repo/docs/a.md"):    false,
		filepath.FromSlash("/repo/.git/index"):   true,
		filepath.FromSlash("/repo/.github/a.md"): false,
		filepath.FromSlash("/repo/.git"):         true,
	}
	for path, want := range cases {
		if got := ignored(root, path); got != want {
			t.Errorf("ignored(%q) = %v, want %v", path, got, want)
		}
	}
}
