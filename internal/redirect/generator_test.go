package redirect

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/starford/docsauthor/internal/apperr"
	"github.com/starford/docsauthor/internal/models"
	"github.com/starford/docsauthor/internal/storage"
	"github.com/starford/docsauthor/internal/testutil"
)

var fixedTime = time.Date(2026, time.March, 7, 9, 5, 30, 42_000_000, time.Local)

func testGenerator(t *testing.T, opts ...GeneratorOption) (*Generator, string) {
	t.Helper()
	archiveRoot := filepath.Join(t.TempDir(), "Docs Authoring", "Redirects")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	opts = append([]GeneratorOption{WithLogger(logger), WithClock(func() time.Time { return fixedTime })}, opts...)
	return NewGenerator(archiveRoot, opts...), archiveRoot
}

func collectLines() (*[]string, Progress) {
	var lines []string
	return &lines, func(line string) { lines = append(lines, line) }
}

func TestRun_NoWorkspace(t *testing.T) {
	g, _ := testGenerator(t)
	_, err := g.Run(context.Background(), "", false, nil)
	if !errors.Is(err, apperr.ErrNoWorkspace) {
		t.Fatalf("err = %v, want ErrNoWorkspace", err)
	}
}

func TestRun_NotRepoRoot(t *testing.T) {
	g, _ := testGenerator(t)
	dir := t.TempDir()
	_ = os.WriteFile(filepath.Join(dir, "a.md"), []byte("---\nredirect_url: /a\n---\n"), 0o644)

	_, err := g.Run(context.Background(), dir, false, nil)
	if !errors.Is(err, apperr.ErrNotRepoRoot) {
		t.Fatalf("err = %v, want ErrNotRepoRoot", err)
	}
	if _, statErr := os.Stat(filepath.Join(dir, "a.md")); statErr != nil {
		t.Error("document must not be touched")
	}
}

// Scenario A.
func TestRun_EmptyRepositoryWritesNothing(t *testing.T) {
	g, archiveRoot := testGenerator(t)
	root, store := testutil.TestRepo(t, "repo")
	lines, progress := collectLines()

	report, err := g.Run(context.Background(), root, false, progress)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.ManifestWritten {
		t.Error("manifest should not be written")
	}
	if ok, _ := store.Exists(models.ManifestFileName); ok {
		t.Error("manifest file created for empty repository")
	}
	if _, err := os.Stat(archiveRoot); !os.IsNotExist(err) {
		t.Error("archive root should not be created")
	}
	if (*lines)[len(*lines)-1] != "No redirection files found." {
		t.Errorf("lines = %v", *lines)
	}
}

// Scenario B.
func TestRun_NewManifest(t *testing.T) {
	g, archiveRoot := testGenerator(t)
	root, store := testutil.TestRepo(t, "repo")
	testutil.WriteDoc(t, store, "docs/a.md", "/new/a")
	lines, progress := collectLines()

	report, err := g.Run(context.Background(), root, false, progress)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	data, err := store.Read(models.ManifestFileName)
	if err != nil {
		t.Fatalf("manifest missing: %v", err)
	}
	want := "{\n    \"redirections\": [\n        {\n            \"source_path\": \"docs/a.md\",\n            \"redirect_url\": \"/new/a\",\n            \"redirect_document_id\": false\n        }\n    ]\n}"
	if string(data) != want {
		t.Errorf("manifest =\n%s", data)
	}
	if !report.ManifestCreated || len(report.Added) != 1 {
		t.Errorf("report = %+v", report)
	}

	if ok, _ := store.Exists("docs/a.md"); ok {
		t.Error("docs/a.md should be archived")
	}
	archiveDir := filepath.Join(archiveRoot, "repo_deleted_redirects_2026-3-7_9-5-42")
	if report.ArchiveDir != archiveDir {
		t.Errorf("archive dir = %q, want %q", report.ArchiveDir, archiveDir)
	}
	if _, err := os.Stat(filepath.Join(archiveDir, "a.md")); err != nil {
		t.Errorf("archived copy missing: %v", err)
	}

	joined := strings.Join(*lines, "\n")
	for _, l := range []string{
		"Generating Master Redirection file.",
		"Created new redirection file.",
		"Added to master redirection file. " + filepath.Join(root, "docs", "a.md"),
		"Redirected files copied to " + archiveDir,
		"Master redirection file has been created.",
	} {
		if !strings.Contains(joined, l) {
			t.Errorf("missing progress line %q in:\n%s", l, joined)
		}
	}
}

// Scenario C.
func TestRun_ExistingEntryKeepsURL(t *testing.T) {
	g, _ := testGenerator(t)
	root, store := testutil.TestRepo(t, "repo")
	existing := models.Manifest{Redirections: []models.Redirection{{SourcePath: "docs/a.md", RedirectURL: "/old/a"}}}
	if err := SaveManifest(store, existing); err != nil {
		t.Fatal(err)
	}
	testutil.WriteDoc(t, store, "docs/a.md", "/new/a")
	lines, progress := collectLines()

	report, err := g.Run(context.Background(), root, false, progress)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	m, _, _ := LoadManifest(store)
	if len(m.Redirections) != 1 || m.Redirections[0].RedirectURL != "/old/a" {
		t.Errorf("manifest = %+v", m)
	}
	if len(report.Existing) != 1 || report.ManifestCreated {
		t.Errorf("report = %+v", report)
	}
	if ok, _ := store.Exists("docs/a.md"); ok {
		t.Error("existing candidate should still be archived")
	}
	if !strings.Contains(strings.Join(*lines, "\n"), "Already in master redirection file: ") {
		t.Errorf("lines = %v", *lines)
	}
}

// Scenario D.
func TestRun_CorruptManifestAborts(t *testing.T) {
	g, archiveRoot := testGenerator(t)
	root, store := testutil.TestRepo(t, "repo")
	corrupt := []byte(`{"redirections": [ oops`)
	_ = store.Write(models.ManifestFileName, corrupt)
	testutil.WriteDoc(t, store, "docs/a.md", "/new/a")

	_, err := g.Run(context.Background(), root, false, nil)
	if !errors.Is(err, apperr.ErrManifestCorrupt) {
		t.Fatalf("err = %v, want ErrManifestCorrupt", err)
	}
	data, _ := store.Read(models.ManifestFileName)
	if string(data) != string(corrupt) {
		t.Error("corrupt manifest was modified")
	}
	if ok, _ := store.Exists("docs/a.md"); !ok {
		t.Error("document must not be archived")
	}
	if _, err := os.Stat(archiveRoot); !os.IsNotExist(err) {
		t.Error("archive root should not be created")
	}
}

func TestRun_IdempotentAfterInterruptedArchive(t *testing.T) {
	g, _ := testGenerator(t)
	root, store := testutil.TestRepo(t, "repo")
	testutil.WriteDoc(t, store, "docs/a.md", "/new/a")
	testutil.WriteDoc(t, store, "docs/b.md", "/new/b")

	if _, err := g.Run(context.Background(), root, false, nil); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	first, _ := store.Read(models.ManifestFileName)

	// The copy happened but the delete did not: the document is back.
	testutil.WriteDoc(t, store, "docs/a.md", "/new/a")
	report, err := g.Run(context.Background(), root, false, nil)
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	second, _ := store.Read(models.ManifestFileName)
	if string(first) != string(second) {
		t.Errorf("manifest changed on rerun:\n%s\n---\n%s", first, second)
	}
	if len(report.Added) != 0 || len(report.Existing) != 1 {
		t.Errorf("report = %+v", report)
	}
}

func TestRun_PreservesMixedCaseURL(t *testing.T) {
	g, _ := testGenerator(t)
	root, store := testutil.TestRepo(t, "repo")
	_ = store.Write("Docs/Page.md", []byte("---\nRedirect_Url: https://Learn.Example.com/Azure/New-Page\n---\n"))

	if _, err := g.Run(context.Background(), root, false, nil); err != nil {
		t.Fatalf("Run: %v", err)
	}
	m, _, _ := LoadManifest(store)
	if len(m.Redirections) != 1 {
		t.Fatalf("manifest = %+v", m)
	}
	if m.Redirections[0].SourcePath != "Docs/Page.md" || m.Redirections[0].RedirectURL != "https://Learn.Example.com/Azure/New-Page" {
		t.Errorf("entry = %+v", m.Redirections[0])
	}
}

func TestRun_DryRunTouchesNothing(t *testing.T) {
	db := testutil.TestDB(t)
	g, archiveRoot := testGenerator(t, WithRecorder(db))
	root, store := testutil.TestRepo(t, "repo")
	testutil.WriteDoc(t, store, "docs/a.md", "/new/a")

	report, err := g.Run(context.Background(), root, true, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !report.DryRun || report.ManifestWritten || len(report.Added) != 1 {
		t.Errorf("report = %+v", report)
	}
	if len(report.Manifest.Redirections) != 1 {
		t.Errorf("planned manifest = %+v", report.Manifest)
	}
	if ok, _ := store.Exists(models.ManifestFileName); ok {
		t.Error("dry run wrote the manifest")
	}
	if ok, _ := store.Exists("docs/a.md"); !ok {
		t.Error("dry run archived the document")
	}
	if _, err := os.Stat(archiveRoot); !os.IsNotExist(err) {
		t.Error("dry run created the archive root")
	}
	runs, _ := db.ListRuns(context.Background(), 10)
	if len(runs) != 0 {
		t.Errorf("dry run recorded history: %+v", runs)
	}
}

func TestRun_RecordsHistory(t *testing.T) {
	db := testutil.TestDB(t)
	g, _ := testGenerator(t, WithRecorder(db))
	root, store := testutil.TestRepo(t, "repo")
	testutil.WriteDoc(t, store, "docs/a.md", "/new/a")

	report, err := g.Run(context.Background(), root, false, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.RunID == 0 {
		t.Fatal("run id not set")
	}
	run, err := db.GetRun(context.Background(), report.RunID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if run.Added != 1 || len(run.Entries) != 1 || run.Entries[0].ArchivedTo == "" || run.Entries[0].Checksum == "" {
		t.Errorf("run = %+v", run)
	}
}

func TestRun_CollidingBaseNames(t *testing.T) {
	g, _ := testGenerator(t)
	root, store := testutil.TestRepo(t, "repo")
	testutil.WriteDoc(t, store, "docs/a/index.md", "/new/a")
	testutil.WriteDoc(t, store, "docs/b/index.md", "/new/b")

	report, err := g.Run(context.Background(), root, false, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	archive, _ := storage.NewFS(report.ArchiveDir)
	for _, name := range []string{"docs_a_index.md", "docs_b_index.md"} {
		if ok, _ := archive.Exists(name); !ok {
			t.Errorf("%s missing from archive", name)
		}
	}
}

func TestRun_DocumentErrorsReported(t *testing.T) {
	g, _ := testGenerator(t)
	root, store := testutil.TestRepo(t, "repo")
	_ = store.Write("broken.md", []byte("---\ntitle: [oops\n---\n"))
	testutil.WriteDoc(t, store, "ok.md", "/ok")
	lines, progress := collectLines()

	report, err := g.Run(context.Background(), root, false, progress)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(report.DocumentErrors) != 1 || report.DocumentErrors[0].Path != "broken.md" {
		t.Errorf("document errors = %+v", report.DocumentErrors)
	}
	if len(report.Added) != 1 {
		t.Errorf("added = %+v", report.Added)
	}
	if !strings.Contains(strings.Join(*lines, "\n"), "Skipped broken.md: ") {
		t.Errorf("lines = %v", *lines)
	}
}
