package redirect

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/starford/docsauthor/internal/apperr"
	"github.com/starford/docsauthor/internal/history"
	"github.com/starford/docsauthor/internal/models"
	"github.com/starford/docsauthor/internal/storage"
)

// Progress receives the human-readable status lines of a run.
type Progress func(line string)

// Recorder persists the outcome of a completed run.
type Recorder interface {
	Record(ctx context.Context, run history.Run) (int64, error)
}

// Report summarises one run.
type Report struct {
	Root            string                 `json:"root"`
	ManifestPath    string                 `json:"manifest_path"`
	DryRun          bool                   `json:"dry_run"`
	StartedAt       time.Time              `json:"started_at"`
	ManifestCreated bool                   `json:"manifest_created"`
	ManifestWritten bool                   `json:"manifest_written"`
	Manifest        models.Manifest        `json:"manifest"`
	Added           []models.Candidate     `json:"added"`
	Existing        []models.Candidate     `json:"existing"`
	DocumentErrors  []models.DocumentError `json:"document_errors,omitempty"`
	ArchiveDir      string                 `json:"archive_dir,omitempty"`
	Archived        []models.ArchiveResult `json:"archived,omitempty"`
	RunID           int64                  `json:"run_id,omitempty"`
}

// Candidates returns every candidate of the run, added ones first.
func (r *Report) Candidates() []models.Candidate {
	out := make([]models.Candidate, 0, len(r.Added)+len(r.Existing))
	out = append(out, r.Added...)
	return append(out, r.Existing...)
}

// Generator runs reconciliations. Runs on one Generator are serialised.
type Generator struct {
	archiveRoot string
	workers     int
	recorder    Recorder
	logger      *slog.Logger
	now         func() time.Time

	mu sync.Mutex
}

// GeneratorOption configures a Generator.
type GeneratorOption func(*Generator)

// WithWorkers bounds the number of concurrent reads and moves.
func WithWorkers(n int) GeneratorOption {
	return func(g *Generator) { g.workers = n }
}

// WithRecorder records every non-dry run.
func WithRecorder(r Recorder) GeneratorOption {
	return func(g *Generator) { g.recorder = r }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) GeneratorOption {
	return func(g *Generator) { g.logger = l }
}

// WithClock overrides the time source used for archive folder names.
func WithClock(now func() time.Time) GeneratorOption {
	return func(g *Generator) { g.now = now }
}

// NewGenerator creates a generator that archives redirected documents into
// per-run folders below archiveRoot.
func NewGenerator(archiveRoot string, opts ...GeneratorOption) *Generator {
	g := &Generator{
		archiveRoot: archiveRoot,
		workers:     8,
		logger:      slog.Default(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// OpenRepo validates that root is the root folder of a repository and
// returns a storage provider for it.
func OpenRepo(root string) (*storage.FS, error) {
	if root == "" {
		return nil, apperr.ErrNoWorkspace
	}
	repo, err := storage.NewFS(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrNoWorkspace, err)
	}
	if _, err := os.Stat(filepath.Join(repo.Root(), storage.VCSMarker)); err != nil {
		return nil, apperr.ErrNotRepoRoot
	}
	return repo, nil
}

// Run reconciles the master redirection file of the repository at root.
//
// With dryRun the run stops after the merge: nothing is written, moved or
// recorded. A corrupt manifest aborts the run before anything is written.
// Archive failures are returned joined together with a non-nil report; the
// manifest stays written.
func (g *Generator) Run(ctx context.Context, root string, dryRun bool, progress Progress) (*Report, error) {
	if progress == nil {
		progress = func(string) {}
	}

	repo, err := OpenRepo(root)
	if err != nil {
		return nil, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	report := &Report{
		Root:      repo.Root(),
		DryRun:    dryRun,
		StartedAt: g.now(),
	}
	report.ManifestPath, _ = repo.Abs(models.ManifestFileName)

	progress("Generating Master Redirection file.")
	g.logger.Info("redirect: scan started", slog.String("root", repo.Root()), slog.Bool("dry_run", dryRun))

	candidates, docErrs, err := Collect(ctx, repo, g.workers)
	if err != nil {
		return nil, fmt.Errorf("redirect: scan: %w", err)
	}
	report.DocumentErrors = docErrs
	for _, de := range docErrs {
		g.logger.Warn("redirect: front matter skipped", slog.String("path", de.Path), slog.String("error", de.Message))
	}

	if len(candidates) == 0 {
		progress("No redirection files found.")
		reportDocumentErrors(report, progress)
		return report, nil
	}

	existing, exists, err := LoadManifest(repo)
	if err != nil {
		return nil, err
	}
	report.ManifestCreated = !exists
	if !exists {
		if dryRun {
			progress("A new redirection file would be created.")
		} else {
			progress("Created new redirection file.")
		}
	}

	merged, status := Reconcile(existing, candidates)
	report.Manifest = merged
	for _, c := range status {
		if c.AlreadyInManifest {
			report.Existing = append(report.Existing, c)
		} else {
			report.Added = append(report.Added, c)
		}
	}

	if len(merged.Redirections) == 0 {
		return report, nil
	}

	if dryRun {
		for _, c := range status {
			announce(progress, c)
		}
		reportDocumentErrors(report, progress)
		return report, nil
	}

	if err := SaveManifest(repo, merged); err != nil {
		return nil, err
	}
	report.ManifestWritten = true

	archErr := g.archive(ctx, repo, report, status)

	for _, c := range status {
		announce(progress, c)
	}
	if report.ArchiveDir != "" {
		progress("Redirected files copied to " + report.ArchiveDir)
	}
	reportDocumentErrors(report, progress)
	progress("Master redirection file has been created.")

	g.record(ctx, report)

	g.logger.Info("redirect: run finished",
		slog.String("root", report.Root),
		slog.Int("added", len(report.Added)),
		slog.Int("existing", len(report.Existing)),
		slog.Int("document_errors", len(report.DocumentErrors)))

	return report, archErr
}

func (g *Generator) archive(ctx context.Context, repo storage.Provider, report *Report, status []models.Candidate) error {
	dir := filepath.Join(g.archiveRoot, ArchiveDirName(filepath.Base(repo.Root()), report.StartedAt))
	dst, err := storage.EnsureFS(dir)
	if err != nil {
		g.logger.Error("redirect: create archive dir failed", slog.String("dir", dir), slog.String("error", err.Error()))
		report.Archived = make([]models.ArchiveResult, len(status))
		errs := make([]error, len(status))
		for i, c := range status {
			report.Archived[i] = models.ArchiveResult{SourcePath: c.SourcePath, Error: err.Error()}
			errs[i] = &apperr.ArchiveError{SourcePath: c.SourcePath, Err: err}
		}
		return errors.Join(errs...)
	}
	report.ArchiveDir = dst.Root()

	results, archErr := Archive(ctx, repo, dst, status, g.workers)
	report.Archived = results
	for _, r := range results {
		if r.Error != "" {
			g.logger.Warn("redirect: archive failed", slog.String("path", r.SourcePath), slog.String("error", r.Error))
		}
	}
	return archErr
}

func (g *Generator) record(ctx context.Context, report *Report) {
	if g.recorder == nil {
		return
	}
	run := history.Run{
		Root:            report.Root,
		ArchiveDir:      report.ArchiveDir,
		ManifestCreated: report.ManifestCreated,
		StartedAt:       report.StartedAt,
	}
	archived := make(map[string]models.ArchiveResult, len(report.Archived))
	for _, a := range report.Archived {
		archived[a.SourcePath] = a
	}
	for _, c := range report.Candidates() {
		e := history.Entry{
			SourcePath:  c.SourcePath,
			RedirectURL: c.RedirectURL,
			Status:      history.StatusAdded,
		}
		if c.AlreadyInManifest {
			e.Status = history.StatusExisting
		}
		if a, ok := archived[c.SourcePath]; ok {
			e.ArchivedTo, e.Checksum, e.Error = a.ArchivedTo, a.Checksum, a.Error
		}
		run.Entries = append(run.Entries, e)
	}
	id, err := g.recorder.Record(ctx, run)
	if err != nil {
		g.logger.Warn("redirect: record history failed", slog.String("error", err.Error()))
		return
	}
	report.RunID = id
}

func announce(progress Progress, c models.Candidate) {
	if c.AlreadyInManifest {
		progress("Already in master redirection file: " + c.AbsolutePath)
	} else {
		progress("Added to master redirection file. " + c.AbsolutePath)
	}
}

func reportDocumentErrors(report *Report, progress Progress) {
	for _, de := range report.DocumentErrors {
		progress("Skipped " + de.Path + ": " + de.Message)
	}
}
