// Package authoring coordinates the authoring commands for the HTTP and MCP
// surfaces: redirect generation, run history, snippets and templates.
package authoring

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/starford/docsauthor/internal/apperr"
	"github.com/starford/docsauthor/internal/history"
	"github.com/starford/docsauthor/internal/models"
	"github.com/starford/docsauthor/internal/redirect"
	"github.com/starford/docsauthor/internal/snippet"
	"github.com/starford/docsauthor/internal/sse"
	"github.com/starford/docsauthor/internal/storage"
	"github.com/starford/docsauthor/internal/template"
)

// Telemetry command names, logged once per invocation.
const (
	CommandRedirect      = "masterRedirect"
	CommandVideo         = "insertMedia.video"
	CommandImage         = "insertMedia.art"
	CommandExternal      = "insertLink.external"
	CommandInternal      = "insertLink.internal"
	CommandDownload      = "downloadTemplates"
	CommandCleanTemplate = "cleanupTemplates"
)

// Publisher receives progress lines and events. *sse.Broker implements it.
type Publisher interface {
	Publish(event sse.Event)
	PublishProgress(line string)
	PublishPlan(plan any)
}

// Deps holds the collaborators of a Service. Ledger, Templates and
// Publisher may be nil. TemplatesDir defaults to the templates folder of Home.
type Deps struct {
	Root         string
	Home         string
	TemplatesDir string
	Generator    *redirect.Generator
	Ledger       history.Ledger
	Templates    *template.Downloader
	Publisher    Publisher
	Logger       *slog.Logger
}

// Service implements the authoring operations on top of a default workspace
// root.
type Service struct {
	root      string
	home      string
	tmplDir   string
	gen       *redirect.Generator
	ledger    history.Ledger
	templates *template.Downloader
	pub       Publisher
	logger    *slog.Logger
}

// NewService creates a new authoring service.
func NewService(d Deps) *Service {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	tmplDir := d.TemplatesDir
	if tmplDir == "" {
		tmplDir = template.CleanDir(d.Home, true)
	}
	return &Service{
		root:      d.Root,
		home:      d.Home,
		tmplDir:   tmplDir,
		gen:       d.Generator,
		ledger:    d.Ledger,
		templates: d.Templates,
		pub:       d.Publisher,
		logger:    logger,
	}
}

// Root returns the default workspace root.
func (s *Service) Root() string { return s.root }

// resolveRoot returns the configured workspace root, or root when it is the
// workspace or a folder below it. Requests cannot reach other directories.
func (s *Service) resolveRoot(root string) (string, error) {
	if root == "" {
		return s.root, nil
	}
	if s.root == "" {
		return "", apperr.ErrNoWorkspace
	}
	ws, err := filepath.Abs(s.root)
	if err != nil {
		return "", fmt.Errorf("authoring: workspace root: %w", err)
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", apperr.Invalid(fmt.Errorf("root %q: %w", root, err))
	}
	rel, err := filepath.Rel(ws, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", apperr.Invalid(fmt.Errorf("root %q is outside the workspace %s", root, ws))
	}
	return abs, nil
}

func (s *Service) openRepo(root string) (*storage.FS, error) {
	resolved, err := s.resolveRoot(root)
	if err != nil {
		return nil, err
	}
	return redirect.OpenRepo(resolved)
}

func (s *Service) telemetry(command string) {
	s.logger.Info("telemetry: command", slog.String("command", command))
}

// GenerateRedirects runs a reconciliation on root, or the default root when
// empty. Progress lines are forwarded to the publisher.
func (s *Service) GenerateRedirects(ctx context.Context, root string, dryRun bool) (*redirect.Report, error) {
	s.telemetry(CommandRedirect)
	var progress redirect.Progress
	if s.pub != nil {
		progress = s.pub.PublishProgress
	}
	var report *redirect.Report
	resolved, err := s.resolveRoot(root)
	if err == nil {
		report, err = s.gen.Run(ctx, resolved, dryRun, progress)
	}
	if s.pub != nil {
		if err != nil {
			s.pub.Publish(sse.Event{Type: sse.TypeFailed, Data: map[string]string{"error": err.Error()}})
		}
		if report != nil {
			s.pub.Publish(sse.Event{Type: sse.TypeCompleted, Data: report})
		}
	}
	return report, err
}

// PublishPlan forwards a watcher plan to the publisher.
func (s *Service) PublishPlan(report *redirect.Report, err error) {
	if s.pub == nil || err != nil || report == nil {
		return
	}
	s.pub.PublishPlan(report)
}

// Manifest returns the master redirection file of root. A repository
// without one yields ErrNotFound.
func (s *Service) Manifest(_ context.Context, root string) (*models.Manifest, error) {
	repo, err := s.openRepo(root)
	if err != nil {
		return nil, err
	}
	m, exists, err := redirect.LoadManifest(repo)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, apperr.ErrNotFound
	}
	return &m, nil
}

// History returns the most recent runs, newest first.
func (s *Service) History(ctx context.Context, limit int) ([]history.Run, error) {
	if s.ledger == nil {
		return []history.Run{}, nil
	}
	runs, err := s.ledger.ListRuns(ctx, limit)
	if err != nil {
		return nil, err
	}
	return nonNilSlice(runs), nil
}

// Run returns one recorded run with its entries.
func (s *Service) Run(ctx context.Context, id int64) (*history.Run, error) {
	if s.ledger == nil {
		return nil, apperr.ErrNotFound
	}
	return s.ledger.GetRun(ctx, id)
}

// DocumentHistory returns every recorded outcome for one source path.
func (s *Service) DocumentHistory(ctx context.Context, sourcePath string) ([]history.Entry, error) {
	if s.ledger == nil {
		return []history.Entry{}, nil
	}
	entries, err := s.ledger.EntriesFor(ctx, sourcePath)
	if err != nil {
		return nil, err
	}
	return nonNilSlice(entries), nil
}

// SnippetResult is a built snippet and, when inserted, where it went.
type SnippetResult struct {
	Markdown string            `json:"markdown"`
	File     string            `json:"file,omitempty"`
	Position *snippet.Position `json:"position,omitempty"`
}

// BuildSnippet builds req against root. With pos set the snippet is also
// inserted into file, or into req.From when file is empty.
func (s *Service) BuildSnippet(_ context.Context, root string, req snippet.Request, file string, pos *snippet.Position) (*SnippetResult, error) {
	s.telemetry(snippetCommand(req.Kind))
	repo, err := s.openRepo(root)
	if err != nil {
		return nil, err
	}
	md, err := snippet.Build(repo, req)
	if err != nil {
		return nil, err
	}
	res := &SnippetResult{Markdown: md}
	if pos == nil {
		return res, nil
	}
	if file == "" {
		file = req.From
	}
	if file == "" {
		return nil, apperr.Invalid(errors.New("file: cannot be blank when inserting"))
	}
	if err := snippet.InsertAt(repo, file, *pos, md); err != nil {
		return nil, err
	}
	res.File, res.Position = file, pos
	return res, nil
}

// LinkTargets lists the documents, or images when image is set, of root.
func (s *Service) LinkTargets(_ context.Context, root string, image bool) ([]snippet.Target, error) {
	repo, err := s.openRepo(root)
	if err != nil {
		return nil, err
	}
	return snippet.ListTargets(repo, image)
}

// DownloadTemplates fetches the template repository into the authoring home.
func (s *Service) DownloadTemplates(ctx context.Context) (*template.Result, error) {
	s.telemetry(CommandDownload)
	if s.templates == nil {
		return nil, errors.New("authoring: template download is not configured")
	}
	res, err := s.templates.Download(ctx, s.home)
	if err != nil {
		return nil, err
	}
	if s.pub != nil {
		s.pub.Publish(sse.Event{Type: sse.TypeTemplates, Data: res})
	}
	return res, nil
}

// CleanTemplates deletes downloaded files from the authoring home, or from
// its templates folder.
func (s *Service) CleanTemplates(templates bool) ([]string, error) {
	s.telemetry(CommandCleanTemplate)
	dir := s.home
	if templates {
		dir = s.tmplDir
	}
	removed, err := template.Clean(dir)
	return nonNilSlice(removed), err
}

func snippetCommand(k snippet.Kind) string {
	switch k {
	case snippet.KindVideo:
		return CommandVideo
	case snippet.KindImage:
		return CommandImage
	case snippet.KindLink:
		return CommandInternal
	}
	return CommandExternal
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
