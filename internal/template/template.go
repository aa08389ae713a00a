// Package template downloads the authoring template repository into the
// authoring home directory and removes downloaded files again.
package template

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/starford/docsauthor/internal/storage"
)

// Defaults for the template repository.
const (
	DefaultBaseURL = "https://github.com"
	DefaultRepo    = "MicrosoftDocs/content-templates"
	DefaultBranch  = "master"

	// TemplatesDir is the folder of the repository holding the templates.
	TemplatesDir = "templates"

	maxArchiveSize = 256 << 20
)

// Extraction limits; an archive entry may inflate far beyond its compressed size.
var (
	maxEntrySize     int64 = 32 << 20
	maxExtractedSize int64 = 1 << 30
)

// ConnectError reports a failed download of the template repository.
type ConnectError struct {
	Repo string
	Err  error
}

func (e *ConnectError) Error() string {
	return "Error: Cannot connect to " + e.Repo
}

func (e *ConnectError) Unwrap() error { return e.Err }

// Result describes a completed download.
type Result struct {
	Repo  string   `json:"repo"`
	URL   string   `json:"url"`
	Dir   string   `json:"dir"`
	Files []string `json:"files"`
}

// Downloader fetches a repository snapshot as a zip archive.
type Downloader struct {
	baseURL string
	repo    string
	branch  string
	client  *http.Client
	logger  *slog.Logger
}

// NewDownloader creates a Downloader. Empty arguments fall back to the
// defaults; a nil client gets a 30 second timeout.
func NewDownloader(baseURL, repo, branch string, client *http.Client, logger *slog.Logger) *Downloader {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if repo == "" {
		repo = DefaultRepo
	}
	if branch == "" {
		branch = DefaultBranch
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Downloader{
		baseURL: strings.TrimRight(baseURL, "/"),
		repo:    repo,
		branch:  branch,
		client:  client,
		logger:  logger,
	}
}

// Repo returns the owner/name of the template repository.
func (d *Downloader) Repo() string { return d.repo }

// URL returns the archive URL of the configured branch.
func (d *Downloader) URL() string {
	return fmt.Sprintf("%s/%s/archive/refs/heads/%s.zip", d.baseURL, d.repo, d.branch)
}

// Download fetches the repository archive and extracts it into dest with
// the archive's top-level folder stripped. Version-control files are not
// extracted. Any fetch failure is returned as a *ConnectError.
func (d *Downloader) Download(ctx context.Context, dest string) (*Result, error) {
	url := d.URL()
	data, err := d.fetch(ctx, url)
	if err != nil {
		d.logger.Warn("template: download failed", slog.String("url", url), slog.String("error", err.Error()))
		return nil, &ConnectError{Repo: d.repo, Err: err}
	}

	out, err := storage.EnsureFS(dest)
	if err != nil {
		return nil, err
	}
	files, err := extract(data, out)
	if err != nil {
		return nil, fmt.Errorf("template: extract: %w", err)
	}

	d.logger.Info("template: downloaded",
		slog.String("repo", d.repo),
		slog.String("dir", out.Root()),
		slog.Int("files", len(files)))
	return &Result{Repo: d.repo, URL: url, Dir: out.Root(), Files: files}, nil
}

func (d *Downloader) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "docsauthor")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxArchiveSize+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if len(data) > maxArchiveSize {
		return nil, fmt.Errorf("archive exceeds %d bytes", maxArchiveSize)
	}
	return data, nil
}

func extract(data []byte, out storage.Provider) ([]string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil && !errors.Is(err, zip.ErrInsecurePath) {
		return nil, err
	}
	var files []string
	var total int64
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		rel, ok := stripTop(f.Name)
		if !ok || isVCS(rel) {
			continue
		}
		content, err := readEntry(f)
		if err != nil {
			return files, fmt.Errorf("%s: %w", f.Name, err)
		}
		if total += int64(len(content)); total > maxExtractedSize {
			return files, fmt.Errorf("archive expands beyond %d bytes", maxExtractedSize)
		}
		if err := out.Write(rel, content); err != nil {
			return files, err
		}
		files = append(files, rel)
	}
	return files, nil
}

func readEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	data, err := io.ReadAll(io.LimitReader(rc, maxEntrySize+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > maxEntrySize {
		return nil, fmt.Errorf("entry exceeds %d bytes", maxEntrySize)
	}
	return data, nil
}

// stripTop removes the first path component of a zip entry name.
func stripTop(name string) (string, bool) {
	name = strings.TrimPrefix(path.Clean("/"+strings.ReplaceAll(name, `\`, "/")), "/")
	_, rest, ok := strings.Cut(name, "/")
	if !ok || rest == "" {
		return "", false
	}
	return rest, true
}

var vcsFiles = map[string]bool{
	storage.VCSMarker: true,
	".gitignore":      true,
	".gitattributes":  true,
	".gitmodules":     true,
}

func isVCS(rel string) bool {
	for _, part := range strings.Split(rel, "/") {
		if vcsFiles[part] {
			return true
		}
	}
	return false
}

// Clean deletes the regular files directly inside dir. Directories and their
// contents are left alone. A missing dir is not an error.
func Clean(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("template: read dir: %w", err)
	}
	var removed []string
	var errs []error
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		p := filepath.Join(dir, e.Name())
		if err := os.Remove(p); err != nil {
			errs = append(errs, fmt.Errorf("template: delete %s: %w", e.Name(), err))
			continue
		}
		removed = append(removed, p)
	}
	return removed, errors.Join(errs...)
}

// CleanDir returns the folder Clean operates on: the authoring home, or its
// templates folder when templates is set.
func CleanDir(home string, templates bool) string {
	if templates {
		return filepath.Join(home, TemplatesDir)
	}
	return home
}
