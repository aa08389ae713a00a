// Package redirect maintains the master redirection manifest of a
// documentation repository.
//
// A run collects every Markdown document whose front matter declares a
// redirect_url, merges the candidates into the existing manifest without
// duplicating entries, writes the manifest back and moves the redirected
// documents into a timestamped archive folder.
package redirect

import (
	"context"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/starford/docsauthor/internal/models"
	"github.com/starford/docsauthor/internal/parser"
	"github.com/starford/docsauthor/internal/storage"
)

const markdownExt = ".md"

// IsMarkdown reports whether rel has the Markdown extension, ignoring case.
func IsMarkdown(rel string) bool {
	return strings.ToLower(filepath.Ext(rel)) == markdownExt
}

type scanResult struct {
	candidate *models.Candidate
	docErr    *models.DocumentError
}

// Collect scans every Markdown document below the repository root and returns
// the documents that declare a redirect_url. Documents whose front matter
// fails to parse are returned as DocumentErrors and do not stop the scan.
// An I/O error aborts the scan.
func Collect(ctx context.Context, repo storage.Provider, workers int) ([]models.Candidate, []models.DocumentError, error) {
	files, err := repo.Files("", IsMarkdown)
	if err != nil {
		return nil, nil, err
	}

	results := make([]scanResult, len(files))
	g, gCtx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i, rel := range files {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			data, err := repo.Read(rel)
			if err != nil {
				return err
			}
			res, err := parser.Parse(data)
			if err != nil {
				results[i].docErr = &models.DocumentError{Path: rel, Message: err.Error()}
				return nil
			}
			if !res.HasRedirect {
				return nil
			}
			abs, err := repo.Abs(rel)
			if err != nil {
				return err
			}
			results[i].candidate = &models.Candidate{
				SourcePath:   rel,
				RedirectURL:  res.RedirectURL,
				AbsolutePath: abs,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	var (
		candidates []models.Candidate
		docErrs    []models.DocumentError
	)
	for _, r := range results {
		switch {
		case r.candidate != nil:
			candidates = append(candidates, *r.candidate)
		case r.docErr != nil:
			docErrs = append(docErrs, *r.docErr)
		}
	}
	return candidates, docErrs, nil
}
