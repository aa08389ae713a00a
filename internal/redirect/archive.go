package redirect

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/starford/docsauthor/internal/apperr"
	"github.com/starford/docsauthor/internal/models"
	"github.com/starford/docsauthor/internal/storage"
)

// ArchiveDirName returns the per-run archive folder name:
// <repo>_deleted_redirects_<year>-<month>-<day>_<hour>-<minute>-<millisecond>.
// Numbers are not zero-padded.
func ArchiveDirName(repoName string, t time.Time) string {
	return fmt.Sprintf("%s_deleted_redirects_%d-%d-%d_%d-%d-%d",
		repoName,
		t.Year(), int(t.Month()), t.Day(),
		t.Hour(), t.Minute(), t.Nanosecond()/int(time.Millisecond))
}

// ArchiveNames returns the file name each candidate gets inside the archive
// folder. Documents keep their base name unless another candidate of the same
// run shares it (ignoring case); those are all named after their relative
// path with slashes replaced by underscores. A name that is still taken gets
// a "~N" suffix before its extension, so no two candidates share a name.
func ArchiveNames(candidates []models.Candidate) []string {
	counts := make(map[string]int, len(candidates))
	for _, c := range candidates {
		counts[strings.ToLower(path.Base(c.SourcePath))]++
	}
	names := make([]string, len(candidates))
	used := make(map[string]bool, len(candidates))
	for i, c := range candidates {
		name := path.Base(c.SourcePath)
		if counts[strings.ToLower(name)] > 1 {
			name = strings.ReplaceAll(c.SourcePath, "/", "_")
		}
		if used[strings.ToLower(name)] {
			ext := path.Ext(name)
			stem := strings.TrimSuffix(name, ext)
			for n := 1; ; n++ {
				alt := fmt.Sprintf("%s~%d%s", stem, n, ext)
				if !used[strings.ToLower(alt)] {
					name = alt
					break
				}
			}
		}
		used[strings.ToLower(name)] = true
		names[i] = name
	}
	return names
}

// Archive moves every candidate document from repo into dst by copying it and
// then deleting the original. Moves run concurrently and Archive returns only
// after all of them finished. Failures do not stop the other moves; they are
// reported per candidate and joined into the returned error as
// *apperr.ArchiveError values.
func Archive(ctx context.Context, repo, dst storage.Provider, candidates []models.Candidate, workers int) ([]models.ArchiveResult, error) {
	names := ArchiveNames(candidates)
	results := make([]models.ArchiveResult, len(candidates))
	errs := make([]error, len(candidates))

	var g errgroup.Group
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i, c := range candidates {
		g.Go(func() error {
			results[i].SourcePath = c.SourcePath
			sum, err := move(ctx, repo, dst, c.SourcePath, names[i])
			if err != nil {
				results[i].Error = err.Error()
				errs[i] = &apperr.ArchiveError{SourcePath: c.SourcePath, Err: err}
				return nil
			}
			results[i].ArchivedTo, _ = dst.Abs(names[i])
			results[i].Checksum = sum
			return nil
		})
	}
	_ = g.Wait()

	return results, errors.Join(errs...)
}

// move copies src from repo to name in dst, then removes src. An interruption
// between the two steps leaves the original in place; a rerun archives it
// again without touching the manifest entry.
func move(ctx context.Context, repo, dst storage.Provider, src, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := repo.Read(src)
	if err != nil {
		return "", err
	}
	if err := dst.Write(name, data); err != nil {
		return "", err
	}
	if err := repo.Delete(src); err != nil {
		return "", err
	}
	return storage.Checksum(data), nil
}
