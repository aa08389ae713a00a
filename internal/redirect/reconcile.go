package redirect

import (
	"strings"

	"github.com/starford/docsauthor/internal/models"
)

// Reconcile merges candidates into a copy of existing and returns the merged
// manifest together with a copy of the candidates carrying their status.
//
// Paths are compared case-insensitively against the entries that were in the
// manifest before the merge. A candidate whose path is already recorded is
// marked AlreadyInManifest and its recorded entry is kept as is, even if the
// redirect target changed. Every other candidate is appended in input order.
// Neither argument is modified.
func Reconcile(existing models.Manifest, candidates []models.Candidate) (models.Manifest, []models.Candidate) {
	merged := existing.Clone()

	recorded := make(map[string]struct{}, len(existing.Redirections))
	for _, r := range existing.Redirections {
		recorded[strings.ToLower(r.SourcePath)] = struct{}{}
	}

	status := make([]models.Candidate, len(candidates))
	for i, c := range candidates {
		if _, ok := recorded[strings.ToLower(c.SourcePath)]; ok {
			c.AlreadyInManifest = true
		} else {
			merged.Redirections = append(merged.Redirections, c.Entry())
		}
		status[i] = c
	}
	return merged, status
}
