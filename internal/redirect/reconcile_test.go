package redirect

import (
	"reflect"
	"testing"

	"github.com/starford/docsauthor/internal/models"
)

func cand(path, url string) models.Candidate {
	return models.Candidate{SourcePath: path, RedirectURL: url, AbsolutePath: "/repo/" + path}
}

func TestReconcile_EmptyManifestAppendsAll(t *testing.T) {
	merged, status := Reconcile(models.Manifest{}, []models.Candidate{cand("docs/a.md", "/new/a"), cand("docs/b.md", "/new/b")})
	want := []models.Redirection{
		{SourcePath: "docs/a.md", RedirectURL: "/new/a"},
		{SourcePath: "docs/b.md", RedirectURL: "/new/b"},
	}
	if !reflect.DeepEqual(merged.Redirections, want) {
		t.Errorf("redirections = %+v", merged.Redirections)
	}
	for _, c := range status {
		if c.AlreadyInManifest {
			t.Errorf("%s should be new", c.SourcePath)
		}
	}
}

func TestReconcile_ExistingEntryWins(t *testing.T) {
	existing := models.Manifest{Redirections: []models.Redirection{
		{SourcePath: "docs/a.md", RedirectURL: "/old/a", RedirectDocumentID: true},
	}}
	merged, status := Reconcile(existing, []models.Candidate{cand("docs/a.md", "/new/a")})

	if len(merged.Redirections) != 1 || merged.Redirections[0].RedirectURL != "/old/a" || !merged.Redirections[0].RedirectDocumentID {
		t.Errorf("redirections = %+v, want the original entry untouched", merged.Redirections)
	}
	if !status[0].AlreadyInManifest {
		t.Error("candidate should be marked as already in manifest")
	}
}

func TestReconcile_CaseInsensitivePaths(t *testing.T) {
	existing := models.Manifest{Redirections: []models.Redirection{{SourcePath: "Docs/A.md", RedirectURL: "/old"}}}
	merged, status := Reconcile(existing, []models.Candidate{cand("docs/a.md", "/new")})
	if len(merged.Redirections) != 1 {
		t.Errorf("len = %d, want 1", len(merged.Redirections))
	}
	if !status[0].AlreadyInManifest {
		t.Error("path differing only by case should match")
	}
}

func TestReconcile_OrderExistingThenNew(t *testing.T) {
	existing := models.Manifest{Redirections: []models.Redirection{{SourcePath: "z.md", RedirectURL: "/z"}}}
	merged, _ := Reconcile(existing, []models.Candidate{cand("b.md", "/b"), cand("a.md", "/a")})
	var got []string
	for _, r := range merged.Redirections {
		got = append(got, r.SourcePath)
	}
	if !reflect.DeepEqual(got, []string{"z.md", "b.md", "a.md"}) {
		t.Errorf("order = %v", got)
	}
}

func TestReconcile_SameRunCaseVariantsBothAppended(t *testing.T) {
	merged, _ := Reconcile(models.Manifest{}, []models.Candidate{cand("a.md", "/1"), cand("A.md", "/2")})
	if len(merged.Redirections) != 2 {
		t.Errorf("len = %d, want 2 (only pre-existing paths are deduplicated)", len(merged.Redirections))
	}
}

func TestReconcile_DoesNotMutateInputs(t *testing.T) {
	existing := models.Manifest{Redirections: make([]models.Redirection, 1, 4)}
	existing.Redirections[0] = models.Redirection{SourcePath: "x.md", RedirectURL: "/x"}
	candidates := []models.Candidate{cand("x.md", "/x2"), cand("y.md", "/y")}

	_, _ = Reconcile(existing, candidates)

	if len(existing.Redirections) != 1 || existing.Redirections[:2][1].SourcePath != "" {
		t.Error("existing manifest was modified")
	}
	if candidates[0].AlreadyInManifest {
		t.Error("input candidate was modified")
	}
}

func TestReconcile_NoCandidatesRoundTrip(t *testing.T) {
	existing := models.Manifest{Redirections: []models.Redirection{
		{SourcePath: "a.md", RedirectURL: "/a"},
		{SourcePath: "b.md", RedirectURL: "/b"},
	}}
	merged, status := Reconcile(existing, nil)
	if !reflect.DeepEqual(merged, existing) || len(status) != 0 {
		t.Errorf("merged = %+v", merged)
	}
}
