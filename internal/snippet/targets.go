package snippet

import (
	"path"
	"slices"
	"strings"

	"github.com/starford/docsauthor/internal/storage"
)

// ImageExtensions lists the file extensions offered as image targets.
var ImageExtensions = []string{".jpeg", ".jpg", ".png", ".gif", ".bmp"}

// Target is one entry of the link or image quick pick.
type Target struct {
	Label string `json:"label"`
	Dir   string `json:"dir"`
	Path  string `json:"path"`
}

// ListTargets returns every image (image=true) or Markdown document below
// the repository root, sorted by path.
func ListTargets(repo storage.Provider, image bool) ([]Target, error) {
	files, err := repo.Files("", func(rel string) bool { return matchesKind(rel, image) })
	if err != nil {
		return nil, err
	}
	slices.Sort(files)
	out := make([]Target, 0, len(files))
	for _, f := range files {
		out = append(out, Target{Label: path.Base(f), Dir: path.Dir(f), Path: f})
	}
	return out, nil
}

func matchesKind(rel string, image bool) bool {
	ext := strings.ToLower(path.Ext(rel))
	if image {
		return slices.Contains(ImageExtensions, ext)
	}
	return ext == ".md"
}
