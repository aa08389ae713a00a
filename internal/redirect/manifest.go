package redirect

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/starford/docsauthor/internal/apperr"
	"github.com/starford/docsauthor/internal/models"
	"github.com/starford/docsauthor/internal/storage"
)

// LoadManifest reads the master redirection file at the repository root.
// exists is false (and the manifest empty) when there is no file yet.
// Malformed JSON yields ErrManifestCorrupt.
func LoadManifest(repo storage.Provider) (m models.Manifest, exists bool, err error) {
	ok, err := repo.Exists(models.ManifestFileName)
	if err != nil {
		return models.Manifest{}, false, err
	}
	if !ok {
		return models.Manifest{}, false, nil
	}
	data, err := repo.Read(models.ManifestFileName)
	if err != nil {
		return models.Manifest{}, true, err
	}
	if err := json.Unmarshal(data, &m); err != nil {
		return models.Manifest{}, true, fmt.Errorf("%w: %v", apperr.ErrManifestCorrupt, err)
	}
	return m, true, nil
}

// EncodeManifest serialises m the way the publishing pipeline expects:
// four-space indentation, no HTML escaping and no trailing newline.
func EncodeManifest(m models.Manifest) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(m); err != nil {
		return nil, fmt.Errorf("redirect: encode manifest: %w", err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// SaveManifest atomically overwrites the master redirection file.
func SaveManifest(repo storage.Provider, m models.Manifest) error {
	data, err := EncodeManifest(m)
	if err != nil {
		return err
	}
	if err := repo.Write(models.ManifestFileName, data); err != nil {
		return fmt.Errorf("redirect: write manifest: %w", err)
	}
	return nil
}
