// Package models defines the domain types for docsauthor.
package models

// ManifestFileName is the master redirection file kept at the repository root.
const ManifestFileName = ".openpublishing.redirection.json"

// Candidate is a document whose front matter declares a redirect_url.
type Candidate struct {
	SourcePath  string `json:"source_path"`
	RedirectURL string `json:"redirect_url"`

	// Run-scoped bookkeeping, never persisted.
	AbsolutePath      string `json:"-"`
	AlreadyInManifest bool   `json:"-"`
}

// Entry returns the persisted form of the candidate.
func (c Candidate) Entry() Redirection {
	return Redirection{
		SourcePath:  c.SourcePath,
		RedirectURL: c.RedirectURL,
	}
}

// Redirection is one persisted manifest entry. Field order is the on-disk order.
type Redirection struct {
	SourcePath         string `json:"source_path"`
	RedirectURL        string `json:"redirect_url"`
	RedirectDocumentID bool   `json:"redirect_document_id"`
}

// Manifest is the master redirection file.
type Manifest struct {
	Redirections []Redirection `json:"redirections"`
}

// Clone returns a deep copy of m.
func (m Manifest) Clone() Manifest {
	if m.Redirections == nil {
		return Manifest{}
	}
	out := make([]Redirection, len(m.Redirections))
	copy(out, m.Redirections)
	return Manifest{Redirections: out}
}

// DocumentError is a document skipped because its front matter did not parse.
type DocumentError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// ArchiveResult is the outcome of moving one candidate into the archive.
type ArchiveResult struct {
	SourcePath string `json:"source_path"`
	ArchivedTo string `json:"archived_to,omitempty"`
	Checksum   string `json:"checksum,omitempty"`
	Error      string `json:"error,omitempty"`
}
