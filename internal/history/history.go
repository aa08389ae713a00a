package history

import (
	"context"
	"time"
)

// Entry statuses.
const (
	StatusAdded    = "added"
	StatusExisting = "existing"
)

// Entry is the outcome of one candidate in a run.
type Entry struct {
	SourcePath  string `json:"source_path"`
	RedirectURL string `json:"redirect_url"`
	Status      string `json:"status"`
	ArchivedTo  string `json:"archived_to,omitempty"`
	Checksum    string `json:"checksum,omitempty"`
	Error       string `json:"error,omitempty"`
}

// Run is one recorded reconciliation run.
type Run struct {
	ID              int64     `json:"id"`
	Root            string    `json:"root"`
	ArchiveDir      string    `json:"archive_dir"`
	ManifestCreated bool      `json:"manifest_created"`
	StartedAt       time.Time `json:"started_at"`
	Added           int       `json:"added"`
	Existing        int       `json:"existing"`
	Failed          int       `json:"failed"`
	Entries         []Entry   `json:"entries,omitempty"`
}

// Ledger defines the run history operations. Consumers should depend on this
// interface rather than the concrete *DB type.
type Ledger interface {
	Record(ctx context.Context, run Run) (int64, error)
	ListRuns(ctx context.Context, limit int) ([]Run, error)
	GetRun(ctx context.Context, id int64) (*Run, error)
	EntriesFor(ctx context.Context, sourcePath string) ([]Entry, error)
	Close() error
}

// Verify *DB satisfies Ledger at compile time.
var _ Ledger = (*DB)(nil)
