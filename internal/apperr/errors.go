// Package apperr defines the error taxonomy shared by the authoring commands.
package apperr

import (
	"errors"
	"fmt"
)

// User errors: reported to the author and stop the operation before any I/O.
var (
	ErrNoWorkspace  = errors.New("no workspace is opened")
	ErrNotRepoRoot  = errors.New("current workspace is not root folder of a repo")
	ErrInvalidInput = errors.New("invalid input")
	ErrNotSaved     = errors.New("document is not saved")
)

var (
	ErrNotFound        = errors.New("not found")
	ErrManifestCorrupt = errors.New("redirection manifest is not valid JSON")
)

// IsUserError reports whether err should be shown to the author as a plain
// message rather than treated as a failure of the tool.
func IsUserError(err error) bool {
	return errors.Is(err, ErrNoWorkspace) ||
		errors.Is(err, ErrNotRepoRoot) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrNotSaved)
}

// Invalid wraps a validation failure so that it matches ErrInvalidInput.
func Invalid(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidInput, err)
}

// DocumentError records a document whose front matter could not be parsed.
// It never aborts a batch.
type DocumentError struct {
	Path string
	Err  error
}

func (e *DocumentError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *DocumentError) Unwrap() error { return e.Err }

// ArchiveError records a candidate whose document could not be moved into
// the archive directory.
type ArchiveError struct {
	SourcePath string
	Err        error
}

func (e *ArchiveError) Error() string {
	return fmt.Sprintf("archive %s: %v", e.SourcePath, e.Err)
}

func (e *ArchiveError) Unwrap() error { return e.Err }
