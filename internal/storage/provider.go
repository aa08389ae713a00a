// Package storage defines the rooted file-system abstraction used for
// repositories and archive folders.
package storage

// Provider is the interface for file operations below a fixed root.
// All paths are relative to the root and may use either separator.
type Provider interface {
	// Root returns the absolute root directory.
	Root() string
	// Files walks dir and returns the slash-separated relative path of every
	// regular file accepted by match, in lexical walk order. The VCS marker
	// directory is not descended into.
	Files(dir string, match func(rel string) bool) ([]string, error)
	// Exists reports whether path exists.
	Exists(path string) (bool, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically writes content to path, creating parent directories.
	Write(path string, content []byte) error
	// Delete removes the file at path.
	Delete(path string) error
	// Abs resolves path against the root, rejecting traversal.
	Abs(path string) (string, error)
}
