package snippet

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/starford/docsauthor/internal/apperr"
	"github.com/starford/docsauthor/internal/storage"
)

// Position is a 1-based line and column in a document. Columns count
// characters, not bytes.
type Position struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// ParsePosition parses "LINE:COL".
func ParsePosition(s string) (Position, error) {
	l, c, ok := strings.Cut(s, ":")
	if !ok {
		return Position{}, apperr.Invalid(fmt.Errorf("position %q: want LINE:COL", s))
	}
	line, err := strconv.Atoi(l)
	if err != nil {
		return Position{}, apperr.Invalid(fmt.Errorf("position %q: %w", s, err))
	}
	col, err := strconv.Atoi(c)
	if err != nil {
		return Position{}, apperr.Invalid(fmt.Errorf("position %q: %w", s, err))
	}
	return Position{Line: line, Column: col}, nil
}

// Insert returns text with content inserted at pos.
func Insert(text string, pos Position, content string) (string, error) {
	lines := strings.Split(text, "\n")
	if pos.Line < 1 || pos.Line > len(lines) {
		return "", apperr.Invalid(fmt.Errorf("line %d out of range 1-%d", pos.Line, len(lines)))
	}
	line := []rune(lines[pos.Line-1])
	if pos.Column < 1 || pos.Column > len(line)+1 {
		return "", apperr.Invalid(fmt.Errorf("column %d out of range 1-%d", pos.Column, len(line)+1))
	}
	i := pos.Column - 1
	lines[pos.Line-1] = string(line[:i]) + content + string(line[i:])
	return strings.Join(lines, "\n"), nil
}

// InsertAt inserts content into the document at file and writes it back.
func InsertAt(repo storage.Provider, file string, pos Position, content string) error {
	if ok, err := repo.Exists(file); err != nil {
		return err
	} else if !ok {
		return fmt.Errorf("%w: %s", apperr.ErrNotSaved, file)
	}
	data, err := repo.Read(file)
	if err != nil {
		return fmt.Errorf("snippet: %w", err)
	}
	out, err := Insert(string(data), pos, content)
	if err != nil {
		return err
	}
	return repo.Write(file, []byte(out))
}
