// Package console renders progress for terminal users and asks for missing
// input interactively.
package console

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// Level classifies a progress line for styling.
type Level int

// Progress line levels.
const (
	LevelInfo Level = iota
	LevelSuccess
	LevelMuted
	LevelWarn
	LevelError
)

// Reporter writes progress lines to a terminal or a plain stream.
type Reporter struct {
	mu     sync.Mutex
	w      io.Writer
	color  bool
	styles map[Level]lipgloss.Style
}

// NewReporter creates a reporter writing to w. Colour is used only when w is
// a terminal and NO_COLOR is unset.
func NewReporter(w io.Writer) *Reporter {
	r := &Reporter{w: w, color: IsTerminal(w) && os.Getenv("NO_COLOR") == ""}
	r.styles = map[Level]lipgloss.Style{
		LevelInfo:    lipgloss.NewStyle().Bold(true),
		LevelSuccess: lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		LevelMuted:   lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		LevelWarn:    lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		LevelError:   lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
	}
	return r
}

// IsTerminal reports whether w is a terminal.
func IsTerminal(w any) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Progress writes one status line of a redirect run.
func (r *Reporter) Progress(line string) {
	r.print(Classify(line), line)
}

// Info writes an informational message.
func (r *Reporter) Info(msg string) { r.print(LevelInfo, msg) }

// Success writes a success message.
func (r *Reporter) Success(msg string) { r.print(LevelSuccess, msg) }

// Warn writes a warning.
func (r *Reporter) Warn(msg string) { r.print(LevelWarn, msg) }

// Error writes an error message.
func (r *Reporter) Error(msg string) { r.print(LevelError, msg) }

// Printf writes an unstyled formatted line.
func (r *Reporter) Printf(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.w, format+"\n", args...)
}

func (r *Reporter) print(level Level, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.color {
		msg = r.styles[level].Render(msg)
	}
	fmt.Fprintln(r.w, msg)
}

// Classify picks the style level of a redirect progress line.
func Classify(line string) Level {
	switch {
	case strings.HasPrefix(line, "Added to master redirection file."),
		strings.HasPrefix(line, "Master redirection file has been created."),
		strings.HasPrefix(line, "Redirected files copied to"):
		return LevelSuccess
	case strings.HasPrefix(line, "Already in master redirection file:"),
		strings.HasPrefix(line, "No redirection files found."):
		return LevelMuted
	case strings.HasPrefix(line, "Skipped "):
		return LevelWarn
	case strings.HasPrefix(line, "Error"):
		return LevelError
	}
	return LevelInfo
}
