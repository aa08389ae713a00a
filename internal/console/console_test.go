package console

import (
	"bytes"
	"errors"
	"testing"

	"github.com/starford/docsauthor/internal/models"
	"github.com/starford/docsauthor/internal/redirect"
	"github.com/starford/docsauthor/internal/sse"
)

func TestReporter_PlainOutput(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(&buf)
	r.Progress("Generating Master Redirection file.")
	r.Warn("Skipped a.md: bad")
	r.Printf("%d runs", 2)

	want := "Generating Master Redirection file.\nSkipped a.md: bad\n2 runs\n"
	if buf.String() != want {
		t.Errorf("output = %q, want %q", buf.String(), want)
	}
}

func TestClassify(t *testing.T) {
	cases := map[string]Level{
		"Generating Master Redirection file.":         LevelInfo,
		"Added to master redirection file. /r/a.md":   LevelSuccess,
		"Already in master redirection file: /r/a.md": LevelMuted,
		"No redirection files found.":                 LevelMuted,
		"Skipped a.md: yaml: line 1":                  LevelWarn,
		"Master redirection file has been created.":   LevelSuccess,
		"Error: Cannot connect to owner/repo":         LevelError,
	}
	for line, want := range cases {
		if got := Classify(line); got != want {
			t.Errorf("Classify(%q) = %d, want %d", line, got, want)
		}
	}
}

func TestIsTerminal_NonFile(t *testing.T) {
	if IsTerminal(&bytes.Buffer{}) {
		t.Error("buffer is not a terminal")
	}
}

func TestHeadlessPrompter(t *testing.T) {
	var p Prompter = headless{}
	if _, err := p.Input("URL", "", nil); !errors.Is(err, ErrNotATerminal) {
		t.Errorf("Input err = %v", err)
	}
	if _, err := p.Select("Type", []string{"a"}); !errors.Is(err, ErrNotATerminal) {
		t.Errorf("Select err = %v", err)
	}
}

func TestPublisher_ProgressAndPlan(t *testing.T) {
	var buf bytes.Buffer
	p := NewPublisher(NewReporter(&buf))
	p.Publish(sse.Event{Type: sse.TypeCompleted})
	p.PublishProgress("Generating Master Redirection file.")
	p.PublishPlan(&redirect.Report{
		Added:          []models.Candidate{{SourcePath: "a.md", RedirectURL: "/a"}},
		DocumentErrors: []models.DocumentError{{Path: "b.md", Message: "bad"}},
	})
	p.PublishPlan("not a report")

	want := "Generating Master Redirection file.\nPending: a.md -> /a\nSkipped b.md: bad\n"
	if buf.String() != want {
		t.Errorf("output = %q, want %q", buf.String(), want)
	}
}

func TestReporter_PlanError(t *testing.T) {
	var buf bytes.Buffer
	NewReporter(&buf).Plan(nil, errors.New("boom"))
	if buf.String() != "boom\n" {
		t.Errorf("output = %q", buf.String())
	}
}
