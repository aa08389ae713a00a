package api

import (
	"github.com/starford/docsauthor/internal/history"
	"github.com/starford/docsauthor/internal/snippet"
)

// GenerateRequest is the request body for POST /api/redirects.
type GenerateRequest struct {
	Root   string `json:"root,omitempty" example:"/src/azure-docs"`
	DryRun bool   `json:"dry_run" example:"false"`
}

// SnippetRequest is the request body for POST /api/snippets/{kind}. The kind
// is taken from the URL.
type SnippetRequest struct {
	Root   string            `json:"root,omitempty"`
	URL    string            `json:"url,omitempty" example:"https://www.youtube.com/embed/abc"`
	Text   string            `json:"text,omitempty"`
	From   string            `json:"from,omitempty" example:"articles/intro.md"`
	Target string            `json:"target,omitempty" example:"articles/setup.md"`
	Alt    string            `json:"alt,omitempty"`
	File   string            `json:"file,omitempty"`
	Insert *snippet.Position `json:"insert,omitempty"`
}

func (r SnippetRequest) snippet(kind string) snippet.Request {
	return snippet.Request{
		Kind:   snippet.Kind(kind),
		URL:    r.URL,
		Text:   r.Text,
		From:   r.From,
		Target: r.Target,
		Alt:    r.Alt,
	}
}

// HistoryResponse wraps recorded runs.
type HistoryResponse struct {
	Runs []history.Run `json:"runs" validate:"required"`
}

// TargetsResponse wraps link targets.
type TargetsResponse struct {
	Targets []snippet.Target `json:"targets" validate:"required"`
}

// CleanRequest is the request body for POST /api/templates/clean.
type CleanRequest struct {
	Templates bool `json:"templates"`
}

// CleanResponse lists the removed files.
type CleanResponse struct {
	Removed []string `json:"removed" validate:"required"`
}
