package console

import (
	"fmt"

	"github.com/starford/docsauthor/internal/redirect"
	"github.com/starford/docsauthor/internal/sse"
)

// Publisher sends redirect progress to a Reporter. It stands in for the SSE
// broker when commands run in a terminal.
type Publisher struct {
	r *Reporter
}

// NewPublisher creates a Publisher writing to r.
func NewPublisher(r *Reporter) *Publisher {
	return &Publisher{r: r}
}

// Publish drops events. Commands report their own outcome.
func (p *Publisher) Publish(sse.Event) {}

// PublishProgress writes one progress line.
func (p *Publisher) PublishProgress(line string) {
	p.r.Progress(line)
}

// PublishPlan summarizes a watch plan.
func (p *Publisher) PublishPlan(plan any) {
	if report, ok := plan.(*redirect.Report); ok {
		p.r.Plan(report, nil)
	}
}

// Plan summarizes a dry-run plan computed after files changed.
func (r *Reporter) Plan(report *redirect.Report, err error) {
	if err != nil {
		r.Error(err.Error())
		return
	}
	if report == nil {
		return
	}
	if len(report.Added) == 0 {
		r.Progress("No redirection files found.")
	} else {
		for _, c := range report.Added {
			r.Progress(fmt.Sprintf("Pending: %s -> %s", c.SourcePath, c.RedirectURL))
		}
	}
	for _, e := range report.DocumentErrors {
		r.Progress("Skipped " + e.Path + ": " + e.Message)
	}
}
