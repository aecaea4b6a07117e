// Package report renders sync outcomes for humans and machines.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/systmms/secretsync/internal/sync"
)

// Format selects the output rendering.
type Format string

const (
	FormatHuman Format = "human"
	FormatJSON  Format = "json"
)

// ParseFormat validates a --format flag value.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatHuman, FormatJSON:
		return Format(s), nil
	default:
		return "", fmt.Errorf("unknown output format %q (use human or json)", s)
	}
}

// Reporter writes run results to a single destination, normally stdout.
type Reporter struct {
	out     io.Writer
	noColor bool
}

// New creates a reporter.
func New(out io.Writer, noColor bool) *Reporter {
	return &Reporter{out: out, noColor: noColor}
}

// Render writes the outcomes in the requested format and returns the run
// summary.
func (r *Reporter) Render(format Format, outcomes []sync.Outcome) (sync.Summary, error) {
	summary := sync.Summarize(outcomes)

	switch format {
	case FormatJSON:
		return summary, r.renderJSON(outcomes, summary)
	default:
		return summary, r.renderHuman(outcomes, summary)
	}
}

// jsonReport is the machine-readable run result shape.
type jsonReport struct {
	Success  bool           `json:"success"`
	Outcomes []sync.Outcome `json:"outcomes"`
	Summary  sync.Summary   `json:"summary"`
}

func (r *Reporter) renderJSON(outcomes []sync.Outcome, summary sync.Summary) error {
	if outcomes == nil {
		outcomes = []sync.Outcome{}
	}
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(jsonReport{
		Success:  summary.OK(),
		Outcomes: outcomes,
		Summary:  summary,
	})
}

func (r *Reporter) renderHuman(outcomes []sync.Outcome, summary sync.Summary) error {
	for _, o := range outcomes {
		line := fmt.Sprintf("%s %-10s %s", r.glyph(o.Status), o.Status, o.Key)
		if o.Reason != "" {
			line += ": " + o.Reason
		}
		if _, err := fmt.Fprintln(r.out, line); err != nil {
			return err
		}
	}

	var parts []string
	if summary.Created > 0 {
		parts = append(parts, fmt.Sprintf("%d created", summary.Created))
	}
	if summary.Updated > 0 {
		parts = append(parts, fmt.Sprintf("%d updated", summary.Updated))
	}
	if summary.Unchanged > 0 {
		parts = append(parts, fmt.Sprintf("%d unchanged", summary.Unchanged))
	}
	if summary.Skipped > 0 {
		parts = append(parts, fmt.Sprintf("%d skipped", summary.Skipped))
	}
	if summary.Failed > 0 {
		parts = append(parts, fmt.Sprintf("%d failed", summary.Failed))
	}
	if len(parts) == 0 {
		parts = append(parts, "nothing to do")
	}

	_, err := fmt.Fprintf(r.out, "\n%d entries: %s\n", summary.Total, strings.Join(parts, ", "))
	return err
}

// glyph returns the status marker, colored unless colors are disabled.
func (r *Reporter) glyph(status sync.Status) string {
	var glyph, color string
	switch status {
	case sync.StatusCreated, sync.StatusUpdated:
		glyph, color = "✓", "32"
	case sync.StatusUnchanged:
		glyph, color = "=", "36"
	case sync.StatusSkipped:
		glyph, color = "⚠", "33"
	case sync.StatusFailed:
		glyph, color = "✗", "31"
	default:
		glyph, color = "?", "0"
	}
	if r.noColor {
		return glyph
	}
	return "\033[" + color + "m" + glyph + "\033[0m"
}
