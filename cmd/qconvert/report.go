package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/gofhir/qconvert/pkg/invariant"
	"github.com/gofhir/qconvert/pkg/metrics"
	"github.com/gofhir/qconvert/pkg/outcome"
)

// RunReport is the JSON report of one convert invocation.
type RunReport struct {
	RunID  string         `json:"runId"`
	From   string         `json:"from"`
	To     string         `json:"to"`
	Status outcome.Status `json:"status"`
	Files  []FileReport   `json:"files"`

	Metrics *metrics.Snapshot `json:"metrics,omitempty"`
}

// FileReport is the outcome for one input file.
type FileReport struct {
	Input       string                `json:"input"`
	Output      string                `json:"output,omitempty"`
	Fingerprint string                `json:"fingerprint,omitempty"`
	Status      outcome.Status        `json:"status"`
	Messages    []outcome.Message     `json:"message,omitempty"`
	Violations  []invariant.Violation `json:"violations,omitempty"`
	Error       string                `json:"error,omitempty"`
	Duration    string                `json:"duration,omitempty"`
}

// Failed reports whether the file counts as a failure for the exit code.
func (f *FileReport) Failed() bool {
	return f.Status == outcome.Aborted || f.Error != "" || invariant.HasErrors(f.Violations)
}

func (r *RunReport) add(f FileReport) {
	r.Status = outcome.Worse(r.Status, f.Status)
	r.Files = append(r.Files, f)
}

// Failed reports whether any file failed.
func (r *RunReport) Failed() bool {
	for i := range r.Files {
		if r.Files[i].Failed() {
			return true
		}
	}
	return false
}

func (r *RunReport) write(w io.Writer, format OutputFormat) error {
	if format == OutputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	}

	for i := range r.Files {
		printTextResult(w, &r.Files[i])
	}
	fmt.Fprintf(w, "Run %s: %s -> %s, %d file(s), status %s\n", r.RunID, r.From, r.To, len(r.Files), r.Status)
	if r.Metrics != nil && r.Metrics.Conversions > 0 {
		fmt.Fprintf(w, "Questionnaires: %d converted, %d lossy, %d aborted\n",
			r.Metrics.Conversions, r.Metrics.Loss, r.Metrics.Aborted)
	}
	return nil
}

func printTextResult(w io.Writer, f *FileReport) {
	fmt.Fprintf(w, "== %s ==\n", f.Input)
	fmt.Fprintf(w, "Status: %s\n", f.Status)
	if f.Output != "" {
		fmt.Fprintf(w, "Output: %s\n", f.Output)
	}
	if f.Fingerprint != "" {
		fmt.Fprintf(w, "Input: %s\n", f.Fingerprint)
	}
	if f.Duration != "" {
		fmt.Fprintf(w, "Duration: %s\n", f.Duration)
	}
	if f.Error != "" {
		fmt.Fprintf(w, "Error: %s\n", f.Error)
	}

	if len(f.Messages) > 0 {
		fmt.Fprintln(w, "\nMessages:")
		for _, m := range f.Messages {
			fmt.Fprintf(w, "  %s [%s] %s\n", statusLabel(m.Status), m.CtxID, m.Text)
		}
	}
	if len(f.Violations) > 0 {
		fmt.Fprintln(w, "\nInvariants:")
		for _, v := range f.Violations {
			fmt.Fprintf(w, "  %s\n", v)
		}
	}
	fmt.Fprintln(w)
}

func statusLabel(s outcome.Status) string {
	switch s {
	case outcome.Aborted:
		return "ABORT"
	case outcome.Loss:
		return "LOSS "
	case outcome.Warning:
		return "WARN "
	default:
		return "     "
	}
}

func formatDuration(ns int64) string {
	return time.Duration(ns).Round(time.Microsecond).String()
}
