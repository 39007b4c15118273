package diag

import (
	"fmt"
	"io"
	"strings"
)

// Reporter receives diagnostics as they are produced.
type Reporter interface {
	Report(d Diagnostic)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(d Diagnostic)

func (f ReporterFunc) Report(d Diagnostic) { f(d) }

// NopReporter drops everything.
type NopReporter struct{}

func (NopReporter) Report(Diagnostic) {}

// MultiReporter fans out to several reporters in order.
type MultiReporter []Reporter

func (m MultiReporter) Report(d Diagnostic) {
	for _, r := range m {
		if r != nil {
			r.Report(d)
		}
	}
}

// StreamReporter writes errors to Errors and warnings to Warnings. Info
// diagnostics go to Warnings as well. A nil writer drops its diagnostics.
type StreamReporter struct {
	Errors   io.Writer
	Warnings io.Writer
}

// Report implements Reporter. Write errors are ignored.
func (r StreamReporter) Report(d Diagnostic) {
	if d.Severity.Blocking() {
		if r.Errors != nil {
			_, _ = io.WriteString(r.Errors, FormatError(d)) //nolint:errcheck
		}
		return
	}
	if r.Warnings != nil {
		_, _ = fmt.Fprintln(r.Warnings, d.Message) //nolint:errcheck
	}
}

// FormatError renders d as an error-stream block.
func FormatError(d Diagnostic) string {
	var sb strings.Builder
	sb.WriteString(d.Code.String())
	sb.WriteString(": ")
	sb.WriteString(d.Message)
	sb.WriteString("\n    at ")
	sb.WriteString(d.URL)
	if d.HasPos {
		fmt.Fprintf(&sb, ":%d:%d\n    at: %s", d.Line, d.Column, d.LineText)
	}
	sb.WriteString("\n")
	return sb.String()
}
