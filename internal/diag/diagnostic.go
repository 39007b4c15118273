package diag

import (
	"fortio.org/safecast"

	"tsxload/internal/transform"
)

// Diagnostic is one finding about one module.
type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	URL      string
	// HasPos reports whether Line, Column and LineText are meaningful.
	HasPos   bool
	Line     uint32 // 1-based
	Column   uint32 // 0-based byte offset into LineText
	LineText string
}

// FromMessage converts an engine message about the module at url.
func FromMessage(sev Severity, code Code, url string, m transform.Message) Diagnostic {
	d := Diagnostic{
		Severity: sev,
		Code:     code,
		Message:  m.Text,
		URL:      url,
	}
	if m.Location == nil {
		return d
	}
	line, lineErr := safecast.Conv[uint32](m.Location.Line)
	col, colErr := safecast.Conv[uint32](m.Location.Column)
	if lineErr != nil || colErr != nil {
		return d
	}
	d.HasPos = true
	d.Line = line
	d.Column = col
	d.LineText = m.Location.LineText
	return d
}

// FromError builds an error diagnostic with no position.
func FromError(code Code, url string, err error) Diagnostic {
	return Diagnostic{Severity: SevError, Code: code, Message: err.Error(), URL: url}
}
