package diag

// Severity orders diagnostics. Errors go to the error stream and fail the
// load; everything below goes to the warning stream.
type Severity uint8

const (
	SevInfo Severity = iota
	SevWarning
	SevError
)

var severityNames = [...]string{
	SevInfo:    "INFO",
	SevWarning: "WARNING",
	SevError:   "ERROR",
}

func (s Severity) String() string {
	if int(s) < len(severityNames) {
		return severityNames[s]
	}
	return "UNKNOWN"
}

// Blocking reports whether a diagnostic of this severity fails the module.
func (s Severity) Blocking() bool {
	return s >= SevError
}
