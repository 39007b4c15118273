package diagfmt

// PathMode specifies how module locations are displayed.
type PathMode uint8

const (
	// PathModeAuto shows file URLs relative to BaseDir when they live under
	// it and as absolute paths otherwise.
	PathModeAuto PathMode = iota
	// PathModeAbsolute always uses absolute paths for file URLs.
	PathModeAbsolute
	PathModeRelative
	PathModeBasename
	// PathModeURL prints locations exactly as the host reported them.
	PathModeURL
)

// PrettyOpts configures pretty-printing of diagnostics.
type PrettyOpts struct {
	Color    bool
	PathMode PathMode
	BaseDir  string
	// ShowSource prints the offending line with a caret under the column.
	ShowSource bool
	// TabWidth expands tabs in source lines; 0 means 4.
	TabWidth int
	Summary  bool
}

// JSONOpts configures JSON output of diagnostics.
type JSONOpts struct {
	IncludePositions bool // add line/column/line_text
	PathMode         PathMode
	BaseDir          string
	Max              int // truncates output, not the Bag
}
