package diagfmt

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"tsxload/internal/diag"
)

// Pretty writes diagnostics in human-readable form. It walks bag.Items()
// (call bag.Sort() first for a stable order). Each diagnostic prints as
//
//	<path>:<line>:<col>: <SEV> <CODE>: <message>
//
// followed, when ShowSource is set, by the source line and a caret.
func Pretty(w io.Writer, bag *diag.Bag, opts PrettyOpts) error {
	p := newPalette(opts.Color)
	var errs, warns int
	for _, d := range bag.Items() {
		switch d.Severity {
		case diag.SevError:
			errs++
		case diag.SevWarning:
			warns++
		}
		if _, err := io.WriteString(w, formatPretty(d, opts, p)); err != nil {
			return err
		}
	}
	if !opts.Summary {
		return nil
	}
	summary := fmt.Sprintf("%s, %s", plural(errs, "error"), plural(warns, "warning"))
	if n := bag.Dropped(); n > 0 {
		summary += fmt.Sprintf(" (%d more not shown)", n)
	}
	if errs > 0 {
		summary = p.err.Sprint(summary)
	}
	_, err := fmt.Fprintln(w, summary)
	return err
}

// PrettyOne renders a single diagnostic.
func PrettyOne(d diag.Diagnostic, opts PrettyOpts) string {
	return formatPretty(d, opts, newPalette(opts.Color))
}

type palette struct {
	err, warn, info, code, loc, gutter, caret *color.Color
}

func newPalette(enabled bool) palette {
	mk := func(attrs ...color.Attribute) *color.Color {
		c := color.New(attrs...)
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
		return c
	}
	return palette{
		err:    mk(color.FgRed, color.Bold),
		warn:   mk(color.FgYellow, color.Bold),
		info:   mk(color.FgCyan, color.Bold),
		code:   mk(color.Faint),
		loc:    mk(color.Bold),
		gutter: mk(color.FgBlue),
		caret:  mk(color.FgGreen, color.Bold),
	}
}

func (p palette) severity(s diag.Severity) *color.Color {
	switch s {
	case diag.SevError:
		return p.err
	case diag.SevWarning:
		return p.warn
	default:
		return p.info
	}
}

func formatPretty(d diag.Diagnostic, opts PrettyOpts, p palette) string {
	var sb strings.Builder
	loc := DisplayPath(d.URL, opts.PathMode, opts.BaseDir)
	if d.HasPos {
		loc += ":" + strconv.FormatUint(uint64(d.Line), 10) + ":" + strconv.FormatUint(uint64(d.Column)+1, 10)
	}
	sb.WriteString(p.loc.Sprint(loc))
	sb.WriteString(": ")
	sb.WriteString(p.severity(d.Severity).Sprint(d.Severity.String()))
	sb.WriteString(" ")
	sb.WriteString(p.code.Sprint(d.Code.ID()))
	sb.WriteString(": ")
	sb.WriteString(d.Message)
	sb.WriteString("\n")

	if !opts.ShowSource || !d.HasPos || d.LineText == "" {
		return sb.String()
	}

	tab := opts.TabWidth
	if tab <= 0 {
		tab = 4
	}
	lineNo := strconv.FormatUint(uint64(d.Line), 10)
	pad := strings.Repeat(" ", len(lineNo))
	text := expandTabs(d.LineText, tab)

	sb.WriteString(p.gutter.Sprint(" " + lineNo + " | "))
	sb.WriteString(text)
	sb.WriteString("\n")
	sb.WriteString(p.gutter.Sprint(" " + pad + " | "))
	sb.WriteString(strings.Repeat(" ", caretOffset(d.LineText, int(d.Column), tab)))
	sb.WriteString(p.caret.Sprint("^"))
	sb.WriteString("\n")
	return sb.String()
}

// caretOffset converts a byte column into a display column, honouring wide
// runes and tab stops.
func caretOffset(line string, col, tab int) int {
	if col > len(line) {
		col = len(line)
	}
	width := 0
	for _, r := range line[:col] {
		if r == '\t' {
			width += tab - width%tab
			continue
		}
		width += runewidth.RuneWidth(r)
	}
	return width
}

func expandTabs(s string, tab int) string {
	if !strings.Contains(s, "\t") {
		return s
	}
	var sb strings.Builder
	width := 0
	for _, r := range s {
		if r == '\t' {
			n := tab - width%tab
			sb.WriteString(strings.Repeat(" ", n))
			width += n
			continue
		}
		sb.WriteRune(r)
		width += runewidth.RuneWidth(r)
	}
	return sb.String()
}

func plural(n int, word string) string {
	if n == 1 {
		return "1 " + word
	}
	return strconv.Itoa(n) + " " + word + "s"
}
