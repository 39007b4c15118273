package diagfmt

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"tsxload/internal/diag"
)

func sampleBag() *diag.Bag {
	bag := diag.NewBag(0)
	bag.Add(diag.Diagnostic{
		Severity: diag.SevError,
		Code:     diag.TranspileError,
		Message:  `Unexpected ";"`,
		URL:      "file:///home/user/app/src/bad.ts",
		HasPos:   true,
		Line:     2,
		Column:   10,
		LineText: "const a = ;",
	})
	bag.Add(diag.Diagnostic{
		Severity: diag.SevWarning,
		Code:     diag.TranspileWarning,
		Message:  "Duplicate key \"a\" in object literal",
		URL:      "node:internal",
	})
	return bag
}

func TestPathModes(t *testing.T) {
	const u = "file:///home/user/app/src/bad.ts"
	base := filepath.FromSlash("/home/user/app")
	tests := []struct {
		name string
		mode PathMode
		base string
		want string
	}{
		{"absolute", PathModeAbsolute, base, filepath.FromSlash("/home/user/app/src/bad.ts")},
		{"relative", PathModeRelative, base, filepath.FromSlash("src/bad.ts")},
		{"basename", PathModeBasename, "", "bad.ts"},
		{"auto inside base", PathModeAuto, base, filepath.FromSlash("src/bad.ts")},
		{"auto outside base", PathModeAuto, filepath.FromSlash("/srv"), filepath.FromSlash("/home/user/app/src/bad.ts")},
		{"url", PathModeURL, base, u},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DisplayPath(u, tt.mode, tt.base); got != tt.want {
				t.Errorf("DisplayPath = %q, want %q", got, tt.want)
			}
		})
	}
	if got := DisplayPath("node:fs", PathModeAbsolute, ""); got != "node:fs" {
		t.Errorf("non-file url changed: %q", got)
	}
}

func TestPrettyWithoutColor(t *testing.T) {
	var buf bytes.Buffer
	err := Pretty(&buf, sampleBag(), PrettyOpts{
		PathMode:   PathModeRelative,
		BaseDir:    filepath.FromSlash("/home/user/app"),
		ShowSource: true,
		Summary:    true,
	})
	if err != nil {
		t.Fatal(err)
	}
	want := filepath.FromSlash("src/bad.ts") + ":2:11: ERROR TSX1001: Unexpected \";\"\n" +
		" 2 | const a = ;\n" +
		"   |           ^\n" +
		"node:internal: WARNING TSX1002: Duplicate key \"a\" in object literal\n" +
		"1 error, 1 warning\n"
	if buf.String() != want {
		t.Fatalf("output:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func TestPrettyColorWrapsSeverity(t *testing.T) {
	bag := sampleBag()
	out := PrettyOne(bag.Items()[0], PrettyOpts{Color: true})
	if !strings.Contains(out, "\x1b[") {
		t.Fatalf("expected ANSI sequences, got %q", out)
	}
	plain := PrettyOne(bag.Items()[0], PrettyOpts{Color: false})
	if strings.Contains(plain, "\x1b[") {
		t.Fatalf("unexpected ANSI sequences in %q", plain)
	}
}

func TestCaretOffsetCountsDisplayWidth(t *testing.T) {
	tests := []struct {
		line string
		col  int
		want int
	}{
		{"abc", 2, 2},
		{"\tx", 1, 4},
		{"日本 = ;", len("日本 = "), 7},
		{"short", 99, 5},
	}
	for _, tt := range tests {
		if got := caretOffset(tt.line, tt.col, 4); got != tt.want {
			t.Errorf("caretOffset(%q, %d) = %d, want %d", tt.line, tt.col, got, tt.want)
		}
	}
	if got := expandTabs("\ta\tb", 4); got != "    a   b" {
		t.Errorf("expandTabs = %q", got)
	}
}

func TestJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	if err := JSON(&buf, sampleBag(), JSONOpts{IncludePositions: true, PathMode: PathModeAbsolute, Max: 1}); err != nil {
		t.Fatal(err)
	}
	var out DiagnosticsOutput
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, buf.String())
	}
	if out.Count != 1 || out.Dropped != 1 {
		t.Fatalf("count = %d dropped = %d", out.Count, out.Dropped)
	}
	d := out.Diagnostics[0]
	if d.Severity != "ERROR" || d.Code != "TSX1001" || d.Kind != "TranspileError" {
		t.Fatalf("unexpected header %+v", d)
	}
	if d.Location.Line != 2 || d.Location.Column != 10 || d.Location.LineText != "const a = ;" {
		t.Fatalf("unexpected location %+v", d.Location)
	}
	if d.Location.File != filepath.FromSlash("/home/user/app/src/bad.ts") {
		t.Fatalf("file = %q", d.Location.File)
	}
}

func TestJSONOmitsPositionsUnlessAsked(t *testing.T) {
	out := BuildDiagnosticsOutput(sampleBag(), JSONOpts{PathMode: PathModeURL})
	if out.Count != 2 {
		t.Fatalf("count = %d", out.Count)
	}
	loc := out.Diagnostics[0].Location
	if loc.Line != 0 || loc.LineText != "" || loc.File != "" {
		t.Fatalf("positions leaked: %+v", loc)
	}
}
