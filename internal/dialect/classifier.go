package dialect

import (
	"net/url"
	"path"
	"strings"
)

// DefaultJSXExtensions and DefaultTSXExtensions are the extension sets used
// by a zero Classifier.
var (
	DefaultJSXExtensions = []string{".jsx"}
	DefaultTSXExtensions = []string{".mts", ".ts", ".tsx"}
)

// Classifier maps file extensions to dialects. The zero value uses the
// default extension sets.
type Classifier struct {
	byExt map[string]Kind
}

// NewClassifier builds a classifier from explicit extension sets. Extensions
// are matched case-sensitively and must include the leading dot. When an
// extension appears in both sets, TSX wins.
func NewClassifier(jsxExts, tsxExts []string) Classifier {
	byExt := make(map[string]Kind, len(jsxExts)+len(tsxExts))
	for _, ext := range jsxExts {
		byExt[ext] = JSX
	}
	for _, ext := range tsxExts {
		byExt[ext] = TSX
	}
	return Classifier{byExt: byExt}
}

var defaultClassifier = NewClassifier(DefaultJSXExtensions, DefaultTSXExtensions)

// Extension classifies a bare extension such as ".tsx".
func (c Classifier) Extension(ext string) Kind {
	byExt := c.byExt
	if byExt == nil {
		byExt = defaultClassifier.byExt
	}
	return byExt[ext]
}

// Path classifies a slash-separated path by its extension.
func (c Classifier) Path(p string) Kind {
	return c.Extension(path.Ext(p))
}

// URL classifies a resolved module URL. Query and fragment are ignored. An
// unparsable URL is unclassified.
func (c Classifier) URL(raw string) Kind {
	u, err := url.Parse(raw)
	if err != nil {
		return Unclassified
	}
	p := u.Path
	if p == "" {
		// opaque URLs such as "node:fs"
		p = u.Opaque
	}
	if strings.HasSuffix(p, "/") {
		return Unclassified
	}
	return c.Path(p)
}

// Classify classifies a resolved module URL with the default extension sets.
func Classify(rawURL string) Kind {
	return defaultClassifier.URL(rawURL)
}
