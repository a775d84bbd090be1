package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"ndaredline/internal/domain"
)

const (
	DefaultDir    = "output_analysis"
	DefaultSuffix = "_analysis.md"
	// NoClauses replaces the redline section when nothing was redlined.
	NoClauses = "No clauses were redlined."
)

// Format composes the report text: the summary section, then the redlined
// clauses separated by blank lines.
func Format(summary string, outcomes []domain.RedlineOutcome) string {
	var b strings.Builder
	b.WriteString("=== NDA Contract Summary ===\n")
	b.WriteString(summary)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "=== Redlined Clauses (%d processed) ===\n", len(outcomes))
	if len(outcomes) == 0 {
		b.WriteString(NoClauses)
		return b.String()
	}
	for i, o := range outcomes {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(o.Text)
	}
	return b.String()
}

// Text renders a report with Format.
func Text(r domain.Report) string { return Format(r.Summary, r.Outcomes) }

// OutputPath derives dir/<input base name without extension><suffix>.
// Leading dots belong to the name, so ".nda" keeps its whole base name.
func OutputPath(dir, inputPath, suffix string) string {
	base := filepath.Base(inputPath)
	ext := filepath.Ext(strings.TrimLeft(base, "."))
	name := strings.TrimSuffix(base, ext)
	return filepath.Join(dir, name+suffix)
}

// WriteError reports a report that could not be persisted. It matches domain.ErrWrite.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write report %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() []error { return []error{domain.ErrWrite, e.Err} }

// Writer stores reports under a fixed directory.
type Writer struct {
	Dir    string
	Suffix string
}

// NewWriter returns a Writer, defaulting empty settings.
func NewWriter(dir, suffix string) *Writer {
	if dir == "" {
		dir = DefaultDir
	}
	if suffix == "" {
		suffix = DefaultSuffix
	}
	return &Writer{Dir: dir, Suffix: suffix}
}

// Write creates the directory if needed and writes text to the derived path.
func (w *Writer) Write(inputPath, text string) (string, error) {
	path := OutputPath(w.Dir, inputPath, w.Suffix)
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return path, &WriteError{Path: path, Err: err}
	}
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return path, &WriteError{Path: path, Err: err}
	}
	return path, nil
}
