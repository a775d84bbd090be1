package domain

import (
	"context"
	"strings"
)

// Format tags how a document's text was obtained.
type Format string

const (
	FormatPlain    Format = "plain"
	FormatMarkdown Format = "markdown"
	FormatPDF      Format = "pdf"
)

// Document represents a single contract file loaded into the system.
type Document struct {
	Path    string
	Format  Format
	Content string
}

// Clause is one contractual provision extracted from a document.
type Clause string

// Preview returns at most n runes of the clause for log correlation.
func (c Clause) Preview(n int) string {
	r := []rune(string(c))
	if len(r) <= n {
		return string(c)
	}
	return string(r[:n]) + "..."
}

// RetrievalScope is the ordered, duplicate-free set of collection ids searched
// while redlining. The default collection is always first.
type RetrievalScope struct {
	ids []string
}

// NewRetrievalScope builds a scope from the default id followed by extra ids.
// Empty and repeated ids are dropped.
func NewRetrievalScope(defaultID string, extra ...string) RetrievalScope {
	ids := make([]string, 0, 1+len(extra))
	seen := make(map[string]struct{}, 1+len(extra))
	for _, id := range append([]string{defaultID}, extra...) {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return RetrievalScope{ids: ids}
}

// IDs returns a copy of the collection ids in search order.
func (s RetrievalScope) IDs() []string {
	out := make([]string, len(s.ids))
	copy(out, s.ids)
	return out
}

// Default returns the default collection id, or "" for an empty scope.
func (s RetrievalScope) Default() string {
	if len(s.ids) == 0 {
		return ""
	}
	return s.ids[0]
}

func (s RetrievalScope) Len() int { return len(s.ids) }

// RedlineOutcome is the result for one clause. Text holds either the proposed
// redline or, when Err is set, an inline error annotation.
type RedlineOutcome struct {
	Clause Clause
	Text   string
	Err    error
}

func (o RedlineOutcome) Failed() bool { return o.Err != nil }

// Report is the aggregated analysis of one document.
type Report struct {
	Summary  string
	Outcomes []RedlineOutcome
}

// Loader reads a contract file into a Document.
type Loader interface {
	Load(path string) (Document, error)
}

// CollectionLookup finds the user-specific collection for a user id, if any.
type CollectionLookup interface {
	LookupCollection(ctx context.Context, userID string) (id string, ok bool, err error)
}

// ScopeResolver determines which collections a run searches.
type ScopeResolver interface {
	Resolve(ctx context.Context, userID string) RetrievalScope
}

// Summarizer produces a plain-English summary of the contract text.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}

// Segmenter splits contract text into clauses. A failure yields no clauses.
type Segmenter interface {
	Segment(ctx context.Context, text string) []Clause
}

// Redliner proposes a redline for every clause, one outcome per clause in order.
type Redliner interface {
	Process(ctx context.Context, clauses []Clause, scope RetrievalScope) []RedlineOutcome
}

// ReportWriter persists the report text and returns where it was written.
type ReportWriter interface {
	Write(inputPath, text string) (string, error)
}
