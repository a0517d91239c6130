// Package verify runs a conversion in memory and reports what it would
// change as a unified diff of the canonical documents.
package verify

import (
	"bytes"
	"fmt"

	"github.com/pmezard/go-difflib/difflib"

	"dhcpmigrate/internal/configdoc"
	"dhcpmigrate/internal/domain"
	"dhcpmigrate/internal/migrate"
)

// ContextLines is the number of unchanged lines around each hunk.
const ContextLines = 3

// Result is the outcome of a verification.
type Result struct {
	Stats *domain.MigrationStats
	// Diff is empty when the conversion changes nothing.
	Diff string
}

// Changed reports whether the conversion would modify the document.
func (r *Result) Changed() bool {
	return r.Diff != ""
}

// Run converts a copy of doc and diffs it against the original. doc is
// not modified.
func Run(eng *migrate.Engine, doc *configdoc.Document, opts domain.MigrationOptions) (*Result, error) {
	converted := doc.Clone()
	stats, err := eng.Convert(converted, opts)
	if err != nil {
		return nil, err
	}
	diff, err := Diff(doc, converted)
	if err != nil {
		return nil, err
	}
	return &Result{Stats: stats, Diff: diff}, nil
}

// Diff returns the unified diff between the canonical forms of two
// documents, or "" when they are equivalent.
func Diff(original, converted *configdoc.Document) (string, error) {
	a, err := original.Canonical()
	if err != nil {
		return "", fmt.Errorf("canonicalize original: %w", err)
	}
	b, err := converted.Canonical()
	if err != nil {
		return "", fmt.Errorf("canonicalize converted: %w", err)
	}
	if bytes.Equal(a, b) {
		return "", nil
	}
	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(a)),
		B:        difflib.SplitLines(string(b)),
		FromFile: "original",
		ToFile:   "converted",
		Context:  ContextLines,
	})
}
