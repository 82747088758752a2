// Package sentiment classifies comment text through interchangeable backends
// and normalizes their output into one three-way verdict schema.
package sentiment

import (
	"context"

	"comment_analyzer/internal/domain"
)

const (
	MethodLexicon = "lexicon"
	MethodModel   = "model"
)

// Backend is one classification strategy. Implementations return exactly one
// verdict per input text, in input order.
type Backend interface {
	Name() string
	Classify(ctx context.Context, texts []string) ([]domain.Verdict, error)
}
