// Package flow implements the adaptive retrieval workflow: a small state
// machine that routes a question to a data source, gathers and filters
// evidence, generates an answer, and self-checks the result, reformulating
// the question when the answer is inadequate.
package flow

import (
	"context"
	"fmt"
)

// SourceLabel is the routing decision domain. The router must produce
// exactly one of these two values.
type SourceLabel string

const (
	SourceVectorstore SourceLabel = "vectorstore"
	SourceWebSearch   SourceLabel = "web_search"
)

// ParseSourceLabel validates a raw routing label. Anything outside the
// two-value domain is a contract violation, not a recoverable condition.
func ParseSourceLabel(raw string) (SourceLabel, error) {
	switch SourceLabel(raw) {
	case SourceVectorstore, SourceWebSearch:
		return SourceLabel(raw), nil
	}
	return "", &RoutingError{Label: raw}
}

// Verdict is a binary grading outcome.
type Verdict string

const (
	VerdictYes Verdict = "yes"
	VerdictNo  Verdict = "no"
)

// ParseVerdict validates a raw grader verdict.
func ParseVerdict(raw string) (Verdict, error) {
	switch Verdict(raw) {
	case VerdictYes, VerdictNo:
		return Verdict(raw), nil
	}
	return "", fmt.Errorf("grader returned verdict outside its domain: %q", raw)
}

// Affirmative reports whether the verdict is the positive outcome.
func (v Verdict) Affirmative() bool {
	return v == VerdictYes
}

// Router decides which data source should serve a question.
type Router interface {
	Route(ctx context.Context, question string) (SourceLabel, error)
}

// Retriever fetches evidence passages for a question from the indexed corpus.
type Retriever interface {
	Retrieve(ctx context.Context, question string) ([]Passage, error)
}

// WebSearcher fetches live web evidence for a question. Implementations
// degrade gracefully: on provider failure they return a passage describing
// the failure rather than an error, so the workflow can keep going.
type WebSearcher interface {
	Search(ctx context.Context, question string) (Passage, error)
}

// Grader renders a binary verdict on a piece of text judged against a
// reference. The three grading roles share this shape: relevance judges a
// passage against the question, groundedness judges the answer against the
// evidence, and adequacy judges the answer against the question.
type Grader interface {
	Grade(ctx context.Context, reference, candidate string) (Verdict, error)
}

// Generator produces an answer from a question and its evidence passages.
type Generator interface {
	Generate(ctx context.Context, question string, passages []Passage) (string, error)
}

// Config gates execution: the engine checks it once before the first step
// and refuses to run when it reports an error.
type Config interface {
	Validate() error
}
