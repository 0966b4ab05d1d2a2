package flow

import "strings"

// Origin tags where a passage came from.
type Origin string

const (
	OriginCorpus Origin = "corpus"
	OriginWeb    Origin = "web"
)

// Passage is a unit of evidence: a content body plus an origin tag.
// Passages are created by the retriever or web searcher, read by the
// graders and generator, and discarded with the State at execution end.
type Passage struct {
	ID      string `json:"id,omitempty"`
	Content string `json:"content"`
	Origin  Origin `json:"origin"`
}

// State is the record threaded through the workflow for one query. Each
// execution owns its State exclusively; concurrent queries never share one.
type State struct {
	// Question is the query text. The transform step rewrites it in place,
	// so after a transform it differs from the caller's input.
	Question string `json:"question"`
	// Documents is replaced wholesale by the retrieve, web search, and
	// document grading steps. Never nil after any of those has run.
	Documents []Passage `json:"documents"`
	// Generation is the current answer. Empty until generate has run.
	Generation string `json:"generation"`
	// RetryCount counts query reformulations. It bounds the
	// inadequate-answer feedback loop and nothing else.
	RetryCount int `json:"retry_count"`
}

// Clone returns a copy of the state with its own documents slice, so event
// observers can hold a snapshot while the execution keeps mutating.
func (s State) Clone() State {
	out := s
	if s.Documents != nil {
		out.Documents = make([]Passage, len(s.Documents))
		copy(out.Documents, s.Documents)
	}
	return out
}

func joinContents(passages []Passage, sep string) string {
	parts := make([]string, 0, len(passages))
	for _, p := range passages {
		parts = append(parts, p.Content)
	}
	return strings.Join(parts, sep)
}
