package flow

import (
	"errors"
	"testing"
)

func TestParseSourceLabel(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    SourceLabel
		wantErr bool
	}{
		{name: "vectorstore", raw: "vectorstore", want: SourceVectorstore},
		{name: "web search", raw: "web_search", want: SourceWebSearch},
		{name: "unknown label", raw: "wikipedia", wantErr: true},
		{name: "empty", raw: "", wantErr: true},
		{name: "case sensitive", raw: "Vectorstore", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSourceLabel(tt.raw)
			if tt.wantErr {
				var routingErr *RoutingError
				if !errors.As(err, &routingErr) {
					t.Fatalf("ParseSourceLabel(%q) error = %v, want RoutingError", tt.raw, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseSourceLabel(%q) error = %v", tt.raw, err)
			}
			if got != tt.want {
				t.Fatalf("ParseSourceLabel(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestParseVerdict(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    Verdict
		wantErr bool
	}{
		{name: "yes", raw: "yes", want: VerdictYes},
		{name: "no", raw: "no", want: VerdictNo},
		{name: "free-form", raw: "definitely", wantErr: true},
		{name: "empty", raw: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseVerdict(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseVerdict(%q) did not fail", tt.raw)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseVerdict(%q) error = %v", tt.raw, err)
			}
			if got != tt.want {
				t.Fatalf("ParseVerdict(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestCloneCopiesDocuments(t *testing.T) {
	orig := State{
		Question:  "q",
		Documents: []Passage{{ID: "a", Content: "text", Origin: OriginCorpus}},
	}
	clone := orig.Clone()
	clone.Documents[0].Content = "mutated"
	if orig.Documents[0].Content != "text" {
		t.Fatal("Clone() shares the documents slice with the original")
	}
}

func TestJoinContents(t *testing.T) {
	passages := []Passage{{Content: "a"}, {Content: "b"}, {Content: "c"}}
	if got := joinContents(passages, "\n"); got != "a\nb\nc" {
		t.Fatalf("joinContents() = %q", got)
	}
	if got := joinContents(nil, "\n"); got != "" {
		t.Fatalf("joinContents(nil) = %q, want empty", got)
	}
}
