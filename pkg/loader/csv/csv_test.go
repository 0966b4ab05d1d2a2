package csv

import (
	"strings"
	"testing"
)

func TestParseCSV(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
		wantErr bool
	}{
		{
			name:    "single column",
			content: "content\n\"Interlibrary loan is a library service.\"\n\"RAG combines retrieval with generation.\"\n",
			want: []string{
				"content: Interlibrary loan is a library service.",
				"content: RAG combines retrieval with generation.",
			},
		},
		{
			name:    "multiple columns",
			content: "title,body\nFirst,Some text\nSecond,Other text\n",
			want: []string{
				"title: First\nbody: Some text",
				"title: Second\nbody: Other text",
			},
		},
		{
			name:    "skips empty rows",
			content: "content\n\n\"kept\"\n,,\n",
			want:    []string{"content: kept"},
		},
		{
			name:    "row wider than header",
			content: "a\nx,y\n",
			want:    []string{"a: x\ncolumn_2: y"},
		},
		{
			name:    "header only",
			content: "content\n",
			wantErr: true,
		},
		{
			name:    "empty input",
			content: "",
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCSV([]byte(tt.content))
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseCSV() did not fail, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseCSV() error = %v", err)
			}
			want := strings.Join(tt.want, "\n\n")
			if string(got) != want {
				t.Fatalf("ParseCSV() = %q, want %q", got, want)
			}
		})
	}
}
