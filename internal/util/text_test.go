package util

import "testing"

func TestSanitizePostgresText(t *testing.T) {
	if got := SanitizePostgresText(""); got != "" {
		t.Fatalf("expected empty string, got %q", got)
	}
	if got := SanitizePostgresText("hello\x00world"); got != "helloworld" {
		t.Fatalf("expected NUL stripped, got %q", got)
	}
	if got := SanitizePostgresText("ok\xffok"); got != "okok" {
		t.Fatalf("expected invalid UTF-8 stripped, got %q", got)
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("short", 10); got != "short" {
		t.Fatalf("expected unchanged, got %q", got)
	}
	if got := Truncate("abcdef", 3); got != "abc…" {
		t.Fatalf("expected truncated with ellipsis, got %q", got)
	}
	if got := Truncate("abc", 0); got != "" {
		t.Fatalf("expected empty for max=0, got %q", got)
	}
}
