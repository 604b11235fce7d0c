package util

import (
	"strings"
	"testing"
)

func TestSanitizeFileName(t *testing.T) {
	cases := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{name: "plain", in: "invoice.pdf", want: "invoice.pdf"},
		{name: "slashes replaced", in: "a/b\\c.txt", want: "a_b_c.txt"},
		{name: "control chars dropped", in: "a\x00b\x1f.txt", want: "ab.txt"},
		{name: "trimmed", in: "  report.png  ", want: "report.png"},
		{name: "traversal rejected", in: "../../etc/passwd", wantErr: true},
		{name: "empty rejected", in: "   ", wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := SanitizeFileName(tc.in)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestHashUserKeyStableAndSafe(t *testing.T) {
	a := HashUserKey("user@example.com")
	b := HashUserKey("user@example.com")
	if a != b {
		t.Fatalf("hash not stable: %q vs %q", a, b)
	}
	if len(a) != 32 {
		t.Fatalf("expected 32 hex chars, got %d", len(a))
	}
	if strings.ContainsAny(a, "/\\.") {
		t.Fatalf("hash contains path characters: %q", a)
	}
	if HashUserKey("other") == a {
		t.Fatalf("distinct users mapped to same key")
	}
}
