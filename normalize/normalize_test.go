package normalize

import (
	"strings"
	"testing"
)

func TestCandidate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"clean title", "Lightning Bolt", "Lightning Bolt"},
		{"trailing mana cost", "Lightning Bolt {R}", "Lightning Bolt"},
		{"pipe artifact", "So| Ring", "Sol Ring"},
		{"digit artifacts", "S0l Ring", "SOl Ring"},
		{"multiline keeps first", "Dark Ritual\nInstant", "Dark Ritual"},
		{"whitespace collapse", "  Sol   Ring  ", "Sol Ring"},
		{"punctuation noise", "**Counterspell!!", "Counterspell"},
		{"apostrophe kept", "Gaea's Cradle", "Gaea's Cradle"},
		{"hyphen kept", "Lim-Dul's Vault", "Lim-Dul's Vault"},
		{"comma kept", "Borborygmos, Enraged", "Borborygmos, Enraged"},
		{"curly quote folded", "Gaea’s Cradle", "Gaea's Cradle"},
		{"too short", "ab", ""},
		{"only noise", "#$% 12 &*", ""},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Candidate(tt.in); got != tt.want {
				t.Fatalf("Candidate(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCandidateIdempotent(t *testing.T) {
	inputs := []string{
		"Lightning Bolt {R}",
		"  S0| Ring \n junk",
		"Gaea’s Cradle",
		"Borborygmos, Enraged",
		strings.Repeat("Very Long Name ", 10),
	}
	for _, in := range inputs {
		once := Candidate(in)
		if twice := Candidate(once); twice != once {
			t.Fatalf("not idempotent: %q -> %q -> %q", in, once, twice)
		}
	}
}

func TestCandidateCapsLength(t *testing.T) {
	got := Candidate(strings.Repeat("a", 120))
	if len(got) > 50 {
		t.Fatalf("candidate length %d exceeds cap", len(got))
	}
	if got == "" {
		t.Fatalf("long but valid name should not be dropped")
	}
}
