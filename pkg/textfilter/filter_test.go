package textfilter

import (
	"strings"
	"testing"
)

func TestFilterText(t *testing.T) {
	f := New()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "lowercase word",
			input:    "What the hell is that?",
			expected: "What the the abyss is that?",
		},
		{
			name:     "title case preserved",
			input:    "Damn! The bridge is out.",
			expected: "Dang! The bridge is out.",
		},
		{
			name:     "uppercase preserved",
			input:    "DAMN the torpedoes",
			expected: "DANG the torpedoes",
		},
		{
			name:     "word boundary respected",
			input:    "The assassin passes the classroom.",
			expected: "The assassin passes the classroom.",
		},
		{
			name:     "multiple words",
			input:    "That damn bastard stole my crap.",
			expected: "That dang scoundrel stole my rubbish.",
		},
		{
			name:     "clean text unchanged",
			input:    "The goblin flees into the shadows.",
			expected: "The goblin flees into the shadows.",
		},
		{
			name:     "empty string",
			input:    "",
			expected: "",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := f.FilterText(tc.input)
			if got != tc.expected {
				t.Errorf("FilterText(%q) = %q, want %q", tc.input, got, tc.expected)
			}
		})
	}
}

func TestContains(t *testing.T) {
	f := New()

	if !f.Contains("what the hell") {
		t.Error("expected flagged word to be detected")
	}
	if f.Contains("a peaceful meadow") {
		t.Error("clean text should not be flagged")
	}
	if f.Contains("classroom assessment") {
		t.Error("substrings inside words should not be flagged")
	}
}

func TestEnabled(t *testing.T) {
	for _, rating := range []string{"G", "pg", "PG13", "pg-13", " PG "} {
		if !Enabled(rating) {
			t.Errorf("Enabled(%q) = false, want true", rating)
		}
	}
	for _, rating := range []string{"R", "M", "", "unrated"} {
		if Enabled(rating) {
			t.Errorf("Enabled(%q) = true, want false", rating)
		}
	}
}

func TestFilterTextIdempotent(t *testing.T) {
	f := New()
	once := f.FilterText("damn it all to hell")
	twice := f.FilterText(once)
	if once != twice {
		t.Errorf("second pass changed output: %q vs %q", once, twice)
	}
	if strings.Contains(strings.ToLower(once), "damn") {
		t.Errorf("flagged word survived: %q", once)
	}
}
