// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import "testing"

func TestTitle(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"stopwords removed", "The Theory of Everything", "theory everything"},
		{"punctuation stripped", "Machine-Learning: A Survey!", "machine learning survey"},
		{"whitespace collapsed", "A  Study   of   Noise", "study noise"},
		{"already normalized is stable", "theory everything", "theory everything"},
		{"empty string", "", ""},
		{"all stopwords", "The a an of", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Title(tt.input)
			if got != tt.want {
				t.Errorf("Title(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestTitleIdempotent(t *testing.T) {
	inputs := []string{"The Theory of Everything!", "naïve Bayes: A Survey", "", "CRISPR-Cas9 Editing"}
	for _, in := range inputs {
		once := Title(in)
		twice := Title(once)
		if once != twice {
			t.Errorf("Title not idempotent for %q: Title(x)=%q, Title(Title(x))=%q", in, once, twice)
		}
	}
}

func TestName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"initial with period", "J. Smith", "j smith"},
		{"full name", "John Smith", "john smith"},
		{"hyphenated surname", "Anne-Marie O'Brien", "anne marie o brien"},
		{"extra whitespace", "  John   Smith  ", "john smith"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Name(tt.input)
			if got != tt.want {
				t.Errorf("Name(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestDOI(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain doi lowercased", "10.1038/NATURE12373", "10.1038/nature12373"},
		{"https doi.org prefix stripped", "https://doi.org/10.1038/nature12373", "10.1038/nature12373"},
		{"dx.doi.org prefix stripped", "http://dx.doi.org/10.1038/nature12373", "10.1038/nature12373"},
		{"whitespace trimmed", "  10.1038/nature12373  ", "10.1038/nature12373"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DOI(tt.input)
			if got != tt.want {
				t.Errorf("DOI(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestDOIIdempotent(t *testing.T) {
	inputs := []string{"https://doi.org/10.1038/X", "10.1038/x", "  HTTPS://DX.DOI.ORG/10.1/Y "}
	for _, in := range inputs {
		once := DOI(in)
		twice := DOI(once)
		if once != twice {
			t.Errorf("DOI not idempotent for %q: DOI(x)=%q, DOI(DOI(x))=%q", in, once, twice)
		}
	}
}

func TestIsValidORCID(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"valid numeric", "0000-0001-2345-6789", true},
		{"valid with X checksum", "0000-0002-1825-009X", true},
		{"missing dashes", "0000000123456789", false},
		{"too short", "0000-0001-2345-678", false},
		{"lowercase x rejected", "0000-0002-1825-009x", false},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsValidORCID(tt.input)
			if got != tt.want {
				t.Errorf("IsValidORCID(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestSurnameInitialKey(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		wantSurname string
		wantInitial string
	}{
		{"standard order", "John Smith", "smith", "j"},
		{"initial form", "J. Smith", "smith", "j"},
		{"single token", "Cher", "cher", "c"},
		{"empty", "", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			surname, initial := SurnameInitialKey(tt.input)
			if surname != tt.wantSurname || initial != tt.wantInitial {
				t.Errorf("SurnameInitialKey(%q) = (%q, %q), want (%q, %q)",
					tt.input, surname, initial, tt.wantSurname, tt.wantInitial)
			}
		})
	}
}
