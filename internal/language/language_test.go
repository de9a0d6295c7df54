package language

import (
	"sort"
	"testing"
)

func TestValid(t *testing.T) {
	tests := []struct {
		code string
		want bool
	}{
		{"", true},
		{"en", true},
		{"it", true},
		{"zh", true},
		{"EN", false},
		{"english", false},
		{"xx", false},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			if got := Valid(tt.code); got != tt.want {
				t.Errorf("Valid(%q) = %v, want %v", tt.code, got, tt.want)
			}
		})
	}
}

func TestLookup(t *testing.T) {
	l, ok := Lookup("de")
	if !ok || l.Name != "German" {
		t.Errorf("Lookup(de) = %+v, %v", l, ok)
	}
	if _, ok := Lookup(""); ok {
		t.Error("empty code should not be a language")
	}
}

func TestLabel(t *testing.T) {
	tests := map[string]string{
		"":   AutoLabel,
		"en": "English (en)",
		"xx": "xx",
	}
	for code, want := range tests {
		if got := Label(code); got != want {
			t.Errorf("Label(%q) = %q, want %q", code, got, want)
		}
	}
}

func TestCodes(t *testing.T) {
	codes := Codes()
	if len(codes) != 57 {
		t.Errorf("Codes() returned %d codes, want 57", len(codes))
	}
	if !sort.StringsAreSorted(codes) {
		t.Error("Codes() is not sorted")
	}
}
