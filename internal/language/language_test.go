package language

import "testing"

func TestToISO2(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"en", "en"},
		{"EN", "en"},
		{"eng", "en"},
		{"spa", "es"},
		{"fre", "fr"},
		{"fra", "fr"},
		{"ger", "de"},
		{"jpn", "ja"},
		{"en-US", "en"},
		{"pt-BR", "pt"},
		{"english", "en"},
		{"German", "de"},
		{"xx", "xx"},
		{"", ""},
		{"   ", ""},
	}
	for _, tt := range tests {
		if got := ToISO2(tt.input); got != tt.expected {
			t.Errorf("ToISO2(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestToISO3(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"en", "eng"},
		{"fr", "fra"},
		{"ger", "deu"},
		{"english", "eng"},
		{"", "und"},
	}
	for _, tt := range tests {
		if got := ToISO3(tt.input); got != tt.expected {
			t.Errorf("ToISO3(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestDisplayName(t *testing.T) {
	if got := DisplayName("eng"); got != "English" {
		t.Fatalf("DisplayName(eng) = %q", got)
	}
	if got := DisplayName(""); got != "Unknown" {
		t.Fatalf("DisplayName(empty) = %q", got)
	}
}

func TestExtractFromTags(t *testing.T) {
	if got := ExtractFromTags(map[string]string{"LANGUAGE": " ENG\u0000"}); got != "eng" {
		t.Fatalf("ExtractFromTags = %q", got)
	}
	if got := ExtractFromTags(nil); got != "" {
		t.Fatalf("ExtractFromTags(nil) = %q", got)
	}
}
