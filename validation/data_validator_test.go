package validation

import (
	"strings"
	"testing"
)

func TestValidateInput_Valid(t *testing.T) {
	validator := NewInputValidator()

	testCases := []struct {
		name  string
		input string
	}{
		{"Latin trade name", "Acamol"},
		{"Hebrew trade name", "אקמול"},
		{"Ingredient with dosage", "PARACETAMOL 500MG"},
		{"Mixed scripts", "Nurofen נורופן"},
		{"Percent and slash", "Ibuprofen 2% gel/cream"},
		{"Two characters", "AB"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if err := validator.ValidateInput(tc.input); err != nil {
				t.Errorf("Expected no error for %q, got %v", tc.input, err)
			}
		})
	}
}

func TestValidateInput_Invalid(t *testing.T) {
	validator := NewInputValidator()

	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{"Empty", "", "cannot be empty"},
		{"Whitespace", "   ", "cannot be empty"},
		{"Too short", "a", "too short"},
		{"Too long", strings.Repeat("ab", 51), "too long"},
		{"Too many words", "a1 b2 c3 d4 e5 f6 g7 h8 i9", "too complex"},
		{"Script tag", "<script>alert(1)</script>", "dangerous"},
		{"SQL comment", "acamol--", "dangerous"},
		{"Cyrillic", "Привет", "invalid characters"},
		{"Emoji", "pill 💊", "invalid characters"},
		{"Only punctuation", "...,,,", "letter or digit"},
		{"Null byte", "abc\x00def", "invalid characters"},
		{"Repetition", "aaaaaaaaaaaaaaa", "repetition"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := validator.ValidateInput(tc.input)
			if err == nil {
				t.Fatalf("Expected error for %q, got nil", tc.input)
			}
			if !strings.Contains(err.Error(), tc.expected) {
				t.Errorf("Expected error containing %q, got %v", tc.expected, err)
			}
		})
	}
}

func TestValidatePage(t *testing.T) {
	validator := NewInputValidator()

	for _, page := range []int{1, 2, 500} {
		if err := validator.ValidatePage(page); err != nil {
			t.Errorf("Expected page %d to be valid, got %v", page, err)
		}
	}
	for _, page := range []int{-1, 0, 501} {
		if err := validator.ValidatePage(page); err == nil {
			t.Errorf("Expected page %d to be rejected", page)
		}
	}
}
