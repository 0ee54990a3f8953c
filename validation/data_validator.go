// Package validation provides input validation for the drug registry search service.
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/giygas/israeldrugs-mcp/interfaces"
)

// Pre-compiled regex patterns for performance optimization
var (
	// Input validation: Latin + Hebrew letters, digits and safe punctuation
	inputRegex = regexp.MustCompile(`^[\p{Latin}\p{Hebrew}0-9\s\-\.\+'"/,()%]+$`)

	// Dangerous patterns as strings (faster than regex for simple substring matching)
	dangerousPatterns = []string{
		"<script", "</script>", "javascript:", "vbscript:", "onload=", "onerror=",
		"onclick=", "onmouseover=", "onfocus=", "onblur=", "onchange=", "onsubmit=",
		"eval(", "expression(", "url(", "import ", "@import", "binding(", "behavior(",
		// SQL injection patterns
		"' or ", "\" or ", "union select", "drop table", "delete from", "insert into",
		"update set", "--", "/*", "*/", "xp_", "sp_", "exec(", "execute(",
		// Command injection patterns
		"; ", "| ", "& ", "`", "$(", "${",
		// Path traversal patterns
		"../", "..\\", "%2e%2e", "file://",
	}
)

const (
	minInputLength = 2
	maxInputLength = 100
	maxInputWords  = 8
	maxPage        = 500
)

// InputValidatorImpl implements the interfaces.InputValidator interface
type InputValidatorImpl struct{}

// NewInputValidator creates a new input validator
func NewInputValidator() interfaces.InputValidator {
	return &InputValidatorImpl{}
}

// ValidateInput validates user input strings
func (v *InputValidatorImpl) ValidateInput(input string) error {
	if strings.TrimSpace(input) == "" {
		return fmt.Errorf("input cannot be empty")
	}

	length := len([]rune(input))
	if length < minInputLength {
		return fmt.Errorf("input too short: minimum %d characters", minInputLength)
	}

	if length > maxInputLength {
		return fmt.Errorf("input too long: maximum %d characters", maxInputLength)
	}

	// Word count validation to prevent DoS attacks with many short words
	words := strings.Fields(input)
	if len(words) > maxInputWords {
		return fmt.Errorf("search query too complex: maximum %d words allowed", maxInputWords)
	}

	lowerInput := strings.ToLower(input)
	for _, pattern := range dangerousPatterns {
		if strings.Contains(lowerInput, pattern) {
			return fmt.Errorf("input contains potentially dangerous content")
		}
	}

	if !inputRegex.MatchString(input) {
		return fmt.Errorf("input contains invalid characters. Only Hebrew or Latin letters, numbers, spaces and basic punctuation are allowed")
	}

	if !hasLetterOrDigit(input) {
		return fmt.Errorf("input must contain at least one letter or digit")
	}

	if v.hasExcessiveRepetition(input) {
		return fmt.Errorf("input contains excessive character repetition")
	}

	return nil
}

// ValidatePage validates a 1-based page number
func (v *InputValidatorImpl) ValidatePage(page int) error {
	if page < 1 {
		return fmt.Errorf("page must be at least 1, got: %d", page)
	}
	if page > maxPage {
		return fmt.Errorf("page is too large (max %d), got: %d", maxPage, page)
	}
	return nil
}

func hasLetterOrDigit(input string) bool {
	for _, r := range input {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

// hasExcessiveRepetition checks for the same rune repeated more than 10 times consecutively
func (v *InputValidatorImpl) hasExcessiveRepetition(input string) bool {
	runes := []rune(input)
	run := 1
	for i := 1; i < len(runes); i++ {
		if runes[i] == runes[i-1] {
			run++
			if run > 10 {
				return true
			}
		} else {
			run = 1
		}
	}
	return false
}
