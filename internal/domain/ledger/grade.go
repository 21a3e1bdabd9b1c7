package ledger

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// gradePattern accepts plain non-negative decimals once the separator is normalized.
var gradePattern = regexp.MustCompile(`^(\d+(\.\d+)?|\.\d+)$`)

// Grade is a submitted mark. Text is the exact form kept in the ledger,
// Value is only used for ordering.
type Grade struct {
	Text  string
	Value float64
}

// NormalizeGrade trims the input and turns a decimal comma into a dot.
func NormalizeGrade(input string) string {
	return strings.ReplaceAll(strings.TrimSpace(input), ",", ".")
}

// ParseGrade validates user input as a non-negative decimal grade.
func ParseGrade(input string) (Grade, error) {
	text := NormalizeGrade(input)
	if !gradePattern.MatchString(text) {
		return Grade{}, fmt.Errorf("%w: %q", ErrInvalidGrade, input)
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return Grade{}, fmt.Errorf("%w: %q: %w", ErrInvalidGrade, input, err)
	}
	return Grade{Text: text, Value: v}, nil
}
