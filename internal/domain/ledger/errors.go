package ledger

import "errors"

// Sentinel kinds for ledger errors.
var (
	ErrInvalidGrade = errors.New("invalid grade")
)
