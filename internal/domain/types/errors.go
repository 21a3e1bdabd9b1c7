package types

import (
	"errors"
	"fmt"
)

// Failure kinds reported by ranking operations.
var (
	ErrInvalidRequest   = errors.New("invalid request")
	ErrInvalidTitle     = errors.New("invalid title")
	ErrInvalidScale     = errors.New("invalid scale")
	ErrInvalidGrade     = errors.New("invalid grade")
	ErrInvalidControl   = errors.New("invalid control")
	ErrRateLimited      = errors.New("rate limited")
	ErrExpired          = errors.New("ranking expired")
	ErrAlreadySubmitted = errors.New("already submitted")
	ErrNotARanking      = errors.New("target is not a ranking")
	ErrTargetMissing    = errors.New("target message missing")
	ErrEmptyLedger      = errors.New("ranking has no grades")
	ErrGradeNotFound    = errors.New("grade not in ranking")
	ErrMalformedState   = errors.New("malformed persisted state")
	ErrDuplicate        = errors.New("duplicate interaction")
	ErrInternal         = errors.New("internal error")
)

// OpError attaches an operation name and a failure kind to an error.
type OpError struct {
	Op   string
	Kind error
	Err  error
}

func (e *OpError) Error() string {
	if e.Err == nil {
		return e.Op + ": " + e.Kind.Error()
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *OpError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// NewKind returns an error of kind for op.
func NewKind(op string, kind error) error {
	return &OpError{Op: op, Kind: kind}
}

// WrapKind classifies err as kind for op.
func WrapKind(op string, kind, err error) error {
	return &OpError{Op: op, Kind: kind, Err: err}
}

// Wrap tags err with op and the internal kind. A nil err stays nil.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &OpError{Op: op, Kind: ErrInternal, Err: err}
}

// Kind returns the first known failure kind in err's chain, ErrInternal
// for unknown errors and nil for nil.
func Kind(err error) error {
	if err == nil {
		return nil
	}
	for _, kind := range []error{
		ErrInvalidRequest, ErrInvalidTitle, ErrInvalidScale, ErrInvalidGrade,
		ErrInvalidControl, ErrRateLimited, ErrExpired, ErrAlreadySubmitted,
		ErrNotARanking, ErrTargetMissing, ErrEmptyLedger, ErrGradeNotFound,
		ErrMalformedState, ErrDuplicate,
	} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return ErrInternal
}

var kindLabels = map[error]string{
	ErrInvalidRequest:   "invalid_request",
	ErrInvalidTitle:     "invalid_title",
	ErrInvalidScale:     "invalid_scale",
	ErrInvalidGrade:     "invalid_grade",
	ErrInvalidControl:   "invalid_control",
	ErrRateLimited:      "rate_limited",
	ErrExpired:          "expired",
	ErrAlreadySubmitted: "already_submitted",
	ErrNotARanking:      "not_a_ranking",
	ErrTargetMissing:    "target_missing",
	ErrEmptyLedger:      "empty_ledger",
	ErrGradeNotFound:    "grade_not_found",
	ErrMalformedState:   "malformed_state",
	ErrDuplicate:        "duplicate_interaction",
	ErrInternal:         "internal",
}

// Label returns a stable snake_case name for err's kind, "ok" for nil.
func Label(err error) string {
	if err == nil {
		return "ok"
	}
	return kindLabels[Kind(err)]
}
