package service

import (
	"errors"

	"github.com/okian/palmares/internal/domain/types"
	"github.com/okian/palmares/internal/i18n"
)

// Outcome returns the metric label of an operation result.
func Outcome(err error) string {
	return types.Label(err)
}

// Reply renders the user-visible text for a failed operation.
func (s *Service) Reply(err error) string {
	p := s.printer
	switch types.Kind(err) {
	case nil:
		return ""
	case types.ErrRateLimited:
		key := i18n.CreateRateLimited
		var opErr *types.OpError
		if errors.As(err, &opErr) && opErr.Op == "app.reset" {
			key = i18n.ResetRateLimited
		}
		return p.Sprintf(key, retryMinutes(err))
	case types.ErrExpired:
		return p.Sprintf(i18n.SubmissionExpired)
	case types.ErrAlreadySubmitted:
		return p.Sprintf(i18n.AlreadySubmitted)
	case types.ErrInvalidGrade:
		return p.Sprintf(i18n.InvalidGrade)
	case types.ErrInvalidTitle:
		return p.Sprintf(i18n.InvalidTitle)
	case types.ErrInvalidScale:
		return p.Sprintf(i18n.InvalidScale)
	case types.ErrNotARanking:
		return p.Sprintf(i18n.NotARanking)
	case types.ErrTargetMissing:
		return p.Sprintf(i18n.TargetMissing)
	case types.ErrEmptyLedger:
		return p.Sprintf(i18n.EmptyLedger)
	case types.ErrGradeNotFound:
		return p.Sprintf(i18n.GradeNotFound)
	case types.ErrDuplicate:
		return p.Sprintf(i18n.DuplicateInteraction)
	default:
		return p.Sprintf(i18n.InternalError)
	}
}
