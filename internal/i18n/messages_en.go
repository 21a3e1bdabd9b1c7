package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func init() {
	en := language.English
	for _, key := range []string{
		RankingCreated, CounterReset, CreateRateLimited, ResetRateLimited,
		SubmissionExpired, AlreadySubmitted, InvalidGrade, GradeSubmitted,
		NotARanking, TargetMissing, EmptyLedger, GradeNotFound,
		GradeAdded, GradeRemoved, InvalidTitle, InvalidScale,
		DuplicateInteraction, InternalError, SubmitPrompt,
	} {
		_ = message.SetString(en, key, key)
	}
}
