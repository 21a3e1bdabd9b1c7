// Package i18n holds the user-facing reply catalog.
package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Reply keys. The keys are the English source strings.
const (
	RankingCreated    = "Ranking created!"
	CounterReset      = "Counter reset!"
	CreateRateLimited = "Cannot create a new ranking in this channel right now. Try again in %d minutes!"
	ResetRateLimited  = "Cannot reset the counter in this channel right now. Try again in %d minutes!"
	SubmissionExpired = "You can no longer submit your grade to this ranking!"
	AlreadySubmitted  = "You already submitted your grade to this ranking!"
	InvalidGrade      = "You must submit a valid grade!"
	GradeSubmitted    = "Your grade has been added to this ranking!"
	NotARanking       = "The targeted message is not a ranking!"
	TargetMissing     = "The targeted message no longer exists!"
	EmptyLedger       = "This ranking has no grades!"
	GradeNotFound     = "This grade does not exist in this ranking!"
	GradeAdded        = "The grade has been added to this ranking!"
	GradeRemoved      = "The grade has been removed from this ranking!"
	InvalidTitle      = "The title must be between 1 and 100 characters!"
	InvalidScale      = "The scale must be greater than 0 and at most 100!"
	InternalError     = "An error occurred!"
	SubmitPrompt      = "Enter your grade out of %s"

	DuplicateInteraction = "This interaction was already handled!"
)

// Fallback is the language used when the requested locale is unknown.
var Fallback = language.French

var matcher = language.NewMatcher([]language.Tag{language.French, language.English})

// Tag resolves a locale string such as "fr", "en-GB" or "" to a supported tag.
func Tag(locale string) language.Tag {
	if locale == "" {
		return Fallback
	}
	requested, err := language.Parse(locale)
	if err != nil {
		return Fallback
	}
	_, idx, confidence := matcher.Match(requested)
	if confidence == language.No {
		return Fallback
	}
	return []language.Tag{language.French, language.English}[idx]
}

// Printer returns a message printer for locale.
func Printer(locale string) *message.Printer {
	return message.NewPrinter(Tag(locale))
}
