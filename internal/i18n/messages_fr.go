package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func init() {
	fr := language.French
	_ = message.SetString(fr, RankingCreated, "Classement créé !")
	_ = message.SetString(fr, CounterReset, "Compteur réinitialisé !")
	_ = message.SetString(fr, CreateRateLimited, "Impossible de créer un nouveau classement dans ce canal pour le moment. Réessayez dans %d minutes !")
	_ = message.SetString(fr, ResetRateLimited, "Impossible de réinitialiser le compteur dans ce canal pour le moment. Réessayez dans %d minutes !")
	_ = message.SetString(fr, SubmissionExpired, "Tu ne peux plus soumettre ta note à ce classement !")
	_ = message.SetString(fr, AlreadySubmitted, "Tu as déjà soumis ta note à ce classement !")
	_ = message.SetString(fr, InvalidGrade, "Tu dois soumettre une note valide !")
	_ = message.SetString(fr, GradeSubmitted, "Ta note a bien été ajoutée à ce classement !")
	_ = message.SetString(fr, NotARanking, "Le message ciblé n'est pas un classement !")
	_ = message.SetString(fr, TargetMissing, "Le message ciblé n'existe plus !")
	_ = message.SetString(fr, EmptyLedger, "Ce classement ne contient aucune note !")
	_ = message.SetString(fr, GradeNotFound, "Cette note n'existe pas dans ce classement !")
	_ = message.SetString(fr, DuplicateInteraction, "Cette interaction a déjà été traitée !")
	_ = message.SetString(fr, GradeAdded, "La note a bien été ajoutée à ce classement !")
	_ = message.SetString(fr, GradeRemoved, "La note a bien été enlevée de ce classement !")
	_ = message.SetString(fr, InvalidTitle, "Le titre doit contenir entre 1 et 100 caractères !")
	_ = message.SetString(fr, InvalidScale, "Le barème doit être supérieur à 0 et au plus 100 !")
	_ = message.SetString(fr, InternalError, "Une erreur est survenue !")
	_ = message.SetString(fr, SubmitPrompt, "Entre ta note sur %s")
}
