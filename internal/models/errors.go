package models

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Taxonomy roots. Every error returned by a financial operation wraps
// exactly one of these so that callers can map it without parsing text.
var (
	ErrGeneral           = errors.New("an error occurred on the server during your request")
	ErrResourceNotFound  = errors.New("there is no")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrValidation        = errors.New("invalid input")
	ErrConflict          = errors.New("conflict")
	ErrPolicy            = errors.New("operation refused")
)

var (
	ErrFournisseurInactif      = fmt.Errorf("%w: the fournisseur is inactive and cannot be used on new achats", ErrValidation)
	ErrQuantiteNotPositive     = fmt.Errorf("%w: the quantity must be larger than zero", ErrValidation)
	ErrPrixUnitaireNegative    = fmt.Errorf("%w: the unit price must not be negative", ErrValidation)
	ErrTauxTVAInvalide         = fmt.Errorf("%w: the VAT rate is not in the set of legal rates", ErrValidation)
	ErrMotifRejetRequis        = fmt.Errorf("%w: rejecting an achat requires a reason", ErrValidation)
	ErrRefFactureRequise       = fmt.Errorf("%w: invoicing an achat requires the supplier invoice reference", ErrValidation)
	ErrRetenueGarantieInvalide = fmt.Errorf("%w: the retention percentage must be between 0 and 5", ErrValidation)
	ErrPourcentageInvalide     = fmt.Errorf("%w: the percentage must not be negative", ErrValidation)
	ErrLotRattachement         = fmt.Errorf("%w: a lot must belong to exactly one budget or exactly one devis", ErrValidation)
	ErrLibelleRequis           = fmt.Errorf("%w: the libelle must not be empty", ErrValidation)
	ErrPeriodeInvalide         = fmt.Errorf("%w: the period start must not be after the period end", ErrValidation)
	ErrMontantEncaisseNegatif  = fmt.Errorf("%w: the collected amount must not be negative", ErrValidation)
	ErrActeurRequis            = fmt.Errorf("%w: the acting user must be specified", ErrValidation)

	ErrBudgetExisteDeja      = fmt.Errorf("%w: a budget already exists for this project", ErrConflict)
	ErrSIRETNotUnique        = fmt.Errorf("%w: a fournisseur with this SIRET already exists", ErrConflict)
	ErrLotCodeNotUnique      = fmt.Errorf("%w: the lot code must be unique for the budget", ErrConflict)
	ErrMotifRegleNotUnique   = fmt.Errorf("%w: an affectation rule with this pattern already exists", ErrConflict)
	ErrSituationDejaFacturee = fmt.Errorf("%w: a facture already exists for this situation", ErrConflict)

	ErrBudgetNegatif          = fmt.Errorf("%w: the amendment would make the revised budget negative", ErrPolicy)
	ErrSituationNonModifiable = fmt.Errorf("%w: only situations in draft state can be edited or deleted", ErrPolicy)
	ErrSituationNonFacturable = fmt.Errorf("%w: only situations validated by the client can be converted to a facture", ErrPolicy)
	ErrFactureAnnulee         = fmt.Errorf("%w: the facture is canceled and cannot receive collections", ErrPolicy)
	ErrAlerteDejaAcquittee    = fmt.Errorf("%w: the alerte is already acknowledged", ErrPolicy)
)

// TransitionError is returned when a state machine guard refuses a
// transition. It identifies the entity and both states.
type TransitionError struct {
	Entity string
	ID     uuid.UUID
	From   string
	To     string
}

func (e TransitionError) Error() string {
	return fmt.Sprintf("invalid transition for %s %s: %s -> %s", e.Entity, e.ID, e.From, e.To)
}

// Is makes TransitionError match ErrInvalidTransition in errors.Is checks.
func (e TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

// FieldError is a validation error carrying the offending field name.
type FieldError struct {
	Field   string
	Message string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("invalid input: %s %s", e.Field, e.Message)
}

// Is makes FieldError match ErrValidation in errors.Is checks.
func (e FieldError) Is(target error) bool {
	return target == ErrValidation
}
