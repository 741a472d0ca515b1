package attendance

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/merchpulse/backend/internal/domain/attendance"
	"github.com/merchpulse/backend/internal/domain/shared"
)

// OutcomeKind classifies a failed action for display layers
type OutcomeKind string

const (
	KindNone               OutcomeKind = ""
	KindUnauthorized       OutcomeKind = "UNAUTHORIZED"
	KindDuplicatePunchType OutcomeKind = "DUPLICATE_PUNCH_TYPE"
	KindNotFound           OutcomeKind = "NOT_FOUND"
	KindPersistenceFailure OutcomeKind = "PERSISTENCE_FAILURE"
	KindInvalidInput       OutcomeKind = "INVALID_INPUT"
	KindOutOfOrder         OutcomeKind = "OUT_OF_ORDER"
)

// Outcome is the result of a user action as shown to the user
type Outcome struct {
	Success bool
	Kind    OutcomeKind
	Message string
}

// Succeeded returns a successful outcome with an optional message
func Succeeded(message string) Outcome {
	return Outcome{Success: true, Message: message}
}

// OutcomeFromError classifies err. A nil error is a success.
// Errors that are not domain errors are reported as persistence failures.
func OutcomeFromError(err error) Outcome {
	if err == nil {
		return Succeeded("")
	}

	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		return Outcome{Kind: KindInvalidInput, Message: "Invalid input: " + validationErrs.Error()}
	}

	var domainErr *shared.DomainError
	if !errors.As(err, &domainErr) {
		return Outcome{Kind: KindPersistenceFailure, Message: shared.ErrPersistenceFailure.Message}
	}

	kind := KindInvalidInput
	switch domainErr.Code {
	case shared.CodeUnauthorized:
		kind = KindUnauthorized
	case attendance.CodeDuplicatePunchType:
		kind = KindDuplicatePunchType
	case attendance.CodePunchOutOfOrder:
		kind = KindOutOfOrder
	case shared.CodeNotFound:
		kind = KindNotFound
	case shared.CodePersistenceFailure:
		kind = KindPersistenceFailure
	}
	return Outcome{Kind: kind, Message: domainErr.Message}
}
