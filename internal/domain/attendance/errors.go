package attendance

import "github.com/merchpulse/backend/internal/domain/shared"

// Error codes specific to attendance
const (
	CodeDuplicatePunchType = "DUPLICATE_PUNCH_TYPE"
	CodePunchOutOfOrder    = "PUNCH_OUT_OF_ORDER"
	CodeInvalidPunchType   = "INVALID_PUNCH_TYPE"
)

var (
	// ErrDuplicatePunchType is returned when a punch repeats the type of the employee's last punch
	ErrDuplicatePunchType = shared.NewDomainError(CodeDuplicatePunchType, "Punch type repeats the last recorded punch")
	// ErrPunchOutOfOrder is returned when a punch would not be later than the last recorded punch
	ErrPunchOutOfOrder = shared.NewDomainError(CodePunchOutOfOrder, "Punch time must be after the last recorded punch")
	// ErrInvalidPunchType is returned for punch types other than IN and OUT
	ErrInvalidPunchType = shared.NewDomainError(CodeInvalidPunchType, "Punch type must be IN or OUT")
	// ErrPunchNotFound is returned when a punch id does not exist
	ErrPunchNotFound = shared.NewDomainError(shared.CodeNotFound, "Punch not found")
)
