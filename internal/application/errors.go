// Package application implements the IAM command and query handlers on top
// of the core engine's CQRS bus (pkg/application) and the IAM aggregates
// (internal/domain).
package application

import (
	"errors"

	coredomain "github.com/nexusiam/iamcore/pkg/domain"

	coreapp "github.com/nexusiam/iamcore/pkg/application"
)

// translateErr maps an internal/domain error into the boundary error
// taxonomy every handler returns, so ErrorHandlingMiddleware never has to
// special-case the IAM domain. Errors the domain layer never produces pass
// through unchanged, to be caught by that middleware's generic fallback.
func translateErr(err error) error {
	if err == nil {
		return nil
	}
	var de coredomain.DomainError
	if errors.As(err, &de) {
		switch de.Code {
		case "PRECONDITION_FAILED", "CYCLE_DETECTED":
			return coreapp.NewPreconditionError(de.Message)
		case "TOKEN_SIGNING_FAILED":
			return coreapp.NewApplicationError(de.Code, de.Message, de.Cause)
		default:
			return coreapp.NewApplicationError(de.Code, de.Message, de.Cause)
		}
	}
	var ve coredomain.ValidationError
	if errors.As(err, &ve) {
		return coreapp.NewValidationError(ve.Field, ve.Message)
	}
	var ce coredomain.ConcurrencyError
	if errors.As(err, &ce) {
		return coreapp.NewConcurrencyError(ce.AggregateID, ce.Expected, ce.Actual)
	}
	return err
}
