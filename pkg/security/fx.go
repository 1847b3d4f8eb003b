package security

import (
	"github.com/nexusiam/iamcore/pkg/application"
	"github.com/nexusiam/iamcore/pkg/domain"
	"go.uber.org/fx"
)

// SecurityModule provides the error-sanitization and panic-recovery helpers
// shared across the application layer's middleware stack.
var SecurityModule = fx.Options(
	fx.Provide(
		ErrorSanitizerFnProvider,
		SecurityErrorHandlerProvider,
		FailureRecoveryProvider,
	),
)

// ErrorSanitizerFnProvider adapts ErrorSanitizer.Sanitize to the
// application.ErrorSanitizerFn shape ErrorHandlingMiddleware depends on, so
// the redaction rules here (password, token, secret and *KEY* assignments,
// user:pass@ connection strings, home-directory paths) are applied before an
// unrecognized error is logged or wrapped as an ApplicationError. Intent
// state and nonce values have no pattern of their own and are not redacted.
func ErrorSanitizerFnProvider() application.ErrorSanitizerFn {
	sanitizer := NewErrorSanitizer()
	return func(err error) error {
		return sanitizer.Sanitize(err)
	}
}

// SecurityErrorHandlerProvider creates a SecurityErrorHandler for callers
// that need operation-scoped (not just middleware-scoped) sanitization.
func SecurityErrorHandlerProvider(logger domain.Logger) *SecurityErrorHandler {
	return NewSecurityErrorHandler(logger)
}

// FailureRecoveryProvider creates a FailureRecovery helper for panic-safe
// execution of background work. Nothing in the repository injects it.
func FailureRecoveryProvider(logger domain.Logger) *FailureRecovery {
	return NewFailureRecovery(logger)
}
