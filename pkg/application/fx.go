package application

import (
	"github.com/nexusiam/iamcore/pkg/domain"
	"go.uber.org/fx"
)

// ApplicationModule provides all application layer dependencies: the
// command/query buses, the standard middleware stack, and the handler
// registration wiring. Unlike the teacher's three-tier admin/public/internal
// handler groups (built for an HTTP-facing demo), this module has a single
// transport-agnostic handler group: every command and query handler goes
// through the same middleware stack, since access control for IAM operations
// is enforced by the domain layer's authorization checks (see
// internal/application/authz), not by which HTTP route dispatched the call.
var ApplicationModule = fx.Options(
	fx.Provide(
		CommandBusProvider,
		QueryBusProvider,
		ApplicationServiceProvider,
		HandlerRegistrarProvider,
		MetricsCollectorProvider,
		CacheProviderProvider,

		fx.Annotate(ErrorHandlingCommandMiddlewareProvider, fx.ResultTags(`group:"command_middleware"`)),
		fx.Annotate(ErrorHandlingQueryMiddlewareProvider, fx.ResultTags(`group:"query_middleware"`)),
		fx.Annotate(LoggingCommandMiddlewareProvider, fx.ResultTags(`group:"command_middleware"`)),
		fx.Annotate(LoggingQueryMiddlewareProvider, fx.ResultTags(`group:"query_middleware"`)),
		fx.Annotate(ValidationCommandMiddlewareProvider, fx.ResultTags(`group:"command_middleware"`)),
		fx.Annotate(ValidationQueryMiddlewareProvider, fx.ResultTags(`group:"query_middleware"`)),
		fx.Annotate(MetricsCommandMiddlewareProvider, fx.ResultTags(`group:"command_middleware"`)),
		fx.Annotate(MetricsQueryMiddlewareProvider, fx.ResultTags(`group:"query_middleware"`)),
		fx.Annotate(CachingQueryMiddlewareProvider, fx.ResultTags(`group:"query_middleware"`)),
	),
	fx.Invoke(
		fx.Annotate(setupCommandHandlers, fx.ParamTags(``, ``, `group:"command_handlers"`, `group:"command_middleware"`)),
		fx.Annotate(setupQueryHandlers, fx.ParamTags(``, ``, `group:"query_handlers"`, `group:"query_middleware"`)),
	),
)

// CommandBusProvider creates a command bus
func CommandBusProvider() CommandBus {
	return NewCommandBus()
}

// QueryBusProvider creates a query bus
func QueryBusProvider() QueryBus {
	return NewQueryBus()
}

// HandlerRegistrarProvider creates a handler registrar
func HandlerRegistrarProvider() HandlerRegistrar {
	return &DefaultHandlerRegistrar{}
}

// ErrorHandlingCommandMiddlewareProvider creates error handling middleware for commands
func ErrorHandlingCommandMiddlewareProvider(sanitizer ErrorSanitizerFn) TaggedCommandMiddleware {
	return TaggedCommandMiddleware{
		Name:       "error_handling",
		Middleware: ErrorHandlingMiddleware[Command, any](sanitizer),
	}
}

// ErrorHandlingQueryMiddlewareProvider creates error handling middleware for queries
func ErrorHandlingQueryMiddlewareProvider(sanitizer ErrorSanitizerFn) TaggedQueryMiddleware {
	return TaggedQueryMiddleware{
		Name:       "error_handling",
		Middleware: ErrorHandlingMiddleware[Query, any](sanitizer),
	}
}

// LoggingCommandMiddlewareProvider creates logging middleware for commands
func LoggingCommandMiddlewareProvider() TaggedCommandMiddleware {
	return TaggedCommandMiddleware{
		Name:       "logging",
		Middleware: LoggingMiddleware[Command, any](),
	}
}

// LoggingQueryMiddlewareProvider creates logging middleware for queries
func LoggingQueryMiddlewareProvider() TaggedQueryMiddleware {
	return TaggedQueryMiddleware{
		Name:       "logging",
		Middleware: LoggingMiddleware[Query, any](),
	}
}

// ValidationCommandMiddlewareProvider creates validation middleware for commands
func ValidationCommandMiddlewareProvider() TaggedCommandMiddleware {
	return TaggedCommandMiddleware{
		Name:       "validation",
		Middleware: ValidationMiddleware[Command, any](),
	}
}

// ValidationQueryMiddlewareProvider creates validation middleware for queries
func ValidationQueryMiddlewareProvider() TaggedQueryMiddleware {
	return TaggedQueryMiddleware{
		Name:       "validation",
		Middleware: ValidationMiddleware[Query, any](),
	}
}

// MetricsCommandMiddlewareProvider creates metrics middleware for commands
func MetricsCommandMiddlewareProvider(metrics MetricsCollector) TaggedCommandMiddleware {
	return TaggedCommandMiddleware{
		Name:       "metrics",
		Middleware: MetricsMiddleware[Command, any](metrics),
	}
}

// MetricsQueryMiddlewareProvider creates metrics middleware for queries
func MetricsQueryMiddlewareProvider(metrics MetricsCollector) TaggedQueryMiddleware {
	return TaggedQueryMiddleware{
		Name:       "metrics",
		Middleware: MetricsMiddleware[Query, any](metrics),
	}
}

// ApplicationServiceProvider creates an application service
func ApplicationServiceProvider(unitOfWork domain.UnitOfWork, logger domain.Logger) *ApplicationService {
	return NewApplicationService(unitOfWork, logger)
}

// CachingQueryMiddlewareProvider creates caching middleware for queries
func CachingQueryMiddlewareProvider(cache CacheProvider) TaggedQueryMiddleware {
	return TaggedQueryMiddleware{
		Name:       "caching",
		Middleware: CachingMiddleware[Query, any](cache),
	}
}

// setupCommandHandlers registers all command handlers with the shared middleware stack
func setupCommandHandlers(
	registrar HandlerRegistrar,
	commandBus CommandBus,
	handlers []TaggedCommandHandler,
	middleware []TaggedCommandMiddleware,
) {
	registrar.RegisterCommandHandlers(commandBus, handlers, middleware)
}

// setupQueryHandlers registers all query handlers with the shared middleware stack
func setupQueryHandlers(
	registrar HandlerRegistrar,
	queryBus QueryBus,
	handlers []TaggedQueryHandler,
	middleware []TaggedQueryMiddleware,
) {
	registrar.RegisterQueryHandlers(queryBus, handlers, middleware)
}

// MetricsCollectorProvider creates a metrics collector
func MetricsCollectorProvider() MetricsCollector {
	return NewInMemoryMetricsCollector()
}

// CacheProviderProvider creates a cache provider
func CacheProviderProvider() CacheProvider {
	return NewInMemoryCache()
}
