package pkg

import (
	"github.com/nexusiam/iamcore/pkg/application"
	"github.com/nexusiam/iamcore/pkg/domain"
	"github.com/nexusiam/iamcore/pkg/infrastructure"
	"github.com/nexusiam/iamcore/pkg/security"
	"go.uber.org/fx"
)

// Module is the top-level fx module combining every core-engine layer.
// The IAM domain layer (internal/domain, internal/application) is wired in
// by cmd/iamcore, which appends internal.Module alongside this one — core
// engine code stays domain-agnostic and must not import internal/.
var Module = fx.Options(
	domain.DomainModule,
	application.ApplicationModule,
	infrastructure.InfrastructureModule,
	security.SecurityModule,
)

// NewApp creates a new Fx application with the core engine modules plus
// whatever additional options the caller supplies (typically internal.Module
// and transport wiring).
func NewApp(additionalOptions ...fx.Option) *fx.App {
	options := []fx.Option{Module}
	options = append(options, additionalOptions...)

	return fx.New(options...)
}

// RunApp creates and runs a new Fx application with graceful shutdown
func RunApp(additionalOptions ...fx.Option) {
	app := NewApp(additionalOptions...)
	app.Run()
}
