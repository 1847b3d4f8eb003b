package projection

import (
	"context"

	coredomain "github.com/nexusiam/iamcore/pkg/domain"
	"github.com/nexusiam/iamcore/pkg/infrastructure"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

// Module provides the catch-up engine, all thirteen reducers, and the
// lifecycle hook that registers and starts them. MembershipSyncer is left
// unprovided here: when the authz package isn't wired into the graph,
// NewProjectMemberProjection receives a nil syncer through the
// `optional:"true"` field of its fx.In params struct, so this package never
// requires authz to compile or run standalone.
var Module = fx.Options(
	fx.Provide(
		EngineProvider,
		NewUserProjection,
		NewOrgProjection,
		NewProjectProjection,
		NewProjectRoleProjection,
		NewProjectMemberProjection,
		NewApplicationProjection,
		NewUserGrantProjection,
		NewIDPConfigProjection,
		NewIDPIntentProjection,
		NewSAMLRequestProjection,
		NewSessionProjection,
		NewTargetProjection,
		NewExecutionProjection,
		NewCascadeProjection,
	),
	fx.Invoke(registerEngineLifecycle),
)

// EngineProvider builds the Engine, using the configured backoff ceiling.
func EngineProvider(db *gorm.DB, eventStore coredomain.EventStore, logger coredomain.Logger, config *infrastructure.Config) (*Engine, error) {
	return NewEngine(db, eventStore, logger, config.Projections.BackoffCeiling)
}

// registeredProjections is the order every reducer is registered in; it has
// no bearing on catch-up order since each reducer owns its own cursor.
func registeredProjections(
	user *UserProjection,
	org *OrgProjection,
	project *ProjectProjection,
	projectRole *ProjectRoleProjection,
	projectMember *ProjectMemberProjection,
	app *ApplicationProjection,
	userGrant *UserGrantProjection,
	idpConfig *IDPConfigProjection,
	idpIntent *IDPIntentProjection,
	samlRequest *SAMLRequestProjection,
	session *SessionProjection,
	target *TargetProjection,
	execution *ExecutionProjection,
	cascade *CascadeProjection,
) []Projection {
	return []Projection{
		user, org, project, projectRole, projectMember, app, userGrant,
		idpConfig, idpIntent, samlRequest, session, target, execution, cascade,
	}
}

func registerEngineLifecycle(
	lc fx.Lifecycle,
	engine *Engine,
	logger coredomain.Logger,
	user *UserProjection,
	org *OrgProjection,
	project *ProjectProjection,
	projectRole *ProjectRoleProjection,
	projectMember *ProjectMemberProjection,
	app *ApplicationProjection,
	userGrant *UserGrantProjection,
	idpConfig *IDPConfigProjection,
	idpIntent *IDPIntentProjection,
	samlRequest *SAMLRequestProjection,
	session *SessionProjection,
	target *TargetProjection,
	execution *ExecutionProjection,
	cascade *CascadeProjection,
) {
	for _, p := range registeredProjections(
		user, org, project, projectRole, projectMember, app, userGrant,
		idpConfig, idpIntent, samlRequest, session, target, execution, cascade,
	) {
		engine.Register(p)
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info("Starting projection engine")
			if err := engine.Start(ctx); err != nil {
				logger.Error("Failed to start projection engine", "error", err)
				return err
			}
			logger.Info("Projection engine started successfully")
			return nil
		},
	})
}
