// Package infrastructure wires the IAM aggregates' event-sourced
// repositories on top of the core engine's generic
// infrastructure.EventSourcedRepository, the way the teacher wires its own
// UserRepository on top of the same generic event store / unit of work.
package infrastructure

import (
	"go.uber.org/fx"

	iamdomain "github.com/nexusiam/iamcore/internal/domain"
	"github.com/nexusiam/iamcore/pkg/domain"
	"github.com/nexusiam/iamcore/pkg/infrastructure"
)

// RepositoryModule provides every aggregate repository used by the
// command handlers in internal/application.
var RepositoryModule = fx.Options(
	fx.Provide(
		UserRepositoryProvider,
		OrgRepositoryProvider,
		ProjectRepositoryProvider,
		ProjectRoleRepositoryProvider,
		ProjectMemberRepositoryProvider,
		ApplicationRepositoryProvider,
		UserGrantRepositoryProvider,
		IDPConfigRepositoryProvider,
		IDPIntentRepositoryProvider,
		SAMLRequestRepositoryProvider,
		SessionRepositoryProvider,
		TargetRepositoryProvider,
		ExecutionRepositoryProvider,
	),
)

func UserRepositoryProvider(store domain.EventStore, uowFor infrastructure.UnitOfWorkFactory) iamdomain.UserRepository {
	return infrastructure.NewEventSourcedRepository[*iamdomain.User](store, uowFor, "user", iamdomain.NewBlankUser)
}

func OrgRepositoryProvider(store domain.EventStore, uowFor infrastructure.UnitOfWorkFactory) iamdomain.OrgRepository {
	return infrastructure.NewEventSourcedRepository[*iamdomain.Org](store, uowFor, "org", iamdomain.NewBlankOrg)
}

func ProjectRepositoryProvider(store domain.EventStore, uowFor infrastructure.UnitOfWorkFactory) iamdomain.ProjectRepository {
	return infrastructure.NewEventSourcedRepository[*iamdomain.Project](store, uowFor, "project", iamdomain.NewBlankProject)
}

func ProjectRoleRepositoryProvider(store domain.EventStore, uowFor infrastructure.UnitOfWorkFactory) iamdomain.ProjectRoleRepository {
	return infrastructure.NewEventSourcedRepository[*iamdomain.ProjectRole](store, uowFor, "project_role", iamdomain.NewBlankProjectRole)
}

func ProjectMemberRepositoryProvider(store domain.EventStore, uowFor infrastructure.UnitOfWorkFactory) iamdomain.ProjectMemberRepository {
	return infrastructure.NewEventSourcedRepository[*iamdomain.ProjectMember](store, uowFor, "project_member", iamdomain.NewBlankProjectMember)
}

func ApplicationRepositoryProvider(store domain.EventStore, uowFor infrastructure.UnitOfWorkFactory) iamdomain.ApplicationRepository {
	return infrastructure.NewEventSourcedRepository[*iamdomain.Application](store, uowFor, "application", iamdomain.NewBlankApplication)
}

func UserGrantRepositoryProvider(store domain.EventStore, uowFor infrastructure.UnitOfWorkFactory) iamdomain.UserGrantRepository {
	return infrastructure.NewEventSourcedRepository[*iamdomain.UserGrant](store, uowFor, "user_grant", iamdomain.NewBlankUserGrant)
}

func IDPConfigRepositoryProvider(store domain.EventStore, uowFor infrastructure.UnitOfWorkFactory) iamdomain.IDPConfigRepository {
	return infrastructure.NewEventSourcedRepository[*iamdomain.IDPConfig](store, uowFor, "idp_config", iamdomain.NewBlankIDPConfig)
}

func IDPIntentRepositoryProvider(store domain.EventStore, uowFor infrastructure.UnitOfWorkFactory) iamdomain.IDPIntentRepository {
	return infrastructure.NewEventSourcedRepository[*iamdomain.IDPIntent](store, uowFor, "idp_intent", iamdomain.NewBlankIDPIntent)
}

func SAMLRequestRepositoryProvider(store domain.EventStore, uowFor infrastructure.UnitOfWorkFactory) iamdomain.SAMLRequestRepository {
	return infrastructure.NewEventSourcedRepository[*iamdomain.SAMLRequest](store, uowFor, "saml_request", iamdomain.NewBlankSAMLRequest)
}

func SessionRepositoryProvider(store domain.EventStore, uowFor infrastructure.UnitOfWorkFactory) iamdomain.SessionRepository {
	return infrastructure.NewEventSourcedRepository[*iamdomain.Session](store, uowFor, "session", iamdomain.NewBlankSession)
}

func TargetRepositoryProvider(store domain.EventStore, uowFor infrastructure.UnitOfWorkFactory) iamdomain.TargetRepository {
	return infrastructure.NewEventSourcedRepository[*iamdomain.Target](store, uowFor, "target", iamdomain.NewBlankTarget)
}

func ExecutionRepositoryProvider(store domain.EventStore, uowFor infrastructure.UnitOfWorkFactory) iamdomain.ExecutionRepository {
	return infrastructure.NewEventSourcedRepository[*iamdomain.Execution](store, uowFor, "execution", iamdomain.NewBlankExecution)
}
