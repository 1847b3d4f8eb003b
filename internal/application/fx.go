package application

import (
	"context"

	"github.com/nexusiam/iamcore/internal/application/projection"
	iamdomain "github.com/nexusiam/iamcore/internal/domain"
	coreapp "github.com/nexusiam/iamcore/pkg/application"
	coredomain "github.com/nexusiam/iamcore/pkg/domain"
	"github.com/nexusiam/iamcore/pkg/infrastructure"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

// Module provides the command layer: one *XCommandHandlers per aggregate,
// the composite (multi-aggregate) command handler, and a
// []TaggedCommandHandler per aggregate flattened into the shared
// "command_handlers" group that pkg/application.ApplicationModule's
// setupCommandHandlers invoke consumes. The query layer and the projection
// engine register into the same fx.Options set from their own packages.
var Module = fx.Options(
	fx.Provide(
		IDPIntentReaperProvider,
		NewUserCommandHandlers,
		NewOrgCommandHandlers,
		NewProjectCommandHandlers,
		NewProjectRoleCommandHandlers,
		NewProjectMemberCommandHandlers,
		NewApplicationCommandHandlers,
		NewUserGrantCommandHandlers,
		NewIDPConfigCommandHandlers,
		NewIDPIntentCommandHandlers,
		NewSAMLRequestCommandHandlers,
		NewSessionCommandHandlers,
		NewTargetCommandHandlers,
		NewExecutionCommandHandlers,
		NewCompositeCommandHandlers,

		SessionsConfigProvider,
		IntentsConfigProvider,
		ExecutionGraphResolverProvider,

		fx.Annotate(userCommandHandlerGroup, fx.ResultTags(`group:"command_handlers,flatten"`)),
		fx.Annotate(orgCommandHandlerGroup, fx.ResultTags(`group:"command_handlers,flatten"`)),
		fx.Annotate(projectCommandHandlerGroup, fx.ResultTags(`group:"command_handlers,flatten"`)),
		fx.Annotate(projectRoleCommandHandlerGroup, fx.ResultTags(`group:"command_handlers,flatten"`)),
		fx.Annotate(projectMemberCommandHandlerGroup, fx.ResultTags(`group:"command_handlers,flatten"`)),
		fx.Annotate(applicationCommandHandlerGroup, fx.ResultTags(`group:"command_handlers,flatten"`)),
		fx.Annotate(userGrantCommandHandlerGroup, fx.ResultTags(`group:"command_handlers,flatten"`)),
		fx.Annotate(idpConfigCommandHandlerGroup, fx.ResultTags(`group:"command_handlers,flatten"`)),
		fx.Annotate(idpIntentCommandHandlerGroup, fx.ResultTags(`group:"command_handlers,flatten"`)),
		fx.Annotate(samlRequestCommandHandlerGroup, fx.ResultTags(`group:"command_handlers,flatten"`)),
		fx.Annotate(sessionCommandHandlerGroup, fx.ResultTags(`group:"command_handlers,flatten"`)),
		fx.Annotate(targetCommandHandlerGroup, fx.ResultTags(`group:"command_handlers,flatten"`)),
		fx.Annotate(executionCommandHandlerGroup, fx.ResultTags(`group:"command_handlers,flatten"`)),
		fx.Annotate(compositeCommandHandlerGroup, fx.ResultTags(`group:"command_handlers,flatten"`)),
	),
	fx.Invoke(registerIDPIntentReaperLifecycle),
)

// SessionsConfigProvider extracts the Sessions sub-config so
// SessionCommandHandlers can depend on it directly rather than the whole
// infrastructure.Config.
func SessionsConfigProvider(config *infrastructure.Config) infrastructure.SessionsConfig {
	return config.Sessions
}

// IntentsConfigProvider extracts the Intents sub-config so
// IDPIntentCommandHandlers can depend on it directly rather than the whole
// infrastructure.Config.
func IntentsConfigProvider(config *infrastructure.Config) infrastructure.IntentsConfig {
	return config.Intents
}

// IDPIntentReaperProvider builds the reaper that expires past-TTL intents,
// polling at IntentsConfig.TTL's own cadence so a long TTL doesn't mean a
// tight poll loop for no reason.
func IDPIntentReaperProvider(db *gorm.DB, repo iamdomain.IDPIntentRepository, logger coredomain.Logger, intents infrastructure.IntentsConfig) *IDPIntentReaper {
	return NewIDPIntentReaper(db, repo, logger, intents.TTL, 0)
}

func registerIDPIntentReaperLifecycle(lc fx.Lifecycle, reaper *IDPIntentReaper) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			reaper.Start(ctx)
			return nil
		},
	})
}

// ExecutionGraphResolverProvider wires Execution.AddInclude's cycle check to
// the execution projection's committed read model, replacing the
// no-edges placeholder once the projection engine is in the fx graph.
func ExecutionGraphResolverProvider(p *projection.ExecutionProjection) ExecutionGraphResolver {
	return p
}

func userCommandHandlerGroup(h *UserCommandHandlers) []coreapp.TaggedCommandHandler {
	return []coreapp.TaggedCommandHandler{
		{CommandType: "iam.user.create", Handler: adaptCommand(h.Create)},
		{CommandType: "iam.user.change_username", Handler: adaptCommand(h.ChangeUsername)},
		{CommandType: "iam.user.change_email", Handler: adaptCommand(h.ChangeEmail)},
		{CommandType: "iam.user.change_password", Handler: adaptCommand(h.ChangePassword)},
		{CommandType: "iam.user.verify_email", Handler: adaptCommand(h.VerifyEmail)},
		{CommandType: "iam.user.deactivate", Handler: adaptCommand(h.Deactivate)},
		{CommandType: "iam.user.reactivate", Handler: adaptCommand(h.Reactivate)},
		{CommandType: "iam.user.lock", Handler: adaptCommand(h.Lock)},
		{CommandType: "iam.user.unlock", Handler: adaptCommand(h.Unlock)},
		{CommandType: "iam.user.remove", Handler: adaptCommand(h.Remove)},
	}
}

func orgCommandHandlerGroup(h *OrgCommandHandlers) []coreapp.TaggedCommandHandler {
	return []coreapp.TaggedCommandHandler{
		{CommandType: "iam.org.create", Handler: adaptCommand(h.Create)},
		{CommandType: "iam.org.change_name", Handler: adaptCommand(h.ChangeName)},
		{CommandType: "iam.org.set_primary_domain", Handler: adaptCommand(h.SetPrimaryDomain)},
		{CommandType: "iam.org.deactivate", Handler: adaptCommand(h.Deactivate)},
		{CommandType: "iam.org.reactivate", Handler: adaptCommand(h.Reactivate)},
		{CommandType: "iam.org.remove", Handler: adaptCommand(h.Remove)},
	}
}

func projectCommandHandlerGroup(h *ProjectCommandHandlers) []coreapp.TaggedCommandHandler {
	return []coreapp.TaggedCommandHandler{
		{CommandType: "iam.project.create", Handler: adaptCommand(h.Create)},
		{CommandType: "iam.project.change_name", Handler: adaptCommand(h.ChangeName)},
		{CommandType: "iam.project.deactivate", Handler: adaptCommand(h.Deactivate)},
		{CommandType: "iam.project.reactivate", Handler: adaptCommand(h.Reactivate)},
		{CommandType: "iam.project.remove", Handler: adaptCommand(h.Remove)},
	}
}

func projectRoleCommandHandlerGroup(h *ProjectRoleCommandHandlers) []coreapp.TaggedCommandHandler {
	return []coreapp.TaggedCommandHandler{
		{CommandType: "iam.project_role.create", Handler: adaptCommand(h.Create)},
		{CommandType: "iam.project_role.change", Handler: adaptCommand(h.Change)},
		{CommandType: "iam.project_role.remove", Handler: adaptCommand(h.Remove)},
	}
}

func projectMemberCommandHandlerGroup(h *ProjectMemberCommandHandlers) []coreapp.TaggedCommandHandler {
	return []coreapp.TaggedCommandHandler{
		{CommandType: "iam.project_member.add", Handler: adaptCommand(h.Add)},
		{CommandType: "iam.project_member.change_roles", Handler: adaptCommand(h.ChangeRoles)},
		{CommandType: "iam.project_member.remove", Handler: adaptCommand(h.Remove)},
	}
}

func applicationCommandHandlerGroup(h *ApplicationCommandHandlers) []coreapp.TaggedCommandHandler {
	return []coreapp.TaggedCommandHandler{
		{CommandType: "iam.application.create_oidc", Handler: adaptCommand(h.CreateOIDC)},
		{CommandType: "iam.application.create_saml", Handler: adaptCommand(h.CreateSAML)},
		{CommandType: "iam.application.create_api", Handler: adaptCommand(h.CreateAPI)},
		{CommandType: "iam.application.change_secret", Handler: adaptCommand(h.ChangeSecret)},
		{CommandType: "iam.application.deactivate", Handler: adaptCommand(h.Deactivate)},
		{CommandType: "iam.application.reactivate", Handler: adaptCommand(h.Reactivate)},
		{CommandType: "iam.application.remove", Handler: adaptCommand(h.Remove)},
	}
}

func userGrantCommandHandlerGroup(h *UserGrantCommandHandlers) []coreapp.TaggedCommandHandler {
	return []coreapp.TaggedCommandHandler{
		{CommandType: "iam.user_grant.grant", Handler: adaptCommand(h.Create)},
		{CommandType: "iam.user_grant.change_roles", Handler: adaptCommand(h.ChangeRoles)},
		{CommandType: "iam.user_grant.deactivate", Handler: adaptCommand(h.Deactivate)},
		{CommandType: "iam.user_grant.remove", Handler: adaptCommand(h.Remove)},
	}
}

func idpConfigCommandHandlerGroup(h *IDPConfigCommandHandlers) []coreapp.TaggedCommandHandler {
	return []coreapp.TaggedCommandHandler{
		{CommandType: "iam.idp_config.create", Handler: adaptCommand(h.Create)},
		{CommandType: "iam.idp_config.change", Handler: adaptCommand(h.Change)},
		{CommandType: "iam.idp_config.deactivate", Handler: adaptCommand(h.Deactivate)},
		{CommandType: "iam.idp_config.reactivate", Handler: adaptCommand(h.Reactivate)},
		{CommandType: "iam.idp_config.remove", Handler: adaptCommand(h.Remove)},
	}
}

func idpIntentCommandHandlerGroup(h *IDPIntentCommandHandlers) []coreapp.TaggedCommandHandler {
	return []coreapp.TaggedCommandHandler{
		{CommandType: "iam.idp_intent.start", Handler: adaptCommand(h.Start)},
		{CommandType: "iam.idp_intent.succeed", Handler: adaptCommand(h.Succeed)},
		{CommandType: "iam.idp_intent.fail", Handler: adaptCommand(h.Fail)},
		{CommandType: "iam.idp_intent.expire", Handler: adaptCommand(h.Expire)},
	}
}

func samlRequestCommandHandlerGroup(h *SAMLRequestCommandHandlers) []coreapp.TaggedCommandHandler {
	return []coreapp.TaggedCommandHandler{
		{CommandType: "iam.saml_request.start", Handler: adaptCommand(h.Start)},
		{CommandType: "iam.saml_request.link", Handler: adaptCommand(h.Link)},
		{CommandType: "iam.saml_request.fail", Handler: adaptCommand(h.Fail)},
	}
}

func sessionCommandHandlerGroup(h *SessionCommandHandlers) []coreapp.TaggedCommandHandler {
	return []coreapp.TaggedCommandHandler{
		{CommandType: "iam.session.start", Handler: adaptCommand(h.Start)},
		{CommandType: "iam.session.issue_token", Handler: adaptCommand(h.IssueToken)},
		{CommandType: "iam.session.revoke_token", Handler: adaptCommand(h.RevokeToken)},
		{CommandType: "iam.session.terminate", Handler: adaptCommand(h.Terminate)},
	}
}

func targetCommandHandlerGroup(h *TargetCommandHandlers) []coreapp.TaggedCommandHandler {
	return []coreapp.TaggedCommandHandler{
		{CommandType: "iam.target.create", Handler: adaptCommand(h.Create)},
		{CommandType: "iam.target.change", Handler: adaptCommand(h.Change)},
		{CommandType: "iam.target.rotate_signing_key", Handler: adaptCommand(h.RotateSigningKey)},
		{CommandType: "iam.target.deactivate", Handler: adaptCommand(h.Deactivate)},
		{CommandType: "iam.target.reactivate", Handler: adaptCommand(h.Reactivate)},
		{CommandType: "iam.target.remove", Handler: adaptCommand(h.Remove)},
	}
}

func executionCommandHandlerGroup(h *ExecutionCommandHandlers) []coreapp.TaggedCommandHandler {
	return []coreapp.TaggedCommandHandler{
		{CommandType: "iam.execution.create", Handler: adaptCommand(h.Create)},
		{CommandType: "iam.execution.change_condition", Handler: adaptCommand(h.ChangeCondition)},
		{CommandType: "iam.execution.add_include", Handler: adaptCommand(h.AddInclude)},
		{CommandType: "iam.execution.remove_include", Handler: adaptCommand(h.RemoveInclude)},
		{CommandType: "iam.execution.remove", Handler: adaptCommand(h.Remove)},
	}
}

func compositeCommandHandlerGroup(h *CompositeCommandHandlers) []coreapp.TaggedCommandHandler {
	return []coreapp.TaggedCommandHandler{
		{CommandType: "iam.org.setup", Handler: adaptCommand(h.SetupOrg)},
	}
}
