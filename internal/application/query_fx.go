package application

import (
	coreapp "github.com/nexusiam/iamcore/pkg/application"
	"go.uber.org/fx"
)

// QueryModule provides one *XQueryHandlers per read model plus the two
// operator-facing admin queries, each flattened into the shared
// "query_handlers" group pkg/application.ApplicationModule's
// setupQueryHandlers invoke consumes — the query-side mirror of Module.
var QueryModule = fx.Options(
	fx.Provide(
		NewUserQueryHandlers,
		NewOrgQueryHandlers,
		NewProjectQueryHandlers,
		NewProjectRoleQueryHandlers,
		NewProjectMemberQueryHandlers,
		NewApplicationQueryHandlers,
		NewUserGrantQueryHandlers,
		NewIDPConfigQueryHandlers,
		NewIDPIntentQueryHandlers,
		NewSAMLRequestQueryHandlers,
		NewSessionQueryHandlers,
		NewTargetQueryHandlers,
		NewExecutionQueryHandlers,
		NewProjectionStatusQueryHandlers,
		NewEventQueryHandlers,

		fx.Annotate(userQueryHandlerGroup, fx.ResultTags(`group:"query_handlers,flatten"`)),
		fx.Annotate(orgQueryHandlerGroup, fx.ResultTags(`group:"query_handlers,flatten"`)),
		fx.Annotate(projectQueryHandlerGroup, fx.ResultTags(`group:"query_handlers,flatten"`)),
		fx.Annotate(projectRoleQueryHandlerGroup, fx.ResultTags(`group:"query_handlers,flatten"`)),
		fx.Annotate(projectMemberQueryHandlerGroup, fx.ResultTags(`group:"query_handlers,flatten"`)),
		fx.Annotate(applicationQueryHandlerGroup, fx.ResultTags(`group:"query_handlers,flatten"`)),
		fx.Annotate(userGrantQueryHandlerGroup, fx.ResultTags(`group:"query_handlers,flatten"`)),
		fx.Annotate(idpConfigQueryHandlerGroup, fx.ResultTags(`group:"query_handlers,flatten"`)),
		fx.Annotate(idpIntentQueryHandlerGroup, fx.ResultTags(`group:"query_handlers,flatten"`)),
		fx.Annotate(samlRequestQueryHandlerGroup, fx.ResultTags(`group:"query_handlers,flatten"`)),
		fx.Annotate(sessionQueryHandlerGroup, fx.ResultTags(`group:"query_handlers,flatten"`)),
		fx.Annotate(targetQueryHandlerGroup, fx.ResultTags(`group:"query_handlers,flatten"`)),
		fx.Annotate(executionQueryHandlerGroup, fx.ResultTags(`group:"query_handlers,flatten"`)),
		fx.Annotate(adminQueryHandlerGroup, fx.ResultTags(`group:"query_handlers,flatten"`)),
	),
)

func userQueryHandlerGroup(h *UserQueryHandlers) []coreapp.TaggedQueryHandler {
	return []coreapp.TaggedQueryHandler{
		{QueryType: "iam.user.get", Handler: adaptQuery(h.Get)},
		{QueryType: "iam.user.list", Handler: adaptQuery(h.List)},
	}
}

func orgQueryHandlerGroup(h *OrgQueryHandlers) []coreapp.TaggedQueryHandler {
	return []coreapp.TaggedQueryHandler{
		{QueryType: "iam.org.get", Handler: adaptQuery(h.Get)},
		{QueryType: "iam.org.list", Handler: adaptQuery(h.List)},
	}
}

func projectQueryHandlerGroup(h *ProjectQueryHandlers) []coreapp.TaggedQueryHandler {
	return []coreapp.TaggedQueryHandler{
		{QueryType: "iam.project.get", Handler: adaptQuery(h.Get)},
		{QueryType: "iam.project.list", Handler: adaptQuery(h.List)},
	}
}

func projectRoleQueryHandlerGroup(h *ProjectRoleQueryHandlers) []coreapp.TaggedQueryHandler {
	return []coreapp.TaggedQueryHandler{
		{QueryType: "iam.project_role.get", Handler: adaptQuery(h.Get)},
		{QueryType: "iam.project_role.list", Handler: adaptQuery(h.List)},
	}
}

func projectMemberQueryHandlerGroup(h *ProjectMemberQueryHandlers) []coreapp.TaggedQueryHandler {
	return []coreapp.TaggedQueryHandler{
		{QueryType: "iam.project_member.get", Handler: adaptQuery(h.Get)},
		{QueryType: "iam.project_member.list", Handler: adaptQuery(h.List)},
	}
}

func applicationQueryHandlerGroup(h *ApplicationQueryHandlers) []coreapp.TaggedQueryHandler {
	return []coreapp.TaggedQueryHandler{
		{QueryType: "iam.application.get", Handler: adaptQuery(h.Get)},
		{QueryType: "iam.application.list", Handler: adaptQuery(h.List)},
	}
}

func userGrantQueryHandlerGroup(h *UserGrantQueryHandlers) []coreapp.TaggedQueryHandler {
	return []coreapp.TaggedQueryHandler{
		{QueryType: "iam.user_grant.get", Handler: adaptQuery(h.Get)},
		{QueryType: "iam.user_grant.list", Handler: adaptQuery(h.List)},
	}
}

func idpConfigQueryHandlerGroup(h *IDPConfigQueryHandlers) []coreapp.TaggedQueryHandler {
	return []coreapp.TaggedQueryHandler{
		{QueryType: "iam.idp_config.get", Handler: adaptQuery(h.Get)},
		{QueryType: "iam.idp_config.list", Handler: adaptQuery(h.List)},
	}
}

func idpIntentQueryHandlerGroup(h *IDPIntentQueryHandlers) []coreapp.TaggedQueryHandler {
	return []coreapp.TaggedQueryHandler{
		{QueryType: "iam.idp_intent.get", Handler: adaptQuery(h.Get)},
		{QueryType: "iam.idp_intent.list", Handler: adaptQuery(h.List)},
		{QueryType: "iam.idp_intent.lookup_by_state", Handler: adaptQuery(h.LookupByState)},
	}
}

func samlRequestQueryHandlerGroup(h *SAMLRequestQueryHandlers) []coreapp.TaggedQueryHandler {
	return []coreapp.TaggedQueryHandler{
		{QueryType: "iam.saml_request.get", Handler: adaptQuery(h.Get)},
		{QueryType: "iam.saml_request.list", Handler: adaptQuery(h.List)},
	}
}

func sessionQueryHandlerGroup(h *SessionQueryHandlers) []coreapp.TaggedQueryHandler {
	return []coreapp.TaggedQueryHandler{
		{QueryType: "iam.session.get", Handler: adaptQuery(h.Get)},
		{QueryType: "iam.session.list", Handler: adaptQuery(h.List)},
	}
}

func targetQueryHandlerGroup(h *TargetQueryHandlers) []coreapp.TaggedQueryHandler {
	return []coreapp.TaggedQueryHandler{
		{QueryType: "iam.target.get", Handler: adaptQuery(h.Get)},
		{QueryType: "iam.target.list", Handler: adaptQuery(h.List)},
	}
}

func executionQueryHandlerGroup(h *ExecutionQueryHandlers) []coreapp.TaggedQueryHandler {
	return []coreapp.TaggedQueryHandler{
		{QueryType: "iam.execution.get", Handler: adaptQuery(h.Get)},
		{QueryType: "iam.execution.list", Handler: adaptQuery(h.List)},
	}
}

func adminQueryHandlerGroup(ps *ProjectionStatusQueryHandlers, es *EventQueryHandlers) []coreapp.TaggedQueryHandler {
	return []coreapp.TaggedQueryHandler{
		{QueryType: "iam.admin.projection_status", Handler: adaptQuery(ps.Get)},
		{QueryType: "iam.admin.event_list", Handler: adaptQuery(es.List)},
	}
}
