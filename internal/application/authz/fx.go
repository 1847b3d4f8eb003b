package authz

import (
	"github.com/nexusiam/iamcore/internal/application/projection"
	"go.uber.org/fx"
)

// Module provides the casbin-backed authorizer and wires RoleSync/
// MembershipSync as the projection package's RoleSyncer/MembershipSyncer,
// so project_role.go and project_member.go's optional sync hooks resolve to
// real implementations once this module is included in the graph.
var Module = fx.Options(
	fx.Provide(
		NewGormAdapter,
		NewCasbinEnforcer,
		NewAuthorizer,
		fx.Annotate(NewRoleSync, fx.As(new(projection.RoleSyncer))),
		fx.Annotate(NewMembershipSync, fx.As(new(projection.MembershipSyncer))),
	),
)
