package authz

import (
	"fmt"
	"strings"

	"github.com/casbin/casbin/v3"
)

// RoleSync adapts casbin's policy API to the ProjectRole projection's
// RoleSyncer interface: permissions are "object:action" pairs (action
// defaults to "*" when omitted), stored as casbin p-policies scoped to the
// role within its project.
type RoleSync struct {
	enforcer *casbin.Enforcer
}

func NewRoleSync(enforcer *casbin.Enforcer) *RoleSync { return &RoleSync{enforcer: enforcer} }

func (s *RoleSync) SyncRole(projectID, roleKey string, permissions []string, active bool) error {
	if _, err := s.enforcer.RemoveFilteredPolicy(0, roleKey, projectID); err != nil {
		return fmt.Errorf("clear role policies: %w", err)
	}
	if !active {
		return nil
	}
	for _, perm := range permissions {
		obj, act := splitPermission(perm)
		if _, err := s.enforcer.AddPolicy(roleKey, projectID, obj, act); err != nil {
			return fmt.Errorf("add role policy: %w", err)
		}
	}
	return nil
}

func splitPermission(perm string) (obj, act string) {
	if idx := strings.IndexByte(perm, ':'); idx >= 0 {
		return perm[:idx], perm[idx+1:]
	}
	return perm, "*"
}

// MembershipSync adapts casbin's grouping API to the ProjectMember
// projection's MembershipSyncer interface: a user's project membership
// becomes one g-grouping per held role key, scoped to the project.
type MembershipSync struct {
	enforcer *casbin.Enforcer
}

func NewMembershipSync(enforcer *casbin.Enforcer) *MembershipSync { return &MembershipSync{enforcer: enforcer} }

func (s *MembershipSync) SyncMember(projectID, userID string, roleKeys []string, active bool) error {
	if _, err := s.enforcer.RemoveFilteredGroupingPolicy(0, userID, "", projectID); err != nil {
		return fmt.Errorf("clear member groupings: %w", err)
	}
	if !active {
		return nil
	}
	for _, role := range roleKeys {
		if _, err := s.enforcer.AddGroupingPolicy(userID, role, projectID); err != nil {
			return fmt.Errorf("add member grouping: %w", err)
		}
	}
	return nil
}
