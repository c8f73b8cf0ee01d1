package roles

import "github.com/teamtaskhq/teamtask-api/internal/models"

// Hierarchy is an immutable total order over roles. Authorization code takes
// a Hierarchy value instead of reading a package global so tests can
// substitute alternate orderings without leakage.
type Hierarchy struct {
	levels map[models.Role]int
}

// New builds a hierarchy from an explicit ordering, least privileged first.
// The first role gets level 1; unknown roles resolve to level 0 so checks
// against them fail closed.
func New(ordering ...models.Role) Hierarchy {
	levels := make(map[models.Role]int, len(ordering))
	for i, role := range ordering {
		levels[role] = i + 1
	}
	return Hierarchy{levels: levels}
}

// Default returns the production ordering:
// user < team_leader < manager < admin < superadmin.
func Default() Hierarchy {
	return New(
		models.RoleUser,
		models.RoleTeamLeader,
		models.RoleManager,
		models.RoleAdmin,
		models.RoleSuperadmin,
	)
}

// LevelOf returns the authority level of a role. Unknown roles map to 0,
// below every known role.
func (h Hierarchy) LevelOf(role models.Role) int {
	return h.levels[role]
}

// HasAccess reports whether a user holding userRole meets requiredRole.
func (h Hierarchy) HasAccess(userRole, requiredRole models.Role) bool {
	return h.LevelOf(userRole) >= h.LevelOf(requiredRole)
}

// CanManage reports whether an actor may change a target's role to newRole.
// The actor must sit strictly above both the target's current role and the
// requested role, and only a superadmin may touch the superadmin role on
// either side.
func (h Hierarchy) CanManage(actorRole, targetRole, newRole models.Role) bool {
	if (targetRole == models.RoleSuperadmin || newRole == models.RoleSuperadmin) &&
		actorRole != models.RoleSuperadmin {
		return false
	}
	return h.LevelOf(actorRole) > h.LevelOf(targetRole) &&
		h.LevelOf(actorRole) > h.LevelOf(newRole)
}

// Top returns the highest-level role in the hierarchy.
func (h Hierarchy) Top() models.Role {
	var top models.Role
	best := 0
	for role, level := range h.levels {
		if level > best {
			best = level
			top = role
		}
	}
	return top
}
