package service

import (
	"context"
	"strings"
)

type staticRoleRegistry struct {
	members map[Role]map[string]struct{}
}

// NewStaticRoleRegistry creates a registry where the given identities hold the admin role.
// Identities compare case-insensitively since hex addresses carry no meaning in their case.
func NewStaticRoleRegistry(admins []string) RoleRegistry {
	r := &staticRoleRegistry{
		members: map[Role]map[string]struct{}{
			RoleAdmin: {},
		},
	}
	for _, admin := range admins {
		key := normalizeIdentity(admin)
		if key == "" {
			continue
		}
		r.members[RoleAdmin][key] = struct{}{}
	}
	return r
}

func (r *staticRoleRegistry) HasRole(ctx context.Context, identity string, role Role) bool {
	holders, ok := r.members[role]
	if !ok {
		return false
	}
	_, ok = holders[normalizeIdentity(identity)]
	return ok
}

func normalizeIdentity(identity string) string {
	return strings.ToLower(strings.TrimSpace(identity))
}
