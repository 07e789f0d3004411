// Package rolegate centralizes every capability check of the synchronizer.
// Call sites never test roles inline; policy changes (for example co-teacher
// roles) touch only this package.
package rolegate

import (
	"classsync/pkg/types"
)

// Gate answers whether the current participant may mutate a shared resource.
// Denials are silent no-ops at the call sites, matching read-only controls
// that are inert rather than error-raising.
type Gate struct{}

// New returns a gate with the default classroom policy.
func New() Gate {
	return Gate{}
}

// CanMutateCanvas reports whether role may mutate shared canvas state.
// Only the teacher role is the canvas authority.
func (Gate) CanMutateCanvas(role types.Role) bool {
	return role == types.RoleTeacher
}

// CanModerate reports whether role may apply a moderation action. Teachers
// may act on any target; every participant may act on themselves.
func (Gate) CanModerate(role types.Role, targetIsLocal bool) bool {
	if targetIsLocal {
		return true
	}
	return role == types.RoleTeacher
}
