package policy

import (
	"errors"

	"github.com/verdantlabs/canopy/pkg/auth"
)

// Action is an operation a principal may attempt on a resource
type Action string

const (
	ActionView   Action = "view"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// ErrPermissionDenied is the single uniform permission failure. The message
// is identical for every entity and rule so a caller cannot probe which
// check rejected them.
var ErrPermissionDenied = errors.New("You do not have the required permissions to perform this action")

// Owned is a resource with an exclusive owner
type Owned interface {
	// Kind names the resource type for logging and metrics
	Kind() string
	// ResourceOwnerID is the owning principal's ID. For devices and
	// environment records this is the parent greenhouse's owner.
	ResourceOwnerID() int64
}

// Shared is an owned resource that additionally grants read access to a set
// of authorized users (greenhouses and their environment records)
type Shared interface {
	Owned
	// AuthorizedUserIDs lists principals with read access beyond the owner
	AuthorizedUserIDs() []int64
}

// Can reports whether the principal may perform the action on the resource.
// It is a pure function: all ownership data must already be attached to res.
//
// Create is evaluated against the declared parent of the entity being
// created (a device's greenhouse, an environment's greenhouse), so it
// follows the same owner-only rule as update.
func Can(p *auth.Principal, action Action, res Owned) bool {
	if p == nil || !p.IsActive {
		return false
	}
	if p.IsSuperuser {
		return true
	}
	if res == nil {
		return false
	}

	if res.ResourceOwnerID() == p.ID {
		return true
	}

	// Authorized users get read access only
	if action == ActionView {
		if shared, ok := res.(Shared); ok {
			for _, id := range shared.AuthorizedUserIDs() {
				if id == p.ID {
					return true
				}
			}
		}
	}

	return false
}

// CanActOnUser reports whether the actor may view or modify the target
// principal's record: superusers always, everyone else only themselves.
// Escalation of is_staff/is_superuser/is_active stays superuser-only and is
// enforced by the user service on top of this check.
func CanActOnUser(actor *auth.Principal, targetID int64) bool {
	if actor == nil || !actor.IsActive {
		return false
	}
	return actor.IsSuperuser || actor.ID == targetID
}
