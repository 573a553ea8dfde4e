package rbac

import "fmt"

// Principal describes the authenticated actor presented to the guard.
// Unauthenticated callers never reach Check; the caller rejects them first.
type Principal interface {
	PrincipalID() int64
	IsSuperOperator() bool
	AssignedRole() *Role
}

// Decision is the outcome of an authorization check. Denial is a value, not
// an error.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(reason string) Decision {
	return Decision{Allowed: false, Reason: reason}
}

// Check decides whether the principal may perform the given mutating action.
// Read-only operations are not routed through Check; any authenticated
// principal may read.
//
// The super-operator escape hatch is consulted first and bypasses the matrix
// entirely. A principal without a role is denied every mutating action. A
// principal never holds more than one role, so there is no fallback across
// roles.
func Check(p Principal, action Capability) Decision {
	if p == nil {
		return deny("unauthenticated")
	}
	if p.IsSuperOperator() {
		return allow()
	}
	role := p.AssignedRole()
	if role == nil || role.Deleted() {
		return deny(fmt.Sprintf("no role grants %s", action))
	}
	if role.Allows(action) {
		return allow()
	}
	return deny(fmt.Sprintf("role %q lacks capability %s", role.Name, action))
}
