package identity

import (
	"github.com/ecclesia-app/ecclesia/internal/lifecycle"
	"github.com/ecclesia-app/ecclesia/internal/rbac"
)

// Kind tags the principal variant. The tag is fixed at construction and never
// re-derived by probing lookups.
type Kind string

const (
	// KindOperator is a full administrative identity.
	KindOperator Kind = "operator"
	// KindStaff is symmetric to Operator, conventionally holding narrower roles.
	KindStaff Kind = "staff"
	// KindMember is a congregation member; most hold no role at all.
	KindMember Kind = "member"
)

func (k Kind) valid() bool {
	switch k {
	case KindOperator, KindStaff, KindMember:
		return true
	}
	return false
}

// Account is a resolved principal of one of the three kinds, carrying at most
// one optional role.
type Account struct {
	ID           int64  `json:"id"`
	Kind         Kind   `json:"kind"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	PasswordHash string `json:"-"`
	// SuperOperator is the bootstrap escape hatch. It is only meaningful on
	// operators and is never folded into the role matrix.
	SuperOperator bool       `json:"is_super_operator"`
	RoleID        *int64     `json:"role_id,omitempty"`
	Role          *rbac.Role `json:"role,omitempty"`
	lifecycle.Meta
}

// PrincipalID implements rbac.Principal.
func (a *Account) PrincipalID() int64 { return a.ID }

// IsSuperOperator implements rbac.Principal.
func (a *Account) IsSuperOperator() bool { return a.Kind == KindOperator && a.SuperOperator }

// AssignedRole implements rbac.Principal.
func (a *Account) AssignedRole() *rbac.Role { return a.Role }
