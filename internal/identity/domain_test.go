package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ecclesia-app/ecclesia/internal/rbac"
)

func TestKindValid(t *testing.T) {
	assert.True(t, KindOperator.valid())
	assert.True(t, KindStaff.valid())
	assert.True(t, KindMember.valid())
	assert.False(t, Kind("admin").valid())
	assert.False(t, Kind("").valid())
}

// The super-operator flag only counts on operators; carrying it on another
// kind must not open the escape hatch.
func TestSuperOperatorRequiresOperatorKind(t *testing.T) {
	op := &Account{ID: 1, Kind: KindOperator, SuperOperator: true}
	assert.True(t, op.IsSuperOperator())
	assert.True(t, rbac.Check(op, rbac.CapHardDelete).Allowed)

	staff := &Account{ID: 2, Kind: KindStaff, SuperOperator: true}
	assert.False(t, staff.IsSuperOperator())
	assert.False(t, rbac.Check(staff, rbac.CapHardDelete).Allowed)

	member := &Account{ID: 3, Kind: KindMember, SuperOperator: true}
	assert.False(t, member.IsSuperOperator())
}

func TestAccountExposesAssignedRole(t *testing.T) {
	role := &rbac.Role{ID: 9, Name: "Treasurer", ManageFinances: true}
	a := &Account{ID: 4, Kind: KindStaff, Role: role}
	assert.Equal(t, role, a.AssignedRole())
	assert.True(t, rbac.Check(a, rbac.CapManageFinances).Allowed)
	assert.False(t, rbac.Check(a, rbac.CapManageRoles).Allowed)
}
