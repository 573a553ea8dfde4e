package rbac

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecclesia-app/ecclesia/internal/lifecycle"
)

type fakePrincipal struct {
	id    int64
	super bool
	role  *Role
}

func (p fakePrincipal) PrincipalID() int64    { return p.id }
func (p fakePrincipal) IsSuperOperator() bool { return p.super }
func (p fakePrincipal) AssignedRole() *Role   { return p.role }

func roleWith(caps ...Capability) *Role {
	r := &Role{ID: 1, Name: "test-role"}
	for _, c := range caps {
		switch c {
		case CapManageMembers:
			r.ManageMembers = true
		case CapManageEvents:
			r.ManageEvents = true
		case CapManageFinances:
			r.ManageFinances = true
		case CapRegisterTithes:
			r.RegisterTithes = true
		case CapRegisterOfferings:
			r.RegisterOfferings = true
		case CapManageRoles:
			r.ManageRoles = true
		case CapManageDocuments:
			r.ManageDocuments = true
		case CapViewReports:
			r.ViewReports = true
		}
	}
	return r
}

func TestCheckUnauthenticated(t *testing.T) {
	for _, c := range Capabilities {
		d := Check(nil, c)
		assert.False(t, d.Allowed, "capability %s", c)
		assert.NotEmpty(t, d.Reason)
	}
}

func TestCheckSuperOperatorBypassesMatrix(t *testing.T) {
	p := fakePrincipal{id: 1, super: true}
	for _, c := range Capabilities {
		assert.True(t, Check(p, c).Allowed, "capability %s", c)
	}
	assert.True(t, Check(p, CapHardDelete).Allowed)
}

func TestCheckWithoutRoleDeniesEverything(t *testing.T) {
	p := fakePrincipal{id: 2}
	for _, c := range Capabilities {
		d := Check(p, c)
		assert.False(t, d.Allowed, "capability %s", c)
	}
}

func TestCheckDeletedRoleDenies(t *testing.T) {
	now := time.Now()
	role := roleWith(Capabilities...)
	role.Meta = lifecycle.Meta{DeletedAt: &now}
	p := fakePrincipal{id: 3, role: role}
	for _, c := range Capabilities {
		assert.False(t, Check(p, c).Allowed, "capability %s", c)
	}
}

// Each capability flag grants exactly its own action and nothing else.
func TestCheckCapabilitiesAreIndependent(t *testing.T) {
	for _, granted := range Capabilities {
		p := fakePrincipal{id: 4, role: roleWith(granted)}
		for _, attempted := range Capabilities {
			d := Check(p, attempted)
			if attempted == granted {
				assert.True(t, d.Allowed, "capability %s should grant itself", granted)
			} else {
				assert.False(t, d.Allowed, "capability %s must not grant %s", granted, attempted)
			}
		}
	}
}

func TestCheckHardDeleteOutsideMatrix(t *testing.T) {
	// A role granting everything still cannot hard-delete.
	p := fakePrincipal{id: 5, role: roleWith(Capabilities...)}
	d := Check(p, CapHardDelete)
	require.False(t, d.Allowed)

	assert.True(t, Check(fakePrincipal{id: 6, super: true}, CapHardDelete).Allowed)
}

func TestCheckRoleChangeTakesEffect(t *testing.T) {
	secretary := roleWith(CapManageMembers, CapManageEvents, CapManageDocuments, CapViewReports)
	p := fakePrincipal{id: 7, role: secretary}
	require.False(t, Check(p, CapRegisterTithes).Allowed)

	treasurer := roleWith(CapManageFinances, CapRegisterTithes, CapRegisterOfferings, CapViewReports)
	p.role = treasurer
	assert.True(t, Check(p, CapRegisterTithes).Allowed)
	assert.False(t, Check(p, CapManageMembers).Allowed)
}

func TestDecisionReasonNamesTheGap(t *testing.T) {
	p := fakePrincipal{id: 8, role: roleWith(CapViewReports)}
	d := Check(p, CapManageFinances)
	require.False(t, d.Allowed)
	assert.Contains(t, d.Reason, string(CapManageFinances))
}
