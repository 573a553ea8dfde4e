package rbac

import "github.com/ecclesia-app/ecclesia/internal/lifecycle"

// Capability is a named permission gating one family of mutating operations.
type Capability string

const (
	CapManageMembers     Capability = "manage-members"
	CapManageEvents      Capability = "manage-events"
	CapManageFinances    Capability = "manage-finances"
	CapRegisterTithes    Capability = "register-tithes"
	CapRegisterOfferings Capability = "register-offerings"
	CapManageRoles       Capability = "manage-roles"
	CapManageDocuments   Capability = "manage-documents"
	CapViewReports       Capability = "view-reports"

	// CapHardDelete gates physical removal. It is deliberately absent from
	// the role matrix: only super operators pass it.
	CapHardDelete Capability = "hard-delete"
)

// Capabilities lists the eight matrix capabilities in stable order.
var Capabilities = []Capability{
	CapManageMembers,
	CapManageEvents,
	CapManageFinances,
	CapRegisterTithes,
	CapRegisterOfferings,
	CapManageRoles,
	CapManageDocuments,
	CapViewReports,
}

// Role is a named set of independent capability flags. No flag implies
// another.
type Role struct {
	ID                int64  `json:"id"`
	Name              string `json:"name"`
	ManageMembers     bool   `json:"manage_members"`
	ManageEvents      bool   `json:"manage_events"`
	ManageFinances    bool   `json:"manage_finances"`
	RegisterTithes    bool   `json:"register_tithes"`
	RegisterOfferings bool   `json:"register_offerings"`
	ManageRoles       bool   `json:"manage_roles"`
	ManageDocuments   bool   `json:"manage_documents"`
	ViewReports       bool   `json:"view_reports"`
	lifecycle.Meta
}

// Allows reports whether the role grants the given capability.
func (r Role) Allows(c Capability) bool {
	switch c {
	case CapManageMembers:
		return r.ManageMembers
	case CapManageEvents:
		return r.ManageEvents
	case CapManageFinances:
		return r.ManageFinances
	case CapRegisterTithes:
		return r.RegisterTithes
	case CapRegisterOfferings:
		return r.RegisterOfferings
	case CapManageRoles:
		return r.ManageRoles
	case CapManageDocuments:
		return r.ManageDocuments
	case CapViewReports:
		return r.ViewReports
	default:
		return false
	}
}
