package rbac

// RoleRequest is the create/update payload for a role.
type RoleRequest struct {
	Name              string `json:"name" validate:"required,max=100"`
	ManageMembers     bool   `json:"manage_members"`
	ManageEvents      bool   `json:"manage_events"`
	ManageFinances    bool   `json:"manage_finances"`
	RegisterTithes    bool   `json:"register_tithes"`
	RegisterOfferings bool   `json:"register_offerings"`
	ManageRoles       bool   `json:"manage_roles"`
	ManageDocuments   bool   `json:"manage_documents"`
	ViewReports       bool   `json:"view_reports"`
}

func (r RoleRequest) input() RoleInput {
	return RoleInput{
		Name:              r.Name,
		ManageMembers:     r.ManageMembers,
		ManageEvents:      r.ManageEvents,
		ManageFinances:    r.ManageFinances,
		RegisterTithes:    r.RegisterTithes,
		RegisterOfferings: r.RegisterOfferings,
		ManageRoles:       r.ManageRoles,
		ManageDocuments:   r.ManageDocuments,
		ViewReports:       r.ViewReports,
	}
}
