package identity

// LoginRequest carries login credentials.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// CreatePrincipalRequest is the payload for registering a principal.
type CreatePrincipalRequest struct {
	Kind          string `json:"kind" validate:"required,oneof=operator staff member"`
	Email         string `json:"email" validate:"required,email"`
	Name          string `json:"name" validate:"required,max=200"`
	Password      string `json:"password" validate:"required,min=8"`
	SuperOperator bool   `json:"is_super_operator"`
	RoleID        *int64 `json:"role_id,omitempty" validate:"omitempty,gt=0"`
}

// AssignRoleRequest sets or clears a principal's role.
type AssignRoleRequest struct {
	RoleID *int64 `json:"role_id" validate:"omitempty,gt=0"`
}
