package rbac

type EnforceRequest struct {
	Role     string `json:"-"`
	Resource string `json:"resource" binding:"required"`
	Action   string `json:"action" binding:"required"`
}

type EnforceResponse struct {
	Allowed bool `json:"allowed"`
}

type PermissionResponse struct {
	Resource string `json:"resource"`
	Action   string `json:"action"`
}

type RolePermissionsResponse struct {
	Role        string               `json:"role"`
	Roles       []string             `json:"inherited_roles"`
	Permissions []PermissionResponse `json:"permissions"`
}
