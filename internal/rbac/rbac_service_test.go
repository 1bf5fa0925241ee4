package rbac

import (
	"testing"

	"go-schoolops/internal/rbac/infra"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEnforcer(t *testing.T) *casbin.Enforcer {
	modelText := `[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && r.obj == p.obj && (r.act == p.act || p.act == "*")
`

	m, err := model.NewModelFromString(modelText)
	require.NoError(t, err)

	e, err := casbin.NewEnforcer(m)
	require.NoError(t, err)

	_, err = e.AddPolicy("viewer", "invoice", "read")
	require.NoError(t, err)
	_, err = e.AddPolicy("finance", "invoice", "*")
	require.NoError(t, err)
	_, err = e.AddGroupingPolicy("finance", "viewer")
	require.NoError(t, err)

	return e
}

func TestRBACService_Enforce(t *testing.T) {
	service := NewService(newTestEnforcer(t))

	tests := []struct {
		name     string
		role     string
		resource string
		action   string
		want     bool
	}{
		{"viewer reads", "viewer", "invoice", "read", true},
		{"viewer cannot generate", "viewer", "invoice", "generate", false},
		{"wildcard action", "finance", "invoice", "generate", true},
		{"unknown resource", "finance", "posting", "create", false},
		{"empty role", "", "invoice", "read", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := service.Enforce(EnforceRequest{Role: tt.role, Resource: tt.resource, Action: tt.action})
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRBACService_Permissions(t *testing.T) {
	service := NewService(newTestEnforcer(t))

	resp, err := service.Permissions("finance")
	require.NoError(t, err)

	assert.Equal(t, "finance", resp.Role)
	assert.Contains(t, resp.Roles, "viewer")
	assert.Contains(t, resp.Permissions, PermissionResponse{Resource: "invoice", Action: "read"})
	assert.Contains(t, resp.Permissions, PermissionResponse{Resource: "invoice", Action: "*"})
}

func TestShippedPolicy(t *testing.T) {
	e, err := infra.NewEnforcer("../../configs/rbac_model.conf", "../../configs/rbac_policy.csv")
	require.NoError(t, err)
	service := NewService(e)

	allowed := func(role, resource, action string) bool {
		ok, err := service.Enforce(EnforceRequest{Role: role, Resource: resource, Action: action})
		require.NoError(t, err)
		return ok
	}

	assert.True(t, allowed("hr", "posting", "create"))
	assert.True(t, allowed("hr", "roster", "reconcile"))
	assert.False(t, allowed("hr", "invoice", "generate"))
	assert.True(t, allowed("finance", "payment", "create"))
	assert.True(t, allowed("finance", "school", "read"))
	assert.False(t, allowed("finance", "posting", "update"))
	assert.True(t, allowed("admin", "invoice", "generate"))
	assert.True(t, allowed("admin", "leave", "upsert"))
	assert.False(t, allowed("viewer", "leave", "upsert"))
}
