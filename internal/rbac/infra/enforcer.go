package infra

import "github.com/casbin/casbin/v2"

// NewEnforcer loads the model and the role/permission policy from disk.
func NewEnforcer(modelPath, policyPath string) (*casbin.Enforcer, error) {
	return casbin.NewEnforcer(modelPath, policyPath)
}
