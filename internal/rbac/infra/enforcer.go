package infra

import (
	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	fileadapter "github.com/casbin/casbin/v2/persist/file-adapter"
)

const modelText = `[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && r.obj == p.obj && r.act == p.act
`

// NewEnforcer builds the role/resource/action enforcer. When policyPath is
// empty the enforcer starts with no policies and the caller seeds defaults.
func NewEnforcer(policyPath string) (*casbin.Enforcer, error) {
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}
	if policyPath == "" {
		return casbin.NewEnforcer(m)
	}
	return casbin.NewEnforcer(m, fileadapter.NewAdapter(policyPath))
}
