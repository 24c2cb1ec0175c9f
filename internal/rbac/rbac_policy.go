package rbac

import "go-ems/internal/session"

const (
	ResourceLeave    = "leave"
	ResourceEmployee = "employee"
	ResourceProfile  = "profile"
	ResourceMirror   = "mirror"
	ResourceRBAC     = "rbac"
)

const (
	ActionSubmit    = "submit"
	ActionCancel    = "cancel"
	ActionReview    = "review"
	ActionReadOwn   = "read_own"
	ActionReadAll   = "read_all"
	ActionCreate    = "create"
	ActionUpdate    = "update"
	ActionDelete    = "delete"
	ActionList      = "list"
	ActionReconcile = "reconcile"
	ActionInspect   = "inspect"
)

// DefaultPolicies is the policy set loaded when no policy file is configured.
var DefaultPolicies = [][]string{
	{string(session.RoleEmployee), ResourceLeave, ActionSubmit},
	{string(session.RoleEmployee), ResourceLeave, ActionCancel},
	{string(session.RoleEmployee), ResourceLeave, ActionReadOwn},
	{string(session.RoleEmployee), ResourceProfile, ActionReadOwn},

	{string(session.RoleAdmin), ResourceLeave, ActionReview},
	{string(session.RoleAdmin), ResourceLeave, ActionReadAll},
	{string(session.RoleAdmin), ResourceEmployee, ActionCreate},
	{string(session.RoleAdmin), ResourceEmployee, ActionUpdate},
	{string(session.RoleAdmin), ResourceEmployee, ActionDelete},
	{string(session.RoleAdmin), ResourceEmployee, ActionList},
	{string(session.RoleAdmin), ResourceProfile, ActionReadOwn},
	{string(session.RoleAdmin), ResourceMirror, ActionReconcile},
	{string(session.RoleAdmin), ResourceRBAC, ActionInspect},
}
