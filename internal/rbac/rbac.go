// Package rbac holds the flat role model and the capability table that
// every handler and workflow step consults.
package rbac

// Role is the role code stored in users.role.
type Role string

const (
	RoleClient Role = "R01"
	RoleMember Role = "R02"
	RolePM     Role = "R03"
	RoleAdmin  Role = "R04"
)

// Action is something a caller may be allowed to do.
type Action string

const (
	ActionCreateProject Action = "project.create"
	ActionManageProject Action = "project.manage"
	ActionAssignPM      Action = "project.assign_pm"
	ActionInvite        Action = "invite.create"
	ActionApprove       Action = "invite.approve"
	ActionRemoveMember  Action = "team.remove_member"
	ActionManageUsers   Action = "user.manage"
	ActionChangeRole    Action = "user.change_role"
	ActionRemovePM      Action = "user.remove_pm"
	ActionReadChannel   Action = "alert.read_channel"
	ActionHandleAsk     Action = "ask.handle"
)

var capabilities = map[Role]map[Action]bool{
	RoleClient: {
		ActionCreateProject: true,
	},
	// Members only act on their own invites, which is an ownership
	// check rather than a capability.
	RoleMember: {},
	RolePM: {
		ActionCreateProject: true,
		ActionManageProject: true,
		ActionAssignPM:      true,
		ActionInvite:        true,
		ActionApprove:       true,
		ActionRemoveMember:  true,
		ActionManageUsers:   true,
		ActionReadChannel:   true,
		ActionHandleAsk:     true,
	},
	RoleAdmin: {
		ActionCreateProject: true,
		ActionManageProject: true,
		ActionAssignPM:      true,
		ActionInvite:        true,
		ActionApprove:       true,
		ActionRemoveMember:  true,
		ActionManageUsers:   true,
		ActionChangeRole:    true,
		ActionRemovePM:      true,
		ActionReadChannel:   true,
		ActionHandleAsk:     true,
	},
}

// Can reports whether role may perform action. Unknown roles can do nothing.
func Can(role Role, action Action) bool {
	return capabilities[role][action]
}

// Privileged reports whether the role sees the shared admin alert channel.
func (r Role) Privileged() bool {
	return Can(r, ActionReadChannel)
}

func (r Role) Valid() bool {
	_, ok := capabilities[r]
	return ok
}

// Parse returns the role for a stored code and whether it is known.
func Parse(code string) (Role, bool) {
	r := Role(code)
	return r, r.Valid()
}
