package rbac

import "testing"

func TestCan(t *testing.T) {
	cases := []struct {
		name   string
		role   Role
		action Action
		allow  bool
	}{
		{name: "client creates project", role: RoleClient, action: ActionCreateProject, allow: true},
		{name: "client cannot invite", role: RoleClient, action: ActionInvite, allow: false},
		{name: "member cannot approve", role: RoleMember, action: ActionApprove, allow: false},
		{name: "pm invites", role: RolePM, action: ActionInvite, allow: true},
		{name: "pm approves", role: RolePM, action: ActionApprove, allow: true},
		{name: "pm cannot change roles", role: RolePM, action: ActionChangeRole, allow: false},
		{name: "pm cannot remove pm", role: RolePM, action: ActionRemovePM, allow: false},
		{name: "admin removes pm", role: RoleAdmin, action: ActionRemovePM, allow: true},
		{name: "pm handles inquiries", role: RolePM, action: ActionHandleAsk, allow: true},
		{name: "member cannot handle inquiries", role: RoleMember, action: ActionHandleAsk, allow: false},
		{name: "unknown role", role: Role("R99"), action: ActionCreateProject, allow: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Can(tc.role, tc.action); got != tc.allow {
				t.Fatalf("Can(%q, %q) = %v, want %v", tc.role, tc.action, got, tc.allow)
			}
		})
	}
}

func TestPrivileged(t *testing.T) {
	for role, want := range map[Role]bool{
		RoleClient: false,
		RoleMember: false,
		RolePM:     true,
		RoleAdmin:  true,
	} {
		if got := role.Privileged(); got != want {
			t.Errorf("%s.Privileged() = %v, want %v", role, got, want)
		}
	}
}

func TestParse(t *testing.T) {
	if r, ok := Parse("R03"); !ok || r != RolePM {
		t.Fatalf("Parse(R03) = %q, %v", r, ok)
	}
	if _, ok := Parse("admin"); ok {
		t.Fatal("Parse(admin) should be unknown")
	}
}
