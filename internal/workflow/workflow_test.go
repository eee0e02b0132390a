package workflow

import (
	"context"
	"testing"

	"github.com/nayeon729/humanmakehub/internal/apperr"
	"github.com/nayeon729/humanmakehub/internal/models"
	"github.com/nayeon729/humanmakehub/internal/notify"
	"github.com/nayeon729/humanmakehub/internal/rbac"
	"github.com/nayeon729/humanmakehub/internal/repository"
	"github.com/nayeon729/humanmakehub/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var (
	client = Actor{UserID: "client1", Role: rbac.RoleClient}
	pm1    = Actor{UserID: "pm1", Role: rbac.RolePM}
	pm2    = Actor{UserID: "pm2", Role: rbac.RolePM}
	admin  = Actor{UserID: "admin", Role: rbac.RoleAdmin}
	u1     = Actor{UserID: "u1", Role: rbac.RoleMember}
	u2     = Actor{UserID: "u2", Role: rbac.RoleMember}
)

type recordingInvalidator struct{ users []string }

func (r *recordingInvalidator) Invalidate(_ context.Context, userID string) {
	r.users = append(r.users, userID)
}

type fixture struct {
	svc         *Service
	store       *memory.Store
	dispatcher  *notify.Dispatcher
	invalidator *recordingInvalidator
	project     *models.Project
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()

	for _, a := range []Actor{client, pm1, pm2, admin, u1, u2} {
		_, err := store.Users().Create(ctx, models.User{UserID: a.UserID, Nickname: a.UserID + "닉", Role: a.Role})
		require.NoError(t, err)
	}

	inv := &recordingInvalidator{}
	svc := NewService(store, Options{FrontBaseURL: "http://front", Invalidator: inv}, zap.NewNop())

	project, err := svc.CreateProject(ctx, client, NewProject{Title: "쇼핑몰 구축"})
	require.NoError(t, err)

	return &fixture{
		svc:         svc,
		store:       store,
		dispatcher:  notify.NewDispatcher(store.Alerts(), nil, zap.NewNop()),
		invalidator: inv,
		project:     project,
	}
}

func (f *fixture) dispatch(events []notify.Event) {
	f.dispatcher.Dispatch(context.Background(), events)
}

func (f *fixture) alerts(t *testing.T, userID string) []models.Alert {
	t.Helper()
	alerts, err := f.store.Alerts().ListFor(context.Background(), userID, false)
	require.NoError(t, err)
	return alerts
}

// inviteAndAccept runs invite then accept and returns the request id.
func (f *fixture) inviteAndAccept(t *testing.T, inviter, invitee Actor) int64 {
	t.Helper()
	ctx := context.Background()
	jr, events, err := f.svc.Invite(ctx, inviter, f.project.ProjectID, invitee.UserID)
	require.NoError(t, err)
	f.dispatch(events)

	_, events, err = f.svc.Respond(ctx, invitee, jr.RequestID, true)
	require.NoError(t, err)
	f.dispatch(events)
	return jr.RequestID
}

func kindOf(err error) apperr.Kind { return apperr.KindOf(err) }

func TestInviteCreatesRequestAndAlert(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	jr, events, err := f.svc.Invite(ctx, pm1, f.project.ProjectID, u1.UserID)
	require.NoError(t, err)
	assert.Equal(t, models.JoinPending, jr.Status)
	assert.False(t, jr.Responded)
	assert.Equal(t, "pm1", jr.PMID)

	require.Len(t, events, 1)
	f.dispatch(events)

	alerts := f.alerts(t, "u1")
	require.Len(t, alerts, 1)
	assert.Equal(t, jr.RequestID, alerts[0].ValueID)
	assert.Equal(t, models.CategoryProject, alerts[0].Category)
	assert.Equal(t, "http://front/member/projectlist", alerts[0].Link)
}

func TestDuplicatePendingInviteConflicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, _, err := f.svc.Invite(ctx, pm1, f.project.ProjectID, u1.UserID)
	require.NoError(t, err)

	_, _, err = f.svc.Invite(ctx, pm1, f.project.ProjectID, u1.UserID)
	require.Error(t, err)
	assert.Equal(t, apperr.KindConflict, kindOf(err))
	assert.Contains(t, err.Error(), MsgDuplicateInvite)

	// A different inviter is a different invite.
	_, _, err = f.svc.Invite(ctx, pm2, f.project.ProjectID, u1.UserID)
	assert.NoError(t, err)
}

func TestInviteAfterAnswerIsAllowed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	jr, _, err := f.svc.Invite(ctx, pm1, f.project.ProjectID, u1.UserID)
	require.NoError(t, err)
	_, _, err = f.svc.Respond(ctx, u1, jr.RequestID, false)
	require.NoError(t, err)

	_, _, err = f.svc.Invite(ctx, pm1, f.project.ProjectID, u1.UserID)
	assert.NoError(t, err)
}

func TestInviteExistingMemberConflicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	reqID := f.inviteAndAccept(t, pm1, u1)
	_, _, err := f.svc.Approve(ctx, pm1, f.project.ProjectID, reqID)
	require.NoError(t, err)

	_, _, err = f.svc.Invite(ctx, pm2, f.project.ProjectID, u1.UserID)
	assert.Equal(t, apperr.KindConflict, kindOf(err))
	assert.Contains(t, err.Error(), MsgAlreadyMember)
}

func TestInviteValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, _, err := f.svc.Invite(ctx, u2, f.project.ProjectID, u1.UserID)
	assert.Equal(t, apperr.KindForbidden, kindOf(err))

	_, _, err = f.svc.Invite(ctx, pm1, 9999, u1.UserID)
	assert.Equal(t, apperr.KindNotFound, kindOf(err))

	_, _, err = f.svc.Invite(ctx, pm1, f.project.ProjectID, "ghost")
	assert.Equal(t, apperr.KindNotFound, kindOf(err))
}

func TestRespondScopedToInvitee(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	jr, _, err := f.svc.Invite(ctx, pm1, f.project.ProjectID, u1.UserID)
	require.NoError(t, err)

	_, _, err = f.svc.Respond(ctx, u2, jr.RequestID, true)
	assert.Equal(t, apperr.KindNotFound, kindOf(err))

	_, _, err = f.svc.Respond(ctx, u1, jr.RequestID, true)
	require.NoError(t, err)

	_, _, err = f.svc.Respond(ctx, u1, jr.RequestID, false)
	assert.Equal(t, apperr.KindInvalid, kindOf(err))
}

func TestAcceptRetiresInviteAlertAndNotifiesPM(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.inviteAndAccept(t, pm1, u1)

	assert.Empty(t, f.alerts(t, "u1"))
	pmAlerts := f.alerts(t, "pm1")
	require.Len(t, pmAlerts, 1)
	assert.Equal(t, "u1닉님이 프로젝트 참여를 승인 요청했습니다.", pmAlerts[0].Message)

	// Accepting alone does not put anyone on the roster.
	member, err := f.store.TeamMembers().IsMember(ctx, f.project.ProjectID, u1.UserID)
	require.NoError(t, err)
	assert.False(t, member)
}

func TestDeclineHidesRequestFromLists(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	jr, events, err := f.svc.Invite(ctx, pm1, f.project.ProjectID, u1.UserID)
	require.NoError(t, err)
	f.dispatch(events)

	got, events, err := f.svc.Respond(ctx, u1, jr.RequestID, false)
	require.NoError(t, err)
	assert.Equal(t, models.JoinRejected, got.Status)
	require.Len(t, events, 1, "declining only retires the invite alert")
	f.dispatch(events)

	assert.Empty(t, f.alerts(t, "u1"))
	assert.Empty(t, f.alerts(t, "pm1"))

	mine, err := f.store.JoinRequests().ListByInvitee(ctx, u1.UserID)
	require.NoError(t, err)
	assert.Empty(t, mine)
	sent, err := f.store.JoinRequests().ListByProject(ctx, f.project.ProjectID, pm1.UserID)
	require.NoError(t, err)
	assert.Empty(t, sent)
}

func TestApprovePromotesExactlyOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	reqID := f.inviteAndAccept(t, pm1, u1)

	m, events, err := f.svc.Approve(ctx, admin, f.project.ProjectID, reqID)
	require.NoError(t, err)
	assert.Equal(t, u1.UserID, m.UserID)
	f.dispatch(events)
	assert.Empty(t, f.alerts(t, "pm1"), "acceptance alert retired on approval")

	_, _, err = f.svc.Approve(ctx, admin, f.project.ProjectID, reqID)
	require.Error(t, err)
	assert.Equal(t, apperr.KindInvalid, kindOf(err))
	assert.Contains(t, err.Error(), MsgNotAccepted)

	roster, err := f.store.TeamMembers().Roster(ctx, f.project.ProjectID)
	require.NoError(t, err)
	require.Len(t, roster, 1)
	assert.Equal(t, u1.UserID, roster[0].UserID)
}

func TestApproveRequiresAcceptance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	jr, _, err := f.svc.Invite(ctx, pm1, f.project.ProjectID, u1.UserID)
	require.NoError(t, err)

	_, _, err = f.svc.Approve(ctx, pm1, f.project.ProjectID, jr.RequestID)
	assert.Equal(t, apperr.KindInvalid, kindOf(err))

	_, _, err = f.svc.Respond(ctx, u1, jr.RequestID, false)
	require.NoError(t, err)
	_, _, err = f.svc.Approve(ctx, pm1, f.project.ProjectID, jr.RequestID)
	assert.Equal(t, apperr.KindInvalid, kindOf(err))

	_, _, err = f.svc.Approve(ctx, u2, f.project.ProjectID, jr.RequestID)
	assert.Equal(t, apperr.KindForbidden, kindOf(err))
}

func TestApproveSecondRequestForSameUserConflicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := f.inviteAndAccept(t, pm1, u1)
	second := f.inviteAndAccept(t, pm2, u1)

	_, _, err := f.svc.Approve(ctx, pm1, f.project.ProjectID, first)
	require.NoError(t, err)

	_, _, err = f.svc.Approve(ctx, pm2, f.project.ProjectID, second)
	assert.Equal(t, apperr.KindConflict, kindOf(err))
	assert.Contains(t, err.Error(), apperr.MsgAlreadyOnTeam)

	// The failed approval rolled back: the second request is still open.
	jr, err := f.store.JoinRequests().GetForProject(ctx, second, f.project.ProjectID)
	require.NoError(t, err)
	require.NotNil(t, jr)
	assert.Equal(t, models.JoinAccepted, jr.Status)
}

func TestRejectNeverCreatesMember(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	reqID := f.inviteAndAccept(t, pm1, u1)

	events, err := f.svc.Reject(ctx, pm1, f.project.ProjectID, reqID)
	require.NoError(t, err)
	f.dispatch(events)

	member, err := f.store.TeamMembers().IsMember(ctx, f.project.ProjectID, u1.UserID)
	require.NoError(t, err)
	assert.False(t, member)
	assert.Empty(t, f.alerts(t, "pm1"))

	_, err = f.svc.Reject(ctx, pm1, f.project.ProjectID, reqID)
	assert.Equal(t, apperr.KindNotFound, kindOf(err))

	_, _, err = f.svc.Approve(ctx, pm1, f.project.ProjectID, reqID)
	assert.Equal(t, apperr.KindInvalid, kindOf(err))
}

func TestRemoveMemberAllowsRejoin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	reqID := f.inviteAndAccept(t, pm1, u1)
	_, _, err := f.svc.Approve(ctx, pm1, f.project.ProjectID, reqID)
	require.NoError(t, err)

	require.NoError(t, f.svc.RemoveMember(ctx, pm1, f.project.ProjectID, u1.UserID))
	err = f.svc.RemoveMember(ctx, pm1, f.project.ProjectID, u1.UserID)
	assert.Equal(t, apperr.KindNotFound, kindOf(err))

	reqID = f.inviteAndAccept(t, pm1, u1)
	_, _, err = f.svc.Approve(ctx, pm1, f.project.ProjectID, reqID)
	assert.NoError(t, err)
}

func TestAssignPMBackfillsRoster(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	reqID := f.inviteAndAccept(t, pm1, u1)
	m, _, err := f.svc.Approve(ctx, pm1, f.project.ProjectID, reqID)
	require.NoError(t, err)
	assert.Nil(t, m.PMID, "no PM yet, so the roster row has none")

	p, err := f.svc.AssignPM(ctx, pm2, f.project.ProjectID)
	require.NoError(t, err)
	assert.True(t, p.ManagedBy("pm2"))
	assert.Equal(t, models.StatusReview, p.Status)

	n, err := f.store.TeamMembers().SyncPM(ctx, f.project.ProjectID, "pm2", "pm2")
	require.NoError(t, err)
	assert.Zero(t, n, "AssignPM already pointed every row at pm2")

	_, err = f.svc.AssignPM(ctx, pm1, 9999)
	assert.Equal(t, apperr.KindNotFound, kindOf(err))
}

func TestRemovePMScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.AssignPM(ctx, pm1, f.project.ProjectID)
	require.NoError(t, err)
	status := models.StatusInProgress
	_, _, err = f.svc.UpdateProject(ctx, pm1, f.project.ProjectID, ProjectUpdate{Status: &status})
	require.NoError(t, err)

	reqID := f.inviteAndAccept(t, pm1, u1)
	_, _, err = f.svc.Approve(ctx, pm1, f.project.ProjectID, reqID)
	require.NoError(t, err)

	// A finished project keeps its PM.
	done, err := f.svc.CreateProject(ctx, admin, NewProject{ClientID: "client1", Title: "완료된 건"})
	require.NoError(t, err)
	_, err = f.svc.AssignPM(ctx, pm1, done.ProjectID)
	require.NoError(t, err)
	doneStatus := models.StatusDone
	_, _, err = f.svc.UpdateProject(ctx, pm1, done.ProjectID, ProjectUpdate{Status: &doneStatus})
	require.NoError(t, err)

	_, err = f.svc.RemovePM(ctx, pm2, "pm1")
	assert.Equal(t, apperr.KindForbidden, kindOf(err))

	n, err := f.svc.RemovePM(ctx, admin, "pm1")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	p, err := f.store.Projects().GetByID(ctx, f.project.ProjectID)
	require.NoError(t, err)
	assert.Nil(t, p.PMID)
	assert.Equal(t, models.StatusUnassigned, p.Status)

	kept, err := f.store.Projects().GetByID(ctx, done.ProjectID)
	require.NoError(t, err)
	assert.True(t, kept.ManagedBy("pm1"))

	active, err := f.store.Projects().HasActiveForPM(ctx, "pm1")
	require.NoError(t, err)
	assert.False(t, active)

	cleared, err := f.store.TeamMembers().ClearPM(ctx, "pm1", "admin")
	require.NoError(t, err)
	assert.Zero(t, cleared, "no roster row still references pm1")

	u, err := f.store.Users().GetByID(ctx, "pm1")
	require.NoError(t, err)
	assert.Equal(t, rbac.RoleMember, u.Role)
	assert.Contains(t, f.invalidator.users, "pm1")

	// Another PM picking the project up repoints the orphaned roster.
	_, err = f.svc.AssignPM(ctx, pm2, f.project.ProjectID)
	require.NoError(t, err)
	projects, err := f.store.Projects().List(ctx, repository.ProjectFilter{PMID: "pm2"})
	require.NoError(t, err)
	assert.Len(t, projects, 1)
}

func TestChangeRoleBlocksPMWithActiveProjects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.AssignPM(ctx, pm1, f.project.ProjectID)
	require.NoError(t, err)

	err = f.svc.ChangeRole(ctx, pm2, "pm1", rbac.RoleMember)
	assert.Equal(t, apperr.KindForbidden, kindOf(err))

	err = f.svc.ChangeRole(ctx, admin, "pm1", rbac.RoleMember)
	require.Error(t, err)
	assert.Equal(t, apperr.KindConflict, kindOf(err))
	assert.Contains(t, err.Error(), MsgOwnsProjects)

	// Promotion to admin keeps the ability to manage, so it is allowed.
	require.NoError(t, f.svc.ChangeRole(ctx, admin, "pm1", rbac.RoleAdmin))

	err = f.svc.ChangeRole(ctx, admin, "u1", rbac.Role("R09"))
	assert.Equal(t, apperr.KindInvalid, kindOf(err))

	require.NoError(t, f.svc.ChangeRole(ctx, admin, "u1", rbac.RolePM))
	u, err := f.store.Users().GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, rbac.RolePM, u.Role)
	assert.Contains(t, f.invalidator.users, "u1")
}

func TestSetUserDeleted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.SetUserDeleted(ctx, pm1, "u2", true))
	_, _, err := f.svc.Invite(ctx, pm1, f.project.ProjectID, "u2")
	assert.Equal(t, apperr.KindNotFound, kindOf(err))

	require.NoError(t, f.svc.SetUserDeleted(ctx, pm1, "u2", false))
	_, _, err = f.svc.Invite(ctx, pm1, f.project.ProjectID, "u2")
	assert.NoError(t, err)

	err = f.svc.SetUserDeleted(ctx, pm1, "ghost", true)
	assert.Equal(t, apperr.KindNotFound, kindOf(err))
	err = f.svc.SetUserDeleted(ctx, u1, "u2", true)
	assert.Equal(t, apperr.KindForbidden, kindOf(err))
}

func TestCreateProject(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := f.svc.CreateProject(ctx, client, NewProject{ClientID: "someone-else", Title: " 앱 "})
	require.NoError(t, err)
	assert.Equal(t, "client1", p.ClientID, "clients always own what they create")
	assert.Equal(t, "앱", p.Title)
	assert.Equal(t, models.StatusReview, p.Status)
	assert.Nil(t, p.PMID)

	_, err = f.svc.CreateProject(ctx, admin, NewProject{ClientID: "u1", Title: "x"})
	assert.Equal(t, apperr.KindInvalid, kindOf(err))

	_, err = f.svc.CreateProject(ctx, client, NewProject{Title: "  "})
	assert.Equal(t, apperr.KindInvalid, kindOf(err))

	_, err = f.svc.CreateProject(ctx, u1, NewProject{Title: "x"})
	assert.Equal(t, apperr.KindForbidden, kindOf(err))
}

func TestUpdateProjectNotifiesClient(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	progress := 40
	p, events, err := f.svc.UpdateProject(ctx, pm1, f.project.ProjectID, ProjectUpdate{Progress: &progress})
	require.NoError(t, err)
	assert.Equal(t, 40, p.Progress)
	assert.Empty(t, events)

	started := models.StatusInProgress
	_, events, err = f.svc.UpdateProject(ctx, pm1, f.project.ProjectID, ProjectUpdate{Status: &started})
	require.NoError(t, err)
	f.dispatch(events)

	alerts := f.alerts(t, "client1")
	require.Len(t, alerts, 1)
	assert.Equal(t, alertStarted, alerts[0].Message)
	assert.Equal(t, models.CategorySystem, alerts[0].Category)

	bad := 101
	_, _, err = f.svc.UpdateProject(ctx, pm1, f.project.ProjectID, ProjectUpdate{Progress: &bad})
	assert.Equal(t, apperr.KindInvalid, kindOf(err))

	unknown := models.ProjectStatus("W99")
	_, _, err = f.svc.UpdateProject(ctx, pm1, f.project.ProjectID, ProjectUpdate{Status: &unknown})
	assert.Equal(t, apperr.KindInvalid, kindOf(err))

	_, _, err = f.svc.UpdateProject(ctx, pm1, f.project.ProjectID, ProjectUpdate{})
	assert.Equal(t, apperr.KindInvalid, kindOf(err))

	_, _, err = f.svc.UpdateProject(ctx, pm1, 9999, ProjectUpdate{Status: &started})
	assert.Equal(t, apperr.KindNotFound, kindOf(err))
}

func TestDeleteProjectHidesInvites(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, _, err := f.svc.Invite(ctx, pm1, f.project.ProjectID, u1.UserID)
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteProject(ctx, pm1, f.project.ProjectID))

	mine, err := f.store.JoinRequests().ListByInvitee(ctx, u1.UserID)
	require.NoError(t, err)
	assert.Empty(t, mine)

	err = f.svc.DeleteProject(ctx, pm1, f.project.ProjectID)
	assert.Equal(t, apperr.KindNotFound, kindOf(err))
}

func TestDismissOnlyTouchesOwnAlerts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, events, err := f.svc.Invite(ctx, pm1, f.project.ProjectID, u1.UserID)
	require.NoError(t, err)
	f.dispatch(events)
	_, events, err = f.svc.Invite(ctx, pm1, f.project.ProjectID, u2.UserID)
	require.NoError(t, err)
	f.dispatch(events)

	mine := f.alerts(t, "u1")
	require.Len(t, mine, 1)

	n, err := f.store.Alerts().Dismiss(ctx, mine[0].AlertID, "u2", false)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = f.store.Alerts().Dismiss(ctx, mine[0].AlertID, "u1", false)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	assert.Empty(t, f.alerts(t, "u1"))
	assert.Len(t, f.alerts(t, "u2"), 1)
}

func TestRespondOnDeletedProjectNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	jr, events, err := f.svc.Invite(ctx, pm1, f.project.ProjectID, u1.UserID)
	require.NoError(t, err)
	f.dispatch(events)
	require.NoError(t, f.svc.DeleteProject(ctx, pm1, f.project.ProjectID))

	_, _, err = f.svc.Respond(ctx, u1, jr.RequestID, true)
	assert.Equal(t, apperr.KindNotFound, kindOf(err))
	assert.Empty(t, f.alerts(t, "pm1"), "no approval request for a deleted project")

	invites, err := f.store.JoinRequests().ListByProject(ctx, f.project.ProjectID, "")
	require.NoError(t, err)
	assert.Empty(t, invites)
}

// withTeam puts u1 on the roster with pm1 as the project's PM.
func (f *fixture) withTeam(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	_, err := f.svc.AssignPM(ctx, pm1, f.project.ProjectID)
	require.NoError(t, err)
	requestID := f.inviteAndAccept(t, pm1, u1)
	_, events, err := f.svc.Approve(ctx, pm1, f.project.ProjectID, requestID)
	require.NoError(t, err)
	f.dispatch(events)
	for _, a := range f.alerts(t, "pm1") {
		_, err := f.store.Alerts().Dismiss(ctx, a.AlertID, "pm1", false)
		require.NoError(t, err)
	}
}

func TestNoticeAlertsEveryTeamMember(t *testing.T) {
	f := newFixture(t)
	f.withTeam(t)
	ctx := context.Background()

	_, _, err := f.svc.CreatePost(ctx, u1, f.project.ProjectID, NewPost{Board: models.BoardNotice, Title: "t", Content: "c"})
	assert.Equal(t, apperr.KindForbidden, kindOf(err), "members cannot post notices")

	post, events, err := f.svc.CreatePost(ctx, pm1, f.project.ProjectID, NewPost{Board: models.BoardNotice, Title: "공지", Content: "내일 회의"})
	require.NoError(t, err)
	f.dispatch(events)
	assert.Empty(t, post.MemberID)

	alerts := f.alerts(t, "u1")
	require.Len(t, alerts, 1)
	assert.Equal(t, models.CategoryChat, alerts[0].Category)
	assert.Equal(t, f.project.ProjectID, alerts[0].ValueID)
	assert.Empty(t, f.alerts(t, "pm1"))

	posts, err := f.svc.ListPosts(ctx, u1, f.project.ProjectID, Thread{Board: models.BoardNotice})
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "pm1닉", posts[0].Nickname)

	_, err = f.svc.ListPosts(ctx, u2, f.project.ProjectID, Thread{Board: models.BoardNotice})
	assert.Equal(t, apperr.KindForbidden, kindOf(err), "outsiders cannot read the board")

	events, err = f.svc.MarkChannelRead(ctx, u1, f.project.ProjectID)
	require.NoError(t, err)
	f.dispatch(events)
	assert.Empty(t, f.alerts(t, "u1"))
}

func TestDirectThreadAlertsTheOtherSide(t *testing.T) {
	f := newFixture(t)
	f.withTeam(t)
	ctx := context.Background()

	// A member writes to their own thread without naming it.
	post, events, err := f.svc.CreatePost(ctx, u1, f.project.ProjectID, NewPost{Board: models.BoardDirect, Title: "질문", Content: "일정 문의"})
	require.NoError(t, err)
	f.dispatch(events)
	assert.Equal(t, "u1", post.MemberID)

	pmAlerts := f.alerts(t, "pm1")
	require.Len(t, pmAlerts, 1)
	assert.Contains(t, pmAlerts[0].Message, "u1닉")

	_, events, err = f.svc.CreatePost(ctx, pm1, f.project.ProjectID, NewPost{Board: models.BoardDirect, MemberID: "u1", Title: "답변", Content: "다음 주"})
	require.NoError(t, err)
	f.dispatch(events)
	assert.Len(t, f.alerts(t, "u1"), 1)

	_, _, err = f.svc.CreatePost(ctx, pm1, f.project.ProjectID, NewPost{Board: models.BoardDirect, MemberID: "u2", Title: "t", Content: "c"})
	assert.Equal(t, apperr.KindNotFound, kindOf(err), "u2 is not on the team")

	_, err = f.svc.ListPosts(ctx, u2, f.project.ProjectID, Thread{Board: models.BoardDirect, MemberID: "u1"})
	assert.Equal(t, apperr.KindForbidden, kindOf(err))

	thread, err := f.svc.ListPosts(ctx, pm1, f.project.ProjectID, Thread{Board: models.BoardDirect, MemberID: "u1"})
	require.NoError(t, err)
	assert.Len(t, thread, 2)

	_, err = f.svc.GetPost(ctx, u2, post.ChannelID)
	assert.Equal(t, apperr.KindForbidden, kindOf(err))
}

func TestPostEditAndDelete(t *testing.T) {
	f := newFixture(t)
	f.withTeam(t)
	ctx := context.Background()

	post, _, err := f.svc.CreatePost(ctx, u1, f.project.ProjectID, NewPost{Board: models.BoardDirect, Title: "초안", Content: "c"})
	require.NoError(t, err)

	_, err = f.svc.UpdatePost(ctx, pm1, post.ChannelID, "바꿈", "c")
	assert.Equal(t, apperr.KindForbidden, kindOf(err), "only the author edits")

	updated, err := f.svc.UpdatePost(ctx, u1, post.ChannelID, "수정본", "c2")
	require.NoError(t, err)
	assert.Equal(t, "수정본", updated.Title)

	_, err = f.svc.UpdatePost(ctx, u1, post.ChannelID, " ", "c2")
	assert.Equal(t, apperr.KindInvalid, kindOf(err))

	require.NoError(t, f.svc.DeletePost(ctx, pm1, post.ChannelID), "managers moderate")
	_, err = f.svc.GetPost(ctx, u1, post.ChannelID)
	assert.Equal(t, apperr.KindNotFound, kindOf(err))
}

func TestAskLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, _, err := f.svc.SubmitAsk(ctx, models.Ask{Username: "홍길동", Company: "회사"})
	assert.Equal(t, apperr.KindInvalid, kindOf(err))

	ask, events, err := f.svc.SubmitAsk(ctx, models.Ask{
		Username: "홍길동", Company: "회사", Phone: "010-0000-0000",
		Email: "h@example.com", Description: "견적 문의", Categories: []string{"웹", "앱"},
	})
	require.NoError(t, err)
	f.dispatch(events)

	channel, err := f.store.Alerts().ListFor(ctx, "pm2", true)
	require.NoError(t, err)
	require.Len(t, channel, 1)
	assert.Equal(t, models.CategoryAsk, channel[0].Category)
	assert.Equal(t, ask.AskID, channel[0].ValueID)

	_, err = f.svc.ListAsks(ctx, u1)
	assert.Equal(t, apperr.KindForbidden, kindOf(err))

	open, err := f.svc.ListAsks(ctx, pm1)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, []string{"웹", "앱"}, open[0].Categories)

	events, err = f.svc.CheckAsk(ctx, pm1, ask.AskID)
	require.NoError(t, err)
	f.dispatch(events)

	channel, err = f.store.Alerts().ListFor(ctx, "pm2", true)
	require.NoError(t, err)
	assert.Empty(t, channel, "checking retires the alert for every PM")

	_, err = f.svc.CheckAsk(ctx, pm1, ask.AskID)
	assert.Equal(t, apperr.KindNotFound, kindOf(err))
}
