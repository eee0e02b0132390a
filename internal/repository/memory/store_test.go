package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/nayeon729/humanmakehub/internal/apperr"
	"github.com/nayeon729/humanmakehub/internal/models"
	"github.com/nayeon729/humanmakehub/internal/rbac"
	"github.com/nayeon729/humanmakehub/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T, s *Store) *models.Project {
	t.Helper()
	ctx := context.Background()
	for _, u := range []models.User{
		{UserID: "client1", Nickname: "클라", Role: rbac.RoleClient},
		{UserID: "pm1", Nickname: "피엠", Role: rbac.RolePM},
		{UserID: "dev1", Nickname: "개발", Role: rbac.RoleMember},
	} {
		_, err := s.Users().Create(ctx, u)
		require.NoError(t, err)
	}
	p, err := s.Projects().Create(ctx, models.Project{ClientID: "client1", Title: "앱 개발"}, "client1")
	require.NoError(t, err)
	return p
}

func TestInTxRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	p := seed(t, s)

	boom := errors.New("boom")
	err := s.InTx(ctx, func(tx repository.Store) error {
		_, err := tx.TeamMembers().Add(ctx, p.ProjectID, "dev1", nil, "pm1")
		require.NoError(t, err)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	ok, err := s.TeamMembers().IsMember(ctx, p.ProjectID, "dev1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAddRejectsSecondActiveRow(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	p := seed(t, s)

	_, err := s.TeamMembers().Add(ctx, p.ProjectID, "dev1", nil, "pm1")
	require.NoError(t, err)

	_, err = s.TeamMembers().Add(ctx, p.ProjectID, "dev1", nil, "pm1")
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	removed, err := s.TeamMembers().Remove(ctx, p.ProjectID, "dev1", "pm1")
	require.NoError(t, err)
	assert.True(t, removed)

	_, err = s.TeamMembers().Add(ctx, p.ProjectID, "dev1", nil, "pm1")
	assert.NoError(t, err, "a removed member can rejoin")
}

func TestListFiltersAndHidesDeleted(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	p := seed(t, s)
	other, err := s.Projects().Create(ctx, models.Project{ClientID: "client1", Title: "웹"}, "client1")
	require.NoError(t, err)

	_, err = s.Projects().AssignPM(ctx, p.ProjectID, "pm1", models.StatusReview, "pm1")
	require.NoError(t, err)
	_, err = s.TeamMembers().Add(ctx, other.ProjectID, "dev1", nil, "pm1")
	require.NoError(t, err)

	byPM, err := s.Projects().List(ctx, repository.ProjectFilter{PMID: "pm1"})
	require.NoError(t, err)
	require.Len(t, byPM, 1)
	assert.Equal(t, p.ProjectID, byPM[0].ProjectID)

	byMember, err := s.Projects().List(ctx, repository.ProjectFilter{MemberID: "dev1"})
	require.NoError(t, err)
	require.Len(t, byMember, 1)
	assert.Equal(t, other.ProjectID, byMember[0].ProjectID)

	all, err := s.Projects().List(ctx, repository.ProjectFilter{ClientID: "client1"})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, other.ProjectID, all[0].ProjectID, "newest first")

	_, err = s.Projects().SoftDelete(ctx, other.ProjectID, "client1")
	require.NoError(t, err)
	all, err = s.Projects().List(ctx, repository.ProjectFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestAlertChannelVisibility(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	direct, err := s.Alerts().Create(ctx, models.Alert{TargetUser: "pm1", Category: models.CategoryProject, Title: "a"})
	require.NoError(t, err)
	channel, err := s.Alerts().Create(ctx, models.Alert{TargetUser: models.AdminChannel, Category: models.CategoryAsk, Title: "b"})
	require.NoError(t, err)

	own, err := s.Alerts().ListFor(ctx, "pm1", false)
	require.NoError(t, err)
	assert.Len(t, own, 1)

	withChannel, err := s.Alerts().ListFor(ctx, "pm1", true)
	require.NoError(t, err)
	require.Len(t, withChannel, 2)
	assert.Equal(t, channel.AlertID, withChannel[0].AlertID)

	n, err := s.Alerts().Dismiss(ctx, channel.AlertID, "dev1", false)
	require.NoError(t, err)
	assert.Zero(t, n, "members cannot dismiss channel alerts")

	n, err = s.Alerts().Dismiss(ctx, direct.AlertID, "pm1", false)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestCreateUserRejectsTakenID(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	seed(t, s)

	_, err := s.Users().Create(ctx, models.User{UserID: "dev1", Nickname: "다른사람", PasswordHash: "x"})
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	u, err := s.Users().GetByID(ctx, "dev1")
	require.NoError(t, err)
	assert.Equal(t, "개발", u.Nickname, "existing account untouched")
}

func TestJoinRequestsHiddenWithDeletedProject(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	p := seed(t, s)

	jr, err := s.JoinRequests().Create(ctx, p.ProjectID, "dev1", "pm1")
	require.NoError(t, err)
	_, err = s.Projects().SoftDelete(ctx, p.ProjectID, "pm1")
	require.NoError(t, err)

	got, err := s.JoinRequests().GetForInvitee(ctx, jr.RequestID, "dev1")
	require.NoError(t, err)
	assert.Nil(t, got)

	views, err := s.JoinRequests().ListByProject(ctx, p.ProjectID, "pm1")
	require.NoError(t, err)
	assert.Empty(t, views)
}

func TestChannelThreads(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	p := seed(t, s)

	notice, err := s.Channel().Create(ctx, models.ChannelPost{ProjectID: p.ProjectID, Board: models.BoardNotice, Title: "공지", CreateID: "pm1"})
	require.NoError(t, err)
	assert.Equal(t, "피엠", notice.Nickname)
	_, err = s.Channel().Create(ctx, models.ChannelPost{ProjectID: p.ProjectID, Board: models.BoardDirect, MemberID: "dev1", Title: "질문", CreateID: "dev1"})
	require.NoError(t, err)

	notices, err := s.Channel().List(ctx, repository.ChannelFilter{ProjectID: p.ProjectID, Board: models.BoardNotice})
	require.NoError(t, err)
	assert.Len(t, notices, 1)

	direct, err := s.Channel().List(ctx, repository.ChannelFilter{ProjectID: p.ProjectID, Board: models.BoardDirect, MemberID: "dev1"})
	require.NoError(t, err)
	assert.Len(t, direct, 1)

	ok, err := s.Channel().SoftDelete(ctx, notice.ChannelID, "pm1")
	require.NoError(t, err)
	assert.True(t, ok)
	got, err := s.Channel().GetByID(ctx, notice.ChannelID)
	require.NoError(t, err)
	assert.Nil(t, got)
}
