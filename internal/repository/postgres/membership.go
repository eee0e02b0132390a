package postgres

import (
	"context"
	"fmt"

	"github.com/nayeon729/humanmakehub/internal/apperr"
	"github.com/nayeon729/humanmakehub/internal/models"
)

type TeamMemberStore struct {
	db DBTX
}

func NewTeamMemberStore(db DBTX) *TeamMemberStore {
	return &TeamMemberStore{db: db}
}

func (s *TeamMemberStore) Add(ctx context.Context, projectID int64, userID string, pmID *string, actor string) (*models.TeamMember, error) {
	// uq_team_member_active rejects a second active row, so two approvals
	// racing on different requests for the same user cannot both land.
	query := `
		INSERT INTO team_member (project_id, user_id, pm_id, create_id)
		VALUES ($1, $2, $3, $4)
		RETURNING team_member_id, project_id, user_id, pm_id, del_yn = 'Y', create_dt`

	var m models.TeamMember
	err := s.db.QueryRow(ctx, query, projectID, userID, pmID, actor).Scan(
		&m.TeamMemberID,
		&m.ProjectID,
		&m.UserID,
		&m.PMID,
		&m.Deleted,
		&m.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperr.Conflict(apperr.MsgAlreadyOnTeam)
		}
		return nil, fmt.Errorf("add team member: %w", err)
	}
	return &m, nil
}

func (s *TeamMemberStore) IsMember(ctx context.Context, projectID int64, userID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM team_member
			WHERE project_id = $1 AND user_id = $2 AND del_yn = 'N'
		)`

	var exists bool
	if err := s.db.QueryRow(ctx, query, projectID, userID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check membership: %w", err)
	}
	return exists, nil
}

func (s *TeamMemberStore) Roster(ctx context.Context, projectID int64) ([]models.RosterEntry, error) {
	query := `
		SELECT tm.user_id, u.nickname, tm.team_member_id
		FROM team_member tm
		JOIN users u ON u.user_id = tm.user_id
		WHERE tm.project_id = $1 AND tm.del_yn = 'N'
		ORDER BY tm.create_dt, tm.team_member_id`

	rows, err := s.db.Query(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("list roster: %w", err)
	}
	defer rows.Close()

	roster := make([]models.RosterEntry, 0)
	for rows.Next() {
		var e models.RosterEntry
		var id int64
		if err := rows.Scan(&e.UserID, &e.Nickname, &id); err != nil {
			return nil, fmt.Errorf("scan roster entry: %w", err)
		}
		e.TeamMemberID = &id
		roster = append(roster, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate roster: %w", err)
	}
	return roster, nil
}

func (s *TeamMemberStore) Remove(ctx context.Context, projectID int64, userID string, actor string) (bool, error) {
	query := `
		UPDATE team_member
		SET del_yn = 'Y', update_id = $3, update_dt = NOW()
		WHERE project_id = $1 AND user_id = $2 AND del_yn = 'N'`

	tag, err := s.db.Exec(ctx, query, projectID, userID, actor)
	if err != nil {
		return false, fmt.Errorf("remove team member: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *TeamMemberStore) SyncPM(ctx context.Context, projectID int64, pmID string, actor string) (int64, error) {
	query := `
		UPDATE team_member
		SET pm_id = $2, update_id = $3, update_dt = NOW()
		WHERE project_id = $1 AND del_yn = 'N' AND pm_id IS DISTINCT FROM $2`

	tag, err := s.db.Exec(ctx, query, projectID, pmID, actor)
	if err != nil {
		return 0, fmt.Errorf("sync roster pm: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (s *TeamMemberStore) ClearPM(ctx context.Context, pmID string, actor string) (int64, error) {
	query := `
		UPDATE team_member
		SET pm_id = NULL, update_id = $2, update_dt = NOW()
		WHERE pm_id = $1 AND del_yn = 'N'`

	tag, err := s.db.Exec(ctx, query, pmID, actor)
	if err != nil {
		return 0, fmt.Errorf("clear roster pm: %w", err)
	}
	return tag.RowsAffected(), nil
}
