package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/nayeon729/humanmakehub/internal/models"
)

type JoinRequestStore struct {
	db DBTX
}

func NewJoinRequestStore(db DBTX) *JoinRequestStore {
	return &JoinRequestStore{db: db}
}

const joinRequestColumns = `jr.request_id, jr.project_id, jr.user_id, jr.pm_id, jr.status,
	jr.checking = 'Y', jr.del_yn = 'Y', jr.create_dt`

func joinRequestDest(r *models.JoinRequest) []any {
	return []any{
		&r.RequestID,
		&r.ProjectID,
		&r.UserID,
		&r.PMID,
		&r.Status,
		&r.Responded,
		&r.Deleted,
		&r.CreatedAt,
	}
}

func (s *JoinRequestStore) Create(ctx context.Context, projectID int64, userID, pmID string) (*models.JoinRequest, error) {
	query := `
		INSERT INTO join_requests AS jr (project_id, user_id, pm_id, status, checking)
		VALUES ($1, $2, $3, 'pending', 'N')
		RETURNING ` + joinRequestColumns

	var r models.JoinRequest
	if err := s.db.QueryRow(ctx, query, projectID, userID, pmID).Scan(joinRequestDest(&r)...); err != nil {
		return nil, fmt.Errorf("insert join request: %w", err)
	}
	return &r, nil
}

func (s *JoinRequestStore) HasOpen(ctx context.Context, projectID int64, userID, pmID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM join_requests
			WHERE project_id = $1 AND user_id = $2 AND pm_id = $3
			  AND checking = 'N' AND del_yn = 'N'
		)`

	var exists bool
	if err := s.db.QueryRow(ctx, query, projectID, userID, pmID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check open invite: %w", err)
	}
	return exists, nil
}

func (s *JoinRequestStore) GetForInvitee(ctx context.Context, requestID int64, userID string) (*models.JoinRequest, error) {
	query := `SELECT ` + joinRequestColumns + ` FROM join_requests jr
		JOIN project p ON p.project_id = jr.project_id
		WHERE jr.request_id = $1 AND jr.user_id = $2 AND jr.del_yn = 'N'
		  AND p.del_yn = 'N'
		FOR UPDATE OF jr`

	return s.getOne(ctx, query, requestID, userID)
}

func (s *JoinRequestStore) GetForProject(ctx context.Context, requestID, projectID int64) (*models.JoinRequest, error) {
	// FOR UPDATE serializes concurrent approvals of the same request: the
	// second one waits, then sees del_yn = 'Y' and gets no row.
	query := `SELECT ` + joinRequestColumns + ` FROM join_requests jr
		WHERE jr.request_id = $1 AND jr.project_id = $2 AND jr.del_yn = 'N'
		FOR UPDATE`

	return s.getOne(ctx, query, requestID, projectID)
}

func (s *JoinRequestStore) getOne(ctx context.Context, query string, args ...any) (*models.JoinRequest, error) {
	var r models.JoinRequest
	if err := s.db.QueryRow(ctx, query, args...).Scan(joinRequestDest(&r)...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get join request: %w", err)
	}
	return &r, nil
}

func (s *JoinRequestStore) Respond(ctx context.Context, requestID int64, status models.JoinRequestStatus, actor string) error {
	query := `
		UPDATE join_requests
		SET checking = 'Y', status = $2, update_id = $3, update_dt = NOW()
		WHERE request_id = $1`

	if _, err := s.db.Exec(ctx, query, requestID, string(status), actor); err != nil {
		return fmt.Errorf("respond join request: %w", err)
	}
	return nil
}

func (s *JoinRequestStore) Resolve(ctx context.Context, requestID int64, status models.JoinRequestStatus, actor string) error {
	query := `
		UPDATE join_requests
		SET status = $2, del_yn = 'Y', update_id = $3, update_dt = NOW()
		WHERE request_id = $1`

	if _, err := s.db.Exec(ctx, query, requestID, string(status), actor); err != nil {
		return fmt.Errorf("resolve join request: %w", err)
	}
	return nil
}

func (s *JoinRequestStore) ListByProject(ctx context.Context, projectID int64, pmID string) ([]models.InviteView, error) {
	query := `
		SELECT ` + joinRequestColumns + `, u.nickname, p.title
		FROM join_requests jr
		JOIN users u ON u.user_id = jr.user_id
		JOIN project p ON p.project_id = jr.project_id
		WHERE jr.project_id = $1 AND ($2 = '' OR jr.pm_id = $2)
		  AND jr.del_yn = 'N' AND jr.status <> 'rejected' AND p.del_yn = 'N'
		ORDER BY jr.create_dt DESC, jr.request_id DESC`

	return s.listViews(ctx, query, projectID, pmID)
}

func (s *JoinRequestStore) ListByInvitee(ctx context.Context, userID string) ([]models.InviteView, error) {
	query := `
		SELECT ` + joinRequestColumns + `, u.nickname, p.title
		FROM join_requests jr
		JOIN users u ON u.user_id = jr.pm_id
		JOIN project p ON p.project_id = jr.project_id
		WHERE jr.user_id = $1
		  AND jr.del_yn = 'N' AND jr.status <> 'rejected' AND p.del_yn = 'N'
		ORDER BY jr.create_dt DESC, jr.request_id DESC`

	return s.listViews(ctx, query, userID)
}

func (s *JoinRequestStore) listViews(ctx context.Context, query string, args ...any) ([]models.InviteView, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list join requests: %w", err)
	}
	defer rows.Close()

	views := make([]models.InviteView, 0)
	for rows.Next() {
		var v models.InviteView
		dest := append(joinRequestDest(&v.JoinRequest), &v.Nickname, &v.ProjectTitle)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan join request: %w", err)
		}
		views = append(views, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate join requests: %w", err)
	}
	return views, nil
}
