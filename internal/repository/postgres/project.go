package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/nayeon729/humanmakehub/internal/models"
	"github.com/nayeon729/humanmakehub/internal/repository"
)

type ProjectStore struct {
	db DBTX
}

func NewProjectStore(db DBTX) *ProjectStore {
	return &ProjectStore{db: db}
}

const projectColumns = `p.project_id, p.client_id, p.pm_id, p.title, p.description, p.category,
	p.status, p.progress, p.del_yn = 'Y', p.create_dt`

func scanProject(row pgx.Row) (*models.Project, error) {
	var p models.Project
	err := row.Scan(
		&p.ProjectID,
		&p.ClientID,
		&p.PMID,
		&p.Title,
		&p.Description,
		&p.Category,
		&p.Status,
		&p.Progress,
		&p.Deleted,
		&p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *ProjectStore) Create(ctx context.Context, p models.Project, actor string) (*models.Project, error) {
	query := `
		INSERT INTO project AS p (client_id, title, description, category, status, progress, create_id)
		VALUES ($1, $2, $3, $4, 'W01', 0, $5)
		RETURNING ` + projectColumns

	created, err := scanProject(s.db.QueryRow(ctx, query,
		p.ClientID, p.Title, p.Description, p.Category, actor))
	if err != nil {
		return nil, fmt.Errorf("insert project: %w", err)
	}
	return created, nil
}

func (s *ProjectStore) GetByID(ctx context.Context, projectID int64) (*models.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM project p WHERE p.project_id = $1 AND p.del_yn = 'N'`

	p, err := scanProject(s.db.QueryRow(ctx, query, projectID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get project: %w", err)
	}
	return p, nil
}

func (s *ProjectStore) List(ctx context.Context, filter repository.ProjectFilter) ([]models.Project, error) {
	where := []string{"p.del_yn = 'N'"}
	args := make([]any, 0, 3)

	if filter.ClientID != "" {
		args = append(args, filter.ClientID)
		where = append(where, fmt.Sprintf("p.client_id = $%d", len(args)))
	}
	if filter.PMID != "" {
		args = append(args, filter.PMID)
		where = append(where, fmt.Sprintf("p.pm_id = $%d", len(args)))
	}
	if filter.MemberID != "" {
		args = append(args, filter.MemberID)
		where = append(where, fmt.Sprintf(`EXISTS (
			SELECT 1 FROM team_member tm
			WHERE tm.project_id = p.project_id AND tm.user_id = $%d AND tm.del_yn = 'N'
		)`, len(args)))
	}

	query := `SELECT ` + projectColumns + ` FROM project p
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY p.create_dt DESC, p.project_id DESC`

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	projects := make([]models.Project, 0)
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate projects: %w", err)
	}
	return projects, nil
}

func (s *ProjectStore) AssignPM(ctx context.Context, projectID int64, pmID string, status models.ProjectStatus, actor string) (bool, error) {
	query := `
		UPDATE project
		SET pm_id = $2, status = $3, update_id = $4, update_dt = NOW()
		WHERE project_id = $1 AND del_yn = 'N'`

	tag, err := s.db.Exec(ctx, query, projectID, pmID, string(status), actor)
	if err != nil {
		return false, fmt.Errorf("assign pm: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *ProjectStore) UpdateStatus(ctx context.Context, projectID int64, status models.ProjectStatus, actor string) (bool, error) {
	query := `
		UPDATE project
		SET status = $2, update_id = $3, update_dt = NOW()
		WHERE project_id = $1 AND del_yn = 'N'`

	tag, err := s.db.Exec(ctx, query, projectID, string(status), actor)
	if err != nil {
		return false, fmt.Errorf("update project status: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *ProjectStore) UpdateProgress(ctx context.Context, projectID int64, progress int, actor string) (bool, error) {
	query := `
		UPDATE project
		SET progress = $2, update_id = $3, update_dt = NOW()
		WHERE project_id = $1 AND del_yn = 'N'`

	tag, err := s.db.Exec(ctx, query, projectID, progress, actor)
	if err != nil {
		return false, fmt.Errorf("update project progress: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *ProjectStore) SoftDelete(ctx context.Context, projectID int64, actor string) (bool, error) {
	query := `
		UPDATE project
		SET del_yn = 'Y', update_id = $2, update_dt = NOW()
		WHERE project_id = $1 AND del_yn = 'N'`

	tag, err := s.db.Exec(ctx, query, projectID, actor)
	if err != nil {
		return false, fmt.Errorf("delete project: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *ProjectStore) HasActiveForPM(ctx context.Context, pmID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM project
			WHERE pm_id = $1 AND del_yn = 'N' AND status <> 'W03'
		)`

	var exists bool
	if err := s.db.QueryRow(ctx, query, pmID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check active projects: %w", err)
	}
	return exists, nil
}

func (s *ProjectStore) UnassignPM(ctx context.Context, pmID string, actor string) (int64, error) {
	query := `
		UPDATE project
		SET pm_id = NULL, status = 'W04', update_id = $2, update_dt = NOW()
		WHERE pm_id = $1 AND del_yn = 'N' AND status <> 'W03'`

	tag, err := s.db.Exec(ctx, query, pmID, actor)
	if err != nil {
		return 0, fmt.Errorf("unassign pm: %w", err)
	}
	return tag.RowsAffected(), nil
}
