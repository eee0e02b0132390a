package postgres

import (
	"context"
	"fmt"

	"github.com/nayeon729/humanmakehub/internal/models"
)

type AlertStore struct {
	db DBTX
}

func NewAlertStore(db DBTX) *AlertStore {
	return &AlertStore{db: db}
}

const alertColumns = `alert_id, target_user, value_id, category, title, message, link,
	COALESCE(create_id, ''), del_yn = 'Y', create_dt`

func alertDest(a *models.Alert) []any {
	return []any{
		&a.AlertID,
		&a.TargetUser,
		&a.ValueID,
		&a.Category,
		&a.Title,
		&a.Message,
		&a.Link,
		&a.CreateID,
		&a.Deleted,
		&a.CreatedAt,
	}
}

func (s *AlertStore) Create(ctx context.Context, a models.Alert) (*models.Alert, error) {
	query := `
		INSERT INTO alerts (target_user, value_id, category, title, message, link, create_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + alertColumns

	var created models.Alert
	err := s.db.QueryRow(ctx, query,
		a.TargetUser, a.ValueID, a.Category, a.Title, a.Message, a.Link, a.CreateID,
	).Scan(alertDest(&created)...)
	if err != nil {
		return nil, fmt.Errorf("insert alert: %w", err)
	}
	return &created, nil
}

func (s *AlertStore) Retire(ctx context.Context, valueID int64, category string, actor string) (int64, error) {
	query := `
		UPDATE alerts
		SET del_yn = 'Y', update_id = $3, update_dt = NOW()
		WHERE value_id = $1 AND category = $2 AND del_yn = 'N'`

	tag, err := s.db.Exec(ctx, query, valueID, category, actor)
	if err != nil {
		return 0, fmt.Errorf("retire alerts: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (s *AlertStore) RetireFor(ctx context.Context, valueID int64, category, userID string) (int64, error) {
	query := `
		UPDATE alerts
		SET del_yn = 'Y', update_id = $3, update_dt = NOW()
		WHERE value_id = $1 AND category = $2 AND target_user = $3 AND del_yn = 'N'`

	tag, err := s.db.Exec(ctx, query, valueID, category, userID)
	if err != nil {
		return 0, fmt.Errorf("mark alerts read: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (s *AlertStore) ListFor(ctx context.Context, userID string, includeChannel bool) ([]models.Alert, error) {
	query := `
		SELECT ` + alertColumns + `
		FROM alerts
		WHERE del_yn = 'N' AND (target_user = $1 OR ($2 AND target_user = $3))
		ORDER BY create_dt DESC, alert_id DESC`

	rows, err := s.db.Query(ctx, query, userID, includeChannel, models.AdminChannel)
	if err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}
	defer rows.Close()

	alerts := make([]models.Alert, 0)
	for rows.Next() {
		var a models.Alert
		if err := rows.Scan(alertDest(&a)...); err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		alerts = append(alerts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate alerts: %w", err)
	}
	return alerts, nil
}

func (s *AlertStore) Dismiss(ctx context.Context, alertID int64, userID string, includeChannel bool) (int64, error) {
	query := `
		UPDATE alerts
		SET del_yn = 'Y', update_id = $2, update_dt = NOW()
		WHERE alert_id = $1 AND del_yn = 'N'
		  AND (target_user = $2 OR ($3 AND target_user = $4))`

	tag, err := s.db.Exec(ctx, query, alertID, userID, includeChannel, models.AdminChannel)
	if err != nil {
		return 0, fmt.Errorf("dismiss alert: %w", err)
	}
	return tag.RowsAffected(), nil
}
