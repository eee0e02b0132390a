package postgres

import (
	"context"
	"fmt"

	"github.com/nayeon729/humanmakehub/internal/models"
)

type AskStore struct {
	db DBTX
}

func NewAskStore(db DBTX) *AskStore {
	return &AskStore{db: db}
}

const askColumns = `ask_id, username, company, phone, email, description, category,
	del_yn = 'Y', create_dt`

func askDest(a *models.Ask) []any {
	return []any{
		&a.AskID,
		&a.Username,
		&a.Company,
		&a.Phone,
		&a.Email,
		&a.Description,
		&a.Categories,
		&a.Checked,
		&a.CreatedAt,
	}
}

func (s *AskStore) Create(ctx context.Context, a models.Ask) (*models.Ask, error) {
	categories := a.Categories
	if categories == nil {
		categories = []string{}
	}

	query := `
		INSERT INTO ask (username, company, phone, email, description, category)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + askColumns

	var created models.Ask
	err := s.db.QueryRow(ctx, query,
		a.Username, a.Company, a.Phone, a.Email, a.Description, categories,
	).Scan(askDest(&created)...)
	if err != nil {
		return nil, fmt.Errorf("insert ask: %w", err)
	}
	return &created, nil
}

func (s *AskStore) ListOpen(ctx context.Context) ([]models.Ask, error) {
	query := `SELECT ` + askColumns + ` FROM ask WHERE del_yn = 'N' ORDER BY create_dt, ask_id`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list asks: %w", err)
	}
	defer rows.Close()

	asks := make([]models.Ask, 0)
	for rows.Next() {
		var a models.Ask
		if err := rows.Scan(askDest(&a)...); err != nil {
			return nil, fmt.Errorf("scan ask: %w", err)
		}
		asks = append(asks, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate asks: %w", err)
	}
	return asks, nil
}

func (s *AskStore) Check(ctx context.Context, askID int64, actor string) (bool, error) {
	query := `
		UPDATE ask
		SET del_yn = 'Y', update_id = $2, update_dt = NOW()
		WHERE ask_id = $1 AND del_yn = 'N'`

	tag, err := s.db.Exec(ctx, query, askID, actor)
	if err != nil {
		return false, fmt.Errorf("check ask: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
