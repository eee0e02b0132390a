package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/nayeon729/humanmakehub/internal/models"
	"github.com/nayeon729/humanmakehub/internal/repository"
)

type ChannelStore struct {
	db DBTX
}

func NewChannelStore(db DBTX) *ChannelStore {
	return &ChannelStore{db: db}
}

const channelColumns = `c.channel_id, c.project_id, c.board, c.member_id, c.title, c.content,
	c.create_id, COALESCE(u.nickname, ''), c.del_yn = 'Y', c.create_dt`

func channelDest(p *models.ChannelPost) []any {
	return []any{
		&p.ChannelID,
		&p.ProjectID,
		&p.Board,
		&p.MemberID,
		&p.Title,
		&p.Content,
		&p.CreateID,
		&p.Nickname,
		&p.Deleted,
		&p.CreatedAt,
	}
}

func (s *ChannelStore) Create(ctx context.Context, p models.ChannelPost) (*models.ChannelPost, error) {
	query := `
		WITH c AS (
			INSERT INTO project_channel (project_id, board, member_id, title, content, create_id)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING *
		)
		SELECT ` + channelColumns + `
		FROM c LEFT JOIN users u ON u.user_id = c.create_id`

	var created models.ChannelPost
	err := s.db.QueryRow(ctx, query,
		p.ProjectID, string(p.Board), p.MemberID, p.Title, p.Content, p.CreateID,
	).Scan(channelDest(&created)...)
	if err != nil {
		return nil, fmt.Errorf("insert channel post: %w", err)
	}
	return &created, nil
}

func (s *ChannelStore) GetByID(ctx context.Context, channelID int64) (*models.ChannelPost, error) {
	query := `
		SELECT ` + channelColumns + `
		FROM project_channel c LEFT JOIN users u ON u.user_id = c.create_id
		WHERE c.channel_id = $1 AND c.del_yn = 'N'`

	var p models.ChannelPost
	if err := s.db.QueryRow(ctx, query, channelID).Scan(channelDest(&p)...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get channel post: %w", err)
	}
	return &p, nil
}

func (s *ChannelStore) List(ctx context.Context, filter repository.ChannelFilter) ([]models.ChannelPost, error) {
	memberID := ""
	if filter.Board == models.BoardDirect {
		memberID = filter.MemberID
	}

	query := `
		SELECT ` + channelColumns + `
		FROM project_channel c LEFT JOIN users u ON u.user_id = c.create_id
		WHERE c.project_id = $1 AND c.board = $2 AND c.member_id = $3 AND c.del_yn = 'N'
		ORDER BY c.create_dt DESC, c.channel_id DESC`

	rows, err := s.db.Query(ctx, query, filter.ProjectID, string(filter.Board), memberID)
	if err != nil {
		return nil, fmt.Errorf("list channel posts: %w", err)
	}
	defer rows.Close()

	posts := make([]models.ChannelPost, 0)
	for rows.Next() {
		var p models.ChannelPost
		if err := rows.Scan(channelDest(&p)...); err != nil {
			return nil, fmt.Errorf("scan channel post: %w", err)
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate channel posts: %w", err)
	}
	return posts, nil
}

func (s *ChannelStore) Update(ctx context.Context, channelID int64, title, content, actor string) (bool, error) {
	query := `
		UPDATE project_channel
		SET title = $2, content = $3, update_id = $4, update_dt = NOW()
		WHERE channel_id = $1 AND del_yn = 'N'`

	tag, err := s.db.Exec(ctx, query, channelID, title, content, actor)
	if err != nil {
		return false, fmt.Errorf("update channel post: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *ChannelStore) SoftDelete(ctx context.Context, channelID int64, actor string) (bool, error) {
	query := `
		UPDATE project_channel
		SET del_yn = 'Y', update_id = $2, update_dt = NOW()
		WHERE channel_id = $1 AND del_yn = 'N'`

	tag, err := s.db.Exec(ctx, query, channelID, actor)
	if err != nil {
		return false, fmt.Errorf("delete channel post: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
