package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/nayeon729/humanmakehub/internal/apperr"
	"github.com/nayeon729/humanmakehub/internal/models"
	"github.com/nayeon729/humanmakehub/internal/rbac"
)

type UserStore struct {
	db DBTX
}

func NewUserStore(db DBTX) *UserStore {
	return &UserStore{db: db}
}

const userColumns = `user_id, nickname, email, password_hash, role, del_yn = 'Y', create_dt`

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(
		&u.UserID,
		&u.Nickname,
		&u.Email,
		&u.PasswordHash,
		&u.Role,
		&u.Deleted,
		&u.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *UserStore) Create(ctx context.Context, u models.User) (*models.User, error) {
	query := `
		INSERT INTO users (user_id, nickname, email, password_hash, role)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + userColumns

	created, err := scanUser(s.db.QueryRow(ctx, query,
		u.UserID, u.Nickname, u.Email, u.PasswordHash, string(u.Role)))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperr.Conflict(apperr.MsgDuplicateUser)
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return created, nil
}

func (s *UserStore) GetByID(ctx context.Context, userID string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE user_id = $1`

	u, err := scanUser(s.db.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (s *UserStore) UpdateRole(ctx context.Context, userID string, role rbac.Role, actor string) (bool, error) {
	query := `
		UPDATE users
		SET role = $2, update_id = $3, update_dt = NOW()
		WHERE user_id = $1 AND del_yn = 'N'`

	tag, err := s.db.Exec(ctx, query, userID, string(role), actor)
	if err != nil {
		return false, fmt.Errorf("update role: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *UserStore) SetDeleted(ctx context.Context, userID string, deleted bool, actor string) (bool, error) {
	query := `
		UPDATE users
		SET del_yn = $2, update_id = $3, update_dt = NOW()
		WHERE user_id = $1`

	tag, err := s.db.Exec(ctx, query, userID, yn(deleted), actor)
	if err != nil {
		return false, fmt.Errorf("set user deleted: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
