package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nayeon729/humanmakehub/internal/repository"
)

// DBTX is what the stores need from a connection: *pgxpool.Pool and
// pgx.Tx both satisfy it.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store is the Postgres repository.Store. A Store made by InTx has no pool
// and runs nested InTx calls inside the outer transaction.
type Store struct {
	pool *pgxpool.Pool
	db   DBTX
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool, db: pool}
}

func (s *Store) Users() repository.UserRepository               { return NewUserStore(s.db) }
func (s *Store) Projects() repository.ProjectRepository         { return NewProjectStore(s.db) }
func (s *Store) JoinRequests() repository.JoinRequestRepository { return NewJoinRequestStore(s.db) }
func (s *Store) TeamMembers() repository.TeamMemberRepository   { return NewTeamMemberStore(s.db) }
func (s *Store) Alerts() repository.AlertRepository             { return NewAlertStore(s.db) }
func (s *Store) Channel() repository.ChannelRepository          { return NewChannelStore(s.db) }
func (s *Store) Asks() repository.AskRepository                 { return NewAskStore(s.db) }

func (s *Store) InTx(ctx context.Context, fn func(tx repository.Store) error) error {
	if s.pool == nil {
		return fn(s)
	}
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(&Store{db: tx})
	})
}

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func yn(b bool) string {
	if b {
		return "Y"
	}
	return "N"
}
