// Package memory is an in-process repository.Store. It backs STORAGE=memory
// for local runs and the workflow and API tests.
package memory

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/nayeon729/humanmakehub/internal/models"
	"github.com/nayeon729/humanmakehub/internal/repository"
)

type state struct {
	mu sync.Mutex

	users    map[string]models.User
	projects map[int64]models.Project
	requests map[int64]models.JoinRequest
	members  map[int64]models.TeamMember
	alerts   map[int64]models.Alert
	posts    map[int64]models.ChannelPost
	asks     map[int64]models.Ask

	lastID int64
	now    func() time.Time
}

func (st *state) nextID() int64 {
	st.lastID++
	return st.lastID
}

func (st *state) snapshot() *state {
	return &state{
		users:    maps.Clone(st.users),
		projects: maps.Clone(st.projects),
		requests: maps.Clone(st.requests),
		members:  maps.Clone(st.members),
		alerts:   maps.Clone(st.alerts),
		posts:    maps.Clone(st.posts),
		asks:     maps.Clone(st.asks),
		lastID:   st.lastID,
	}
}

func (st *state) restore(snap *state) {
	st.users = snap.users
	st.projects = snap.projects
	st.requests = snap.requests
	st.members = snap.members
	st.alerts = snap.alerts
	st.posts = snap.posts
	st.asks = snap.asks
	st.lastID = snap.lastID
}

// Store is safe for concurrent use. InTx holds the lock for the whole
// callback, so transactions are serialized and roll back on error.
type Store struct {
	st   *state
	inTx bool
}

func NewStore() *Store {
	return &Store{st: &state{
		users:    make(map[string]models.User),
		projects: make(map[int64]models.Project),
		requests: make(map[int64]models.JoinRequest),
		members:  make(map[int64]models.TeamMember),
		alerts:   make(map[int64]models.Alert),
		posts:    make(map[int64]models.ChannelPost),
		asks:     make(map[int64]models.Ask),
		now:      time.Now,
	}}
}

// do runs fn under the lock, or directly when already inside InTx.
func (s *Store) do(fn func(st *state)) {
	if s.inTx {
		fn(s.st)
		return
	}
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	fn(s.st)
}

func (s *Store) Users() repository.UserRepository               { return &userRepo{s} }
func (s *Store) Projects() repository.ProjectRepository         { return &projectRepo{s} }
func (s *Store) JoinRequests() repository.JoinRequestRepository { return &joinRequestRepo{s} }
func (s *Store) TeamMembers() repository.TeamMemberRepository   { return &teamMemberRepo{s} }
func (s *Store) Alerts() repository.AlertRepository             { return &alertRepo{s} }
func (s *Store) Channel() repository.ChannelRepository          { return &channelRepo{s} }
func (s *Store) Asks() repository.AskRepository                 { return &askRepo{s} }

func (s *Store) InTx(ctx context.Context, fn func(tx repository.Store) error) error {
	if s.inTx {
		return fn(s)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.st.mu.Lock()
	defer s.st.mu.Unlock()

	snap := s.st.snapshot()
	if err := fn(&Store{st: s.st, inTx: true}); err != nil {
		s.st.restore(snap)
		return err
	}
	return nil
}
