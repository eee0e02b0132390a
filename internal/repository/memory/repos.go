package memory

import (
	"context"
	"slices"

	"github.com/nayeon729/humanmakehub/internal/apperr"
	"github.com/nayeon729/humanmakehub/internal/models"
	"github.com/nayeon729/humanmakehub/internal/rbac"
	"github.com/nayeon729/humanmakehub/internal/repository"
)

// Rows are ordered by id: ids come from one counter, so a higher id is a
// newer row.

type userRepo struct{ s *Store }

func (r *userRepo) Create(_ context.Context, u models.User) (*models.User, error) {
	var taken bool
	r.s.do(func(st *state) {
		if _, taken = st.users[u.UserID]; taken {
			return
		}
		u.CreatedAt = st.now()
		st.users[u.UserID] = u
	})
	if taken {
		return nil, apperr.Conflict(apperr.MsgDuplicateUser)
	}
	return &u, nil
}

func (r *userRepo) GetByID(_ context.Context, userID string) (*models.User, error) {
	var out *models.User
	r.s.do(func(st *state) {
		if u, ok := st.users[userID]; ok {
			out = &u
		}
	})
	return out, nil
}

func (r *userRepo) UpdateRole(_ context.Context, userID string, role rbac.Role, _ string) (bool, error) {
	var ok bool
	r.s.do(func(st *state) {
		u, found := st.users[userID]
		if !found || u.Deleted {
			return
		}
		u.Role = role
		st.users[userID] = u
		ok = true
	})
	return ok, nil
}

func (r *userRepo) SetDeleted(_ context.Context, userID string, deleted bool, _ string) (bool, error) {
	var ok bool
	r.s.do(func(st *state) {
		u, found := st.users[userID]
		if !found {
			return
		}
		u.Deleted = deleted
		st.users[userID] = u
		ok = true
	})
	return ok, nil
}

type projectRepo struct{ s *Store }

func (r *projectRepo) Create(_ context.Context, p models.Project, _ string) (*models.Project, error) {
	r.s.do(func(st *state) {
		p.ProjectID = st.nextID()
		p.PMID = nil
		p.Status = models.StatusReview
		p.Progress = 0
		p.Deleted = false
		p.CreatedAt = st.now()
		st.projects[p.ProjectID] = p
	})
	return &p, nil
}

func (r *projectRepo) GetByID(_ context.Context, projectID int64) (*models.Project, error) {
	var out *models.Project
	r.s.do(func(st *state) {
		if p, ok := st.projects[projectID]; ok && !p.Deleted {
			out = &p
		}
	})
	return out, nil
}

func (r *projectRepo) List(_ context.Context, filter repository.ProjectFilter) ([]models.Project, error) {
	projects := make([]models.Project, 0)
	r.s.do(func(st *state) {
		for _, p := range st.projects {
			if p.Deleted {
				continue
			}
			if filter.ClientID != "" && p.ClientID != filter.ClientID {
				continue
			}
			if filter.PMID != "" && !p.ManagedBy(filter.PMID) {
				continue
			}
			if filter.MemberID != "" && !st.isMember(p.ProjectID, filter.MemberID) {
				continue
			}
			projects = append(projects, p)
		}
	})
	slices.SortFunc(projects, func(a, b models.Project) int { return cmpDesc(a.ProjectID, b.ProjectID) })
	return projects, nil
}

func (r *projectRepo) update(projectID int64, fn func(p *models.Project)) bool {
	var ok bool
	r.s.do(func(st *state) {
		p, found := st.projects[projectID]
		if !found || p.Deleted {
			return
		}
		fn(&p)
		st.projects[projectID] = p
		ok = true
	})
	return ok
}

func (r *projectRepo) AssignPM(_ context.Context, projectID int64, pmID string, status models.ProjectStatus, _ string) (bool, error) {
	return r.update(projectID, func(p *models.Project) {
		p.PMID = &pmID
		p.Status = status
	}), nil
}

func (r *projectRepo) UpdateStatus(_ context.Context, projectID int64, status models.ProjectStatus, _ string) (bool, error) {
	return r.update(projectID, func(p *models.Project) { p.Status = status }), nil
}

func (r *projectRepo) UpdateProgress(_ context.Context, projectID int64, progress int, _ string) (bool, error) {
	return r.update(projectID, func(p *models.Project) { p.Progress = progress }), nil
}

func (r *projectRepo) SoftDelete(_ context.Context, projectID int64, _ string) (bool, error) {
	return r.update(projectID, func(p *models.Project) { p.Deleted = true }), nil
}

func (r *projectRepo) HasActiveForPM(_ context.Context, pmID string) (bool, error) {
	var found bool
	r.s.do(func(st *state) {
		for _, p := range st.projects {
			if !p.Deleted && p.ManagedBy(pmID) && !p.Status.Terminal() {
				found = true
				return
			}
		}
	})
	return found, nil
}

func (r *projectRepo) UnassignPM(_ context.Context, pmID string, _ string) (int64, error) {
	var n int64
	r.s.do(func(st *state) {
		for id, p := range st.projects {
			if p.Deleted || !p.ManagedBy(pmID) || p.Status.Terminal() {
				continue
			}
			p.PMID = nil
			p.Status = models.StatusUnassigned
			st.projects[id] = p
			n++
		}
	})
	return n, nil
}

type joinRequestRepo struct{ s *Store }

func (r *joinRequestRepo) Create(_ context.Context, projectID int64, userID, pmID string) (*models.JoinRequest, error) {
	var jr models.JoinRequest
	r.s.do(func(st *state) {
		jr = models.JoinRequest{
			RequestID: st.nextID(),
			ProjectID: projectID,
			UserID:    userID,
			PMID:      pmID,
			Status:    models.JoinPending,
			CreatedAt: st.now(),
		}
		st.requests[jr.RequestID] = jr
	})
	return &jr, nil
}

func (r *joinRequestRepo) HasOpen(_ context.Context, projectID int64, userID, pmID string) (bool, error) {
	var found bool
	r.s.do(func(st *state) {
		for _, jr := range st.requests {
			if jr.ProjectID == projectID && jr.UserID == userID && jr.PMID == pmID &&
				!jr.Responded && !jr.Deleted {
				found = true
				return
			}
		}
	})
	return found, nil
}

func (r *joinRequestRepo) get(match func(st *state, jr models.JoinRequest) bool) *models.JoinRequest {
	var out *models.JoinRequest
	r.s.do(func(st *state) {
		for _, jr := range st.requests {
			if !jr.Deleted && match(st, jr) {
				out = &jr
				return
			}
		}
	})
	return out
}

func (r *joinRequestRepo) GetForInvitee(_ context.Context, requestID int64, userID string) (*models.JoinRequest, error) {
	return r.get(func(st *state, jr models.JoinRequest) bool {
		return jr.RequestID == requestID && jr.UserID == userID && st.projectLive(jr.ProjectID)
	}), nil
}

func (r *joinRequestRepo) GetForProject(_ context.Context, requestID, projectID int64) (*models.JoinRequest, error) {
	return r.get(func(_ *state, jr models.JoinRequest) bool {
		return jr.RequestID == requestID && jr.ProjectID == projectID
	}), nil
}

func (r *joinRequestRepo) Respond(_ context.Context, requestID int64, status models.JoinRequestStatus, _ string) error {
	r.s.do(func(st *state) {
		if jr, ok := st.requests[requestID]; ok {
			jr.Responded = true
			jr.Status = status
			st.requests[requestID] = jr
		}
	})
	return nil
}

func (r *joinRequestRepo) Resolve(_ context.Context, requestID int64, status models.JoinRequestStatus, _ string) error {
	r.s.do(func(st *state) {
		if jr, ok := st.requests[requestID]; ok {
			jr.Status = status
			jr.Deleted = true
			st.requests[requestID] = jr
		}
	})
	return nil
}

func (r *joinRequestRepo) ListByProject(_ context.Context, projectID int64, pmID string) ([]models.InviteView, error) {
	return r.list(func(st *state, jr models.JoinRequest) (string, bool) {
		if jr.ProjectID != projectID || (pmID != "" && jr.PMID != pmID) || !st.projectLive(jr.ProjectID) {
			return "", false
		}
		return st.users[jr.UserID].Nickname, true
	}), nil
}

func (r *joinRequestRepo) ListByInvitee(_ context.Context, userID string) ([]models.InviteView, error) {
	return r.list(func(st *state, jr models.JoinRequest) (string, bool) {
		if jr.UserID != userID {
			return "", false
		}
		if !st.projectLive(jr.ProjectID) {
			return "", false
		}
		return st.users[jr.PMID].Nickname, true
	}), nil
}

// list keeps visible, non-rejected requests accepted by match, which also
// picks the nickname to show.
func (r *joinRequestRepo) list(match func(st *state, jr models.JoinRequest) (string, bool)) []models.InviteView {
	views := make([]models.InviteView, 0)
	r.s.do(func(st *state) {
		for _, jr := range st.requests {
			if jr.Deleted || jr.Status == models.JoinRejected {
				continue
			}
			nickname, ok := match(st, jr)
			if !ok {
				continue
			}
			views = append(views, models.InviteView{
				JoinRequest:  jr,
				Nickname:     nickname,
				ProjectTitle: st.projects[jr.ProjectID].Title,
			})
		}
	})
	slices.SortFunc(views, func(a, b models.InviteView) int { return cmpDesc(a.RequestID, b.RequestID) })
	return views
}

type teamMemberRepo struct{ s *Store }

func (st *state) projectLive(projectID int64) bool {
	p, ok := st.projects[projectID]
	return ok && !p.Deleted
}

func (st *state) isMember(projectID int64, userID string) bool {
	for _, m := range st.members {
		if m.ProjectID == projectID && m.UserID == userID && !m.Deleted {
			return true
		}
	}
	return false
}

func (r *teamMemberRepo) Add(_ context.Context, projectID int64, userID string, pmID *string, _ string) (*models.TeamMember, error) {
	var m models.TeamMember
	var err error
	r.s.do(func(st *state) {
		if st.isMember(projectID, userID) {
			err = apperr.Conflict(apperr.MsgAlreadyOnTeam)
			return
		}
		m = models.TeamMember{
			TeamMemberID: st.nextID(),
			ProjectID:    projectID,
			UserID:       userID,
			PMID:         pmID,
			CreatedAt:    st.now(),
		}
		st.members[m.TeamMemberID] = m
	})
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *teamMemberRepo) IsMember(_ context.Context, projectID int64, userID string) (bool, error) {
	var ok bool
	r.s.do(func(st *state) { ok = st.isMember(projectID, userID) })
	return ok, nil
}

func (r *teamMemberRepo) Roster(_ context.Context, projectID int64) ([]models.RosterEntry, error) {
	var rows []models.TeamMember
	roster := make([]models.RosterEntry, 0)
	r.s.do(func(st *state) {
		for _, m := range st.members {
			if m.ProjectID == projectID && !m.Deleted {
				rows = append(rows, m)
			}
		}
		slices.SortFunc(rows, func(a, b models.TeamMember) int { return cmpDesc(b.TeamMemberID, a.TeamMemberID) })
		for _, m := range rows {
			id := m.TeamMemberID
			roster = append(roster, models.RosterEntry{
				UserID:       m.UserID,
				Nickname:     st.users[m.UserID].Nickname,
				TeamMemberID: &id,
			})
		}
	})
	return roster, nil
}

func (r *teamMemberRepo) Remove(_ context.Context, projectID int64, userID string, _ string) (bool, error) {
	var ok bool
	r.s.do(func(st *state) {
		for id, m := range st.members {
			if m.ProjectID == projectID && m.UserID == userID && !m.Deleted {
				m.Deleted = true
				st.members[id] = m
				ok = true
			}
		}
	})
	return ok, nil
}

func (r *teamMemberRepo) SyncPM(_ context.Context, projectID int64, pmID string, _ string) (int64, error) {
	var n int64
	r.s.do(func(st *state) {
		for id, m := range st.members {
			if m.ProjectID != projectID || m.Deleted || (m.PMID != nil && *m.PMID == pmID) {
				continue
			}
			m.PMID = &pmID
			st.members[id] = m
			n++
		}
	})
	return n, nil
}

func (r *teamMemberRepo) ClearPM(_ context.Context, pmID string, _ string) (int64, error) {
	var n int64
	r.s.do(func(st *state) {
		for id, m := range st.members {
			if m.Deleted || m.PMID == nil || *m.PMID != pmID {
				continue
			}
			m.PMID = nil
			st.members[id] = m
			n++
		}
	})
	return n, nil
}

type alertRepo struct{ s *Store }

func (r *alertRepo) Create(_ context.Context, a models.Alert) (*models.Alert, error) {
	r.s.do(func(st *state) {
		a.AlertID = st.nextID()
		a.Deleted = false
		a.CreatedAt = st.now()
		st.alerts[a.AlertID] = a
	})
	return &a, nil
}

func (r *alertRepo) Retire(_ context.Context, valueID int64, category string, _ string) (int64, error) {
	var n int64
	r.s.do(func(st *state) {
		for id, a := range st.alerts {
			if a.ValueID == valueID && a.Category == category && !a.Deleted {
				a.Deleted = true
				st.alerts[id] = a
				n++
			}
		}
	})
	return n, nil
}

func (r *alertRepo) RetireFor(_ context.Context, valueID int64, category, userID string) (int64, error) {
	var n int64
	r.s.do(func(st *state) {
		for id, a := range st.alerts {
			if a.ValueID == valueID && a.Category == category && a.TargetUser == userID && !a.Deleted {
				a.Deleted = true
				st.alerts[id] = a
				n++
			}
		}
	})
	return n, nil
}

func addressedTo(a models.Alert, userID string, includeChannel bool) bool {
	return a.TargetUser == userID || (includeChannel && a.TargetUser == models.AdminChannel)
}

func (r *alertRepo) ListFor(_ context.Context, userID string, includeChannel bool) ([]models.Alert, error) {
	alerts := make([]models.Alert, 0)
	r.s.do(func(st *state) {
		for _, a := range st.alerts {
			if !a.Deleted && addressedTo(a, userID, includeChannel) {
				alerts = append(alerts, a)
			}
		}
	})
	slices.SortFunc(alerts, func(a, b models.Alert) int { return cmpDesc(a.AlertID, b.AlertID) })
	return alerts, nil
}

func (r *alertRepo) Dismiss(_ context.Context, alertID int64, userID string, includeChannel bool) (int64, error) {
	var n int64
	r.s.do(func(st *state) {
		a, ok := st.alerts[alertID]
		if !ok || a.Deleted || !addressedTo(a, userID, includeChannel) {
			return
		}
		a.Deleted = true
		st.alerts[alertID] = a
		n = 1
	})
	return n, nil
}

func cmpDesc(a, b int64) int {
	switch {
	case a > b:
		return -1
	case a < b:
		return 1
	}
	return 0
}
