package memory

import (
	"context"
	"slices"

	"github.com/nayeon729/humanmakehub/internal/models"
	"github.com/nayeon729/humanmakehub/internal/repository"
)

type channelRepo struct{ s *Store }

func (r *channelRepo) Create(_ context.Context, p models.ChannelPost) (*models.ChannelPost, error) {
	r.s.do(func(st *state) {
		p.ChannelID = st.nextID()
		p.Deleted = false
		p.CreatedAt = st.now()
		p.Nickname = st.users[p.CreateID].Nickname
		st.posts[p.ChannelID] = p
	})
	return &p, nil
}

func (r *channelRepo) GetByID(_ context.Context, channelID int64) (*models.ChannelPost, error) {
	var out *models.ChannelPost
	r.s.do(func(st *state) {
		if p, ok := st.posts[channelID]; ok && !p.Deleted {
			p.Nickname = st.users[p.CreateID].Nickname
			out = &p
		}
	})
	return out, nil
}

func (r *channelRepo) List(_ context.Context, filter repository.ChannelFilter) ([]models.ChannelPost, error) {
	posts := make([]models.ChannelPost, 0)
	r.s.do(func(st *state) {
		for _, p := range st.posts {
			if p.Deleted || p.ProjectID != filter.ProjectID || p.Board != filter.Board {
				continue
			}
			if filter.Board == models.BoardDirect && p.MemberID != filter.MemberID {
				continue
			}
			p.Nickname = st.users[p.CreateID].Nickname
			posts = append(posts, p)
		}
	})
	slices.SortFunc(posts, func(a, b models.ChannelPost) int { return cmpDesc(a.ChannelID, b.ChannelID) })
	return posts, nil
}

func (r *channelRepo) Update(_ context.Context, channelID int64, title, content, _ string) (bool, error) {
	var ok bool
	r.s.do(func(st *state) {
		p, found := st.posts[channelID]
		if !found || p.Deleted {
			return
		}
		p.Title = title
		p.Content = content
		st.posts[channelID] = p
		ok = true
	})
	return ok, nil
}

func (r *channelRepo) SoftDelete(_ context.Context, channelID int64, _ string) (bool, error) {
	var ok bool
	r.s.do(func(st *state) {
		p, found := st.posts[channelID]
		if !found || p.Deleted {
			return
		}
		p.Deleted = true
		st.posts[channelID] = p
		ok = true
	})
	return ok, nil
}

type askRepo struct{ s *Store }

func (r *askRepo) Create(_ context.Context, a models.Ask) (*models.Ask, error) {
	r.s.do(func(st *state) {
		a.AskID = st.nextID()
		a.Checked = false
		a.CreatedAt = st.now()
		a.Categories = slices.Clone(a.Categories)
		st.asks[a.AskID] = a
	})
	return &a, nil
}

func (r *askRepo) ListOpen(_ context.Context) ([]models.Ask, error) {
	asks := make([]models.Ask, 0)
	r.s.do(func(st *state) {
		for _, a := range st.asks {
			if !a.Checked {
				asks = append(asks, a)
			}
		}
	})
	slices.SortFunc(asks, func(a, b models.Ask) int { return cmpDesc(b.AskID, a.AskID) })
	return asks, nil
}

func (r *askRepo) Check(_ context.Context, askID int64, _ string) (bool, error) {
	var ok bool
	r.s.do(func(st *state) {
		a, found := st.asks[askID]
		if !found || a.Checked {
			return
		}
		a.Checked = true
		st.asks[askID] = a
		ok = true
	})
	return ok, nil
}
