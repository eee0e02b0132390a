package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/nayeon729/humanmakehub/internal/apperr"
	"github.com/nayeon729/humanmakehub/internal/models"
	"github.com/nayeon729/humanmakehub/internal/notify"
	"github.com/nayeon729/humanmakehub/internal/rbac"
	"github.com/nayeon729/humanmakehub/internal/repository"
	"go.uber.org/zap"
)

// NewPost is a channel post as submitted. MemberID picks the direct
// thread; members posting to their own thread may leave it empty.
type NewPost struct {
	Board    models.Board
	MemberID string
	Title    string
	Content  string
}

// Thread names one thread of a project's channel.
type Thread struct {
	Board    models.Board
	MemberID string
}

func manages(actor Actor) bool {
	return rbac.Can(actor.Role, rbac.ActionManageProject)
}

// resolveThread fills in the member of a direct thread and checks that
// actor may read it. Managers read every thread; members read the notice
// board of their projects and their own direct thread.
func resolveThread(ctx context.Context, tx repository.Store, actor Actor, projectID int64, th Thread) (Thread, error) {
	if !th.Board.Valid() {
		return th, apperr.Invalid(MsgInvalidBoard)
	}
	if th.Board == models.BoardNotice {
		th.MemberID = ""
	} else if th.MemberID == "" && !manages(actor) {
		th.MemberID = actor.UserID
	}
	if th.Board == models.BoardDirect && th.MemberID == "" {
		return th, apperr.Invalid(MsgMemberNotFound)
	}

	if manages(actor) {
		return th, nil
	}
	if th.Board == models.BoardDirect && th.MemberID != actor.UserID {
		return th, apperr.Forbidden(MsgNoChannelAccess)
	}
	member, err := tx.TeamMembers().IsMember(ctx, projectID, actor.UserID)
	if err != nil {
		return th, err
	}
	if !member {
		return th, apperr.Forbidden(MsgNoChannelAccess)
	}
	return th, nil
}

func liveProject(ctx context.Context, tx repository.Store, projectID int64) (*models.Project, error) {
	project, err := tx.Projects().GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, apperr.NotFound(MsgProjectNotFound)
	}
	return project, nil
}

// CreatePost writes to a project's channel. Only managers post notices,
// which alert every active team member. A direct post alerts the other
// side of the thread: the member, or the project's PM (the admin channel
// while the project has none).
func (s *Service) CreatePost(ctx context.Context, actor Actor, projectID int64, in NewPost) (*models.ChannelPost, []notify.Event, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" || strings.TrimSpace(in.Content) == "" {
		return nil, nil, apperr.Invalid(MsgPostRequired)
	}
	if in.Board == models.BoardNotice && !manages(actor) {
		return nil, nil, apperr.Forbidden(apperr.MsgAdminOnly)
	}

	var (
		post    *models.ChannelPost
		project *models.Project
		roster  []models.RosterEntry
	)
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		var err error
		if project, err = liveProject(ctx, tx, projectID); err != nil {
			return err
		}
		th, err := resolveThread(ctx, tx, actor, projectID, Thread{Board: in.Board, MemberID: in.MemberID})
		if err != nil {
			return err
		}

		if th.Board == models.BoardDirect {
			member, err := tx.TeamMembers().IsMember(ctx, projectID, th.MemberID)
			if err != nil {
				return err
			}
			if !member {
				return apperr.NotFound(MsgMemberNotFound)
			}
		} else {
			if roster, err = tx.TeamMembers().Roster(ctx, projectID); err != nil {
				return err
			}
		}

		post, err = tx.Channel().Create(ctx, models.ChannelPost{
			ProjectID: projectID,
			Board:     th.Board,
			MemberID:  th.MemberID,
			Title:     in.Title,
			Content:   in.Content,
			CreateID:  actor.UserID,
		})
		return err
	})
	if err != nil {
		return nil, nil, fmt.Errorf("create channel post: %w", err)
	}

	s.logger.Info("channel post created",
		zap.Int64("channel_id", post.ChannelID),
		zap.Int64("project_id", projectID),
		zap.String("board", string(post.Board)),
	)
	return post, s.postAlerts(actor, project, post, roster), nil
}

func (s *Service) postAlerts(actor Actor, project *models.Project, post *models.ChannelPost, roster []models.RosterEntry) []notify.Event {
	alert := models.Alert{
		ValueID:  project.ProjectID,
		Category: models.CategoryChat,
		CreateID: actor.UserID,
	}

	if post.Board == models.BoardNotice {
		alert.Title = alertTitleNotice
		alert.Message = alertNotice
		alert.Link = s.link(fmt.Sprintf("/member/channel/%d/common", project.ProjectID))

		events := make([]notify.Event, 0, len(roster))
		for _, m := range roster {
			if m.UserID == actor.UserID {
				continue
			}
			a := alert
			a.TargetUser = m.UserID
			events = append(events, notify.AlertCreated(a))
		}
		return events
	}

	if actor.UserID == post.MemberID {
		alert.TargetUser = models.AdminChannel
		if project.PMID != nil {
			alert.TargetUser = *project.PMID
		}
		alert.Title = alertTitleChannel
		alert.Message = fmt.Sprintf(alertDirectFormat, post.Nickname)
		alert.Link = s.link(fmt.Sprintf("/admin/channel/%d/member/%s", project.ProjectID, post.MemberID))
	} else {
		alert.TargetUser = post.MemberID
		alert.Title = alertTitleDirect
		alert.Message = alertDirectFromPM
		alert.Link = s.link(fmt.Sprintf("/member/channel/%d/pm/%s", project.ProjectID, post.MemberID))
	}
	return []notify.Event{notify.AlertCreated(alert)}
}

// ListPosts returns one thread of a project's channel, newest first.
func (s *Service) ListPosts(ctx context.Context, actor Actor, projectID int64, th Thread) ([]models.ChannelPost, error) {
	var posts []models.ChannelPost
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		if _, err := liveProject(ctx, tx, projectID); err != nil {
			return err
		}
		th, err := resolveThread(ctx, tx, actor, projectID, th)
		if err != nil {
			return err
		}
		posts, err = tx.Channel().List(ctx, repository.ChannelFilter{
			ProjectID: projectID,
			Board:     th.Board,
			MemberID:  th.MemberID,
		})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list channel posts: %w", err)
	}
	return posts, nil
}

// GetPost returns a post the actor may read.
func (s *Service) GetPost(ctx context.Context, actor Actor, channelID int64) (*models.ChannelPost, error) {
	var post *models.ChannelPost
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		var err error
		if post, err = visiblePost(ctx, tx, channelID); err != nil {
			return err
		}
		_, err = resolveThread(ctx, tx, actor, post.ProjectID, Thread{Board: post.Board, MemberID: post.MemberID})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("get channel post: %w", err)
	}
	return post, nil
}

// visiblePost returns a post whose project is still live. Posts of a
// deleted project read as missing.
func visiblePost(ctx context.Context, tx repository.Store, channelID int64) (*models.ChannelPost, error) {
	post, err := tx.Channel().GetByID(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, apperr.NotFound(MsgPostNotFound)
	}
	project, err := tx.Projects().GetByID(ctx, post.ProjectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, apperr.NotFound(MsgPostNotFound)
	}
	return post, nil
}

// UpdatePost edits a post. Only its author may.
func (s *Service) UpdatePost(ctx context.Context, actor Actor, channelID int64, title, content string) (*models.ChannelPost, error) {
	title = strings.TrimSpace(title)
	if title == "" || strings.TrimSpace(content) == "" {
		return nil, apperr.Invalid(MsgPostRequired)
	}

	var post *models.ChannelPost
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		current, err := visiblePost(ctx, tx, channelID)
		if err != nil {
			return err
		}
		if current.CreateID != actor.UserID {
			return apperr.Forbidden(MsgAuthorOnly)
		}
		if _, err := tx.Channel().Update(ctx, channelID, title, content, actor.UserID); err != nil {
			return err
		}
		post, err = tx.Channel().GetByID(ctx, channelID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("update channel post: %w", err)
	}
	return post, nil
}

// DeletePost hides a post. Its author and managers may.
func (s *Service) DeletePost(ctx context.Context, actor Actor, channelID int64) error {
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		post, err := visiblePost(ctx, tx, channelID)
		if err != nil {
			return err
		}
		if post.CreateID != actor.UserID && !manages(actor) {
			return apperr.Forbidden(MsgAuthorOnly)
		}
		_, err = tx.Channel().SoftDelete(ctx, channelID, actor.UserID)
		return err
	})
	if err != nil {
		return fmt.Errorf("delete channel post: %w", err)
	}
	return nil
}

// MarkChannelRead retires the actor's channel alerts for projectID.
func (s *Service) MarkChannelRead(ctx context.Context, actor Actor, projectID int64) ([]notify.Event, error) {
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		_, err := liveProject(ctx, tx, projectID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("mark channel read: %w", err)
	}
	return []notify.Event{notify.AlertsRead(projectID, models.CategoryChat, actor.UserID)}, nil
}
