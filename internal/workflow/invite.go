package workflow

import (
	"context"
	"fmt"

	"github.com/nayeon729/humanmakehub/internal/apperr"
	"github.com/nayeon729/humanmakehub/internal/models"
	"github.com/nayeon729/humanmakehub/internal/notify"
	"github.com/nayeon729/humanmakehub/internal/rbac"
	"github.com/nayeon729/humanmakehub/internal/repository"
	"go.uber.org/zap"
)

// Invite creates a pending join request from actor to inviteeID and an
// alert for the invitee carrying value_id = request_id.
func (s *Service) Invite(ctx context.Context, actor Actor, projectID int64, inviteeID string) (*models.JoinRequest, []notify.Event, error) {
	if err := authorize(actor, rbac.ActionInvite, apperr.MsgAdminOnly); err != nil {
		return nil, nil, err
	}

	var jr *models.JoinRequest
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		project, err := tx.Projects().GetByID(ctx, projectID)
		if err != nil {
			return err
		}
		if project == nil {
			return apperr.NotFound(MsgProjectNotFound)
		}

		invitee, err := tx.Users().GetByID(ctx, inviteeID)
		if err != nil {
			return err
		}
		if invitee == nil || invitee.Deleted {
			return apperr.NotFound(MsgUserNotFound)
		}

		open, err := tx.JoinRequests().HasOpen(ctx, projectID, inviteeID, actor.UserID)
		if err != nil {
			return err
		}
		if open {
			return apperr.Conflict(MsgDuplicateInvite)
		}

		member, err := tx.TeamMembers().IsMember(ctx, projectID, inviteeID)
		if err != nil {
			return err
		}
		if member {
			return apperr.Conflict(MsgAlreadyMember)
		}

		jr, err = tx.JoinRequests().Create(ctx, projectID, inviteeID, actor.UserID)
		return err
	})
	if err != nil {
		return nil, nil, fmt.Errorf("invite: %w", err)
	}

	s.logger.Info("invite created",
		zap.Int64("request_id", jr.RequestID),
		zap.Int64("project_id", projectID),
		zap.String("invitee", inviteeID),
		zap.String("pm_id", actor.UserID),
	)

	events := []notify.Event{notify.AlertCreated(models.Alert{
		TargetUser: inviteeID,
		ValueID:    jr.RequestID,
		Category:   models.CategoryProject,
		Title:      alertTitle,
		Message:    alertInvite,
		Link:       s.link("/member/projectlist"),
		CreateID:   actor.UserID,
	})}
	return jr, events, nil
}

// Respond records the invitee's answer. Accepting does not add the
// invitee to the roster; Approve does that.
func (s *Service) Respond(ctx context.Context, actor Actor, requestID int64, accept bool) (*models.JoinRequest, []notify.Event, error) {
	var jr *models.JoinRequest
	nickname := actor.UserID

	err := s.store.InTx(ctx, func(tx repository.Store) error {
		var err error
		jr, err = tx.JoinRequests().GetForInvitee(ctx, requestID, actor.UserID)
		if err != nil {
			return err
		}
		if jr == nil {
			return apperr.NotFound(MsgInviteNotFound)
		}
		if jr.Responded {
			return apperr.Invalid(MsgAlreadyResponded)
		}

		jr.Status = models.JoinRejected
		if accept {
			jr.Status = models.JoinAccepted
		}
		jr.Responded = true
		if err := tx.JoinRequests().Respond(ctx, requestID, jr.Status, actor.UserID); err != nil {
			return err
		}

		if accept {
			u, err := tx.Users().GetByID(ctx, actor.UserID)
			if err != nil {
				return err
			}
			if u != nil && u.Nickname != "" {
				nickname = u.Nickname
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("respond to invite: %w", err)
	}

	events := []notify.Event{notify.AlertsRetired(requestID, models.CategoryProject, actor.UserID)}
	if accept {
		events = append(events, notify.AlertCreated(models.Alert{
			TargetUser: jr.PMID,
			ValueID:    requestID,
			Category:   models.CategoryProject,
			Title:      alertTitleResponse,
			Message:    fmt.Sprintf(alertAcceptedFormat, nickname),
			Link:       s.link("/admin/projects"),
			CreateID:   actor.UserID,
		}))
	}
	return jr, events, nil
}

// Approve promotes an accepted request into a roster row. The request row
// stays locked for the whole transaction, so a concurrent second approval
// finds it resolved and fails with MsgNotAccepted.
func (s *Service) Approve(ctx context.Context, actor Actor, projectID, requestID int64) (*models.TeamMember, []notify.Event, error) {
	if err := authorize(actor, rbac.ActionApprove, apperr.MsgAdminOnly); err != nil {
		return nil, nil, err
	}

	var member *models.TeamMember
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		project, err := tx.Projects().GetByID(ctx, projectID)
		if err != nil {
			return err
		}
		if project == nil {
			return apperr.NotFound(MsgProjectNotFound)
		}

		jr, err := tx.JoinRequests().GetForProject(ctx, requestID, projectID)
		if err != nil {
			return err
		}
		if jr == nil || !jr.Approvable() {
			return apperr.Invalid(MsgNotAccepted)
		}

		exists, err := tx.TeamMembers().IsMember(ctx, projectID, jr.UserID)
		if err != nil {
			return err
		}
		if exists {
			return apperr.Conflict(apperr.MsgAlreadyOnTeam)
		}

		member, err = tx.TeamMembers().Add(ctx, projectID, jr.UserID, project.PMID, actor.UserID)
		if err != nil {
			return err
		}
		return tx.JoinRequests().Resolve(ctx, requestID, models.JoinPromoted, actor.UserID)
	})
	if err != nil {
		return nil, nil, fmt.Errorf("approve invite: %w", err)
	}

	s.logger.Info("team member added",
		zap.Int64("project_id", projectID),
		zap.String("user_id", member.UserID),
		zap.Int64("request_id", requestID),
	)
	return member, []notify.Event{notify.AlertsRetired(requestID, models.CategoryProject, actor.UserID)}, nil
}

// Reject withdraws a visible request. It never touches the roster.
func (s *Service) Reject(ctx context.Context, actor Actor, projectID, requestID int64) ([]notify.Event, error) {
	if err := authorize(actor, rbac.ActionApprove, apperr.MsgAdminOnly); err != nil {
		return nil, err
	}

	err := s.store.InTx(ctx, func(tx repository.Store) error {
		jr, err := tx.JoinRequests().GetForProject(ctx, requestID, projectID)
		if err != nil {
			return err
		}
		if jr == nil {
			return apperr.NotFound(MsgInviteNotFound)
		}
		return tx.JoinRequests().Resolve(ctx, requestID, models.JoinWithdrawn, actor.UserID)
	})
	if err != nil {
		return nil, fmt.Errorf("reject invite: %w", err)
	}
	return []notify.Event{notify.AlertsRetired(requestID, models.CategoryProject, actor.UserID)}, nil
}

// RemoveMember takes userID off the active roster. The row is kept with
// del_yn = 'Y'; the user can be invited and approved again later.
func (s *Service) RemoveMember(ctx context.Context, actor Actor, projectID int64, userID string) error {
	if err := authorize(actor, rbac.ActionRemoveMember, apperr.MsgAdminOnly); err != nil {
		return err
	}

	err := s.store.InTx(ctx, func(tx repository.Store) error {
		removed, err := tx.TeamMembers().Remove(ctx, projectID, userID, actor.UserID)
		if err != nil {
			return err
		}
		if !removed {
			return apperr.NotFound(MsgMemberNotFound)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("remove member: %w", err)
	}
	return nil
}
