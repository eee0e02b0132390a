package workflow

import (
	"context"
	"fmt"

	"github.com/nayeon729/humanmakehub/internal/apperr"
	"github.com/nayeon729/humanmakehub/internal/models"
	"github.com/nayeon729/humanmakehub/internal/rbac"
	"github.com/nayeon729/humanmakehub/internal/repository"
	"go.uber.org/zap"
)

// AssignPM makes the actor the project's PM and puts it back in review.
// Roster rows left without a PM (or pointing at a previous PM) are
// repointed at the actor.
func (s *Service) AssignPM(ctx context.Context, actor Actor, projectID int64) (*models.Project, error) {
	if err := authorize(actor, rbac.ActionAssignPM, apperr.MsgAdminOnly); err != nil {
		return nil, err
	}

	var project *models.Project
	var synced int64
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		ok, err := tx.Projects().AssignPM(ctx, projectID, actor.UserID, models.StatusReview, actor.UserID)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.NotFound(MsgProjectNotFound)
		}

		synced, err = tx.TeamMembers().SyncPM(ctx, projectID, actor.UserID, actor.UserID)
		if err != nil {
			return err
		}

		project, err = tx.Projects().GetByID(ctx, projectID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("assign pm: %w", err)
	}

	s.logger.Info("pm assigned",
		zap.Int64("project_id", projectID),
		zap.String("pm_id", actor.UserID),
		zap.Int64("roster_rows_synced", synced),
	)
	return project, nil
}

// RemovePM demotes a PM to member. Within one transaction, and in this
// order: every non-terminal project the PM manages becomes unassigned
// (W04, no PM), every active roster row loses its pm_id, and only then
// does the role flip. Returns the number of projects unassigned.
func (s *Service) RemovePM(ctx context.Context, actor Actor, userID string) (int64, error) {
	if err := authorize(actor, rbac.ActionRemovePM, apperr.MsgAdminOnly); err != nil {
		return 0, err
	}

	var unassigned int64
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		u, err := tx.Users().GetByID(ctx, userID)
		if err != nil {
			return err
		}
		if u == nil || u.Deleted {
			return apperr.NotFound(MsgUserNotFound)
		}

		unassigned, err = tx.Projects().UnassignPM(ctx, userID, actor.UserID)
		if err != nil {
			return err
		}
		if _, err := tx.TeamMembers().ClearPM(ctx, userID, actor.UserID); err != nil {
			return err
		}
		_, err = tx.Users().UpdateRole(ctx, userID, rbac.RoleMember, actor.UserID)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("remove pm: %w", err)
	}

	s.invalidate(ctx, userID)
	s.logger.Info("pm removed",
		zap.String("user_id", userID),
		zap.Int64("projects_unassigned", unassigned),
		zap.String("by", actor.UserID),
	)
	return unassigned, nil
}

// ChangeRole sets a user's role. Moving a PM to a role that cannot manage
// projects is refused while they still manage a non-terminal project;
// RemovePM is the path that unassigns first.
func (s *Service) ChangeRole(ctx context.Context, actor Actor, userID string, role rbac.Role) error {
	if err := authorize(actor, rbac.ActionChangeRole, apperr.MsgSuperAdminOnly); err != nil {
		return err
	}
	if !role.Valid() {
		return apperr.Invalid(MsgInvalidRole)
	}

	err := s.store.InTx(ctx, func(tx repository.Store) error {
		u, err := tx.Users().GetByID(ctx, userID)
		if err != nil {
			return err
		}
		if u == nil || u.Deleted {
			return apperr.NotFound(MsgUserNotFound)
		}

		if !rbac.Can(role, rbac.ActionManageProject) {
			active, err := tx.Projects().HasActiveForPM(ctx, userID)
			if err != nil {
				return err
			}
			if active {
				return apperr.Conflict(MsgOwnsProjects)
			}
		}

		_, err = tx.Users().UpdateRole(ctx, userID, role, actor.UserID)
		return err
	})
	if err != nil {
		return fmt.Errorf("change role: %w", err)
	}

	s.invalidate(ctx, userID)
	return nil
}

// SetUserDeleted soft-deletes or recovers an account.
func (s *Service) SetUserDeleted(ctx context.Context, actor Actor, userID string, deleted bool) error {
	if err := authorize(actor, rbac.ActionManageUsers, apperr.MsgAdminOnly); err != nil {
		return err
	}

	err := s.store.InTx(ctx, func(tx repository.Store) error {
		ok, err := tx.Users().SetDeleted(ctx, userID, deleted, actor.UserID)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.NotFound(MsgUserNotFound)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("set user deleted: %w", err)
	}

	s.invalidate(ctx, userID)
	return nil
}
