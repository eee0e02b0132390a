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
)

type NewProject struct {
	// ClientID is ignored when a client creates the project; it is always
	// the caller then. PMs and admins registering on a client's behalf
	// must set it.
	ClientID    string
	Title       string
	Description string
	Category    string
}

// ProjectUpdate carries the fields to change. Nil fields are left alone.
type ProjectUpdate struct {
	Status   *models.ProjectStatus
	Progress *int
}

func (s *Service) CreateProject(ctx context.Context, actor Actor, in NewProject) (*models.Project, error) {
	if err := authorize(actor, rbac.ActionCreateProject, apperr.MsgAdminOnly); err != nil {
		return nil, err
	}
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return nil, apperr.Invalid(MsgTitleRequired)
	}
	if actor.Role == rbac.RoleClient {
		in.ClientID = actor.UserID
	}

	var project *models.Project
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		client, err := tx.Users().GetByID(ctx, in.ClientID)
		if err != nil {
			return err
		}
		if client == nil || client.Deleted {
			return apperr.NotFound(MsgUserNotFound)
		}
		if client.Role != rbac.RoleClient {
			return apperr.Invalid(MsgClientRequired)
		}

		project, err = tx.Projects().Create(ctx, models.Project{
			ClientID:    in.ClientID,
			Title:       in.Title,
			Description: in.Description,
			Category:    in.Category,
		}, actor.UserID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	return project, nil
}

// UpdateProject changes status and/or progress. Moving to W02 or W03
// tells the client with a system alert.
func (s *Service) UpdateProject(ctx context.Context, actor Actor, projectID int64, in ProjectUpdate) (*models.Project, []notify.Event, error) {
	if err := authorize(actor, rbac.ActionManageProject, apperr.MsgAdminOnly); err != nil {
		return nil, nil, err
	}
	if in.Status == nil && in.Progress == nil {
		return nil, nil, apperr.Invalid(MsgNothingToUpdate)
	}
	if in.Status != nil && !in.Status.Valid() {
		return nil, nil, apperr.Invalid(MsgInvalidStatus)
	}
	if in.Progress != nil && (*in.Progress < 0 || *in.Progress > 100) {
		return nil, nil, apperr.Invalid(MsgInvalidProgress)
	}

	var project *models.Project
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		if in.Status != nil {
			ok, err := tx.Projects().UpdateStatus(ctx, projectID, *in.Status, actor.UserID)
			if err != nil {
				return err
			}
			if !ok {
				return apperr.NotFound(MsgProjectNotFound)
			}
		}
		if in.Progress != nil {
			ok, err := tx.Projects().UpdateProgress(ctx, projectID, *in.Progress, actor.UserID)
			if err != nil {
				return err
			}
			if !ok {
				return apperr.NotFound(MsgProjectNotFound)
			}
		}

		var err error
		project, err = tx.Projects().GetByID(ctx, projectID)
		return err
	})
	if err != nil {
		return nil, nil, fmt.Errorf("update project: %w", err)
	}

	var events []notify.Event
	if in.Status != nil {
		var msg string
		switch *in.Status {
		case models.StatusInProgress:
			msg = alertStarted
		case models.StatusDone:
			msg = alertDone
		}
		if msg != "" {
			events = append(events, notify.AlertCreated(models.Alert{
				TargetUser: project.ClientID,
				ValueID:    projectID,
				Category:   models.CategorySystem,
				Title:      alertTitle,
				Message:    msg,
				Link:       s.link("/client/list"),
				CreateID:   actor.UserID,
			}))
		}
	}
	return project, events, nil
}

func (s *Service) DeleteProject(ctx context.Context, actor Actor, projectID int64) error {
	if err := authorize(actor, rbac.ActionManageProject, apperr.MsgAdminOnly); err != nil {
		return err
	}

	err := s.store.InTx(ctx, func(tx repository.Store) error {
		ok, err := tx.Projects().SoftDelete(ctx, projectID, actor.UserID)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.NotFound(MsgProjectNotFound)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	return nil
}
