package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/nayeon729/humanmakehub/internal/apperr"
	"github.com/nayeon729/humanmakehub/internal/models"
	"github.com/nayeon729/humanmakehub/internal/notify"
	"github.com/nayeon729/humanmakehub/internal/rbac"
	"go.uber.org/zap"
)

// SubmitAsk stores a contact-form inquiry and raises an alert on the
// admin channel. It needs no account.
func (s *Service) SubmitAsk(ctx context.Context, in models.Ask) (*models.Ask, []notify.Event, error) {
	for _, field := range []*string{&in.Username, &in.Company, &in.Phone, &in.Email, &in.Description} {
		*field = strings.TrimSpace(*field)
		if *field == "" {
			return nil, nil, apperr.Invalid(MsgAskRequired)
		}
	}

	ask, err := s.store.Asks().Create(ctx, in)
	if err != nil {
		return nil, nil, fmt.Errorf("submit ask: %w", err)
	}

	s.logger.Info("inquiry received", zap.Int64("ask_id", ask.AskID))
	return ask, []notify.Event{notify.AlertCreated(models.Alert{
		TargetUser: models.AdminChannel,
		ValueID:    ask.AskID,
		Category:   models.CategoryAsk,
		Title:      alertTitleAsk,
		Message:    alertAsk,
		Link:       s.link("/admin/askList"),
	})}, nil
}

func (s *Service) ListAsks(ctx context.Context, actor Actor) ([]models.Ask, error) {
	if err := authorize(actor, rbac.ActionHandleAsk, apperr.MsgAdminOnly); err != nil {
		return nil, err
	}
	asks, err := s.store.Asks().ListOpen(ctx)
	if err != nil {
		return nil, fmt.Errorf("list asks: %w", err)
	}
	return asks, nil
}

// CheckAsk marks an inquiry handled and retires its alert for everyone on
// the admin channel.
func (s *Service) CheckAsk(ctx context.Context, actor Actor, askID int64) ([]notify.Event, error) {
	if err := authorize(actor, rbac.ActionHandleAsk, apperr.MsgAdminOnly); err != nil {
		return nil, err
	}

	ok, err := s.store.Asks().Check(ctx, askID, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("check ask: %w", err)
	}
	if !ok {
		return nil, apperr.NotFound(MsgAskNotFound)
	}
	return []notify.Event{notify.AlertsRetired(askID, models.CategoryAsk, actor.UserID)}, nil
}
