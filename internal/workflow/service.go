// Package workflow holds the state transitions of team formation: invites,
// responses, promotion to the roster, PM assignment and PM removal. It also
// owns the project channel and contact-form inquiries, which raise and
// retire alerts the same way.
//
// Every operation runs in one transaction and returns the alert side
// effects as []notify.Event instead of writing them. The caller dispatches
// them after the transaction commits.
package workflow

import (
	"context"

	"github.com/nayeon729/humanmakehub/internal/apperr"
	"github.com/nayeon729/humanmakehub/internal/rbac"
	"github.com/nayeon729/humanmakehub/internal/repository"
	"go.uber.org/zap"
)

// User-facing messages.
const (
	MsgDuplicateInvite  = "이미 초대 요청이 존재합니다."
	MsgAlreadyMember    = "이미 팀원으로 등록된 사용자입니다."
	MsgInviteNotFound   = "초대 요청을 찾을 수 없습니다."
	MsgAlreadyResponded = "이미 응답한 초대입니다."
	MsgNotAccepted      = "수락된 요청이 아닙니다."
	MsgProjectNotFound  = "프로젝트를 찾을 수 없습니다."
	MsgUserNotFound     = "사용자를 찾을 수 없습니다."
	MsgMemberNotFound   = "팀원을 찾을 수 없습니다."
	MsgOwnsProjects     = "프로젝트 보유중"
	MsgInvalidRole      = "유효하지 않은 역할입니다."
	MsgInvalidStatus    = "유효하지 않은 상태값입니다."
	MsgInvalidProgress  = "진행률은 0에서 100 사이여야 합니다."
	MsgNothingToUpdate  = "변경할 항목이 없습니다."
	MsgTitleRequired    = "프로젝트 제목을 입력해주세요."
	MsgClientRequired   = "클라이언트 계정이 아닙니다."
	MsgPostNotFound     = "게시글이 존재하지 않습니다."
	MsgPostRequired     = "제목과 내용을 입력해주세요."
	MsgInvalidBoard     = "유효하지 않은 게시판입니다."
	MsgAuthorOnly       = "작성자만 수정할 수 있습니다."
	MsgNoChannelAccess  = "해당 채널에 접근할 수 없습니다."
	MsgAskRequired      = "필수 항목을 모두 입력해 주세요."
	MsgAskNotFound      = "문의사항을 찾을 수 없습니다."
)

// Alert texts.
const (
	alertTitle          = "시스템 알람"
	alertTitleResponse  = "시스템 알림"
	alertInvite         = "PM이 프로젝트에 초대하였습니다. 프로젝트 목록에서 확인 후 수락 또는 거절할 수 있습니다."
	alertAcceptedFormat = "%s님이 프로젝트 참여를 승인 요청했습니다."
	alertStarted        = "등록하신 프로젝트가 시작되었습니다."
	alertDone           = "프로젝트가 완료되었습니다."
	alertTitleNotice    = "프로젝트 공지"
	alertNotice         = "프로젝트에서 PM이 공지사항을 작성하였습니다."
	alertTitleDirect    = "프로젝트 PM"
	alertDirectFromPM   = "프로젝트에서 PM이 개인채널에 글을 작성하였습니다."
	alertTitleChannel   = "프로젝트 채널"
	alertDirectFormat   = "%s님이 개인채널에 글을 작성하였습니다."
	alertTitleAsk       = "문의사항"
	alertAsk            = "새로운 문의가 접수되었습니다."
)

// Actor is the authenticated caller of an operation.
type Actor struct {
	UserID string
	Role   rbac.Role
}

// RoleInvalidator drops cached authorization state for a user.
type RoleInvalidator interface {
	Invalidate(ctx context.Context, userID string)
}

type Options struct {
	// FrontBaseURL prefixes the links stored in alerts.
	FrontBaseURL string
	// Invalidator is told about role and deleted-flag changes after they
	// commit. Optional.
	Invalidator RoleInvalidator
}

type Service struct {
	store  repository.Store
	opts   Options
	logger *zap.Logger
}

func NewService(store repository.Store, opts Options, logger *zap.Logger) *Service {
	return &Service{store: store, opts: opts, logger: logger}
}

// authorize returns a Forbidden error unless the actor's role allows action.
func authorize(actor Actor, action rbac.Action, msg string) error {
	if !rbac.Can(actor.Role, action) {
		return apperr.Forbidden(msg)
	}
	return nil
}

func (s *Service) link(path string) string {
	return s.opts.FrontBaseURL + path
}

func (s *Service) invalidate(ctx context.Context, userID string) {
	if s.opts.Invalidator != nil {
		s.opts.Invalidator.Invalidate(ctx, userID)
	}
}
