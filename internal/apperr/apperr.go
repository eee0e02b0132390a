// Package apperr is the error taxonomy shared by the workflow and the
// HTTP layer. Anything that is not an *Error is an infrastructure failure.
package apperr

import (
	"errors"
	"net/http"
)

type Kind int

const (
	KindInternal Kind = iota
	KindInvalid
	KindConflict
	KindNotFound
	KindForbidden
	KindUnauthorized
)

// Error carries a user-facing message. Messages are shown to the client
// verbatim, so they never include driver or SQL detail.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

// Status maps the kind to an HTTP status. Conflicts are reported as 400,
// which is what the frontend already expects for duplicate invites.
func (e *Error) Status() int {
	switch e.Kind {
	case KindInvalid, KindConflict:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	case KindUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func Invalid(msg string) *Error      { return &Error{Kind: KindInvalid, Message: msg} }
func Conflict(msg string) *Error     { return &Error{Kind: KindConflict, Message: msg} }
func NotFound(msg string) *Error     { return &Error{Kind: KindNotFound, Message: msg} }
func Forbidden(msg string) *Error    { return &Error{Kind: KindForbidden, Message: msg} }
func Unauthorized(msg string) *Error { return &Error{Kind: KindUnauthorized, Message: msg} }

// KindOf returns the kind of err, or KindInternal when err is not an *Error.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// Common messages reused across handlers and the workflow.
const (
	MsgAdminOnly      = "관리자만 접근 가능합니다."
	MsgSuperAdminOnly = "최종관리자만 접근 가능합니다."
	MsgInternal       = "요청을 처리하지 못했습니다."
	MsgAlreadyOnTeam  = "이미 팀원으로 등록됨"
	MsgDuplicateUser  = "이미 존재하는 아이디입니다."
)
