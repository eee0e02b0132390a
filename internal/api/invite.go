package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nayeon729/humanmakehub/internal/middleware"
	"github.com/nayeon729/humanmakehub/internal/notify"
	"github.com/nayeon729/humanmakehub/internal/rbac"
	"github.com/nayeon729/humanmakehub/internal/repository"
	"github.com/nayeon729/humanmakehub/internal/workflow"
	"go.uber.org/zap"
)

// InviteHandler serves the invite lifecycle: the PM side under
// /v1/projects/:id/invites and the invitee side under /v1/invites.
//
// Workflow calls return their alert side effects; the handler dispatches
// them once the call has committed.
type InviteHandler struct {
	requests   repository.JoinRequestRepository
	service    *workflow.Service
	dispatcher *notify.Dispatcher
	logger     *zap.Logger
}

func NewInviteHandler(requests repository.JoinRequestRepository, service *workflow.Service, dispatcher *notify.Dispatcher, logger *zap.Logger) *InviteHandler {
	return &InviteHandler{requests: requests, service: service, dispatcher: dispatcher, logger: logger}
}

// inviteRequest names the invitee. member_id is what the invite page
// sends; user_id is accepted as well.
type inviteRequest struct {
	MemberID string `json:"member_id"`
	UserID   string `json:"user_id"`
}

func (r inviteRequest) invitee() string {
	if r.MemberID != "" {
		return r.MemberID
	}
	return r.UserID
}

// Invite handles POST /v1/projects/:id/invites.
func (h *InviteHandler) Invite(c *gin.Context) {
	projectID, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req inviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.invitee() == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "member_id 값이 필요합니다."})
		return
	}

	request, events, err := h.service.Invite(c.Request.Context(), actorFrom(c), projectID, req.invitee())
	if err != nil {
		respondError(c, h.logger, "failed to create invite", err)
		return
	}
	h.dispatcher.Dispatch(c.Request.Context(), events)

	c.JSON(http.StatusCreated, gin.H{"message": "초대 요청이 전송되었습니다.", "request": request})
}

// ListForProject handles GET /v1/projects/:id/invites. PMs see the invites
// they sent; admins see every PM's.
func (h *InviteHandler) ListForProject(c *gin.Context) {
	projectID, ok := idParam(c, "id")
	if !ok {
		return
	}

	pmID := middleware.GetUserID(c)
	if middleware.GetRole(c) == rbac.RoleAdmin {
		pmID = ""
	}

	invites, err := h.requests.ListByProject(c.Request.Context(), projectID, pmID)
	if err != nil {
		respondError(c, h.logger, "failed to list invites", err)
		return
	}

	c.JSON(http.StatusOK, invites)
}

// Approve handles POST /v1/projects/:id/invites/:request_id/approve.
func (h *InviteHandler) Approve(c *gin.Context) {
	projectID, ok := idParam(c, "id")
	if !ok {
		return
	}
	requestID, ok := idParam(c, "request_id")
	if !ok {
		return
	}

	member, events, err := h.service.Approve(c.Request.Context(), actorFrom(c), projectID, requestID)
	if err != nil {
		respondError(c, h.logger, "failed to approve invite", err)
		return
	}
	h.dispatcher.Dispatch(c.Request.Context(), events)

	c.JSON(http.StatusOK, gin.H{"message": "팀원으로 등록되었습니다.", "member": member})
}

// Reject handles POST /v1/projects/:id/invites/:request_id/reject.
func (h *InviteHandler) Reject(c *gin.Context) {
	projectID, ok := idParam(c, "id")
	if !ok {
		return
	}
	requestID, ok := idParam(c, "request_id")
	if !ok {
		return
	}

	events, err := h.service.Reject(c.Request.Context(), actorFrom(c), projectID, requestID)
	if err != nil {
		respondError(c, h.logger, "failed to reject invite", err)
		return
	}
	h.dispatcher.Dispatch(c.Request.Context(), events)

	c.JSON(http.StatusOK, gin.H{"message": "요청이 거절되었습니다."})
}

// Mine handles GET /v1/invites: the invites addressed to the caller.
func (h *InviteHandler) Mine(c *gin.Context) {
	invites, err := h.requests.ListByInvitee(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, h.logger, "failed to list invites", err)
		return
	}

	c.JSON(http.StatusOK, invites)
}

type respondRequest struct {
	// A pointer so a missing field is told apart from false.
	Accept *bool `json:"accept"`
}

// Respond handles PUT /v1/invites/:request_id/respond.
func (h *InviteHandler) Respond(c *gin.Context) {
	requestID, ok := idParam(c, "request_id")
	if !ok {
		return
	}

	var req respondRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Accept == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "accept 값이 필요합니다."})
		return
	}

	request, events, err := h.service.Respond(c.Request.Context(), actorFrom(c), requestID, *req.Accept)
	if err != nil {
		respondError(c, h.logger, "failed to respond to invite", err)
		return
	}
	h.dispatcher.Dispatch(c.Request.Context(), events)

	message := "초대를 거절했습니다."
	if *req.Accept {
		message = "초대를 수락했습니다."
	}
	c.JSON(http.StatusOK, gin.H{"message": message, "request": request})
}
