package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nayeon729/humanmakehub/internal/models"
	"github.com/nayeon729/humanmakehub/internal/notify"
	"github.com/nayeon729/humanmakehub/internal/workflow"
	"go.uber.org/zap"
)

// ChannelHandler serves a project's channel: the notice board and the
// direct threads between the PM and each member.
type ChannelHandler struct {
	service    *workflow.Service
	dispatcher *notify.Dispatcher
	logger     *zap.Logger
}

func NewChannelHandler(service *workflow.Service, dispatcher *notify.Dispatcher, logger *zap.Logger) *ChannelHandler {
	return &ChannelHandler{service: service, dispatcher: dispatcher, logger: logger}
}

type createPostRequest struct {
	Board    models.Board `json:"board" binding:"required"`
	MemberID string       `json:"member_id"`
	Title    string       `json:"title" binding:"required"`
	Content  string       `json:"content" binding:"required"`
}

type updatePostRequest struct {
	Title   string `json:"title" binding:"required"`
	Content string `json:"content" binding:"required"`
}

// Create handles POST /v1/projects/:id/channel.
func (h *ChannelHandler) Create(c *gin.Context) {
	projectID, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req createPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	post, events, err := h.service.CreatePost(c.Request.Context(), actorFrom(c), projectID, workflow.NewPost{
		Board:    req.Board,
		MemberID: req.MemberID,
		Title:    req.Title,
		Content:  req.Content,
	})
	if err != nil {
		respondError(c, h.logger, "failed to create channel post", err)
		return
	}
	h.dispatcher.Dispatch(c.Request.Context(), events)

	c.JSON(http.StatusCreated, post)
}

// List handles GET /v1/projects/:id/channel?board=notice|direct&member_id=.
func (h *ChannelHandler) List(c *gin.Context) {
	projectID, ok := idParam(c, "id")
	if !ok {
		return
	}

	board := models.Board(c.DefaultQuery("board", string(models.BoardNotice)))
	posts, err := h.service.ListPosts(c.Request.Context(), actorFrom(c), projectID, workflow.Thread{
		Board:    board,
		MemberID: c.Query("member_id"),
	})
	if err != nil {
		respondError(c, h.logger, "failed to list channel posts", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": posts, "total": len(posts)})
}

// MarkRead handles PUT /v1/projects/:id/channel/read.
func (h *ChannelHandler) MarkRead(c *gin.Context) {
	projectID, ok := idParam(c, "id")
	if !ok {
		return
	}

	events, err := h.service.MarkChannelRead(c.Request.Context(), actorFrom(c), projectID)
	if err != nil {
		respondError(c, h.logger, "failed to mark channel read", err)
		return
	}
	h.dispatcher.Dispatch(c.Request.Context(), events)

	c.JSON(http.StatusOK, gin.H{"message": "알람체크 완료"})
}

// Get handles GET /v1/channel/:channel_id.
func (h *ChannelHandler) Get(c *gin.Context) {
	channelID, ok := idParam(c, "channel_id")
	if !ok {
		return
	}

	post, err := h.service.GetPost(c.Request.Context(), actorFrom(c), channelID)
	if err != nil {
		respondError(c, h.logger, "failed to get channel post", err)
		return
	}

	c.JSON(http.StatusOK, post)
}

// Update handles PUT /v1/channel/:channel_id.
func (h *ChannelHandler) Update(c *gin.Context) {
	channelID, ok := idParam(c, "channel_id")
	if !ok {
		return
	}

	var req updatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	post, err := h.service.UpdatePost(c.Request.Context(), actorFrom(c), channelID, req.Title, req.Content)
	if err != nil {
		respondError(c, h.logger, "failed to update channel post", err)
		return
	}

	c.JSON(http.StatusOK, post)
}

// Delete handles DELETE /v1/channel/:channel_id.
func (h *ChannelHandler) Delete(c *gin.Context) {
	channelID, ok := idParam(c, "channel_id")
	if !ok {
		return
	}

	if err := h.service.DeletePost(c.Request.Context(), actorFrom(c), channelID); err != nil {
		respondError(c, h.logger, "failed to delete channel post", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "글이 삭제되었습니다."})
}
