package api

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nayeon729/humanmakehub/internal/models"
	"github.com/nayeon729/humanmakehub/internal/notify"
	"github.com/nayeon729/humanmakehub/internal/workflow"
	"go.uber.org/zap"
)

// AskHandler serves the public contact form and its admin inbox.
type AskHandler struct {
	service    *workflow.Service
	dispatcher *notify.Dispatcher
	logger     *zap.Logger
}

func NewAskHandler(service *workflow.Service, dispatcher *notify.Dispatcher, logger *zap.Logger) *AskHandler {
	return &AskHandler{service: service, dispatcher: dispatcher, logger: logger}
}

type askRequest struct {
	Username    string       `json:"username"`
	Company     string       `json:"company"`
	Phone       string       `json:"phone"`
	Email       string       `json:"email"`
	Description string       `json:"askMessage"`
	Categories  categoryList `json:"category"`
}

// categoryList takes the picked categories either as a JSON array or as
// a string holding one, which is what the contact form posts.
type categoryList []string

func (l *categoryList) UnmarshalJSON(data []byte) error {
	var encoded string
	if err := json.Unmarshal(data, &encoded); err == nil {
		if encoded == "" {
			*l = nil
			return nil
		}
		data = []byte(encoded)
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	*l = list
	return nil
}

// Submit handles POST /v1/asks. It is public.
func (h *AskHandler) Submit(c *gin.Context) {
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ask, events, err := h.service.SubmitAsk(c.Request.Context(), models.Ask{
		Username:    req.Username,
		Company:     req.Company,
		Phone:       req.Phone,
		Email:       req.Email,
		Description: req.Description,
		Categories:  []string(req.Categories),
	})
	if err != nil {
		respondError(c, h.logger, "failed to submit ask", err)
		return
	}
	h.dispatcher.Dispatch(c.Request.Context(), events)

	c.JSON(http.StatusCreated, gin.H{"message": "문의가 접수되었습니다.", "ask_id": ask.AskID})
}

// List handles GET /v1/admin/asks.
func (h *AskHandler) List(c *gin.Context) {
	asks, err := h.service.ListAsks(c.Request.Context(), actorFrom(c))
	if err != nil {
		respondError(c, h.logger, "failed to list asks", err)
		return
	}

	c.JSON(http.StatusOK, asks)
}

// Check handles PUT /v1/admin/asks/:id/check.
func (h *AskHandler) Check(c *gin.Context) {
	askID, ok := idParam(c, "id")
	if !ok {
		return
	}

	events, err := h.service.CheckAsk(c.Request.Context(), actorFrom(c), askID)
	if err != nil {
		respondError(c, h.logger, "failed to check ask", err)
		return
	}
	h.dispatcher.Dispatch(c.Request.Context(), events)

	c.JSON(http.StatusOK, gin.H{"message": "문의사항이 확인되었습니다."})
}
