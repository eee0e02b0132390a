package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nayeon729/humanmakehub/internal/middleware"
	"github.com/nayeon729/humanmakehub/internal/models"
	"github.com/nayeon729/humanmakehub/internal/notify"
	"github.com/nayeon729/humanmakehub/internal/rbac"
	"github.com/nayeon729/humanmakehub/internal/repository"
	"github.com/nayeon729/humanmakehub/internal/workflow"
	"go.uber.org/zap"
)

const msgNoProjectAccess = "해당 프로젝트에 접근할 수 없습니다."

// ProjectHandler serves projects, their PM and their roster.
type ProjectHandler struct {
	store      repository.Store
	service    *workflow.Service
	dispatcher *notify.Dispatcher
	logger     *zap.Logger
}

func NewProjectHandler(store repository.Store, service *workflow.Service, dispatcher *notify.Dispatcher, logger *zap.Logger) *ProjectHandler {
	return &ProjectHandler{store: store, service: service, dispatcher: dispatcher, logger: logger}
}

type createProjectRequest struct {
	ClientID    string `json:"client_id"`
	Title       string `json:"title" binding:"required,max=200"`
	Description string `json:"description"`
	Category    string `json:"category" binding:"max=50"`
}

// Create handles POST /v1/projects.
func (h *ProjectHandler) Create(c *gin.Context) {
	var req createProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	project, err := h.service.CreateProject(c.Request.Context(), actorFrom(c), workflow.NewProject{
		ClientID:    req.ClientID,
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
	})
	if err != nil {
		respondError(c, h.logger, "failed to create project", err)
		return
	}

	c.JSON(http.StatusCreated, project)
}

// Get handles GET /v1/projects/:id.
func (h *ProjectHandler) Get(c *gin.Context) {
	projectID, ok := idParam(c, "id")
	if !ok {
		return
	}

	project, err := h.store.Projects().GetByID(c.Request.Context(), projectID)
	if err != nil {
		respondError(c, h.logger, "failed to get project", err)
		return
	}
	if project == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": workflow.MsgProjectNotFound})
		return
	}

	c.JSON(http.StatusOK, project)
}

// List handles GET /v1/projects. What a caller sees depends on the role:
// clients their own postings, members the projects they are on, PMs the
// projects they manage and admins everything. PMs pass ?all=true to browse
// every project, which is how they find ones to take on.
func (h *ProjectHandler) List(c *gin.Context) {
	userID := middleware.GetUserID(c)

	var filter repository.ProjectFilter
	switch middleware.GetRole(c) {
	case rbac.RoleClient:
		filter.ClientID = userID
	case rbac.RoleMember:
		filter.MemberID = userID
	case rbac.RolePM:
		if c.Query("all") != "true" {
			filter.PMID = userID
		}
	case rbac.RoleAdmin:
	default:
		c.JSON(http.StatusForbidden, gin.H{"error": msgNoProjectAccess})
		return
	}

	projects, err := h.store.Projects().List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, h.logger, "failed to list projects", err)
		return
	}

	c.JSON(http.StatusOK, projects)
}

type updateProjectRequest struct {
	Status   *string `json:"status"`
	Progress *int    `json:"progress"`
}

// Update handles PATCH /v1/projects/:id.
func (h *ProjectHandler) Update(c *gin.Context) {
	projectID, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req updateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	in := workflow.ProjectUpdate{Progress: req.Progress}
	if req.Status != nil {
		status := models.ProjectStatus(*req.Status)
		in.Status = &status
	}

	project, events, err := h.service.UpdateProject(c.Request.Context(), actorFrom(c), projectID, in)
	if err != nil {
		respondError(c, h.logger, "failed to update project", err)
		return
	}
	h.dispatcher.Dispatch(c.Request.Context(), events)

	c.JSON(http.StatusOK, project)
}

// Delete handles DELETE /v1/projects/:id.
func (h *ProjectHandler) Delete(c *gin.Context) {
	projectID, ok := idParam(c, "id")
	if !ok {
		return
	}

	if err := h.service.DeleteProject(c.Request.Context(), actorFrom(c), projectID); err != nil {
		respondError(c, h.logger, "failed to delete project", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "프로젝트가 삭제되었습니다."})
}

// AssignPM handles PUT /v1/projects/:id/pm. The caller becomes the PM.
func (h *ProjectHandler) AssignPM(c *gin.Context) {
	projectID, ok := idParam(c, "id")
	if !ok {
		return
	}

	project, err := h.service.AssignPM(c.Request.Context(), actorFrom(c), projectID)
	if err != nil {
		respondError(c, h.logger, "failed to assign pm", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "PM으로 배정되었습니다.", "project": project})
}

// PMCheck handles GET /v1/projects/:id/pm-check/:user_id.
func (h *ProjectHandler) PMCheck(c *gin.Context) {
	projectID, ok := idParam(c, "id")
	if !ok {
		return
	}

	project, err := h.store.Projects().GetByID(c.Request.Context(), projectID)
	if err != nil {
		respondError(c, h.logger, "failed to get project", err)
		return
	}
	if project == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": workflow.MsgProjectNotFound})
		return
	}

	c.JSON(http.StatusOK, gin.H{"is_pm": project.ManagedBy(c.Param("user_id"))})
}

// Members handles GET /v1/projects/:id/members. The PM, when there is one,
// is listed first with is_pm set.
func (h *ProjectHandler) Members(c *gin.Context) {
	projectID, ok := idParam(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	project, err := h.store.Projects().GetByID(ctx, projectID)
	if err != nil {
		respondError(c, h.logger, "failed to get project", err)
		return
	}
	if project == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": workflow.MsgProjectNotFound})
		return
	}

	if !rbac.Can(middleware.GetRole(c), rbac.ActionManageProject) {
		member, err := h.store.TeamMembers().IsMember(ctx, projectID, middleware.GetUserID(c))
		if err != nil {
			respondError(c, h.logger, "failed to check membership", err)
			return
		}
		if !member {
			c.JSON(http.StatusForbidden, gin.H{"error": msgNoProjectAccess})
			return
		}
	}

	roster, err := h.store.TeamMembers().Roster(ctx, projectID)
	if err != nil {
		respondError(c, h.logger, "failed to list members", err)
		return
	}

	members := make([]models.RosterEntry, 0, len(roster)+1)
	if project.PMID != nil {
		pm, err := h.store.Users().GetByID(ctx, *project.PMID)
		if err != nil {
			respondError(c, h.logger, "failed to get pm", err)
			return
		}
		if pm != nil {
			members = append(members, models.RosterEntry{UserID: pm.UserID, Nickname: pm.Nickname, IsPM: true})
		}
	}
	members = append(members, roster...)

	c.JSON(http.StatusOK, members)
}

// RemoveMember handles DELETE /v1/projects/:id/members/:user_id.
func (h *ProjectHandler) RemoveMember(c *gin.Context) {
	projectID, ok := idParam(c, "id")
	if !ok {
		return
	}

	userID := c.Param("user_id")
	if err := h.service.RemoveMember(c.Request.Context(), actorFrom(c), projectID, userID); err != nil {
		respondError(c, h.logger, "failed to remove member", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "팀원이 삭제되었습니다.", "user_id": userID})
}
