package handlers

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"

	"github.com/codevhq/codev/internal/api/middleware"
	"github.com/codevhq/codev/internal/models"
	"github.com/codevhq/codev/pkg/logger"
	"github.com/codevhq/codev/pkg/types"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ProjectHandler struct {
	db      *sql.DB
	queries *models.Queries
}

func NewProjectHandler(db *sql.DB) *ProjectHandler {
	return &ProjectHandler{
		db:      db,
		queries: models.New(db),
	}
}

// CreateProjectRequest is the create-project request body.
type CreateProjectRequest struct {
	Name string `json:"name" binding:"required"`
}

// AddUserRequest adds a collaborator to a project.
type AddUserRequest struct {
	ProjectID string `json:"projectId" binding:"required"`
	UserID    string `json:"userId" binding:"required"`
}

// ProjectResponse is the public view of a project.
type ProjectResponse struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	OwnerID string `json:"ownerId"`
}

func toProjectResponse(p models.Project) ProjectResponse {
	return ProjectResponse{ID: p.ID, Name: p.Name, OwnerID: p.OwnerID}
}

// CreateProject handles POST /projects/create. The creator becomes the owner
// and first member.
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{Error: err.Error()})
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{Error: "project name is required"})
		return
	}

	project, err := h.queries.CreateProject(c.Request.Context(), models.CreateProjectParams{
		ID:      uuid.NewString(),
		Name:    name,
		OwnerID: userID,
	})
	if err != nil {
		logger.Errorf("create project: %v", err)
		c.JSON(http.StatusInternalServerError, types.ErrorResponse{Error: "failed to create project"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"project": toProjectResponse(project)})
}

// ListProjects handles GET /projects/all. Returns the projects the caller is
// a member of, newest first.
func (h *ProjectHandler) ListProjects(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	projects, err := h.queries.ListProjectsForUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.ErrorResponse{Error: "failed to list projects"})
		return
	}

	resp := make([]ProjectResponse, 0, len(projects))
	for _, p := range projects {
		resp = append(resp, toProjectResponse(p))
	}
	c.JSON(http.StatusOK, gin.H{"projects": resp})
}

// GetProject handles GET /projects/:id. Members only.
func (h *ProjectHandler) GetProject(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	projectID := c.Param("id")

	member, err := h.queries.IsProjectMember(c.Request.Context(), models.AddProjectMemberParams{
		ProjectID: projectID,
		UserID:    userID,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.ErrorResponse{Error: "failed to check membership"})
		return
	}
	if !member {
		c.JSON(http.StatusForbidden, types.ErrorResponse{Error: "not a project member"})
		return
	}

	project, err := h.queries.GetProjectByID(c.Request.Context(), projectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, types.ErrorResponse{Error: "project not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, types.ErrorResponse{Error: "failed to get project"})
		return
	}

	members, err := h.queries.ListProjectMembers(c.Request.Context(), projectID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.ErrorResponse{Error: "failed to list members"})
		return
	}

	memberResp := make([]UserResponse, 0, len(members))
	for _, m := range members {
		memberResp = append(memberResp, toUserResponse(m))
	}

	c.JSON(http.StatusOK, gin.H{
		"project": toProjectResponse(project),
		"users":   memberResp,
	})
}

// AddUser handles POST /projects/add-user. Only existing members may add
// collaborators; adding an existing member is a no-op.
func (h *ProjectHandler) AddUser(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req AddUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{Error: err.Error()})
		return
	}

	member, err := h.queries.IsProjectMember(c.Request.Context(), models.AddProjectMemberParams{
		ProjectID: req.ProjectID,
		UserID:    userID,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.ErrorResponse{Error: "failed to check membership"})
		return
	}
	if !member {
		c.JSON(http.StatusForbidden, types.ErrorResponse{Error: "not a project member"})
		return
	}

	if _, err := h.queries.GetUserByID(c.Request.Context(), req.UserID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, types.ErrorResponse{Error: "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, types.ErrorResponse{Error: "failed to look up user"})
		return
	}

	err = h.queries.AddProjectMember(c.Request.Context(), models.AddProjectMemberParams{
		ProjectID: req.ProjectID,
		UserID:    req.UserID,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.ErrorResponse{Error: "failed to add user"})
		return
	}

	c.JSON(http.StatusOK, types.SuccessResponse{Success: true, Message: "user added to project"})
}
