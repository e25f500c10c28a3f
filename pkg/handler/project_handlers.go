// Project HTTP handlers
package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/parleyhq/parley/pkg/db"
	"github.com/parleyhq/parley/pkg/models"
	"github.com/parleyhq/parley/pkg/service"
)

// ProjectHandler handles project-related HTTP requests
type ProjectHandler struct {
	projectService *service.ProjectService
}

// NewProjectHandler creates a new project handler
func NewProjectHandler(projectService *service.ProjectService) *ProjectHandler {
	return &ProjectHandler{projectService: projectService}
}

// RegisterRoutes registers project routes
func (h *ProjectHandler) RegisterRoutes(r *gin.RouterGroup) {
	projects := r.Group("/projects")
	{
		projects.GET("", h.ListProjects)
		projects.POST("", h.CreateProject)
		projects.DELETE("", h.DeleteAllProjects)
		projects.PATCH("/:id", h.RenameProject)
		projects.DELETE("/:id", h.DeleteProject)
	}
}

// ListProjects handles GET /api/v1/projects
func (h *ProjectHandler) ListProjects(c *gin.Context) {
	projects, err := h.projectService.ListProjects()
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
		return
	}
	if projects == nil {
		projects = []db.Project{}
	}
	c.JSON(http.StatusOK, projects)
}

// CreateProject handles POST /api/v1/projects
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	var req models.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}
	project, err := h.projectService.CreateProject(strings.TrimSpace(req.Name))
	if err != nil {
		c.JSON(projectStatus(err), models.ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusCreated, project)
}

// RenameProject handles PATCH /api/v1/projects/:id
func (h *ProjectHandler) RenameProject(c *gin.Context) {
	var req models.UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}
	project, err := h.projectService.RenameProject(c.Param("id"), strings.TrimSpace(req.Name))
	if err != nil {
		c.JSON(projectStatus(err), models.ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, project)
}

// DeleteProject handles DELETE /api/v1/projects/:id
func (h *ProjectHandler) DeleteProject(c *gin.Context) {
	if err := h.projectService.DeleteProject(c.Param("id")); err != nil {
		c.JSON(projectStatus(err), models.ErrorResponse{Error: err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

// DeleteAllProjects handles DELETE /api/v1/projects
func (h *ProjectHandler) DeleteAllProjects(c *gin.Context) {
	count, err := h.projectService.DeleteAllProjects()
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, models.CountResponse{Deleted: count})
}

func projectStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrProjectNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrEmptyProjectName):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
