package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/teamtaskhq/teamtask-api/internal/cache"
	"github.com/teamtaskhq/teamtask-api/internal/dto"
	apierrors "github.com/teamtaskhq/teamtask-api/internal/errors"
	"github.com/teamtaskhq/teamtask-api/internal/middleware"
	"github.com/teamtaskhq/teamtask-api/internal/orchestrator"
	"github.com/teamtaskhq/teamtask-api/internal/repository"
)

// ProjectHandler routes project mutations through the orchestrator and serves
// project list views through the cache.
type ProjectHandler struct {
	orch        *orchestrator.Orchestrator
	projects    repository.ProjectRepository
	tasks       repository.TaskRepository
	invalidator *cache.Invalidator
	log         *logrus.Logger
}

// NewProjectHandler creates a new ProjectHandler
func NewProjectHandler(orch *orchestrator.Orchestrator, projects repository.ProjectRepository, tasks repository.TaskRepository, invalidator *cache.Invalidator, log *logrus.Logger) *ProjectHandler {
	return &ProjectHandler{orch: orch, projects: projects, tasks: tasks, invalidator: invalidator, log: log}
}

// Create handles POST /api/projects
func (h *ProjectHandler) Create(c *gin.Context) {
	session, ok := middleware.GetSession(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	var req dto.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, err.Error())
		return
	}

	result, err := h.orch.Execute(c.Request.Context(), session, orchestrator.CreateProject{
		Title:         req.Title,
		Description:   req.Description,
		ManagerID:     req.ManagerID,
		TeamMemberIDs: req.TeamMemberIDs,
	})
	if err != nil {
		respondMutationError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToProjectResponse(result.Project))
}

// List handles GET /api/projects, served from the org projects view when fresh.
func (h *ProjectHandler) List(c *gin.Context) {
	session, ok := middleware.GetSession(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	cacheKey := cache.OrgProjectsKey(session.OrganizationID)

	var cached dto.ProjectListResponse
	fresh, err := h.invalidator.GetView(c.Request.Context(), cacheKey, &cached)
	if err != nil {
		h.log.WithField("key", cacheKey).WithError(err).Warn("cache read failed, falling through to repository")
	} else if fresh {
		c.JSON(http.StatusOK, cached)
		return
	}

	projects, err := h.projects.List(session.OrganizationID)
	if err != nil {
		apierrors.InternalError(c, "")
		return
	}

	response := dto.ProjectListResponse{Projects: dto.ToProjectResponses(projects)}

	if err := h.invalidator.PutView(c.Request.Context(), cacheKey, response); err != nil {
		h.log.WithField("key", cacheKey).WithError(err).Warn("cache write failed")
	}

	c.JSON(http.StatusOK, response)
}

// Get handles GET /api/projects/:id
func (h *ProjectHandler) Get(c *gin.Context) {
	session, ok := middleware.GetSession(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	id, err := parseID(c)
	if err != nil {
		apierrors.BadRequest(c, "Invalid project ID")
		return
	}

	project, err := h.projects.FindByID(id, "TeamMembers")
	if err != nil || project.OrganizationID != session.OrganizationID {
		apierrors.NotFound(c, "Project not found")
		return
	}

	c.JSON(http.StatusOK, dto.ToProjectResponse(project))
}

// ListTasks handles GET /api/projects/:id/tasks, served from the project
// tasks view when fresh.
func (h *ProjectHandler) ListTasks(c *gin.Context) {
	session, ok := middleware.GetSession(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	id, err := parseID(c)
	if err != nil {
		apierrors.BadRequest(c, "Invalid project ID")
		return
	}

	project, err := h.projects.FindByID(id)
	if err != nil || project.OrganizationID != session.OrganizationID {
		apierrors.NotFound(c, "Project not found")
		return
	}

	cacheKey := cache.ProjectTasksKey(id)

	var cached []dto.TaskResponse
	fresh, err := h.invalidator.GetView(c.Request.Context(), cacheKey, &cached)
	if err != nil {
		h.log.WithField("key", cacheKey).WithError(err).Warn("cache read failed, falling through to repository")
	} else if fresh {
		c.JSON(http.StatusOK, gin.H{"tasks": cached})
		return
	}

	tasks, err := h.tasks.ListByProject(id)
	if err != nil {
		apierrors.InternalError(c, "")
		return
	}

	response := dto.ToTaskResponses(tasks)
	if err := h.invalidator.PutView(c.Request.Context(), cacheKey, response); err != nil {
		h.log.WithField("key", cacheKey).WithError(err).Warn("cache write failed")
	}

	c.JSON(http.StatusOK, gin.H{"tasks": response})
}

// Update handles PUT /api/projects/:id
func (h *ProjectHandler) Update(c *gin.Context) {
	session, ok := middleware.GetSession(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	id, err := parseID(c)
	if err != nil {
		apierrors.BadRequest(c, "Invalid project ID")
		return
	}

	var req dto.UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, err.Error())
		return
	}

	result, err := h.orch.Execute(c.Request.Context(), session, orchestrator.UpdateProject{
		ProjectID:   id,
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
	})
	if err != nil {
		respondMutationError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToProjectResponse(result.Project))
}

// Delete handles DELETE /api/projects/:id
func (h *ProjectHandler) Delete(c *gin.Context) {
	session, ok := middleware.GetSession(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	id, err := parseID(c)
	if err != nil {
		apierrors.BadRequest(c, "Invalid project ID")
		return
	}

	if _, err := h.orch.Execute(c.Request.Context(), session, orchestrator.DeleteProject{ProjectID: id}); err != nil {
		respondMutationError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Project deleted"})
}
