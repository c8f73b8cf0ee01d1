package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/teamtaskhq/teamtask-api/internal/cache"
	"github.com/teamtaskhq/teamtask-api/internal/constants"
	"github.com/teamtaskhq/teamtask-api/internal/dto"
	apierrors "github.com/teamtaskhq/teamtask-api/internal/errors"
	"github.com/teamtaskhq/teamtask-api/internal/middleware"
	"github.com/teamtaskhq/teamtask-api/internal/models"
	"github.com/teamtaskhq/teamtask-api/internal/orchestrator"
	"github.com/teamtaskhq/teamtask-api/internal/repository"
	"github.com/teamtaskhq/teamtask-api/internal/utils"
)

// TaskHandler routes task mutations through the orchestrator and serves task
// list views through the cache.
type TaskHandler struct {
	orch        *orchestrator.Orchestrator
	tasks       repository.TaskRepository
	invalidator *cache.Invalidator
	log         *logrus.Logger
}

// NewTaskHandler creates a new TaskHandler
func NewTaskHandler(orch *orchestrator.Orchestrator, tasks repository.TaskRepository, invalidator *cache.Invalidator, log *logrus.Logger) *TaskHandler {
	return &TaskHandler{orch: orch, tasks: tasks, invalidator: invalidator, log: log}
}

// Create handles POST /api/tasks
func (h *TaskHandler) Create(c *gin.Context) {
	session, ok := middleware.GetSession(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	var req dto.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, err.Error())
		return
	}

	result, err := h.orch.Execute(c.Request.Context(), session, orchestrator.CreateTask{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		Deadline:    req.Deadline,
		ProjectID:   req.ProjectID,
		AssigneeIDs: req.AssigneeIDs,
	})
	if err != nil {
		respondMutationError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToTaskResponse(result.Task))
}

// List handles GET /api/tasks. Unfiltered first-page reads are served from
// the view cache; any filter bypasses the cache and hits the repository.
func (h *TaskHandler) List(c *gin.Context) {
	session, ok := middleware.GetSession(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	params := utils.GetPaginationParams(c)
	filter := repository.TaskFilter{
		OrganizationID: session.OrganizationID,
		Page:           params.Page,
		PageSize:       params.Limit,
	}

	filtered := false
	mine := c.Query("mine") == "true"
	if mine {
		actorID := session.ActorID
		filter.AssignedUserID = &actorID
	}
	if raw := c.Query("project_id"); raw != "" {
		if id, err := strconv.ParseUint(raw, 10, 64); err == nil {
			filter.ProjectID = &id
			filtered = true
		}
	}
	if raw := c.Query("status"); raw != "" {
		status := models.TaskStatus(raw)
		filter.Status = &status
		filtered = true
	}
	if raw := c.Query("deadline_from"); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			filter.DeadlineFrom = &t
			filtered = true
		}
	}
	if raw := c.Query("deadline_to"); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			filter.DeadlineTo = &t
			filtered = true
		}
	}
	if c.Query("sort") == "deadline" {
		filter.SortByDeadline = true
		filtered = true
	}

	cacheKey := ""
	if !filtered && params.Page == constants.MinPageSize && params.Limit == constants.DefaultPageSize {
		if mine {
			cacheKey = cache.PersonalTasksKey(session.OrganizationID, session.ActorID)
		} else {
			cacheKey = cache.OrgTasksKey(session.OrganizationID)
		}
	}

	if cacheKey != "" {
		var cached dto.TaskListResponse
		fresh, err := h.invalidator.GetView(c.Request.Context(), cacheKey, &cached)
		if err != nil {
			h.log.WithField("key", cacheKey).WithError(err).Warn("cache read failed, falling through to repository")
		} else if fresh {
			c.JSON(http.StatusOK, cached)
			return
		}
	}

	tasks, total, err := h.tasks.List(filter)
	if err != nil {
		apierrors.InternalError(c, "")
		return
	}

	response := dto.TaskListResponse{
		Tasks: dto.ToTaskResponses(tasks),
		Pagination: utils.PaginationResponse{
			Page:  params.Page,
			Limit: params.Limit,
			Total: total,
		},
	}

	if cacheKey != "" {
		if err := h.invalidator.PutView(c.Request.Context(), cacheKey, response); err != nil {
			h.log.WithField("key", cacheKey).WithError(err).Warn("cache write failed")
		}
	}

	c.JSON(http.StatusOK, response)
}

// Get handles GET /api/tasks/:id
func (h *TaskHandler) Get(c *gin.Context) {
	session, ok := middleware.GetSession(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	id, err := parseID(c)
	if err != nil {
		apierrors.BadRequest(c, "Invalid task ID")
		return
	}

	task, err := h.tasks.FindByID(id, "Assignments")
	if err != nil || task.OrganizationID != session.OrganizationID {
		apierrors.NotFound(c, "Task not found")
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskResponse(task))
}

// Update handles PUT /api/tasks/:id
func (h *TaskHandler) Update(c *gin.Context) {
	session, ok := middleware.GetSession(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	id, err := parseID(c)
	if err != nil {
		apierrors.BadRequest(c, "Invalid task ID")
		return
	}

	var req dto.UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, err.Error())
		return
	}

	result, err := h.orch.Execute(c.Request.Context(), session, orchestrator.UpdateTask{
		TaskID:        id,
		Title:         req.Title,
		Description:   req.Description,
		Priority:      req.Priority,
		Deadline:      req.Deadline,
		ClearDeadline: req.ClearDeadline,
	})
	if err != nil {
		respondMutationError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskResponse(result.Task))
}

// ChangeStatus handles PATCH /api/tasks/:id/status
func (h *TaskHandler) ChangeStatus(c *gin.Context) {
	session, ok := middleware.GetSession(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	id, err := parseID(c)
	if err != nil {
		apierrors.BadRequest(c, "Invalid task ID")
		return
	}

	var req dto.ChangeTaskStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, err.Error())
		return
	}

	result, err := h.orch.Execute(c.Request.Context(), session, orchestrator.ChangeTaskStatus{
		TaskID: id,
		Status: req.Status,
	})
	if err != nil {
		respondMutationError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskResponse(result.Task))
}

// Assign handles PATCH /api/tasks/:id/assign
func (h *TaskHandler) Assign(c *gin.Context) {
	session, ok := middleware.GetSession(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	id, err := parseID(c)
	if err != nil {
		apierrors.BadRequest(c, "Invalid task ID")
		return
	}

	var req dto.AssignTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, err.Error())
		return
	}

	result, err := h.orch.Execute(c.Request.Context(), session, orchestrator.AssignTask{
		TaskID:      id,
		AssigneeIDs: req.AssigneeIDs,
	})
	if err != nil {
		respondMutationError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskResponse(result.Task))
}

// Delete handles DELETE /api/tasks/:id
func (h *TaskHandler) Delete(c *gin.Context) {
	session, ok := middleware.GetSession(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	id, err := parseID(c)
	if err != nil {
		apierrors.BadRequest(c, "Invalid task ID")
		return
	}

	if _, err := h.orch.Execute(c.Request.Context(), session, orchestrator.DeleteTask{TaskID: id}); err != nil {
		respondMutationError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Task deleted"})
}

func parseID(c *gin.Context) (uint64, error) {
	return strconv.ParseUint(c.Param("id"), 10, 64)
}
