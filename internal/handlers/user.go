package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/teamtaskhq/teamtask-api/internal/dto"
	apierrors "github.com/teamtaskhq/teamtask-api/internal/errors"
	"github.com/teamtaskhq/teamtask-api/internal/middleware"
	"github.com/teamtaskhq/teamtask-api/internal/orchestrator"
	"github.com/teamtaskhq/teamtask-api/internal/repository"
)

// UserHandler serves organization membership and role changes.
type UserHandler struct {
	orch  *orchestrator.Orchestrator
	users repository.UserRepository
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(orch *orchestrator.Orchestrator, users repository.UserRepository) *UserHandler {
	return &UserHandler{orch: orch, users: users}
}

// List handles GET /api/users
func (h *UserHandler) List(c *gin.Context) {
	session, ok := middleware.GetSession(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	users, err := h.users.ListByOrganization(session.OrganizationID)
	if err != nil {
		apierrors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{"users": dto.ToUserResponses(users)})
}

// ChangeRole handles PATCH /api/users/:id/role
func (h *UserHandler) ChangeRole(c *gin.Context) {
	session, ok := middleware.GetSession(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	id, err := parseID(c)
	if err != nil {
		apierrors.BadRequest(c, "Invalid user ID")
		return
	}

	var req dto.ChangeRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, err.Error())
		return
	}

	result, err := h.orch.Execute(c.Request.Context(), session, orchestrator.ChangeUserRole{
		TargetUserID: id,
		NewRole:      req.Role,
	})
	if err != nil {
		respondMutationError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToUserResponse(result.User))
}
