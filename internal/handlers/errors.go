package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	apierrors "github.com/teamtaskhq/teamtask-api/internal/errors"
	"github.com/teamtaskhq/teamtask-api/internal/orchestrator"
)

// respondMutationError maps orchestrator sentinels onto HTTP responses.
func respondMutationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, orchestrator.ErrUnauthorized):
		apierrors.Forbidden(c, "")
	case errors.Is(err, orchestrator.ErrValidation):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, orchestrator.ErrNotFound):
		apierrors.NotFound(c, "")
	case errors.Is(err, orchestrator.ErrTransferIncomplete):
		apierrors.Conflict(c, "Role transfer incomplete, retry the same request")
	case errors.Is(err, orchestrator.ErrRemoteWrite):
		apierrors.BadGateway(c, "")
	default:
		apierrors.InternalError(c, "")
	}
}
