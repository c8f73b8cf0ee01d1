package middleware

import (
	"github.com/gin-gonic/gin"
	apierrors "github.com/teamtaskhq/teamtask-api/internal/errors"
	"github.com/teamtaskhq/teamtask-api/internal/models"
	"github.com/teamtaskhq/teamtask-api/internal/roles"
)

// RequireRole gates a route on the role hierarchy. The orchestrator
// re-checks authorization per action; this middleware only short-circuits
// requests that could never pass.
func RequireRole(hierarchy roles.Hierarchy, required models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, ok := GetSession(c)
		if !ok {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		if !hierarchy.HasAccess(session.Role, required) {
			apierrors.Forbidden(c, "")
			c.Abort()
			return
		}

		c.Next()
	}
}
