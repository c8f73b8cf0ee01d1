package dto

import "github.com/teamtaskhq/teamtask-api/internal/models"

type ChangeRoleRequest struct {
	Role models.Role `json:"role" binding:"required,oneof=user team_leader manager admin superadmin"`
}
