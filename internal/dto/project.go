package dto

import (
	"time"

	"github.com/teamtaskhq/teamtask-api/internal/models"
)

type CreateProjectRequest struct {
	Title         string   `json:"title" binding:"required"`
	Description   string   `json:"description"`
	ManagerID     uint64   `json:"manager_id"`
	TeamMemberIDs []uint64 `json:"team_member_ids"`
}

type UpdateProjectRequest struct {
	Title       *string               `json:"title"`
	Description *string               `json:"description"`
	Status      *models.ProjectStatus `json:"status" binding:"omitempty,oneof=TODO IN_PROGRESS COMPLETED"`
}

type ProjectResponse struct {
	ID            uint64               `json:"id"`
	Title         string               `json:"title"`
	Description   string               `json:"description"`
	Status        models.ProjectStatus `json:"status"`
	IsCompleted   bool                 `json:"is_completed"`
	ManagerID     uint64               `json:"manager_id"`
	TeamMemberIDs []uint64             `json:"team_member_ids"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
}

func ToProjectResponse(project *models.Project) ProjectResponse {
	memberIDs := make([]uint64, 0, len(project.TeamMembers))
	for _, m := range project.TeamMembers {
		memberIDs = append(memberIDs, m.UserID)
	}
	return ProjectResponse{
		ID:            project.ID,
		Title:         project.Title,
		Description:   project.Description,
		Status:        project.Status,
		IsCompleted:   project.IsCompleted,
		ManagerID:     project.ManagerID,
		TeamMemberIDs: memberIDs,
		CreatedAt:     project.CreatedAt,
		UpdatedAt:     project.UpdatedAt,
	}
}

func ToProjectResponses(projects []models.Project) []ProjectResponse {
	responses := make([]ProjectResponse, len(projects))
	for i := range projects {
		responses[i] = ToProjectResponse(&projects[i])
	}
	return responses
}

// ProjectListResponse is the cacheable shape of a project list view.
type ProjectListResponse struct {
	Projects []ProjectResponse `json:"projects"`
}
