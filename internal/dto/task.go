package dto

import (
	"time"

	"github.com/teamtaskhq/teamtask-api/internal/models"
	"github.com/teamtaskhq/teamtask-api/internal/utils"
)

type CreateTaskRequest struct {
	Title       string              `json:"title" binding:"required"`
	Description string              `json:"description"`
	Priority    models.TaskPriority `json:"priority" binding:"omitempty,oneof=LOW MEDIUM HIGH"`
	Deadline    *time.Time          `json:"deadline"`
	ProjectID   *uint64             `json:"project_id"`
	AssigneeIDs []uint64            `json:"assignee_ids"`
}

type UpdateTaskRequest struct {
	Title         *string              `json:"title"`
	Description   *string              `json:"description"`
	Priority      *models.TaskPriority `json:"priority" binding:"omitempty,oneof=LOW MEDIUM HIGH"`
	Deadline      *time.Time           `json:"deadline"`
	ClearDeadline bool                 `json:"clear_deadline"`
}

type ChangeTaskStatusRequest struct {
	Status models.TaskStatus `json:"status" binding:"required,oneof=TODO IN_PROGRESS COMPLETED"`
}

type AssignTaskRequest struct {
	AssigneeIDs []uint64 `json:"assignee_ids" binding:"required"`
}

type TaskResponse struct {
	ID          uint64              `json:"id"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Status      models.TaskStatus   `json:"status"`
	Priority    models.TaskPriority `json:"priority"`
	Deadline    *time.Time          `json:"deadline"`
	CompletedAt *time.Time          `json:"completed_at"`
	ProjectID   *uint64             `json:"project_id"`
	CreatorID   uint64              `json:"creator_id"`
	AssigneeIDs []uint64            `json:"assignee_ids"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

func ToTaskResponse(task *models.Task) TaskResponse {
	return TaskResponse{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		Status:      task.Status,
		Priority:    task.Priority,
		Deadline:    task.Deadline,
		CompletedAt: task.CompletedAt,
		ProjectID:   task.ProjectID,
		CreatorID:   task.CreatorID,
		AssigneeIDs: task.AssigneeIDs(),
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}
}

func ToTaskResponses(tasks []models.Task) []TaskResponse {
	responses := make([]TaskResponse, len(tasks))
	for i := range tasks {
		responses[i] = ToTaskResponse(&tasks[i])
	}
	return responses
}

// TaskListResponse is the cacheable shape of a task list view.
type TaskListResponse struct {
	Tasks      []TaskResponse           `json:"tasks"`
	Pagination utils.PaginationResponse `json:"pagination"`
}
