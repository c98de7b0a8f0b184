package server

import (
	"github.com/taskflowhq/taskflow/models"
	"github.com/taskflowhq/taskflow/store"
)

// APIResponse is the envelope every successful endpoint returns.
type APIResponse struct {
	Success    bool              `json:"success"`
	Message    string            `json:"message,omitempty"`
	Data       any               `json:"data,omitempty"`
	Pagination *store.Pagination `json:"pagination,omitempty"`
}

// APIErrorResponse is the shared error envelope. Details is either a
// single string or a list of human-readable validation messages.
type APIErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// BulkUpdateRequest is the payload for POST /api/tasks/bulk.
type BulkUpdateRequest struct {
	TaskIDs    []string         `json:"taskIds"`
	UpdateData models.TaskPatch `json:"updateData"`
}

// HealthData reports liveness and which storage variant is serving.
type HealthData struct {
	Status  string `json:"status"`
	Backend string `json:"backend"`
}
