package dto

import "ideawalker-core/internal/task"

type ProcessInboxRequest struct {
	Fast  bool `json:"fast"`
	Force bool `json:"force"`
	// Filename limits the run to one inbox item.
	Filename string `json:"filename" validate:"omitempty,excludesall=/\\"`
}

type IngestScientificRequest struct {
	Purge bool `json:"purge"`
}

type SelectModelRequest struct {
	Model string `json:"model" validate:"required"`
}

type TaskAcceptedResponse struct {
	Task task.Status `json:"task"`
}

type TaskListResponse struct {
	Active []task.Status `json:"active"`
	Recent []task.Status `json:"recent"`
}

type ModelListResponse struct {
	Current   string   `json:"current"`
	Available []string `json:"available"`
}
