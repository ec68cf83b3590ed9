package dto

import "ideawalker-core/internal/entity"

type NoteSummary struct {
	Id          string              `json:"id"`
	Title       string              `json:"title"`
	Date        string              `json:"date"`
	Tags        []string            `json:"tags"`
	Actionables []entity.Actionable `json:"actionables"`
}

type NoteDetailResponse struct {
	Id        string   `json:"id"`
	Content   string   `json:"content"`
	Versions  []string `json:"versions"`
	Backlinks []string `json:"backlinks"`
}

type UpdateNoteRequest struct {
	Content string `json:"content" validate:"required"`
}
