package dto

import "github.com/google/uuid"

type CreateReportRequest struct {
	TopicID uuid.UUID `json:"topic_id"`
	Reason  string    `json:"reason"`
}

type ActionReportRequest struct {
	Status    string `json:"status"`
	AdminNote string `json:"admin_note"`
}
