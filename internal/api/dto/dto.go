package dto

import (
	"time"

	"github.com/mkowalczyk/shop-exporter/internal/export/domain"
)

type CreateJobRequest struct {
	JobType           string            `json:"job_type" binding:"required"`
	Filters           map[string]string `json:"filters"`
	NotificationEmail *string           `json:"notification_email"`
}

type ListJobsRequest struct {
	Status string `form:"status"`
	Limit  int    `form:"limit"`
}

type JobDTO struct {
	ID                int64             `json:"id"`
	JobType           string            `json:"job_type"`
	Filters           map[string]string `json:"filters,omitempty"`
	Status            string            `json:"status"`
	ProcessedItems    int               `json:"processed_items"`
	TotalItems        int               `json:"total_items"`
	FileURLHash       string            `json:"file_url_hash,omitempty"`
	ErrorMessage      *string           `json:"error_message,omitempty"`
	RequesterID       int64             `json:"requester_id"`
	NotificationEmail *string           `json:"notification_email,omitempty"`
	ScheduleID        *int64            `json:"schedule_id,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
	CompletedAt       *time.Time        `json:"completed_at,omitempty"`
}

// JobFromDomain maps a job onto its API shape. The server-side file path
// never leaves the API; downloads go through the token endpoint.
func JobFromDomain(j *domain.Job) JobDTO {
	return JobDTO{
		ID:                j.ID,
		JobType:           j.JobType,
		Filters:           j.Filters,
		Status:            j.Status,
		ProcessedItems:    j.ProcessedItems,
		TotalItems:        j.TotalItems,
		FileURLHash:       j.FileURLHash,
		ErrorMessage:      j.ErrorMessage,
		RequesterID:       j.RequesterID,
		NotificationEmail: j.NotificationEmail,
		ScheduleID:        j.ScheduleID,
		CreatedAt:         j.CreatedAt,
		UpdatedAt:         j.UpdatedAt,
		CompletedAt:       j.CompletedAt,
	}
}

type ScheduleRequest struct {
	Name              string            `json:"name" binding:"required"`
	JobType           string            `json:"job_type" binding:"required"`
	TemplateID        *int64            `json:"template_id"`
	FrequencyType     string            `json:"frequency_type" binding:"required"`
	FrequencyValue    int               `json:"frequency_value" binding:"required"`
	StartDate         string            `json:"start_date" binding:"required"`
	NotificationEmail *string           `json:"notification_email"`
	Filters           map[string]string `json:"filters"`
	IsActive          *bool             `json:"is_active"`
}

type ToggleScheduleRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

type ScheduleDTO struct {
	ID                int64             `json:"id"`
	Name              string            `json:"name"`
	JobType           string            `json:"job_type"`
	TemplateID        *int64            `json:"template_id,omitempty"`
	FrequencyType     string            `json:"frequency_type"`
	FrequencyValue    int               `json:"frequency_value"`
	Frequency         string            `json:"frequency"`
	StartDate         time.Time         `json:"start_date"`
	NextRunAt         time.Time         `json:"next_run_at"`
	LastRunAt         *time.Time        `json:"last_run_at,omitempty"`
	NotificationEmail *string           `json:"notification_email,omitempty"`
	Filters           map[string]string `json:"filters,omitempty"`
	IsActive          bool              `json:"is_active"`
	CreatedBy         int64             `json:"created_by"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

func ScheduleFromDomain(s *domain.Schedule) ScheduleDTO {
	return ScheduleDTO{
		ID:                s.ID,
		Name:              s.Name,
		JobType:           s.JobType,
		TemplateID:        s.TemplateID,
		FrequencyType:     s.FrequencyType,
		FrequencyValue:    s.FrequencyValue,
		Frequency:         s.FrequencyDescription(),
		StartDate:         s.StartDate,
		NextRunAt:         s.NextRunAt,
		LastRunAt:         s.LastRunAt,
		NotificationEmail: s.NotificationEmail,
		Filters:           s.Filters,
		IsActive:          s.IsActive,
		CreatedBy:         s.CreatedBy,
		CreatedAt:         s.CreatedAt,
		UpdatedAt:         s.UpdatedAt,
	}
}

type TemplateRequest struct {
	Name           string            `json:"name" binding:"required"`
	Description    string            `json:"description"`
	SelectedFields []string          `json:"selected_fields" binding:"required"`
	FieldAliases   map[string]string `json:"field_aliases"`
	FieldOrder     []string          `json:"field_order"`
}

type TemplateDTO struct {
	ID             int64             `json:"id"`
	Name           string            `json:"name"`
	Description    string            `json:"description,omitempty"`
	SelectedFields []string          `json:"selected_fields"`
	FieldAliases   map[string]string `json:"field_aliases,omitempty"`
	FieldOrder     []string          `json:"field_order,omitempty"`
	Columns        []string          `json:"columns"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

func TemplateFromDomain(t *domain.Template) TemplateDTO {
	return TemplateDTO{
		ID:             t.ID,
		Name:           t.Name,
		Description:    t.Description,
		SelectedFields: t.SelectedFields,
		FieldAliases:   t.FieldAliases,
		FieldOrder:     t.FieldOrder,
		Columns:        t.Headers(),
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
	}
}
