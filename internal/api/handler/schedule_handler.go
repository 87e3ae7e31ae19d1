package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mkowalczyk/shop-exporter/internal/api/dto"
	"github.com/mkowalczyk/shop-exporter/internal/export/domain"
)

// ScheduleHandler handles recurring export schedule HTTP requests
type ScheduleHandler struct {
	deps *Dependencies
}

func NewScheduleHandler(deps *Dependencies) *ScheduleHandler {
	return &ScheduleHandler{deps: deps}
}

// CreateSchedule handles POST /api/v1/schedules
func (h *ScheduleHandler) CreateSchedule(c *gin.Context) {
	userID, _ := CurrentUser(c)

	s, ok := h.bindSchedule(c)
	if !ok {
		return
	}
	s.CreatedBy = userID

	id, err := h.deps.Schedules.Create(c.Request.Context(), s)
	if err != nil {
		h.deps.Logger.Error("Failed to create schedule", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create schedule"})
		return
	}

	created, err := h.deps.Schedules.Get(c.Request.Context(), id)
	if err != nil {
		h.deps.Logger.Error("Failed to load created schedule",
			slog.Int64("schedule_id", id),
			slog.String("error", err.Error()),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load created schedule"})
		return
	}

	c.JSON(http.StatusCreated, dto.ScheduleFromDomain(created))
}

// ListSchedules handles GET /api/v1/schedules
func (h *ScheduleHandler) ListSchedules(c *gin.Context) {
	activeOnly := c.Query("active") == "true"

	schedules, err := h.deps.Schedules.List(c.Request.Context(), activeOnly)
	if err != nil {
		h.deps.Logger.Error("Failed to list schedules", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list schedules"})
		return
	}

	out := make([]dto.ScheduleDTO, 0, len(schedules))
	for i := range schedules {
		out = append(out, dto.ScheduleFromDomain(&schedules[i]))
	}
	c.JSON(http.StatusOK, gin.H{"schedules": out})
}

// GetSchedule handles GET /api/v1/schedules/:schedule_id
func (h *ScheduleHandler) GetSchedule(c *gin.Context) {
	s, ok := h.pathSchedule(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, dto.ScheduleFromDomain(s))
}

// UpdateSchedule handles PUT /api/v1/schedules/:schedule_id
// Changing the recurrence recomputes next_run_at from the new definition.
func (h *ScheduleHandler) UpdateSchedule(c *gin.Context) {
	existing, ok := h.pathSchedule(c)
	if !ok {
		return
	}

	s, ok := h.bindSchedule(c)
	if !ok {
		return
	}

	if err := h.deps.Schedules.Update(c.Request.Context(), existing.ID, s); err != nil {
		h.deps.Logger.Error("Failed to update schedule",
			slog.Int64("schedule_id", existing.ID),
			slog.String("error", err.Error()),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update schedule"})
		return
	}

	updated, err := h.deps.Schedules.Get(c.Request.Context(), existing.ID)
	if err != nil {
		h.deps.Logger.Error("Failed to load updated schedule",
			slog.Int64("schedule_id", existing.ID),
			slog.String("error", err.Error()),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load updated schedule"})
		return
	}

	c.JSON(http.StatusOK, dto.ScheduleFromDomain(updated))
}

// ToggleSchedule handles POST /api/v1/schedules/:schedule_id/toggle
// Deactivated schedules keep their next_run_at but are skipped by the
// schedule worker until reactivated.
func (h *ScheduleHandler) ToggleSchedule(c *gin.Context) {
	s, ok := h.pathSchedule(c)
	if !ok {
		return
	}

	var req dto.ToggleScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "is_active is required"})
		return
	}

	if err := h.deps.Schedules.ToggleActive(c.Request.Context(), s.ID, *req.IsActive); err != nil {
		h.deps.Logger.Error("Failed to toggle schedule",
			slog.Int64("schedule_id", s.ID),
			slog.String("error", err.Error()),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to toggle schedule"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": s.ID, "is_active": *req.IsActive})
}

// DeleteSchedule handles DELETE /api/v1/schedules/:schedule_id
// Jobs already spawned by the schedule are kept.
func (h *ScheduleHandler) DeleteSchedule(c *gin.Context) {
	s, ok := h.pathSchedule(c)
	if !ok {
		return
	}

	if err := h.deps.Schedules.Delete(c.Request.Context(), s.ID); err != nil {
		h.deps.Logger.Error("Failed to delete schedule",
			slog.Int64("schedule_id", s.ID),
			slog.String("error", err.Error()),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete schedule"})
		return
	}

	c.Status(http.StatusNoContent)
}

// bindSchedule parses and validates the request body into a domain schedule.
// A false return means the error response was already written.
func (h *ScheduleHandler) bindSchedule(c *gin.Context) (*domain.Schedule, bool) {
	var req dto.ScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return nil, false
	}

	startDate, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "start_date must be YYYY-MM-DD"})
		return nil, false
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	s := &domain.Schedule{
		Name:              req.Name,
		JobType:           req.JobType,
		TemplateID:        req.TemplateID,
		FrequencyType:     req.FrequencyType,
		FrequencyValue:    req.FrequencyValue,
		StartDate:         startDate,
		NotificationEmail: req.NotificationEmail,
		Filters:           domain.Filters(req.Filters),
		IsActive:          active,
	}
	if err := s.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}
	return s, true
}

func (h *ScheduleHandler) pathSchedule(c *gin.Context) (*domain.Schedule, bool) {
	id, err := strconv.ParseInt(c.Param("schedule_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "schedule_id must be an integer"})
		return nil, false
	}

	s, err := h.deps.Schedules.Get(c.Request.Context(), id)
	if errors.Is(err, domain.ErrScheduleNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Schedule not found"})
		return nil, false
	}
	if err != nil {
		h.deps.Logger.Error("Failed to get schedule",
			slog.Int64("schedule_id", id),
			slog.String("error", err.Error()),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get schedule"})
		return nil, false
	}
	return s, true
}
