package domain

import (
	"fmt"
	"time"
)

// Schedule is a recurrence definition that periodically spawns export jobs.
type Schedule struct {
	ID                int64      `db:"id"`
	Name              string     `db:"name"`
	JobType           string     `db:"job_type"`
	TemplateID        *int64     `db:"template_id"`
	FrequencyType     string     `db:"frequency_type"`
	FrequencyValue    int        `db:"frequency_value"`
	StartDate         time.Time  `db:"start_date"`
	NextRunAt         time.Time  `db:"next_run_at"`
	LastRunAt         *time.Time `db:"last_run_at"`
	NotificationEmail *string    `db:"notification_email"`
	Filters           Filters    `db:"filters"`
	IsActive          bool       `db:"is_active"`
	CreatedBy         int64      `db:"created_by"`
	CreatedAt         time.Time  `db:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at"`
}

// Validate checks the recurrence definition.
func (s *Schedule) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("schedule name is required")
	}
	if !ValidJobType(s.JobType) {
		return fmt.Errorf("unknown job type %q", s.JobType)
	}
	if s.JobType == JobTypeCustom && s.TemplateID == nil {
		return fmt.Errorf("custom export schedule requires a template_id")
	}
	if !ValidFrequencyType(s.FrequencyType) {
		return fmt.Errorf("unknown frequency type %q", s.FrequencyType)
	}

	switch s.FrequencyType {
	case FrequencyDaily:
		if s.FrequencyValue < 1 {
			return fmt.Errorf("daily interval must be at least 1 day, got %d", s.FrequencyValue)
		}
	case FrequencyWeekly:
		if s.FrequencyValue < 1 || s.FrequencyValue > 7 {
			return fmt.Errorf("weekly target must be an ISO weekday 1-7, got %d", s.FrequencyValue)
		}
	case FrequencyMonthly:
		if s.FrequencyValue < 1 || s.FrequencyValue > 31 {
			return fmt.Errorf("monthly target must be a day of month 1-31, got %d", s.FrequencyValue)
		}
	}

	if s.StartDate.IsZero() {
		return fmt.Errorf("schedule start date is required")
	}
	return nil
}

// FrequencyDescription renders the recurrence in human-readable form.
func (s *Schedule) FrequencyDescription() string {
	switch s.FrequencyType {
	case FrequencyDaily:
		if s.FrequencyValue == 1 {
			return "every day"
		}
		return fmt.Sprintf("every %d days", s.FrequencyValue)
	case FrequencyWeekly:
		return fmt.Sprintf("every week on %s", time.Weekday(s.FrequencyValue%7).String())
	case FrequencyMonthly:
		return fmt.Sprintf("every month on day %d", s.FrequencyValue)
	default:
		return "unknown"
	}
}
