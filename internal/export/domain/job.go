package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"net/mail"
	"strings"
	"time"
)

// Filters holds the key/value filter set attached to a job or schedule.
// Stored as a JSON text column.
type Filters map[string]string

// Value implements driver.Valuer. Empty filter sets are stored as NULL.
func (f Filters) Value() (driver.Value, error) {
	if len(f) == 0 {
		return nil, nil
	}
	return json.Marshal(f)
}

// Scan implements sql.Scanner.
func (f *Filters) Scan(src interface{}) error {
	if src == nil {
		*f = nil
		return nil
	}
	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("filters: unsupported scan type %T", src)
	}
	if len(data) == 0 {
		*f = nil
		return nil
	}
	return json.Unmarshal(data, f)
}

// Merge returns a copy of f with overrides applied on top. Overriding keys win.
func (f Filters) Merge(overrides Filters) Filters {
	merged := make(Filters, len(f)+len(overrides))
	for k, v := range f {
		merged[k] = v
	}
	for k, v := range overrides {
		merged[k] = v
	}
	return merged
}

// Job is one export request's persisted execution record.
type Job struct {
	ID                int64      `db:"id"`
	JobType           string     `db:"job_type"`
	Filters           Filters    `db:"filters"`
	Status            string     `db:"status"`
	ProcessedItems    int        `db:"processed_items"`
	TotalItems        int        `db:"total_items"`
	FilePath          *string    `db:"file_path"`
	FileURLHash       string     `db:"file_url_hash"`
	ErrorMessage      *string    `db:"error_message"`
	RequesterID       int64      `db:"requester_id"`
	NotificationEmail *string    `db:"notification_email"`
	ScheduleID        *int64     `db:"schedule_id"`
	CreatedAt         time.Time  `db:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at"`
	CompletedAt       *time.Time `db:"completed_at"`
}

// Recipients returns the notification address list for the job: the explicit
// comma-separated override when set, otherwise nil (caller falls back to the
// requester's own address).
func (j *Job) Recipients() []string {
	if j.NotificationEmail == nil {
		return nil
	}
	return SplitEmailList(*j.NotificationEmail)
}

// TypeLabel returns a human-readable label for the job type.
func (j *Job) TypeLabel() string {
	switch j.JobType {
	case JobTypeMarketing:
		return "Marketing"
	case JobTypeAnalytics:
		return "Analytics"
	case JobTypeCustom:
		return "Custom"
	default:
		return j.JobType
	}
}

// SplitEmailList splits a comma-separated address list, trimming whitespace and
// dropping empty entries.
func SplitEmailList(list string) []string {
	parts := strings.Split(list, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// dateLayout is the calendar-date form accepted in filters.
const dateLayout = "2006-01-02"

// ValidateJobRequest checks a job-creation request before it enters the queue.
// Validation failures are rejected synchronously and never become jobs.
func ValidateJobRequest(jobType string, filters Filters, notificationEmail *string) error {
	if !ValidJobType(jobType) {
		return fmt.Errorf("unknown job type %q", jobType)
	}

	var start, end time.Time
	if v := filters[FilterStartDate]; v != "" {
		t, err := time.Parse(dateLayout, v)
		if err != nil {
			return fmt.Errorf("invalid start_date %q: %w", v, err)
		}
		start = t
	}
	if v := filters[FilterEndDate]; v != "" {
		t, err := time.Parse(dateLayout, v)
		if err != nil {
			return fmt.Errorf("invalid end_date %q: %w", v, err)
		}
		end = t
	}
	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		return fmt.Errorf("end_date %s is before start_date %s", filters[FilterEndDate], filters[FilterStartDate])
	}

	if jobType == JobTypeCustom && filters[FilterTemplateID] == "" {
		return fmt.Errorf("custom export requires a template_id filter")
	}

	if notificationEmail != nil {
		addrs := SplitEmailList(*notificationEmail)
		if len(addrs) == 0 {
			return fmt.Errorf("notification email list is empty")
		}
		for _, a := range addrs {
			if _, err := mail.ParseAddress(a); err != nil {
				return fmt.Errorf("invalid notification email %q: %w", a, err)
			}
		}
	}

	return nil
}
