package domain

// Job status constants
const (
	JobStatusPending    = "pending"
	JobStatusProcessing = "processing"
	JobStatusCompleted  = "completed"
	JobStatusFailed     = "failed"
)

// Job type constants
const (
	JobTypeMarketing = "marketing_export"
	JobTypeAnalytics = "analytics_export"
	JobTypeCustom    = "custom_export"
)

// Schedule frequency constants
const (
	FrequencyDaily   = "daily"
	FrequencyWeekly  = "weekly"
	FrequencyMonthly = "monthly"
)

// Well-known filter keys
const (
	FilterStartDate  = "start_date"
	FilterEndDate    = "end_date"
	FilterTemplateID = "template_id"
)

// ValidJobType reports whether t is one of the supported export types.
func ValidJobType(t string) bool {
	switch t {
	case JobTypeMarketing, JobTypeAnalytics, JobTypeCustom:
		return true
	}
	return false
}

// ValidFrequencyType reports whether f is a supported recurrence frequency.
func ValidFrequencyType(f string) bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly:
		return true
	}
	return false
}
