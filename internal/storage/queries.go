package storage

// SQL lives here so the repository methods stay readable.

const jobColumns = `
	id, job_type, filters, status, processed_items, total_items,
	file_path, file_url_hash, error_message, requester_id,
	notification_email, schedule_id, created_at, updated_at, completed_at`

const queryInsertJob = `
	INSERT INTO export_jobs (
		job_type, filters, status, file_url_hash,
		requester_id, notification_email, schedule_id
	) VALUES ($1, $2, $3, $4, $5, $6, $7)
	RETURNING id`

const queryGetJob = `
	SELECT ` + jobColumns + `
	FROM export_jobs
	WHERE id = $1`

const queryListJobsByStatus = `
	SELECT ` + jobColumns + `
	FROM export_jobs
	WHERE status = $1
	ORDER BY created_at ASC, id ASC
	LIMIT $2`

const queryListJobsByRequester = `
	SELECT ` + jobColumns + `
	FROM export_jobs
	WHERE requester_id = $1
	ORDER BY created_at DESC, id DESC
	LIMIT $2`

// Conditional claim: succeeds only while the row is still pending, so two
// concurrent worker ticks can never advance the same job.
const queryClaimJob = `
	UPDATE export_jobs
	SET status = $1, updated_at = NOW()
	WHERE id = $2 AND status = $3
	RETURNING ` + jobColumns

const queryUpdateJobProgress = `
	UPDATE export_jobs
	SET processed_items = $1, updated_at = NOW()
	WHERE id = $2`

const queryUpdateJobProgressTotal = `
	UPDATE export_jobs
	SET processed_items = $1, total_items = $2, updated_at = NOW()
	WHERE id = $3`

const queryCancelJob = `
	UPDATE export_jobs
	SET status = $1, error_message = $2, updated_at = NOW()
	WHERE id = $3 AND status = $4`

const queryDeleteJob = `
	DELETE FROM export_jobs
	WHERE id = $1`

const queryListExpiredJobs = `
	SELECT ` + jobColumns + `
	FROM export_jobs
	WHERE status = $1 AND completed_at < $2`

const queryDeleteExpiredJobs = `
	DELETE FROM export_jobs
	WHERE status = $1 AND completed_at < $2`

const scheduleColumns = `
	id, name, job_type, template_id, frequency_type, frequency_value,
	start_date, next_run_at, last_run_at, notification_email, filters,
	is_active, created_by, created_at, updated_at`

const queryInsertSchedule = `
	INSERT INTO export_schedules (
		name, job_type, template_id, frequency_type, frequency_value,
		start_date, next_run_at, notification_email, filters, is_active, created_by
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	RETURNING id`

const queryGetSchedule = `
	SELECT ` + scheduleColumns + `
	FROM export_schedules
	WHERE id = $1`

const queryListSchedules = `
	SELECT ` + scheduleColumns + `
	FROM export_schedules
	ORDER BY created_at DESC`

const queryListActiveSchedules = `
	SELECT ` + scheduleColumns + `
	FROM export_schedules
	WHERE is_active = TRUE
	ORDER BY created_at DESC`

const queryListDueSchedules = `
	SELECT ` + scheduleColumns + `
	FROM export_schedules
	WHERE is_active = TRUE AND next_run_at <= $1
	ORDER BY next_run_at ASC`

const queryUpdateSchedule = `
	UPDATE export_schedules
	SET name = $1, job_type = $2, template_id = $3, frequency_type = $4,
	    frequency_value = $5, start_date = $6, next_run_at = $7,
	    notification_email = $8, filters = $9, is_active = $10, updated_at = NOW()
	WHERE id = $11`

const queryMarkScheduleRun = `
	UPDATE export_schedules
	SET last_run_at = $1, next_run_at = $2, updated_at = NOW()
	WHERE id = $3`

const queryToggleSchedule = `
	UPDATE export_schedules
	SET is_active = $1, updated_at = NOW()
	WHERE id = $2`

const queryDeleteSchedule = `
	DELETE FROM export_schedules
	WHERE id = $1`

const templateColumns = `
	id, name, description, selected_fields, field_aliases, field_order,
	created_at, updated_at`

const queryInsertTemplate = `
	INSERT INTO export_templates (
		name, description, selected_fields, field_aliases, field_order
	) VALUES ($1, $2, $3, $4, $5)
	RETURNING id`

const queryGetTemplate = `
	SELECT ` + templateColumns + `
	FROM export_templates
	WHERE id = $1`

const queryListTemplates = `
	SELECT ` + templateColumns + `
	FROM export_templates
	ORDER BY name ASC`

const queryUpdateTemplate = `
	UPDATE export_templates
	SET name = $1, description = $2, selected_fields = $3,
	    field_aliases = $4, field_order = $5, updated_at = NOW()
	WHERE id = $6`

const queryDeleteTemplate = `
	DELETE FROM export_templates
	WHERE id = $1`

const queryUserEmail = `
	SELECT email
	FROM users
	WHERE id = $1`
