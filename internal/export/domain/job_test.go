package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestValidateJobRequest(t *testing.T) {
	tests := []struct {
		name    string
		jobType string
		filters Filters
		email   *string
		wantErr string
	}{
		{
			name:    "valid marketing request",
			jobType: JobTypeMarketing,
			filters: Filters{FilterStartDate: "2025-01-01", FilterEndDate: "2025-01-31"},
		},
		{
			name:    "valid request without filters",
			jobType: JobTypeAnalytics,
		},
		{
			name:    "unknown job type",
			jobType: "bogus_export",
			wantErr: "unknown job type",
		},
		{
			name:    "invalid start date",
			jobType: JobTypeMarketing,
			filters: Filters{FilterStartDate: "01/01/2025"},
			wantErr: "invalid start_date",
		},
		{
			name:    "invalid end date",
			jobType: JobTypeMarketing,
			filters: Filters{FilterEndDate: "yesterday"},
			wantErr: "invalid end_date",
		},
		{
			name:    "end before start",
			jobType: JobTypeMarketing,
			filters: Filters{FilterStartDate: "2025-02-01", FilterEndDate: "2025-01-01"},
			wantErr: "before start_date",
		},
		{
			name:    "custom export requires template",
			jobType: JobTypeCustom,
			wantErr: "template_id",
		},
		{
			name:    "custom export with template is valid",
			jobType: JobTypeCustom,
			filters: Filters{FilterTemplateID: "7"},
		},
		{
			name:    "valid notification email list",
			jobType: JobTypeMarketing,
			email:   strPtr("a@example.com, b@example.com"),
		},
		{
			name:    "invalid notification email",
			jobType: JobTypeMarketing,
			email:   strPtr("not-an-address"),
			wantErr: "invalid notification email",
		},
		{
			name:    "empty notification email list",
			jobType: JobTypeMarketing,
			email:   strPtr(" , "),
			wantErr: "empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateJobRequest(tt.jobType, tt.filters, tt.email)
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestJob_Recipients(t *testing.T) {
	t.Run("explicit list overrides", func(t *testing.T) {
		job := &Job{NotificationEmail: strPtr(" a@example.com ,b@example.com,")}
		assert.Equal(t, []string{"a@example.com", "b@example.com"}, job.Recipients())
	})

	t.Run("no override yields nil", func(t *testing.T) {
		job := &Job{}
		assert.Nil(t, job.Recipients())
	})
}

func TestFilters_Merge(t *testing.T) {
	base := Filters{"start_date": "2025-01-01", "category": "books"}
	merged := base.Merge(Filters{"start_date": "2025-02-01", "end_date": "2025-02-28"})

	assert.Equal(t, Filters{
		"start_date": "2025-02-01",
		"end_date":   "2025-02-28",
		"category":   "books",
	}, merged)

	// The receiver is untouched.
	assert.Equal(t, "2025-01-01", base["start_date"])
	assert.NotContains(t, base, "end_date")
}

func TestFilters_ScanValue(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		f := Filters{"start_date": "2025-01-01"}
		v, err := f.Value()
		require.NoError(t, err)

		var scanned Filters
		require.NoError(t, scanned.Scan(v))
		assert.Equal(t, f, scanned)
	})

	t.Run("empty filters store NULL", func(t *testing.T) {
		v, err := Filters{}.Value()
		require.NoError(t, err)
		assert.Nil(t, v)
	})

	t.Run("NULL scans to nil", func(t *testing.T) {
		var f Filters
		require.NoError(t, f.Scan(nil))
		assert.Nil(t, f)
	})
}
