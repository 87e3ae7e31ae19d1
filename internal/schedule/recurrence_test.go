package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mkowalczyk/shop-exporter/internal/export/domain"
)

// 2025-03-12 is a Wednesday (ISO weekday 3).
var wednesday = time.Date(2025, 3, 12, 10, 30, 0, 0, time.UTC)

func TestNextRun(t *testing.T) {
	tests := []struct {
		name     string
		freqType string
		value    int
		now      time.Time
		expected time.Time
	}{
		{
			name:     "daily interval of one day",
			freqType: domain.FrequencyDaily,
			value:    1,
			now:      wednesday,
			expected: time.Date(2025, 3, 13, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "daily interval of three days",
			freqType: domain.FrequencyDaily,
			value:    3,
			now:      wednesday,
			expected: time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "weekly later in the same week",
			freqType: domain.FrequencyWeekly,
			value:    5, // Friday
			now:      wednesday,
			expected: time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "weekly on the current weekday skips a full week",
			freqType: domain.FrequencyWeekly,
			value:    3, // Wednesday, same as now
			now:      wednesday,
			expected: time.Date(2025, 3, 19, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "weekly earlier in the week rolls to next week",
			freqType: domain.FrequencyWeekly,
			value:    1, // Monday
			now:      wednesday,
			expected: time.Date(2025, 3, 17, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "weekly from a sunday treats sunday as day seven",
			freqType: domain.FrequencyWeekly,
			value:    7,
			now:      time.Date(2025, 3, 16, 8, 0, 0, 0, time.UTC), // Sunday
			expected: time.Date(2025, 3, 23, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "monthly clamps day 31 to a short month",
			freqType: domain.FrequencyMonthly,
			value:    31,
			now:      time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC),
			expected: time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "monthly regular day",
			freqType: domain.FrequencyMonthly,
			value:    10,
			now:      wednesday,
			expected: time.Date(2025, 4, 10, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "monthly day 30 into april is kept",
			freqType: domain.FrequencyMonthly,
			value:    30,
			now:      wednesday,
			expected: time.Date(2025, 4, 30, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := NextRun(tt.freqType, tt.value, tt.now)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestFirstRun(t *testing.T) {
	t.Run("future start date is used verbatim at midnight", func(t *testing.T) {
		start := time.Date(2025, 6, 1, 15, 45, 0, 0, time.UTC)
		result := FirstRun(start, domain.FrequencyDaily, 1, wednesday)
		assert.Equal(t, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), result)
	})

	t.Run("past start date falls back to the recurrence", func(t *testing.T) {
		start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
		result := FirstRun(start, domain.FrequencyDaily, 2, wednesday)
		assert.Equal(t, time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC), result)
	})

	t.Run("start date today is not in the future", func(t *testing.T) {
		start := time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC)
		result := FirstRun(start, domain.FrequencyWeekly, 5, wednesday)
		assert.Equal(t, time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC), result)
	})
}

func TestPeriodFilters(t *testing.T) {
	tests := []struct {
		name          string
		freqType      string
		value         int
		now           time.Time
		expectedStart string
		expectedEnd   string
	}{
		{
			name:          "daily covers yesterday only",
			freqType:      domain.FrequencyDaily,
			value:         1,
			now:           wednesday,
			expectedStart: "2025-03-11",
			expectedEnd:   "2025-03-11",
		},
		{
			name:          "daily with longer interval covers the prior window",
			freqType:      domain.FrequencyDaily,
			value:         7,
			now:           wednesday,
			expectedStart: "2025-03-05",
			expectedEnd:   "2025-03-11",
		},
		{
			name:          "weekly covers the prior seven days ending yesterday",
			freqType:      domain.FrequencyWeekly,
			value:         3,
			now:           wednesday,
			expectedStart: "2025-03-05",
			expectedEnd:   "2025-03-11",
		},
		{
			name:          "monthly covers the entire previous calendar month",
			freqType:      domain.FrequencyMonthly,
			value:         1,
			now:           wednesday,
			expectedStart: "2025-02-01",
			expectedEnd:   "2025-02-28",
		},
		{
			name:          "monthly in january reaches back into the previous year",
			freqType:      domain.FrequencyMonthly,
			value:         15,
			now:           time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC),
			expectedStart: "2024-12-01",
			expectedEnd:   "2024-12-31",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filters := PeriodFilters(tt.freqType, tt.value, tt.now)
			assert.Equal(t, tt.expectedStart, filters[domain.FilterStartDate])
			assert.Equal(t, tt.expectedEnd, filters[domain.FilterEndDate])
		})
	}
}
