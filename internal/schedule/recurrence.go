// Package schedule holds the pure recurrence math for export schedules: next
// firing times and the reporting period window for an elapsed interval.
package schedule

import (
	"time"

	"github.com/mkowalczyk/shop-exporter/internal/export/domain"
)

const dateLayout = "2006-01-02"

// NextRun computes the next firing time strictly after now at midnight.
//
// Daily: now plus the configured interval in days. Weekly: the next occurrence
// of the target ISO weekday after now's day; a same-day match skips a full
// week, it is never returned as "next". Monthly: the target day of next month,
// clamped to that month's actual last day.
func NextRun(frequencyType string, frequencyValue int, now time.Time) time.Time {
	switch frequencyType {
	case domain.FrequencyDaily:
		days := frequencyValue
		if days < 1 {
			days = 1
		}
		return midnight(now.AddDate(0, 0, days))

	case domain.FrequencyWeekly:
		diff := frequencyValue - isoWeekday(now)
		if diff <= 0 {
			diff += 7
		}
		return midnight(now.AddDate(0, 0, diff))

	case domain.FrequencyMonthly:
		firstOfNext := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, 1, 0)
		day := frequencyValue
		if max := daysInMonth(firstOfNext); day > max {
			day = max
		}
		return time.Date(firstOfNext.Year(), firstOfNext.Month(), day, 0, 0, 0, 0, now.Location())
	}
	return midnight(now.AddDate(0, 0, 1))
}

// FirstRun computes the initial next_run_at at schedule creation: a start date
// strictly in the future (interpreted as midnight) is used verbatim, otherwise
// the regular recurrence applies from now.
func FirstRun(startDate time.Time, frequencyType string, frequencyValue int, now time.Time) time.Time {
	start := midnight(startDate)
	if start.After(now) {
		return start
	}
	return NextRun(frequencyType, frequencyValue, now)
}

// PeriodFilters computes the reporting date window covering the interval that
// elapsed before a firing at now: daily schedules cover the prior N days
// ending yesterday, weekly the prior 7 days ending yesterday, monthly the
// entire previous calendar month.
func PeriodFilters(frequencyType string, frequencyValue int, now time.Time) domain.Filters {
	today := midnight(now)

	var start, end time.Time
	switch frequencyType {
	case domain.FrequencyDaily:
		days := frequencyValue
		if days < 1 {
			days = 1
		}
		start = today.AddDate(0, 0, -days)
		end = today.AddDate(0, 0, -1)

	case domain.FrequencyWeekly:
		start = today.AddDate(0, 0, -7)
		end = today.AddDate(0, 0, -1)

	case domain.FrequencyMonthly:
		firstOfThis := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location())
		start = firstOfThis.AddDate(0, -1, 0)
		end = firstOfThis.AddDate(0, 0, -1)

	default:
		start = today.AddDate(0, 0, -1)
		end = start
	}

	return domain.Filters{
		domain.FilterStartDate: start.Format(dateLayout),
		domain.FilterEndDate:   end.Format(dateLayout),
	}
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// isoWeekday maps time.Weekday onto ISO-8601 numbering (Monday=1 .. Sunday=7).
func isoWeekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

func daysInMonth(t time.Time) int {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	return first.AddDate(0, 1, -1).Day()
}
