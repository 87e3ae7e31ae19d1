package export

import (
	"fmt"

	"github.com/mkowalczyk/shop-exporter/internal/export/domain"
)

// MarketingHeaders is the fixed column layout of the marketing export
// (one row per customer, aggregated).
var MarketingHeaders = []string{
	"email",
	"first_name",
	"last_name",
	"marketing_consent",
	"total_spent",
	"order_count",
	"last_order_date",
}

// AnalyticsHeaders is the fixed column layout of the analytics export
// (one row per order line item).
var AnalyticsHeaders = []string{
	"order_id",
	"order_date",
	"order_status",
	"order_total",
	"order_currency",
	"billing_email",
	"billing_phone",
	"billing_full_name",
	"billing_city",
	"billing_postcode",
	"user_id",
	"item_name",
	"item_quantity",
	"item_total",
	"coupons_used",
	"marketing_consent",
}

// Columns returns the header labels and the row lookup keys for an export
// type. For the fixed exports the two are identical; for custom exports the
// template supplies both, with aliases substituted into the header row only.
func Columns(jobType string, tmpl *domain.Template) (headers, keys []string, err error) {
	switch jobType {
	case domain.JobTypeMarketing:
		return MarketingHeaders, MarketingHeaders, nil
	case domain.JobTypeAnalytics:
		return AnalyticsHeaders, AnalyticsHeaders, nil
	case domain.JobTypeCustom:
		if tmpl == nil {
			return nil, nil, fmt.Errorf("custom export requires a template")
		}
		return tmpl.Headers(), tmpl.ColumnKeys(), nil
	default:
		return nil, nil, fmt.Errorf("unknown job type %q", jobType)
	}
}
