// Package datasource provides the read-only order data provider behind the
// export pipeline: total counts and paginated record batches per report kind,
// plus field discovery for the template builder.
package datasource

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/mkowalczyk/shop-exporter/internal/export"
	"github.com/mkowalczyk/shop-exporter/internal/export/domain"
)

// DefaultTermsMetaKey is the meta key the consent blob is expected under. The
// upstream location is a guess, which is why it stays configurable.
const DefaultTermsMetaKey = "_additional_terms"

// Order statuses that qualify for each report kind. Statuses are stored with
// their platform prefix; the sanitizer strips it for display.
var (
	marketingStatuses = pq.StringArray{"wc-completed", "wc-processing", "wc-on-hold"}
	analyticsStatuses = pq.StringArray{"wc-completed", "wc-processing", "wc-on-hold", "wc-cancelled"}
)

// Config tunes the Postgres data source.
type Config struct {
	// TermsMetaKey is the order_meta key holding the structured terms blob.
	TermsMetaKey string
}

// Postgres is the reference DataSource over the orders schema.
type Postgres struct {
	db       *sqlx.DB
	logger   *slog.Logger
	consent  export.ConsentDecoder
	resolver export.FieldResolver
	termsKey string
}

// NewPostgres creates a Postgres data source. The consent decoder and field
// resolver are pluggable; nil selects the defaults.
func NewPostgres(db *sqlx.DB, logger *slog.Logger, cfg Config, consent export.ConsentDecoder, resolver export.FieldResolver) *Postgres {
	if cfg.TermsMetaKey == "" {
		cfg.TermsMetaKey = DefaultTermsMetaKey
	}
	if consent == nil {
		consent = export.NewConsentDecoder()
	}
	if resolver == nil {
		resolver = export.NewFieldResolver()
	}
	return &Postgres{
		db:       db,
		logger:   logger,
		consent:  consent,
		resolver: resolver,
		termsKey: cfg.TermsMetaKey,
	}
}

// Count returns the total number of records the export will emit for the
// given report kind and filters.
func (p *Postgres) Count(ctx context.Context, jobType string, filters domain.Filters) (int, error) {
	start, end, err := dateRange(filters)
	if err != nil {
		return 0, err
	}

	var query string
	var args []interface{}
	switch jobType {
	case domain.JobTypeMarketing:
		query = queryMarketingCount
		args = []interface{}{marketingStatuses, start, end}
	case domain.JobTypeAnalytics:
		query = queryAnalyticsCount
		args = []interface{}{analyticsStatuses, start, end}
	case domain.JobTypeCustom:
		query = queryCustomCount
		args = []interface{}{analyticsStatuses, start, end}
	default:
		return 0, fmt.Errorf("unknown job type %q", jobType)
	}

	var total int
	if err := p.db.GetContext(ctx, &total, query, args...); err != nil {
		return 0, fmt.Errorf("count %s: %w", jobType, err)
	}
	return total, nil
}

// FetchBatch returns one page of export rows at the given offset. Custom
// exports additionally require the resolved template.
func (p *Postgres) FetchBatch(ctx context.Context, jobType string, filters domain.Filters, offset, limit int, tmpl *domain.Template) ([]export.Row, error) {
	start, end, err := dateRange(filters)
	if err != nil {
		return nil, err
	}

	switch jobType {
	case domain.JobTypeMarketing:
		return p.marketingBatch(ctx, start, end, offset, limit)
	case domain.JobTypeAnalytics:
		return p.analyticsBatch(ctx, start, end, offset, limit)
	case domain.JobTypeCustom:
		if tmpl == nil {
			return nil, fmt.Errorf("custom export requires a template")
		}
		return p.customBatch(ctx, start, end, offset, limit, tmpl)
	default:
		return nil, fmt.Errorf("unknown job type %q", jobType)
	}
}

type marketingRow struct {
	Email         string     `db:"email"`
	FirstName     *string    `db:"first_name"`
	LastName      *string    `db:"last_name"`
	ConsentRaw    *string    `db:"consent_raw"`
	TotalSpent    *float64   `db:"total_spent"`
	OrderCount    int64      `db:"order_count"`
	LastOrderDate *time.Time `db:"last_order_date"`
}

func (p *Postgres) marketingBatch(ctx context.Context, start, end time.Time, offset, limit int) ([]export.Row, error) {
	var rows []marketingRow
	err := p.db.SelectContext(ctx, &rows, queryMarketingBatch, p.termsKey, marketingStatuses, start, end, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("fetch marketing batch: %w", err)
	}

	out := make([]export.Row, len(rows))
	for i, r := range rows {
		out[i] = export.Row{
			"email":             r.Email,
			"first_name":        deref(r.FirstName),
			"last_name":         deref(r.LastName),
			"marketing_consent": p.consent.Decode(derefString(r.ConsentRaw)),
			"total_spent":       deref(r.TotalSpent),
			"order_count":       r.OrderCount,
			"last_order_date":   deref(r.LastOrderDate),
		}
	}
	return out, nil
}

type analyticsRow struct {
	OrderID         int64      `db:"order_id"`
	OrderDate       time.Time  `db:"order_date"`
	OrderStatus     string     `db:"order_status"`
	OrderTotal      *float64   `db:"order_total"`
	OrderCurrency   *string    `db:"order_currency"`
	BillingEmail    *string    `db:"billing_email"`
	BillingPhone    *string    `db:"billing_phone"`
	BillingFullName *string    `db:"billing_full_name"`
	BillingCity     *string    `db:"billing_city"`
	BillingPostcode *string    `db:"billing_postcode"`
	UserID          *int64     `db:"user_id"`
	ItemName        *string    `db:"item_name"`
	ItemQuantity    *int64     `db:"item_quantity"`
	ItemTotal       *float64   `db:"item_total"`
	CouponsUsed     *string    `db:"coupons_used"`
	ConsentRaw      *string    `db:"consent_raw"`
}

func (p *Postgres) analyticsBatch(ctx context.Context, start, end time.Time, offset, limit int) ([]export.Row, error) {
	var rows []analyticsRow
	err := p.db.SelectContext(ctx, &rows, queryAnalyticsBatch, p.termsKey, analyticsStatuses, start, end, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("fetch analytics batch: %w", err)
	}

	out := make([]export.Row, len(rows))
	for i, r := range rows {
		out[i] = export.Row{
			"order_id":          r.OrderID,
			"order_date":        r.OrderDate,
			"order_status":      r.OrderStatus,
			"order_total":       deref(r.OrderTotal),
			"order_currency":    deref(r.OrderCurrency),
			"billing_email":     deref(r.BillingEmail),
			"billing_phone":     deref(r.BillingPhone),
			"billing_full_name": deref(r.BillingFullName),
			"billing_city":      deref(r.BillingCity),
			"billing_postcode":  deref(r.BillingPostcode),
			"user_id":           deref(r.UserID),
			"item_name":         deref(r.ItemName),
			"item_quantity":     deref(r.ItemQuantity),
			"item_total":        deref(r.ItemTotal),
			"coupons_used":      deref(r.CouponsUsed),
			"marketing_consent": p.consent.Decode(derefString(r.ConsentRaw)),
		}
	}
	return out, nil
}

type orderRow struct {
	ID               int64     `db:"id"`
	OrderDate        time.Time `db:"order_date"`
	Status           string    `db:"status"`
	Total            *float64  `db:"total"`
	Currency         *string   `db:"currency"`
	CustomerID       *int64    `db:"customer_id"`
	Coupons          *string   `db:"coupons"`
	BillingEmail     *string   `db:"billing_email"`
	BillingPhone     *string   `db:"billing_phone"`
	BillingFirstName *string   `db:"billing_first_name"`
	BillingLastName  *string   `db:"billing_last_name"`
	BillingCity      *string   `db:"billing_city"`
	BillingPostcode  *string   `db:"billing_postcode"`
}

// baseRow exposes the order columns under the identifiers the template
// builder offers: plain names for the core fields, meta-style names for the
// billing columns.
func (o *orderRow) baseRow() export.Row {
	return export.Row{
		"order_id":            o.ID,
		"order_date":          o.OrderDate,
		"order_status":        o.Status,
		"order_total":         deref(o.Total),
		"order_currency":      deref(o.Currency),
		"coupons_used":        deref(o.Coupons),
		"_customer_user":      deref(o.CustomerID),
		"_billing_email":      deref(o.BillingEmail),
		"_billing_phone":      deref(o.BillingPhone),
		"_billing_first_name": deref(o.BillingFirstName),
		"_billing_last_name":  deref(o.BillingLastName),
		"_billing_city":       deref(o.BillingCity),
		"_billing_postcode":   deref(o.BillingPostcode),
	}
}

func (p *Postgres) customBatch(ctx context.Context, start, end time.Time, offset, limit int, tmpl *domain.Template) ([]export.Row, error) {
	var orders []orderRow
	err := p.db.SelectContext(ctx, &orders, queryCustomBatch, analyticsStatuses, start, end, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("fetch custom batch: %w", err)
	}
	if len(orders) == 0 {
		return nil, nil
	}

	ids := make(pq.Int64Array, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
	}
	meta, err := p.metaForOrders(ctx, ids)
	if err != nil {
		return nil, err
	}

	keys := tmpl.ColumnKeys()
	out := make([]export.Row, len(orders))
	for i, o := range orders {
		full := o.baseRow()
		for k, v := range meta[o.ID] {
			full[k] = v
		}

		row := make(export.Row, len(keys))
		for _, field := range keys {
			row[field] = p.resolver.Resolve(field, full)
		}
		out[i] = row
	}
	return out, nil
}

type metaRow struct {
	OrderID   int64  `db:"order_id"`
	MetaKey   string `db:"meta_key"`
	MetaValue string `db:"meta_value"`
}

func (p *Postgres) metaForOrders(ctx context.Context, ids pq.Int64Array) (map[int64]map[string]string, error) {
	var rows []metaRow
	if err := p.db.SelectContext(ctx, &rows, queryMetaForOrders, ids); err != nil {
		return nil, fmt.Errorf("fetch order meta: %w", err)
	}

	meta := make(map[int64]map[string]string, len(ids))
	for _, r := range rows {
		m, ok := meta[r.OrderID]
		if !ok {
			m = make(map[string]string)
			meta[r.OrderID] = m
		}
		m[r.MetaKey] = r.MetaValue
	}
	return meta, nil
}

// dateRange converts filter dates into an inclusive instant range: the start
// date at midnight through the last second of the end date. Absent bounds are
// left open.
func dateRange(filters domain.Filters) (time.Time, time.Time, error) {
	start := time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(9999, 12, 31, 23, 59, 59, 0, time.UTC)

	if v := filters[domain.FilterStartDate]; v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return start, end, fmt.Errorf("invalid start_date %q: %w", v, err)
		}
		start = t
	}
	if v := filters[domain.FilterEndDate]; v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return start, end, fmt.Errorf("invalid end_date %q: %w", v, err)
		}
		end = t.Add(24*time.Hour - time.Second)
	}
	return start, end, nil
}

func deref[T any](p *T) interface{} {
	if p == nil {
		return nil
	}
	return *p
}

func derefString(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
