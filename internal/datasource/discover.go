package datasource

import (
	"context"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/mkowalczyk/shop-exporter/internal/export"
	"github.com/mkowalczyk/shop-exporter/internal/export/domain"
)

// FieldInfo describes one selectable export field for the template builder.
type FieldInfo struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// FieldGroup is a category of selectable fields.
type FieldGroup struct {
	Category string      `json:"category"`
	Label    string      `json:"label"`
	Fields   []FieldInfo `json:"fields"`
}

var categoryLabels = map[string]string{
	"order":    "Order",
	"billing":  "Billing",
	"shipping": "Shipping",
	"payment":  "Payment",
	"platform": "Platform",
	"custom":   "Custom fields",
}

var categoryOrder = []string{"order", "billing", "shipping", "payment", "platform", "custom"}

// orderBaseFields are always selectable regardless of what meta exists.
var orderBaseFields = []string{"order_id", "order_date", "order_status", "order_total", "order_currency", "coupons_used", "_customer_user"}

// ScanFields discovers the selectable fields from recent order meta, grouped
// by category.
func (p *Postgres) ScanFields(ctx context.Context, limit int) ([]FieldGroup, error) {
	if limit <= 0 {
		limit = 1000
	}

	var keys []string
	if err := p.db.SelectContext(ctx, &keys, queryDistinctMetaKeys, analyticsStatuses, limit); err != nil {
		return nil, fmt.Errorf("scan meta keys: %w", err)
	}

	grouped := map[string][]FieldInfo{}
	add := func(category, key string) {
		grouped[category] = append(grouped[category], FieldInfo{Key: key, Label: domain.HumanizeField(key)})
	}

	for _, f := range orderBaseFields {
		add("order", f)
	}
	for _, key := range keys {
		add(categorize(key), key)
	}

	groups := make([]FieldGroup, 0, len(categoryOrder))
	for _, cat := range categoryOrder {
		if fields := grouped[cat]; len(fields) > 0 {
			groups = append(groups, FieldGroup{Category: cat, Label: categoryLabels[cat], Fields: fields})
		}
	}
	return groups, nil
}

func categorize(key string) string {
	switch {
	case strings.HasPrefix(key, "_billing_"):
		return "billing"
	case strings.HasPrefix(key, "_shipping_"):
		return "shipping"
	case strings.Contains(key, "payment") || strings.Contains(key, "transaction"):
		return "payment"
	case strings.HasPrefix(key, "_order_") || strings.HasPrefix(key, "_wc_") || strings.HasPrefix(key, "wc_"):
		return "platform"
	default:
		return "custom"
	}
}

// SampleOrderIDs returns recent order ids the template builder can preview
// against.
func (p *Postgres) SampleOrderIDs(ctx context.Context, limit int) ([]int64, error) {
	if limit <= 0 {
		limit = 5
	}
	var ids []int64
	if err := p.db.SelectContext(ctx, &ids, querySampleOrderIDs, marketingStatuses, limit); err != nil {
		return nil, fmt.Errorf("sample order ids: %w", err)
	}
	return ids, nil
}

// SampleValues resolves the requested fields (or, when none are requested,
// everything available) against one order so the template builder can show
// example values. Virtual fields resolve the same way the export does.
func (p *Postgres) SampleValues(ctx context.Context, orderID int64, fields []string) (map[string]string, error) {
	var o orderRow
	if err := p.db.GetContext(ctx, &o, querySampleOrder, orderID); err != nil {
		return nil, fmt.Errorf("sample order %d: %w", orderID, err)
	}
	meta, err := p.metaForOrders(ctx, pq.Int64Array{orderID})
	if err != nil {
		return nil, err
	}

	full := o.baseRow()
	for k, v := range meta[orderID] {
		full[k] = v
	}

	if len(fields) == 0 {
		samples := make(map[string]string, len(full))
		for k, v := range full {
			samples[k] = export.Stringify(v)
		}
		return samples, nil
	}

	samples := make(map[string]string, len(fields))
	for _, f := range fields {
		samples[f] = p.resolver.Resolve(f, full)
	}
	return samples, nil
}
