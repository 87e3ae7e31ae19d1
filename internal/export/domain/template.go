package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// FieldList is an ordered set of field identifiers, stored as a JSON array.
type FieldList []string

func (l FieldList) Value() (driver.Value, error) {
	if len(l) == 0 {
		return nil, nil
	}
	return json.Marshal(l)
}

func (l *FieldList) Scan(src interface{}) error {
	return scanJSON(src, l)
}

// AliasMap maps field identifiers to display labels, stored as a JSON object.
type AliasMap map[string]string

func (m AliasMap) Value() (driver.Value, error) {
	if len(m) == 0 {
		return nil, nil
	}
	return json.Marshal(m)
}

func (m *AliasMap) Scan(src interface{}) error {
	return scanJSON(src, m)
}

func scanJSON(src, dest interface{}) error {
	if src == nil {
		return nil
	}
	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported scan type %T", src)
	}
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, dest)
}

// Template is a named, user-defined field projection for custom exports.
type Template struct {
	ID             int64     `db:"id"`
	Name           string    `db:"name"`
	Description    string    `db:"description"`
	SelectedFields FieldList `db:"selected_fields"`
	FieldAliases   AliasMap  `db:"field_aliases"`
	FieldOrder     FieldList `db:"field_order"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

// Validate checks the template invariants: selected_fields is a non-empty
// unique set, and field_order/field_aliases reference only selected fields.
func (t *Template) Validate() error {
	if t.Name == "" {
		return fmt.Errorf("template name is required")
	}
	if len(t.SelectedFields) == 0 {
		return fmt.Errorf("template has no selected fields")
	}

	selected := make(map[string]struct{}, len(t.SelectedFields))
	for _, f := range t.SelectedFields {
		if _, dup := selected[f]; dup {
			return fmt.Errorf("duplicate selected field %q", f)
		}
		selected[f] = struct{}{}
	}
	for _, f := range t.FieldOrder {
		if _, ok := selected[f]; !ok {
			return fmt.Errorf("field_order references unselected field %q", f)
		}
	}
	for f := range t.FieldAliases {
		if _, ok := selected[f]; !ok {
			return fmt.Errorf("field_aliases references unselected field %q", f)
		}
	}
	return nil
}

// ColumnKeys returns the field identifiers in output column order: the explicit
// field_order when present, otherwise selected_fields' own order. Selected
// fields missing from field_order are appended so the column count always
// equals len(SelectedFields).
func (t *Template) ColumnKeys() []string {
	if len(t.FieldOrder) == 0 {
		return append([]string(nil), t.SelectedFields...)
	}
	keys := append([]string(nil), t.FieldOrder...)
	ordered := make(map[string]struct{}, len(keys))
	for _, f := range keys {
		ordered[f] = struct{}{}
	}
	for _, f := range t.SelectedFields {
		if _, ok := ordered[f]; !ok {
			keys = append(keys, f)
		}
	}
	return keys
}

// Headers returns the display labels for ColumnKeys, substituting aliases and
// falling back to a humanized form of the field identifier.
func (t *Template) Headers() []string {
	keys := t.ColumnKeys()
	headers := make([]string, len(keys))
	for i, k := range keys {
		if alias, ok := t.FieldAliases[k]; ok && alias != "" {
			headers[i] = alias
		} else {
			headers[i] = HumanizeField(k)
		}
	}
	return headers
}

// fieldPrefixes are storage prefixes stripped when humanizing field names.
var fieldPrefixes = []string{"_billing_", "_shipping_", "_order_", "_wc_", "wc_"}

// HumanizeField turns a raw field identifier into a display label:
// "_billing_first_name" becomes "First Name".
func HumanizeField(field string) string {
	label := field
	for _, p := range fieldPrefixes {
		label = strings.ReplaceAll(label, p, "")
	}
	label = strings.TrimLeft(label, "_")
	label = strings.ReplaceAll(label, "__", " ")
	label = strings.ReplaceAll(label, "_", " ")

	words := strings.Fields(label)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
