package export

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBlobFieldResolver_Resolve(t *testing.T) {
	resolver := NewFieldResolver()

	tests := []struct {
		name     string
		field    string
		row      Row
		expected string
	}{
		{
			name:     "plain field reads the row directly",
			field:    "billing_email",
			row:      Row{"billing_email": "jan@example.com"},
			expected: "jan@example.com",
		},
		{
			name:     "plain field missing from the row is empty",
			field:    "billing_phone",
			row:      Row{},
			expected: "",
		},
		{
			name:  "virtual field by literal sub-key",
			field: "_additional_terms__terms_2",
			row: Row{
				"_additional_terms": `{"terms_1":{"name":"Rules","status":true},"terms_2":{"name":"Marketing","status":false}}`,
			},
			expected: "no",
		},
		{
			name:  "virtual field by normalized label",
			field: "_additional_terms__marketing",
			row: Row{
				"_additional_terms": `[{"name":"Marketing Emails","status":"1"}]`,
			},
			expected: "yes",
		},
		{
			name:  "explicit value wins over status",
			field: "_additional_terms__vat_id",
			row: Row{
				"_additional_terms": `{"vat_id":{"value":"PL1234567890"}}`,
			},
			expected: "PL1234567890",
		},
		{
			name:  "scalar object members resolve by key",
			field: "_additional_terms__note",
			row: Row{
				"_additional_terms": `{"note":"leave at the door"}`,
			},
			expected: "leave at the door",
		},
		{
			name:     "virtual field with empty parent is empty",
			field:    "_additional_terms__marketing",
			row:      Row{"_additional_terms": nil},
			expected: "",
		},
		{
			name:  "virtual field with malformed parent is empty",
			field: "_additional_terms__marketing",
			row:   Row{"_additional_terms": `{{nope`},

			expected: "",
		},
		{
			name:  "no matching sub-entry is empty",
			field: "_additional_terms__shipping",
			row: Row{
				"_additional_terms": `[{"name":"Marketing","status":true}]`,
			},
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, resolver.Resolve(tt.field, tt.row))
		})
	}
}

func TestNormalizeLabel(t *testing.T) {
	assert.Equal(t, "zgoda_marketingowa", normalizeLabel("Zgoda  Marketingowa"))
	assert.Equal(t, "marketing_emails", normalizeLabel(" Marketing-Emails! "))
	assert.Equal(t, "terms_2", normalizeLabel("terms_2"))
	assert.Equal(t, "", normalizeLabel("  "))
}
