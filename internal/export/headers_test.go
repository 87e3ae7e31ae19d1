package export

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkowalczyk/shop-exporter/internal/export/domain"
)

func TestColumns(t *testing.T) {
	t.Run("marketing uses the fixed layout", func(t *testing.T) {
		headers, keys, err := Columns(domain.JobTypeMarketing, nil)
		require.NoError(t, err)
		assert.Equal(t, MarketingHeaders, headers)
		assert.Equal(t, headers, keys)
	})

	t.Run("analytics uses the fixed layout", func(t *testing.T) {
		headers, keys, err := Columns(domain.JobTypeAnalytics, nil)
		require.NoError(t, err)
		assert.Equal(t, AnalyticsHeaders, headers)
		assert.Equal(t, headers, keys)
		assert.Equal(t, "marketing_consent", headers[len(headers)-1])
	})

	t.Run("custom substitutes aliases into headers only", func(t *testing.T) {
		tmpl := &domain.Template{
			Name:           "leads",
			SelectedFields: domain.FieldList{"billing_email", "order_total"},
			FieldAliases:   domain.AliasMap{"billing_email": "E-mail"},
			FieldOrder:     domain.FieldList{"order_total", "billing_email"},
		}

		headers, keys, err := Columns(domain.JobTypeCustom, tmpl)
		require.NoError(t, err)
		assert.Equal(t, []string{"order_total", "billing_email"}, keys)
		assert.Equal(t, []string{"Order Total", "E-mail"}, headers)
	})

	t.Run("custom without template fails", func(t *testing.T) {
		_, _, err := Columns(domain.JobTypeCustom, nil)
		assert.Error(t, err)
	})

	t.Run("unknown job type fails", func(t *testing.T) {
		_, _, err := Columns("bogus", nil)
		assert.Error(t, err)
	})
}
