package datasource

// Reference queries over the orders/order_items/order_meta schema. The name
// columns pick the most recent non-null value per customer; consent blobs ride
// along as the newest terms meta value and are decoded in Go.

const queryMarketingBatch = `
	SELECT
		o.billing_email AS email,
		(ARRAY_AGG(o.billing_first_name ORDER BY o.order_date DESC)
			FILTER (WHERE o.billing_first_name IS NOT NULL))[1] AS first_name,
		(ARRAY_AGG(o.billing_last_name ORDER BY o.order_date DESC)
			FILTER (WHERE o.billing_last_name IS NOT NULL))[1] AS last_name,
		(ARRAY_AGG(tm.meta_value ORDER BY o.order_date DESC)
			FILTER (WHERE tm.meta_value IS NOT NULL))[1] AS consent_raw,
		SUM(o.total) AS total_spent,
		COUNT(DISTINCT o.id) AS order_count,
		MAX(o.order_date) AS last_order_date
	FROM orders o
	LEFT JOIN order_meta tm ON tm.order_id = o.id AND tm.meta_key = $1
	WHERE o.status = ANY($2)
	  AND o.billing_email IS NOT NULL AND o.billing_email <> ''
	  AND o.order_date >= $3 AND o.order_date <= $4
	GROUP BY o.billing_email
	ORDER BY last_order_date DESC
	LIMIT $5 OFFSET $6`

const queryMarketingCount = `
	SELECT COUNT(DISTINCT o.billing_email)
	FROM orders o
	WHERE o.status = ANY($1)
	  AND o.billing_email IS NOT NULL AND o.billing_email <> ''
	  AND o.order_date >= $2 AND o.order_date <= $3`

const queryAnalyticsBatch = `
	SELECT
		o.id AS order_id,
		o.order_date,
		o.status AS order_status,
		o.total AS order_total,
		o.currency AS order_currency,
		o.billing_email,
		o.billing_phone,
		TRIM(CONCAT(o.billing_first_name, ' ', o.billing_last_name)) AS billing_full_name,
		o.billing_city,
		o.billing_postcode,
		o.customer_id AS user_id,
		oi.name AS item_name,
		oi.quantity AS item_quantity,
		oi.line_total AS item_total,
		o.coupons AS coupons_used,
		tm.meta_value AS consent_raw
	FROM orders o
	JOIN order_items oi ON oi.order_id = o.id
	LEFT JOIN order_meta tm ON tm.order_id = o.id AND tm.meta_key = $1
	WHERE o.status = ANY($2)
	  AND o.order_date >= $3 AND o.order_date <= $4
	ORDER BY o.order_date DESC, oi.id ASC
	LIMIT $5 OFFSET $6`

const queryAnalyticsCount = `
	SELECT COUNT(*)
	FROM orders o
	JOIN order_items oi ON oi.order_id = o.id
	WHERE o.status = ANY($1)
	  AND o.order_date >= $2 AND o.order_date <= $3`

const queryCustomBatch = `
	SELECT
		o.id,
		o.order_date,
		o.status,
		o.total,
		o.currency,
		o.customer_id,
		o.coupons,
		o.billing_email,
		o.billing_phone,
		o.billing_first_name,
		o.billing_last_name,
		o.billing_city,
		o.billing_postcode
	FROM orders o
	WHERE o.status = ANY($1)
	  AND o.order_date >= $2 AND o.order_date <= $3
	ORDER BY o.order_date DESC, o.id ASC
	LIMIT $4 OFFSET $5`

const queryCustomCount = `
	SELECT COUNT(*)
	FROM orders o
	WHERE o.status = ANY($1)
	  AND o.order_date >= $2 AND o.order_date <= $3`

const queryMetaForOrders = `
	SELECT order_id, meta_key, meta_value
	FROM order_meta
	WHERE order_id = ANY($1)`

const queryDistinctMetaKeys = `
	SELECT DISTINCT om.meta_key
	FROM order_meta om
	JOIN orders o ON o.id = om.order_id
	WHERE o.status = ANY($1)
	ORDER BY om.meta_key ASC
	LIMIT $2`

const querySampleOrderIDs = `
	SELECT id
	FROM orders
	WHERE status = ANY($1)
	ORDER BY order_date DESC
	LIMIT $2`

const querySampleOrder = `
	SELECT
		o.id,
		o.order_date,
		o.status,
		o.total,
		o.currency,
		o.customer_id,
		o.coupons,
		o.billing_email,
		o.billing_phone,
		o.billing_first_name,
		o.billing_last_name,
		o.billing_city,
		o.billing_postcode
	FROM orders o
	WHERE o.id = $1`
