package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

const defaultFieldScanLimit = 100

// FieldHandler serves the field discovery endpoints used by the template
// builder UI: which fields exist in the order data, and what their values
// look like on a sample order.
type FieldHandler struct {
	deps *Dependencies
}

func NewFieldHandler(deps *Dependencies) *FieldHandler {
	return &FieldHandler{deps: deps}
}

// ListFields handles GET /api/v1/fields
// Scans recent orders and returns exportable fields grouped by category.
func (h *FieldHandler) ListFields(c *gin.Context) {
	limit := defaultFieldScanLimit
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}

	groups, err := h.deps.Source.ScanFields(c.Request.Context(), limit)
	if err != nil {
		h.deps.Logger.Error("Failed to scan fields", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to scan fields"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"groups": groups})
}

// SampleValues handles GET /api/v1/fields/samples
// Returns resolved values for the given fields on one order, so template
// authors can preview what a column will contain. Without order_id a recent
// order is picked automatically.
func (h *FieldHandler) SampleValues(c *gin.Context) {
	var orderID int64
	if v := c.Query("order_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "order_id must be an integer"})
			return
		}
		orderID = id
	} else {
		ids, err := h.deps.Source.SampleOrderIDs(c.Request.Context(), 1)
		if err != nil || len(ids) == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "No orders available to sample"})
			return
		}
		orderID = ids[0]
	}

	var fields []string
	if v := c.Query("fields"); v != "" {
		for _, f := range strings.Split(v, ",") {
			if f = strings.TrimSpace(f); f != "" {
				fields = append(fields, f)
			}
		}
	}

	values, err := h.deps.Source.SampleValues(c.Request.Context(), orderID, fields)
	if err != nil {
		h.deps.Logger.Error("Failed to sample field values",
			slog.Int64("order_id", orderID),
			slog.String("error", err.Error()),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to sample field values"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"order_id": orderID, "values": values})
}
