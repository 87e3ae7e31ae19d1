package handler

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/mkowalczyk/shop-exporter/internal/datasource"
	"github.com/mkowalczyk/shop-exporter/internal/download"
	"github.com/mkowalczyk/shop-exporter/internal/events"
	"github.com/mkowalczyk/shop-exporter/internal/storage"
)

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Logger    *slog.Logger
	Jobs      *storage.Jobs
	Schedules *storage.Schedules
	Templates *storage.Templates
	Source    *datasource.Postgres
	Downloads *download.Authorizer
	Events    *events.Publisher
}

// Identity keys set by the auth middleware.
const (
	ContextUserID  = "user_id"
	ContextIsAdmin = "is_admin"
)

// CurrentUser reads the authenticated identity from the request context.
func CurrentUser(c *gin.Context) (int64, bool) {
	userID, _ := c.Get(ContextUserID)
	isAdmin, _ := c.Get(ContextIsAdmin)
	id, _ := userID.(int64)
	admin, _ := isAdmin.(bool)
	return id, admin
}
