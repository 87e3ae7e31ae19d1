package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mkowalczyk/shop-exporter/internal/api/handler"
)

// SetupRouter configures and returns the Gin router with all routes
func SetupRouter(deps *handler.Dependencies) *gin.Engine {
	r := gin.New()

	// Middleware
	r.Use(gin.Recovery())
	r.Use(LoggerMiddleware(deps.Logger))
	r.Use(CORSMiddleware())

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "export-api-service",
		})
	})

	jobHandler := handler.NewJobHandler(deps)
	scheduleHandler := handler.NewScheduleHandler(deps)
	templateHandler := handler.NewTemplateHandler(deps)
	fieldHandler := handler.NewFieldHandler(deps)
	downloadHandler := handler.NewDownloadHandler(deps)

	// API v1 routes; everything below requires an authenticated identity
	v1 := r.Group("/api/v1")
	v1.Use(AuthMiddleware())
	{
		jobs := v1.Group("/jobs")
		{
			jobs.POST("", jobHandler.CreateJob)
			jobs.GET("", jobHandler.ListJobs)
			jobs.GET("/:job_id", jobHandler.GetJob)
			jobs.POST("/:job_id/cancel", jobHandler.CancelJob)
			jobs.DELETE("/:job_id", jobHandler.DeleteJob)
		}

		schedules := v1.Group("/schedules")
		{
			schedules.POST("", scheduleHandler.CreateSchedule)
			schedules.GET("", scheduleHandler.ListSchedules)
			schedules.GET("/:schedule_id", scheduleHandler.GetSchedule)
			schedules.PUT("/:schedule_id", scheduleHandler.UpdateSchedule)
			schedules.POST("/:schedule_id/toggle", scheduleHandler.ToggleSchedule)
			schedules.DELETE("/:schedule_id", scheduleHandler.DeleteSchedule)
		}

		templates := v1.Group("/templates")
		{
			templates.POST("", templateHandler.CreateTemplate)
			templates.GET("", templateHandler.ListTemplates)
			templates.GET("/:template_id", templateHandler.GetTemplate)
			templates.PUT("/:template_id", templateHandler.UpdateTemplate)
			templates.DELETE("/:template_id", templateHandler.DeleteTemplate)
		}

		fields := v1.Group("/fields")
		{
			fields.GET("", fieldHandler.ListFields)
			fields.GET("/samples", fieldHandler.SampleValues)
		}

		v1.GET("/downloads", downloadHandler.Download)
	}

	return r
}
