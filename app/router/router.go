package router

import (
	"tracehub/app/handler"
	"tracehub/app/middleware"
	mysqlstore "tracehub/pkg/store/mysql"

	"github.com/gin-gonic/gin"
)

// Router Router
type Router struct {
	jobHandler    *handler.JobHandler
	deviceHandler *handler.DeviceHandler
	configHandler *handler.ConfigHandler
	traceHandler  *handler.TraceHandler
	workerHandler *handler.WorkerHandler
	hosts         *mysqlstore.HostRepository
}

// NewRouter creates a new Router
func NewRouter(
	jobHandler *handler.JobHandler,
	deviceHandler *handler.DeviceHandler,
	configHandler *handler.ConfigHandler,
	traceHandler *handler.TraceHandler,
	workerHandler *handler.WorkerHandler,
	hosts *mysqlstore.HostRepository,
) *Router {
	return &Router{
		jobHandler:    jobHandler,
		deviceHandler: deviceHandler,
		configHandler: configHandler,
		traceHandler:  traceHandler,
		workerHandler: workerHandler,
		hosts:         hosts,
	}
}

// Setup sets up routes
func (r *Router) Setup(engine *gin.Engine) {
	engine.Use(middleware.Recovery())
	engine.Use(middleware.Logger())

	// V1 API - client interface
	v1 := engine.Group("/v1")
	{
		jobs := v1.Group("/jobs")
		{
			jobs.POST("", r.jobHandler.Create)
			jobs.GET("", r.jobHandler.List)
			jobs.GET("/:job_id", r.jobHandler.Get)
			jobs.GET("/:job_id/stream", r.jobHandler.Stream) // SSE
		}

		devices := v1.Group("/devices")
		{
			devices.GET("", r.deviceHandler.List)
			devices.GET("/watch", r.deviceHandler.Watch) // WebSocket
		}

		configs := v1.Group("/configs")
		{
			configs.POST("", r.configHandler.Create)
			configs.GET("", r.configHandler.List)
			configs.GET("/:config_id", r.configHandler.Get)
			configs.PUT("/:config_id", r.configHandler.Update)
			configs.DELETE("/:config_id", r.configHandler.Delete)
		}

		traces := v1.Group("/traces")
		{
			traces.GET("", r.traceHandler.List)
			traces.GET("/:trace_id", r.traceHandler.Get)
			traces.GET("/:trace_id/download", r.traceHandler.Download)
		}

		// Worker API - agents authenticate with a per-host key
		worker := v1.Group("/worker")
		worker.Use(middleware.WorkerAuth(r.hosts))
		{
			worker.GET("/jobs/pending", r.workerHandler.ListWork)

			worker.POST("/devices", r.workerHandler.ReportDevice)
			worker.PUT("/devices/:id", r.workerHandler.ReportDevice)
			worker.GET("/devices", r.workerHandler.ListDevices)
			worker.GET("/devices/by-serial/:serial", r.workerHandler.GetDevice)
			worker.POST("/devices/sweep", r.workerHandler.SweepDevices)

			worker.POST("/job-devices/:id/status", r.workerHandler.UpdateJobDevice)
			worker.POST("/jobs/:job_id/updates", r.workerHandler.AppendUpdate)
			worker.POST("/jobs/:job_id/status", r.workerHandler.UpdateJobStatus)

			worker.GET("/configs/:config_id", r.workerHandler.GetConfig)

			worker.POST("/storage/upload", r.workerHandler.Upload)
			worker.POST("/traces", r.workerHandler.CreateTrace)
		}
	}

	// Health check
	engine.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
}
