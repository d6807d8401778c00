// routes.go - Route registration helpers
// This file provides a clean way to register all API routes
package api

import (
	"github.com/labstack/echo/v4"
	"github.com/research-explorer/backend/internal/storage"
)

// Dependencies holds all handler dependencies
type Dependencies struct {
	Store      storage.Store
	DatasetMgr DatasetManager
	Version    string
}

// Handlers holds all handler instances
type Handlers struct {
	Health  HealthHandler
	Dataset DatasetHandler
	Export  ExportHandler
	Files   FileHandler
}

// NewHandlers creates all handler instances
func NewHandlers(deps *Dependencies) *Handlers {
	return &Handlers{
		Health:  NewHealthHandler(deps.Version, statsOf(deps.DatasetMgr)),
		Dataset: NewDatasetHandler(deps.Store, deps.DatasetMgr),
		Export:  NewExportHandler(deps.DatasetMgr),
		Files:   NewFileHandler(deps.Store),
	}
}

// statsOf returns the manager's stats view when it has one
func statsOf(mgr DatasetManager) StatsProvider {
	if sp, ok := mgr.(StatsProvider); ok {
		return sp
	}
	return nil
}

// RegisterRoutes registers all API routes with the Echo instance
func RegisterRoutes(e *echo.Echo, handlers *Handlers) {
	// Health check
	e.GET("/api/health", handlers.Health.HandleHealth)

	// Dataset routes
	datasetGroup := e.Group("/api/datasets")
	datasetGroup.POST("", handlers.Dataset.HandleCreateDataset)
	datasetGroup.GET("/:id", handlers.Dataset.HandleGetDataset)
	datasetGroup.DELETE("/:id", handlers.Dataset.HandleDeleteDataset)
	datasetGroup.POST("/:id/keepalive", handlers.Dataset.HandleKeepAlive)
	datasetGroup.GET("/:id/rows", handlers.Dataset.HandleGetRows)
	datasetGroup.POST("/:id/query", handlers.Dataset.HandleQuery)
	datasetGroup.GET("/:id/charts", handlers.Dataset.HandleGetCharts)

	// Export routes
	datasetGroup.GET("/:id/export/merged", handlers.Export.HandleExportMerged)
	datasetGroup.GET("/:id/export/filtered", handlers.Export.HandleExportFiltered)
	datasetGroup.GET("/:id/filtered/msgpack", handlers.Export.HandleFilteredMsgpack)

	// Uploaded file routes
	fileGroup := e.Group("/api/files")
	fileGroup.GET("/recent", handlers.Files.HandleListFiles)
	fileGroup.GET("/:id", handlers.Files.HandleGetFile)
	fileGroup.GET("/:id/download", handlers.Files.HandleDownloadFile)
}

// SetupMiddleware configures common middleware
func SetupMiddleware(e *echo.Echo) {
	// Use custom error handler
	e.HTTPErrorHandler = ErrorHandler
}
