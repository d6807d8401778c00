// interfaces.go - Handler interface definitions for clean separation of concerns
package api

import (
	"context"

	"github.com/labstack/echo/v4"
	"github.com/research-explorer/backend/internal/models"
	"github.com/research-explorer/backend/internal/parser"
	"github.com/research-explorer/backend/internal/session"
)

// DatasetHandler handles upload sets and the merged datasets built from them
type DatasetHandler interface {
	HandleCreateDataset(c echo.Context) error
	HandleGetDataset(c echo.Context) error
	HandleGetRows(c echo.Context) error
	HandleQuery(c echo.Context) error
	HandleGetCharts(c echo.Context) error
	HandleKeepAlive(c echo.Context) error
	HandleDeleteDataset(c echo.Context) error
}

// ExportHandler handles spreadsheet and binary downloads
type ExportHandler interface {
	HandleExportMerged(c echo.Context) error
	HandleExportFiltered(c echo.Context) error
	HandleFilteredMsgpack(c echo.Context) error
}

// FileHandler handles access to the original uploaded files
type FileHandler interface {
	HandleListFiles(c echo.Context) error
	HandleGetFile(c echo.Context) error
	HandleDownloadFile(c echo.Context) error
}

// HealthHandler handles health check operations
type HealthHandler interface {
	HandleHealth(c echo.Context) error
}

// DatasetManager defines the interface for dataset session management
// This allows mocking in tests
type DatasetManager interface {
	CreateDataset(inputs []parser.Input) (*models.DatasetSession, error)
	GetSession(id string) (*models.DatasetSession, bool)
	TouchSession(id string) bool
	DeleteSession(id string) bool
	GetTable(id string) (*models.Table, bool)
	Preview(id string) ([]models.Row, bool)
	GetRows(ctx context.Context, id string, page, pageSize int) ([]models.Row, int, bool)
	QueryRows(ctx context.Context, id string, c models.Criteria, page, pageSize int) ([]models.Row, int, bool)
	Query(id string, c models.Criteria) (*session.View, bool)
	DefaultCriteria(id string) (models.Criteria, bool)
	Schema() *models.Schema
}
