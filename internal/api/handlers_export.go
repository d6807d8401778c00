// handlers_export.go - Spreadsheet and MessagePack download handlers
package api

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/research-explorer/backend/internal/models"
	"github.com/research-explorer/backend/internal/report"
	"github.com/research-explorer/backend/internal/session"
	"github.com/vmihailenco/msgpack/v5"
)

// ExportHandlerImpl implements the ExportHandler interface
type ExportHandlerImpl struct {
	datasetMgr DatasetManager
}

// NewExportHandler creates a new export handler instance
func NewExportHandler(datasetMgr DatasetManager) ExportHandler {
	return &ExportHandlerImpl{datasetMgr: datasetMgr}
}

// HandleExportMerged downloads the whole merged table as xlsx
func (h *ExportHandlerImpl) HandleExportMerged(c echo.Context) error {
	id := c.Param("id")
	t, ok := h.datasetMgr.GetTable(id)
	if !ok {
		return NewNotFoundError("dataset", id)
	}
	return h.sendWorkbook(c, t, report.MergedFileName)
}

// HandleExportFiltered downloads the rows matching the query-string criteria as xlsx
func (h *ExportHandlerImpl) HandleExportFiltered(c echo.Context) error {
	view, err := h.filteredView(c)
	if err != nil {
		return err
	}
	return h.sendWorkbook(c, view.Filtered, report.FilteredFileName)
}

func (h *ExportHandlerImpl) sendWorkbook(c echo.Context, t *models.Table, fileName string) error {
	data, err := report.ExportTable(t, h.datasetMgr.Schema())
	if err != nil {
		return NewInternalError("failed to export workbook", err)
	}
	h.datasetMgr.TouchSession(c.Param("id"))

	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", fileName))
	return c.Blob(http.StatusOK, report.XLSXContentType, data)
}

// HandleFilteredMsgpack returns a page of filtered rows in MessagePack format.
// Rows are encoded as arrays of cell values, nil for missing cells.
func (h *ExportHandlerImpl) HandleFilteredMsgpack(c echo.Context) error {
	id := c.Param("id")
	t, ok := h.datasetMgr.GetTable(id)
	if !ok {
		return NewNotFoundError("dataset", id)
	}
	crit, err := h.criteria(c)
	if err != nil {
		return err
	}
	page, pageSize := pageParams(c)

	rows, total, ok := h.datasetMgr.QueryRows(c.Request().Context(), id, crit, page, pageSize)
	if !ok {
		return NewNotFoundError("dataset", id)
	}
	h.datasetMgr.TouchSession(id)

	values := make([][]interface{}, len(rows))
	for i, row := range rows {
		cells := make([]interface{}, len(row.Cells))
		for j, cell := range row.Cells {
			cells[j] = cell.Value()
		}
		values[i] = cells
	}

	data, err := msgpack.Marshal(map[string]interface{}{
		"columns":  t.Columns,
		"rows":     values,
		"total":    total,
		"page":     page,
		"pageSize": pageSize,
	})
	if err != nil {
		return NewInternalError("failed to encode msgpack", err)
	}

	return c.Blob(http.StatusOK, "application/msgpack", data)
}

// criteria reads the query-string criteria over the dataset's full range
func (h *ExportHandlerImpl) criteria(c echo.Context) (models.Criteria, error) {
	id := c.Param("id")
	base, ok := h.datasetMgr.DefaultCriteria(id)
	if !ok {
		return models.Criteria{}, NewNotFoundError("dataset", id)
	}
	return criteriaFromQuery(c, base)
}

func (h *ExportHandlerImpl) filteredView(c echo.Context) (*session.View, error) {
	crit, err := h.criteria(c)
	if err != nil {
		return nil, err
	}
	id := c.Param("id")
	view, ok := h.datasetMgr.Query(id, crit)
	if !ok {
		return nil, NewNotFoundError("dataset", id)
	}
	return view, nil
}
