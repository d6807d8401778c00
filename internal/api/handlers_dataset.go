// handlers_dataset.go - Dataset upload, summary and query handlers
package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/research-explorer/backend/internal/models"
	"github.com/research-explorer/backend/internal/parser"
	"github.com/research-explorer/backend/internal/report"
	"github.com/research-explorer/backend/internal/session"
	"github.com/research-explorer/backend/internal/storage"
)

// DatasetHandlerImpl implements the DatasetHandler interface
type DatasetHandlerImpl struct {
	store      storage.Store
	datasetMgr DatasetManager
}

// NewDatasetHandler creates a new dataset handler instance
func NewDatasetHandler(store storage.Store, datasetMgr DatasetManager) DatasetHandler {
	return &DatasetHandlerImpl{
		store:      store,
		datasetMgr: datasetMgr,
	}
}

// HandleCreateDataset accepts one or more spreadsheets (multipart field "files")
// and merges them into a new dataset
func (h *DatasetHandlerImpl) HandleCreateDataset(c echo.Context) error {
	form, err := c.MultipartForm()
	if err != nil {
		return NewBadRequestError("invalid multipart form", err)
	}
	files := form.File["files"]
	if len(files) == 0 {
		return NewValidationError("files")
	}

	inputs := make([]parser.Input, 0, len(files))
	for _, fh := range files {
		src, err := fh.Open()
		if err != nil {
			return NewBadRequestError(fmt.Sprintf("failed to open %s", fh.Filename), err)
		}
		data, err := io.ReadAll(src)
		src.Close()
		if err != nil {
			return NewBadRequestError(fmt.Sprintf("failed to read %s", fh.Filename), err)
		}

		info, err := h.store.SaveBytes(fh.Filename, data)
		if err != nil {
			return NewInternalError("failed to save file", err)
		}
		inputs = append(inputs, parser.Input{ID: info.ID, Name: fh.Filename, Data: data})
	}

	sess, err := h.datasetMgr.CreateDataset(inputs)
	if err != nil {
		h.discardUploads(inputs)
		if errors.Is(err, parser.ErrEmptyInput) {
			files := []models.FileResult{}
			if sess != nil {
				files = sess.Files
			}
			return c.JSON(http.StatusUnprocessableEntity, emptyDatasetResponse{
				APIError: NewUnprocessableError("no valid files", nil),
				Files:    files,
			})
		}
		return NewInternalError("failed to build dataset", err)
	}

	for _, f := range sess.Files {
		if f.FileID != "" {
			h.store.MarkLoaded(f.FileID, sess.ID, string(f.Status))
		}
	}

	return c.JSON(http.StatusCreated, h.datasetResponse(sess))
}

// discardUploads removes stored files of an upload set that produced no dataset
func (h *DatasetHandlerImpl) discardUploads(inputs []parser.Input) {
	for _, in := range inputs {
		if err := h.store.Delete(in.ID); err != nil {
			fmt.Printf("[Upload] Failed to remove %s: %v\n", in.ID, err)
		}
	}
}

// HandleGetDataset returns the summary, filter options and preview of a dataset
func (h *DatasetHandlerImpl) HandleGetDataset(c echo.Context) error {
	id := c.Param("id")
	sess, ok := h.datasetMgr.GetSession(id)
	if !ok {
		return NewNotFoundError("dataset", id)
	}

	// Touch session to prevent cleanup while being viewed
	h.datasetMgr.TouchSession(id)

	return c.JSON(http.StatusOK, h.datasetResponse(sess))
}

func (h *DatasetHandlerImpl) datasetResponse(sess *models.DatasetSession) datasetResponse {
	preview, _ := h.datasetMgr.Preview(sess.ID)
	if preview == nil {
		preview = []models.Row{}
	}
	return datasetResponse{DatasetSession: sess, Preview: preview}
}

// HandleGetRows returns a page of merged rows
func (h *DatasetHandlerImpl) HandleGetRows(c echo.Context) error {
	id := c.Param("id")
	page, pageSize := pageParams(c)

	sess, ok := h.datasetMgr.GetSession(id)
	if !ok {
		return NewNotFoundError("dataset", id)
	}

	rows, total, ok := h.datasetMgr.GetRows(c.Request().Context(), id, page, pageSize)
	if !ok {
		return NewNotFoundError("dataset", id)
	}
	h.datasetMgr.TouchSession(id)

	return c.JSON(http.StatusOK, rowsResponse{
		Columns:  sess.Columns,
		Rows:     rows,
		Page:     page,
		PageSize: pageSize,
		Total:    total,
	})
}

// HandleQuery filters a dataset with the criteria in the body and returns a page of
// the filtered rows along with the rebuilt charts
func (h *DatasetHandlerImpl) HandleQuery(c echo.Context) error {
	id := c.Param("id")
	var req queryRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}

	base, ok := h.datasetMgr.DefaultCriteria(id)
	if !ok {
		return NewNotFoundError("dataset", id)
	}
	crit, err := req.criteria(base)
	if err != nil {
		return err
	}

	view, ok := h.datasetMgr.Query(id, crit)
	if !ok {
		return NewNotFoundError("dataset", id)
	}
	h.datasetMgr.TouchSession(id)

	page, pageSize := normalizePage(req.Page, req.PageSize)
	rows, total, ok := h.datasetMgr.QueryRows(c.Request().Context(), id, crit, page, pageSize)
	if !ok {
		return NewNotFoundError("dataset", id)
	}
	return c.JSON(http.StatusOK, queryResponse{
		Criteria: view.Criteria,
		Columns:  view.Filtered.Columns,
		Rows:     rows,
		Page:     page,
		PageSize: pageSize,
		Total:    total,
		Charts:   chartResponses(view),
	})
}

// HandleGetCharts returns the charts for the criteria in the query string
func (h *DatasetHandlerImpl) HandleGetCharts(c echo.Context) error {
	id := c.Param("id")
	base, ok := h.datasetMgr.DefaultCriteria(id)
	if !ok {
		return NewNotFoundError("dataset", id)
	}
	crit, err := criteriaFromQuery(c, base)
	if err != nil {
		return err
	}

	view, ok := h.datasetMgr.Query(id, crit)
	if !ok {
		return NewNotFoundError("dataset", id)
	}
	h.datasetMgr.TouchSession(id)

	return c.JSON(http.StatusOK, chartsResponse{
		Criteria: view.Criteria,
		Total:    view.Filtered.Len(),
		Charts:   chartResponses(view),
	})
}

// HandleKeepAlive extends dataset lifetime for active viewing
func (h *DatasetHandlerImpl) HandleKeepAlive(c echo.Context) error {
	id := c.Param("id")
	if ok := h.datasetMgr.TouchSession(id); !ok {
		return NewNotFoundError("dataset", id)
	}
	return c.NoContent(http.StatusNoContent)
}

// HandleDeleteDataset discards a dataset
func (h *DatasetHandlerImpl) HandleDeleteDataset(c echo.Context) error {
	id := c.Param("id")
	if ok := h.datasetMgr.DeleteSession(id); !ok {
		return NewNotFoundError("dataset", id)
	}
	return c.NoContent(http.StatusNoContent)
}

// Request/Response types

type datasetResponse struct {
	*models.DatasetSession
	Preview []models.Row `json:"preview"`
}

type emptyDatasetResponse struct {
	*APIError
	Files []models.FileResult `json:"files"`
}

type rowsResponse struct {
	Columns  []string     `json:"columns"`
	Rows     []models.Row `json:"rows"`
	Page     int          `json:"page"`
	PageSize int          `json:"pageSize"`
	Total    int          `json:"total"`
}

type chartResponse struct {
	models.Chart
	Spec map[string]interface{} `json:"spec"`
}

type chartsResponse struct {
	Criteria models.Criteria `json:"criteria"`
	Total    int             `json:"total"`
	Charts   []chartResponse `json:"charts"`
}

type queryResponse struct {
	Criteria models.Criteria `json:"criteria"`
	Columns  []string        `json:"columns"`
	Rows     []models.Row    `json:"rows"`
	Page     int             `json:"page"`
	PageSize int             `json:"pageSize"`
	Total    int             `json:"total"`
	Charts   []chartResponse `json:"charts"`
}

func chartResponses(view *session.View) []chartResponse {
	out := make([]chartResponse, len(view.Charts))
	for i, ch := range view.Charts {
		out[i] = chartResponse{Chart: ch, Spec: report.VegaLite(ch)}
	}
	return out
}
