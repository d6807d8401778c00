package models

import "time"

// DatasetStatus represents the state of a merged dataset session.
type DatasetStatus string

const (
	DatasetStatusReady DatasetStatus = "ready"
	DatasetStatusEmpty DatasetStatus = "empty"
)

// FileStatus represents the outcome of loading one uploaded file.
type FileStatus string

const (
	FileStatusLoaded  FileStatus = "loaded"
	FileStatusSkipped FileStatus = "skipped"
)

// FileResult reports how one uploaded file was handled.
type FileResult struct {
	FileID string     `json:"fileId,omitempty"`
	Name   string     `json:"name"`
	Status FileStatus `json:"status"`
	Rows   int        `json:"rows"`
	Error  string     `json:"error,omitempty"`
}

// DatasetSession describes a merged dataset held by the server.
type DatasetSession struct {
	ID               string        `json:"id"`
	Status           DatasetStatus `json:"status"`
	Files            []FileResult  `json:"files"`
	LoadedCount      int           `json:"loadedCount"`
	RowCount         int           `json:"rowCount"`
	Columns          []string      `json:"columns"`
	Options          FilterOptions `json:"options"`
	ProcessingTimeMs int64         `json:"processingTimeMs"`
	CreatedAt        time.Time     `json:"createdAt"`
}
