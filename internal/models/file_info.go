package models

import "time"

// FileInfo represents metadata about an uploaded spreadsheet.
type FileInfo struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Size       int64     `json:"size"`
	UploadedAt time.Time `json:"uploadedAt"`
	DatasetID  string    `json:"datasetId,omitempty"`
	Status     string    `json:"status"` // "uploaded", "loaded", "skipped"
}
