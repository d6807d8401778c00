package storage

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/research-explorer/backend/internal/models"
)

// Upload status values recorded on FileInfo.
const (
	StatusUploaded = "uploaded"
)

// Store keeps the raw spreadsheets behind each dataset so they can be listed and
// downloaded again while the dataset is alive.
type Store interface {
	Save(name string, r io.Reader) (*models.FileInfo, error)
	SaveBytes(name string, data []byte) (*models.FileInfo, error)
	Get(id string) (*models.FileInfo, error)
	List(limit int) ([]*models.FileInfo, error)
	Delete(id string) error
	DeleteByDataset(datasetID string) (int, error)
	GetFilePath(id string) (string, error)
	MarkLoaded(id, datasetID, status string) error
}

// LocalStore implements Store on the local filesystem. Metadata lives in memory;
// files are named by ID plus the upload's extension.
type LocalStore struct {
	mu        sync.RWMutex
	uploadDir string
	files     map[string]*models.FileInfo
	paths     map[string]string
}

// NewLocalStore creates a new LocalStore.
func NewLocalStore(uploadDir string) (*LocalStore, error) {
	if err := os.MkdirAll(uploadDir, 0755); err != nil {
		return nil, fmt.Errorf("creating upload directory: %w", err)
	}

	return &LocalStore{
		uploadDir: uploadDir,
		files:     make(map[string]*models.FileInfo),
		paths:     make(map[string]string),
	}, nil
}

// Save writes the upload to a temporary file and renames it into place, so a
// failed copy never leaves a partial spreadsheet behind.
func (s *LocalStore) Save(name string, r io.Reader) (*models.FileInfo, error) {
	id := uuid.New().String()
	ext := strings.ToLower(filepath.Ext(name))
	path := filepath.Join(s.uploadDir, id+ext)

	tmp, err := os.CreateTemp(s.uploadDir, id+"-*.part")
	if err != nil {
		return nil, fmt.Errorf("creating file: %w", err)
	}
	size, err := io.Copy(tmp, r)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp.Name())
		return nil, fmt.Errorf("writing file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return nil, fmt.Errorf("storing file: %w", err)
	}

	info := &models.FileInfo{
		ID:         id,
		Name:       name,
		Size:       size,
		UploadedAt: time.Now(),
		Status:     StatusUploaded,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[id] = info
	s.paths[id] = path

	return info, nil
}

// SaveBytes saves in-memory content as a file.
func (s *LocalStore) SaveBytes(name string, data []byte) (*models.FileInfo, error) {
	return s.Save(name, bytes.NewReader(data))
}

// Get retrieves file metadata by ID.
func (s *LocalStore) Get(id string) (*models.FileInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	info, ok := s.files[id]
	if !ok {
		return nil, fmt.Errorf("file not found: %s", id)
	}
	return info, nil
}

// List returns the most recent uploads first.
func (s *LocalStore) List(limit int) ([]*models.FileInfo, error) {
	s.mu.RLock()
	list := make([]*models.FileInfo, 0, len(s.files))
	for _, info := range s.files {
		list = append(list, info)
	}
	s.mu.RUnlock()

	sort.Slice(list, func(i, j int) bool {
		return list[i].UploadedAt.After(list[j].UploadedAt)
	})

	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

// Delete removes a file from storage.
func (s *LocalStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.files[id]; !ok {
		return fmt.Errorf("file not found: %s", id)
	}
	return s.removeLocked(id)
}

// DeleteByDataset removes every file merged into datasetID and reports how many
// were removed. Removal continues past individual failures; the first is returned.
func (s *LocalStore) DeleteByDataset(datasetID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var firstErr error
	removed := 0
	for id, info := range s.files {
		if info.DatasetID != datasetID {
			continue
		}
		if err := s.removeLocked(id); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		removed++
	}
	return removed, firstErr
}

func (s *LocalStore) removeLocked(id string) error {
	if err := os.Remove(s.paths[id]); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("deleting file: %w", err)
	}
	delete(s.files, id)
	delete(s.paths, id)
	return nil
}

// GetFilePath returns the path of the stored file.
func (s *LocalStore) GetFilePath(id string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	path, ok := s.paths[id]
	if !ok {
		return "", fmt.Errorf("file not found: %s", id)
	}
	return path, nil
}

// MarkLoaded records which dataset a file was merged into and how loading went.
func (s *LocalStore) MarkLoaded(id, datasetID, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	info, ok := s.files[id]
	if !ok {
		return fmt.Errorf("file not found: %s", id)
	}
	info.DatasetID = datasetID
	info.Status = status
	return nil
}
