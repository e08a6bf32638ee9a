package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/groundedweb/groundedweb-go/models"
)

const defaultMaxWorkers = 5

// ProgressFunc receives (completed, total) as photo uploads finish. It may
// be called from multiple goroutines, but calls are serialized and the
// completed count is strictly increasing.
type ProgressFunc func(completed, total int)

// DatasetService manipulates dataset resources and runs the photo upload
// pipeline for dataset creation.
type DatasetService struct {
	c *Client
}

// CreateDatasetParams describes a dataset to create and the local photos
// to upload into it.
type CreateDatasetParams struct {
	Name         string
	PhotosBefore []string
	PhotosAfter  []string

	// MaxWorkers bounds the number of concurrent photo pipelines.
	// Defaults to 5.
	MaxWorkers int

	// Progress, when set, is invoked with (0, total) before uploading
	// starts and once per completed photo.
	Progress ProgressFunc

	// CleanupOnFailure deletes the dataset (best effort) when the upload
	// batch fails, instead of leaving it unconfirmed on the server.
	CleanupOnFailure bool
}

// Some create endpoints return the new primary key as "pk", others as "id".
type resourceID struct {
	PK int `json:"pk"`
	ID int `json:"id"`
}

func (r resourceID) value() int {
	if r.PK != 0 {
		return r.PK
	}
	return r.ID
}

// Create creates a dataset, uploads all of its photos in parallel, and
// confirms the dataset once every photo has landed. If any photo fails it
// returns *UploadError and the dataset is not confirmed; the batch runs to
// completion regardless of earlier failures so the error reports every
// failed photo.
func (s *DatasetService) Create(ctx context.Context, params CreateDatasetParams) (*models.Dataset, error) {
	tasks, err := planTasks(params.PhotosBefore, params.PhotosAfter)
	if err != nil {
		return nil, err
	}

	datasetID, err := s.initDataset(ctx, params.Name)
	if err != nil {
		return nil, err
	}

	if err := s.uploadAll(ctx, datasetID, tasks, params); err != nil {
		var uploadErr *UploadError
		if params.CleanupOnFailure && errors.As(err, &uploadErr) {
			s.cleanupDataset(ctx, datasetID)
		}
		return nil, err
	}

	return s.confirmAndFetch(ctx, datasetID)
}

// Get fetches a dataset by id.
func (s *DatasetService) Get(ctx context.Context, id int) (*models.Dataset, error) {
	var ds models.Dataset
	if err := s.c.get(ctx, fmt.Sprintf("datasets/%d", id), &ds); err != nil {
		return nil, err
	}
	return &ds, nil
}

// Update patches a dataset's mutable fields and returns the updated view.
func (s *DatasetService) Update(ctx context.Context, id int, update models.DatasetUpdate) (*models.Dataset, error) {
	var ds models.Dataset
	if err := s.c.patch(ctx, fmt.Sprintf("datasets/%d", id), update, &ds); err != nil {
		return nil, err
	}
	return &ds, nil
}

// Delete removes a dataset by id.
func (s *DatasetService) Delete(ctx context.Context, id int) error {
	return s.c.delete(ctx, fmt.Sprintf("datasets/%d", id))
}

// initDataset creates the dataset resource and returns its id.
func (s *DatasetService) initDataset(ctx context.Context, name string) (int, error) {
	var resp resourceID
	if err := s.c.post(ctx, "datasets", map[string]string{"name": name}, &resp); err != nil {
		return 0, err
	}
	id := resp.value()
	if id == 0 {
		return 0, &MalformedResponseError{Endpoint: "datasets", Missing: "dataset id"}
	}
	s.c.logger.Info("dataset initialized", slog.Int("dataset_id", id))
	return id, nil
}

// confirmAndFetch finalizes the dataset server-side and returns the
// refreshed representation.
func (s *DatasetService) confirmAndFetch(ctx context.Context, datasetID int) (*models.Dataset, error) {
	if err := s.c.post(ctx, fmt.Sprintf("datasets/%d/confirm-upload", datasetID), nil, nil); err != nil {
		return nil, err
	}
	s.c.logger.Info("dataset confirmed", slog.Int("dataset_id", datasetID))
	return s.Get(ctx, datasetID)
}

// cleanupDataset best-effort deletes a dataset whose upload batch failed.
func (s *DatasetService) cleanupDataset(ctx context.Context, datasetID int) {
	if err := s.Delete(ctx, datasetID); err != nil {
		s.c.logger.Error("failed to clean up unconfirmed dataset",
			slog.Int("dataset_id", datasetID),
			slog.String("error", err.Error()))
		return
	}
	s.c.logger.Info("unconfirmed dataset deleted", slog.Int("dataset_id", datasetID))
}
