package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/groundedweb/groundedweb-go/models"
)

// AnalysisService manipulates analysis resources.
type AnalysisService struct {
	c *Client
}

// CreateAnalysisParams describes a new analysis run over a dataset.
type CreateAnalysisParams struct {
	Name string

	// Configuration is embedded whole in the request, including the
	// tool configs with their resource_type discriminators.
	Configuration models.Configuration

	// DatasetID selects the dataset to analyze. Required.
	DatasetID int

	// PhotoIDs restricts the analysis to a subset of the dataset's
	// photos. A nil slice means all photos; a non-nil slice is sent
	// as-is, even when empty.
	PhotoIDs []int

	NotifyByEmail bool
}

// Create launches a new analysis and returns its initial representation.
func (s *AnalysisService) Create(ctx context.Context, params CreateAnalysisParams) (*models.Analysis, error) {
	if params.DatasetID == 0 {
		return nil, errors.New("analysis requires a dataset id")
	}

	selection := map[string]any{"dataset_id": params.DatasetID}
	if params.PhotoIDs != nil {
		selection["photos_ids"] = params.PhotoIDs
	}
	payload := map[string]any{
		"name":            params.Name,
		"configuration":   params.Configuration,
		"selection":       selection,
		"notify_by_email": params.NotifyByEmail,
	}

	var analysis models.Analysis
	if err := s.c.post(ctx, "analyzes", payload, &analysis); err != nil {
		return nil, err
	}
	return &analysis, nil
}

// Get fetches an analysis by id, including its current status and results.
func (s *AnalysisService) Get(ctx context.Context, id int) (*models.Analysis, error) {
	var analysis models.Analysis
	if err := s.c.get(ctx, fmt.Sprintf("analyzes/%d", id), &analysis); err != nil {
		return nil, err
	}
	return &analysis, nil
}

// Update patches an analysis' mutable fields and returns the updated view.
func (s *AnalysisService) Update(ctx context.Context, id int, update models.AnalysisUpdate) (*models.Analysis, error) {
	var analysis models.Analysis
	if err := s.c.patch(ctx, fmt.Sprintf("analyzes/%d", id), update, &analysis); err != nil {
		return nil, err
	}
	return &analysis, nil
}

// Delete removes an analysis by id.
func (s *AnalysisService) Delete(ctx context.Context, id int) error {
	return s.c.delete(ctx, fmt.Sprintf("analyzes/%d", id))
}
