package client

import (
	"context"
	"fmt"

	"github.com/groundedweb/groundedweb-go/models"
)

// ConfigurationService manipulates analysis configuration resources.
type ConfigurationService struct {
	c *Client
}

// Create registers a new configuration and returns the stored version.
func (s *ConfigurationService) Create(ctx context.Context, cfg models.Configuration) (*models.Configuration, error) {
	var created models.Configuration
	if err := s.c.post(ctx, "configurations", cfg, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// Get fetches a configuration by id.
func (s *ConfigurationService) Get(ctx context.Context, id int) (*models.Configuration, error) {
	var cfg models.Configuration
	if err := s.c.get(ctx, fmt.Sprintf("configurations/%d", id), &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// List returns all configurations visible to the current user.
func (s *ConfigurationService) List(ctx context.Context) ([]models.Configuration, error) {
	var cfgs []models.Configuration
	if err := s.c.get(ctx, "configurations", &cfgs); err != nil {
		return nil, err
	}
	return cfgs, nil
}

// Update patches a configuration's mutable fields and returns the updated
// view.
func (s *ConfigurationService) Update(ctx context.Context, id int, update models.ConfigurationUpdate) (*models.Configuration, error) {
	var cfg models.Configuration
	if err := s.c.patch(ctx, fmt.Sprintf("configurations/%d", id), update, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Delete removes a configuration by id.
func (s *ConfigurationService) Delete(ctx context.Context, id int) error {
	return s.c.delete(ctx, fmt.Sprintf("configurations/%d", id))
}
