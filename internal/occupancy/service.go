// Package occupancy exposes the read-only space status published by the
// external lot detector. This service never writes the namespace.
package occupancy

import (
	"context"

	"smartpark/internal/models"
)

// LotStore defines the storage contract used by the service.
type LotStore interface {
	Spaces(ctx context.Context, lotID string) ([]models.Space, error)
	Watch(ctx context.Context, lotID string) (<-chan models.SpaceEvent, error)
}

// Summary aggregates a lot's occupancy for rendering.
type Summary struct {
	LotID    string         `json:"lotId"`
	Total    int            `json:"total"`
	Occupied int            `json:"occupied"`
	Empty    int            `json:"empty"`
	Spaces   []models.Space `json:"spaces"`
}

// Service reads lot occupancy.
type Service struct {
	store LotStore
}

// NewService builds the occupancy service.
func NewService(store LotStore) *Service {
	return &Service{store: store}
}

// Lot returns the current occupancy of every space in the lot.
func (s *Service) Lot(ctx context.Context, lotID string) (*Summary, error) {
	spaces, err := s.store.Spaces(ctx, lotID)
	if err != nil {
		return nil, err
	}

	sum := &Summary{LotID: lotID, Total: len(spaces), Spaces: spaces}
	for _, sp := range spaces {
		switch sp.Status {
		case models.SpaceOccupied:
			sum.Occupied++
		case models.SpaceEmpty:
			sum.Empty++
		}
	}
	return sum, nil
}

// Watch streams space status changes for the lot until ctx is done.
func (s *Service) Watch(ctx context.Context, lotID string) (<-chan models.SpaceEvent, error) {
	return s.store.Watch(ctx, lotID)
}
