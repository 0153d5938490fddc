package services

import (
	"context"
	"fmt"

	"property-marketplace/metrics"
	"property-marketplace/models"
	"property-marketplace/storage"
	"property-marketplace/utils"
)

// ListingService validates listing submissions and writes them to the store.
// It never refreshes anything after a write: readers see the new listing
// through their subscription.
type ListingService struct {
	store  storage.ListingStore
	logger *utils.Logger
}

// NewListingService creates a ListingService backed by store.
func NewListingService(store storage.ListingStore, logger *utils.Logger) *ListingService {
	return &ListingService{store: store, logger: logger}
}

// Create validates raw and inserts it. Invalid input returns ValidationErrors;
// store failures return an error wrapping storage.ErrStoreUnavailable.
func (s *ListingService) Create(ctx context.Context, raw models.RawListingInput) (*models.Listing, error) {
	payload, errs := ValidateListing(raw)
	if len(errs) > 0 {
		metrics.IncListingSubmission(metrics.OutcomeInvalid)
		s.logger.Debug("[listings] Rejected submission %q: %v", raw.Name, errs)
		return nil, errs
	}
	if payload.ImageURL == "" {
		payload.ImageURL = models.PlaceholderImageURL
	}

	listing, err := s.store.InsertListing(ctx, payload)
	if err != nil {
		metrics.IncListingSubmission(metrics.OutcomeError)
		s.logger.Error("[listings] Insert failed for %q: %v", payload.Name, err)
		return nil, fmt.Errorf("create listing: %w", err)
	}

	metrics.IncListingSubmission(metrics.OutcomeOK)
	s.logger.Info("[listings] Added %q (%s) in %s", listing.Name, listing.ID, listing.Location)
	return listing, nil
}
