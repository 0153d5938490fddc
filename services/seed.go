package services

import (
	"context"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"property-marketplace/models"
)

// SeedFile is the YAML document accepted by the seed command. Bookings may
// name their property by listing name instead of ID.
type SeedFile struct {
	Listings []models.RawListingInput `yaml:"listings"`
	Bookings []models.RawBookingInput `yaml:"bookings"`
}

// SeedSummary counts what a seed run stored and rejected.
type SeedSummary struct {
	Listings int
	Bookings int
	Rejected int
}

// LoadSeed decodes a seed document.
func LoadSeed(r io.Reader) (*SeedFile, error) {
	var seed SeedFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&seed); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("seed: decode: %w", err)
	}
	return &seed, nil
}

// Seed stores every entry of seed through the normal intake path. Invalid
// entries are logged and skipped; a store failure stops the run.
func Seed(ctx context.Context, seed *SeedFile, listings *ListingService, bookings *BookingService) (SeedSummary, error) {
	var summary SeedSummary
	idsByName := make(map[string]string)

	for _, raw := range seed.Listings {
		listing, err := listings.Create(ctx, raw)
		var verrs ValidationErrors
		switch {
		case errors.As(err, &verrs):
			summary.Rejected++
			continue
		case err != nil:
			return summary, err
		}
		idsByName[listing.Name] = listing.ID
		summary.Listings++
	}

	for _, raw := range seed.Bookings {
		if raw.PropertyID == "" {
			raw.PropertyID = idsByName[raw.PropertyName]
		}
		_, err := bookings.Create(ctx, raw)
		var verrs ValidationErrors
		switch {
		case errors.As(err, &verrs):
			summary.Rejected++
			continue
		case err != nil:
			return summary, err
		}
		summary.Bookings++
	}
	return summary, nil
}
