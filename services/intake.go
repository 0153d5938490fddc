package services

import (
	"math"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"property-marketplace/models"
)

const (
	minDescriptionLen = 10
	maxDescriptionLen = 1000
)

// ValidationErrors maps a field name to its human-readable problems.
type ValidationErrors map[string][]string

func (v ValidationErrors) add(field, msg string) {
	v[field] = append(v[field], msg)
}

// Error lists the failing fields in a stable order.
func (v ValidationErrors) Error() string {
	fields := make([]string, 0, len(v))
	for f := range v {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+strings.Join(v[f], "; "))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// ValidateListing checks every field of a submitted listing form and returns
// either a normalised payload or all field errors. The image URL is left
// empty when absent; the placeholder is applied when the listing is stored.
func ValidateListing(raw models.RawListingInput) (*models.ListingPayload, ValidationErrors) {
	errs := ValidationErrors{}

	minLength(errs, "name", raw.Name, 3, "Name must be at least 3 characters")
	minLength(errs, "address", raw.Address, 5, "Address must be at least 5 characters")
	minLength(errs, "propertyType", raw.PropertyType, 3, "Property type is required")
	minLength(errs, "location", raw.Location, 2, "Location is required")

	price := coerceNumber(errs, "price", raw.Price)
	if price != nil && *price <= 0 {
		errs.add("price", "Price must be a positive number")
	}
	bedrooms := coerceNumber(errs, "bedrooms", raw.Bedrooms)
	if bedrooms != nil && *bedrooms < 0 {
		errs.add("bedrooms", "Bedrooms cannot be negative")
	}
	bathrooms := coerceNumber(errs, "bathrooms", raw.Bathrooms)
	if bathrooms != nil && *bathrooms < 0 {
		errs.add("bathrooms", "Bathrooms cannot be negative")
	}
	squareFootage := coerceNumber(errs, "squareFootage", raw.SquareFootage)
	if squareFootage != nil && *squareFootage <= 0 {
		errs.add("squareFootage", "Square footage must be positive")
	}

	amenities := SplitTags(raw.Amenities)
	if len(amenities) == 0 {
		errs.add("amenities", "At least one amenity is required")
	}
	features := SplitTags(raw.UniqueFeatures)
	if len(features) == 0 {
		errs.add("uniqueFeatures", "At least one unique feature is required")
	}

	switch n := utf8.RuneCountInString(raw.Description); {
	case n < minDescriptionLen:
		errs.add("description", "Description must be at least 10 characters")
	case n > maxDescriptionLen:
		errs.add("description", "Description must be at most 1000 characters")
	}

	if raw.ImageURL != "" && !isAbsoluteURL(raw.ImageURL) {
		errs.add("imageUrl", "Image URL must be a valid URL")
	}

	if len(errs) > 0 {
		return nil, errs
	}

	return &models.ListingPayload{
		Name:           raw.Name,
		Address:        raw.Address,
		PropertyType:   raw.PropertyType,
		Location:       raw.Location,
		Price:          *price,
		Bedrooms:       *bedrooms,
		Bathrooms:      *bathrooms,
		SquareFootage:  *squareFootage,
		Amenities:      amenities,
		UniqueFeatures: features,
		Description:    raw.Description,
		ImageURL:       raw.ImageURL,
	}, nil
}

// ValidateBooking checks a booking request and returns either the payload
// or all field errors.
func ValidateBooking(raw models.RawBookingInput) (*models.BookingPayload, ValidationErrors) {
	errs := ValidationErrors{}

	minLength(errs, "propertyId", raw.PropertyID, 1, "Property ID is required")
	minLength(errs, "propertyName", raw.PropertyName, 1, "Property name is required")
	minLength(errs, "userName", raw.UserName, 2, "User name must be at least 2 characters")
	minLength(errs, "userPhone", raw.UserPhone, 5, "Phone number must be at least 5 characters")

	if len(errs) > 0 {
		return nil, errs
	}
	return &models.BookingPayload{
		PropertyID:   raw.PropertyID,
		PropertyName: raw.PropertyName,
		UserName:     raw.UserName,
		UserPhone:    raw.UserPhone,
	}, nil
}

// SplitTags splits comma-separated text, trims each segment and drops empty
// ones. Order and duplicates are kept.
func SplitTags(raw string) []string {
	tags := make([]string, 0, strings.Count(raw, ",")+1)
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			tags = append(tags, part)
		}
	}
	return tags
}

func minLength(errs ValidationErrors, field, value string, min int, msg string) {
	if utf8.RuneCountInString(value) < min {
		errs.add(field, msg)
	}
}

// coerceNumber converts form text to a number. Surrounding whitespace is
// ignored and blank text counts as zero.
func coerceNumber(errs ValidationErrors, field, raw string) *float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		zero := 0.0
		return &zero
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		errs.add(field, "Expected number")
		return nil
	}
	return &v
}

func isAbsoluteURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return u.Scheme != "" && (u.Host != "" || u.Opaque != "")
}
