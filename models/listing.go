package models

import "time"

// PlaceholderImageURL is stored for listings submitted without an image.
const PlaceholderImageURL = "https://placehold.co/600x400.png"

// RawListingInput holds the listing form exactly as submitted. Every field is
// text; numbers and tag lists are coerced during intake.
type RawListingInput struct {
	Name           string `json:"name" yaml:"name" form:"name"`
	Address        string `json:"address" yaml:"address" form:"address"`
	PropertyType   string `json:"propertyType" yaml:"propertyType" form:"propertyType"`
	Location       string `json:"location" yaml:"location" form:"location"`
	Price          string `json:"price" yaml:"price" form:"price"`
	Bedrooms       string `json:"bedrooms" yaml:"bedrooms" form:"bedrooms"`
	Bathrooms      string `json:"bathrooms" yaml:"bathrooms" form:"bathrooms"`
	SquareFootage  string `json:"squareFootage" yaml:"squareFootage" form:"squareFootage"`
	Amenities      string `json:"amenities" yaml:"amenities" form:"amenities"`
	UniqueFeatures string `json:"uniqueFeatures" yaml:"uniqueFeatures" form:"uniqueFeatures"`
	Description    string `json:"description" yaml:"description" form:"description"`
	ImageURL       string `json:"imageUrl" yaml:"imageUrl" form:"imageUrl"`
}

// ListingPayload is a validated listing that has not been stored yet.
// The store assigns ID and DateAdded.
type ListingPayload struct {
	Name           string   `json:"name"`
	Address        string   `json:"address"`
	PropertyType   string   `json:"propertyType"`
	Location       string   `json:"location"`
	Price          float64  `json:"price"`
	Bedrooms       float64  `json:"bedrooms"`
	Bathrooms      float64  `json:"bathrooms"`
	SquareFootage  float64  `json:"squareFootage"`
	Amenities      []string `json:"amenities"`
	UniqueFeatures []string `json:"uniqueFeatures"`
	Description    string   `json:"description"`
	ImageURL       string   `json:"imageUrl"`
}

// Listing is a stored property listing. Listings are never mutated after
// insert.
type Listing struct {
	ID string `json:"id"`
	ListingPayload
	DateAdded time.Time `json:"dateAdded"`
}

// ScrapedListing holds unprocessed text pulled from a public listing page
// by the importer, before cleaning.
type ScrapedListing struct {
	Title        string
	RawPrice     string
	Location     string
	Address      string
	PropertyType string
	Description  string
	ImageURL     string
	// Facts are short items such as "3 bedrooms" or "Ocean view".
	Facts     []string
	Amenities []string
	URL       string
	ScrapedAt time.Time
}
