package models

// SortField selects the listing attribute used for ordering.
type SortField string

const (
	SortByPrice     SortField = "price"
	SortByDateAdded SortField = "dateAdded"
	SortByBedrooms  SortField = "bedrooms"
)

// SortOrder is the ordering direction.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// FilterSortSpec describes which listings to show and in which order.
// Nil bounds and a nil Location mean "no filter". A non-nil Location is
// matched exactly, even when it points at an empty string.
type FilterSortSpec struct {
	PriceMin    *float64  `json:"priceMin,omitempty"`
	PriceMax    *float64  `json:"priceMax,omitempty"`
	Location    *string   `json:"location,omitempty"`
	BedroomsMin *float64  `json:"bedroomsMin,omitempty"`
	SortField   SortField `json:"sortField"`
	SortOrder   SortOrder `json:"sortOrder"`
}
