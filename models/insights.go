package models

// PropertyBookings counts booking requests for one property.
type PropertyBookings struct {
	PropertyID   string `json:"propertyId"`
	PropertyName string `json:"propertyName"`
	Bookings     int    `json:"bookings"`
}

// InsightReport holds the aggregates shown on the admin dashboard.
type InsightReport struct {
	TotalListings      int                `json:"totalListings"`
	TotalBookings      int                `json:"totalBookings"`
	AveragePrice       float64            `json:"averagePrice"`
	MinPrice           float64            `json:"minPrice"`
	MaxPrice           float64            `json:"maxPrice"`
	MostExpensive      *Listing           `json:"mostExpensive,omitempty"`
	MostBooked         []PropertyBookings `json:"mostBooked"`
	ListingsByLocation map[string]int     `json:"listingsByLocation"`
}
