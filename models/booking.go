package models

import "time"

// RawBookingInput is a booking request as submitted by a visitor.
type RawBookingInput struct {
	PropertyID   string `json:"propertyId" yaml:"propertyId" form:"propertyId"`
	PropertyName string `json:"propertyName" yaml:"propertyName" form:"propertyName"`
	UserName     string `json:"userName" yaml:"userName" form:"userName"`
	UserPhone    string `json:"userPhone" yaml:"userPhone" form:"userPhone"`
}

// BookingPayload is a validated booking request awaiting insert.
type BookingPayload struct {
	PropertyID   string `json:"propertyId"`
	PropertyName string `json:"propertyName"`
	UserName     string `json:"userName"`
	UserPhone    string `json:"userPhone"`
}

// Booking is a stored booking request. PropertyName is copied from the
// listing at booking time and is not kept in sync.
type Booking struct {
	ID string `json:"id"`
	BookingPayload
	BookingDate time.Time `json:"bookingDate"`
}
