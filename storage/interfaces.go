package storage

import (
	"context"
	"errors"

	"property-marketplace/models"
)

// ErrStoreUnavailable is returned (wrapped) for writes the store cannot
// accept, either because it was never connected or because the backend
// failed.
var ErrStoreUnavailable = errors.New("store unavailable")

// Unsubscribe stops a snapshot subscription. Calling it more than once is a
// no-op.
type Unsubscribe func()

// ListingStore persists listings and streams the full listing collection,
// newest first.
type ListingStore interface {
	InsertListing(ctx context.Context, payload *models.ListingPayload) (*models.Listing, error)
	// SubscribeListings calls fn with the current snapshot and again after
	// every insert. Callbacks must not call back into the store
	// synchronously.
	SubscribeListings(fn func([]*models.Listing)) Unsubscribe
}

// BookingStore persists bookings and streams the full booking collection,
// newest first.
type BookingStore interface {
	InsertBooking(ctx context.Context, payload *models.BookingPayload) (*models.Booking, error)
	SubscribeBookings(fn func([]*models.Booking)) Unsubscribe
}

// Store is a connected backend serving both collections. Connect must
// succeed before inserts are accepted; Close releases the connection.
type Store interface {
	ListingStore
	BookingStore
	Connect(ctx context.Context) error
	Close() error
}

// BookingExporter writes bookings to a tabular file format.
type BookingExporter interface {
	WriteBookings(bookings []*models.Booking) error
	Close() error
}
