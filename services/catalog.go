package services

import (
	"sync"

	"property-marketplace/metrics"
	"property-marketplace/models"
	"property-marketplace/storage"
	"property-marketplace/utils"
)

// Catalog keeps the latest listing and booking snapshots delivered by the
// store and lets readers query them without touching the database.
type Catalog struct {
	logger *utils.Logger

	mu       sync.RWMutex
	listings []*models.Listing
	bookings []*models.Booking

	unsubs []storage.Unsubscribe
}

// NewCatalog subscribes to both collections of store. The initial snapshots
// are in place when it returns.
func NewCatalog(store storage.Store, logger *utils.Logger) *Catalog {
	c := &Catalog{logger: logger}
	c.unsubs = append(c.unsubs,
		store.SubscribeListings(c.setListings),
		store.SubscribeBookings(c.setBookings),
	)
	return c
}

func (c *Catalog) setListings(listings []*models.Listing) {
	c.mu.Lock()
	c.listings = listings
	c.mu.Unlock()
	metrics.SetSnapshotSize("listings", len(listings))
	c.logger.Debug("[catalog] Listing snapshot: %d", len(listings))
}

func (c *Catalog) setBookings(bookings []*models.Booking) {
	c.mu.Lock()
	c.bookings = bookings
	c.mu.Unlock()
	metrics.SetSnapshotSize("bookings", len(bookings))
	c.logger.Debug("[catalog] Booking snapshot: %d", len(bookings))
}

// Listings returns the latest listing snapshot, newest first. The slice is
// shared and must not be modified.
func (c *Catalog) Listings() []*models.Listing {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.listings
}

// Bookings returns the latest booking snapshot, newest first.
func (c *Catalog) Bookings() []*models.Booking {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.bookings
}

// Query applies spec to the current listings.
func (c *Catalog) Query(spec models.FilterSortSpec) []*models.Listing {
	return Apply(c.Listings(), spec)
}

// Locations lists the distinct locations of the current listings.
func (c *Catalog) Locations() []string {
	return AvailableLocations(c.Listings())
}

// Close drops both subscriptions.
func (c *Catalog) Close() {
	for _, unsub := range c.unsubs {
		unsub()
	}
}
