package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"property-marketplace/models"
)

// MemoryStore keeps both collections in process memory. It backs the
// "memory" driver and the tests.
type MemoryStore struct {
	mu        sync.RWMutex
	connected bool
	listings  []*models.Listing // newest first
	bookings  []*models.Booking // newest first

	listingFeed *Feed[*models.Listing]
	bookingFeed *Feed[*models.Booking]

	now func() time.Time
}

// NewMemoryStore creates an unconnected, empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		listingFeed: NewFeed[*models.Listing](),
		bookingFeed: NewFeed[*models.Booking](),
		now:         time.Now,
	}
}

func (m *MemoryStore) Connect(ctx context.Context) error {
	m.mu.Lock()
	m.connected = true
	m.mu.Unlock()
	// Subscribers registered before Connect saw an empty snapshot.
	m.listingFeed.Publish(nil, m.listingSnapshot)
	m.bookingFeed.Publish(nil, m.bookingSnapshot)
	return nil
}

func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connected = false
	return nil
}

// InsertListing assigns an ID and DateAdded and publishes the new snapshot.
func (m *MemoryStore) InsertListing(ctx context.Context, payload *models.ListingPayload) (*models.Listing, error) {
	var (
		stored *models.Listing
		err    error
	)
	m.listingFeed.Publish(func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if !m.connected {
			err = fmt.Errorf("memory: insert listing: %w", ErrStoreUnavailable)
			return
		}
		l := &models.Listing{
			ID:             uuid.NewString(),
			ListingPayload: clonePayload(*payload),
			DateAdded:      m.stamp(),
		}
		m.listings = append([]*models.Listing{l}, m.listings...)
		stored = l
	}, m.listingSnapshot)
	if err != nil {
		return nil, err
	}
	return stored, nil
}

// InsertBooking assigns an ID and BookingDate and publishes the new snapshot.
func (m *MemoryStore) InsertBooking(ctx context.Context, payload *models.BookingPayload) (*models.Booking, error) {
	var (
		stored *models.Booking
		err    error
	)
	m.bookingFeed.Publish(func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if !m.connected {
			err = fmt.Errorf("memory: insert booking: %w", ErrStoreUnavailable)
			return
		}
		b := &models.Booking{
			ID:             uuid.NewString(),
			BookingPayload: *payload,
			BookingDate:    m.stamp(),
		}
		m.bookings = append([]*models.Booking{b}, m.bookings...)
		stored = b
	}, m.bookingSnapshot)
	if err != nil {
		return nil, err
	}
	return stored, nil
}

func (m *MemoryStore) SubscribeListings(fn func([]*models.Listing)) Unsubscribe {
	return m.listingFeed.Subscribe(m.listingSnapshot, fn)
}

func (m *MemoryStore) SubscribeBookings(fn func([]*models.Booking)) Unsubscribe {
	return m.bookingFeed.Subscribe(m.bookingSnapshot, fn)
}

func (m *MemoryStore) listingSnapshot() []*models.Listing {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.connected {
		return nil
	}
	out := make([]*models.Listing, len(m.listings))
	copy(out, m.listings)
	return out
}

func (m *MemoryStore) bookingSnapshot() []*models.Booking {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.connected {
		return nil
	}
	out := make([]*models.Booking, len(m.bookings))
	copy(out, m.bookings)
	return out
}

// stamp returns a UTC millisecond timestamp that never goes backwards, so
// prepending keeps the collection ordered newest first.
func (m *MemoryStore) stamp() time.Time {
	ts := m.now().UTC().Truncate(time.Millisecond)
	var last time.Time
	if len(m.listings) > 0 && m.listings[0].DateAdded.After(last) {
		last = m.listings[0].DateAdded
	}
	if len(m.bookings) > 0 && m.bookings[0].BookingDate.After(last) {
		last = m.bookings[0].BookingDate
	}
	if !ts.After(last) && !last.IsZero() {
		ts = last.Add(time.Millisecond)
	}
	return ts
}

func clonePayload(p models.ListingPayload) models.ListingPayload {
	p.Amenities = append([]string(nil), p.Amenities...)
	p.UniqueFeatures = append([]string(nil), p.UniqueFeatures...)
	return p
}
