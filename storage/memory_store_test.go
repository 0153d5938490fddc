package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"property-marketplace/models"
)

func samplePayload(name string) *models.ListingPayload {
	return &models.ListingPayload{
		Name: name, Address: "1 Main Street", PropertyType: "Apartment", Location: "Nashville",
		Price: 1500, Bedrooms: 2, Bathrooms: 1.5, SquareFootage: 900,
		Amenities: []string{"Pool"}, UniqueFeatures: []string{"View"},
		Description: "A lovely place to stay", ImageURL: models.PlaceholderImageURL,
	}
}

func TestMemoryStoreRejectsWritesBeforeConnect(t *testing.T) {
	s := NewMemoryStore()

	_, err := s.InsertListing(context.Background(), samplePayload("Loft"))
	assert.ErrorIs(t, err, ErrStoreUnavailable)

	_, err = s.InsertBooking(context.Background(), &models.BookingPayload{PropertyID: "p"})
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}

func TestMemoryStoreSubscribeBeforeConnectSeesEmptyThenData(t *testing.T) {
	s := NewMemoryStore()
	var snapshots [][]*models.Listing
	unsub := s.SubscribeListings(func(l []*models.Listing) { snapshots = append(snapshots, l) })
	defer unsub()

	require.Len(t, snapshots, 1)
	assert.Empty(t, snapshots[0])

	require.NoError(t, s.Connect(context.Background()))
	_, err := s.InsertListing(context.Background(), samplePayload("Loft"))
	require.NoError(t, err)

	require.Len(t, snapshots, 3)
	assert.Len(t, snapshots[2], 1)
}

func TestMemoryStoreSnapshotsAreNewestFirst(t *testing.T) {
	s := NewMemoryStore()
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }
	require.NoError(t, s.Connect(context.Background()))

	ctx := context.Background()
	first, err := s.InsertListing(ctx, samplePayload("First"))
	require.NoError(t, err)
	second, err := s.InsertListing(ctx, samplePayload("Second"))
	require.NoError(t, err)

	assert.NotEmpty(t, first.ID)
	assert.NotEqual(t, first.ID, second.ID)
	assert.True(t, second.DateAdded.After(first.DateAdded), "timestamps must stay strictly ordered")

	var latest []*models.Listing
	s.SubscribeListings(func(l []*models.Listing) { latest = l })()
	require.Len(t, latest, 2)
	assert.Equal(t, "Second", latest[0].Name)
	assert.Equal(t, "First", latest[1].Name)
}

func TestMemoryStoreBookingFeed(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.Connect(context.Background()))

	var latest []*models.Booking
	unsub := s.SubscribeBookings(func(b []*models.Booking) { latest = b })

	b, err := s.InsertBooking(context.Background(), &models.BookingPayload{
		PropertyID: "p1", PropertyName: "Loft", UserName: "Al", UserPhone: "12345",
	})
	require.NoError(t, err)
	require.Len(t, latest, 1)
	assert.Equal(t, b.ID, latest[0].ID)
	assert.False(t, b.BookingDate.IsZero())

	unsub()
	unsub()
	_, err = s.InsertBooking(context.Background(), &models.BookingPayload{PropertyID: "p2"})
	require.NoError(t, err)
	assert.Len(t, latest, 1, "unsubscribed callback must not fire")
}

func TestMemoryStoreCopiesTags(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.Connect(context.Background()))

	p := samplePayload("Loft")
	stored, err := s.InsertListing(context.Background(), p)
	require.NoError(t, err)

	p.Amenities[0] = "changed"
	assert.Equal(t, "Pool", stored.Amenities[0])
}
