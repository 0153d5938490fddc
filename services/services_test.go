package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"property-marketplace/generator"
	"property-marketplace/metrics"
	"property-marketplace/models"
	"property-marketplace/storage"
	"property-marketplace/utils"
)

func connectedStore(t *testing.T) *storage.MemoryStore {
	t.Helper()
	store := storage.NewMemoryStore()
	require.NoError(t, store.Connect(context.Background()))
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestListingServiceCreateAppliesPlaceholder(t *testing.T) {
	store := connectedStore(t)
	svc := NewListingService(store, newTestLogger())

	in := validListingInput()
	in.ImageURL = ""
	listing, err := svc.Create(context.Background(), in)
	require.NoError(t, err)

	assert.NotEmpty(t, listing.ID)
	assert.False(t, listing.DateAdded.IsZero())
	assert.Equal(t, models.PlaceholderImageURL, listing.ImageURL)
}

func TestListingServiceCreateRejectsInvalidInput(t *testing.T) {
	store := connectedStore(t)
	svc := NewListingService(store, newTestLogger())

	var snapshots int
	unsub := store.SubscribeListings(func([]*models.Listing) { snapshots++ })
	defer unsub()

	in := validListingInput()
	in.Amenities = ", ,"
	_, err := svc.Create(context.Background(), in)

	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Contains(t, verrs, "amenities")
	assert.Equal(t, 1, snapshots, "nothing may be persisted")
}

func TestListingServiceCreateSurfacesStoreUnavailable(t *testing.T) {
	svc := NewListingService(storage.NewMemoryStore(), newTestLogger())
	_, err := svc.Create(context.Background(), validListingInput())
	assert.ErrorIs(t, err, storage.ErrStoreUnavailable)
}

func TestBookingServiceCreate(t *testing.T) {
	store := connectedStore(t)
	svc := NewBookingService(store, newTestLogger())

	booking, err := svc.Create(context.Background(), models.RawBookingInput{
		PropertyID: "p-1", PropertyName: "Sunny Loft", UserName: "Jo", UserPhone: "55501",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, booking.ID)
	assert.Equal(t, "Sunny Loft", booking.PropertyName)

	_, err = svc.Create(context.Background(), models.RawBookingInput{PropertyID: "p-1", PropertyName: "x", UserName: "Jo", UserPhone: "555"})
	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Contains(t, verrs, "userPhone")
}

func TestCatalogTracksSnapshots(t *testing.T) {
	store := connectedStore(t)
	catalog := NewCatalog(store, newTestLogger())
	defer catalog.Close()

	assert.Empty(t, catalog.Listings())

	listings := NewListingService(store, newTestLogger())
	for _, loc := range []string{"Nashville", "Austin", "Nashville"} {
		in := validListingInput()
		in.Location = loc
		_, err := listings.Create(context.Background(), in)
		require.NoError(t, err)
	}

	require.Len(t, catalog.Listings(), 3)
	assert.Equal(t, []string{"Austin", "Nashville"}, catalog.Locations())

	loc := "Nashville"
	got := catalog.Query(models.FilterSortSpec{Location: &loc, SortField: models.SortByDateAdded, SortOrder: models.SortDesc})
	assert.Len(t, got, 2)

	bookings := NewBookingService(store, newTestLogger())
	_, err := bookings.Create(context.Background(), models.RawBookingInput{
		PropertyID: got[0].ID, PropertyName: got[0].Name, UserName: "Sam", UserPhone: "12345",
	})
	require.NoError(t, err)
	assert.Len(t, catalog.Bookings(), 1)
}

func TestCatalogStopsAfterClose(t *testing.T) {
	store := connectedStore(t)
	catalog := NewCatalog(store, newTestLogger())
	catalog.Close()

	_, err := NewListingService(store, newTestLogger()).Create(context.Background(), validListingInput())
	require.NoError(t, err)
	assert.Empty(t, catalog.Listings())
}

type stubGenerator struct {
	calls   atomic.Int32
	text    string
	err     error
	release chan struct{}
	started chan struct{}
}

func (g *stubGenerator) Generate(ctx context.Context, _ generator.Request) (string, error) {
	g.calls.Add(1)
	if g.started != nil {
		g.started <- struct{}{}
	}
	if g.release != nil {
		<-g.release
	}
	return g.text, g.err
}

func sampleRequest() generator.Request {
	return generator.Request{
		PropertyType: "Apartment", Location: "Nashville", Bedrooms: 2, Bathrooms: 1,
		SquareFootage: 900, Amenities: "Pool, Gym", UniqueFeatures: "Rooftop",
	}
}

func TestDescriptionServiceGenerate(t *testing.T) {
	gen := &stubGenerator{text: "A charming home."}
	svc := NewDescriptionService(gen, nil, newTestLogger())

	text, err := svc.Generate(context.Background(), sampleRequest())
	require.NoError(t, err)
	assert.Equal(t, "A charming home.", text)
}

type cachedStub struct {
	stubGenerator
	hit string
}

func (g *cachedStub) Cached(context.Context, generator.Request) (string, bool) {
	return g.hit, g.hit != ""
}

func descriptionCount(t *testing.T, outcome string) float64 {
	t.Helper()
	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != "marketplace_description_generations_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetName() == "outcome" && lp.GetValue() == outcome {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func TestDescriptionServiceCountsCacheHitOnce(t *testing.T) {
	metrics.Register()
	gen := &cachedStub{stubGenerator: stubGenerator{text: "fresh"}, hit: "From cache."}
	svc := NewDescriptionService(gen, nil, newTestLogger())

	okBefore, cachedBefore := descriptionCount(t, metrics.OutcomeOK), descriptionCount(t, metrics.OutcomeCached)
	text, err := svc.Generate(context.Background(), sampleRequest())
	require.NoError(t, err)

	assert.Equal(t, "From cache.", text)
	assert.Zero(t, gen.calls.Load())
	assert.Equal(t, cachedBefore+1, descriptionCount(t, metrics.OutcomeCached))
	assert.Equal(t, okBefore, descriptionCount(t, metrics.OutcomeOK))

	gen.hit = ""
	text, err = svc.Generate(context.Background(), sampleRequest())
	require.NoError(t, err)
	assert.Equal(t, "fresh", text)
	assert.Equal(t, okBefore+1, descriptionCount(t, metrics.OutcomeOK))
}

func TestDescriptionServiceWrapsFailures(t *testing.T) {
	gen := &stubGenerator{err: errors.New("provider down")}
	retry := &utils.RetryConfig{MaxAttempts: 2, BaseDelay: time.Millisecond}
	svc := NewDescriptionService(gen, retry, newTestLogger())

	_, err := svc.Generate(context.Background(), sampleRequest())
	assert.ErrorIs(t, err, ErrGenerationFailed)
	assert.Equal(t, int32(2), gen.calls.Load())
}

func TestDescriptionServiceRejectsDuplicateInFlight(t *testing.T) {
	gen := &stubGenerator{text: "ok", release: make(chan struct{}), started: make(chan struct{}, 1)}
	svc := NewDescriptionService(gen, nil, newTestLogger())

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = svc.Generate(context.Background(), sampleRequest())
	}()
	<-gen.started

	_, err := svc.Generate(context.Background(), sampleRequest())
	assert.ErrorIs(t, err, ErrGenerationInFlight)

	close(gen.release)
	wg.Wait()

	gen.started = nil
	_, err = svc.Generate(context.Background(), sampleRequest())
	assert.NoError(t, err)
}
