package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"property-marketplace/models"
	"property-marketplace/utils"
)

const (
	propertiesCollection = "properties"
	bookingsCollection   = "bookings"
)

type listingDocument struct {
	ID             string    `bson:"_id"`
	Name           string    `bson:"name"`
	Address        string    `bson:"address"`
	PropertyType   string    `bson:"propertyType"`
	Location       string    `bson:"location"`
	Price          float64   `bson:"price"`
	Bedrooms       float64   `bson:"bedrooms"`
	Bathrooms      float64   `bson:"bathrooms"`
	SquareFootage  float64   `bson:"squareFootage"`
	Amenities      []string  `bson:"amenities"`
	UniqueFeatures []string  `bson:"uniqueFeatures"`
	Description    string    `bson:"description"`
	ImageURL       string    `bson:"imageUrl"`
	DateAdded      time.Time `bson:"dateAdded"`
}

type bookingDocument struct {
	ID           string    `bson:"_id"`
	PropertyID   string    `bson:"propertyId"`
	PropertyName string    `bson:"propertyName"`
	UserName     string    `bson:"userName"`
	UserPhone    string    `bson:"userPhone"`
	BookingDate  time.Time `bson:"bookingDate"`
}

func newListingDocument(p *models.ListingPayload, now time.Time) listingDocument {
	return listingDocument{
		ID:             uuid.NewString(),
		Name:           p.Name,
		Address:        p.Address,
		PropertyType:   p.PropertyType,
		Location:       p.Location,
		Price:          p.Price,
		Bedrooms:       p.Bedrooms,
		Bathrooms:      p.Bathrooms,
		SquareFootage:  p.SquareFootage,
		Amenities:      p.Amenities,
		UniqueFeatures: p.UniqueFeatures,
		Description:    p.Description,
		ImageURL:       p.ImageURL,
		DateAdded:      now.UTC().Truncate(time.Millisecond),
	}
}

// toListing converts a stored document. Missing tag arrays come back as
// empty slices.
func (d listingDocument) toListing() *models.Listing {
	amenities, features := d.Amenities, d.UniqueFeatures
	if amenities == nil {
		amenities = []string{}
	}
	if features == nil {
		features = []string{}
	}
	return &models.Listing{
		ID: d.ID,
		ListingPayload: models.ListingPayload{
			Name:           d.Name,
			Address:        d.Address,
			PropertyType:   d.PropertyType,
			Location:       d.Location,
			Price:          d.Price,
			Bedrooms:       d.Bedrooms,
			Bathrooms:      d.Bathrooms,
			SquareFootage:  d.SquareFootage,
			Amenities:      amenities,
			UniqueFeatures: features,
			Description:    d.Description,
			ImageURL:       d.ImageURL,
		},
		DateAdded: d.DateAdded.UTC(),
	}
}

func (d bookingDocument) toBooking() *models.Booking {
	return &models.Booking{
		ID: d.ID,
		BookingPayload: models.BookingPayload{
			PropertyID:   d.PropertyID,
			PropertyName: d.PropertyName,
			UserName:     d.UserName,
			UserPhone:    d.UserPhone,
		},
		BookingDate: d.BookingDate.UTC(),
	}
}

// MongoStore persists listings and bookings as documents. Snapshots are
// fanned out to subscribers of this process only.
type MongoStore struct {
	uri    string
	dbName string
	logger *utils.Logger
	retry  *utils.RetryConfig

	mu       sync.RWMutex
	client   *mongo.Client
	listings *mongo.Collection
	bookings *mongo.Collection

	listingFeed *Feed[*models.Listing]
	bookingFeed *Feed[*models.Booking]
}

// NewMongoStore returns an unconnected store.
func NewMongoStore(uri, dbName string, logger *utils.Logger, retry *utils.RetryConfig) *MongoStore {
	return &MongoStore{
		uri:         uri,
		dbName:      dbName,
		logger:      logger,
		retry:       retry,
		listingFeed: NewFeed[*models.Listing](),
		bookingFeed: NewFeed[*models.Booking](),
	}
}

// Connect dials the server, pings it and ensures the sort indexes. It is a
// no-op on an already connected store.
func (ms *MongoStore) Connect(ctx context.Context) error {
	if ms.connected() {
		return nil
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(ms.uri))
	if err != nil {
		return fmt.Errorf("mongo: connect: %w: %v", ErrStoreUnavailable, err)
	}
	if err := ms.retry.Do(ctx, "mongo: ping", func(ctx context.Context) error {
		return client.Ping(ctx, readpref.Primary())
	}); err != nil {
		_ = client.Disconnect(context.Background())
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	db := client.Database(ms.dbName)
	listings := db.Collection(propertiesCollection)
	bookings := db.Collection(bookingsCollection)

	if _, err := listings.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: bson.D{{Key: "dateAdded", Value: -1}}}); err != nil {
		ms.logger.Warn("[mongo] Creating dateAdded index failed: %v", err)
	}
	if _, err := bookings.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: bson.D{{Key: "bookingDate", Value: -1}}}); err != nil {
		ms.logger.Warn("[mongo] Creating bookingDate index failed: %v", err)
	}

	ms.mu.Lock()
	if ms.client != nil {
		ms.mu.Unlock()
		_ = client.Disconnect(context.Background())
		return nil
	}
	ms.client, ms.listings, ms.bookings = client, listings, bookings
	ms.mu.Unlock()

	ms.logger.Info("[mongo] Connected to database %s", ms.dbName)
	ms.listingFeed.Publish(nil, ms.listingSnapshot)
	ms.bookingFeed.Publish(nil, ms.bookingSnapshot)
	return nil
}

func (ms *MongoStore) Close() error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	if ms.client == nil {
		return nil
	}
	err := ms.client.Disconnect(context.Background())
	ms.client, ms.listings, ms.bookings = nil, nil, nil
	return err
}

func (ms *MongoStore) connected() bool {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	return ms.client != nil
}

func (ms *MongoStore) collections() (*mongo.Collection, *mongo.Collection) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	return ms.listings, ms.bookings
}

func (ms *MongoStore) InsertListing(ctx context.Context, payload *models.ListingPayload) (*models.Listing, error) {
	var (
		stored *models.Listing
		err    error
	)
	ms.listingFeed.Publish(func() {
		coll, _ := ms.collections()
		if coll == nil {
			err = fmt.Errorf("mongo: insert listing: %w", ErrStoreUnavailable)
			return
		}
		doc := newListingDocument(payload, time.Now())
		if _, ierr := coll.InsertOne(ctx, doc); ierr != nil {
			err = fmt.Errorf("mongo: insert listing: %w: %v", ErrStoreUnavailable, ierr)
			return
		}
		stored = doc.toListing()
	}, ms.listingSnapshot)
	if err != nil {
		return nil, err
	}
	return stored, nil
}

func (ms *MongoStore) InsertBooking(ctx context.Context, payload *models.BookingPayload) (*models.Booking, error) {
	var (
		stored *models.Booking
		err    error
	)
	ms.bookingFeed.Publish(func() {
		_, coll := ms.collections()
		if coll == nil {
			err = fmt.Errorf("mongo: insert booking: %w", ErrStoreUnavailable)
			return
		}
		doc := bookingDocument{
			ID:           uuid.NewString(),
			PropertyID:   payload.PropertyID,
			PropertyName: payload.PropertyName,
			UserName:     payload.UserName,
			UserPhone:    payload.UserPhone,
			BookingDate:  time.Now().UTC().Truncate(time.Millisecond),
		}
		if _, ierr := coll.InsertOne(ctx, doc); ierr != nil {
			err = fmt.Errorf("mongo: insert booking: %w: %v", ErrStoreUnavailable, ierr)
			return
		}
		stored = doc.toBooking()
	}, ms.bookingSnapshot)
	if err != nil {
		return nil, err
	}
	return stored, nil
}

func (ms *MongoStore) SubscribeListings(fn func([]*models.Listing)) Unsubscribe {
	return ms.listingFeed.Subscribe(ms.listingSnapshot, fn)
}

func (ms *MongoStore) SubscribeBookings(fn func([]*models.Booking)) Unsubscribe {
	return ms.bookingFeed.Subscribe(ms.bookingSnapshot, fn)
}

func (ms *MongoStore) listingSnapshot() []*models.Listing {
	coll, _ := ms.collections()
	if coll == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var docs []listingDocument
	if err := findSorted(ctx, coll, "dateAdded", &docs); err != nil {
		ms.logger.Error("[mongo] Listing snapshot failed: %v", err)
		return nil
	}
	out := make([]*models.Listing, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toListing())
	}
	return out
}

func (ms *MongoStore) bookingSnapshot() []*models.Booking {
	_, coll := ms.collections()
	if coll == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var docs []bookingDocument
	if err := findSorted(ctx, coll, "bookingDate", &docs); err != nil {
		ms.logger.Error("[mongo] Booking snapshot failed: %v", err)
		return nil
	}
	out := make([]*models.Booking, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toBooking())
	}
	return out
}

// findSorted decodes the whole collection ordered by field, newest first.
func findSorted(ctx context.Context, coll *mongo.Collection, field string, dest any) error {
	cursor, err := coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: field, Value: -1}}))
	if err != nil {
		return err
	}
	return cursor.All(ctx, dest)
}
