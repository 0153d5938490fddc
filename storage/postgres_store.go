package storage

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"property-marketplace/models"
	"property-marketplace/utils"
)

const (
	listingsChannel = "listings_changed"
	bookingsChannel = "bookings_changed"
)

// PostgresStore persists listings and bookings in PostgreSQL. With LISTEN
// enabled, inserts made by any process sharing the database trigger a
// snapshot refresh through NOTIFY.
type PostgresStore struct {
	dsn    string
	listen bool
	logger *utils.Logger
	retry  *utils.RetryConfig

	mu       sync.RWMutex
	db       *sql.DB
	listener *pq.Listener
	done     chan struct{}

	listingFeed *Feed[*models.Listing]
	bookingFeed *Feed[*models.Booking]
}

// NewPostgresStore returns an unconnected store for dsn.
func NewPostgresStore(dsn string, listen bool, logger *utils.Logger, retry *utils.RetryConfig) *PostgresStore {
	return &PostgresStore{
		dsn:         dsn,
		listen:      listen,
		logger:      logger,
		retry:       retry,
		listingFeed: NewFeed[*models.Listing](),
		bookingFeed: NewFeed[*models.Booking](),
	}
}

// NewPostgresStoreFromDB wraps an already opened handle. Connect still has
// to be called to verify it and run migrations; LISTEN is not used.
func NewPostgresStoreFromDB(db *sql.DB, logger *utils.Logger) *PostgresStore {
	ps := NewPostgresStore("", false, logger, &utils.RetryConfig{MaxAttempts: 1, Logger: logger})
	ps.db = db
	return ps
}

// Connect opens the connection pool, waits for the server, migrates the
// schema and starts the notification listener.
func (ps *PostgresStore) Connect(ctx context.Context) error {
	ps.mu.Lock()
	db, opened := ps.db, false
	if db == nil {
		var err error
		db, err = sql.Open("postgres", ps.dsn)
		if err != nil {
			ps.mu.Unlock()
			return fmt.Errorf("postgres: open: %w", err)
		}
		opened = true
	}
	ps.mu.Unlock()

	if err := ps.retry.Do(ctx, "postgres: ping", func(ctx context.Context) error {
		return db.PingContext(ctx)
	}); err != nil {
		if opened {
			_ = db.Close()
		}
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if err := migrate(ctx, db); err != nil {
		return fmt.Errorf("postgres: migrate: %w", err)
	}

	ps.mu.Lock()
	ps.db = db
	if ps.listen && ps.listener == nil {
		ps.listener = pq.NewListener(ps.dsn, 2*time.Second, time.Minute, ps.listenerEvent)
		for _, ch := range []string{listingsChannel, bookingsChannel} {
			if err := ps.listener.Listen(ch); err != nil {
				ps.logger.Warn("[postgres] LISTEN %s failed, falling back to local refresh: %v", ch, err)
				_ = ps.listener.Close()
				ps.listener = nil
				break
			}
		}
		if ps.listener != nil {
			ps.done = make(chan struct{})
			go ps.watch(ps.listener, ps.done)
		}
	}
	ps.mu.Unlock()

	ps.logger.Info("[postgres] Connected (listen: %t)", ps.listening())
	ps.refreshListings()
	ps.refreshBookings()
	return nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS listings (
			id              TEXT PRIMARY KEY,
			name            TEXT             NOT NULL,
			address         TEXT             NOT NULL,
			property_type   TEXT             NOT NULL,
			location        TEXT             NOT NULL,
			price           DOUBLE PRECISION NOT NULL,
			bedrooms        DOUBLE PRECISION NOT NULL DEFAULT 0,
			bathrooms       DOUBLE PRECISION NOT NULL DEFAULT 0,
			square_footage  DOUBLE PRECISION NOT NULL,
			amenities       TEXT[]           NOT NULL DEFAULT '{}',
			unique_features TEXT[]           NOT NULL DEFAULT '{}',
			description     TEXT             NOT NULL,
			image_url       TEXT             NOT NULL,
			date_added      TIMESTAMPTZ      NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS bookings (
			id            TEXT PRIMARY KEY,
			property_id   TEXT        NOT NULL,
			property_name TEXT        NOT NULL,
			user_name     TEXT        NOT NULL,
			user_phone    TEXT        NOT NULL,
			booking_date  TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_listings_date_added  ON listings(date_added DESC);
		CREATE INDEX IF NOT EXISTS idx_listings_location    ON listings(location);
		CREATE INDEX IF NOT EXISTS idx_bookings_booking_date ON bookings(booking_date DESC);
		CREATE INDEX IF NOT EXISTS idx_bookings_property_id ON bookings(property_id);
	`)
	return err
}

// Close stops the listener and closes the pool.
func (ps *PostgresStore) Close() error {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	if ps.done != nil {
		close(ps.done)
		ps.done = nil
	}
	if ps.listener != nil {
		_ = ps.listener.Close()
		ps.listener = nil
	}
	if ps.db == nil {
		return nil
	}
	err := ps.db.Close()
	ps.db = nil
	return err
}

func (ps *PostgresStore) handle() *sql.DB {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	return ps.db
}

func (ps *PostgresStore) listening() bool {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	return ps.listener != nil
}

// InsertListing stores payload with a fresh ID; the database assigns
// date_added.
func (ps *PostgresStore) InsertListing(ctx context.Context, payload *models.ListingPayload) (*models.Listing, error) {
	db := ps.handle()
	if db == nil {
		return nil, fmt.Errorf("postgres: insert listing: %w", ErrStoreUnavailable)
	}

	l := &models.Listing{ID: uuid.NewString(), ListingPayload: *payload}
	err := db.QueryRowContext(ctx, `
		INSERT INTO listings (id, name, address, property_type, location, price, bedrooms,
			bathrooms, square_footage, amenities, unique_features, description, image_url)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		RETURNING date_added
	`,
		l.ID, l.Name, l.Address, l.PropertyType, l.Location, l.Price, l.Bedrooms,
		l.Bathrooms, l.SquareFootage, pq.Array(l.Amenities), pq.Array(l.UniqueFeatures),
		l.Description, l.ImageURL,
	).Scan(&l.DateAdded)
	if err != nil {
		return nil, fmt.Errorf("postgres: insert listing: %w: %v", ErrStoreUnavailable, err)
	}
	l.DateAdded = l.DateAdded.UTC()

	ps.announce(ctx, db, listingsChannel, l.ID, ps.refreshListings)
	return l, nil
}

// InsertBooking stores payload with a fresh ID; the database assigns
// booking_date.
func (ps *PostgresStore) InsertBooking(ctx context.Context, payload *models.BookingPayload) (*models.Booking, error) {
	db := ps.handle()
	if db == nil {
		return nil, fmt.Errorf("postgres: insert booking: %w", ErrStoreUnavailable)
	}

	b := &models.Booking{ID: uuid.NewString(), BookingPayload: *payload}
	err := db.QueryRowContext(ctx, `
		INSERT INTO bookings (id, property_id, property_name, user_name, user_phone)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING booking_date
	`, b.ID, b.PropertyID, b.PropertyName, b.UserName, b.UserPhone).Scan(&b.BookingDate)
	if err != nil {
		return nil, fmt.Errorf("postgres: insert booking: %w: %v", ErrStoreUnavailable, err)
	}
	b.BookingDate = b.BookingDate.UTC()

	ps.announce(ctx, db, bookingsChannel, b.ID, ps.refreshBookings)
	return b, nil
}

// announce notifies other processes of an insert. Without a listener of our
// own the local feed is refreshed directly.
func (ps *PostgresStore) announce(ctx context.Context, db *sql.DB, channel, id string, refresh func()) {
	if _, err := db.ExecContext(ctx, "SELECT pg_notify($1, $2)", channel, id); err != nil {
		ps.logger.Warn("[postgres] NOTIFY %s failed: %v", channel, err)
	}
	if !ps.listening() {
		refresh()
	}
}

func (ps *PostgresStore) SubscribeListings(fn func([]*models.Listing)) Unsubscribe {
	return ps.listingFeed.Subscribe(ps.listingSnapshot, fn)
}

func (ps *PostgresStore) SubscribeBookings(fn func([]*models.Booking)) Unsubscribe {
	return ps.bookingFeed.Subscribe(ps.bookingSnapshot, fn)
}

func (ps *PostgresStore) refreshListings() { ps.listingFeed.Publish(nil, ps.listingSnapshot) }
func (ps *PostgresStore) refreshBookings() { ps.bookingFeed.Publish(nil, ps.bookingSnapshot) }

// listingSnapshot never fails: an unreachable store yields an empty
// snapshot.
func (ps *PostgresStore) listingSnapshot() []*models.Listing {
	listings, err := ps.FetchListings(context.Background())
	if err != nil {
		ps.logger.Error("[postgres] Listing snapshot failed: %v", err)
		return nil
	}
	return listings
}

func (ps *PostgresStore) bookingSnapshot() []*models.Booking {
	bookings, err := ps.FetchBookings(context.Background())
	if err != nil {
		ps.logger.Error("[postgres] Booking snapshot failed: %v", err)
		return nil
	}
	return bookings
}

// FetchListings returns every listing, newest first.
func (ps *PostgresStore) FetchListings(ctx context.Context) ([]*models.Listing, error) {
	db := ps.handle()
	if db == nil {
		return nil, fmt.Errorf("postgres: fetch listings: %w", ErrStoreUnavailable)
	}

	rows, err := db.QueryContext(ctx, `
		SELECT id, name, address, property_type, location, price, bedrooms, bathrooms,
			square_footage, amenities, unique_features, description, image_url, date_added
		FROM listings
		ORDER BY date_added DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("postgres: fetch listings: %w", err)
	}
	defer rows.Close()

	var listings []*models.Listing
	for rows.Next() {
		l := &models.Listing{}
		if err := rows.Scan(
			&l.ID, &l.Name, &l.Address, &l.PropertyType, &l.Location, &l.Price,
			&l.Bedrooms, &l.Bathrooms, &l.SquareFootage,
			pq.Array(&l.Amenities), pq.Array(&l.UniqueFeatures),
			&l.Description, &l.ImageURL, &l.DateAdded,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan listing: %w", err)
		}
		l.DateAdded = l.DateAdded.UTC()
		listings = append(listings, l)
	}
	return listings, rows.Err()
}

// FetchBookings returns every booking, newest first.
func (ps *PostgresStore) FetchBookings(ctx context.Context) ([]*models.Booking, error) {
	db := ps.handle()
	if db == nil {
		return nil, fmt.Errorf("postgres: fetch bookings: %w", ErrStoreUnavailable)
	}

	rows, err := db.QueryContext(ctx, `
		SELECT id, property_id, property_name, user_name, user_phone, booking_date
		FROM bookings
		ORDER BY booking_date DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("postgres: fetch bookings: %w", err)
	}
	defer rows.Close()

	var bookings []*models.Booking
	for rows.Next() {
		b := &models.Booking{}
		if err := rows.Scan(&b.ID, &b.PropertyID, &b.PropertyName, &b.UserName, &b.UserPhone, &b.BookingDate); err != nil {
			return nil, fmt.Errorf("postgres: scan booking: %w", err)
		}
		b.BookingDate = b.BookingDate.UTC()
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

func (ps *PostgresStore) listenerEvent(ev pq.ListenerEventType, err error) {
	switch ev {
	case pq.ListenerEventDisconnected:
		ps.logger.Warn("[postgres] Listener disconnected: %v", err)
	case pq.ListenerEventReconnected:
		ps.logger.Info("[postgres] Listener reconnected")
	case pq.ListenerEventConnectionAttemptFailed:
		ps.logger.Warn("[postgres] Listener reconnect attempt failed: %v", err)
	}
}

func (ps *PostgresStore) watch(l *pq.Listener, done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case n := <-l.Notify:
			if n == nil {
				// Reconnected: notifications may have been missed.
				ps.refreshListings()
				ps.refreshBookings()
				continue
			}
			switch n.Channel {
			case listingsChannel:
				ps.refreshListings()
			case bookingsChannel:
				ps.refreshBookings()
			}
		case <-time.After(90 * time.Second):
			go func() { _ = l.Ping() }()
		}
	}
}
