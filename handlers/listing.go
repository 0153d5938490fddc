package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/labstack/echo/v4"

	"property-marketplace/models"
	"property-marketplace/services"
	"property-marketplace/storage"
	"property-marketplace/utils"
)

type ListingController struct {
	catalog  *services.Catalog
	listings *services.ListingService
	store    storage.ListingStore
	logger   *utils.Logger

	closing   chan struct{}
	closeOnce sync.Once
}

func NewListingController(catalog *services.Catalog, listings *services.ListingService, store storage.ListingStore, logger *utils.Logger) *ListingController {
	return &ListingController{
		catalog:  catalog,
		listings: listings,
		store:    store,
		logger:   logger,
		closing:  make(chan struct{}),
	}
}

// CloseStreams ends every open listing stream. The server calls it on
// shutdown, since open streams would otherwise hold their connections.
func (lc *ListingController) CloseStreams() {
	lc.closeOnce.Do(func() { close(lc.closing) })
}

// ListListings serves the public view: the latest snapshot filtered and
// sorted per the query string.
func (lc *ListingController) ListListings(c echo.Context) error {
	spec := services.ParseSpec(c.QueryParams())
	return c.JSON(http.StatusOK, lc.catalog.Query(spec))
}

func (lc *ListingController) ListLocations(c echo.Context) error {
	return c.JSON(http.StatusOK, lc.catalog.Locations())
}

// AdminListings serves the admin table in default order.
func (lc *ListingController) AdminListings(c echo.Context) error {
	return c.JSON(http.StatusOK, lc.catalog.Query(services.DefaultSpec()))
}

func (lc *ListingController) CreateListing(c echo.Context) error {
	raw, err := bindListing(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}

	listing, err := lc.listings.Create(c.Request().Context(), raw)
	if err != nil {
		return respondError(c, lc.logger, addListingFailure, err)
	}
	return c.JSON(http.StatusCreated, listing)
}

// StreamListings pushes a "snapshot" server-sent event for every listing
// snapshot, filtered and sorted per the query string. A slow client only
// ever receives the latest snapshot.
func (lc *ListingController) StreamListings(c echo.Context) error {
	spec := services.ParseSpec(c.QueryParams())

	updates := make(chan []*models.Listing, 1)
	unsubscribe := lc.store.SubscribeListings(func(listings []*models.Listing) {
		for {
			select {
			case updates <- listings:
				return
			default:
			}
			select {
			case <-updates:
			default:
			}
		}
	})
	defer unsubscribe()

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set("Cache-Control", "no-cache")
	res.Header().Set("Connection", "keep-alive")
	res.WriteHeader(http.StatusOK)
	res.Flush()

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-lc.closing:
			return nil
		case listings := <-updates:
			data, err := json.Marshal(services.Apply(listings, spec))
			if err != nil {
				return err
			}
			if _, err := fmt.Fprintf(res, "event: snapshot\ndata: %s\n\n", data); err != nil {
				lc.logger.Debug("[stream] Client went away: %v", err)
				return nil
			}
			res.Flush()
		}
	}
}
