package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"property-marketplace/models"
	"property-marketplace/services"
	"property-marketplace/storage"
	"property-marketplace/utils"
)

type BookingController struct {
	catalog  *services.Catalog
	bookings *services.BookingService
	logger   *utils.Logger
}

func NewBookingController(catalog *services.Catalog, bookings *services.BookingService, logger *utils.Logger) *BookingController {
	return &BookingController{catalog: catalog, bookings: bookings, logger: logger}
}

func (bc *BookingController) CreateBooking(c echo.Context) error {
	var raw models.RawBookingInput
	if err := c.Bind(&raw); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}

	booking, err := bc.bookings.Create(c.Request().Context(), raw)
	if err != nil {
		return respondError(c, bc.logger, createBookingFailure, err)
	}
	return c.JSON(http.StatusCreated, booking)
}

// ListBookings returns the latest booking snapshot, newest first.
func (bc *BookingController) ListBookings(c echo.Context) error {
	return c.JSON(http.StatusOK, bc.catalog.Bookings())
}

// ExportBookings streams the booking snapshot as CSV (default) or XLSX.
func (bc *BookingController) ExportBookings(c echo.Context) error {
	format := c.QueryParam("format")
	if format == "" {
		format = storage.FormatCSV
	}
	if format != storage.FormatCSV && format != storage.FormatXLSX {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "format must be csv or xlsx"})
	}

	filename := fmt.Sprintf("bookings-%s.%s", time.Now().UTC().Format("20060102-150405"), format)
	res := c.Response()
	res.Header().Set(echo.HeaderContentType, storage.ContentType(format))
	res.Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))

	exporter, err := storage.NewExporter(format, res)
	if err != nil {
		return err
	}
	bookings := bc.catalog.Bookings()
	if err := exporter.WriteBookings(bookings); err != nil {
		bc.logger.Error("[export] Writing %s export failed: %v", format, err)
		return err
	}
	if err := exporter.Close(); err != nil {
		bc.logger.Error("[export] Finishing %s export failed: %v", format, err)
		return err
	}
	bc.logger.Info("[export] Exported %d bookings as %s", len(bookings), format)
	return nil
}
