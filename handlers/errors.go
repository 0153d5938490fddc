package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"property-marketplace/services"
	"property-marketplace/storage"
	"property-marketplace/utils"
)

// failure holds the client-facing messages for one write operation. Error
// details stay in the log.
type failure struct {
	action  string
	invalid string
	store   string
}

var (
	addListingFailure = failure{
		action:  "add listing",
		invalid: "Failed to add property due to validation errors.",
		store:   "Database Error: Failed to add property.",
	}
	createBookingFailure = failure{
		action:  "create booking",
		invalid: "Failed to create booking due to validation errors.",
		store:   "Database Error: Failed to create booking.",
	}
)

// respondError maps service errors onto status codes and bodies.
func respondError(c echo.Context, logger *utils.Logger, f failure, err error) error {
	var verrs services.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		return c.JSON(http.StatusBadRequest, map[string]any{
			"errors":  verrs,
			"message": f.invalid,
		})
	case errors.Is(err, storage.ErrStoreUnavailable):
		logger.Error("[api] %s: %v", f.action, err)
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"message": f.store,
		})
	default:
		logger.Error("[api] %s: %v", f.action, err)
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"message": "Unexpected error",
		})
	}
}

func HealthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
