package routes

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"property-marketplace/handlers"
	"property-marketplace/middleware"
	"property-marketplace/utils"
)

// Controllers groups everything the router dispatches to.
type Controllers struct {
	Listings     *handlers.ListingController
	Bookings     *handlers.BookingController
	Admin        *handlers.AdminController
	Descriptions *handlers.DescriptionController
}

// RegisterRoutes mounts every endpoint on e. Open listing streams are closed
// when e.Server shuts down.
func RegisterRoutes(e *echo.Echo, ctrl Controllers, issuer *utils.TokenIssuer) {
	e.Server.RegisterOnShutdown(ctrl.Listings.CloseStreams)

	e.GET("/health", handlers.HealthCheck)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("/api")
	api.GET("/listings", ctrl.Listings.ListListings)
	api.GET("/listings/locations", ctrl.Listings.ListLocations)
	api.GET("/listings/stream", ctrl.Listings.StreamListings)
	api.POST("/bookings", ctrl.Bookings.CreateBooking)
	api.POST("/admin/login", ctrl.Admin.Login)

	admin := api.Group("/admin", middleware.JWTMiddleware(issuer))
	admin.GET("/listings", ctrl.Listings.AdminListings)
	admin.POST("/listings", ctrl.Listings.CreateListing)
	admin.POST("/descriptions", ctrl.Descriptions.GenerateDescription)
	admin.GET("/bookings", ctrl.Bookings.ListBookings)
	admin.GET("/bookings/export", ctrl.Bookings.ExportBookings)
	admin.GET("/insights", ctrl.Admin.Insights)
}
