package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"property-marketplace/generator"
	"property-marketplace/services"
)

type DescriptionController struct {
	descriptions *services.DescriptionService
}

// NewDescriptionController accepts a nil service when no provider is
// configured; requests then fail with 503.
func NewDescriptionController(descriptions *services.DescriptionService) *DescriptionController {
	return &DescriptionController{descriptions: descriptions}
}

func (dc *DescriptionController) GenerateDescription(c echo.Context) error {
	if dc.descriptions == nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "Description generation is not configured"})
	}

	var req generator.Request
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}

	text, err := dc.descriptions.Generate(c.Request().Context(), req)
	switch {
	case errors.Is(err, services.ErrGenerationInFlight):
		return c.JSON(http.StatusConflict, map[string]string{"error": "A description is already being generated"})
	case err != nil:
		return c.JSON(http.StatusBadGateway, map[string]string{"error": services.GenerationFailedMessage})
	}
	return c.JSON(http.StatusOK, map[string]string{"description": text})
}
