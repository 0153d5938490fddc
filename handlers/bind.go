package handlers

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"property-marketplace/models"
)

// bindListing reads a listing submission. Form posts bind directly; JSON
// bodies may carry numbers and tag arrays, which are turned back into the
// text the form would have sent.
func bindListing(c echo.Context) (models.RawListingInput, error) {
	var in models.RawListingInput
	if !strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		err := c.Bind(&in)
		return in, err
	}

	var body map[string]any
	if err := json.NewDecoder(c.Request().Body).Decode(&body); err != nil {
		return in, err
	}

	fields := map[string]*string{
		"name":           &in.Name,
		"address":        &in.Address,
		"propertyType":   &in.PropertyType,
		"location":       &in.Location,
		"price":          &in.Price,
		"bedrooms":       &in.Bedrooms,
		"bathrooms":      &in.Bathrooms,
		"squareFootage":  &in.SquareFootage,
		"amenities":      &in.Amenities,
		"uniqueFeatures": &in.UniqueFeatures,
		"description":    &in.Description,
		"imageUrl":       &in.ImageURL,
	}
	for key, dst := range fields {
		if v, ok := body[key]; ok {
			*dst = formText(v)
		}
	}
	return in, nil
}

func formText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case []any:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			parts = append(parts, formText(item))
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprint(t)
	}
}
