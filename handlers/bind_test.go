package handlers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBindListingJSON(t *testing.T) {
	body := `{"name":"Loft","price":2500.5,"bedrooms":0,"amenities":["Pool","Gym"],"uniqueFeatures":"View","imageUrl":null}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSONCharsetUTF8)
	c := echo.New().NewContext(req, httptest.NewRecorder())

	in, err := bindListing(c)
	require.NoError(t, err)
	assert.Equal(t, "Loft", in.Name)
	assert.Equal(t, "2500.5", in.Price)
	assert.Equal(t, "0", in.Bedrooms)
	assert.Equal(t, "Pool, Gym", in.Amenities)
	assert.Equal(t, "View", in.UniqueFeatures)
	assert.Empty(t, in.ImageURL)
	assert.Empty(t, in.Bathrooms)
}

func TestBindListingForm(t *testing.T) {
	form := url.Values{"name": {"Loft"}, "price": {"12"}, "amenities": {"Pool, , Gym,"}}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	c := echo.New().NewContext(req, httptest.NewRecorder())

	in, err := bindListing(c)
	require.NoError(t, err)
	assert.Equal(t, "12", in.Price)
	assert.Equal(t, "Pool, , Gym,", in.Amenities)
}

func TestBindListingMalformedJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c := echo.New().NewContext(req, httptest.NewRecorder())

	_, err := bindListing(c)
	assert.Error(t, err)
}
