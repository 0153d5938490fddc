// Package generator produces marketing copy for listings from their
// structured attributes.
package generator

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"text/template"
)

// ErrEmptyDescription is returned when the provider answers without text.
var ErrEmptyDescription = errors.New("generator: empty description")

// Request carries the listing attributes the prompt is built from. Amenities
// and UniqueFeatures are comma-separated, as typed into the form.
type Request struct {
	PropertyType   string  `json:"propertyType"`
	Location       string  `json:"location"`
	Bedrooms       float64 `json:"bedrooms"`
	Bathrooms      float64 `json:"bathrooms"`
	SquareFootage  float64 `json:"squareFootage"`
	Amenities      string  `json:"amenities"`
	UniqueFeatures string  `json:"uniqueFeatures"`
}

// Generator turns a Request into prose.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

const systemPrompt = "You are a real estate copywriter. Your task is to create an engaging and attractive property description based on the given details."

var promptTemplate = template.Must(template.New("description").Funcs(template.FuncMap{
	"num": func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) },
}).Parse(`Property Type: {{.PropertyType}}
Location: {{.Location}}
Bedrooms: {{num .Bedrooms}}
Bathrooms: {{num .Bathrooms}}
Square Footage: {{num .SquareFootage}}
Amenities: {{.Amenities}}
Unique Features: {{.UniqueFeatures}}

Write a compelling description that highlights the best aspects of the property and appeals to potential tenants or buyers. Use positive and evocative language to create a sense of home and comfort. The description should be approximately 150-200 words.`))

// RenderPrompt fills the user prompt for req.
func RenderPrompt(req Request) (string, error) {
	var b strings.Builder
	if err := promptTemplate.Execute(&b, req); err != nil {
		return "", err
	}
	return b.String(), nil
}
