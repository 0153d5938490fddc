package services

import (
	"cmp"
	"math"
	"net/url"
	"slices"
	"sort"
	"strconv"
	"strings"

	"property-marketplace/models"
)

// AllLocations is the wire value meaning "do not filter by location".
const AllLocations = "__ALL_LOCATIONS__"

// DefaultSpec returns the filter the listing view starts from and resets to:
// no filters, newest first.
func DefaultSpec() models.FilterSortSpec {
	return models.FilterSortSpec{
		SortField: models.SortByDateAdded,
		SortOrder: models.SortDesc,
	}
}

// Apply filters listings conjunctively and sorts the survivors per spec.
// The sort is stable in both directions and the input slice is never
// modified. Resetting a view is Apply(listings, DefaultSpec()).
func Apply(listings []*models.Listing, spec models.FilterSortSpec) []*models.Listing {
	result := make([]*models.Listing, 0, len(listings))
	for _, l := range listings {
		if l != nil && matches(l, spec) {
			result = append(result, l)
		}
	}

	compare := comparatorFor(spec.SortField)
	if spec.SortOrder == models.SortAsc {
		slices.SortStableFunc(result, compare)
	} else {
		slices.SortStableFunc(result, func(a, b *models.Listing) int {
			return compare(b, a)
		})
	}
	return result
}

func matches(l *models.Listing, spec models.FilterSortSpec) bool {
	if spec.PriceMin != nil && l.Price < *spec.PriceMin {
		return false
	}
	if spec.PriceMax != nil && l.Price > *spec.PriceMax {
		return false
	}
	if spec.Location != nil && l.Location != *spec.Location {
		return false
	}
	if spec.BedroomsMin != nil && l.Bedrooms < *spec.BedroomsMin {
		return false
	}
	return true
}

type listingComparator func(a, b *models.Listing) int

func compareByPrice(a, b *models.Listing) int {
	return cmp.Compare(a.Price, b.Price)
}

func compareByBedrooms(a, b *models.Listing) int {
	return cmp.Compare(a.Bedrooms, b.Bedrooms)
}

func compareByDateAdded(a, b *models.Listing) int {
	return a.DateAdded.Compare(b.DateAdded)
}

// comparatorFor maps every SortField to its comparator. Unknown fields sort
// by date, matching the default.
func comparatorFor(field models.SortField) listingComparator {
	switch field {
	case models.SortByPrice:
		return compareByPrice
	case models.SortByBedrooms:
		return compareByBedrooms
	case models.SortByDateAdded:
		return compareByDateAdded
	default:
		return compareByDateAdded
	}
}

// AvailableLocations returns the distinct listing locations in ascending
// order, for populating the location filter.
func AvailableLocations(listings []*models.Listing) []string {
	seen := make(map[string]struct{}, len(listings))
	locations := make([]string, 0, len(listings))
	for _, l := range listings {
		if l == nil {
			continue
		}
		if _, dup := seen[l.Location]; dup {
			continue
		}
		seen[l.Location] = struct{}{}
		locations = append(locations, l.Location)
	}
	sort.Strings(locations)
	return locations
}

// ParseSpec builds a FilterSortSpec from query parameters. Blank,
// non-numeric and non-finite bounds are treated as unset. The sort may be
// given as sort=<field>_<order> or as sortField and sortOrder; anything
// unrecognised keeps the default.
func ParseSpec(values url.Values) models.FilterSortSpec {
	spec := DefaultSpec()

	spec.PriceMin = parseBound(values.Get("priceMin"))
	spec.PriceMax = parseBound(values.Get("priceMax"))
	spec.BedroomsMin = parseBound(values.Get("bedroomsMin"))

	if values.Has("location") {
		if loc := values.Get("location"); loc != "" && loc != AllLocations {
			spec.Location = &loc
		}
	}

	field, order := values.Get("sortField"), values.Get("sortOrder")
	if combined := values.Get("sort"); combined != "" {
		if i := strings.LastIndex(combined, "_"); i > 0 {
			field, order = combined[:i], combined[i+1:]
		}
	}
	if f, ok := parseSortField(field); ok {
		spec.SortField = f
	}
	if o, ok := parseSortOrder(order); ok {
		spec.SortOrder = o
	}
	return spec
}

func parseBound(raw string) *float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func parseSortField(raw string) (models.SortField, bool) {
	switch f := models.SortField(raw); f {
	case models.SortByPrice, models.SortByDateAdded, models.SortByBedrooms:
		return f, true
	}
	return "", false
}

func parseSortOrder(raw string) (models.SortOrder, bool) {
	switch o := models.SortOrder(strings.ToLower(raw)); o {
	case models.SortAsc, models.SortDesc:
		return o, true
	}
	return "", false
}
