package services

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"property-marketplace/models"
	"property-marketplace/utils"
)

var (
	// priceRegexp captures numeric price values
	priceRegexp = regexp.MustCompile(`\d+(?:\.\d+)?`)
	// nightsRegexp captures "X nights"; a bare "night" is a per-night price
	nightsRegexp = regexp.MustCompile(`(\d+)\s*nights\b`)
	// bedroomsRegexp matches "3 bedrooms", "3 bd", "3 beds"
	bedroomsRegexp = regexp.MustCompile(`(?i)^(\d+(?:\.\d+)?)\s*(?:bedrooms?|beds?|bd|br)\b`)
	// bathroomsRegexp matches "2 bathrooms", "2.5 baths", "2 ba"
	bathroomsRegexp = regexp.MustCompile(`(?i)^(\d+(?:\.\d+)?)\s*(?:bathrooms?|baths?|ba)\b`)
	// areaRegexp matches "1,200 sqft", "1200 sq ft", "1200 square feet"
	areaRegexp = regexp.MustCompile(`(?i)^([\d,]+(?:\.\d+)?)\s*(?:sq\.?\s*ft|sqft|square\s+feet)`)
)

// Cleaner turns scraped listing pages into listing form input.
type Cleaner struct {
	logger *utils.Logger
}

// NewCleaner creates a Cleaner with the given logger.
func NewCleaner(logger *utils.Logger) *Cleaner {
	return &Cleaner{logger: logger}
}

// Clean normalises scraped pages into form input, dropping pages without a
// URL and repeated URLs. The result still has to pass ValidateListing.
func (c *Cleaner) Clean(scraped []*models.ScrapedListing) []models.RawListingInput {
	seen := make(map[string]struct{})
	result := make([]models.RawListingInput, 0, len(scraped))

	for _, s := range scraped {
		url := strings.TrimSpace(s.URL)
		if url == "" {
			c.logger.Warn("[cleaner] Dropping listing with empty URL: %s", s.Title)
			continue
		}

		if _, dup := seen[url]; dup {
			c.logger.Debug("[cleaner] Duplicate URL skipped: %s", url)
			continue
		}
		seen[url] = struct{}{}

		result = append(result, c.toInput(s))
	}

	c.logger.Info("[cleaner] Cleaned %d → %d listings (dropped %d)",
		len(scraped), len(result), len(scraped)-len(result))
	return result
}

func (c *Cleaner) toInput(s *models.ScrapedListing) models.RawListingInput {
	in := models.RawListingInput{
		Name:         normaliseText(s.Title),
		Address:      normaliseText(s.Address),
		PropertyType: normaliseText(s.PropertyType),
		Location:     normaliseText(s.Location),
		Description:  truncateRunes(normaliseText(s.Description), maxDescriptionLen),
		ImageURL:     strings.TrimSpace(s.ImageURL),
	}
	if in.Address == "" {
		in.Address = in.Location
	}
	if price := c.parsePrice(s.RawPrice); price > 0 {
		in.Price = formatNumber(price)
	}

	var features []string
	for _, fact := range s.Facts {
		fact = normaliseText(fact)
		switch {
		case fact == "":
		case bedroomsRegexp.MatchString(fact):
			in.Bedrooms = firstNumber(bedroomsRegexp, fact)
		case bathroomsRegexp.MatchString(fact):
			in.Bathrooms = firstNumber(bathroomsRegexp, fact)
		case areaRegexp.MatchString(fact):
			in.SquareFootage = firstNumber(areaRegexp, fact)
		default:
			features = append(features, stripCommas(fact))
		}
	}
	in.UniqueFeatures = strings.Join(features, ", ")

	amenities := make([]string, 0, len(s.Amenities))
	for _, a := range s.Amenities {
		if a = stripCommas(normaliseText(a)); a != "" {
			amenities = append(amenities, a)
		}
	}
	in.Amenities = strings.Join(amenities, ", ")

	return in
}

// parsePrice extracts price and converts multi-night prices to per-night rate.
// Examples:
//
//	"$150 night" → 150
//	"$450 for 3 nights" → 150 (450/3)
//	"$1,200 total" with "2 nights" → 600
func (c *Cleaner) parsePrice(raw string) float64 {
	raw = strings.ToLower(raw)

	cleaned := strings.ReplaceAll(raw, ",", "")
	match := priceRegexp.FindString(cleaned)
	if match == "" {
		return 0
	}

	totalPrice, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0
	}

	nightsMatch := nightsRegexp.FindStringSubmatch(raw)
	if len(nightsMatch) >= 2 {
		nights, err := strconv.Atoi(nightsMatch[1])
		if err == nil && nights > 1 {
			perNightPrice := totalPrice / float64(nights)
			c.logger.Debug("[cleaner] Multi-night price detected: $%.2f for %d nights = $%.2f/night",
				totalPrice, nights, perNightPrice)
			return perNightPrice
		}
	}

	return totalPrice
}

func firstNumber(re *regexp.Regexp, s string) string {
	m := re.FindStringSubmatch(s)
	if len(m) < 2 {
		return ""
	}
	return strings.ReplaceAll(m[1], ",", "")
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(round2(v), 'f', -1, 64)
}

// stripCommas keeps a single tag from being split apart by SplitTags.
func stripCommas(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
}

// normaliseText strips leading/trailing whitespace and collapses internal whitespace.
func normaliseText(s string) string {
	fields := strings.FieldsFunc(s, unicode.IsSpace)
	return strings.Join(fields, " ")
}

func truncateRunes(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
