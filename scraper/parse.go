package scraper

import (
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"property-marketplace/models"
)

// Selectors are tried in order; the first non-empty match wins. They cover
// schema.org microdata, OpenGraph tags and common class names.
var (
	titleSelectors       = []string{`[itemprop="name"]`, "h1"}
	priceSelectors       = []string{`[itemprop="price"]`, `[data-testid="price"]`, ".listing-price", ".price"}
	locationSelectors    = []string{`[itemprop="addressLocality"]`, `[data-testid="location"]`, ".listing-location"}
	addressSelectors     = []string{`[itemprop="streetAddress"]`, `[data-testid="address"]`, "address"}
	typeSelectors        = []string{`[itemprop="category"]`, `[data-testid="property-type"]`, ".property-type"}
	descriptionSelectors = []string{`[itemprop="description"]`, `[data-testid="description"]`, "#description", ".description"}
	factSelectors        = []string{`[data-testid="facts"] li`, ".facts li", ".features li"}
	amenitySelectors     = []string{`[data-testid="amenities"] li`, ".amenities li"}
)

// Parse extracts listing details from a rendered page. pageURL resolves
// relative image links and is kept as the listing URL.
func Parse(r io.Reader, pageURL string) (*models.ScrapedListing, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", pageURL, err)
	}

	listing := &models.ScrapedListing{
		Title:        firstText(doc, titleSelectors, meta(doc, "og:title")),
		RawPrice:     firstPrice(doc),
		Location:     firstText(doc, locationSelectors, meta(doc, "og:locality")),
		Address:      firstText(doc, addressSelectors, meta(doc, "og:street-address")),
		PropertyType: firstText(doc, typeSelectors, ""),
		Description:  firstText(doc, descriptionSelectors, meta(doc, "og:description")),
		ImageURL:     resolve(pageURL, firstImage(doc)),
		Facts:        allText(doc, factSelectors),
		Amenities:    allText(doc, amenitySelectors),
		URL:          pageURL,
		ScrapedAt:    time.Now(),
	}
	if listing.Title == "" {
		listing.Title = trim(doc.Find("title").First().Text())
	}
	return listing, nil
}

func firstText(doc *goquery.Document, selectors []string, fallback string) string {
	for _, sel := range selectors {
		if text := trim(doc.Find(sel).First().Text()); text != "" {
			return text
		}
	}
	return fallback
}

// firstPrice prefers a machine-readable content attribute over display text.
func firstPrice(doc *goquery.Document) string {
	for _, sel := range priceSelectors {
		node := doc.Find(sel).First()
		if content, ok := node.Attr("content"); ok && trim(content) != "" {
			return trim(content)
		}
		if text := trim(node.Text()); text != "" {
			return text
		}
	}
	return meta(doc, "product:price:amount")
}

func firstImage(doc *goquery.Document) string {
	if img := meta(doc, "og:image"); img != "" {
		return img
	}
	if src, ok := doc.Find(`[itemprop="image"]`).First().Attr("src"); ok {
		return trim(src)
	}
	if src, ok := doc.Find("main img, article img").First().Attr("src"); ok {
		return trim(src)
	}
	return ""
}

// allText collects item texts from the first selector that matches anything.
func allText(doc *goquery.Document, selectors []string) []string {
	for _, sel := range selectors {
		var items []string
		doc.Find(sel).Each(func(_ int, s *goquery.Selection) {
			if text := trim(s.Text()); text != "" {
				items = append(items, text)
			}
		})
		if len(items) > 0 {
			return items
		}
	}
	return nil
}

func meta(doc *goquery.Document, property string) string {
	sel := fmt.Sprintf(`meta[property=%q], meta[name=%q]`, property, property)
	content, _ := doc.Find(sel).First().Attr("content")
	return trim(content)
}

func resolve(base, ref string) string {
	if ref == "" {
		return ""
	}
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}

func trim(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
