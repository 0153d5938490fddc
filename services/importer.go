package services

import (
	"context"
	"errors"
	"sync"

	"property-marketplace/models"
	"property-marketplace/utils"
)

// Fetcher loads a public listing page. *scraper.Scraper satisfies it.
type Fetcher interface {
	Fetch(ctx context.Context, pageURL string) (*models.ScrapedListing, error)
}

// ImportResult reports the outcome for one page.
type ImportResult struct {
	URL     string
	Listing *models.Listing
	Err     error
}

// Importer turns public listing pages into stored listings. Imported
// listings pass the same intake validation as form submissions.
type Importer struct {
	fetcher  Fetcher
	cleaner  *Cleaner
	listings *ListingService
	pool     *utils.WorkerPool
	logger   *utils.Logger
}

func NewImporter(fetcher Fetcher, listings *ListingService, pool *utils.WorkerPool, logger *utils.Logger) *Importer {
	return &Importer{
		fetcher:  fetcher,
		cleaner:  NewCleaner(logger),
		listings: listings,
		pool:     pool,
		logger:   logger,
	}
}

// Import fetches every URL on the worker pool and stores what validates.
// Results come back in input order.
func (im *Importer) Import(ctx context.Context, urls []string) []ImportResult {
	results := make([]ImportResult, len(urls))
	scraped := make([]*models.ScrapedListing, len(urls))
	visited := utils.NewIDSet()

	var mu sync.Mutex
	for i, u := range urls {
		i, u := i, u
		results[i].URL = u
		if !visited.Add(u) {
			results[i].Err = errors.New("duplicate URL")
			continue
		}
		im.pool.Submit(func() {
			page, err := im.fetcher.Fetch(ctx, u)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				im.logger.Warn("[importer] Fetch failed for %s: %v", u, err)
				results[i].Err = err
				return
			}
			scraped[i] = page
		})
	}
	im.pool.Wait()

	for i, page := range scraped {
		if page == nil {
			continue
		}
		cleaned := im.cleaner.Clean([]*models.ScrapedListing{page})
		if len(cleaned) == 0 {
			results[i].Err = errors.New("page has no URL")
			continue
		}
		listing, err := im.listings.Create(ctx, cleaned[0])
		if err != nil {
			im.logger.Warn("[importer] %s rejected: %v", urls[i], err)
			results[i].Err = err
			continue
		}
		results[i].Listing = listing
	}

	imported := 0
	for _, r := range results {
		if r.Err == nil {
			imported++
		}
	}
	im.logger.Info("[importer] Imported %d/%d pages", imported, len(urls))
	return results
}
