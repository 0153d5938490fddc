// Package scraper loads public property pages in headless Chrome and pulls
// listing details out of the rendered HTML.
package scraper

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"property-marketplace/models"
	"property-marketplace/utils"
)

const userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Scraper renders listing pages with chromedp. One browser is started per
// Scraper and shared by every Fetch.
type Scraper struct {
	logger *utils.Logger
	retry  *utils.RetryConfig
	settle time.Duration

	allocCtx    context.Context
	cancelAlloc context.CancelFunc
	browserCtx  context.Context
	cancelTab   context.CancelFunc
}

// New starts a headless browser. chromeBin may be empty to search the usual
// install locations.
func New(chromeBin string, logger *utils.Logger, retry *utils.RetryConfig) *Scraper {
	if chromeBin == "" {
		chromeBin = findChromeBinary()
	}
	logger.Info("[scraper] Using browser binary: %s", chromeBin)

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.UserAgent(userAgent),
	)
	if chromeBin != "" {
		opts = append(opts, chromedp.ExecPath(chromeBin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
	// Suppress chromedp log noise
	browserCtx, cancelTab := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))

	return &Scraper{
		logger:      logger,
		retry:       retry,
		settle:      4 * time.Second,
		allocCtx:    allocCtx,
		cancelAlloc: cancelAlloc,
		browserCtx:  browserCtx,
		cancelTab:   cancelTab,
	}
}

// Close shuts the browser down.
func (s *Scraper) Close() {
	s.cancelTab()
	s.cancelAlloc()
}

// Fetch renders pageURL and parses it into a ScrapedListing.
func (s *Scraper) Fetch(ctx context.Context, pageURL string) (*models.ScrapedListing, error) {
	var html string

	err := s.retry.Do(ctx, "fetch "+pageURL, func(ctx context.Context) error {
		tabCtx, cancel := chromedp.NewContext(s.browserCtx)
		defer cancel()

		tabCtx, cancelTimeout := context.WithTimeout(tabCtx, 60*time.Second)
		defer cancelTimeout()

		// Tie the tab to the caller's context as well.
		stop := context.AfterFunc(ctx, cancel)
		defer stop()

		err := chromedp.Run(tabCtx,
			chromedp.Navigate(pageURL),
			chromedp.Sleep(s.settle),
			chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight)`, nil),
			chromedp.Sleep(time.Second),
			chromedp.OuterHTML("html", &html, chromedp.ByQuery),
		)
		if err != nil {
			return fmt.Errorf("chromedp render: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	listing, err := Parse(strings.NewReader(html), pageURL)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("[scraper] Parsed %q from %s", listing.Title, pageURL)
	return listing, nil
}

// findChromeBinary locates Chrome/Chromium binary.
func findChromeBinary() string {
	if bin := os.Getenv("CHROME_BIN"); bin != "" {
		return bin
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
