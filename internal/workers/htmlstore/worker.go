// internal/workers/htmlstore/worker.go

// Package htmlstore implements a storefront worker driven entirely by a
// registry definition: one fetch of the site's search page and CSS
// selectors to pull the listing tiles apart.
package htmlstore

import (
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"sneakscout/internal/common/logger"
	"sneakscout/internal/models"
	"sneakscout/internal/stores"
)

const userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"

// Worker scrapes one registry-defined storefront.
type Worker struct {
	def    stores.StoreDefinition
	client *http.Client
	logger logger.Logger
}

// New builds a worker for one store definition. The timeout bounds single
// HTTP requests; the orchestrator enforces the overall scrape deadline.
func New(def stores.StoreDefinition, timeout time.Duration, log logger.Logger) *Worker {
	return &Worker{
		def:    def,
		logger: log.WithFields(map[string]interface{}{"store": def.Name}),
		client: &http.Client{Timeout: timeout},
	}
}

func (w *Worker) Name() string { return w.def.Name }

// MatchesBrand implements the optional brand affinity capability.
func (w *Worker) MatchesBrand(brand string) bool {
	if len(w.def.Brands) == 0 {
		return true
	}
	for _, b := range w.def.Brands {
		if strings.EqualFold(b, brand) {
			return true
		}
	}
	return false
}

// Open establishes the session: a fresh cookie jar and a warm-up request
// against the store origin, since several storefronts refuse search
// requests without session cookies.
func (w *Worker) Open(ctx context.Context) error {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return err
	}
	w.client.Jar = jar

	if w.def.BaseURL == "" {
		return nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.def.BaseURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("warm-up request: %w", err)
	}
	resp.Body.Close()
	return nil
}

// Scrape fetches the search results page and extracts every listing tile
// the selectors can find. Extraction is best effort per tile: a tile
// missing a title or link is skipped, not fatal.
func (w *Worker) Scrape(ctx context.Context, query string) ([]models.RawItem, error) {
	searchURL := w.def.SearchURLFor(query)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := w.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search page returned %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse search page: %w", err)
	}

	var items []models.RawItem
	doc.Find(w.def.Selectors.Item).Each(func(_ int, tile *goquery.Selection) {
		item, ok := w.extractTile(tile)
		if !ok {
			return
		}
		items = append(items, item)
	})

	w.logger.Debug("scrape extracted tiles", map[string]interface{}{
		"query": query,
		"tiles": len(items),
	})
	return items, nil
}

// Close drops the session cookies.
func (w *Worker) Close() error {
	w.client.Jar = nil
	w.client.CloseIdleConnections()
	return nil
}

func (w *Worker) extractTile(tile *goquery.Selection) (models.RawItem, bool) {
	title := strings.TrimSpace(tile.Find(w.def.Selectors.Title).First().Text())
	if title == "" {
		return models.RawItem{}, false
	}

	href, _ := tile.Find(w.def.Selectors.Link).First().Attr("href")
	productURL := w.resolve(href)
	if productURL == "" {
		return models.RawItem{}, false
	}

	img := tile.Find(w.def.Selectors.Image).First()
	imageURL, ok := img.Attr("src")
	if !ok || imageURL == "" {
		// Lazy-loaded images park the real source in a data attribute.
		imageURL, _ = img.Attr("data-src")
	}

	var sizes []string
	if w.def.Selectors.Sizes != "" {
		tile.Find(w.def.Selectors.Sizes).Each(func(_ int, s *goquery.Selection) {
			if label := strings.TrimSpace(s.Text()); label != "" {
				sizes = append(sizes, label)
			}
		})
	}

	return models.RawItem{
		Title:      title,
		Price:      strings.TrimSpace(tile.Find(w.def.Selectors.Price).First().Text()),
		ImageURL:   w.resolve(imageURL),
		ProductURL: productURL,
		Sizes:      sizes,
		Context:    strings.Join(strings.Fields(tile.Text()), " "),
	}, true
}

// resolve turns a possibly relative href into an absolute URL against the
// store origin.
func (w *Worker) resolve(href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if u.IsAbs() {
		return href
	}
	base, err := url.Parse(w.def.BaseURL)
	if err != nil || base.Host == "" {
		return ""
	}
	return base.ResolveReference(u).String()
}
