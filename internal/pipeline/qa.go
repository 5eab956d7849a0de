// internal/pipeline/qa.go
package pipeline

import (
	"context"
	"math"
	"net/url"
	"time"

	httpclient "sneakscout/internal/common/http"
	"sneakscout/internal/common/logger"
	"sneakscout/internal/common/metrics"
	"sneakscout/internal/models"
)

// Prober issues a lightweight existence check against a URL.
type Prober interface {
	Probe(ctx context.Context, url string) bool
}

// HeadProber probes with an HTTP HEAD request; any 2xx or 3xx answer counts
// as alive. Redirects are fine, many storefronts bounce image requests
// through CDN locale handlers.
type HeadProber struct {
	client  *httpclient.Client
	timeout time.Duration
}

func NewHeadProber(client *httpclient.Client, timeout time.Duration) *HeadProber {
	return &HeadProber{client: client, timeout: timeout}
}

func (p *HeadProber) Probe(ctx context.Context, url string) bool {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	resp, err := p.client.Head(ctx, url)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode >= 200 && resp.StatusCode < 400
}

// QAChecker is the quality gate of the pipeline: structural URL checks,
// price sanity bounds and an optional liveness probe.
type QAChecker struct {
	maxPrice float64
	prober   Prober
	logger   logger.Logger
}

// NewQAChecker builds the gate. A nil prober disables the liveness probe,
// used when a run wants to stay fully offline.
func NewQAChecker(maxPrice float64, prober Prober, log logger.Logger) *QAChecker {
	return &QAChecker{
		maxPrice: maxPrice,
		prober:   prober,
		logger:   log.WithFields(map[string]interface{}{"stage": "qa"}),
	}
}

// Check returns false when the normalized item fails a quality rule.
func (c *QAChecker) Check(ctx context.Context, item *models.NormalizedItem) bool {
	if !c.priceSane(item.Price) {
		c.reject(item, "price out of bounds")
		metrics.PipelineRejections.WithLabelValues("qa_price").Inc()
		return false
	}

	if !urlWellFormed(item.ProductURL) {
		c.reject(item, "malformed product url")
		metrics.PipelineRejections.WithLabelValues("qa_url").Inc()
		return false
	}

	// The reachability probe targets the image: a dead image means a pulled
	// or placeholder listing. The product URL above only has to parse; an
	// item without an image skips the probe.
	if c.prober != nil && item.ImageURL != "" && !c.prober.Probe(ctx, item.ImageURL) {
		c.reject(item, "image url probe failed")
		metrics.PipelineRejections.WithLabelValues("qa_probe").Inc()
		return false
	}

	return true
}

// priceSane enforces the exclusive sanity band 0 < price < maxPrice. A zero
// price is a scrape artifact and an absurdly high one is almost always a
// parsing error, not a real listing.
func (c *QAChecker) priceSane(price float64) bool {
	if math.IsNaN(price) || math.IsInf(price, 0) {
		return false
	}
	return price > 0 && price < c.maxPrice
}

func urlWellFormed(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return u.IsAbs() && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func (c *QAChecker) reject(item *models.NormalizedItem, reason string) {
	c.logger.Debug("item rejected", map[string]interface{}{
		"title":  item.Title,
		"store":  item.Store,
		"reason": reason,
	})
}
