// internal/vision/verifier.go
package vision

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"time"

	"sneakscout/internal/common/logger"
	"sneakscout/internal/models"
)

// FailOpen is the policy for classifier outages: an unverifiable image is
// kept rather than dropped, since the later gates still bound the damage.
const FailOpen = true

// failureTTL bounds how long a fail-open verdict from a classifier error
// stays cached. Short, so a recovered endpoint gets to re-judge the image
// without waiting out the full verdict TTL.
const failureTTL = 15 * time.Minute

// Verifier checks that an item's image actually shows the searched model,
// consulting the cache before the classifier.
type Verifier struct {
	classifier Classifier
	cache      Cache
	ttl        time.Duration
	logger     logger.Logger
}

// NewVerifier builds a verifier. A nil classifier disables visual
// verification entirely and every item passes. A nil cache falls back to an
// in-process map.
func NewVerifier(classifier Classifier, cache Cache, ttl time.Duration, log logger.Logger) *Verifier {
	if cache == nil {
		cache = NewMemoryCache()
	}
	return &Verifier{
		classifier: classifier,
		cache:      cache,
		ttl:        ttl,
		logger:     log.WithFields(map[string]interface{}{"stage": "vision"}),
	}
}

// Verify returns the verdict for one item against the searched model. Every
// classifier outcome is persisted so a flapping endpoint cannot flip an
// image's verdict between runs.
func (v *Verifier) Verify(ctx context.Context, item *models.NormalizedItem, model string) bool {
	if v.classifier == nil {
		return true
	}
	if item.ImageURL == "" {
		// Nothing to verify; the text gates already passed.
		return FailOpen
	}

	key := CacheKey(item.ImageURL, model)
	if verdict, ok, err := v.cache.Get(ctx, key); err == nil && ok {
		return verdict
	} else if err != nil {
		v.logger.Warn("verdict cache read failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	verdict, err := v.classifier.Classify(ctx, item.ImageURL, model)
	if err != nil {
		v.logger.Warn("classification failed, keeping item", map[string]interface{}{
			"imageUrl": item.ImageURL,
			"error":    err.Error(),
		})
		if err := v.cache.Set(ctx, key, FailOpen, failureTTL); err != nil {
			v.logger.Warn("verdict cache write failed", map[string]interface{}{
				"error": err.Error(),
			})
		}
		return FailOpen
	}

	if err := v.cache.Set(ctx, key, verdict, v.ttl); err != nil {
		v.logger.Warn("verdict cache write failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
	return verdict
}

// CacheKey fingerprints an image+model pair. The model is part of the key:
// the same photo can be the right answer for one query and the wrong one
// for another.
func CacheKey(imageURL, model string) string {
	sum := sha1.Sum([]byte(imageURL + "|" + model))
	return hex.EncodeToString(sum[:])
}
