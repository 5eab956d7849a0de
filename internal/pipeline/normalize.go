// internal/pipeline/normalize.go
package pipeline

import (
	"fmt"
	"math"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"sneakscout/internal/common/errors"
	"sneakscout/internal/common/logger"
	"sneakscout/internal/models"

	"github.com/google/uuid"
)

// DefaultCurrency is assumed when the price string carries no symbol.
const DefaultCurrency = "ILS"

var currencySymbols = map[string]string{
	"₪": "ILS",
	"$": "USD",
	"€": "EUR",
	"£": "GBP",
}

var priceNumberRe = regexp.MustCompile(`\d[\d,]*(\.\d+)?`)

// Normalizer converts a raw storefront item into the canonical form. Any
// unrecoverable defect in the raw item drops that item only.
type Normalizer struct {
	logger logger.Logger
}

func NewNormalizer(log logger.Logger) *Normalizer {
	return &Normalizer{
		logger: log.WithFields(map[string]interface{}{"stage": "normalize"}),
	}
}

// Normalize parses the price, resolves URLs and assigns a stable ID. A nil
// item with a non-nil error means the raw item was dropped.
func (n *Normalizer) Normalize(item models.RawItem, store string) (out *models.NormalizedItem, err error) {
	// A panic from malformed input must never escape into the batch.
	defer func() {
		if r := recover(); r != nil {
			n.logger.Error("normalizer panic recovered", map[string]interface{}{
				"title": item.Title,
				"panic": fmt.Sprint(r),
			})
			out = nil
			err = errors.NewNormalizationFailedError(fmt.Errorf("panic: %v", r))
		}
	}()

	price, currency, perr := ParsePrice(item.Price)
	if perr != nil {
		return nil, errors.NewNormalizationFailedError(perr)
	}

	productURL, uerr := requireAbsoluteURL(item.ProductURL)
	if uerr != nil {
		return nil, errors.NewNormalizationFailedError(fmt.Errorf("product url: %w", uerr))
	}

	id := item.ID
	if id == "" {
		id = uuid.NewString()
	}

	normalized := &models.NormalizedItem{
		ID:         id,
		Title:      strings.Join(strings.Fields(item.Title), " "),
		Price:      price,
		Currency:   currency,
		ImageURL:   strings.TrimSpace(item.ImageURL),
		ProductURL: productURL,
		Store:      store,
		Sizes:      cleanSizeLabels(item.Sizes),
	}
	normalized.Link = normalized.ProductURL
	normalized.Image = normalized.ImageURL
	return normalized, nil
}

// ParsePrice extracts a finite, non-negative numeric price and a currency
// code from a raw price string like "₪450.00" or "1,299 $".
func ParsePrice(raw string) (float64, string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, "", fmt.Errorf("empty price")
	}

	currency := DefaultCurrency
	for symbol, code := range currencySymbols {
		if strings.Contains(raw, symbol) {
			currency = code
			break
		}
	}

	number := priceNumberRe.FindString(raw)
	if number == "" {
		return 0, "", fmt.Errorf("no numeric price in %q", raw)
	}

	v, err := strconv.ParseFloat(strings.ReplaceAll(number, ",", ""), 64)
	if err != nil {
		return 0, "", fmt.Errorf("unparseable price %q: %w", raw, err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, "", fmt.Errorf("non-finite or negative price %q", raw)
	}
	return v, currency, nil
}

// requireAbsoluteURL validates the product link. Workers are expected to
// resolve relative links against their base URL before emitting, so a
// relative link here is a worker bug and the item is not salvageable.
func requireAbsoluteURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if !u.IsAbs() {
		return "", fmt.Errorf("relative url %q", raw)
	}
	return raw, nil
}

func cleanSizeLabels(sizes []string) []string {
	var cleaned []string
	for _, s := range sizes {
		s = strings.TrimSpace(s)
		if s != "" {
			cleaned = append(cleaned, s)
		}
	}
	return cleaned
}
