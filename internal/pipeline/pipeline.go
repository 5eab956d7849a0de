// internal/pipeline/pipeline.go

// Package pipeline implements the staged validation chain that turns raw
// storefront candidates into display-ready results. Stages run in a fixed
// order, cheapest first: semantic text rules, normalization, visual
// verification, quality checks, then formatting. A rejection at any stage
// drops that item only.
package pipeline

import (
	"context"

	"sneakscout/internal/common/logger"
	"sneakscout/internal/common/metrics"
	"sneakscout/internal/models"
	"sneakscout/internal/vision"
)

// Pipeline chains the validation stages for one run.
type Pipeline struct {
	validator  *Validator
	normalizer *Normalizer
	verifier   *vision.Verifier
	qa         *QAChecker
	formatter  *Formatter
	logger     logger.Logger
}

func New(validator *Validator, normalizer *Normalizer, verifier *vision.Verifier, qa *QAChecker, formatter *Formatter, log logger.Logger) *Pipeline {
	return &Pipeline{
		validator:  validator,
		normalizer: normalizer,
		verifier:   verifier,
		qa:         qa,
		formatter:  formatter,
		logger:     log.WithFields(map[string]interface{}{"component": "pipeline"}),
	}
}

// Process runs one raw item through every stage. The second return is false
// when any stage rejected the item.
func (p *Pipeline) Process(ctx context.Context, raw models.RawItem, q models.Query, store string) (*models.FinalItem, bool) {
	if !p.validator.Validate(raw, q) {
		metrics.PipelineRejections.WithLabelValues("semantic").Inc()
		return nil, false
	}

	normalized, err := p.normalizer.Normalize(raw, store)
	if err != nil {
		metrics.PipelineRejections.WithLabelValues("normalize").Inc()
		p.logger.Debug("normalization dropped item", map[string]interface{}{
			"title": raw.Title,
			"error": err.Error(),
		})
		return nil, false
	}

	if !p.verifier.Verify(ctx, normalized, q.Model) {
		metrics.PipelineRejections.WithLabelValues("vision").Inc()
		return nil, false
	}

	if !p.qa.Check(ctx, normalized) {
		return nil, false
	}

	final := p.formatter.Format(normalized)
	metrics.ItemsEmitted.WithLabelValues(store).Inc()
	return final, true
}
