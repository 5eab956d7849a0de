// internal/orchestrator/orchestrator.go

// Package orchestrator runs the storefront worker fleet for one search:
// query expansion, batched dispatch, failure isolation, aggregation and the
// run event stream.
package orchestrator

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"sneakscout/internal/common/errors"
	"sneakscout/internal/common/logger"
	"sneakscout/internal/common/metrics"
	"sneakscout/internal/models"
	"sneakscout/internal/pipeline"
	"sneakscout/internal/search"
)

// Options are the scheduling knobs for a run.
type Options struct {
	BatchSize     int           // workers dispatched concurrently per batch
	BatchCooldown time.Duration // pause between batches within a variant
	ScrapeTimeout time.Duration // covers Open and Scrape, not Close or validation
	MaxConcurrent int           // global bound over variant x worker tasks
	DispatchRate  rate.Limit    // task starts per second, 0 disables pacing
}

// Orchestrator coordinates one search run across the worker fleet.
type Orchestrator struct {
	workers  []Worker
	planner  *search.Planner
	pipeline *pipeline.Pipeline
	bus      *EventBus
	agg      *Aggregator
	opts     Options
	logger   logger.Logger
}

// New builds an orchestrator around an injected aggregator, so event
// consumers can read consistent partial snapshots while the run is live. A
// nil aggregator gets a private one.
func New(workers []Worker, planner *search.Planner, pl *pipeline.Pipeline, bus *EventBus, agg *Aggregator, opts Options, log logger.Logger) *Orchestrator {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 3
	}
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = 5
	}
	if agg == nil {
		agg = NewAggregator()
	}
	return &Orchestrator{
		workers:  workers,
		planner:  planner,
		pipeline: pl,
		bus:      bus,
		agg:      agg,
		opts:     opts,
		logger:   log.WithFields(map[string]interface{}{"component": "orchestrator"}),
	}
}

// RunSummary is the terminal outcome of one search.
type RunSummary struct {
	Results  []models.FinalItem
	Workers  []models.WorkerResult
	Patterns []string
	Duration time.Duration
}

// StartSearch runs the full fan-out for one query and blocks until every
// worker task has finished. Worker failures never fail the run; a run with
// zero results is a valid outcome.
func (o *Orchestrator) StartSearch(ctx context.Context, q models.Query) (*RunSummary, error) {
	started := time.Now()

	agg := o.agg
	patterns := o.planner.BuildMatchPatterns(q.Model)

	o.bus.Emit(models.Event{
		Kind:        models.EventSearchStarted,
		Brand:       q.Brand,
		Model:       q.Model,
		Size:        q.Size,
		WorkerCount: len(o.workers),
	})

	if len(o.workers) == 0 {
		o.logger.Warn("no workers registered, completing immediately", nil)
		o.bus.Emit(models.Event{Kind: models.EventSearchCompleted})
		return &RunSummary{
			Results:  []models.FinalItem{},
			Patterns: patternStrings(patterns),
			Duration: time.Since(started),
		}, nil
	}

	variants := o.planner.ExpandVariants(q)

	var limiter *rate.Limiter
	if o.opts.DispatchRate > 0 {
		limiter = rate.NewLimiter(o.opts.DispatchRate, 1)
	}
	sem := make(chan struct{}, o.opts.MaxConcurrent)

	var wg sync.WaitGroup
	for _, variant := range variants {
		wg.Add(1)
		go func(variant string) {
			defer wg.Done()
			o.runVariant(ctx, variant, q, patterns, agg, sem, limiter)
		}(variant)
	}
	wg.Wait()

	results := agg.Finalize()
	o.bus.Emit(models.Event{
		Kind:         models.EventSearchCompleted,
		TotalResults: len(results),
	})

	return &RunSummary{
		Results:  results,
		Workers:  agg.Workers(),
		Patterns: patternStrings(patterns),
		Duration: time.Since(started),
	}, nil
}

// runVariant dispatches every eligible worker for one query variant in
// batches, waiting out the cooldown between batches. Batch completion uses
// settled semantics: a batch ends when all of its workers have finished,
// successfully or not.
func (o *Orchestrator) runVariant(ctx context.Context, variant string, q models.Query, patterns []*regexp.Regexp, agg *Aggregator, sem chan struct{}, limiter *rate.Limiter) {
	eligible := make([]Worker, 0, len(o.workers))
	for _, w := range o.workers {
		if workerWantsQuery(w, q.Brand) {
			eligible = append(eligible, w)
		} else {
			o.logger.Debug("worker skipped by brand affinity", map[string]interface{}{
				"store": w.Name(),
				"brand": q.Brand,
			})
		}
	}

	for start := 0; start < len(eligible); start += o.opts.BatchSize {
		if ctx.Err() != nil {
			return
		}

		end := start + o.opts.BatchSize
		if end > len(eligible) {
			end = len(eligible)
		}

		var wg sync.WaitGroup
		for _, w := range eligible[start:end] {
			wg.Add(1)
			go func(w Worker) {
				defer wg.Done()
				o.executeWorker(ctx, w, variant, q, patterns, agg, sem, limiter)
			}(w)
		}
		wg.Wait()

		if end < len(eligible) && o.opts.BatchCooldown > 0 {
			select {
			case <-time.After(o.opts.BatchCooldown):
			case <-ctx.Done():
				return
			}
		}
	}
}

// executeWorker runs one worker through its lifecycle for one variant. The
// scrape deadline covers Open and Scrape only; Close and item validation
// run outside it. Any failure is contained to this worker.
func (o *Orchestrator) executeWorker(ctx context.Context, w Worker, variant string, q models.Query, patterns []*regexp.Regexp, agg *Aggregator, sem chan struct{}, limiter *rate.Limiter) {
	select {
	case sem <- struct{}{}:
		defer func() { <-sem }()
	case <-ctx.Done():
		return
	}

	if limiter != nil {
		if err := limiter.Wait(ctx); err != nil {
			return
		}
	}

	store := w.Name()
	log := o.logger.WithFields(map[string]interface{}{
		"store":   store,
		"variant": variant,
	})

	metrics.WorkersActive.Inc()
	defer metrics.WorkersActive.Dec()

	// Degenerate repeated tokens hurt storefront search relevance.
	query := search.DedupeWords(variant)

	scrapeStart := time.Now()
	raw, status := o.openAndScrape(ctx, w, query, log)
	metrics.WorkerScrapeDuration.WithLabelValues(store).Observe(time.Since(scrapeStart).Seconds())

	if err := w.Close(); err != nil {
		log.Warn("worker close failed", map[string]interface{}{"error": err.Error()})
	}

	if status != models.WorkerStatusSuccess {
		metrics.WorkerScrapesFailed.WithLabelValues(store, string(status)).Inc()
		agg.RecordWorker(models.WorkerResult{Store: store, Status: status})
		return
	}
	metrics.WorkerScrapesCompleted.WithLabelValues(store).Inc()

	accepted := 0
	for _, item := range raw {
		if ctx.Err() != nil {
			break
		}
		// Cheap title pre-filter ahead of the full pipeline.
		if !search.MatchesAny(item.Title+" "+item.Context, patterns) {
			continue
		}
		final, ok := o.pipeline.Process(ctx, item, q, store)
		if !ok {
			continue
		}
		if !agg.Add(final) {
			continue
		}
		accepted++
		o.bus.Emit(models.Event{Kind: models.EventItemFound, Item: final})
	}

	log.Info("worker finished", map[string]interface{}{
		"rawItems": len(raw),
		"accepted": accepted,
	})
	agg.RecordWorker(models.WorkerResult{
		Store:     store,
		Status:    models.WorkerStatusSuccess,
		ItemCount: accepted,
	})
}

// openAndScrape runs the deadline-bounded phases on their own goroutine so
// a hung worker cannot stall the batch past the timeout.
func (o *Orchestrator) openAndScrape(ctx context.Context, w Worker, query string, log logger.Logger) ([]models.RawItem, models.WorkerStatus) {
	scrapeCtx := ctx
	var cancel context.CancelFunc
	if o.opts.ScrapeTimeout > 0 {
		scrapeCtx, cancel = context.WithTimeout(ctx, o.opts.ScrapeTimeout)
		defer cancel()
	}

	type outcome struct {
		items  []models.RawItem
		status models.WorkerStatus
	}
	done := make(chan outcome, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Error("worker panic recovered", map[string]interface{}{
					"panic": fmt.Sprint(r),
				})
				done <- outcome{status: models.WorkerStatusError}
			}
		}()

		if err := w.Open(scrapeCtx); err != nil {
			log.Error("worker open failed", map[string]interface{}{
				"error": errors.NewWorkerOpenFailedError(w.Name(), err).Error(),
			})
			done <- outcome{status: models.WorkerStatusError}
			return
		}

		items, err := w.Scrape(scrapeCtx, query)
		if err != nil {
			log.Error("worker scrape failed", map[string]interface{}{
				"error": errors.NewWorkerScrapeFailedError(w.Name(), err).Error(),
			})
			done <- outcome{status: models.WorkerStatusError}
			return
		}
		done <- outcome{items: items, status: models.WorkerStatusSuccess}
	}()

	select {
	case out := <-done:
		return out.items, out.status
	case <-scrapeCtx.Done():
		log.Warn("worker deadline exceeded", map[string]interface{}{
			"error": errors.NewWorkerTimeoutError(w.Name()).Error(),
		})
		return nil, models.WorkerStatusTimeout
	}
}

func patternStrings(patterns []*regexp.Regexp) []string {
	out := make([]string, 0, len(patterns))
	for _, p := range patterns {
		out = append(out, strings.TrimPrefix(p.String(), "(?i)"))
	}
	return out
}
