// cmd/sneakscout/progress.go
package main

import (
	"context"
	"sync"
	"time"

	httpclient "sneakscout/internal/common/http"
	"sneakscout/internal/common/logger"
	"sneakscout/internal/models"
	"sneakscout/internal/orchestrator"
	"sneakscout/internal/pipeline"
	"sneakscout/internal/sink"
)

func newProber(timeout time.Duration) pipeline.Prober {
	if timeout <= 0 {
		return nil
	}
	return pipeline.NewHeadProber(httpclient.NewClient(timeout), timeout)
}

// progressWriter bridges the run event stream to the sinks: partial run
// records on every found item, item export to Elasticsearch, and the final
// record at completion. Partial records read the shared aggregator snapshot
// rather than tracking items themselves, so a partial file always shows the
// same deduped, price-sorted list the final record will.
type progressWriter struct {
	file          *sink.FileSink
	pg            *sink.PostgresSink
	es            *sink.ElasticSink
	agg           *orchestrator.Aggregator
	query         models.Query
	searchTerm    string
	writePartials bool
	logger        logger.Logger

	mu       sync.Mutex
	patterns []string
}

func newProgressWriter(file *sink.FileSink, pg *sink.PostgresSink, es *sink.ElasticSink, agg *orchestrator.Aggregator, query models.Query, searchTerm string, writePartials bool, log logger.Logger) *progressWriter {
	return &progressWriter{
		file:          file,
		pg:            pg,
		es:            es,
		agg:           agg,
		query:         query,
		searchTerm:    searchTerm,
		writePartials: writePartials,
		logger:        log.WithFields(map[string]interface{}{"component": "progress"}),
	}
}

func (p *progressWriter) onEvent(event models.Event) {
	switch event.Kind {
	case models.EventSearchStarted:
		if p.writePartials {
			p.writePartial()
		}
	case models.EventItemFound:
		if event.Item == nil {
			return
		}
		if p.es != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			p.es.IndexItem(ctx, event.Item, p.searchTerm)
			cancel()
		}
		if p.writePartials {
			p.writePartial()
		}
	}
}

func (p *progressWriter) writePartial() {
	record := p.record(true, p.agg.Snapshot(), nil)

	if err := p.file.Write(record); err != nil {
		p.logger.Warn("partial run record write failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

// writeFinal persists the completed run to every configured sink.
func (p *progressWriter) writeFinal(ctx context.Context, summary *orchestrator.RunSummary) error {
	p.mu.Lock()
	p.patterns = summary.Patterns
	p.mu.Unlock()

	record := p.record(false, summary.Results, summary.Workers)

	if p.pg != nil {
		if err := p.pg.Write(ctx, record); err != nil {
			p.logger.Warn("run history write failed", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}
	return p.file.Write(record)
}

func (p *progressWriter) record(running bool, results []models.FinalItem, workers []models.WorkerResult) *models.RunRecord {
	return &models.RunRecord{
		IsRunning:       running,
		SearchTerm:      p.searchTerm,
		SizeFilter:      p.query.Size,
		AppliedPatterns: p.patterns,
		Results:         results,
		Workers:         workers,
	}
}
