// internal/sink/elastic.go
package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"sneakscout/internal/common/logger"
	"sneakscout/internal/models"
)

// ElasticSink indexes each validated item as its own document so found
// listings stay queryable across runs.
type ElasticSink struct {
	client      *elasticsearch.Client
	indexPrefix string
	logger      logger.Logger
}

func NewElasticSink(client *elasticsearch.Client, indexPrefix string, log logger.Logger) *ElasticSink {
	if indexPrefix == "" {
		indexPrefix = "sneakscout"
	}
	return &ElasticSink{
		client:      client,
		indexPrefix: indexPrefix,
		logger:      log.WithFields(map[string]interface{}{"sink": "elasticsearch"}),
	}
}

type itemDocument struct {
	models.FinalItem
	SearchTerm string    `json:"searchTerm"`
	IndexedAt  time.Time `json:"indexedAt"`
}

// IndexItem writes one found item into the daily items index. Indexing is
// best effort; a failure is logged and never propagated into the run.
func (s *ElasticSink) IndexItem(ctx context.Context, item *models.FinalItem, searchTerm string) {
	doc := itemDocument{
		FinalItem:  *item,
		SearchTerm: searchTerm,
		IndexedAt:  time.Now().UTC(),
	}

	payload, err := json.Marshal(doc)
	if err != nil {
		s.logger.Warn("item document marshal failed", map[string]interface{}{"error": err.Error()})
		return
	}

	index := fmt.Sprintf("%s-items-%s", s.indexPrefix, time.Now().UTC().Format("2006.01.02"))
	req := esapi.IndexRequest{
		Index:      index,
		DocumentID: item.ID,
		Body:       bytes.NewReader(payload),
	}

	res, err := req.Do(ctx, s.client)
	if err != nil {
		s.logger.Warn("item indexing failed", map[string]interface{}{
			"index": index,
			"error": err.Error(),
		})
		return
	}
	defer res.Body.Close()

	if res.IsError() {
		s.logger.Warn("item indexing rejected", map[string]interface{}{
			"index":  index,
			"status": res.Status(),
		})
	}
}
