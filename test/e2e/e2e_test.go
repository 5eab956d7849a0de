// test/e2e/e2e_test.go
package e2e

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sneakscout/internal/common/logger"
	"sneakscout/internal/models"
	"sneakscout/internal/orchestrator"
	"sneakscout/internal/pipeline"
	"sneakscout/internal/search"
	"sneakscout/internal/sink"
	"sneakscout/internal/stores"
	"sneakscout/internal/vision"
	"sneakscout/internal/workers/htmlstore"
)

// storefrontHTML mixes real listings with the noise a site search actually
// returns: accessories, wrong models and a broken tile.
const storefrontHTML = `<!DOCTYPE html>
<html><body>
<div class="product-tile">
  <h3 class="title">Nike Dunk Low Panda</h3>
  <span class="price">₪450.00</span>
  <a href="/p/dunk-low-panda">view</a>
  <img src="https://cdn.example.com/panda.jpg">
</div>
<div class="product-tile">
  <h3 class="title">Nike Dunk Low Grey Fog</h3>
  <span class="price">₪520.00</span>
  <a href="/p/dunk-low-grey">view</a>
  <img src="https://cdn.example.com/grey.jpg">
</div>
<div class="product-tile">
  <h3 class="title">Shoelaces for Nike Dunk Low</h3>
  <span class="price">₪25.00</span>
  <a href="/p/laces">view</a>
</div>
<div class="product-tile">
  <h3 class="title">Adidas Superstar</h3>
  <span class="price">₪300.00</span>
  <a href="/p/superstar">view</a>
</div>
<div class="product-tile">
  <h3 class="title">Nike Dunk Low Panda</h3>
  <span class="price">₪450.00</span>
  <a href="/p/dunk-low-panda?utm_source=dup">view</a>
</div>
</body></html>`

func startStorefront(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/search" {
			w.Write([]byte(storefrontHTML))
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func storeDefinition(name, baseURL string) stores.StoreDefinition {
	return stores.StoreDefinition{
		Name:      name,
		BaseURL:   baseURL,
		SearchURL: baseURL + "/search?q={query}",
		Selectors: stores.Selectors{
			Item:  ".product-tile",
			Title: ".title",
			Price: ".price",
			Link:  "a",
			Image: "img",
		},
		Enabled: true,
	}
}

func TestFullSearchRun(t *testing.T) {
	srv := startStorefront(t)
	log := logger.NewTestLogger(t)

	pl := pipeline.New(
		pipeline.NewValidator(pipeline.MenMatchOnUnmarked, log),
		pipeline.NewNormalizer(log),
		vision.NewVerifier(nil, nil, time.Hour, log),
		pipeline.NewQAChecker(5000, nil, log),
		pipeline.NewFormatter(60, map[string]string{"test-store": "Test Store"}),
		log,
	)

	worker := htmlstore.New(storeDefinition("test-store", srv.URL), 5*time.Second, log)
	bus := orchestrator.NewEventBus()
	orch := orchestrator.New(
		[]orchestrator.Worker{worker},
		search.NewPlanner(log),
		pl, bus, nil,
		orchestrator.Options{ScrapeTimeout: 10 * time.Second},
		log,
	)

	var events []models.EventKind
	bus.Subscribe(func(e models.Event) { events = append(events, e.Kind) })

	query := models.Query{Brand: "Nike", Model: "Dunk Low", Size: "*"}
	summary, err := orch.StartSearch(context.Background(), query)
	require.NoError(t, err)

	// Two real Dunk listings survive; the accessory, the wrong model and
	// the duplicate tile do not.
	require.Len(t, summary.Results, 2)
	assert.Equal(t, 450.0, summary.Results[0].Price)
	assert.Equal(t, []string{models.BadgeBestPrice}, summary.Results[0].Badges)
	assert.Equal(t, "Test Store", summary.Results[0].StoreLabel)

	require.NotEmpty(t, events)
	assert.Equal(t, models.EventSearchStarted, events[0])
	assert.Equal(t, models.EventSearchCompleted, events[len(events)-1])

	// The run record round-trips through the file sink and its schema.
	path := filepath.Join(t.TempDir(), "results.json")
	fileSink := sink.NewFileSink(path, log)
	require.NoError(t, fileSink.Write(&models.RunRecord{
		IsRunning:       false,
		SearchTerm:      "Nike Dunk Low",
		SizeFilter:      query.Size,
		AppliedPatterns: summary.Patterns,
		Results:         summary.Results,
		Workers:         summary.Workers,
	}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var record models.RunRecord
	require.NoError(t, json.Unmarshal(data, &record))
	assert.False(t, record.IsRunning)
	assert.Len(t, record.Results, 2)
	require.Len(t, record.Workers, 1)
	assert.Equal(t, models.WorkerStatusSuccess, record.Workers[0].Status)
}

func TestFullSearchRun_HungStoreDoesNotSinkTheRun(t *testing.T) {
	srv := startStorefront(t)
	hung := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/search" {
			<-r.Context().Done()
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(hung.Close)

	log := logger.NewTestLogger(t)
	pl := pipeline.New(
		pipeline.NewValidator(pipeline.MenMatchOnUnmarked, log),
		pipeline.NewNormalizer(log),
		vision.NewVerifier(nil, nil, time.Hour, log),
		pipeline.NewQAChecker(5000, nil, log),
		pipeline.NewFormatter(60, nil),
		log,
	)

	orch := orchestrator.New(
		[]orchestrator.Worker{
			htmlstore.New(storeDefinition("hung-store", hung.URL), time.Minute, log),
			htmlstore.New(storeDefinition("healthy-store", srv.URL), time.Minute, log),
		},
		search.NewPlanner(log),
		pl, orchestrator.NewEventBus(), nil,
		orchestrator.Options{ScrapeTimeout: 500 * time.Millisecond},
		log,
	)

	summary, err := orch.StartSearch(context.Background(), models.Query{Brand: "Nike", Model: "Dunk Low", Size: "*"})
	require.NoError(t, err)
	assert.Len(t, summary.Results, 2, "healthy store results survive")

	statuses := map[string]models.WorkerStatus{}
	for _, w := range summary.Workers {
		statuses[w.Store] = w.Status
	}
	assert.Equal(t, models.WorkerStatusTimeout, statuses["hung-store"])
	assert.Equal(t, models.WorkerStatusSuccess, statuses["healthy-store"])
}
