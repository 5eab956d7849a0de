// internal/pipeline/qa_test.go
package pipeline

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	httpclient "sneakscout/internal/common/http"
	"sneakscout/internal/common/logger"
	"sneakscout/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestQAChecker_PriceBounds(t *testing.T) {
	c := NewQAChecker(5000, nil, logger.NewTestLogger(t))
	ctx := context.Background()

	tests := []struct {
		name  string
		price float64
		pass  bool
	}{
		{"lowest accepted price", 0.01, true},
		{"typical price", 450, true},
		{"just under the ceiling", 4999.99, true},
		{"zero rejected", 0, false},
		{"ceiling itself rejected", 5000, false},
		{"above ceiling rejected", 5001, false},
		{"negative rejected", -1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := &models.NormalizedItem{
				Title:      "Nike Dunk Low",
				Price:      tt.price,
				ProductURL: "https://store.example.com/p/1",
			}
			assert.Equal(t, tt.pass, c.Check(ctx, item))
		})
	}
}

func TestQAChecker_URLStructure(t *testing.T) {
	c := NewQAChecker(5000, nil, logger.NewTestLogger(t))
	ctx := context.Background()

	tests := []struct {
		name string
		url  string
		pass bool
	}{
		{"https accepted", "https://store.example.com/p/1", true},
		{"http accepted", "http://store.example.com/p/1", true},
		{"ftp rejected", "ftp://store.example.com/p/1", false},
		{"relative rejected", "/p/1", false},
		{"hostless rejected", "https:///p/1", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := &models.NormalizedItem{Title: "x", Price: 100, ProductURL: tt.url}
			assert.Equal(t, tt.pass, c.Check(ctx, item))
		})
	}
}

func TestHeadProber(t *testing.T) {
	var status int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodHead, r.Method)
		w.WriteHeader(status)
	}))
	defer srv.Close()

	prober := NewHeadProber(httpclient.NewClient(2*time.Second), 2*time.Second)
	ctx := context.Background()

	status = http.StatusOK
	assert.True(t, prober.Probe(ctx, srv.URL))

	status = http.StatusNotFound
	assert.False(t, prober.Probe(ctx, srv.URL))

	assert.False(t, prober.Probe(ctx, "http://127.0.0.1:1/unreachable"))
}

func TestQAChecker_ImageProbe(t *testing.T) {
	var status int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}))
	defer srv.Close()

	prober := NewHeadProber(httpclient.NewClient(2*time.Second), 2*time.Second)
	c := NewQAChecker(5000, prober, logger.NewTestLogger(t))
	ctx := context.Background()

	// A dead image means a pulled listing, even with a fine product URL.
	status = http.StatusGone
	item := &models.NormalizedItem{
		Title:      "x",
		Price:      100,
		ProductURL: "https://store.example.com/p/1",
		ImageURL:   srv.URL + "/img/1.jpg",
	}
	assert.False(t, c.Check(ctx, item))

	status = http.StatusOK
	assert.True(t, c.Check(ctx, item))

	// Without an image there is nothing to probe; the product URL only has
	// to parse, it is never fetched.
	item.ImageURL = ""
	item.ProductURL = srv.URL + "/p/1"
	status = http.StatusGone
	assert.True(t, c.Check(ctx, item))
}
