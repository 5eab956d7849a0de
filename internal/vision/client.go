// internal/vision/client.go
package vision

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"sneakscout/internal/common/logger"
)

// Classifier answers whether an image depicts the given sneaker model.
type Classifier interface {
	Classify(ctx context.Context, imageURL, model string) (bool, error)
}

// HTTPClassifier calls an external vision endpoint. The endpoint receives
// the image URL and the expected model and must answer with a bare YES or
// NO verdict; anything else is treated as a classification failure.
type HTTPClassifier struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     logger.Logger
}

func NewHTTPClassifier(baseURL, apiKey string, timeout time.Duration, log logger.Logger) *HTTPClassifier {
	return &HTTPClassifier{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		logger:     log.WithFields(map[string]interface{}{"component": "vision-classifier"}),
	}
}

type classifyRequest struct {
	ImageURL string `json:"imageUrl"`
	Model    string `json:"model"`
}

type classifyResponse struct {
	Verdict string `json:"verdict"`
}

func (c *HTTPClassifier) Classify(ctx context.Context, imageURL, model string) (bool, error) {
	payload, err := json.Marshal(classifyRequest{ImageURL: imageURL, Model: model})
	if err != nil {
		return false, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/classify", bytes.NewReader(payload))
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return false, fmt.Errorf("vision endpoint returned %d: %s", resp.StatusCode, string(body))
	}

	var parsed classifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return false, fmt.Errorf("vision response decode: %w", err)
	}

	return parseVerdict(parsed.Verdict)
}

// parseVerdict accepts only an unambiguous YES or NO. Hedged answers are
// errors so the caller's fallback policy decides.
func parseVerdict(raw string) (bool, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "YES":
		return true, nil
	case "NO":
		return false, nil
	}
	return false, fmt.Errorf("ambiguous verdict %q", raw)
}
