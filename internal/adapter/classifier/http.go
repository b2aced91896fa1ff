package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/wiredbrain/axiom/internal/port"
)

// HTTPClassifier implements port.IntentClassifier against a small inference
// service exposing the intent model (POST /classify → {intent, confidence}).
// The model itself is an external collaborator; this adapter only carries
// label and confidence across the wire.
type HTTPClassifier struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPClassifier creates a classifier client with a bounded per-call
// timeout. A classifier that cannot answer quickly is treated the same as
// one that is down.
func NewHTTPClassifier(baseURL string, timeout time.Duration) *HTTPClassifier {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &HTTPClassifier{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Classify returns the intent label and confidence for an utterance. Any
// backend failure degrades to UnknownIntent with a warning; the request
// then routes to generation rather than failing.
func (c *HTTPClassifier) Classify(ctx context.Context, text string) (port.IntentResult, error) {
	payload, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return port.UnknownIntent, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/classify", bytes.NewReader(payload))
	if err != nil {
		slog.Warn("classifier request build failed, degrading to unknown", "error", err)
		return port.UnknownIntent, nil
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.Warn("classifier unavailable, degrading to unknown", "error", err)
		return port.UnknownIntent, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		slog.Warn("classifier error, degrading to unknown", "status", resp.StatusCode, "body", string(body))
		return port.UnknownIntent, nil
	}

	var result port.IntentResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		slog.Warn("classifier decode failed, degrading to unknown", "error", err)
		return port.UnknownIntent, nil
	}
	if result.Intent == "" {
		return port.UnknownIntent, nil
	}
	// Clamp rather than trust the backend's arithmetic.
	result.Confidence = math.Max(0, math.Min(1, result.Confidence))
	return result, nil
}
