package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/asy251189/HarmonyGuard/pkg/config"
	"github.com/asy251189/HarmonyGuard/pkg/detection"
	"github.com/asy251189/HarmonyGuard/pkg/observability/logging"
	"github.com/asy251189/HarmonyGuard/pkg/observability/metrics"
)

// HTTPClient talks to the external scoring service over its JSON API.
type HTTPClient struct {
	httpClient *http.Client
	url        string
	timeout    time.Duration
}

// NewHTTPClient builds a client from the classifier config. The configured
// timeout bounds each Classify call regardless of the caller's context.
func NewHTTPClient(cfg config.ClassifierConfig) *HTTPClient {
	timeout := time.Duration(cfg.TimeoutMs) * time.Millisecond
	return &HTTPClient{
		httpClient: &http.Client{Timeout: timeout},
		url:        cfg.URL,
		timeout:    timeout,
	}
}

type classifyRequest struct {
	Items []Request `json:"items"`
}

type classifyResponse struct {
	Scores []Score `json:"scores"`
}

// Classify submits the batch in order and returns one Score per item in the
// same order. Timeouts and 5xx responses come back as
// detection.ErrClassifierTimeout so the pipeline can degrade; malformed
// responses and 4xx are fatal.
func (c *HTTPClient) Classify(ctx context.Context, batch []Request) ([]Score, error) {
	if len(batch) == 0 {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	jsonData, err := json.Marshal(classifyRequest{Items: batch})
	if err != nil {
		return nil, &detection.ClassifierFatalError{Err: fmt.Errorf("marshal request: %w", err)}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(jsonData))
	if err != nil {
		return nil, &detection.ClassifierFatalError{Err: fmt.Errorf("create request: %w", err)}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	metrics.ClassifierDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		// Connection failures and deadline hits are transient: the
		// pipeline keeps serving on lexicon+context evidence alone.
		metrics.RecordClassifierError("transient")
		logging.Warnf("classifier call failed, degrading: %v", err)
		return nil, fmt.Errorf("%w: %v", detection.ErrClassifierTimeout, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.RecordClassifierError("transient")
		return nil, fmt.Errorf("%w: read response: %v", detection.ErrClassifierTimeout, err)
	}

	if resp.StatusCode >= 500 {
		metrics.RecordClassifierError("transient")
		logging.Warnf("classifier returned status %d, degrading", resp.StatusCode)
		return nil, fmt.Errorf("%w: status %d", detection.ErrClassifierTimeout, resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		metrics.RecordClassifierError("fatal")
		return nil, &detection.ClassifierFatalError{
			Err: fmt.Errorf("status %d: %s", resp.StatusCode, string(body)),
		}
	}

	var parsed classifyResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		metrics.RecordClassifierError("fatal")
		return nil, &detection.ClassifierFatalError{Err: fmt.Errorf("parse response: %w", err)}
	}
	if len(parsed.Scores) != len(batch) {
		metrics.RecordClassifierError("fatal")
		return nil, &detection.ClassifierFatalError{
			Err: fmt.Errorf("got %d scores for %d items", len(parsed.Scores), len(batch)),
		}
	}

	for i := range parsed.Scores {
		parsed.Scores[i].Severity = detection.Clamp01(parsed.Scores[i].Severity)
	}
	logging.Debugf("classifier scored %d items in %s", len(batch), time.Since(start))
	return parsed.Scores, nil
}

// IsTransient reports whether a classifier error is recoverable by degrading
// to lexicon+context scoring.
func IsTransient(err error) bool {
	return errors.Is(err, detection.ErrClassifierTimeout)
}
