package worldid

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gojek/heimdall/v7"
	"github.com/gojek/heimdall/v7/httpclient"
)

// HTTPConfig tunes the retrying client shared by the adapters
type HTTPConfig struct {
	Timeout    time.Duration
	RetryCount int
	Backoff    time.Duration
}

func newHTTPClient(cfg HTTPConfig) heimdall.Doer {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	backoff := heimdall.NewConstantBackoff(cfg.Backoff, cfg.Backoff/2)

	return httpclient.NewClient(
		httpclient.WithHTTPTimeout(cfg.Timeout),
		httpclient.WithRetryCount(cfg.RetryCount),
		httpclient.WithRetrier(heimdall.NewRetrier(backoff)),
	)
}

func postJSON(ctx context.Context, client heimdall.Doer, url string, body interface{}) (int, []byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "tute")

	res, err := client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("request to %s failed: %w", url, err)
	}
	defer res.Body.Close()

	data, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return res.StatusCode, nil, fmt.Errorf("failed to read response: %w", err)
	}

	return res.StatusCode, data, nil
}
