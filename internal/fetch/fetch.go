package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/hashicorp/go-retryablehttp"
)

// maxBody caps a single fetched dependency.
const maxBody = 16 << 20

// Client fetches URLs, retrying transient failures.
type Client struct {
	http   *retryablehttp.Client
	logger *log.Logger
}

// New returns a Client that retries up to retries times.
func New(retries int, timeout time.Duration, logger *log.Logger) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = retries
	rc.HTTPClient.Timeout = timeout
	rc.Logger = nil
	if logger != nil {
		rc.RequestLogHook = func(_ retryablehttp.Logger, req *http.Request, attempt int) {
			if attempt > 0 {
				logger.Debug("retrying dependency fetch", "url", req.URL.String(), "attempt", attempt)
			}
		}
	}
	return &Client{http: rc, logger: logger}
}

// Fetch returns the body of url. Non-2xx responses are errors.
func (c *Client) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetching %s: unexpected status %s", url, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", url, err)
	}
	if len(body) > maxBody {
		return nil, fmt.Errorf("fetching %s: body exceeds %d bytes", url, maxBody)
	}
	return body, nil
}
