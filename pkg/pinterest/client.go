package pinterest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"pindm/pkg/errors"
	"pindm/pkg/logger"
	"pindm/pkg/retry"
)

// Client performs HTTP requests against Pinterest with browser-like headers
type Client struct {
	httpClient *http.Client
	headers    map[string]string
	maxRetries int
	logger     logger.Logger
}

// NewClient creates a new Pinterest HTTP client. maxRetries bounds the
// transparent retries of transient failures on page fetches.
func NewClient(timeout time.Duration, maxRetries int, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		headers: map[string]string{
			"User-Agent":      "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
			"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8",
			"Accept-Language": "en-US,en;q=0.9",
			"Cache-Control":   "no-cache",
			"Pragma":          "no-cache",
			"Sec-Fetch-Dest":  "document",
			"Sec-Fetch-Mode":  "navigate",
			"Sec-Fetch-Site":  "none",
			"Sec-Fetch-User":  "?1",
		},
		maxRetries: maxRetries,
		logger:     log,
	}
}

// SetHeader sets a custom header for the client
func (c *Client) SetHeader(key, value string) {
	c.headers[key] = value
}

// doRequest performs an HTTP request with the configured headers
func (c *Client) doRequest(req *http.Request) (*http.Response, error) {
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	start := time.Now()
	c.logger.DebugWithFields("sending HTTP request", map[string]interface{}{
		"method": req.Method,
		"url":    req.URL.String(),
	})

	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		c.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"method":   req.Method,
			"url":      req.URL.String(),
			"error":    err.Error(),
			"duration": duration,
		})
		return nil, errors.New(errors.ErrorTypeNetwork, fmt.Sprintf("network error: %v", err), 0)
	}

	c.logger.DebugWithFields("HTTP request completed", map[string]interface{}{
		"method":   req.Method,
		"url":      req.URL.String(),
		"status":   resp.StatusCode,
		"duration": duration,
	})

	return resp, nil
}

// Get performs a GET request to the specified URL
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.New(errors.ErrorTypeUnknown, fmt.Sprintf("failed to create request: %v", err), 0)
	}

	return c.doRequest(req)
}

// FetchPage fetches a page and returns its raw markup. Transient failures
// (network errors, 5xx, 429) are retried with exponential backoff up to the
// configured attempt limit; everything else surfaces immediately.
func (c *Client) FetchPage(ctx context.Context, url string) (string, error) {
	fetch := func() (string, error) {
		resp, err := c.Get(ctx, url)
		if err != nil {
			return "", err
		}
		defer resp.Body.Close()

		if err := c.checkResponseStatus(resp); err != nil {
			return "", err
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return "", errors.New(errors.ErrorTypeNetwork,
				fmt.Sprintf("failed to read response body: %v", err), resp.StatusCode)
		}

		return string(body), nil
	}

	if c.maxRetries <= 0 {
		return fetch()
	}

	return retry.DoWithResult(fetch, &retry.Config{
		MaxAttempts: c.maxRetries + 1,
		Backoff:     retry.DefaultExponentialBackoff(),
		RetryIf:     retry.DefaultRetryIf,
		Context:     ctx,
		Logger:      c.logger,
	})
}

// Download fetches the raw bytes of a media URL. No transparent retry: the
// download scheduler owns failure accounting and pacing.
func (c *Client) Download(ctx context.Context, url string) ([]byte, error) {
	resp, err := c.Get(ctx, url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := c.checkResponseStatus(resp); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.New(errors.ErrorTypeNetwork,
			fmt.Sprintf("failed to read media data: %v", err), resp.StatusCode)
	}

	c.logger.DebugWithFields("media downloaded", map[string]interface{}{
		"url":  url,
		"size": len(data),
	})

	return data, nil
}

// checkResponseStatus maps HTTP response statuses onto the error taxonomy
func (c *Client) checkResponseStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode == http.StatusTooManyRequests:
		c.logger.WarnWithFields("rate limit exceeded", map[string]interface{}{
			"status": resp.StatusCode,
			"url":    resp.Request.URL.String(),
		})
		return errors.New(errors.ErrorTypeRateLimit, "rate limit exceeded", resp.StatusCode)
	case resp.StatusCode == http.StatusNotFound:
		return errors.New(errors.ErrorTypeNotFound, "resource not found", resp.StatusCode)
	case resp.StatusCode >= 500:
		return errors.New(errors.ErrorTypeServerError, "server error", resp.StatusCode)
	case resp.StatusCode >= 400:
		return errors.New(errors.ErrorTypeUnknown,
			fmt.Sprintf("unexpected status code: %d", resp.StatusCode), resp.StatusCode)
	default:
		return nil
	}
}
