// Package fetch performs HTTP GET requests with retries.
package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/avast/retry-go"
	"github.com/pkg/errors"

	"github.com/armadaproject/perftools/internal/common/logging"
)

// Maximum number of bytes of an error response kept in a StatusError.
const maxErrorBody = 512

// Options has the same fields as configuration.HTTPConfig so that one converts to the other.
type Options struct {
	Timeout  time.Duration
	Attempts uint
	Delay    time.Duration
}

// StatusError is returned for responses with a non-2xx status code.
type StatusError struct {
	URL        string
	StatusCode int
	Body       string
}

func (err *StatusError) Error() string {
	return fmt.Sprintf("GET %s returned %d %s: %s", err.URL, err.StatusCode, http.StatusText(err.StatusCode), err.Body)
}

// Retryable reports whether the request might succeed if repeated.
func (err *StatusError) Retryable() bool {
	return err.StatusCode >= 500 || err.StatusCode == http.StatusTooManyRequests
}

type Client struct {
	httpClient *http.Client
	options    Options
	headers    http.Header
}

// NewClient returns a client sending headers with every request.
func NewClient(options Options, headers map[string]string) *Client {
	h := http.Header{}
	for k, v := range headers {
		h.Set(k, v)
	}
	if options.Attempts == 0 {
		options.Attempts = 1
	}
	return &Client{
		httpClient: &http.Client{Timeout: options.Timeout},
		options:    options,
		headers:    h,
	}
}

// Get returns the body of url. Connection failures, 5xx and 429 responses are retried.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	var body []byte
	err := c.do(ctx, url, func(r io.Reader) error {
		var err error
		body, err = io.ReadAll(r)
		return err
	})
	return body, err
}

// GetJSON decodes the JSON body of url into v.
func (c *Client) GetJSON(ctx context.Context, url string, v any) error {
	body, err := c.Get(ctx, url)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return errors.Wrapf(err, "failed to decode response from %s", url)
	}
	return nil
}

// Download writes the body of url to path. The file only appears once it is complete.
func (c *Client) Download(ctx context.Context, url, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.WithStack(err)
	}
	return c.do(ctx, url, func(r io.Reader) error {
		partial := path + ".partial"
		f, err := os.Create(partial)
		if err != nil {
			return errors.WithStack(err)
		}
		if _, err := io.Copy(f, r); err != nil {
			f.Close()
			os.Remove(partial)
			return errors.WithStack(err)
		}
		if err := f.Close(); err != nil {
			os.Remove(partial)
			return errors.WithStack(err)
		}
		return errors.WithStack(os.Rename(partial, path))
	})
}

func (c *Client) do(ctx context.Context, url string, consume func(io.Reader) error) error {
	return retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
			if err != nil {
				return errors.WithStack(err)
			}
			for k, v := range c.headers {
				req.Header[k] = v
			}
			resp, err := c.httpClient.Do(req)
			if err != nil {
				return errors.WithStack(err)
			}
			defer resp.Body.Close()
			if resp.StatusCode < 200 || resp.StatusCode > 299 {
				body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
				return errors.WithStack(&StatusError{URL: url, StatusCode: resp.StatusCode, Body: string(body)})
			}
			return consume(resp.Body)
		},
		retry.Context(ctx),
		retry.Attempts(c.options.Attempts),
		retry.Delay(c.options.Delay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(isRetryable),
		retry.OnRetry(func(n uint, err error) {
			logging.WithError(err).Warnf("Attempt %d of GET %s failed", n+1, url)
		}),
	)
}

func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Retryable()
	}
	return true
}
