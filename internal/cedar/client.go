// Package cedar fetches perf results and their artifacts from the cedar service.
package cedar

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/armadaproject/perftools/internal/common/fetch"
	"github.com/armadaproject/perftools/internal/common/logging"
)

// API is the part of cedar used by the workload commands.
type API interface {
	PerfResults(ctx context.Context, taskID string) ([]PerfResult, error)
	Download(ctx context.Context, artifactURL, path string) error
}

type Client struct {
	baseURL string
	http    *fetch.Client
}

func NewClient(baseURL string, options fetch.Options) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    fetch.NewClient(options, nil),
	}
}

// PerfResults returns the results of every test of every execution of a task.
func (c *Client) PerfResults(ctx context.Context, taskID string) ([]PerfResult, error) {
	var results []PerfResult
	endpoint := fmt.Sprintf("%s/rest/v1/perf/task_id/%s", c.baseURL, url.PathEscape(taskID))
	if err := c.http.GetJSON(ctx, endpoint, &results); err != nil {
		return nil, err
	}
	logging.WithField("task", taskID).Debugf("Found %d perf results", len(results))
	return results, nil
}

// Download saves an artifact to path.
func (c *Client) Download(ctx context.Context, artifactURL, path string) error {
	return c.http.Download(ctx, artifactURL, path)
}
